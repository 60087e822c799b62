// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("bill_status", validateBillStatus)
		_ = v.RegisterValidation("portfolio_tier", validatePortfolioTier)
	}
}

func validateBillStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "UnClaim", "Claim", "Trial":
		return true
	}
	return false
}

func validatePortfolioTier(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "Basic", "Standard", "Premium":
		return true
	}
	return false
}
