package services

import (
	"foliomart/internal/models"
	"foliomart/internal/pagination"
)

// UserServicer defines the contract for user and credential business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	ChangePassword(userID, oldPassword, newPassword string) error
	InitiatePasswordReset(email string) error
	ResetPassword(rawToken, newPassword string) (*models.User, error)
	DeleteUser(id string) error
}

// PortfolioServicer defines the contract for the portfolio template catalog.
type PortfolioServicer interface {
	CreatePortfolio(title, path, thumbnail string, price int64, tier models.PortfolioTier) (*models.Portfolio, error)
	ListPortfolios(page pagination.PageRequest, tier *models.PortfolioTier) (*pagination.PageResponse[models.Portfolio], error)
	GetPortfolioByID(id string) (*models.Portfolio, error)
	UpdatePortfolio(id, title, thumbnail string, price *int64, tier *models.PortfolioTier) (*models.Portfolio, error)
	DeletePortfolio(id string) error
}

// BillServicer defines the contract for the bill/claim lifecycle.
type BillServicer interface {
	CreateBill(userID, portfolioID string, status models.BillStatus) (*models.Bill, error)
	GetBillByID(id string) (*models.Bill, error)
	GetUserBills(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Bill], error)
	ListBills(page pagination.PageRequest) (*pagination.PageResponse[models.Bill], error)
	RecoverBill(token string) (*models.Bill, error)
	UpdateBillStatus(id string, status models.BillStatus, adminOverride bool) (*models.Bill, error)
	DeleteBill(id string) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
