package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "foliomart/internal/errors"
	"foliomart/internal/models"
	"foliomart/internal/pagination"
	"foliomart/internal/services"
)

// PortfolioHandler handles portfolio template catalog requests
type PortfolioHandler struct {
	portfolioService services.PortfolioServicer
	auditService     services.AuditServicer
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService services.PortfolioServicer, auditService services.AuditServicer) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService, auditService: auditService}
}

// CreatePortfolioRequest represents the portfolio creation payload
type CreatePortfolioRequest struct {
	Title     string               `json:"title" binding:"required,max=255"`
	Path      string               `json:"path" binding:"required,max=255"`
	Thumbnail string               `json:"thumbnail" binding:"max=512"`
	Price     int64                `json:"price" binding:"min=0"`
	Tier      models.PortfolioTier `json:"tier" binding:"required,portfolio_tier"`
}

// UpdatePortfolioRequest represents the portfolio update payload. The path is
// immutable after creation so it is not accepted here.
type UpdatePortfolioRequest struct {
	Title     string                `json:"title" binding:"omitempty,max=255"`
	Thumbnail string                `json:"thumbnail" binding:"omitempty,max=512"`
	Price     *int64                `json:"price" binding:"omitempty,min=0"`
	Tier      *models.PortfolioTier `json:"tier" binding:"omitempty,portfolio_tier"`
}

// ListPortfoliosQuery represents the list query parameters
type ListPortfoliosQuery struct {
	pagination.PageRequest
	Tier string `form:"tier" binding:"omitempty,portfolio_tier"`
}

// ListPortfolios returns the portfolio catalog
// @Summary     List portfolio templates
// @Description List the portfolio template catalog, optionally filtered by tier
// @Tags        portfolios
// @Produce     json
// @Param       page      query int    false "Page number"      default(1)
// @Param       page_size query int    false "Items per page"   default(20)
// @Param       tier      query string false "Filter by tier"   Enums(Basic, Standard, Premium)
// @Success     200 {object} pagination.PageResponse[models.Portfolio] "Paginated portfolios"
// @Failure     400 {object} ErrorResponse "Invalid query parameters"
// @Router      /portfolios [get]
func (h *PortfolioHandler) ListPortfolios(c *gin.Context) {
	var query ListPortfoliosQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var tier *models.PortfolioTier
	if query.Tier != "" {
		t := models.PortfolioTier(query.Tier)
		tier = &t
	}

	result, err := h.portfolioService.ListPortfolios(query.PageRequest, tier)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPortfolio returns a single portfolio
// @Summary     Get a portfolio template
// @Description Get a portfolio template by ID
// @Tags        portfolios
// @Produce     json
// @Param       id path string true "Portfolio ID"
// @Success     200 {object} models.Portfolio "Portfolio"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id} [get]
func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	portfolio, err := h.portfolioService.GetPortfolioByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, portfolio)
}

// CreatePortfolio adds a portfolio template to the catalog
// @Summary     Create a portfolio template
// @Description Add a portfolio template to the catalog. Admin only.
// @Tags        portfolios
// @Accept      json
// @Produce     json
// @Param       request body CreatePortfolioRequest true "Portfolio data"
// @Success     201 {object} models.Portfolio "Portfolio created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Admin access required"
// @Failure     409 {object} ErrorResponse "Path already in use"
// @Security    SessionAuth
// @Router      /admin/portfolios [post]
func (h *PortfolioHandler) CreatePortfolio(c *gin.Context) {
	var req CreatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	portfolio, err := h.portfolioService.CreatePortfolio(req.Title, req.Path, req.Thumbnail, req.Price, req.Tier)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if userID, err := getUserID(c); err == nil {
		h.auditService.Log(userID, "create", "portfolio", portfolio.ID, c.ClientIP(), map[string]interface{}{
			"title": portfolio.Title,
			"path":  portfolio.Path,
			"tier":  portfolio.Tier,
		})
	}

	c.JSON(http.StatusCreated, portfolio)
}

// UpdatePortfolio updates a portfolio template
// @Summary     Update a portfolio template
// @Description Update a portfolio template's title, thumbnail, price, or tier. The path is immutable. Admin only.
// @Tags        portfolios
// @Accept      json
// @Produce     json
// @Param       id      path string                 true "Portfolio ID"
// @Param       request body UpdatePortfolioRequest true "Fields to update"
// @Success     200 {object} models.Portfolio "Portfolio updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Admin access required"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Security    SessionAuth
// @Router      /admin/portfolios/{id} [put]
func (h *PortfolioHandler) UpdatePortfolio(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	portfolio, err := h.portfolioService.UpdatePortfolio(id, req.Title, req.Thumbnail, req.Price, req.Tier)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if userID, err := getUserID(c); err == nil {
		h.auditService.Log(userID, "update", "portfolio", portfolio.ID, c.ClientIP(), nil)
	}

	c.JSON(http.StatusOK, portfolio)
}

// DeletePortfolio removes a portfolio template from the catalog
// @Summary     Delete a portfolio template
// @Description Remove a portfolio template from the catalog. Admin only.
// @Tags        portfolios
// @Produce     json
// @Param       id path string true "Portfolio ID"
// @Success     200 {object} MessageResponse "Portfolio deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     403 {object} ErrorResponse "Admin access required"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Security    SessionAuth
// @Router      /admin/portfolios/{id} [delete]
func (h *PortfolioHandler) DeletePortfolio(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.portfolioService.DeletePortfolio(id); err != nil {
		respondWithError(c, err)
		return
	}

	if userID, err := getUserID(c); err == nil {
		h.auditService.Log(userID, "delete", "portfolio", id, c.ClientIP(), nil)
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Portfolio deleted"})
}
