package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "foliomart/internal/errors"
	"foliomart/internal/models"
	"foliomart/internal/pagination"
	"foliomart/internal/services"
)

// BillHandler handles bill lifecycle requests
type BillHandler struct {
	billService  services.BillServicer
	auditService services.AuditServicer
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(billService services.BillServicer, auditService services.AuditServicer) *BillHandler {
	return &BillHandler{billService: billService, auditService: auditService}
}

// CreateBillRequest represents the bill creation payload
type CreateBillRequest struct {
	PortfolioID string            `json:"portfolio_id" binding:"required,uuid"`
	Status      models.BillStatus `json:"status" binding:"omitempty,bill_status"`
}

// UpdateBillStatusRequest represents the status transition payload
type UpdateBillStatusRequest struct {
	Status models.BillStatus `json:"status" binding:"required,bill_status"`
}

// RecoverBillRequest represents the bill recovery payload
type RecoverBillRequest struct {
	Token string `json:"token" binding:"required"`
}

// CreateBill creates a bill for the authenticated user
// @Summary     Create a bill
// @Description Purchase a portfolio template. A unique claim token is minted and returned once with the bill.
// @Tags        bills
// @Accept      json
// @Produce     json
// @Param       request body CreateBillRequest true "Bill data"
// @Success     201 {object} models.Bill "Bill created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Not authenticated"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     409 {object} ErrorResponse "Bill already exists for this portfolio and user"
// @Security    SessionAuth
// @Router      /bills [post]
func (h *BillHandler) CreateBill(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	bill, err := h.billService.CreateBill(userID, req.PortfolioID, req.Status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "create", "bill", bill.ID, c.ClientIP(), map[string]interface{}{
		"portfolio_id": bill.PortfolioID,
		"status":       bill.Status,
	})

	c.JSON(http.StatusCreated, bill)
}

// GetBill returns a single bill
// @Summary     Get a bill
// @Description Get a bill by ID. Users can only access their own bills; admins can access any.
// @Tags        bills
// @Produce     json
// @Param       id path string true "Bill ID"
// @Success     200 {object} models.Bill "Bill"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Not authenticated"
// @Failure     403 {object} ErrorResponse "Not the bill owner"
// @Failure     404 {object} ErrorResponse "Bill not found"
// @Security    SessionAuth
// @Router      /bills/{id} [get]
func (h *BillHandler) GetBill(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	bill, err := h.billService.GetBillByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if bill.UserID != userID && !isAdmin(c) {
		respondWithError(c, apperrors.ErrForbidden)
		return
	}

	c.JSON(http.StatusOK, bill)
}

// ListBills returns the authenticated user's bills, or all bills for admins
// @Summary     List bills
// @Description List the authenticated user's bills. Admins see every bill.
// @Tags        bills
// @Produce     json
// @Param       page      query int false "Page number"    default(1)
// @Param       page_size query int false "Items per page" default(20)
// @Success     200 {object} pagination.PageResponse[models.Bill] "Paginated bills"
// @Failure     400 {object} ErrorResponse "Invalid query parameters"
// @Failure     401 {object} ErrorResponse "Not authenticated"
// @Security    SessionAuth
// @Router      /bills [get]
func (h *BillHandler) ListBills(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var result *pagination.PageResponse[models.Bill]
	if isAdmin(c) {
		result, err = h.billService.ListBills(page)
	} else {
		result, err = h.billService.GetUserBills(userID, page)
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RecoverBill looks up a bill by its claim token
// @Summary     Recover a bill by token
// @Description Verify a claim token and return the matching bill with its portfolio. The token alone authorizes the lookup, no session is required. The lookup is read-only and does not change the bill's status.
// @Tags        bills
// @Accept      json
// @Produce     json
// @Param       request body RecoverBillRequest true "Claim token"
// @Success     200 {object} models.Bill "Bill found"
// @Failure     400 {object} ErrorResponse "Token incorrect"
// @Router      /bills/recover [post]
func (h *BillHandler) RecoverBill(c *gin.Context) {
	var req RecoverBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.ErrInvalidClaimToken)
		return
	}

	bill, err := h.billService.RecoverBill(req.Token)
	if err != nil {
		respondWithError(c, err)
		return
	}

	// The token holder may not have a session; attribute the event to the
	// bill's owner.
	h.auditService.Log(bill.UserID, "recover", "bill", bill.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, bill)
}

// UpdateBillStatus transitions a bill between lifecycle states
// @Summary     Update a bill's status
// @Description Transition a bill between UnClaim and Claim. Transitions involving Trial require admin access. Users can only transition their own bills.
// @Tags        bills
// @Accept      json
// @Produce     json
// @Param       id      path string                  true "Bill ID"
// @Param       request body UpdateBillStatusRequest true "Target status"
// @Success     200 {object} models.Bill "Bill updated"
// @Failure     400 {object} ErrorResponse "Invalid input or disallowed transition"
// @Failure     401 {object} ErrorResponse "Not authenticated"
// @Failure     403 {object} ErrorResponse "Not the bill owner"
// @Failure     404 {object} ErrorResponse "Bill not found"
// @Security    SessionAuth
// @Router      /bills/{id}/status [patch]
func (h *BillHandler) UpdateBillStatus(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBillStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	admin := isAdmin(c)

	existing, err := h.billService.GetBillByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if existing.UserID != userID && !admin {
		respondWithError(c, apperrors.ErrForbidden)
		return
	}

	bill, err := h.billService.UpdateBillStatus(id, req.Status, admin)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "update_status", "bill", bill.ID, c.ClientIP(), map[string]interface{}{
		"from": existing.Status,
		"to":   bill.Status,
	})

	c.JSON(http.StatusOK, bill)
}

// DeleteBill permanently deletes a bill
// @Summary     Delete a bill
// @Description Permanently delete a bill. Its claim token can never be recovered afterwards. Users can only delete their own bills.
// @Tags        bills
// @Produce     json
// @Param       id path string true "Bill ID"
// @Success     200 {object} MessageResponse "Bill deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Not authenticated"
// @Failure     403 {object} ErrorResponse "Not the bill owner"
// @Failure     404 {object} ErrorResponse "Bill not found"
// @Security    SessionAuth
// @Router      /bills/{id} [delete]
func (h *BillHandler) DeleteBill(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	bill, err := h.billService.GetBillByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if bill.UserID != userID && !isAdmin(c) {
		respondWithError(c, apperrors.ErrForbidden)
		return
	}

	if err := h.billService.DeleteBill(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "delete", "bill", id, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Bill deleted"})
}
