package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "foliomart/internal/errors"
	"foliomart/internal/models"
	"foliomart/internal/pagination"
	"foliomart/internal/token"
)

// tokenMintRetries bounds the re-mint loop on a claim-token collision.
const tokenMintRetries = 3

// billService handles the bill/claim lifecycle.
type billService struct {
	db     *gorm.DB
	tokens *token.Service
}

// NewBillService creates a new BillServicer.
func NewBillService(db *gorm.DB, tokens *token.Service) BillServicer {
	return &billService{db: db, tokens: tokens}
}

// allowedTransitions is the non-admin transition table. Moving into or out of
// Trial is an administrative action and is not listed here.
var allowedTransitions = map[models.BillStatus]map[models.BillStatus]bool{
	models.BillStatusUnClaim: {models.BillStatusClaim: true},
	models.BillStatusClaim:   {models.BillStatusUnClaim: true},
}

// CreateBill records a purchase: it validates both references, deduplicates
// on the (portfolio, user) pair, mints the claim token, and persists the bill.
func (s *billService) CreateBill(userID, portfolioID string, status models.BillStatus) (*models.Bill, error) {
	if userID == "" || portfolioID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "user and portfolio are required")
	}
	if status == "" {
		status = models.BillStatusUnClaim
	}
	if !models.ValidStatus(status) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be UnClaim, Claim, or Trial")
	}

	// Both references must exist.
	var userCount int64
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Count(&userCount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if userCount == 0 {
		return nil, apperrors.ErrUserNotFound
	}

	var portfolioCount int64
	if err := s.db.Model(&models.Portfolio{}).Where("id = ?", portfolioID).Count(&portfolioCount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if portfolioCount == 0 {
		return nil, apperrors.ErrPortfolioNotFound
	}

	// One bill per (portfolio, user) pair: a repeated purchase request is a
	// duplicate, not a second booking.
	var dupCount int64
	if err := s.db.Model(&models.Bill{}).
		Where("portfolio_id = ? AND user_id = ?", portfolioID, userID).
		Count(&dupCount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if dupCount > 0 {
		return nil, apperrors.ErrDuplicateBill
	}

	claimToken, err := s.mintUniqueToken()
	if err != nil {
		return nil, err
	}

	bill := &models.Bill{
		PortfolioID: portfolioID,
		UserID:      userID,
		Token:       claimToken,
		Status:      status,
	}

	if err := s.db.Create(bill).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return bill, nil
}

// mintUniqueToken mints a claim token and confirms it is unused. A collision
// is astronomically unlikely but cheap to guard against.
func (s *billService) mintUniqueToken() (string, error) {
	for i := 0; i < tokenMintRetries; i++ {
		claimToken, err := s.tokens.NewClaimToken()
		if err != nil {
			return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var count int64
		if err := s.db.Model(&models.Bill{}).Where("token = ?", claimToken).Count(&count).Error; err != nil {
			return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return claimToken, nil
		}
	}
	return "", apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("claim token collision after %d attempts", tokenMintRetries))
}

// GetBillByID retrieves a bill by ID with its portfolio preloaded.
func (s *billService) GetBillByID(id string) (*models.Bill, error) {
	var bill models.Bill
	if err := s.db.Preload("Portfolio").Where("id = ?", id).First(&bill).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBillNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &bill, nil
}

// GetUserBills retrieves a paginated list of a user's own bills.
func (s *billService) GetUserBills(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Bill], error) {
	page.Defaults()

	base := s.db.Model(&models.Bill{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var bills []models.Bill
	if err := base.Preload("Portfolio").Scopes(pagination.Paginate(page)).Find(&bills).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(bills, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ListBills retrieves a paginated list of all bills (admin view).
func (s *billService) ListBills(page pagination.PageRequest) (*pagination.PageResponse[models.Bill], error) {
	page.Defaults()

	var totalItems int64
	if err := s.db.Model(&models.Bill{}).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var bills []models.Bill
	if err := s.db.Model(&models.Bill{}).Preload("Portfolio").Scopes(pagination.Paginate(page)).Find(&bills).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(bills, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// RecoverBill looks up a bill by its claim token. This is the self-service
// recovery path and is deliberately read-only: presenting the token never
// changes the bill's status. Any failure yields the same uniform error.
func (s *billService) RecoverBill(presented string) (*models.Bill, error) {
	if presented == "" {
		return nil, apperrors.ErrInvalidClaimToken
	}

	var bill models.Bill
	if err := s.db.Preload("Portfolio").Where("token = ?", presented).First(&bill).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidClaimToken
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Confirm the indexed lookup with a constant-time comparison.
	if !token.Equal(bill.Token, presented) {
		return nil, apperrors.ErrInvalidClaimToken
	}

	return &bill, nil
}

// UpdateBillStatus applies a status transition. Non-admin callers are held to
// the transition table; adminOverride bypasses it. A Claim -> UnClaim
// transition stamps unclaimed_at.
func (s *billService) UpdateBillStatus(id string, status models.BillStatus, adminOverride bool) (*models.Bill, error) {
	if !models.ValidStatus(status) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be UnClaim, Claim, or Trial")
	}

	bill, err := s.GetBillByID(id)
	if err != nil {
		return nil, err
	}

	if bill.Status == status {
		return bill, nil
	}

	if !adminOverride && !allowedTransitions[bill.Status][status] {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidStatusTransition,
			fmt.Sprintf("cannot change status from %s to %s", bill.Status, status))
	}

	updates := map[string]interface{}{"status": status}
	if bill.Status == models.BillStatusClaim && status == models.BillStatusUnClaim {
		now := time.Now()
		updates["unclaimed_at"] = now
		bill.UnclaimedAt = &now
	}

	if err := s.db.Model(bill).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	bill.Status = status
	return bill, nil
}

// DeleteBill hard-deletes a bill. There is no tombstone: once removed, the
// claim token is permanently invalidated.
func (s *billService) DeleteBill(id string) error {
	bill, err := s.GetBillByID(id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(bill).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
