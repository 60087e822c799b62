package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "foliomart/internal/errors"
	"foliomart/internal/models"
	"foliomart/internal/pagination"
)

// portfolioService handles the portfolio template catalog.
type portfolioService struct {
	db *gorm.DB
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(db *gorm.DB) PortfolioServicer {
	return &portfolioService{db: db}
}

// CreatePortfolio adds a template to the catalog. The path is its immutable
// identity and must be unique across all portfolios.
func (s *portfolioService) CreatePortfolio(title, path, thumbnail string, price int64, tier models.PortfolioTier) (*models.Portfolio, error) {
	if title == "" || path == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "title and path are required")
	}
	if !validTier(tier) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "tier must be Basic, Standard, or Premium")
	}
	if price < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "price cannot be negative")
	}

	var count int64
	if err := s.db.Model(&models.Portfolio{}).Where("path = ?", path).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicatePath
	}

	portfolio := &models.Portfolio{
		Title:     title,
		Path:      path,
		Thumbnail: thumbnail,
		Price:     price,
		Tier:      tier,
	}

	if err := s.db.Create(portfolio).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return portfolio, nil
}

// ListPortfolios retrieves a paginated catalog listing, optionally filtered by tier.
func (s *portfolioService) ListPortfolios(page pagination.PageRequest, tier *models.PortfolioTier) (*pagination.PageResponse[models.Portfolio], error) {
	page.Defaults()

	base := s.db.Model(&models.Portfolio{})
	if tier != nil {
		base = base.Where("tier = ?", *tier)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var portfolios []models.Portfolio
	if err := base.Scopes(pagination.Paginate(page)).Find(&portfolios).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(portfolios, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetPortfolioByID retrieves a portfolio by ID
func (s *portfolioService) GetPortfolioByID(id string) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	if err := s.db.Where("id = ?", id).First(&portfolio).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPortfolioNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &portfolio, nil
}

// UpdatePortfolio updates mutable catalog fields. The path cannot change:
// it ties the record to its template on disk.
func (s *portfolioService) UpdatePortfolio(id, title, thumbnail string, price *int64, tier *models.PortfolioTier) (*models.Portfolio, error) {
	portfolio, err := s.GetPortfolioByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if title != "" {
		updates["title"] = title
	}
	if thumbnail != "" {
		updates["thumbnail"] = thumbnail
	}
	if price != nil {
		if *price < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "price cannot be negative")
		}
		updates["price"] = *price
	}
	if tier != nil {
		if !validTier(*tier) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "tier must be Basic, Standard, or Premium")
		}
		updates["tier"] = *tier
	}

	if len(updates) > 0 {
		if err := s.db.Model(portfolio).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return portfolio, nil
}

// DeletePortfolio soft-deletes a catalog entry. Existing bills keep their
// portfolio_id reference for historical records.
func (s *portfolioService) DeletePortfolio(id string) error {
	portfolio, err := s.GetPortfolioByID(id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(portfolio).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func validTier(t models.PortfolioTier) bool {
	switch t {
	case models.TierBasic, models.TierStandard, models.TierPremium:
		return true
	}
	return false
}
