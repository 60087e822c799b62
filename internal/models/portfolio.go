package models

// PortfolioTier represents the pricing tier of a portfolio template
type PortfolioTier string

const (
	TierBasic    PortfolioTier = "Basic"
	TierStandard PortfolioTier = "Standard"
	TierPremium  PortfolioTier = "Premium"
)

// Portfolio represents a portfolio template in the catalog
type Portfolio struct {
	Base
	Title     string        `gorm:"not null" json:"title"`
	Path      string        `gorm:"uniqueIndex;not null" json:"path"`
	Thumbnail string        `json:"thumbnail"`
	Price     int64         `gorm:"not null;default:0" json:"price"` // in cents
	Tier      PortfolioTier `gorm:"not null" json:"tier"`

	Bills []Bill `gorm:"foreignKey:PortfolioID" json:"bills,omitempty"`
}
