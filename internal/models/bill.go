package models

import (
	"time"

	"foliomart/internal/uuid"

	"gorm.io/gorm"
)

// BillStatus represents the lifecycle status of a bill
type BillStatus string

const (
	BillStatusUnClaim BillStatus = "UnClaim"
	BillStatusClaim   BillStatus = "Claim"
	BillStatusTrial   BillStatus = "Trial"
)

// Bill represents a purchase/claim record linking a user to a portfolio
// template. Bills are hard-deleted: there is no DeletedAt column, so removing
// a bill permanently invalidates its claim token.
type Bill struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PortfolioID string `gorm:"type:uuid;not null;index" json:"portfolio_id"`
	UserID      string `gorm:"type:uuid;not null;index" json:"user_id"`

	// Token is the opaque claim token, immutable once assigned. It is the
	// lookup key for self-service recovery, so it is stored raw rather than
	// hashed (unlike the password-reset token).
	Token string `gorm:"uniqueIndex;not null;size:40" json:"token"`

	Status      BillStatus `gorm:"not null" json:"status"`
	UnclaimedAt *time.Time `json:"unclaimed_at,omitempty"`

	Portfolio *Portfolio `gorm:"foreignKey:PortfolioID" json:"portfolio,omitempty"`
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// ValidStatus reports whether s is one of the enumerated bill statuses.
func ValidStatus(s BillStatus) bool {
	switch s {
	case BillStatusUnClaim, BillStatusClaim, BillStatusTrial:
		return true
	}
	return false
}
