package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"foliomart/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
// The password is always "password123".
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Role:     models.RoleUser,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAdmin creates a user with the admin role.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := CreateTestUser(t, db)
	if err := db.Model(user).Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatalf("failed to promote test user to admin: %v", err)
	}
	user.Role = models.RoleAdmin
	return user
}

// CreateTestPortfolio creates a Basic-tier portfolio with a unique path.
func CreateTestPortfolio(t *testing.T, db *gorm.DB) *models.Portfolio {
	t.Helper()

	n := nextID()
	portfolio := &models.Portfolio{
		Title:     fmt.Sprintf("Test Portfolio %d", n),
		Path:      fmt.Sprintf("test-portfolio-%d", n),
		Thumbnail: "thumb.png",
		Price:     4900, // $49.00
		Tier:      models.TierBasic,
	}
	if err := db.Create(portfolio).Error; err != nil {
		t.Fatalf("failed to create test portfolio: %v", err)
	}
	return portfolio
}

// CreateTestBill creates an UnClaim bill with a unique token linking the
// given user and portfolio.
func CreateTestBill(t *testing.T, db *gorm.DB, userID, portfolioID string) *models.Bill {
	t.Helper()

	bill := &models.Bill{
		UserID:      userID,
		PortfolioID: portfolioID,
		Token:       fmt.Sprintf("%040d", nextID()),
		Status:      models.BillStatusUnClaim,
	}
	if err := db.Create(bill).Error; err != nil {
		t.Fatalf("failed to create test bill: %v", err)
	}
	return bill
}
