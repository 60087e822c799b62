package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "foliomart/internal/errors"
	"foliomart/internal/logger"
	"foliomart/internal/models"
	"foliomart/internal/notifier"
	"foliomart/internal/token"
)

// userService handles user-related business logic.
type userService struct {
	db       *gorm.DB
	tokens   *token.Service
	notifier notifier.Notifier
	baseURL  string
}

// NewUserService creates a new UserServicer. The token service and notifier
// are injected so the reset flow and outbound email can be substituted in tests.
func NewUserService(db *gorm.DB, tokens *token.Service, n notifier.Notifier, baseURL string) UserServicer {
	return &userService{
		db:       db,
		tokens:   tokens,
		notifier: n,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

// CreateUser registers a new user
func (s *userService) CreateUser(email, password, firstName, lastName string) (*models.User, error) {
	// Validate input
	if email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}

	// Check if user with email exists
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", strings.ToLower(email)).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Create user
	user := &models.User{
		Email:     strings.ToLower(email),
		Password:  string(hashedPassword),
		FirstName: firstName,
		LastName:  lastName,
		Role:      models.RoleUser,
		IsActive:  true,
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ? AND is_active = ?", strings.ToLower(email), true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// AttemptLogin verifies credentials and records the login. Unknown email and
// wrong password both return the same invalid-credentials error so callers
// cannot probe which addresses are registered.
func (s *userService) AttemptLogin(email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !s.VerifyPassword(user, password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.db.Model(user).Update("last_login_at", now).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.LastLoginAt = &now

	// Fire-and-forget login notification. Failure is logged, never surfaced.
	go func(email string, at time.Time) {
		if err := s.notifier.SendLoginAlert(email, at); err != nil {
			logger.Get().Warnw("failed to send login alert", "error", err)
		}
	}(user.Email, now)

	return user, nil
}

// VerifyPassword checks if the provided password matches the stored hash
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// ChangePassword verifies the old password before accepting the new one.
func (s *userService) ChangePassword(userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "old and new passwords are required")
	}

	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if !s.VerifyPassword(user, oldPassword) {
		return apperrors.ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(user).Update("password", string(hashed)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// InitiatePasswordReset mints a reset token for the given email and emails the
// raw token. The response is identical whether or not the email is registered.
func (s *userService) InitiatePasswordReset(email string) error {
	if email == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "email is required")
	}

	user, err := s.GetUserByEmail(email)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.ErrUserNotFound.Code {
			// Do not reveal whether the address exists.
			return nil
		}
		return err
	}

	raw, digest, expiry, err := s.tokens.NewResetToken()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := map[string]interface{}{
		"reset_token_hash":   digest,
		"reset_token_expiry": expiry,
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resetURL := fmt.Sprintf("%s/password/reset/%s", s.baseURL, raw)
	go func(email, url string) {
		if err := s.notifier.SendPasswordReset(email, url); err != nil {
			logger.Get().Warnw("failed to send password reset email", "error", err)
		}
	}(user.Email, resetURL)

	return nil
}

// ResetPassword redeems a reset token. The presented token is hashed and
// looked up; only a matching digest with a future expiry succeeds. Expired,
// mismatched, and unknown tokens all yield the same error.
func (s *userService) ResetPassword(rawToken, newPassword string) (*models.User, error) {
	if rawToken == "" || newPassword == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "token and new password are required")
	}

	digest := token.Hash(rawToken)

	var user models.User
	err := s.db.Where("reset_token_hash = ? AND reset_token_expiry > ?", digest, time.Now()).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidResetToken
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// New password in, token pair out. The token is single-use.
	updates := map[string]interface{}{
		"password":           string(hashed),
		"reset_token_hash":   "",
		"reset_token_expiry": nil,
	}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user.Password = string(hashed)
	user.ResetTokenHash = ""
	user.ResetTokenExpiry = nil
	return &user, nil
}

// DeleteUser soft-deletes a user account.
func (s *userService) DeleteUser(id string) error {
	user, err := s.GetUserByID(id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(user).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
