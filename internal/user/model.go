package user

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "user_not_found", "user not found")
	ErrEmailAlreadyUsed   = apperror.New(http.StatusConflict, "email_already_used", "email already used")
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	ErrInactiveUser       = apperror.New(http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	ErrEmailRequired      = apperror.New(http.StatusUnprocessableEntity, "email_required", "email is required")
	ErrPasswordTooShort   = apperror.New(http.StatusUnprocessableEntity, "password_too_short", "password must be at least 8 characters")
)

// User represents a user in the system. The same account can host offices and reserve others'.
type User struct {
	ID            string // UUID
	Email         string
	PasswordHash  string
	DisplayName   *string
	CreatedAt     time.Time
	LastLoginAt   *time.Time
	IsActive      bool
	IsSystemAdmin bool // Reviews offices
}

// Name is the display name, or the empty string when unset.
func (u *User) Name() string {
	if u.DisplayName == nil {
		return ""
	}
	return *u.DisplayName
}
