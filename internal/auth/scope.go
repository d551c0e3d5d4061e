package auth

import (
	"net/http"
	"slices"

	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
)

// Token abilities. A token only carries the scopes the user asked for at login.
const (
	ScopeOfficeCreate      = "office.create"
	ScopeOfficeUpdate      = "office.update"
	ScopeOfficeDelete      = "office.delete"
	ScopeReservationShow   = "reservation.show"
	ScopeReservationMake   = "reservation.make"
	ScopeReservationCancel = "reservation.cancel"
)

var ErrUnknownScope = apperror.New(http.StatusUnprocessableEntity, "unknown_scope", "unknown scope requested")

// DefaultScopes is granted when a login does not ask for specific scopes.
func DefaultScopes() []string {
	return []string{
		ScopeOfficeCreate,
		ScopeOfficeUpdate,
		ScopeOfficeDelete,
		ScopeReservationShow,
		ScopeReservationMake,
		ScopeReservationCancel,
	}
}

// ResolveScopes validates the requested scopes and removes duplicates.
// An empty request resolves to DefaultScopes.
func ResolveScopes(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return DefaultScopes(), nil
	}

	known := DefaultScopes()
	resolved := make([]string, 0, len(requested))
	for _, s := range requested {
		if !slices.Contains(known, s) {
			return nil, ErrUnknownScope
		}
		if !slices.Contains(resolved, s) {
			resolved = append(resolved, s)
		}
	}
	return resolved, nil
}
