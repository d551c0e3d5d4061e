package reservation

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/office-booking-backend/internal/daterange"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/office-booking-backend/internal/pricing"
)

// Booking outcomes. Every one of them is terminal for the request except ErrBusy.
var (
	ErrInvalidDateRange  = apperror.New(http.StatusUnprocessableEntity, "invalid_date_range", "end date must be after start date and start date must be after today")
	ErrOfficeNotFound    = apperror.New(http.StatusNotFound, "office_not_found", "office not found")
	ErrSelfBooking       = apperror.New(http.StatusUnprocessableEntity, "self_booking", "you cannot make a reservation on your own office")
	ErrOfficeNotBookable = apperror.New(http.StatusUnprocessableEntity, "office_not_bookable", "you cannot make a reservation on a hidden or unapproved office")
	ErrStayTooShort      = pricing.ErrStayTooShort
	ErrDateConflict      = apperror.New(http.StatusConflict, "date_conflict", "you cannot make a reservation during this time")
	ErrBusy              = apperror.New(http.StatusServiceUnavailable, "busy", "office is busy, please retry")
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "reservation_not_found", "reservation not found")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "permission_denied", "permission denied")
	ErrNotActive        = apperror.New(http.StatusUnprocessableEntity, "reservation_not_active", "only active reservations can be cancelled")
	ErrInvalidFilter    = apperror.New(http.StatusUnprocessableEntity, "invalid_filter", "from_date and to_date must be given together and to_date must be after from_date")
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusCancelled
}

// Reservation is a booking of an office for an inclusive range of calendar days.
// Price is fixed at creation.
type Reservation struct {
	ID            int64
	OfficeID      int64
	OfficeTitle   string
	OfficeOwnerID string
	UserID        string
	StartDate     daterange.Date
	EndDate       daterange.Date
	Status        Status
	Price         int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r *Reservation) Range() daterange.Range {
	return daterange.Range{Start: r.StartDate, End: r.EndDate}
}

// Filter selects reservations for listing.
// Exactly one of UserID and HostID is set by the service.
type Filter struct {
	UserID   string // Reservations made by this visitor
	HostID   string // Reservations on offices owned by this host
	OfficeID int64
	Status   Status
	Within   *daterange.Range // Reservations intersecting this range
	Page     int
	PageSize int
}
