package office

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/office-booking-backend/internal/geo"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound            = apperror.New(http.StatusNotFound, "office_not_found", "office not found")
	ErrPermissionDenied    = apperror.New(http.StatusForbidden, "permission_denied", "permission denied")
	ErrHasReservations     = apperror.New(http.StatusUnprocessableEntity, "office_has_reservations", "cannot delete an office that has reservations")
	ErrTitleRequired       = apperror.New(http.StatusUnprocessableEntity, "title_required", "title is required")
	ErrDescriptionRequired = apperror.New(http.StatusUnprocessableEntity, "description_required", "description is required")
	ErrAddressRequired     = apperror.New(http.StatusUnprocessableEntity, "address_required", "address is required")
	ErrPriceTooLow         = apperror.New(http.StatusUnprocessableEntity, "price_too_low", "price per day must be at least 100")
	ErrPriceTooHigh        = apperror.New(http.StatusUnprocessableEntity, "price_too_high", "price per day must be at most 100000000")
	ErrBusy                = apperror.New(http.StatusServiceUnavailable, "busy", "office is busy, please retry")
	ErrDiscountOutOfRange  = apperror.New(http.StatusUnprocessableEntity, "discount_out_of_range", "monthly discount must be between 0 and 90")
	ErrInvalidReview       = apperror.New(http.StatusUnprocessableEntity, "invalid_review", "review must approve or reject")
)

const (
	MinPricePerDay     = 100
	MaxPricePerDay     = 100_000_000 // Minor units
	MaxMonthlyDiscount = 90
)

// Office is a bookable listing owned by a host user.
type Office struct {
	ID                      int64
	OwnerID                 string
	OwnerName               string
	Title                   string
	Description             string
	AddressLine1            string
	Latitude                float64
	Longitude               float64
	PricePerDay             int64 // Minor currency units
	MonthlyDiscount         int   // Percent, 0..90
	Hidden                  bool
	ApprovalStatus          ApprovalStatus
	ActiveReservationsCount int
	CreatedAt               time.Time
	UpdatedAt               time.Time
	DeletedAt               *time.Time
}

// Bookable reports whether the office accepts new reservations.
func (o *Office) Bookable() bool {
	return o.DeletedAt == nil && !o.Hidden && o.ApprovalStatus == StatusApproved
}

func (o *Office) Position() geo.Point {
	return geo.Point{Lat: o.Latitude, Lng: o.Longitude}
}

func (o *Office) RankID() int64 {
	return o.ID
}

// ListFilter is the explicit set of optional filters accepted by ListBookable.
type ListFilter struct {
	OwnerID     string     // Only offices owned by this user
	VisitorID   string     // Only offices this user has reserved
	Origin      *geo.Point // Order by distance from this point
	RequesterID string     // Authenticated caller, empty when anonymous
	Page        int
	PageSize    int
}

// includesUnpublished reports whether the caller is looking at their own
// listings or their own past visits, in which case hidden and unapproved offices are shown too.
func (f ListFilter) includesUnpublished() bool {
	if f.RequesterID == "" {
		return false
	}
	return f.OwnerID == f.RequesterID || f.VisitorID == f.RequesterID
}

// CandidateQuery is what repositories filter on. Ordering is not their concern.
type CandidateQuery struct {
	OwnerID       string
	VisitorID     string
	OnlyPublished bool
}
