package http

import (
	"time"

	"github.com/nekogravitycat/office-booking-backend/internal/daterange"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/office-booking-backend/internal/reservation"
)

type ReservationResponse struct {
	ID          int64          `json:"id"`
	OfficeID    int64          `json:"office_id"`
	OfficeTitle string         `json:"office_title"`
	UserID      string         `json:"user_id"`
	StartDate   daterange.Date `json:"start_date"`
	EndDate     daterange.Date `json:"end_date"`
	Status      string         `json:"status"`
	Price       int64          `json:"price"`
	CreatedAt   time.Time      `json:"created_at"`
}

func NewReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:          r.ID,
		OfficeID:    r.OfficeID,
		OfficeTitle: r.OfficeTitle,
		UserID:      r.UserID,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Status:      string(r.Status),
		Price:       r.Price,
		CreatedAt:   r.CreatedAt,
	}
}

// CreateReservationRequest is the body of POST /reservations.
// Dates are checked by the booking engine so that malformed ones are reported as invalid_date_range.
type CreateReservationRequest struct {
	OfficeID  int64  `json:"office_id" binding:"required,min=1"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

// ListReservationsQuery holds the query parameters of the reservation list endpoints.
type ListReservationsQuery struct {
	request.ListParams
	OfficeID int64  `form:"office_id" binding:"omitempty,min=1"`
	Status   string `form:"status" binding:"omitempty,oneof=active cancelled"`
	FromDate string `form:"from_date" binding:"omitempty,date_only"`
	ToDate   string `form:"to_date" binding:"omitempty,date_only"`
}

// Filter converts the query into a service filter. from_date and to_date must be given together.
func (q *ListReservationsQuery) Filter() (reservation.Filter, error) {
	f := reservation.Filter{
		OfficeID: q.OfficeID,
		Status:   reservation.Status(q.Status),
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	if q.FromDate == "" && q.ToDate == "" {
		return f, nil
	}
	if q.FromDate == "" || q.ToDate == "" {
		return f, reservation.ErrInvalidFilter
	}

	from, err := daterange.Parse(q.FromDate)
	if err != nil {
		return f, reservation.ErrInvalidFilter
	}
	to, err := daterange.Parse(q.ToDate)
	if err != nil {
		return f, reservation.ErrInvalidFilter
	}
	f.Within = &daterange.Range{Start: from, End: to}
	return f, nil
}
