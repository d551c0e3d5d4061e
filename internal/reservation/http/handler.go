package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/office-booking-backend/internal/auth"
	"github.com/nekogravitycat/office-booking-backend/internal/daterange"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/response"
	"github.com/nekogravitycat/office-booking-backend/internal/reservation"
)

type ReservationHandler struct {
	service reservation.Service
}

func NewHandler(service reservation.Service) *ReservationHandler {
	return &ReservationHandler{service: service}
}

// Create books an office for the caller.
func (h *ReservationHandler) Create(c *gin.Context) {
	var body CreateReservationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	start, err := daterange.Parse(body.StartDate)
	if err != nil {
		response.Error(c, reservation.ErrInvalidDateRange)
		return
	}
	end, err := daterange.Parse(body.EndDate)
	if err != nil {
		response.Error(c, reservation.ErrInvalidDateRange)
		return
	}

	r, err := h.service.Book(c.Request.Context(), reservation.BookRequest{
		OfficeID:  body.OfficeID,
		UserID:    auth.GetUserID(c),
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewReservationResponse(r))
}

// List retrieves the caller's own reservations.
func (h *ReservationHandler) List(c *gin.Context) {
	h.list(c, func(f reservation.Filter) ([]*reservation.Reservation, int, error) {
		f.UserID = auth.GetUserID(c)
		return h.service.List(c.Request.Context(), f)
	})
}

// ListForHost retrieves reservations made on the caller's offices.
func (h *ReservationHandler) ListForHost(c *gin.Context) {
	h.list(c, func(f reservation.Filter) ([]*reservation.Reservation, int, error) {
		f.HostID = auth.GetUserID(c)
		return h.service.ListForHost(c.Request.Context(), f)
	})
}

func (h *ReservationHandler) list(c *gin.Context, fetch func(reservation.Filter) ([]*reservation.Reservation, int, error)) {
	var q ListReservationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	q.Normalize()

	filter, err := q.Filter()
	if err != nil {
		response.Error(c, err)
		return
	}

	items, total, err := fetch(filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := make([]ReservationResponse, len(items))
	for i, r := range items {
		resp[i] = NewReservationResponse(r)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(resp, q.Page, q.PageSize, total))
}

// Get retrieves a reservation visible to the caller as its visitor or as the office host.
func (h *ReservationHandler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid reservation id", err)
		return
	}

	r, err := h.service.GetByID(c.Request.Context(), uri.ID, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewReservationResponse(r))
}

// Cancel flips the caller's active reservation to cancelled.
func (h *ReservationHandler) Cancel(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid reservation id", err)
		return
	}

	r, err := h.service.Cancel(c.Request.Context(), uri.ID, auth.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewReservationResponse(r))
}
