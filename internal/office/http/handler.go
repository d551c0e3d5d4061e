package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/office-booking-backend/internal/auth"
	"github.com/nekogravitycat/office-booking-backend/internal/geo"
	"github.com/nekogravitycat/office-booking-backend/internal/office"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/request"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/response"
)

var errPartialOrigin = errors.New("lat and lng must be given together")

type OfficeHandler struct {
	service office.Service
}

func NewHandler(service office.Service) *OfficeHandler {
	return &OfficeHandler{service: service}
}

// List retrieves a page of offices.
// Anonymous callers and callers browsing other people's offices only see approved, visible ones.
func (h *OfficeHandler) List(c *gin.Context) {
	var q ListOfficesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	if (q.Lat == nil) != (q.Lng == nil) {
		response.BadRequest(c, "invalid query parameters", errPartialOrigin)
		return
	}
	q.Normalize()

	filter := office.ListFilter{
		OwnerID:     q.UserID,
		VisitorID:   q.VisitorID,
		RequesterID: auth.GetUserID(c),
		Page:        q.Page,
		PageSize:    q.PageSize,
	}
	if q.Lat != nil {
		filter.Origin = &geo.Point{Lat: *q.Lat, Lng: *q.Lng}
	}

	offices, total, err := h.service.ListBookable(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]OfficeResponse, len(offices))
	for i, o := range offices {
		items[i] = NewOfficeResponse(o)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, q.Page, q.PageSize, total))
}

// Get retrieves specific office details.
func (h *OfficeHandler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid office id", err)
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewOfficeResponse(o))
}

// Create lists a new office owned by the caller. It starts out pending review.
func (h *OfficeHandler) Create(c *gin.Context) {
	var body CreateOfficeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	o, err := h.service.Create(c.Request.Context(), office.CreateRequest{
		OwnerID:         auth.GetUserID(c),
		Title:           body.Title,
		Description:     body.Description,
		AddressLine1:    body.AddressLine1,
		Latitude:        *body.Lat,
		Longitude:       *body.Lng,
		PricePerDay:     body.PricePerDay,
		MonthlyDiscount: body.MonthlyDiscount,
		Hidden:          body.Hidden,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewOfficeResponse(o))
}

// Update modifies specific attributes of an office. Only the owner may update it.
func (h *OfficeHandler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid office id", err)
		return
	}

	var body UpdateOfficeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	o, err := h.service.Update(c.Request.Context(), uri.ID, auth.GetUserID(c), office.UpdateRequest{
		Title:           body.Title,
		Description:     body.Description,
		AddressLine1:    body.AddressLine1,
		Latitude:        body.Lat,
		Longitude:       body.Lng,
		PricePerDay:     body.PricePerDay,
		MonthlyDiscount: body.MonthlyDiscount,
		Hidden:          body.Hidden,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewOfficeResponse(o))
}

// Delete removes an office that has never been reserved. Only the owner may delete it.
func (h *OfficeHandler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid office id", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), uri.ID, auth.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Review approves or rejects an office.
func (h *OfficeHandler) Review(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid office id", err)
		return
	}

	var body ReviewOfficeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	o, err := h.service.Review(c.Request.Context(), uri.ID, office.ApprovalStatus(body.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewOfficeResponse(o))
}
