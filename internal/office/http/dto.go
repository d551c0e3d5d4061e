package http

import (
	"time"

	"github.com/nekogravitycat/office-booking-backend/internal/office"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/request"
)

type OfficeResponse struct {
	ID                      int64     `json:"id"`
	OwnerID                 string    `json:"owner_id"`
	OwnerName               string    `json:"owner_name"`
	Title                   string    `json:"title"`
	Description             string    `json:"description"`
	AddressLine1            string    `json:"address_line1"`
	Lat                     float64   `json:"lat"`
	Lng                     float64   `json:"lng"`
	PricePerDay             int64     `json:"price_per_day"`
	MonthlyDiscount         int       `json:"monthly_discount"`
	Hidden                  bool      `json:"hidden"`
	ApprovalStatus          string    `json:"approval_status"`
	ActiveReservationsCount int       `json:"active_reservations_count"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func NewOfficeResponse(o *office.Office) OfficeResponse {
	return OfficeResponse{
		ID:                      o.ID,
		OwnerID:                 o.OwnerID,
		OwnerName:               o.OwnerName,
		Title:                   o.Title,
		Description:             o.Description,
		AddressLine1:            o.AddressLine1,
		Lat:                     o.Latitude,
		Lng:                     o.Longitude,
		PricePerDay:             o.PricePerDay,
		MonthlyDiscount:         o.MonthlyDiscount,
		Hidden:                  o.Hidden,
		ApprovalStatus:          string(o.ApprovalStatus),
		ActiveReservationsCount: o.ActiveReservationsCount,
		CreatedAt:               o.CreatedAt,
		UpdatedAt:               o.UpdatedAt,
	}
}

// ListOfficesQuery holds the query parameters of GET /offices.
type ListOfficesQuery struct {
	request.ListParams
	UserID    string   `form:"user_id" binding:"omitempty,uuid"`
	VisitorID string   `form:"visitor_id" binding:"omitempty,uuid"`
	Lat       *float64 `form:"lat"`
	Lng       *float64 `form:"lng"`
}

type CreateOfficeRequest struct {
	Title           string   `json:"title" binding:"required,max=255"`
	Description     string   `json:"description" binding:"required"`
	AddressLine1    string   `json:"address_line1" binding:"required,max=255"`
	Lat             *float64 `json:"lat" binding:"required"`
	Lng             *float64 `json:"lng" binding:"required"`
	PricePerDay     int64    `json:"price_per_day" binding:"required"`
	MonthlyDiscount int      `json:"monthly_discount"`
	Hidden          bool     `json:"hidden"`
}

type UpdateOfficeRequest struct {
	Title           *string  `json:"title" binding:"omitempty,max=255"`
	Description     *string  `json:"description"`
	AddressLine1    *string  `json:"address_line1" binding:"omitempty,max=255"`
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
	PricePerDay     *int64   `json:"price_per_day"`
	MonthlyDiscount *int     `json:"monthly_discount"`
	Hidden          *bool    `json:"hidden"`
}

type ReviewOfficeRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
}
