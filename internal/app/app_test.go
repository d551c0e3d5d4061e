package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/office-booking-backend/internal/app"
	officeHttp "github.com/nekogravitycat/office-booking-backend/internal/office/http"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/clock"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/response"
	reservationHttp "github.com/nekogravitycat/office-booking-backend/internal/reservation/http"
	"github.com/nekogravitycat/office-booking-backend/internal/user"
	userHttp "github.com/nekogravitycat/office-booking-backend/internal/user/http"
)

type testServer struct {
	t         *testing.T
	container *app.Container
}

func newTestServer(t *testing.T, rateLimit float64, burst int) *testServer {
	gin.SetMode(gin.TestMode)
	c := app.NewContainer(app.Config{
		JWTSecret:        "test-secret",
		JWTTTL:           30 * time.Minute,
		PasswordCost:     4, // Lower cost for testing purposes
		Clock:            clock.Fixed(time.Date(2021, 2, 20, 9, 0, 0, 0, time.UTC)),
		LockWait:         time.Second,
		BookingRateLimit: rateLimit,
		BookingRateBurst: burst,
	})
	return &testServer{t: t, container: c}
}

func (s *testServer) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req, _ := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.container.Router.ServeHTTP(w, req)
	return w
}

// signUp registers an account and logs in with the requested scopes.
func (s *testServer) signUp(email string, scopes ...string) (string, userHttp.UserResponse) {
	w := s.do("POST", "/v1/auth/register", userHttp.RegisterRequest{
		Email: email, Password: "password123", DisplayName: email,
	}, "")
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do("POST", "/v1/auth/login", userHttp.LoginRequest{
		Email: email, Password: "password123", Scopes: scopes,
	}, "")
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var resp userHttp.LoginResponse
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.AccessToken, resp.User
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Code
}

func ptr[T any](v T) *T { return &v }

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t, 100, 100)

	hostToken, _ := s.signUp("host@office.com")
	visitorToken, visitor := s.signUp("visitor@office.com")
	adminToken, admin := s.signUp("admin@office.com")

	_, err := s.container.UserService.Update(context.Background(), admin.ID, user.UpdateRequest{IsSystemAdmin: ptr(true)})
	require.NoError(t, err)

	var officeID int64
	t.Run("Host lists an office", func(t *testing.T) {
		w := s.do("POST", "/v1/offices", officeHttp.CreateOfficeRequest{
			Title:        "Chevron",
			Description:  "Quiet desks near the river",
			AddressLine1: "1 Chevron Island",
			Lat:          ptr(-27.9898),
			Lng:          ptr(153.4213),
			PricePerDay:  1000,
		}, hostToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp officeHttp.OfficeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "pending", resp.ApprovalStatus)
		officeID = resp.ID
	})

	booking := reservationHttp.CreateReservationRequest{
		OfficeID: officeID, StartDate: "2021-03-01", EndDate: "2021-03-10",
	}

	t.Run("Pending office is not bookable", func(t *testing.T) {
		w := s.do("POST", "/v1/reservations", booking, visitorToken)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "office_not_bookable", errorCode(t, w))
	})

	t.Run("Pending office is hidden from anonymous listing", func(t *testing.T) {
		w := s.do("GET", "/v1/offices", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var page response.PageResponse[officeHttp.OfficeResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		assert.Empty(t, page.Items)
	})

	t.Run("Only a system admin can review", func(t *testing.T) {
		path := fmt.Sprintf("/v1/admin/offices/%d/approval", officeID)

		w := s.do("PATCH", path, officeHttp.ReviewOfficeRequest{Status: "approved"}, hostToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = s.do("PATCH", path, officeHttp.ReviewOfficeRequest{Status: "approved"}, adminToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("Visitor books", func(t *testing.T) {
		w := s.do("POST", "/v1/reservations", booking, visitorToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp reservationHttp.ReservationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, visitor.ID, resp.UserID)
		assert.Equal(t, int64(10000), resp.Price)
		assert.Equal(t, "active", resp.Status)
		assert.Equal(t, "2021-03-01", resp.StartDate.String())
	})

	t.Run("Overlapping booking conflicts", func(t *testing.T) {
		other, _ := s.signUp("other@office.com")
		w := s.do("POST", "/v1/reservations", reservationHttp.CreateReservationRequest{
			OfficeID: officeID, StartDate: "2021-03-10", EndDate: "2021-03-15",
		}, other)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "date_conflict", errorCode(t, w))
	})

	t.Run("Host cannot book own office", func(t *testing.T) {
		w := s.do("POST", "/v1/reservations", reservationHttp.CreateReservationRequest{
			OfficeID: officeID, StartDate: "2021-04-01", EndDate: "2021-04-05",
		}, hostToken)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "self_booking", errorCode(t, w))
	})

	t.Run("Malformed dates are an invalid range", func(t *testing.T) {
		w := s.do("POST", "/v1/reservations", reservationHttp.CreateReservationRequest{
			OfficeID: officeID, StartDate: "2021-13-01", EndDate: "2021-04-05",
		}, visitorToken)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "invalid_date_range", errorCode(t, w))
	})

	t.Run("Unknown office", func(t *testing.T) {
		w := s.do("POST", "/v1/reservations", reservationHttp.CreateReservationRequest{
			OfficeID: 999, StartDate: "2021-04-01", EndDate: "2021-04-05",
		}, visitorToken)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "office_not_found", errorCode(t, w))
	})

	t.Run("Approved office is listed with its reservation count", func(t *testing.T) {
		w := s.do("GET", "/v1/offices?lat=-27.99&lng=153.42", nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var page response.PageResponse[officeHttp.OfficeResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		require.Len(t, page.Items, 1)
		assert.Equal(t, 1, page.Items[0].ActiveReservationsCount)
		assert.Equal(t, "host@office.com", page.Items[0].OwnerName)
	})

	t.Run("Partial origin is rejected", func(t *testing.T) {
		w := s.do("GET", "/v1/offices?lat=-27.99", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	var reservationID int64
	t.Run("Visitor and host see the reservation", func(t *testing.T) {
		w := s.do("GET", "/v1/reservations", nil, visitorToken)
		require.Equal(t, http.StatusOK, w.Code)
		var mine response.PageResponse[reservationHttp.ReservationResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
		require.Len(t, mine.Items, 1)
		reservationID = mine.Items[0].ID

		w = s.do("GET", "/v1/host/reservations", nil, hostToken)
		require.Equal(t, http.StatusOK, w.Code)
		var hosted response.PageResponse[reservationHttp.ReservationResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hosted))
		require.Len(t, hosted.Items, 1)
		assert.Equal(t, reservationID, hosted.Items[0].ID)

		w = s.do("GET", fmt.Sprintf("/v1/reservations/%d", reservationID), nil, hostToken)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Half-open date filter is rejected", func(t *testing.T) {
		w := s.do("GET", "/v1/reservations?from_date=2021-03-01", nil, visitorToken)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Only the visitor cancels", func(t *testing.T) {
		path := fmt.Sprintf("/v1/reservations/%d/cancel", reservationID)

		w := s.do("POST", path, nil, hostToken)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = s.do("POST", path, nil, visitorToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = s.do("POST", path, nil, visitorToken)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Office with reservations cannot be deleted", func(t *testing.T) {
		w := s.do("DELETE", fmt.Sprintf("/v1/offices/%d", officeID), nil, hostToken)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "office_has_reservations", errorCode(t, w))
	})
}

func TestScopesAndAuthentication(t *testing.T) {
	s := newTestServer(t, 100, 100)

	readOnly, _ := s.signUp("reader@office.com", "reservation.show")

	t.Run("Missing token", func(t *testing.T) {
		w := s.do("GET", "/v1/reservations", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Token without the scope", func(t *testing.T) {
		w := s.do("POST", "/v1/reservations", reservationHttp.CreateReservationRequest{
			OfficeID: 1, StartDate: "2021-03-01", EndDate: "2021-03-10",
		}, readOnly)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "insufficient_scope", errorCode(t, w))

		w = s.do("GET", "/v1/reservations", nil, readOnly)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Unknown scope at login", func(t *testing.T) {
		w := s.do("POST", "/v1/auth/login", userHttp.LoginRequest{
			Email: "reader@office.com", Password: "password123", Scopes: []string{"office.destroy"},
		}, "")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Wrong password", func(t *testing.T) {
		w := s.do("POST", "/v1/auth/login", userHttp.LoginRequest{
			Email: "reader@office.com", Password: "wrong-password",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestBookingRateLimit(t *testing.T) {
	s := newTestServer(t, 0.001, 1)
	token, _ := s.signUp("eager@office.com")

	body := reservationHttp.CreateReservationRequest{OfficeID: 1, StartDate: "2021-03-01", EndDate: "2021-03-10"}

	w := s.do("POST", "/v1/reservations", body, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do("POST", "/v1/reservations", body, token)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
