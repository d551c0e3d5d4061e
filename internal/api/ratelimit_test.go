package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/office-booking-backend/internal/auth"
)

var testJWT = auth.NewJWTManager("test-secret", time.Hour)

func newLimitedEngine(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/book", auth.OptionalAuth(testJWT), rl.Limit(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return r
}

func post(t *testing.T, r *gin.Engine, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/book", nil)
	if userID != "" {
		token, err := testJWT.GenerateAccessToken(userID, userID+"@office.com", auth.DefaultScopes())
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_PerUser(t *testing.T) {
	r := newLimitedEngine(NewRateLimiter(0.001, 2))

	assert.Equal(t, http.StatusCreated, post(t, r, "alice").Code)
	assert.Equal(t, http.StatusCreated, post(t, r, "alice").Code)

	w := post(t, r, "alice")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limited")

	// Another caller has its own bucket.
	assert.Equal(t, http.StatusCreated, post(t, r, "bob").Code)
}

func TestRateLimiter_AnonymousKeyedByIP(t *testing.T) {
	r := newLimitedEngine(NewRateLimiter(0.001, 1))

	assert.Equal(t, http.StatusCreated, post(t, r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, post(t, r, "").Code)
	assert.Equal(t, http.StatusCreated, post(t, r, "carol").Code)
}

func TestRateLimiter_SweepsIdleCallers(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2021, 2, 20, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("alice")
	now = now.Add(idleLimiterTTL + time.Minute)
	rl.getLimiter("bob")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	require.Len(t, rl.visitors, 1)
	assert.Contains(t, rl.visitors, "bob")
}
