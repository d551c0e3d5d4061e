package response

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/office-booking-backend/internal/pkg/apperror"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RetryAfterSeconds is advertised on 503 responses so clients know when to retry.
const RetryAfterSeconds = 1

// Error sends a JSON error response.
// AppErrors are reported with their own status code and kind.
// Anything else is an infrastructure fault: it is logged and reported as 500.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.Code == http.StatusServiceUnavailable {
			c.Header("Retry-After", strconv.Itoa(RetryAfterSeconds))
		}
		if appErr.Code >= http.StatusInternalServerError && appErr.Err != nil {
			log.Printf("request_error method=%s path=%s kind=%s error=%q",
				c.Request.Method, c.Request.URL.Path, appErr.Kind, appErr.Err.Error())
		}
		c.JSON(appErr.Code, ErrorResponse{Error: appErr.Message, Code: appErr.Kind})
		return
	}

	log.Printf("request_error method=%s path=%s kind=%s error=%q",
		c.Request.Method, c.Request.URL.Path, apperror.Internal, err.Error())
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: apperror.ErrInternal.Message,
		Code:  apperror.Internal,
	})
}

// BadRequest reports a request that failed binding or shape validation.
func BadRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message, "code": "invalid_request"}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}
