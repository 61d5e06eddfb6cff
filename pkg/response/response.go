package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ksred/flex-sync/internal/flex"
	"github.com/ksred/flex-sync/internal/parser"
)

// Response represents a standardized API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents an error response
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeInternalError   = "INTERNAL_ERROR"
	ErrCodeReportNotReady  = "REPORT_NOT_READY"
	ErrCodeUpstreamError   = "UPSTREAM_ERROR"
	ErrCodeMalformedReport = "MALFORMED_REPORT"
)

// Handle processes the error and returns the appropriate response. The
// report-fetch error taxonomy maps onto HTTP statuses here so handlers
// stay free of error-kind switches: not-ready conditions surface as 503
// with a retry hint, upstream transport/protocol/format failures as 502.
func Handle(c *gin.Context, data interface{}, err error) {
	if err == nil {
		Success(c, data)
		return
	}

	var (
		notReady  *flex.NotReadyError
		exhausted *flex.RetriesExhaustedError
		network   *flex.NetworkError
		protocol  *flex.ProtocolError
		badFormat *parser.FormatError
	)

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "Resource not found")
	case errors.As(err, &exhausted) || errors.As(err, &notReady):
		NotReady(c, "Report is still generating, try again later")
	case errors.As(err, &network) || errors.As(err, &protocol):
		UpstreamError(c, ErrCodeUpstreamError, err.Error())
	case errors.As(err, &badFormat):
		UpstreamError(c, ErrCodeMalformedReport, err.Error())
	default:
		InternalError(c, "An unexpected error occurred")
	}
}

// Success sends a successful response
func Success(c *gin.Context, data interface{}) {
	status := http.StatusOK
	if c.Request.Method == "POST" {
		status = http.StatusCreated
	}

	c.JSON(status, Response{
		Success: true,
		Data:    data,
	})
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, Response{
		Success: false,
		Error: &Error{
			Code:    ErrCodeNotFound,
			Message: message,
		},
	})
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error: &Error{
			Code:    ErrCodeBadRequest,
			Message: message,
		},
	})
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Response{
		Success: false,
		Error: &Error{
			Code:    ErrCodeUnauthorized,
			Message: message,
		},
	})
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, Response{
		Success: false,
		Error: &Error{
			Code:    ErrCodeForbidden,
			Message: message,
		},
	})
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Error: &Error{
			Code:    ErrCodeInternalError,
			Message: message,
		},
	})
}

// NotReady sends a 503 response for statements still generating
func NotReady(c *gin.Context, message string) {
	c.JSON(http.StatusServiceUnavailable, Response{
		Success: false,
		Error: &Error{
			Code:    ErrCodeReportNotReady,
			Message: message,
		},
	})
}

// UpstreamError sends a 502 response for report service failures
func UpstreamError(c *gin.Context, code, message string) {
	c.JSON(http.StatusBadGateway, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}
