// Package handlers provides HTTP handler implementations for the public API.
//
// Two response families live side by side:
//
//   - The admin API answers with bare resources on success and the
//     ErrorResponse envelope on failure (fail, failErr).
//   - The LINE webhook and the LIFF endpoints keep the {status, message}
//     bodies the LIFF pages already parse (liffOK, liffFail).
//
// Example admin error:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "repair request not found"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/http/middleware"
	"github.com/khayai/repairbot/internal/services"
)

// ErrorResponse is the standard error envelope of the admin API.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"repair request not found"`
	// Rejected fields, for validation failures
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// StatusResponse is the body shape of the webhook and LIFF endpoints.
type StatusResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message,omitempty" example:"Events processed"`
}

// fail aborts the request with a structured error. Server errors (>=500)
// are logged with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	failWith(c, status, ErrorResponse{Code: code, Message: msg})
}

func failWith(c *gin.Context, status int, resp ErrorResponse) {
	resp.RequestID = c.Writer.Header().Get("X-Request-ID")
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", resp.Code).
			Str("message", resp.Message).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr maps a service error onto status and code. Unknown errors become
// a 500 whose message does not leak internals.
func failErr(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		fail(c, status, code, "internal server error")
		return
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		failWith(c, status, ErrorResponse{Code: code, Message: verr.Error(), Fields: verr.Fields})
		return
	}
	fail(c, status, code, err.Error())
}

// classify returns the HTTP status and error code for err.
func classify(err error) (int, string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrCodeValidation
	case errors.Is(err, services.ErrNothingToUpdate),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidAdjustment),
		errors.Is(err, services.ErrInvalidSignature),
		errors.Is(err, services.ErrInvalidPeriod):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case errors.Is(err, services.ErrForbiddenStatus):
		return http.StatusForbidden, ErrCodeForbiddenStatus
	case errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrPoleNotFound),
		errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrSignatureNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, services.ErrUserExists),
		errors.Is(err, services.ErrPoleExists),
		errors.Is(err, services.ErrItemExists):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, services.ErrInsufficientStock):
		return http.StatusConflict, ErrCodeInsufficientStock
	case errors.Is(err, services.ErrStaffChannelDisabled):
		return http.StatusConflict, ErrCodeChannelDisabled
	}
	return http.StatusInternalServerError, ErrCodeInternal
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// liffOK writes {"status":"success", ...extra}.
func liffOK(c *gin.Context, extra gin.H) {
	body := gin.H{"status": "success"}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// liffFail writes {"status":"error","message":msg}. 5xx are logged.
func liffFail(c *gin.Context, status int, msg string, err error) {
	if status >= http.StatusInternalServerError {
		ev := middleware.LoggerFrom(c).Error().Int("status", status)
		if err != nil {
			ev = ev.Err(err)
		}
		ev.Msg("liff error")
	}
	c.AbortWithStatusJSON(status, StatusResponse{Status: "error", Message: msg})
}
