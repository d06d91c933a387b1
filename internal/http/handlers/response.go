// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response envelope and the single place where service
// errors are translated into HTTP status codes. Handlers never leak internal
// error text for 5xx responses; the detail goes to the request log instead.
//
// Example error response:
//
//	HTTP/1.1 409 Conflict
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "redownload_confirmation_required",
//	  "message": "re-download requires confirmation"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/studyvault/internal/domain"
	"github.com/tbourn/studyvault/internal/http/middleware"
	"github.com/tbourn/studyvault/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"key_invalid"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"access key is invalid"`
}

// fail aborts the request with a structured error. 5xx responses are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail() for router fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

type errorMapping struct {
	target error
	status int
	code   string
}

// serviceErrors is checked in order; the first errors.Is match wins.
var serviceErrors = []errorMapping{
	{services.ErrKeyInvalid, http.StatusBadRequest, ErrCodeKeyInvalid},
	{services.ErrRedeemThrottled, http.StatusTooManyRequests, ErrCodeRateLimited},
	{services.ErrUnauthorized, http.StatusUnauthorized, ErrCodeUnauthorized},
	{services.ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
	{services.ErrEntitlementNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrOrderNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrObjectNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrOrderNotCompleted, http.StatusBadRequest, ErrCodeOrderNotCompleted},
	{services.ErrAlreadyUnlocked, http.StatusBadRequest, ErrCodeAlreadyUnlocked},
	{services.ErrRedownloadNotConfirmed, http.StatusConflict, ErrCodeRedownloadRequired},
	{services.ErrInvalidTransition, http.StatusConflict, ErrCodeInvalidTransition},
	{services.ErrInvalidContentType, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrEmptyOrder, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrInvalidCount, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrTicketInvalid, http.StatusUnauthorized, ErrCodeTicketInvalid},
	{services.ErrItemMissing, http.StatusUnprocessableEntity, ErrCodeItemMissing},
	{domain.ErrInvalidRecord, http.StatusBadRequest, ErrCodeValidationFailed},
	{services.ErrStorageUnavailable, http.StatusServiceUnavailable, ErrCodeStorageUnavailable},
	{services.ErrCorruptSource, http.StatusInternalServerError, ErrCodeWatermarkFailed},
}

// failErr maps a service error onto the envelope. Client errors carry the
// sentinel's message; anything unmapped becomes an opaque 500.
func failErr(c *gin.Context, err error) {
	for _, m := range serviceErrors {
		if !errors.Is(err, m.target) {
			continue
		}
		msg := m.target.Error()
		if m.status >= http.StatusInternalServerError {
			_ = c.Error(err)
		}
		fail(c, m.status, m.code, msg)
		return
	}
	_ = c.Error(err)
	fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
