// This file maps ledger errors onto HTTP responses so every handler answers
// failures the same way.

package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dompet/internal/core"
	applog "dompet/internal/log"
	"dompet/internal/services"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// statusFor classifies err: invalid input is 422, an uninitialized ledger is
// 503, anything else is a storage failure and 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotReady):
		return http.StatusServiceUnavailable
	case core.IsValidationError(err), errors.Is(err, services.ErrInvalidMilestone):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its status. Internal errors are logged and
// their details kept out of the response.
func (s *Server) respondError(c *gin.Context, err error, operation string) {
	_ = c.Error(err)
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.sl.LogError(c.Request.Context(), "Request failed", err, applog.ComponentHTTP, operation,
			applog.NewFields().WithRequestID(requestID(c)))
		msg = "failed to save changes"
	}
	c.AbortWithStatusJSON(status, errorBody{Error: msg, RequestID: requestID(c)})
}

func respondNotFound(c *gin.Context, kind string) {
	c.AbortWithStatusJSON(http.StatusNotFound, errorBody{
		Error:     kind + " not found",
		RequestID: requestID(c),
	})
}

func requestID(c *gin.Context) string {
	return applog.RequestIDFromContext(c.Request.Context())
}
