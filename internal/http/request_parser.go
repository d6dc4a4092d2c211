// This file holds helpers for reading request data: JSON bodies, month
// query parameters and free-text sanitization.

package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"dompet/internal/core"
)

// maxBodyBytes caps the size of any JSON request body.
const maxBodyBytes = 64 << 10

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// parseMonthParams reads year and month from the query string, defaulting to
// the month containing now. Non-numeric values and months outside 1-12 are
// validation errors.
func parseMonthParams(c *gin.Context, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year(), Month: int(now.Month())}

	if v := strings.TrimSpace(c.Query("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("year %q: %w", v, core.ErrInvalidMonth)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(c.Query("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return params, fmt.Errorf("month %q: %w", v, core.ErrInvalidMonth)
		}
		params.Month = m
	}
	return params, nil
}

// bindJSON decodes the request body into dst. It answers 422 when a field
// fails domain validation while decoding (an unrepresentable amount), 400
// when the body is not valid JSON for dst, and returns false in both cases.
func bindJSON(c *gin.Context, dst any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(err)
		status, msg := http.StatusBadRequest, "malformed request body"
		if core.IsValidationError(err) {
			status, msg = http.StatusUnprocessableEntity, err.Error()
		}
		c.AbortWithStatusJSON(status, errorBody{Error: msg, RequestID: requestID(c)})
		return false
	}
	return true
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, then trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	return &v
}
