package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"dompet/internal/core"
	"dompet/internal/services"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		query   string
		want    MonthParams
		wantErr bool
	}{
		{"", MonthParams{2025, 3}, false},
		{"?year=2024&month=12", MonthParams{2024, 12}, false},
		{"?month=%201%20", MonthParams{2025, 1}, false},
		{"?month=0", MonthParams{}, true},
		{"?month=13", MonthParams{}, true},
		{"?year=abc", MonthParams{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/api/summary"+tt.query, nil)

			got, err := parseMonthParams(c, now)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidMonth) {
					t.Errorf("error = %v, want ErrInvalidMonth", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("parseMonthParams() = %+v, %v, want %+v", got, err, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Food  ", "Food"},
		{"a\x00b\x1fc", "abc"},
		{"line\nbreak\ttab", "line\nbreak\ttab"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if sanitizePtr(nil) != nil {
		t.Error("sanitizePtr(nil) should stay nil")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not ready", fmt.Errorf("refresh data: %w", services.ErrNotReady), http.StatusServiceUnavailable},
		{"validation", core.ErrEmptyCategory, http.StatusUnprocessableEntity},
		{"wrapped validation", errors.Join(errors.New("ctx"), core.ErrInvalidAmount), http.StatusUnprocessableEntity},
		{"storage", errors.New("save state: disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}
