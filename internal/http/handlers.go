package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	applog "dompet/internal/log"
)

func handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) handleReady(c *gin.Context) {
	if !s.ledger.Ready() {
		c.String(http.StatusServiceUnavailable, "not ready")
		return
	}
	c.String(http.StatusOK, "ready")
}

// handleRefresh reloads the ledger from storage.
func (s *Server) handleRefresh(c *gin.Context) {
	if err := s.ledger.RefreshData(c.Request.Context()); err != nil {
		s.respondError(c, err, applog.OpRead)
		return
	}
	s.handleState(c)
}

func (s *Server) handleClearData(c *gin.Context) {
	if err := s.ledger.ClearAllData(c.Request.Context()); err != nil {
		s.respondError(c, err, applog.OpDelete)
		return
	}
	s.sl.LogMutation(c.Request.Context(), applog.OpDelete, "all", "*")
	c.Status(http.StatusNoContent)
}
