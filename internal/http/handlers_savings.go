package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dompet/internal/core"
	applog "dompet/internal/log"
	"dompet/internal/services"
)

// depositRequest moves money into (positive) or out of (negative) a goal.
type depositRequest struct {
	Amount core.Money `json:"amount"`
}

func (s *Server) handleListSavings(c *gin.Context) {
	state, err := s.ledger.State()
	if err != nil {
		s.respondError(c, err, applog.OpRead)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"savings": state.Savings,
		"entries": state.SavingsTransactions,
	})
}

func (s *Server) handleCreateSavings(c *gin.Context) {
	var in services.SavingsInput
	if !bindJSON(c, &in) {
		return
	}
	in.Name = sanitizeInput(in.Name)

	g, err := s.ledger.AddSavings(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err, applog.OpCreate)
		return
	}
	s.sl.LogMutation(c.Request.Context(), applog.OpCreate, "savings", g.ID)
	c.JSON(http.StatusCreated, g)
}

func (s *Server) handleEditSavings(c *gin.Context) {
	var patch services.SavingsPatch
	if !bindJSON(c, &patch) {
		return
	}
	patch.Name = sanitizePtr(patch.Name)

	id := c.Param("id")
	g, found, err := s.ledger.EditSavings(c.Request.Context(), id, patch)
	if err != nil {
		s.respondError(c, err, applog.OpUpdate)
		return
	}
	if !found {
		respondNotFound(c, "savings goal")
		return
	}
	s.sl.LogMutation(c.Request.Context(), applog.OpUpdate, "savings", id)
	c.JSON(http.StatusOK, g)
}

func (s *Server) handleDeleteSavings(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.ledger.DeleteSavings(c.Request.Context(), id); err != nil {
		s.respondError(c, err, applog.OpDelete)
		return
	}
	s.sl.LogMutation(c.Request.Context(), applog.OpDelete, "savings", id)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDeposit(c *gin.Context) {
	var req depositRequest
	if !bindJSON(c, &req) {
		return
	}

	id := c.Param("id")
	g, found, err := s.ledger.UpdateSavings(c.Request.Context(), id, req.Amount)
	if err != nil {
		s.respondError(c, err, applog.OpUpdate)
		return
	}
	if !found {
		respondNotFound(c, "savings goal")
		return
	}
	s.sl.LogMutation(c.Request.Context(), applog.OpUpdate, "savings", id)
	c.JSON(http.StatusOK, g)
}
