package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	applog "dompet/internal/log"
	"dompet/internal/services"
)

func (s *Server) handleListBudgets(c *gin.Context) {
	state, err := s.ledger.State()
	if err != nil {
		s.respondError(c, err, applog.OpRead)
		return
	}
	c.JSON(http.StatusOK, state.Budgets)
}

func (s *Server) handleCreateBudget(c *gin.Context) {
	var in services.BudgetInput
	if !bindJSON(c, &in) {
		return
	}
	in.Category = sanitizeInput(in.Category)

	b, err := s.ledger.AddBudget(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err, applog.OpCreate)
		return
	}
	s.sl.LogMutation(c.Request.Context(), applog.OpCreate, "budget", b.ID)
	c.JSON(http.StatusCreated, b)
}

func (s *Server) handleEditBudget(c *gin.Context) {
	var patch services.BudgetPatch
	if !bindJSON(c, &patch) {
		return
	}
	patch.Category = sanitizePtr(patch.Category)

	id := c.Param("id")
	b, found, err := s.ledger.EditBudget(c.Request.Context(), id, patch)
	if err != nil {
		s.respondError(c, err, applog.OpUpdate)
		return
	}
	if !found {
		respondNotFound(c, "budget")
		return
	}
	s.sl.LogMutation(c.Request.Context(), applog.OpUpdate, "budget", id)
	c.JSON(http.StatusOK, b)
}

func (s *Server) handleDeleteBudget(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.ledger.DeleteBudget(c.Request.Context(), id); err != nil {
		s.respondError(c, err, applog.OpDelete)
		return
	}
	s.sl.LogMutation(c.Request.Context(), applog.OpDelete, "budget", id)
	c.Status(http.StatusNoContent)
}
