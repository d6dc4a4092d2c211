package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	applog "dompet/internal/log"
	"dompet/internal/services"
)

func (s *Server) handleListTransactions(c *gin.Context) {
	state, err := s.ledger.State()
	if err != nil {
		s.respondError(c, err, applog.OpRead)
		return
	}
	c.JSON(http.StatusOK, state.Transactions)
}

func (s *Server) handleCreateTransaction(c *gin.Context) {
	var in services.TransactionInput
	if !bindJSON(c, &in) {
		return
	}
	in.Category = sanitizeInput(in.Category)
	in.Description = sanitizeInput(in.Description)

	tx, err := s.ledger.AddTransaction(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err, applog.OpCreate)
		return
	}
	s.sl.LogMutation(c.Request.Context(), applog.OpCreate, "transaction", tx.ID)
	c.JSON(http.StatusCreated, tx)
}

func (s *Server) handleEditTransaction(c *gin.Context) {
	var patch services.TransactionPatch
	if !bindJSON(c, &patch) {
		return
	}
	patch.Category = sanitizePtr(patch.Category)
	patch.Description = sanitizePtr(patch.Description)

	id := c.Param("id")
	tx, found, err := s.ledger.EditTransaction(c.Request.Context(), id, patch)
	if err != nil {
		s.respondError(c, err, applog.OpUpdate)
		return
	}
	if !found {
		respondNotFound(c, "transaction")
		return
	}
	s.sl.LogMutation(c.Request.Context(), applog.OpUpdate, "transaction", id)
	c.JSON(http.StatusOK, tx)
}

// handleDeleteTransaction answers 204 whether or not the id existed.
func (s *Server) handleDeleteTransaction(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.ledger.DeleteTransaction(c.Request.Context(), id); err != nil {
		s.respondError(c, err, applog.OpDelete)
		return
	}
	s.sl.LogMutation(c.Request.Context(), applog.OpDelete, "transaction", id)
	c.Status(http.StatusNoContent)
}
