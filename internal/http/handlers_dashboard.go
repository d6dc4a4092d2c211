package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dompet/internal/core"
	applog "dompet/internal/log"
)

// summaryResponse pairs the lifetime totals with one month's breakdown.
type summaryResponse struct {
	TotalIncome  core.Money         `json:"totalIncome"`
	TotalExpense core.Money         `json:"totalExpense"`
	Balance      core.Money         `json:"balance"`
	Month        core.MonthOverview `json:"month"`
}

func (s *Server) handleState(c *gin.Context) {
	state, err := s.ledger.State()
	if err != nil {
		s.respondError(c, err, applog.OpRead)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) handleSummary(c *gin.Context) {
	params, err := parseMonthParams(c, s.evaluator.Now())
	if err != nil {
		s.respondError(c, err, applog.OpRead)
		return
	}
	state, err := s.ledger.State()
	if err != nil {
		s.respondError(c, err, applog.OpRead)
		return
	}
	c.JSON(http.StatusOK, summaryResponse{
		TotalIncome:  state.TotalIncome,
		TotalExpense: state.TotalExpense,
		Balance:      state.Balance,
		Month:        core.SummarizeMonth(state.Transactions, params.Year, params.Month),
	})
}

// handleAlerts returns what the evaluator would raise right now, without
// sending anything.
func (s *Server) handleAlerts(c *gin.Context) {
	state, err := s.ledger.State()
	if err != nil {
		s.respondError(c, err, applog.OpRead)
		return
	}
	list := s.evaluator.Evaluate(state)
	if list == nil {
		c.JSON(http.StatusOK, []any{})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleBudgetPeriod(c *gin.Context) {
	state, err := s.ledger.State()
	if err != nil {
		s.respondError(c, err, applog.OpRead)
		return
	}
	i := state.FindBudget(c.Param("id"))
	if i < 0 {
		respondNotFound(c, "budget")
		return
	}
	ps, err := core.SpentInPeriod(state.Transactions, state.Budgets[i], s.evaluator.Now())
	if err != nil {
		s.respondError(c, err, applog.OpRead)
		return
	}
	c.JSON(http.StatusOK, ps)
}
