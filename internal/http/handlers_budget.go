package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetshop/internal/core"
	"budgetshop/internal/middleware/auth"
)

type budgetRequest struct {
	CategoryID  int64   `json:"category_id"`
	AmountCents *int64  `json:"amount_cents"`
	Amount      *string `json:"amount"`
	Period      string  `json:"period"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Active      *bool   `json:"active"`
}

func budgetFromRequest(userID, id int64, req budgetRequest) (core.Budget, error) {
	amount, err := parseAmount(req.AmountCents, req.Amount)
	if err != nil {
		return core.Budget{}, err
	}
	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return core.Budget{}, err
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return core.Budget{}, err
	}
	active := req.Active == nil || *req.Active
	return core.Budget{
		ID:         id,
		UserID:     userID,
		CategoryID: req.CategoryID,
		Amount:     amount,
		Period:     core.BudgetPeriod(req.Period),
		StartDate:  start,
		EndDate:    end,
		Active:     active,
	}, nil
}

// handleListBudgets returns budgets with live usage. ?active=true
// narrows to open windows.
func (s *Server) handleListBudgets(c *gin.Context) {
	activeOnly, ok := queryBool(c, "active")
	if !ok {
		return
	}

	user := auth.CurrentUser(c)
	statuses, err := s.svc.Budgets.List(c.Request.Context(), user.ID, activeOnly)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	if statuses == nil {
		statuses = []core.BudgetStatus{}
	}
	c.JSON(http.StatusOK, statuses)
}

func (s *Server) handleCreateBudget(c *gin.Context) {
	var req budgetRequest
	if !bindJSON(c, &req) {
		return
	}

	user := auth.CurrentUser(c)
	budget, err := budgetFromRequest(user.ID, 0, req)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	created, err := s.svc.Budgets.Create(c.Request.Context(), budget)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleGetBudget(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user := auth.CurrentUser(c)
	status, err := s.svc.Budgets.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleUpdateBudget(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req budgetRequest
	if !bindJSON(c, &req) {
		return
	}

	user := auth.CurrentUser(c)
	budget, err := budgetFromRequest(user.ID, id, req)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	updated, err := s.svc.Budgets.Update(c.Request.Context(), budget)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteBudget(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user := auth.CurrentUser(c)
	if err := s.svc.Budgets.Delete(c.Request.Context(), user.ID, id); err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
