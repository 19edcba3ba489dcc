package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetshop/internal/core"
	"budgetshop/internal/middleware/auth"
	"budgetshop/internal/store"
)

type expenseRequest struct {
	CategoryID  int64   `json:"category_id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	AmountCents *int64  `json:"amount_cents"`
	Amount      *string `json:"amount"`
	Note        string  `json:"note"`
}

// expenseFromRequest builds the domain expense; amount and date errors
// surface as validation failures.
func expenseFromRequest(userID, id int64, req expenseRequest) (core.Expense, error) {
	amount, err := parseAmount(req.AmountCents, req.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:          id,
		UserID:      userID,
		CategoryID:  req.CategoryID,
		Date:        date,
		Description: req.Description,
		Amount:      amount,
		Note:        req.Note,
	}, nil
}

func (s *Server) handleListExpenses(c *gin.Context) {
	year, ok := queryInt(c, "year", 0)
	if !ok {
		return
	}
	month, ok := queryInt(c, "month", 0)
	if !ok {
		return
	}
	categoryID, ok := queryInt(c, "category_id", 0)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}

	user := auth.CurrentUser(c)
	expenses, err := s.svc.Expenses.List(c.Request.Context(), user.ID, store.ExpenseFilter{
		Year:       year,
		Month:      month,
		CategoryID: int64(categoryID),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	c.JSON(http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(c *gin.Context) {
	var req expenseRequest
	if !bindJSON(c, &req) {
		return
	}

	user := auth.CurrentUser(c)
	expense, err := expenseFromRequest(user.ID, 0, req)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	created, err := s.svc.Expenses.Create(c.Request.Context(), expense)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleGetExpense(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user := auth.CurrentUser(c)
	expense, err := s.svc.Expenses.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (s *Server) handleUpdateExpense(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req expenseRequest
	if !bindJSON(c, &req) {
		return
	}

	user := auth.CurrentUser(c)
	expense, err := expenseFromRequest(user.ID, id, req)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	updated, err := s.svc.Expenses.Update(c.Request.Context(), expense)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user := auth.CurrentUser(c)
	if err := s.svc.Expenses.Delete(c.Request.Context(), user.ID, id); err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
