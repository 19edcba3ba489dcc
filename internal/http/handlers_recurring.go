package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"budgetshop/internal/core"
	"budgetshop/internal/middleware/auth"
)

type recurringRequest struct {
	CategoryID  int64   `json:"category_id"`
	Description string  `json:"description"`
	AmountCents *int64  `json:"amount_cents"`
	Amount      *string `json:"amount"`
	Every       string  `json:"every"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Active      *bool   `json:"active"`
}

// recurringFromRequest builds the domain template. A missing start date
// defaults to today; a missing end date leaves it open-ended.
func recurringFromRequest(userID, id int64, req recurringRequest) (core.RecurringExpense, error) {
	amount, err := parseAmount(req.AmountCents, req.Amount)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	start, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	if start.IsZero() {
		start = core.DateOf(time.Now())
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return core.RecurringExpense{}, err
	}
	active := req.Active == nil || *req.Active
	return core.RecurringExpense{
		ID:          id,
		UserID:      userID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Amount:      amount,
		Every:       core.RepetitionType(req.Every),
		StartDate:   start,
		EndDate:     end,
		Active:      active,
	}, nil
}

func (s *Server) handleListRecurring(c *gin.Context) {
	user := auth.CurrentUser(c)
	templates, err := s.svc.Recurring.List(c.Request.Context(), user.ID)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	if templates == nil {
		templates = []core.RecurringExpense{}
	}
	c.JSON(http.StatusOK, templates)
}

func (s *Server) handleCreateRecurring(c *gin.Context) {
	var req recurringRequest
	if !bindJSON(c, &req) {
		return
	}

	user := auth.CurrentUser(c)
	template, err := recurringFromRequest(user.ID, 0, req)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	created, err := s.svc.Recurring.Create(c.Request.Context(), template)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleGetRecurring(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user := auth.CurrentUser(c)
	template, err := s.svc.Recurring.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

func (s *Server) handleUpdateRecurring(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req recurringRequest
	if !bindJSON(c, &req) {
		return
	}

	user := auth.CurrentUser(c)
	template, err := recurringFromRequest(user.ID, id, req)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	updated, err := s.svc.Recurring.Update(c.Request.Context(), template)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteRecurring(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user := auth.CurrentUser(c)
	if err := s.svc.Recurring.Delete(c.Request.Context(), user.ID, id); err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
