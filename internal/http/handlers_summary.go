package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"budgetshop/internal/middleware/auth"
)

// handleMonthSummary serves the cached month overview. Missing year or
// month default to the current one.
func (s *Server) handleMonthSummary(c *gin.Context) {
	now := time.Now()
	year, ok := queryInt(c, "year", now.Year())
	if !ok {
		return
	}
	month, ok := queryInt(c, "month", int(now.Month()))
	if !ok {
		return
	}

	user := auth.CurrentUser(c)
	summary, err := s.svc.Summaries.MonthSummary(c.Request.Context(), user.ID, year, month)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
