package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetshop/internal/core"
	"budgetshop/internal/middleware/auth"
)

// handleListNotifications returns newest-first notifications.
// ?unread=true narrows to unread, ?limit=N caps the page.
func (s *Server) handleListNotifications(c *gin.Context) {
	unreadOnly, ok := queryBool(c, "unread")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}

	user := auth.CurrentUser(c)
	notes, err := s.svc.Notifications.List(c.Request.Context(), user.ID, unreadOnly, limit)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	if notes == nil {
		notes = []core.Notification{}
	}
	c.JSON(http.StatusOK, notes)
}

func (s *Server) handleMarkNotificationRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user := auth.CurrentUser(c)
	if err := s.svc.Notifications.MarkRead(c.Request.Context(), user.ID, id); err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleMarkAllNotificationsRead(c *gin.Context) {
	user := auth.CurrentUser(c)
	updated, err := s.svc.Notifications.MarkAllRead(c.Request.Context(), user.ID)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (s *Server) handleDeleteNotification(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user := auth.CurrentUser(c)
	if err := s.svc.Notifications.Delete(c.Request.Context(), user.ID, id); err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
