package services

import (
	"context"

	"budgetshop/internal/core"
	"budgetshop/internal/store"
)

// NotificationService reads and acknowledges the alerts other services
// produce. It never creates notifications itself; budget threshold
// crossings and recurring materializations write them directly.
type NotificationService struct {
	store store.Store
}

func NewNotificationService(st store.Store) *NotificationService {
	return &NotificationService{store: st}
}

func (s *NotificationService) List(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]core.Notification, error) {
	return s.store.Notifications(ctx, userID, store.NotificationFilter{
		UnreadOnly: unreadOnly,
		Limit:      limit,
	})
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) error {
	return s.store.MarkRead(ctx, userID, id)
}

// MarkAllRead acknowledges every unread notification and returns how
// many were touched.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, id int64) error {
	return s.store.DeleteNotification(ctx, userID, id)
}
