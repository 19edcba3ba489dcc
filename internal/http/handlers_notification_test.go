package http

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"budgetshop/internal/core"
	"budgetshop/internal/store/memory"
)

func TestNotificationFlow(t *testing.T) {
	st := memory.New()
	s := newTestServerWith(t, st)
	token, user := registerAndLogin(t, s, "alerts@example.com")

	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		n := core.Notification{
			UserID:  user.ID,
			Kind:    core.NotifyBudgetWarning,
			Message: fmt.Sprintf("Budget %d is at 80%%", i),
		}
		if err := st.CreateNotification(ctx, &n); err != nil {
			t.Fatalf("seed notification: %v", err)
		}
		ids = append(ids, n.ID)
	}

	w := doRequest(t, s, http.MethodGet, "/api/notifications", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d: %s", w.Code, w.Body.String())
	}
	var notes []core.Notification
	decodeBody(t, w, &notes)
	if len(notes) != 3 {
		t.Fatalf("listed %d notifications, want 3", len(notes))
	}
	// Newest first.
	if notes[0].ID != ids[2] {
		t.Errorf("first listed = %d, want newest %d", notes[0].ID, ids[2])
	}

	w = doRequest(t, s, http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", ids[0]), token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("mark read = %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, s, http.MethodGet, "/api/notifications?unread=true", token, nil)
	decodeBody(t, w, &notes)
	if len(notes) != 2 {
		t.Fatalf("unread count = %d, want 2", len(notes))
	}

	w = doRequest(t, s, http.MethodPost, "/api/notifications/read-all", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("read-all = %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]int64
	decodeBody(t, w, &resp)
	if resp["updated"] != 2 {
		t.Errorf("read-all updated = %d, want 2", resp["updated"])
	}

	w = doRequest(t, s, http.MethodDelete, fmt.Sprintf("/api/notifications/%d", ids[1]), token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d: %s", w.Code, w.Body.String())
	}
	w = doRequest(t, s, http.MethodGet, "/api/notifications", token, nil)
	decodeBody(t, w, &notes)
	if len(notes) != 2 {
		t.Errorf("after delete count = %d, want 2", len(notes))
	}
}

func TestNotificationLimit(t *testing.T) {
	st := memory.New()
	s := newTestServerWith(t, st)
	token, user := registerAndLogin(t, s, "manyalerts@example.com")

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		n := core.Notification{UserID: user.ID, Kind: core.NotifySystem, Message: "note"}
		if err := st.CreateNotification(ctx, &n); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	w := doRequest(t, s, http.MethodGet, "/api/notifications?limit=2", token, nil)
	var notes []core.Notification
	decodeBody(t, w, &notes)
	if len(notes) != 2 {
		t.Errorf("limited listing = %d notifications, want 2", len(notes))
	}
}

func TestNotificationOwnership(t *testing.T) {
	st := memory.New()
	s := newTestServerWith(t, st)
	_, owner := registerAndLogin(t, s, "noteowner@example.com")
	otherToken, _ := registerAndLogin(t, s, "noteother@example.com")

	n := core.Notification{UserID: owner.ID, Kind: core.NotifySystem, Message: "private"}
	if err := st.CreateNotification(context.Background(), &n); err != nil {
		t.Fatalf("seed: %v", err)
	}

	w := doRequest(t, s, http.MethodGet, "/api/notifications", otherToken, nil)
	var notes []core.Notification
	decodeBody(t, w, &notes)
	if len(notes) != 0 {
		t.Errorf("foreign listing sees %d notifications, want 0", len(notes))
	}

	w = doRequest(t, s, http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", n.ID), otherToken, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign mark read = %d, want 404", w.Code)
	}
	w = doRequest(t, s, http.MethodDelete, fmt.Sprintf("/api/notifications/%d", n.ID), otherToken, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign delete = %d, want 404", w.Code)
	}
}
