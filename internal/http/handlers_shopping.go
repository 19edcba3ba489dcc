package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetshop/internal/core"
	"budgetshop/internal/middleware/auth"
)

type listRequest struct {
	Name       string `json:"name"`
	CategoryID int64  `json:"category_id"`
	Archived   *bool  `json:"archived"`
}

type itemRequest struct {
	Name                string  `json:"name"`
	Quantity            int     `json:"quantity"`
	EstimatedPriceCents *int64  `json:"estimated_price_cents"`
	EstimatedPrice      *string `json:"estimated_price"`
	Position            int     `json:"position"`
}

type purchaseRequest struct {
	PaidCents *int64  `json:"paid_cents"`
	Paid      *string `json:"paid"`
	Date      string  `json:"date"`
}

// handleListShoppingLists returns the user's lists. Archived lists are
// hidden unless ?archived=true.
func (s *Server) handleListShoppingLists(c *gin.Context) {
	includeArchived, ok := queryBool(c, "archived")
	if !ok {
		return
	}

	user := auth.CurrentUser(c)
	lists, err := s.svc.Shopping.Lists(c.Request.Context(), user.ID, includeArchived)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	if lists == nil {
		lists = []core.ShoppingList{}
	}
	c.JSON(http.StatusOK, lists)
}

func (s *Server) handleCreateShoppingList(c *gin.Context) {
	var req listRequest
	if !bindJSON(c, &req) {
		return
	}

	user := auth.CurrentUser(c)
	created, err := s.svc.Shopping.CreateList(c.Request.Context(), core.ShoppingList{
		UserID:     user.ID,
		Name:       req.Name,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// handleGetShoppingList returns one list with its items in position
// order.
func (s *Server) handleGetShoppingList(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user := auth.CurrentUser(c)
	list, items, err := s.svc.Shopping.ListWithItems(c.Request.Context(), user.ID, id)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	if items == nil {
		items = []core.ShoppingItem{}
	}
	c.JSON(http.StatusOK, gin.H{"list": list, "items": items})
}

func (s *Server) handleUpdateShoppingList(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req listRequest
	if !bindJSON(c, &req) {
		return
	}

	user := auth.CurrentUser(c)
	updated, err := s.svc.Shopping.UpdateList(c.Request.Context(), core.ShoppingList{
		ID:         id,
		UserID:     user.ID,
		Name:       req.Name,
		CategoryID: req.CategoryID,
		Archived:   req.Archived != nil && *req.Archived,
	})
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteShoppingList(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user := auth.CurrentUser(c)
	if err := s.svc.Shopping.DeleteList(c.Request.Context(), user.ID, id); err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAddItem(c *gin.Context) {
	listID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req itemRequest
	if !bindJSON(c, &req) {
		return
	}

	estimated, err := parseAmount(req.EstimatedPriceCents, req.EstimatedPrice)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	user := auth.CurrentUser(c)
	item, err := s.svc.Shopping.AddItem(c.Request.Context(), user.ID, core.ShoppingItem{
		ListID:         listID,
		Name:           req.Name,
		Quantity:       req.Quantity,
		EstimatedPrice: estimated,
		Position:       req.Position,
	})
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req itemRequest
	if !bindJSON(c, &req) {
		return
	}

	estimated, err := parseAmount(req.EstimatedPriceCents, req.EstimatedPrice)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	user := auth.CurrentUser(c)
	updated, err := s.svc.Shopping.UpdateItem(c.Request.Context(), user.ID, core.ShoppingItem{
		ID:             id,
		Name:           req.Name,
		Quantity:       req.Quantity,
		EstimatedPrice: estimated,
		Position:       req.Position,
	})
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user := auth.CurrentUser(c)
	if err := s.svc.Shopping.DeleteItem(c.Request.Context(), user.ID, id); err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handlePurchaseItem marks an item bought. The body is optional: paid
// price falls back to the estimate, the date to today.
func (s *Server) handlePurchaseItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req purchaseRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	paid, err := parseAmount(req.PaidCents, req.Paid)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	day, err := parseOptionalDate(req.Date)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}

	user := auth.CurrentUser(c)
	item, err := s.svc.Shopping.Purchase(c.Request.Context(), user.ID, id, paid, day)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
