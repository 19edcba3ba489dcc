package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetshop/internal/core"
	"budgetshop/internal/middleware/auth"
)

type categoryRequest struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Color    string `json:"color"`
	Position int    `json:"position"`
}

func (s *Server) handleListCategories(c *gin.Context) {
	user := auth.CurrentUser(c)
	cats, err := s.svc.Categories.List(c.Request.Context(), user.ID)
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	c.JSON(http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}

	user := auth.CurrentUser(c)
	created, err := s.svc.Categories.Create(c.Request.Context(), core.Category{
		UserID:   user.ID,
		Name:     req.Name,
		Kind:     core.CategoryKind(req.Kind),
		Color:    req.Color,
		Position: req.Position,
	})
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if !bindJSON(c, &req) {
		return
	}

	user := auth.CurrentUser(c)
	updated, err := s.svc.Categories.Update(c.Request.Context(), core.Category{
		ID:       id,
		UserID:   user.ID,
		Name:     req.Name,
		Kind:     core.CategoryKind(req.Kind),
		Color:    req.Color,
		Position: req.Position,
	})
	if err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	user := auth.CurrentUser(c)
	if err := s.svc.Categories.Delete(c.Request.Context(), user.ID, id); err != nil {
		s.writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
