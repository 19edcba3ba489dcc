package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"budgetshop/internal/core"
	"budgetshop/internal/services"
	"budgetshop/internal/store"
)

// writeServiceError maps service and store errors onto the API error
// shape. Anything unrecognized is logged and masked as a 500.
func (s *Server) writeServiceError(c *gin.Context, err error) {
	var verr core.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, store.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, store.ErrReferenced):
		c.JSON(http.StatusConflict, gin.H{"error": "still referenced"})
	case errors.Is(err, services.ErrWrongCategoryKind):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": services.ErrWrongCategoryKind.Error()})
	case errors.Is(err, services.ErrNoPurchasePrice):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": services.ErrNoPurchasePrice.Error()})
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Error()})
	default:
		_ = c.Error(err)
		s.logger.ErrorContext(c.Request.Context(), "Request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// bindJSON decodes the request body, answering 400 on malformed input.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints where an empty body means
// "all defaults".
func bindOptionalJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
	return false
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// queryInt reads an integer query parameter, falling back to def when
// absent.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

// queryBool reads a boolean query parameter, false when absent.
func queryBool(c *gin.Context, name string) (bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return false, false
	}
	return v, true
}

// parseAmount resolves the two accepted amount encodings: integer
// cents in amount_cents, or a decimal string in amount. Both absent
// yields zero money so optional amounts fall through to validation.
func parseAmount(cents *int64, decimal *string) (core.Money, error) {
	switch {
	case cents != nil && decimal != nil:
		return core.Money{}, core.ValidationError("provide amount_cents or amount, not both")
	case cents != nil:
		return core.Money{Cents: *cents}, nil
	case decimal != nil:
		parsed, err := core.ParseDecimalToCents(*decimal)
		if err != nil {
			return core.Money{}, err
		}
		return core.Money{Cents: parsed}, nil
	default:
		return core.Money{}, nil
	}
}

// parseOptionalDate parses a YYYY-MM-DD string, treating empty as the
// zero date.
func parseOptionalDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}
