package services

import (
	"context"

	"budgetshop/internal/core"
	"budgetshop/internal/store"
)

// CategoryService manages the per-user taxonomy. Names and colors are
// baked into cached summaries, so edits invalidate them.
type CategoryService struct {
	store     store.Store
	summaries summaryInvalidator
}

func NewCategoryService(st store.Store, summaries summaryInvalidator) *CategoryService {
	return &CategoryService{store: st, summaries: summaries}
}

func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.store.CreateCategory(ctx, &c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *CategoryService) List(ctx context.Context, userID int64) ([]core.Category, error) {
	return s.store.Categories(ctx, userID)
}

func (s *CategoryService) Get(ctx context.Context, userID, id int64) (core.Category, error) {
	return s.store.CategoryByID(ctx, userID, id)
}

func (s *CategoryService) Update(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	if s.summaries != nil {
		s.summaries.Invalidate(c.UserID)
	}
	return s.store.CategoryByID(ctx, c.UserID, c.ID)
}

// Delete removes an unused category. Categories still referenced by
// expenses, templates, budgets or lists fail with store.ErrReferenced.
func (s *CategoryService) Delete(ctx context.Context, userID, id int64) error {
	return s.store.DeleteCategory(ctx, userID, id)
}
