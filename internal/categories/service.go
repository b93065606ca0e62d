package categories

import (
	"context"

	"github.com/spendtrack/spendtrack/internal/shared"
)

// Service wraps category business rules. Global categories are read-only
// through the user API.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create adds a user-scoped category.
func (s *Service) Create(ctx context.Context, input CreateCategoryInput) (Category, error) {
	return s.repo.Create(ctx, input)
}

// Get returns a category visible to the user.
func (s *Service) Get(ctx context.Context, userID, id int64) (Category, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Category{}, err
	}
	if c.UserID != nil && *c.UserID != userID {
		return Category{}, shared.WrapNotFound("category")
	}
	return c, nil
}

// List returns the user's categories plus the global ones.
func (s *Service) List(ctx context.Context, userID int64) ([]Category, error) {
	return s.repo.ListVisible(ctx, userID)
}

// Update renames a category owned by the user.
func (s *Service) Update(ctx context.Context, userID, id int64, input UpdateCategoryInput) (Category, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Category{}, err
	}
	if c.UserID == nil || *c.UserID != userID {
		return Category{}, shared.WrapNotFound("category")
	}
	return s.repo.Update(ctx, id, input)
}

// Delete removes a category owned by the user.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.UserID == nil || *c.UserID != userID {
		return shared.WrapNotFound("category")
	}
	return s.repo.Delete(ctx, id)
}
