package accounts

import (
	"context"

	"github.com/spendtrack/spendtrack/internal/shared"
)

// DefaultName and DefaultType describe the account provisioned at registration.
const (
	DefaultName = "Default Cash"
	DefaultType = "CASH"
)

// Service wraps account business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create opens a new account for the user.
func (s *Service) Create(ctx context.Context, input CreateAccountInput) (Account, error) {
	return s.repo.Create(ctx, input)
}

// CreateDefault provisions the starter account created at registration.
func (s *Service) CreateDefault(ctx context.Context, userID int64) (Account, error) {
	return s.repo.Create(ctx, CreateAccountInput{UserID: userID, Name: DefaultName, Type: DefaultType})
}

// Get returns an account owned by the user.
func (s *Service) Get(ctx context.Context, userID, id int64) (Account, error) {
	acc, err := s.repo.Get(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if acc.UserID != userID {
		return Account{}, shared.WrapNotFound("account")
	}
	return acc, nil
}

// List returns every account owned by the user.
func (s *Service) List(ctx context.Context, userID int64) ([]Account, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Update renames or re-tags an account. The balance estimate is not an
// updatable field; only the ledger writer adjusts it.
func (s *Service) Update(ctx context.Context, userID, id int64, input UpdateAccountInput) (Account, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return Account{}, err
	}
	return s.repo.Update(ctx, id, input)
}

// Delete removes an account owned by the user.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
