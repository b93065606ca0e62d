package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/spendtrack/spendtrack/internal/shared"
)

const minPasswordLen = 8

// AccountProvisioner creates the starter account a new user gets on
// registration.
type AccountProvisioner interface {
	CreateDefault(ctx context.Context, userID int64) error
}

// ProvisionerFunc adapts a function to AccountProvisioner.
type ProvisionerFunc func(ctx context.Context, userID int64) error

func (f ProvisionerFunc) CreateDefault(ctx context.Context, userID int64) error {
	return f(ctx, userID)
}

// Service wraps authentication business rules.
type Service struct {
	repo        Repository
	tokens      *TokenStore
	provisioner AccountProvisioner
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenStore, provisioner AccountProvisioner) *Service {
	return &Service{repo: repo, tokens: tokens, provisioner: provisioner}
}

// Register creates a user and their starter account.
func (s *Service) Register(ctx context.Context, email, password string) (User, error) {
	if len(password) < minPasswordLen {
		return User{}, shared.NewValidationError("password", "too short")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.CreateUser(ctx, email, string(hash))
	if err != nil {
		return User{}, err
	}
	if err := s.provisioner.CreateDefault(ctx, user.ID); err != nil {
		return User{}, err
	}
	return user, nil
}

// Authenticate validates email/password credentials. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if user == nil {
		return User{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, shared.ErrInvalidCredentials
	}
	return *user, nil
}

// Login authenticates and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (User, string, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return User{}, "", err
	}
	token, err := s.tokens.Issue(ctx, user)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

// Logout revokes the bearer token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}
