package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spendtrack/spendtrack/internal/shared"
)

type memoryRepo struct {
	users  map[string]User
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[string]User)}
}

func (r *memoryRepo) CreateUser(ctx context.Context, email, passwordHash string) (User, error) {
	if _, ok := r.users[email]; ok {
		return User{}, fmt.Errorf("email already registered: %w", shared.ErrConflict)
	}
	r.nextID++
	u := User{ID: r.nextID, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now()}
	r.users[email] = u
	return u, nil
}

func (r *memoryRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func newTestService(t *testing.T, provisioned *[]int64) (*Service, *TokenStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tokens := NewTokenStore(client, time.Hour)
	svc := NewService(newMemoryRepo(), tokens, ProvisionerFunc(func(ctx context.Context, userID int64) error {
		*provisioned = append(*provisioned, userID)
		return nil
	}))
	return svc, tokens, mr
}

func TestRegisterProvisionsStarterAccount(t *testing.T) {
	var provisioned []int64
	svc, _, _ := newTestService(t, &provisioned)

	user, err := svc.Register(context.Background(), "new@example.com", "hunter2hunter2")
	require.NoError(t, err)
	require.Equal(t, "new@example.com", user.Email)
	require.Equal(t, []int64{user.ID}, provisioned)

	require.NotEqual(t, "hunter2hunter2", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2hunter2")))
}

func TestRegisterShortPassword(t *testing.T) {
	var provisioned []int64
	svc, _, _ := newTestService(t, &provisioned)

	_, err := svc.Register(context.Background(), "new@example.com", "short")
	_, ok := shared.AsValidationError(err)
	require.True(t, ok)
	require.Empty(t, provisioned)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	var provisioned []int64
	svc, _, _ := newTestService(t, &provisioned)

	_, err := svc.Register(context.Background(), "dup@example.com", "hunter2hunter2")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "dup@example.com", "hunter2hunter2")
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestLoginIssuesResolvableToken(t *testing.T) {
	var provisioned []int64
	svc, tokens, _ := newTestService(t, &provisioned)

	user, err := svc.Register(context.Background(), "login@example.com", "hunter2hunter2")
	require.NoError(t, err)

	got, token, err := svc.Login(context.Background(), "login@example.com", "hunter2hunter2")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.NotEmpty(t, token)

	identity, err := tokens.Resolve(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, shared.Identity{UserID: user.ID, Email: user.Email}, identity)
}

func TestLoginBadCredentials(t *testing.T) {
	var provisioned []int64
	svc, _, _ := newTestService(t, &provisioned)

	_, err := svc.Register(context.Background(), "login@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "login@example.com", "wrong-password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	// Unknown emails fail identically.
	_, _, err = svc.Login(context.Background(), "nobody@example.com", "hunter2hunter2")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	var provisioned []int64
	svc, tokens, _ := newTestService(t, &provisioned)

	_, err := svc.Register(context.Background(), "login@example.com", "hunter2hunter2")
	require.NoError(t, err)
	_, token, err := svc.Login(context.Background(), "login@example.com", "hunter2hunter2")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), token))
	_, err = tokens.Resolve(context.Background(), token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	// Revoking twice is harmless.
	require.NoError(t, svc.Logout(context.Background(), token))
}

func TestTokenExpiry(t *testing.T) {
	var provisioned []int64
	svc, tokens, mr := newTestService(t, &provisioned)

	_, err := svc.Register(context.Background(), "login@example.com", "hunter2hunter2")
	require.NoError(t, err)
	_, token, err := svc.Login(context.Background(), "login@example.com", "hunter2hunter2")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = tokens.Resolve(context.Background(), token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}
