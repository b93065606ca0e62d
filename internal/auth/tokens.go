package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/spendtrack/spendtrack/internal/shared"
)

const tokenKeyPrefix = "token:"

// TokenStore issues and resolves opaque bearer tokens backed by Redis.
// Logout deletes the key, which revokes the token immediately; expiry is
// handled by the key TTL.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

type tokenPayload struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// NewTokenStore constructs a TokenStore with the given token lifetime.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue creates a fresh token for the user.
func (ts *TokenStore) Issue(ctx context.Context, user User) (string, error) {
	token := uuid.NewString()
	data, err := json.Marshal(tokenPayload{UserID: user.ID, Email: user.Email})
	if err != nil {
		return "", err
	}
	if err := ts.client.Set(ctx, tokenKeyPrefix+token, data, ts.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve maps a token back to the identity it was issued for.
func (ts *TokenStore) Resolve(ctx context.Context, token string) (shared.Identity, error) {
	data, err := ts.client.Get(ctx, tokenKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return shared.Identity{}, shared.ErrUnauthorized
		}
		return shared.Identity{}, err
	}
	var payload tokenPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return shared.Identity{}, shared.ErrUnauthorized
	}
	return shared.Identity{UserID: payload.UserID, Email: payload.Email}, nil
}

// Revoke invalidates a token. Revoking an unknown token is a no-op.
func (ts *TokenStore) Revoke(ctx context.Context, token string) error {
	err := ts.client.Del(ctx, tokenKeyPrefix+token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TTL exposes the configured token lifetime.
func (ts *TokenStore) TTL() time.Duration {
	return ts.ttl
}
