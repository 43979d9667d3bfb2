package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrResetTokenInvalid is returned for unknown, used or expired reset tokens
var ErrResetTokenInvalid = errors.New("password reset token is invalid or expired")

// ResetTokenStore issues single-use password reset tokens
type ResetTokenStore interface {
	// Issue creates a token bound to userID valid for ttl
	Issue(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error)

	// Consume returns the bound user and invalidates the token
	Consume(ctx context.Context, token string) (uuid.UUID, error)
}

const resetTokenKeyPrefix = "invoicing:reset:"

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// RedisResetTokenStore keeps reset tokens in Redis with a TTL
type RedisResetTokenStore struct {
	client *redis.Client
}

// NewRedisResetTokenStore creates a reset token store on a shared Redis client
func NewRedisResetTokenStore(client *redis.Client) *RedisResetTokenStore {
	return &RedisResetTokenStore{client: client}
}

// Issue stores token -> user ID
func (s *RedisResetTokenStore) Issue(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error) {
	token, err := newResetToken()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, resetTokenKeyPrefix+token, userID.String(), ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}
	return token, nil
}

// Consume reads and deletes the token atomically
func (s *RedisResetTokenStore) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrResetTokenInvalid
	}
	raw, err := s.client.GetDel(ctx, resetTokenKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrResetTokenInvalid
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to read reset token: %w", err)
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrResetTokenInvalid
	}
	return userID, nil
}

var _ ResetTokenStore = (*RedisResetTokenStore)(nil)

type resetEntry struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// InMemoryResetTokenStore is a process-local reset token store
type InMemoryResetTokenStore struct {
	mu      sync.Mutex
	entries map[string]resetEntry
}

// NewInMemoryResetTokenStore creates an empty store
func NewInMemoryResetTokenStore() *InMemoryResetTokenStore {
	return &InMemoryResetTokenStore{entries: make(map[string]resetEntry)}
}

// Issue stores a new token
func (s *InMemoryResetTokenStore) Issue(_ context.Context, userID uuid.UUID, ttl time.Duration) (string, error) {
	token, err := newResetToken()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = resetEntry{userID: userID, expiresAt: time.Now().Add(ttl)}
	return token, nil
}

// Consume removes the token whether or not it expired
func (s *InMemoryResetTokenStore) Consume(_ context.Context, token string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		return uuid.Nil, ErrResetTokenInvalid
	}
	delete(s.entries, token)
	if time.Now().After(entry.expiresAt) {
		return uuid.Nil, ErrResetTokenInvalid
	}
	return entry.userID, nil
}

var _ ResetTokenStore = (*InMemoryResetTokenStore)(nil)
