package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore invalidates issued tokens before they expire.
// Single tokens are revoked on logout; whole users are revoked after a password reset.
type RevocationStore interface {
	// RevokeToken marks a token ID as unusable for ttl (the token's remaining lifetime)
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error

	// IsTokenRevoked reports whether a token ID was revoked
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)

	// RevokeUser rejects every token of the user issued up to now
	RevokeUser(ctx context.Context, userID string, ttl time.Duration) error

	// IsIssuedBeforeRevocation reports whether a token issued at issuedAt predates the user's revocation.
	// Tokens issued within the revocation second stay valid so a fresh sign-in works immediately.
	IsIssuedBeforeRevocation(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

const revocationKeyPrefix = "invoicing:revoked:"

// RedisRevocationStore keeps revocations in Redis so every API instance sees them
type RedisRevocationStore struct {
	client *redis.Client
}

// NewRedisRevocationStore creates a revocation store on a shared Redis client
func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

func (s *RedisRevocationStore) tokenKey(tokenID string) string {
	return revocationKeyPrefix + "token:" + tokenID
}

func (s *RedisRevocationStore) userKey(userID string) string {
	return revocationKeyPrefix + "user:" + userID
}

// RevokeToken stores the token ID until the token would have expired anyway
func (s *RedisRevocationStore) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.tokenKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsTokenRevoked checks the token ID key
func (s *RedisRevocationStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.tokenKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

// RevokeUser stores the revocation time in unix seconds
func (s *RedisRevocationStore) RevokeUser(ctx context.Context, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.userKey(userID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}
	return nil
}

// IsIssuedBeforeRevocation compares issuedAt with the stored revocation time
func (s *RedisRevocationStore) IsIssuedBeforeRevocation(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	raw, err := s.client.Get(ctx, s.userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user revocation: %w", err)
	}

	revokedAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse revocation timestamp: %w", err)
	}
	return issuedAt.Unix() < revokedAt, nil
}

var _ RevocationStore = (*RedisRevocationStore)(nil)

// InMemoryRevocationStore is a process-local store for tests and single-instance setups
type InMemoryRevocationStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time // token ID -> expiry
	users  map[string]time.Time // user ID -> revocation time
}

// NewInMemoryRevocationStore creates an empty in-memory store
func NewInMemoryRevocationStore() *InMemoryRevocationStore {
	return &InMemoryRevocationStore{
		tokens: make(map[string]time.Time),
		users:  make(map[string]time.Time),
	}
}

// RevokeToken records the token ID with its expiry
func (s *InMemoryRevocationStore) RevokeToken(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenID] = time.Now().Add(ttl)
	return nil
}

// IsTokenRevoked drops expired entries lazily
func (s *InMemoryRevocationStore) IsTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.tokens[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(s.tokens, tokenID)
		return false, nil
	}
	return true, nil
}

// RevokeUser records the revocation time
func (s *InMemoryRevocationStore) RevokeUser(_ context.Context, userID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = time.Now()
	return nil
}

// IsIssuedBeforeRevocation compares whole seconds, like token issue times
func (s *InMemoryRevocationStore) IsIssuedBeforeRevocation(_ context.Context, userID string, issuedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	revokedAt, ok := s.users[userID]
	if !ok {
		return false, nil
	}
	return issuedAt.Unix() < revokedAt.Unix(), nil
}

var _ RevocationStore = (*InMemoryRevocationStore)(nil)
