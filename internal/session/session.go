// Package session keeps login sessions keyed by an opaque cookie token.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/blogicum/internal/cache"
	"github.com/example/blogicum/internal/models"
)

var ErrNotFound = errors.New("session not found")

type Store interface {
	Create(ctx context.Context, userID uint) (*models.Session, error)
	Get(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
}

// NewToken returns 244 random bits as 64 hex characters.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// RedisStore keeps sessions as JSON values that expire with the session.
type RedisStore struct {
	redis *cache.RedisClient
	ttl   time.Duration
	now   func() time.Time
}

func NewRedisStore(redis *cache.RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: redis, ttl: ttl, now: time.Now}
}

func key(token string) string { return "session:" + token }

func (s *RedisStore) Create(ctx context.Context, userID uint) (*models.Session, error) {
	now := s.now()
	sess := &models.Session{Token: NewToken(), UserID: userID, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}
	if err := s.redis.SetJSONTTL(ctx, key(sess.Token), sess, s.ttl); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	var sess models.Session
	found, err := s.redis.GetJSON(ctx, key(token), &sess)
	if err != nil {
		return nil, err
	}
	if !found || sess.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.redis.Del(ctx, key(token))
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]models.Session
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: make(map[string]models.Session)}
}

// WithClock replaces the time source.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Create(_ context.Context, userID uint) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := models.Session{Token: NewToken(), UserID: userID, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}
	s.sessions[sess.Token] = sess
	return &sess, nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Expired(s.now()) {
		delete(s.sessions, token)
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
