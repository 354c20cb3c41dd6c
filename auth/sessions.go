package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Sessions tracks which refresh tokens are still accepted.
type Sessions interface {
	Store(ctx context.Context, jti, userID string, ttl time.Duration) error
	// Revoke removes the session and reports whether it was still live.
	// Exactly one of several concurrent calls for the same jti sees true.
	Revoke(ctx context.Context, jti string) (bool, error)
	RevokeAll(ctx context.Context, userID string) error
}

// OpenRedis parses url, applies the pool settings and pings the server.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.PoolSize = 20
	opt.MinIdleConns = 2
	opt.DialTimeout = 5 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type RedisSessions struct {
	client *redis.Client
}

func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client}
}

func refreshKey(jti string) string     { return "refresh:" + jti }
func userIndexKey(userID string) string { return "user_refresh:" + userID }

func (s *RedisSessions) Store(ctx context.Context, jti, userID string, ttl time.Duration) error {
	key := refreshKey(jti)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, map[string]any{
			"user_id":    userID,
			"created_at": time.Now().UTC().Format(time.RFC3339),
		})
		p.Expire(ctx, key, ttl)
		p.SAdd(ctx, userIndexKey(userID), key)
		p.Expire(ctx, userIndexKey(userID), ttl)
		return nil
	})
	return err
}

// Revoke lets the DEL count decide which caller wins the session.
func (s *RedisSessions) Revoke(ctx context.Context, jti string) (bool, error) {
	key := refreshKey(jti)
	userID, err := s.client.HGet(ctx, key, "user_id").Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if err := s.client.SRem(ctx, userIndexKey(userID), key).Err(); err != nil {
		return true, err
	}
	return true, nil
}

func (s *RedisSessions) RevokeAll(ctx context.Context, userID string) error {
	index := userIndexKey(userID)
	keys, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return err
	}
	return s.client.Del(ctx, append(keys, index)...).Err()
}

// MemorySessions is the single-process fallback used when no Redis URL is
// configured.
type MemorySessions struct {
	mu      sync.Mutex
	entries map[string]memorySession
	now     func() time.Time
}

type memorySession struct {
	userID  string
	expires time.Time
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{entries: map[string]memorySession{}, now: time.Now}
}

func (s *MemorySessions) Store(_ context.Context, jti, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[jti] = memorySession{userID: userID, expires: s.now().Add(ttl)}
	return nil
}

// Revoke treats an expired entry as already gone.
func (s *MemorySessions) Revoke(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[jti]
	if !ok {
		return false, nil
	}
	delete(s.entries, jti)
	return s.now().Before(e.expires), nil
}

func (s *MemorySessions) RevokeAll(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for jti, e := range s.entries {
		if e.userID == userID {
			delete(s.entries, jti)
		}
	}
	return nil
}
