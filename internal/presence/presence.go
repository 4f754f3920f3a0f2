// Package presence tracks who was recently active, for the "admin online"
// badge customers see and the per-user status staff see.
package presence

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pigmarket/pigmarket-backend/internal/config"
)

type Status struct {
	Online   bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen"`
}

type Tracker interface {
	Touch(ctx context.Context, userID uuid.UUID, staff bool) error
	Status(ctx context.Context, userID uuid.UUID) (Status, error)
	AnyStaffOnline(ctx context.Context) (bool, error)
}

const staffKey = "presence:staff"

// NewRedisClient creates a Redis client from configuration
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

type RedisTracker struct {
	client *redis.Client
	window time.Duration
	now    func() time.Time
}

func NewRedisTracker(client *redis.Client, window time.Duration) *RedisTracker {
	return &RedisTracker{client: client, window: window, now: time.Now}
}

func userKey(id uuid.UUID) string {
	return fmt.Sprintf("presence:user:%s", id)
}

func (r *RedisTracker) Touch(ctx context.Context, userID uuid.UUID, staff bool) error {
	now := r.now()
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, userKey(userID), now.Unix(), r.window)
	if staff {
		pipe.ZAdd(ctx, staffKey, redis.Z{Score: float64(now.Unix()), Member: userID.String()})
		pipe.ZRemRangeByScore(ctx, staffKey, "-inf", strconv.FormatInt(now.Add(-r.window).Unix(), 10))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record presence: %w", err)
	}
	return nil
}

func (r *RedisTracker) Status(ctx context.Context, userID uuid.UUID) (Status, error) {
	val, err := r.client.Get(ctx, userKey(userID)).Int64()
	if err == redis.Nil {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("failed to read presence: %w", err)
	}
	seen := time.Unix(val, 0)
	return Status{Online: r.now().Sub(seen) <= r.window, LastSeen: &seen}, nil
}

func (r *RedisTracker) AnyStaffOnline(ctx context.Context) (bool, error) {
	cutoff := strconv.FormatInt(r.now().Add(-r.window).Unix(), 10)
	n, err := r.client.ZCount(ctx, staffKey, cutoff, "+inf").Result()
	if err != nil {
		return false, fmt.Errorf("failed to count staff presence: %w", err)
	}
	return n > 0, nil
}

// MemoryTracker keeps presence in process; used when Redis is disabled.
type MemoryTracker struct {
	mu     sync.RWMutex
	seen   map[uuid.UUID]time.Time
	staff  map[uuid.UUID]struct{}
	window time.Duration
	now    func() time.Time
}

func NewMemoryTracker(window time.Duration) *MemoryTracker {
	return &MemoryTracker{
		seen:   make(map[uuid.UUID]time.Time),
		staff:  make(map[uuid.UUID]struct{}),
		window: window,
		now:    time.Now,
	}
}

func (m *MemoryTracker) Touch(_ context.Context, userID uuid.UUID, staff bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[userID] = m.now()
	if staff {
		m.staff[userID] = struct{}{}
	}
	return nil
}

func (m *MemoryTracker) Status(_ context.Context, userID uuid.UUID) (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen, ok := m.seen[userID]
	if !ok {
		return Status{}, nil
	}
	return Status{Online: m.now().Sub(seen) <= m.window, LastSeen: &seen}, nil
}

func (m *MemoryTracker) AnyStaffOnline(_ context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id := range m.staff {
		if m.now().Sub(m.seen[id]) <= m.window {
			return true, nil
		}
	}
	return false, nil
}
