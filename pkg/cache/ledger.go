package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ledger records processed event ids so redelivered events are handled once.
type Ledger interface {
	// MarkProcessed records id and reports whether this call recorded it
	// first. A false result means the id was seen within the TTL.
	MarkProcessed(ctx context.Context, id string) (bool, error)
	// Forget drops id so a later delivery is processed again.
	Forget(ctx context.Context, id string) error
}

const ledgerPrefix = "storefront:events:"

// RedisLedger keeps ids in Redis with SETNX, shared by every instance.
type RedisLedger struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLedger(rdb *redis.Client, ttl time.Duration) *RedisLedger {
	return &RedisLedger{rdb: rdb, ttl: ttl}
}

func (l *RedisLedger) MarkProcessed(ctx context.Context, id string) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, ledgerPrefix+id, time.Now().Unix(), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache: ledger mark: %w", err)
	}
	return ok, nil
}

func (l *RedisLedger) Forget(ctx context.Context, id string) error {
	if err := l.rdb.Del(ctx, ledgerPrefix+id).Err(); err != nil {
		return fmt.Errorf("cache: ledger forget: %w", err)
	}
	return nil
}

// MemoryLedger is the single-process fallback used when Redis is disabled.
type MemoryLedger struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryLedger(ttl time.Duration) *MemoryLedger {
	return &MemoryLedger{ttl: ttl, seen: map[string]time.Time{}, now: time.Now}
}

func (l *MemoryLedger) MarkProcessed(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if exp, ok := l.seen[id]; ok && !now.After(exp) {
		return false, nil
	}
	l.seen[id] = now.Add(l.ttl)
	return true, nil
}

func (l *MemoryLedger) Forget(_ context.Context, id string) error {
	l.mu.Lock()
	delete(l.seen, id)
	l.mu.Unlock()
	return nil
}

// Sweep drops expired ids and returns how many were removed.
func (l *MemoryLedger) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now, n := l.now(), 0
	for k, exp := range l.seen {
		if now.After(exp) {
			delete(l.seen, k)
			n++
		}
	}
	return n
}
