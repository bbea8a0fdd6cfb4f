package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/repo"
)

// CounterStore maintains (counterType, period) -> value counters. Next must
// return a value strictly greater than every earlier Next for the same key.
type CounterStore interface {
	Next(ctx context.Context, counterType, period string) (int64, error)
	Get(ctx context.Context, counterType, period string) (int64, error)
	List(ctx context.Context, counterType string) ([]domain.PeriodCounter, error)
	Reset(ctx context.Context, counterType, period string) error
	// Raise lifts the counter to at least floor. It never lowers it.
	Raise(ctx context.Context, counterType, period string, floor int64) error
	DeleteBefore(ctx context.Context, counterType, period string) (int64, error)
}

// SQLCounterStore keeps counters in the system_config table. Increments run
// as a single upsert inside a transaction; the mutex additionally serializes
// callers inside this process so SQLite never sees competing writers.
type SQLCounterStore struct {
	db  *gorm.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLCounterStore returns a counter store over db.
func NewSQLCounterStore(db *gorm.DB) *SQLCounterStore {
	return &SQLCounterStore{db: db, now: time.Now}
}

func (s *SQLCounterStore) Next(ctx context.Context, counterType, period string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return repo.IncrementCounter(ctx, s.db, counterType, period, s.now())
}

func (s *SQLCounterStore) Get(ctx context.Context, counterType, period string) (int64, error) {
	return repo.GetCounter(ctx, s.db, counterType, period)
}

func (s *SQLCounterStore) List(ctx context.Context, counterType string) ([]domain.PeriodCounter, error) {
	return repo.ListCounters(ctx, s.db, counterType)
}

func (s *SQLCounterStore) Reset(ctx context.Context, counterType, period string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return repo.SetCounter(ctx, s.db, counterType, period, 0, s.now())
}

func (s *SQLCounterStore) Raise(ctx context.Context, counterType, period string, floor int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return repo.RaiseCounter(ctx, s.db, counterType, period, floor, s.now())
}

func (s *SQLCounterStore) DeleteBefore(ctx context.Context, counterType, period string) (int64, error) {
	return repo.DeleteCountersBefore(ctx, s.db, counterType, period)
}

// RedisCounterStore keeps each counter in its own key and relies on INCR
// for atomicity across instances. Keys never expire.
type RedisCounterStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCounterStore returns a Redis-backed store whose keys live under
// "<prefix>:counter:".
func NewRedisCounterStore(client redis.UniversalClient, prefix string) *RedisCounterStore {
	return &RedisCounterStore{client: client, prefix: prefix}
}

func (s *RedisCounterStore) key(counterType, period string) string {
	return joinKey(s.prefix, "counter", counterType, period)
}

func (s *RedisCounterStore) Next(ctx context.Context, counterType, period string) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return s.client.Incr(ctx, s.key(counterType, period)).Result()
}

func (s *RedisCounterStore) Get(ctx context.Context, counterType, period string) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	v, err := s.client.Get(ctx, s.key(counterType, period)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// List scans every period of counterType, newest period first.
func (s *RedisCounterStore) List(ctx context.Context, counterType string) ([]domain.PeriodCounter, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	base := s.key(counterType, "")
	var out []domain.PeriodCounter
	iter := s.client.Scan(ctx, 0, base+"*", 100).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		raw, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", k, err)
		}
		out = append(out, domain.PeriodCounter{
			CounterType: counterType,
			Period:      strings.TrimPrefix(k, base),
			Value:       v,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	return out, nil
}

func (s *RedisCounterStore) Reset(ctx context.Context, counterType, period string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return s.client.Set(ctx, s.key(counterType, period), 0, 0).Err()
}

var raiseScript = redis.NewScript(`
local cur = tonumber(redis.call("GET", KEYS[1]) or "0")
local floor = tonumber(ARGV[1])
if cur < floor then
  redis.call("SET", KEYS[1], floor)
  return floor
end
return cur
`)

func (s *RedisCounterStore) Raise(ctx context.Context, counterType, period string, floor int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return raiseScript.Run(ctx, s.client, []string{s.key(counterType, period)}, floor).Err()
}

// DeleteBefore removes every period that sorts before period.
func (s *RedisCounterStore) DeleteBefore(ctx context.Context, counterType, period string) (int64, error) {
	all, err := s.List(ctx, counterType)
	if err != nil {
		return 0, err
	}
	var keys []string
	for _, c := range all {
		if c.Period < period {
			keys = append(keys, s.key(counterType, c.Period))
		}
	}
	if len(keys) == 0 {
		return 0, nil
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return s.client.Del(ctx, keys...).Result()
}
