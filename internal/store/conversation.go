package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/khayai/repairbot/internal/domain"
)

// ConversationStore holds the dialogue state of each LINE user. Entries
// expire after a period of inactivity; an expired or unknown user reads as
// an idle conversation.
type ConversationStore interface {
	Get(ctx context.Context, userID string) (domain.Conversation, error)
	SetState(ctx context.Context, userID string, state domain.ConversationState) error
	MergeData(ctx context.Context, userID string, patch domain.PersonalInfo) error
	Clear(ctx context.Context, userID string) error
}

// MemoryConversationStore is a bounded in-process store. It does not survive
// restarts.
type MemoryConversationStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, domain.Conversation]
	now   func() time.Time
}

// NewMemoryConversationStore keeps at most size conversations, each for ttl
// after its last update.
func NewMemoryConversationStore(size int, ttl time.Duration) *MemoryConversationStore {
	return &MemoryConversationStore{
		cache: expirable.NewLRU[string, domain.Conversation](size, nil, ttl),
		now:   time.Now,
	}
}

func (s *MemoryConversationStore) Get(_ context.Context, userID string) (domain.Conversation, error) {
	c, ok := s.cache.Get(userID)
	if !ok {
		return domain.Conversation{State: domain.StateNone}, nil
	}
	return c, nil
}

func (s *MemoryConversationStore) SetState(_ context.Context, userID string, state domain.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, _ := s.cache.Peek(userID)
	c.State = state
	c.UpdatedAt = s.now()
	s.cache.Add(userID, c)
	return nil
}

func (s *MemoryConversationStore) MergeData(_ context.Context, userID string, patch domain.PersonalInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cache.Peek(userID)
	if !ok {
		c.State = domain.StateNone
	}
	c.Data = c.Data.Merge(patch)
	c.UpdatedAt = s.now()
	s.cache.Add(userID, c)
	return nil
}

func (s *MemoryConversationStore) Clear(_ context.Context, userID string) error {
	s.cache.Remove(userID)
	return nil
}

// Len reports the number of live conversations.
func (s *MemoryConversationStore) Len() int { return s.cache.Len() }

// RedisConversationStore keeps one JSON document per user with a sliding TTL.
type RedisConversationStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisConversationStore stores conversations under "<prefix>:conv:".
func NewRedisConversationStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisConversationStore {
	return &RedisConversationStore{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

func (s *RedisConversationStore) key(userID string) string {
	return joinKey(s.prefix, "conv", userID)
}

func (s *RedisConversationStore) Get(ctx context.Context, userID string) (domain.Conversation, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return s.read(ctx, s.client, userID)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisConversationStore) read(ctx context.Context, g getter, userID string) (domain.Conversation, error) {
	raw, err := g.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Conversation{State: domain.StateNone}, nil
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	var c domain.Conversation
	if err := json.Unmarshal(raw, &c); err != nil {
		return domain.Conversation{}, err
	}
	return c, nil
}

func (s *RedisConversationStore) SetState(ctx context.Context, userID string, state domain.ConversationState) error {
	return s.update(ctx, userID, func(c *domain.Conversation) { c.State = state })
}

func (s *RedisConversationStore) MergeData(ctx context.Context, userID string, patch domain.PersonalInfo) error {
	return s.update(ctx, userID, func(c *domain.Conversation) { c.Data = c.Data.Merge(patch) })
}

func (s *RedisConversationStore) Clear(ctx context.Context, userID string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return s.client.Del(ctx, s.key(userID)).Err()
}

const maxWatchRetries = 5

// update applies fn under WATCH so concurrent writers from other instances
// cannot interleave a read-modify-write on the same user.
func (s *RedisConversationStore) update(ctx context.Context, userID string, fn func(*domain.Conversation)) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	key := s.key(userID)
	txf := func(tx *redis.Tx) error {
		c, err := s.read(ctx, tx, userID)
		if err != nil {
			return err
		}
		fn(&c)
		c.UpdatedAt = s.now().UTC()
		raw, err := json.Marshal(c)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, raw, s.ttl)
			return nil
		})
		return err
	}
	var err error
	for i := 0; i < maxWatchRetries; i++ {
		err = s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}
