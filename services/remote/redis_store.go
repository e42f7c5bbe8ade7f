package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ChrisHammers/LicensePlateApp-sub000/apperrors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "doc:"
const channelPrefix = "changes:"

// RedisStore backs the Store capability with Redis: documents live as
// JSON values keyed by path, change notifications fan out over pub/sub.
type RedisStore struct {
	client *redis.Client

	mu      sync.Mutex
	nextID  SubscriptionHandle
	pubsubs map[SubscriptionHandle]*redis.PubSub
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:  client,
		nextID:  1,
		pubsubs: make(map[SubscriptionHandle]*redis.PubSub),
	}
}

type storedDoc struct {
	Document  Document  `json:"document"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Put writes the document and publishes the change. Writing the same
// document to the same path twice is harmless.
func (s *RedisStore) Put(ctx context.Context, path string, doc Document, updatedAt time.Time) error {
	payload, err := json.Marshal(storedDoc{Document: doc, UpdatedAt: updatedAt})
	if err != nil {
		return fmt.Errorf("encoding document %s: %w", path, err)
	}
	if err := s.client.Set(ctx, keyPrefix+path, payload, 0).Err(); err != nil {
		return fmt.Errorf("%w: putting %s: %v", apperrors.ErrSyncFailure, path, err)
	}

	change, err := json.Marshal(Change{Path: path, Document: doc, UpdatedAt: updatedAt})
	if err != nil {
		return fmt.Errorf("encoding change for %s: %w", path, err)
	}
	if err := s.client.Publish(ctx, channelPrefix+path, change).Err(); err != nil {
		// The put itself landed; listeners will catch up on the next write
		log.Printf("Error publishing change for %s: %v", path, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, path string) (Document, time.Time, error) {
	raw, err := s.client.Get(ctx, keyPrefix+path).Bytes()
	if err == redis.Nil {
		return nil, time.Time{}, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: getting %s: %v", apperrors.ErrSyncFailure, path, err)
	}
	var stored storedDoc
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, time.Time{}, fmt.Errorf("decoding document %s: %w", path, err)
	}
	return stored.Document, stored.UpdatedAt, nil
}

// Listen subscribes to every path under the prefix. The returned handle
// must be passed to Unlisten when the scope (e.g. the family view) goes
// away; a leaked subscription keeps merging in the background forever.
func (s *RedisStore) Listen(ctx context.Context, pathPrefix string, onChange func(Change)) (SubscriptionHandle, error) {
	pubsub := s.client.PSubscribe(ctx, channelPrefix+pathPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return 0, fmt.Errorf("%w: subscribing to %s: %v", apperrors.ErrSyncFailure, pathPrefix, err)
	}

	s.mu.Lock()
	handle := s.nextID
	s.nextID++
	s.pubsubs[handle] = pubsub
	s.mu.Unlock()

	go func() {
		for msg := range pubsub.Channel() {
			var change Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				log.Printf("Error decoding remote change: %v", err)
				continue
			}
			onChange(change)
		}
	}()
	return handle, nil
}

func (s *RedisStore) Unlisten(handle SubscriptionHandle) error {
	s.mu.Lock()
	pubsub, ok := s.pubsubs[handle]
	if ok {
		delete(s.pubsubs, handle)
	}
	s.mu.Unlock()
	if !ok {
		return apperrors.ErrNotFound
	}
	return pubsub.Close()
}
