package remote

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ChrisHammers/LicensePlateApp-sub000/apperrors"
)

// MemoryStore is an in-process Store used by the sync tests and when the
// app runs without a configured Redis. Same contract as RedisStore.
type MemoryStore struct {
	mu        sync.Mutex
	docs      map[string]storedDoc
	nextID    SubscriptionHandle
	listeners map[SubscriptionHandle]*memoryListener

	// FailPuts makes Put return a sync failure; tests use it to simulate
	// an offline remote.
	FailPuts bool

	// PutCount counts attempts, failed ones included
	PutCount int
}

type memoryListener struct {
	prefix   string
	onChange func(Change)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:      make(map[string]storedDoc),
		nextID:    1,
		listeners: make(map[SubscriptionHandle]*memoryListener),
	}
}

func (s *MemoryStore) Put(ctx context.Context, path string, doc Document, updatedAt time.Time) error {
	s.mu.Lock()
	s.PutCount++
	if s.FailPuts {
		s.mu.Unlock()
		return apperrors.ErrSyncFailure
	}
	s.docs[path] = storedDoc{Document: doc, UpdatedAt: updatedAt}
	var notify []*memoryListener
	for _, l := range s.listeners {
		if strings.HasPrefix(path, l.prefix) {
			notify = append(notify, l)
		}
	}
	s.mu.Unlock()

	for _, l := range notify {
		l.onChange(Change{Path: path, Document: doc, UpdatedAt: updatedAt})
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, path string) (Document, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.docs[path]
	if !ok {
		return nil, time.Time{}, apperrors.ErrNotFound
	}
	return stored.Document, stored.UpdatedAt, nil
}

func (s *MemoryStore) Listen(ctx context.Context, pathPrefix string, onChange func(Change)) (SubscriptionHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle := s.nextID
	s.nextID++
	s.listeners[handle] = &memoryListener{prefix: pathPrefix, onChange: onChange}
	return handle, nil
}

func (s *MemoryStore) Unlisten(handle SubscriptionHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listeners[handle]; !ok {
		return apperrors.ErrNotFound
	}
	delete(s.listeners, handle)
	return nil
}

// Inject delivers a fabricated remote change to matching listeners, the
// way a write from another device would arrive.
func (s *MemoryStore) Inject(change Change) {
	s.mu.Lock()
	s.docs[change.Path] = storedDoc{Document: change.Document, UpdatedAt: change.UpdatedAt}
	var notify []*memoryListener
	for _, l := range s.listeners {
		if strings.HasPrefix(change.Path, l.prefix) {
			notify = append(notify, l)
		}
	}
	s.mu.Unlock()
	for _, l := range notify {
		l.onChange(change)
	}
}

// ListenerCount reports live subscriptions (leak checking in tests)
func (s *MemoryStore) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}
