package handlers

import (
	"context"
	"sync"

	"github.com/ChrisHammers/LicensePlateApp-sub000/services/remote"
)

// FamilyListener is the capability the feed needs from the sync
// reconciler: per-family remote-change subscriptions with explicit
// teardown.
type FamilyListener interface {
	ListenFamily(ctx context.Context, familyID string) (remote.SubscriptionHandle, error)
	StopListening(handle remote.SubscriptionHandle) error
}

// FeedSubscriptions refcounts one remote listener per family across all
// connected clients. The first client joining a family's feed opens the
// subscription; the last one leaving (or disconnecting) tears it down, so
// no listener outlives the family views it serves.
type FeedSubscriptions struct {
	mu       sync.Mutex
	listener FamilyListener
	families map[string]*familySubscription

	// families each client currently holds, for disconnect cleanup
	clients map[string]map[string]bool
}

type familySubscription struct {
	handle remote.SubscriptionHandle
	refs   int
}

func NewFeedSubscriptions(listener FamilyListener) *FeedSubscriptions {
	return &FeedSubscriptions{
		listener: listener,
		families: make(map[string]*familySubscription),
		clients:  make(map[string]map[string]bool),
	}
}

// Join registers a client on a family feed. Rejoining the same feed is a
// no-op, never a second reference.
func (f *FeedSubscriptions) Join(ctx context.Context, clientID, familyID string) error {
	if f.listener == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	held := f.clients[clientID]
	if held[familyID] {
		return nil
	}

	if sub, ok := f.families[familyID]; ok {
		sub.refs++
	} else {
		handle, err := f.listener.ListenFamily(ctx, familyID)
		if err != nil {
			return err
		}
		f.families[familyID] = &familySubscription{handle: handle, refs: 1}
	}

	if held == nil {
		held = make(map[string]bool)
		f.clients[clientID] = held
	}
	held[familyID] = true
	return nil
}

// Leave drops one client's reference; leaving a feed never joined is
// harmless.
func (f *FeedSubscriptions) Leave(clientID, familyID string) error {
	if f.listener == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.release(clientID, familyID)
}

// Drop releases everything a disconnecting client still holds
func (f *FeedSubscriptions) Drop(clientID string) error {
	if f.listener == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var firstErr error
	for familyID := range f.clients[clientID] {
		if err := f.release(clientID, familyID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// release must be called with the mutex held
func (f *FeedSubscriptions) release(clientID, familyID string) error {
	held := f.clients[clientID]
	if !held[familyID] {
		return nil
	}
	delete(held, familyID)
	if len(held) == 0 {
		delete(f.clients, clientID)
	}

	sub, ok := f.families[familyID]
	if !ok {
		return nil
	}
	sub.refs--
	if sub.refs > 0 {
		return nil
	}
	delete(f.families, familyID)
	return f.listener.StopListening(sub.handle)
}
