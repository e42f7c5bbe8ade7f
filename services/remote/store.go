package remote

import (
	"context"
	"time"
)

// Document is the opaque key-value map the remote store persists
type Document map[string]interface{}

// Change is one remote change notification. UpdatedAt is the document's
// monotonic per-path timestamp; the reconciler uses it for
// last-writer-wins merging.
type Change struct {
	Path      string    `json:"path"`
	Document  Document  `json:"document"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubscriptionHandle identifies a live listener so it can be torn down
type SubscriptionHandle int

/*
 * 'Store' is the capability the core needs from the remote document
 * store. Put must be idempotent by path; Listen delivers at-least-once
 * change notifications. Everything else (what backs it, auth, retries)
 * is the implementation's business.
 */
type Store interface {
	Put(ctx context.Context, path string, doc Document, updatedAt time.Time) error
	Get(ctx context.Context, path string) (Document, time.Time, error)
	Listen(ctx context.Context, pathPrefix string, onChange func(Change)) (SubscriptionHandle, error)
	Unlisten(handle SubscriptionHandle) error
}
