package sync

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/remote"
	"gorm.io/gorm"
)

/*
 * 'Reconciler' keeps the local store and the remote store converged.
 * Foreground mutations only flip needs_sync and return; the push loop
 * drains dirty rows to the remote store in the background, and the
 * per-family listener (listener.go) merges inbound remote changes with
 * last-writer-wins. Neither path ever blocks a caller on network I/O.
 */
type Reconciler struct {
	db       *gorm.DB
	remote   remote.Store
	interval time.Duration

	// Notify is called after a remote change has been applied locally
	// (socket fan-out to the family room). Optional.
	Notify func(change remote.Change)

	// OnConnectivity observes push results: true after a clean cycle,
	// false after remote errors. Drives the auth provider's online flag.
	OnConnectivity func(online bool)

	cancel context.CancelFunc
	done   chan struct{}
}

// NewReconciler builds a reconciler pushing every interval. The interval
// is also the retry rate limit: a failed push is simply picked up again
// one cycle later, never hammered immediately.
func NewReconciler(db *gorm.DB, store remote.Store, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Reconciler{db: db, remote: store, interval: interval}
}

// Start runs the push loop until Stop or context cancellation
func (r *Reconciler) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pushed, failed := r.RunCycle(ctx)
				if failed > 0 {
					log.Printf("Sync cycle: %d pushed, %d failed (will retry)", pushed, failed)
				}
				if r.OnConnectivity != nil {
					r.OnConnectivity(failed == 0)
				}
			}
		}
	}()
}

// Stop halts the push loop. An in-flight push is allowed to finish; it
// is idempotent by path.
func (r *Reconciler) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

// RunCycle scans every entity table for dirty rows and pushes them.
// Failed pushes keep needs_sync set; nothing is ever rolled back.
func (r *Reconciler) RunCycle(ctx context.Context) (pushed, failed int) {
	push := func(path string, entity interface{}, updatedAt time.Time, clear func() error) {
		doc, err := encodeDocument(entity)
		if err != nil {
			log.Printf("Error encoding %s: %v", path, err)
			failed++
			return
		}
		if err := r.remote.Put(ctx, path, doc, updatedAt); err != nil {
			failed++
			return
		}
		if err := clear(); err != nil {
			log.Printf("Error clearing dirty flag for %s: %v", path, err)
			failed++
			return
		}
		pushed++
	}

	now := time.Now()

	var users []postgres.User
	if err := r.db.Where("needs_sync = ?", true).Find(&users).Error; err == nil {
		for i := range users {
			u := users[i]
			push(UserPath(u.ID), &u, u.UpdatedAt, func() error {
				return r.clearDirty(&postgres.User{}, u.ID, u.UpdatedAt, now)
			})
		}
	}

	var families []postgres.Family
	if err := r.db.Where("needs_sync = ?", true).Find(&families).Error; err == nil {
		for i := range families {
			f := families[i]
			push(FamilyPath(f.ID), &f, f.UpdatedAt, func() error {
				return r.clearDirty(&postgres.Family{}, f.ID, f.UpdatedAt, now)
			})
		}
	}

	var members []postgres.FamilyMember
	if err := r.db.Where("needs_sync = ?", true).Find(&members).Error; err == nil {
		for i := range members {
			m := members[i]
			push(FamilyMemberPath(m.FamilyID, m.ID), &m, m.UpdatedAt, func() error {
				return r.clearDirty(&postgres.FamilyMember{}, m.ID, m.UpdatedAt, now)
			})
		}
	}

	var requests []postgres.FriendRequest
	if err := r.db.Where("needs_sync = ?", true).Find(&requests).Error; err == nil {
		for i := range requests {
			q := requests[i]
			push(FriendRequestPath(q.ID), &q, q.UpdatedAt, func() error {
				return r.clearDirty(&postgres.FriendRequest{}, q.ID, q.UpdatedAt, now)
			})
		}
	}

	var games []postgres.Game
	if err := r.db.Where("needs_sync = ?", true).Find(&games).Error; err == nil {
		for i := range games {
			g := games[i]
			push(GamePath(g.ID), &g, g.UpdatedAt, func() error {
				return r.clearDirty(&postgres.Game{}, g.ID, g.UpdatedAt, now)
			})
		}
	}

	var teams []postgres.GameTeam
	if err := r.db.Where("needs_sync = ?", true).Find(&teams).Error; err == nil {
		for i := range teams {
			t := teams[i]
			push(GameTeamPath(t.GameID, t.ID), &t, t.UpdatedAt, func() error {
				return r.clearDirty(&postgres.GameTeam{}, t.ID, t.UpdatedAt, now)
			})
		}
	}

	var competitions []postgres.Competition
	if err := r.db.Where("needs_sync = ?", true).Find(&competitions).Error; err == nil {
		for i := range competitions {
			c := competitions[i]
			push(CompetitionPath(c.ID), &c, c.UpdatedAt, func() error {
				return r.clearDirty(&postgres.Competition{}, c.ID, c.UpdatedAt, now)
			})
		}
	}

	var userTrips []postgres.Trip
	if err := r.db.Where("needs_sync = ?", true).Find(&userTrips).Error; err == nil {
		for i := range userTrips {
			t := userTrips[i]
			push(TripPath(t.ID), &t, t.UpdatedAt, func() error {
				return r.clearDirty(&postgres.Trip{}, t.ID, t.UpdatedAt, now)
			})
		}
	}

	return pushed, failed
}

// clearDirty confirms a push: needs_sync off, last_synced_at recorded.
// Guarded on the updated_at read at scan time: a foreground write landing
// between scan and clear keeps its dirty flag and goes out next cycle.
// UpdateColumns so the row's updated_at (the LWW timestamp) stays put.
func (r *Reconciler) clearDirty(model interface{}, id string, pushedAt, at time.Time) error {
	return r.db.Model(model).Where("id = ? AND updated_at = ?", id, pushedAt).
		UpdateColumns(map[string]interface{}{
			"needs_sync":     false,
			"last_synced_at": at,
		}).Error
}

// encodeDocument flattens an entity into the remote document shape
func encodeDocument(entity interface{}) (remote.Document, error) {
	raw, err := json.Marshal(entity)
	if err != nil {
		return nil, err
	}
	var doc remote.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	// Local bookkeeping never travels, and owned collections sync as
	// their own documents
	delete(doc, "NeedsSync")
	delete(doc, "LastSyncedAt")
	delete(doc, "Members")
	delete(doc, "Teams")
	delete(doc, "Entries")
	delete(doc, "Marks")
	return doc, nil
}
