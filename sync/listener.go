package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/remote"
	"gorm.io/gorm"
)

// ListenFamily subscribes to remote changes for one family: the family
// document and everything nested under it. The handle must be released
// with StopListening when the family view goes away; a leaked listener
// is a resource leak, not a minor inefficiency.
func (r *Reconciler) ListenFamily(ctx context.Context, familyID string) (remote.SubscriptionHandle, error) {
	return r.remote.Listen(ctx, FamilyPath(familyID), func(change remote.Change) {
		applied, err := r.Merge(change)
		if err != nil {
			log.Printf("Error merging remote change %s: %v", change.Path, err)
			return
		}
		if applied && r.Notify != nil {
			r.Notify(change)
		}
	})
}

// StopListening tears down a subscription
func (r *Reconciler) StopListening(handle remote.SubscriptionHandle) error {
	return r.remote.Unlisten(handle)
}

// Merge applies one inbound remote change with last-writer-wins: the
// remote document only overwrites local state when its timestamp is
// strictly newer. A dropped change is logged, never an error; the local
// pending push will eventually win.
func (r *Reconciler) Merge(change remote.Change) (applied bool, err error) {
	model, id, err := modelForPath(change.Path)
	if err != nil {
		return false, err
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		var meta struct {
			UpdatedAt time.Time
		}
		lookupErr := tx.Model(model).Select("updated_at").Where("id = ?", id).Take(&meta).Error
		notFound := errors.Is(lookupErr, gorm.ErrRecordNotFound)
		if lookupErr != nil && !notFound {
			return lookupErr
		}

		if !notFound && !change.UpdatedAt.After(meta.UpdatedAt) {
			log.Printf("Conflict dropped: remote %s at %s is not newer than local %s",
				change.Path, change.UpdatedAt.Format(time.RFC3339), meta.UpdatedAt.Format(time.RFC3339))
			return nil
		}

		if err := decodeDocument(change.Document, model); err != nil {
			return err
		}

		if notFound {
			if err := tx.Create(model).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Save(model).Error; err != nil {
				return err
			}
		}

		// The remote version is now the local truth: adopt its timestamp
		// and mark the row clean.
		now := time.Now()
		if err := tx.Model(model).Where("id = ?", id).
			UpdateColumns(map[string]interface{}{
				"updated_at":     change.UpdatedAt,
				"needs_sync":     false,
				"last_synced_at": now,
			}).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

// modelForPath maps a document path to an empty entity to merge into
func modelForPath(path string) (model interface{}, id string, err error) {
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 2 && parts[0] == "users":
		return &postgres.User{}, parts[1], nil
	case len(parts) == 2 && parts[0] == "families":
		return &postgres.Family{}, parts[1], nil
	case len(parts) == 4 && parts[0] == "families" && parts[2] == "members":
		return &postgres.FamilyMember{}, parts[3], nil
	case len(parts) == 2 && parts[0] == "friend_requests":
		return &postgres.FriendRequest{}, parts[1], nil
	case len(parts) == 2 && parts[0] == "games":
		return &postgres.Game{}, parts[1], nil
	case len(parts) == 4 && parts[0] == "games" && parts[2] == "teams":
		return &postgres.GameTeam{}, parts[3], nil
	case len(parts) == 2 && parts[0] == "competitions":
		return &postgres.Competition{}, parts[1], nil
	case len(parts) == 2 && parts[0] == "trips":
		return &postgres.Trip{}, parts[1], nil
	}
	return nil, "", fmt.Errorf("unrecognized document path %q", path)
}

func decodeDocument(doc remote.Document, into interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, into)
}
