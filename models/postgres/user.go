package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
 * 'User' is the local record for a player. The ID starts as a local-only
 * UUID and may be rewritten exactly once when the user claims a provider
 * identity (see services/users.ClaimIdentity).
 */
type User struct {
	ID           string `gorm:"primaryKey;size:64;not null"`
	Username     string `gorm:"size:50;not null;uniqueIndex"`
	Email        string `gorm:"size:100;uniqueIndex"`
	PasswordHash string `gorm:"size:255"`
	Phone        string `gorm:"size:30"`

	// Independent visibility flags for the contact fields
	EmailPublic bool `gorm:"default:false"`
	PhonePublic bool `gorm:"default:false"`

	// Family the user currently belongs to (nullable)
	FamilyID *string `gorm:"size:64;index"`

	// Friend identifiers, stored as a JSON array of user IDs
	Friends datatypes.JSON `gorm:"type:jsonb;default:'[]'"`

	// True once the ID has been migrated to a provider-issued identity
	Claimed bool `gorm:"default:false"`

	NeedsSync    bool       `gorm:"default:true;index"`
	LastSyncedAt *time.Time
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if len(u.Friends) == 0 {
		u.Friends = EncodeStringList(nil)
	}
	return nil
}

// FriendIDs decodes the JSON friend list
func (u *User) FriendIDs() []string {
	return DecodeStringList(u.Friends)
}

// AddFriend appends an identifier to the friend list exactly once.
// Returns true if the list changed.
func (u *User) AddFriend(id string) bool {
	friends := u.FriendIDs()
	for _, f := range friends {
		if f == id {
			return false
		}
	}
	u.Friends = EncodeStringList(append(friends, id))
	return true
}

// RemoveFriend drops an identifier from the friend list
func (u *User) RemoveFriend(id string) bool {
	friends := u.FriendIDs()
	out := friends[:0]
	removed := false
	for _, f := range friends {
		if f == id {
			removed = true
			continue
		}
		out = append(out, f)
	}
	if removed {
		u.Friends = EncodeStringList(out)
	}
	return removed
}
