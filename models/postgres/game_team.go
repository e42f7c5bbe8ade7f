package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
 * 'GameTeam' is a roster inside a Game. The pilot is tracked separately
 * from the member list; AllMembers() = members + pilot. A team that
 * becomes empty is hard-deleted from the game (no audit value, unlike
 * FamilyMember rows).
 */
type GameTeam struct {
	ID     string  `gorm:"primaryKey;size:64;not null"`
	GameID string  `gorm:"size:64;not null;index"`
	Name   *string `gorm:"size:100"`

	// Exactly one pilot per team, never absent
	PilotID string `gorm:"size:64;not null"`

	// Member user IDs, excluding the pilot
	MemberIDs datatypes.JSON `gorm:"type:jsonb;default:'[]'"`

	// Trips whose plate marks feed this team's score
	TripIDs datatypes.JSON `gorm:"type:jsonb;default:'[]'"`

	Score int `gorm:"default:0"`

	NeedsSync    bool       `gorm:"default:true;index"`
	LastSyncedAt *time.Time
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time
}

func (t *GameTeam) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if len(t.MemberIDs) == 0 {
		t.MemberIDs = EncodeStringList(nil)
	}
	if len(t.TripIDs) == 0 {
		t.TripIDs = EncodeStringList(nil)
	}
	return nil
}

// Members decodes the member list (pilot excluded)
func (t *GameTeam) Members() []string {
	return DecodeStringList(t.MemberIDs)
}

// AllMembers is the member list plus the pilot
func (t *GameTeam) AllMembers() []string {
	return append(t.Members(), t.PilotID)
}

// HasMember reports whether the user is on the team, pilot included
func (t *GameTeam) HasMember(userID string) bool {
	if userID == t.PilotID {
		return true
	}
	return ListContains(t.MemberIDs, userID)
}

func (t *GameTeam) Size() int {
	return len(t.Members()) + 1
}
