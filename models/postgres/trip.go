package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
 * 'Trip' is a road trip during which plates are marked. Games score teams
 * against snapshots of the trips their members associate with the team.
 */
type Trip struct {
	ID     string `gorm:"primaryKey;size:64;not null"`
	UserID string `gorm:"size:64;not null;index"`
	Name   string `gorm:"size:100"`

	// Countries the trip crosses, JSON array of codes
	Countries datatypes.JSON `gorm:"type:jsonb;default:'[]'"`

	StartedAt time.Time `gorm:"not null"`
	EndedAt   *time.Time

	Marks []PlateMark `gorm:"foreignKey:TripID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	NeedsSync    bool       `gorm:"default:true;index"`
	LastSyncedAt *time.Time
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time
}

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.StartedAt.IsZero() {
		t.StartedAt = time.Now()
	}
	return nil
}

/*
 * 'PlateMark' records one license plate sighting on a trip.
 */
type PlateMark struct {
	ID      string    `gorm:"primaryKey;size:64;not null"`
	TripID  string    `gorm:"size:64;not null;index"`
	Country string    `gorm:"size:2;not null"`
	SeenAt  time.Time `gorm:"not null"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`
}

func (m *PlateMark) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.SeenAt.IsZero() {
		m.SeenAt = time.Now()
	}
	return nil
}
