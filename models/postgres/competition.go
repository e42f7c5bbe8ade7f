package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/*
 * 'Competition' is a scheduled or ongoing contest with a leaderboard.
 * Entries are always kept sorted descending by score with a 1-based rank;
 * services/competition recomputes ranks on every score change.
 */
type Competition struct {
	ID          string `gorm:"primaryKey;size:64;not null"`
	Name        string `gorm:"size:100;not null"`
	Description string `gorm:"size:500"`
	Type        string `gorm:"size:20;default:'scheduled'"`

	StartsAt time.Time `gorm:"not null"`
	EndsAt   *time.Time

	Entries []LeaderboardEntry `gorm:"foreignKey:CompetitionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	NeedsSync    bool       `gorm:"default:true;index"`
	LastSyncedAt *time.Time
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time
}

func (c *Competition) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

/*
 * 'LeaderboardEntry' is one row on a competition leaderboard, scoped to
 * exactly one of user / family / team.
 */
type LeaderboardEntry struct {
	ID            string `gorm:"primaryKey;size:64;not null"`
	CompetitionID string `gorm:"size:64;not null;index"`

	Scope     string `gorm:"size:10;not null"`
	SubjectID string `gorm:"size:64;not null;index"`

	Score int `gorm:"default:0"`
	Rank  int `gorm:"default:0"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time
}

func (e *LeaderboardEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
