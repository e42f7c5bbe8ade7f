package postgres

import (
	"time"

	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/*
 * 'Game' is an ad-hoc competition between teams. Lifecycle is
 * lobby (no StartedAt) -> active (StartedAt set) -> ended (EndedAt set).
 * It owns its GameTeam rows; deleting a Game cascades.
 */
type Game struct {
	ID          string `gorm:"primaryKey;size:64;not null"`
	Name        string `gorm:"size:100;not null"`
	Mode        string `gorm:"size:20;default:'competitive'"`
	ScoringType string `gorm:"size:20;default:'total_found'"`

	CreatorID string `gorm:"size:64;not null;index"`

	StartedAt *time.Time
	EndedAt   *time.Time

	MinTeamSize int  `gorm:"default:2"`
	MaxTeamSize *int

	// Per-plate value used when ScoringType is custom
	CustomPlatePoints int `gorm:"default:5"`

	ShareCode *string `gorm:"size:8;uniqueIndex"`

	// Non-empty subset of the fixed country enumeration, JSON array
	EnabledCountries datatypes.JSON `gorm:"type:jsonb;default:'[]'"`

	Teams []GameTeam `gorm:"foreignKey:GameID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	NeedsSync    bool       `gorm:"default:true;index"`
	LastSyncedAt *time.Time
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time
}

func (g *Game) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.MinTeamSize < roadtrip.MinTeamSizeFloor {
		g.MinTeamSize = roadtrip.MinTeamSizeFloor
	}
	if g.CustomPlatePoints == 0 {
		g.CustomPlatePoints = roadtrip.DefaultCustomPlatePoints
	}
	return nil
}

// IsActive: started and not yet ended
func (g *Game) IsActive() bool {
	return g.StartedAt != nil && g.EndedAt == nil
}

func (g *Game) HasEnded() bool {
	return g.EndedAt != nil
}

func (g *Game) CountryCodes() []string {
	return DecodeStringList(g.EnabledCountries)
}
