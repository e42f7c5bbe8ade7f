package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/*
 * 'Family' is a persistent group of users. It owns its FamilyMember rows:
 * deleting a Family cascades. The share code stays null until a member
 * first requests one (services/sharecode).
 */
type Family struct {
	ID   string `gorm:"primaryKey;size:64;not null"`
	Name string `gorm:"size:100"`

	// Soft numeric limits for the privileged roles. Joins past the limit
	// are allowed; isAtLimit only drives the warning flag.
	MaxCaptains int `gorm:"default:2"`
	MaxScouts   int `gorm:"default:3"`

	ShareCode *string `gorm:"size:8;uniqueIndex"`

	Members []FamilyMember `gorm:"foreignKey:FamilyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	NeedsSync    bool       `gorm:"default:true;index"`
	LastSyncedAt *time.Time
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time
}

func (f *Family) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.MaxCaptains == 0 {
		f.MaxCaptains = 2
	}
	if f.MaxScouts == 0 {
		f.MaxScouts = 3
	}
	return nil
}
