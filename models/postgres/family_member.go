package postgres

import (
	"time"

	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

/*
 * 'FamilyMember' links a User to a Family with a role. Rows are never
 * hard-deleted once accepted: leaving a family flips IsActive off so the
 * membership history survives.
 */
type FamilyMember struct {
	ID       string        `gorm:"primaryKey;size:64;not null"`
	UserID   string        `gorm:"size:64;not null;index"`
	FamilyID string        `gorm:"size:64;not null;index"`
	Role     roadtrip.Role `gorm:"size:20;not null"`

	IsActive bool   `gorm:"default:false"`
	Status   string `gorm:"size:20;default:'pending';index"`

	InvitedBy *string `gorm:"size:64"`
	InvitedAt *time.Time
	JoinedAt  *time.Time

	NeedsSync    bool       `gorm:"default:true;index"`
	LastSyncedAt *time.Time
	CreatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time
}

func (m *FamilyMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = roadtrip.MemberStatusPending
	}
	return nil
}

// CountsTowardLimit: only active, accepted rows count for role limits
func (m *FamilyMember) CountsTowardLimit() bool {
	return m.IsActive && m.Status == roadtrip.MemberStatusAccepted
}
