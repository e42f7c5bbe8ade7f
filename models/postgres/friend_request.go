package postgres

import (
	"time"

	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

/*
 * 'FriendRequest' is a directed request from one user to another. At most
 * one outstanding (pending or requires_captain_approval) row may exist per
 * ordered (from, to) pair; the reverse pair is tracked independently.
 */
type FriendRequest struct {
	ID         string `gorm:"primaryKey;size:64;not null"`
	FromUserID string `gorm:"size:64;not null;index:idx_friend_requests_pair"`
	ToUserID   string `gorm:"size:64;not null;index:idx_friend_requests_pair"`

	Status string `gorm:"size:30;default:'pending';index"`

	// Set only when resolved through the captain-approval branch
	ApprovedBy *string `gorm:"size:64"`

	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP"`
	RespondedAt *time.Time

	NeedsSync    bool       `gorm:"default:true;index"`
	LastSyncedAt *time.Time
	UpdatedAt    time.Time
}

func (r *FriendRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = roadtrip.RequestStatusPending
	}
	return nil
}

// Outstanding: the request has not been resolved yet
func (r *FriendRequest) Outstanding() bool {
	return r.Status == roadtrip.RequestStatusPending ||
		r.Status == roadtrip.RequestStatusCaptainApproval
}
