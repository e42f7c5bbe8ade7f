package family

import (
	"errors"

	"github.com/ChrisHammers/LicensePlateApp-sub000/apperrors"
	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/permissions"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/session"
	"gorm.io/gorm"
)

// ActiveRole returns the caller's role in a family. Only active, accepted
// rows grant a role; everything else is ErrPermissionDenied.
func ActiveRole(tx *gorm.DB, userID, familyID string) (roadtrip.Role, error) {
	var member postgres.FamilyMember
	err := tx.Where("user_id = ? AND family_id = ? AND is_active = ? AND status = ?",
		userID, familyID, true, roadtrip.MemberStatusAccepted).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.ErrPermissionDenied
		}
		return "", err
	}
	return member.Role, nil
}

// requireAction checks the caller holds a role in the family that allows
// the action.
func requireAction(tx *gorm.DB, sess session.Session, familyID string, action roadtrip.Action) (roadtrip.Role, error) {
	role, err := ActiveRole(tx, sess.UserID, familyID)
	if err != nil {
		return "", err
	}
	if !permissions.CanPerform(role, action) {
		return "", apperrors.ErrPermissionDenied
	}
	return role, nil
}

// otherActiveMembership finds an active accepted row for the user in any
// family other than the given one. Used for the RetiredGeneral rule: only
// that role may hold accepted rows in multiple families.
func otherActiveMembership(tx *gorm.DB, userID, familyID string) (*postgres.FamilyMember, error) {
	var member postgres.FamilyMember
	err := tx.Where("user_id = ? AND family_id <> ? AND is_active = ? AND status = ?",
		userID, familyID, true, roadtrip.MemberStatusAccepted).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// CreateFamily creates a family with the caller as its first Captain.
func CreateFamily(db *gorm.DB, sess session.Session, name string) (*postgres.Family, error) {
	var created postgres.Family
	err := db.Transaction(func(tx *gorm.DB) error {
		var user postgres.User
		if err := tx.Where("id = ?", sess.UserID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}

		other, err := otherActiveMembership(tx, sess.UserID, "")
		if err != nil {
			return err
		}
		if other != nil {
			return apperrors.Invariant("user %s already belongs to family %s", sess.UserID, other.FamilyID)
		}

		family := postgres.Family{
			Name:        name,
			MaxCaptains: roadtrip.DefaultMaxCaptains,
			MaxScouts:   roadtrip.DefaultMaxScouts,
			NeedsSync:   true,
		}
		if err := tx.Create(&family).Error; err != nil {
			return err
		}

		now := tx.NowFunc()
		captain := postgres.FamilyMember{
			UserID:    sess.UserID,
			FamilyID:  family.ID,
			Role:      roadtrip.RoleCaptain,
			IsActive:  true,
			Status:    roadtrip.MemberStatusAccepted,
			JoinedAt:  &now,
			NeedsSync: true,
		}
		if err := tx.Create(&captain).Error; err != nil {
			return err
		}

		user.FamilyID = &family.ID
		user.NeedsSync = true
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		created = family
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateFamily renames a family or adjusts its role limits. Captain only.
func UpdateFamily(db *gorm.DB, sess session.Session, familyID string, name *string, maxCaptains, maxScouts *int) (*postgres.Family, error) {
	var updated postgres.Family
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := requireAction(tx, sess, familyID, roadtrip.ActionManageFamily); err != nil {
			return err
		}
		var family postgres.Family
		if err := tx.Where("id = ?", familyID).First(&family).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}
		if name != nil {
			family.Name = *name
		}
		if maxCaptains != nil {
			if *maxCaptains < 1 {
				return apperrors.Invariant("maxCaptains must be at least 1")
			}
			family.MaxCaptains = *maxCaptains
		}
		if maxScouts != nil {
			if *maxScouts < 0 {
				return apperrors.Invariant("maxScouts cannot be negative")
			}
			family.MaxScouts = *maxScouts
		}
		family.NeedsSync = true
		if err := tx.Save(&family).Error; err != nil {
			return err
		}
		updated = family
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// IsAtLimit reports whether the count of active accepted members holding
// the role has reached the family's soft limit. Roles without a limit are
// never at it.
func IsAtLimit(db *gorm.DB, familyID string, role roadtrip.Role) (bool, error) {
	var family postgres.Family
	if err := db.Where("id = ?", familyID).First(&family).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperrors.ErrNotFound
		}
		return false, err
	}

	var limit int
	switch role {
	case roadtrip.RoleCaptain:
		limit = family.MaxCaptains
	case roadtrip.RoleScout:
		limit = family.MaxScouts
	default:
		return false, nil
	}

	var count int64
	err := db.Model(&postgres.FamilyMember{}).
		Where("family_id = ? AND role = ? AND is_active = ? AND status = ?",
			familyID, role, true, roadtrip.MemberStatusAccepted).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count >= int64(limit), nil
}

// ListMembers returns every row of a family, history included.
func ListMembers(db *gorm.DB, familyID string) ([]postgres.FamilyMember, error) {
	var members []postgres.FamilyMember
	err := db.Where("family_id = ?", familyID).Order("created_at").Find(&members).Error
	return members, err
}

// RemoveMember deactivates a member's row. The row itself is never
// deleted; membership history is audit data.
func RemoveMember(db *gorm.DB, sess session.Session, familyID, targetUserID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if sess.UserID != targetUserID {
			if _, err := requireAction(tx, sess, familyID, roadtrip.ActionRemoveMembers); err != nil {
				return err
			}
		}
		return deactivate(tx, familyID, targetUserID)
	})
}

// LeaveFamily is RemoveMember on the caller's own row.
func LeaveFamily(db *gorm.DB, sess session.Session, familyID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		return deactivate(tx, familyID, sess.UserID)
	})
}

func deactivate(tx *gorm.DB, familyID, targetUserID string) error {
	var member postgres.FamilyMember
	err := tx.Where("user_id = ? AND family_id = ? AND is_active = ?",
		targetUserID, familyID, true).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return err
	}

	member.IsActive = false
	member.NeedsSync = true
	if err := tx.Save(&member).Error; err != nil {
		return err
	}

	// Clear the user's family reference if it pointed here
	var user postgres.User
	if err := tx.Where("id = ?", targetUserID).First(&user).Error; err == nil {
		if user.FamilyID != nil && *user.FamilyID == familyID {
			user.FamilyID = nil
			user.NeedsSync = true
			if err := tx.Save(&user).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
