package family

import (
	"errors"

	"github.com/ChrisHammers/LicensePlateApp-sub000/apperrors"
	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/session"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/sharecode"
	"gorm.io/gorm"
)

// validRole guards against roles that don't exist
func validRole(role roadtrip.Role) bool {
	for _, r := range roadtrip.AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// canJoin runs the membership invariants shared by directed invitations
// and share-code joins: no second active accepted row in this family, and
// only RetiredGeneral may span multiple families.
func canJoin(tx *gorm.DB, userID, familyID string, role roadtrip.Role) error {
	var existing postgres.FamilyMember
	err := tx.Where("user_id = ? AND family_id = ? AND is_active = ? AND status = ?",
		userID, familyID, true, roadtrip.MemberStatusAccepted).First(&existing).Error
	if err == nil {
		return apperrors.Invariant("user %s is already an active member of family %s", userID, familyID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if role != roadtrip.RoleRetiredGeneral {
		other, err := otherActiveMembership(tx, userID, familyID)
		if err != nil {
			return err
		}
		if other != nil {
			return apperrors.Invariant("user %s already belongs to family %s and is not a retired general",
				userID, other.FamilyID)
		}
	}
	return nil
}

// InviteMember creates a pending FamilyMember row for the target user.
// The invitation must be accepted before it grants anything.
func InviteMember(db *gorm.DB, sess session.Session, familyID, targetUserID string, role roadtrip.Role) (*postgres.FamilyMember, error) {
	if !validRole(role) {
		return nil, apperrors.Invariant("unknown role %q", role)
	}
	var created postgres.FamilyMember
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := requireAction(tx, sess, familyID, roadtrip.ActionInviteToFamily); err != nil {
			return err
		}

		var target postgres.User
		if err := tx.Where("id = ?", targetUserID).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}

		// One outstanding invitation per (user, family)
		var pending postgres.FamilyMember
		err := tx.Where("user_id = ? AND family_id = ? AND status = ?",
			targetUserID, familyID, roadtrip.MemberStatusPending).First(&pending).Error
		if err == nil {
			return apperrors.Invariant("user %s already has a pending invitation to family %s", targetUserID, familyID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := canJoin(tx, targetUserID, familyID, role); err != nil {
			return err
		}

		now := tx.NowFunc()
		inviter := sess.UserID
		member := postgres.FamilyMember{
			UserID:    targetUserID,
			FamilyID:  familyID,
			Role:      role,
			IsActive:  false,
			Status:    roadtrip.MemberStatusPending,
			InvitedBy: &inviter,
			InvitedAt: &now,
			NeedsSync: true,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		created = member
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// AcceptInvitation moves a pending row to accepted and activates it.
// Accepting an already-accepted row is a no-op; a declined row stays
// declined.
func AcceptInvitation(db *gorm.DB, sess session.Session, memberID string) (*postgres.FamilyMember, error) {
	var accepted postgres.FamilyMember
	err := db.Transaction(func(tx *gorm.DB) error {
		var member postgres.FamilyMember
		if err := tx.Where("id = ?", memberID).First(&member).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}
		if member.UserID != sess.UserID {
			return apperrors.ErrPermissionDenied
		}

		switch member.Status {
		case roadtrip.MemberStatusAccepted:
			accepted = member
			return nil
		case roadtrip.MemberStatusDeclined:
			return apperrors.Invariant("invitation %s was already declined", memberID)
		}

		if err := canJoin(tx, member.UserID, member.FamilyID, member.Role); err != nil {
			return err
		}

		now := tx.NowFunc()
		member.Status = roadtrip.MemberStatusAccepted
		member.IsActive = true
		member.JoinedAt = &now
		member.NeedsSync = true
		if err := tx.Save(&member).Error; err != nil {
			return err
		}

		if err := setUserFamily(tx, member.UserID, member.FamilyID); err != nil {
			return err
		}
		accepted = member
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &accepted, nil
}

// DeclineInvitation moves a pending row to declined. Terminal: the same
// row can never be accepted later.
func DeclineInvitation(db *gorm.DB, sess session.Session, memberID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var member postgres.FamilyMember
		if err := tx.Where("id = ?", memberID).First(&member).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}
		if member.UserID != sess.UserID {
			return apperrors.ErrPermissionDenied
		}

		switch member.Status {
		case roadtrip.MemberStatusDeclined:
			return nil
		case roadtrip.MemberStatusAccepted:
			return apperrors.Invariant("invitation %s was already accepted", memberID)
		}

		member.Status = roadtrip.MemberStatusDeclined
		member.IsActive = false
		member.NeedsSync = true
		return tx.Save(&member).Error
	})
}

// JoinViaShareCode creates the membership directly as accepted+active:
// possession of the code substitutes for approval. Role limits are soft,
// so the join proceeds even at the limit; atLimit tells the caller to
// show the warning.
func JoinViaShareCode(db *gorm.DB, sess session.Session, code string, role roadtrip.Role) (member *postgres.FamilyMember, atLimit bool, err error) {
	if !validRole(role) {
		return nil, false, apperrors.Invariant("unknown role %q", role)
	}

	res, err := sharecode.Resolve(db, code)
	if err != nil {
		return nil, false, err
	}
	if res.Family == nil {
		return nil, false, apperrors.ErrNotFound
	}
	familyID := res.Family.ID

	atLimit, err = IsAtLimit(db, familyID, role)
	if err != nil {
		return nil, false, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := canJoin(tx, sess.UserID, familyID, role); err != nil {
			return err
		}

		now := tx.NowFunc()
		row := postgres.FamilyMember{
			UserID:    sess.UserID,
			FamilyID:  familyID,
			Role:      role,
			IsActive:  true,
			Status:    roadtrip.MemberStatusAccepted,
			JoinedAt:  &now,
			NeedsSync: true,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if err := setUserFamily(tx, sess.UserID, familyID); err != nil {
			return err
		}
		member = &row
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return member, atLimit, nil
}

func setUserFamily(tx *gorm.DB, userID, familyID string) error {
	var user postgres.User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		return err
	}
	user.FamilyID = &familyID
	user.NeedsSync = true
	return tx.Save(&user).Error
}
