package users

import (
	"errors"

	"github.com/ChrisHammers/LicensePlateApp-sub000/apperrors"
	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	"gorm.io/gorm"
)

// ClaimIdentity migrates a local-only user ID to a provider-issued one.
// Allowed exactly once per user; every foreign-key reference to the old
// identifier is rewritten in the same transaction, JSON lists included.
// notify (usually the auth provider's claim event) fires after commit.
func ClaimIdentity(db *gorm.DB, localID, providerID string, notify func(oldID, newID string)) error {
	if localID == providerID {
		return apperrors.Invariant("identity %s is already the provider one", localID)
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		var user postgres.User
		if err := tx.Where("id = ?", localID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}
		if user.Claimed {
			return apperrors.Invariant("user %s has already claimed a provider identity", localID)
		}
		var taken postgres.User
		err := tx.Where("id = ?", providerID).First(&taken).Error
		if err == nil {
			return apperrors.Invariant("identity %s is already in use", providerID)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// Plain foreign-key columns
		updates := []struct {
			model  interface{}
			column string
		}{
			{&postgres.FamilyMember{}, "user_id"},
			{&postgres.FamilyMember{}, "invited_by"},
			{&postgres.FriendRequest{}, "from_user_id"},
			{&postgres.FriendRequest{}, "to_user_id"},
			{&postgres.FriendRequest{}, "approved_by"},
			{&postgres.Game{}, "creator_id"},
			{&postgres.GameTeam{}, "pilot_id"},
			{&postgres.Trip{}, "user_id"},
		}
		for _, u := range updates {
			if err := tx.Model(u.model).
				Where(u.column+" = ?", localID).
				Updates(map[string]interface{}{u.column: providerID, "needs_sync": true}).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&postgres.LeaderboardEntry{}).
			Where("scope = ? AND subject_id = ?", roadtrip.LeaderboardScopeUser, localID).
			Update("subject_id", providerID).Error; err != nil {
			return err
		}

		// Team member lists
		var teams []postgres.GameTeam
		if err := tx.Find(&teams).Error; err != nil {
			return err
		}
		for i := range teams {
			if !postgres.ListContains(teams[i].MemberIDs, localID) {
				continue
			}
			members := teams[i].Members()
			for j, m := range members {
				if m == localID {
					members[j] = providerID
				}
			}
			teams[i].MemberIDs = postgres.EncodeStringList(members)
			teams[i].NeedsSync = true
			if err := tx.Save(&teams[i]).Error; err != nil {
				return err
			}
		}

		// Other users' friend lists
		var others []postgres.User
		if err := tx.Where("id <> ?", localID).Find(&others).Error; err != nil {
			return err
		}
		for i := range others {
			if others[i].RemoveFriend(localID) {
				others[i].AddFriend(providerID)
				others[i].NeedsSync = true
				if err := tx.Save(&others[i]).Error; err != nil {
					return err
				}
			}
		}

		// Finally the user row itself. Primary key updates need an
		// explicit column update, not Save.
		return tx.Model(&postgres.User{}).Where("id = ?", localID).
			Updates(map[string]interface{}{
				"id":         providerID,
				"claimed":    true,
				"needs_sync": true,
			}).Error
	})
	if err != nil {
		return err
	}
	if notify != nil {
		notify(localID, providerID)
	}
	return nil
}
