package friends

import (
	"errors"

	"github.com/ChrisHammers/LicensePlateApp-sub000/apperrors"
	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	familysvc "github.com/ChrisHammers/LicensePlateApp-sub000/services/family"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/permissions"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/session"
	"gorm.io/gorm"
)

// scoutMembership returns the target's active accepted Scout row, if any.
// A Scout's incoming requests need captain approval.
func scoutMembership(tx *gorm.DB, userID string) (*postgres.FamilyMember, error) {
	var member postgres.FamilyMember
	err := tx.Where("user_id = ? AND role = ? AND is_active = ? AND status = ?",
		userID, roadtrip.RoleScout, true, roadtrip.MemberStatusAccepted).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// SendRequest creates a friend request from the caller to another user.
// If the target is a Scout the request enters the captain-approval branch
// instead of pending. At most one outstanding request per ordered pair.
func SendRequest(db *gorm.DB, sess session.Session, toUserID string) (*postgres.FriendRequest, error) {
	if sess.UserID == toUserID {
		return nil, apperrors.Invariant("cannot send a friend request to yourself")
	}
	var created postgres.FriendRequest
	err := db.Transaction(func(tx *gorm.DB) error {
		var from, to postgres.User
		if err := tx.Where("id = ?", sess.UserID).First(&from).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}
		if err := tx.Where("id = ?", toUserID).First(&to).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}

		for _, f := range from.FriendIDs() {
			if f == toUserID {
				return apperrors.Invariant("users %s and %s are already friends", sess.UserID, toUserID)
			}
		}

		// One outstanding request per ordered (from, to) pair; the
		// reverse direction is a distinct relationship.
		var existing postgres.FriendRequest
		err := tx.Where("from_user_id = ? AND to_user_id = ? AND status IN ?",
			sess.UserID, toUserID,
			[]string{roadtrip.RequestStatusPending, roadtrip.RequestStatusCaptainApproval}).
			First(&existing).Error
		if err == nil {
			return apperrors.ErrDuplicateRequest
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		status := roadtrip.RequestStatusPending
		scout, err := scoutMembership(tx, toUserID)
		if err != nil {
			return err
		}
		if scout != nil {
			status = roadtrip.RequestStatusCaptainApproval
		}

		request := postgres.FriendRequest{
			FromUserID: sess.UserID,
			ToUserID:   toUserID,
			Status:     status,
			NeedsSync:  true,
		}
		if err := tx.Create(&request).Error; err != nil {
			return err
		}
		created = request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Respond resolves a request. Pending requests are resolved by the
// recipient; captain-approval requests only by a Captain of the
// recipient's family, who is recorded in ApprovedBy. Re-approving an
// already approved pair is a no-op.
func Respond(db *gorm.DB, sess session.Session, requestID string, approve bool) (*postgres.FriendRequest, error) {
	var resolved postgres.FriendRequest
	err := db.Transaction(func(tx *gorm.DB) error {
		var request postgres.FriendRequest
		if err := tx.Where("id = ?", requestID).First(&request).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}

		switch request.Status {
		case roadtrip.RequestStatusApproved:
			// Terminal; a replayed approval must not duplicate friends
			resolved = request
			return nil
		case roadtrip.RequestStatusDenied:
			return apperrors.Invariant("request %s was already denied", requestID)
		}

		var delegated bool
		switch request.Status {
		case roadtrip.RequestStatusPending:
			if request.ToUserID != sess.UserID {
				return apperrors.ErrPermissionDenied
			}
		case roadtrip.RequestStatusCaptainApproval:
			scout, err := scoutMembership(tx, request.ToUserID)
			if err != nil {
				return err
			}
			if scout == nil {
				// Target lost the scout role meanwhile; fall back to the
				// recipient resolving their own request
				if request.ToUserID != sess.UserID {
					return apperrors.ErrPermissionDenied
				}
			} else {
				role, err := familysvc.ActiveRole(tx, sess.UserID, scout.FamilyID)
				if err != nil {
					return err
				}
				if !permissions.CanPerform(role, roadtrip.ActionApproveFriendRequest) {
					return apperrors.ErrPermissionDenied
				}
				delegated = true
			}
		}

		now := tx.NowFunc()
		request.RespondedAt = &now
		if delegated {
			approver := sess.UserID
			request.ApprovedBy = &approver
		}
		if approve {
			request.Status = roadtrip.RequestStatusApproved
			if err := befriend(tx, request.FromUserID, request.ToUserID); err != nil {
				return err
			}
		} else {
			request.Status = roadtrip.RequestStatusDenied
		}
		request.NeedsSync = true
		if err := tx.Save(&request).Error; err != nil {
			return err
		}
		resolved = request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resolved, nil
}

// befriend adds each user to the other's friend list exactly once
func befriend(tx *gorm.DB, aID, bID string) error {
	var a, b postgres.User
	if err := tx.Where("id = ?", aID).First(&a).Error; err != nil {
		return err
	}
	if err := tx.Where("id = ?", bID).First(&b).Error; err != nil {
		return err
	}
	if a.AddFriend(bID) {
		a.NeedsSync = true
		if err := tx.Save(&a).Error; err != nil {
			return err
		}
	}
	if b.AddFriend(aID) {
		b.NeedsSync = true
		if err := tx.Save(&b).Error; err != nil {
			return err
		}
	}
	return nil
}

// ListFriends returns the user's friends as user records
func ListFriends(db *gorm.DB, userID string) ([]postgres.User, error) {
	var user postgres.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	ids := user.FriendIDs()
	if len(ids) == 0 {
		return []postgres.User{}, nil
	}
	var friends []postgres.User
	if err := db.Where("id IN ?", ids).Find(&friends).Error; err != nil {
		return nil, err
	}
	return friends, nil
}

// ListReceived returns outstanding requests addressed to the user
func ListReceived(db *gorm.DB, userID string) ([]postgres.FriendRequest, error) {
	var requests []postgres.FriendRequest
	err := db.Where("to_user_id = ? AND status IN ?", userID,
		[]string{roadtrip.RequestStatusPending, roadtrip.RequestStatusCaptainApproval}).
		Order("created_at").Find(&requests).Error
	return requests, err
}

// ListSent returns outstanding requests the user has sent
func ListSent(db *gorm.DB, userID string) ([]postgres.FriendRequest, error) {
	var requests []postgres.FriendRequest
	err := db.Where("from_user_id = ? AND status IN ?", userID,
		[]string{roadtrip.RequestStatusPending, roadtrip.RequestStatusCaptainApproval}).
		Order("created_at").Find(&requests).Error
	return requests, err
}

// PendingCaptainApprovals lists requests a captain can resolve: requests
// targeting scouts of the given family.
func PendingCaptainApprovals(db *gorm.DB, familyID string) ([]postgres.FriendRequest, error) {
	var scouts []postgres.FamilyMember
	err := db.Where("family_id = ? AND role = ? AND is_active = ? AND status = ?",
		familyID, roadtrip.RoleScout, true, roadtrip.MemberStatusAccepted).Find(&scouts).Error
	if err != nil {
		return nil, err
	}
	if len(scouts) == 0 {
		return []postgres.FriendRequest{}, nil
	}
	ids := make([]string, 0, len(scouts))
	for _, s := range scouts {
		ids = append(ids, s.UserID)
	}
	var requests []postgres.FriendRequest
	err = db.Where("to_user_id IN ? AND status = ?", ids, roadtrip.RequestStatusCaptainApproval).
		Order("created_at").Find(&requests).Error
	return requests, err
}
