package game

import (
	"errors"

	"github.com/ChrisHammers/LicensePlateApp-sub000/apperrors"
	"github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/session"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateTeam adds a team to a game with the caller as pilot
func CreateTeam(db *gorm.DB, sess session.Session, gameID string, name *string) (*postgres.GameTeam, error) {
	var created postgres.GameTeam
	err := db.Transaction(func(tx *gorm.DB) error {
		game, err := loadGame(tx, gameID)
		if err != nil {
			return err
		}
		if game.HasEnded() {
			return apperrors.Invariant("game %s has ended", gameID)
		}
		if onTeam, err := userTeam(tx, gameID, sess.UserID); err != nil {
			return err
		} else if onTeam != nil {
			return apperrors.Invariant("user %s is already on team %s", sess.UserID, onTeam.ID)
		}

		team := postgres.GameTeam{
			GameID:    gameID,
			Name:      name,
			PilotID:   sess.UserID,
			NeedsSync: true,
		}
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		created = team
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// AddMember puts a user on the team's member list. Adding someone already
// on the team is a no-op; an ended game rejects roster changes.
func AddMember(db *gorm.DB, sess session.Session, teamID, userID string) (*postgres.GameTeam, error) {
	var updated postgres.GameTeam
	err := db.Transaction(func(tx *gorm.DB) error {
		team, err := loadTeam(tx, teamID)
		if err != nil {
			return err
		}
		game, err := loadGame(tx, team.GameID)
		if err != nil {
			return err
		}
		if game.HasEnded() {
			return apperrors.Invariant("game %s has ended", game.ID)
		}
		// Pilots manage their roster; anyone may add themselves
		if sess.UserID != team.PilotID && sess.UserID != userID {
			return apperrors.ErrPermissionDenied
		}

		if team.HasMember(userID) {
			updated = *team
			return nil
		}
		if other, err := userTeam(tx, team.GameID, userID); err != nil {
			return err
		} else if other != nil {
			return apperrors.Invariant("user %s is already on team %s", userID, other.ID)
		}
		if game.MaxTeamSize != nil && team.Size() >= *game.MaxTeamSize {
			return apperrors.Invariant("team %s is full (max %d)", teamID, *game.MaxTeamSize)
		}

		team.MemberIDs = postgres.EncodeStringList(append(team.Members(), userID))
		team.NeedsSync = true
		if err := tx.Save(team).Error; err != nil {
			return err
		}
		updated = *team
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// RemoveMember takes a user off the member list. The current pilot cannot
// be removed; transfer the pilot first.
func RemoveMember(db *gorm.DB, sess session.Session, teamID, userID string) (*postgres.GameTeam, error) {
	var updated postgres.GameTeam
	err := db.Transaction(func(tx *gorm.DB) error {
		team, err := loadTeam(tx, teamID)
		if err != nil {
			return err
		}
		if sess.UserID != team.PilotID && sess.UserID != userID {
			return apperrors.ErrPermissionDenied
		}
		if userID == team.PilotID {
			return apperrors.Invariant("cannot remove the pilot of team %s; transfer the pilot first", teamID)
		}
		if !team.HasMember(userID) {
			return apperrors.ErrNotFound
		}

		team.MemberIDs = removeFromList(team.MemberIDs, userID)
		team.NeedsSync = true
		if err := tx.Save(team).Error; err != nil {
			return err
		}
		updated = *team
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ChangePilot reassigns the pilot atomically: the old pilot joins the
// member list, the new pilot leaves it. A failed precondition leaves the
// team untouched; afterwards there is always exactly one pilot.
func ChangePilot(db *gorm.DB, sess session.Session, teamID, newPilotID string) (*postgres.GameTeam, error) {
	var updated postgres.GameTeam
	err := db.Transaction(func(tx *gorm.DB) error {
		team, err := loadTeam(tx, teamID)
		if err != nil {
			return err
		}
		if sess.UserID != team.PilotID {
			return apperrors.ErrPermissionDenied
		}
		if newPilotID == team.PilotID {
			updated = *team
			return nil
		}
		if !team.HasMember(newPilotID) {
			return apperrors.Invariant("user %s is not on team %s", newPilotID, teamID)
		}

		members := removeFromListSlice(team.Members(), newPilotID)
		members = append(members, team.PilotID)
		team.PilotID = newPilotID
		team.MemberIDs = postgres.EncodeStringList(members)
		team.NeedsSync = true
		if err := tx.Save(team).Error; err != nil {
			return err
		}
		updated = *team
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// LeaveGame removes the caller from whatever team they are on. A leaving
// pilot hands the seat to the first remaining member; a team left empty
// is hard-deleted (empty teams carry no audit value).
func LeaveGame(db *gorm.DB, sess session.Session, gameID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		team, err := userTeam(tx, gameID, sess.UserID)
		if err != nil {
			return err
		}
		if team == nil {
			return apperrors.ErrNotFound
		}

		if sess.UserID == team.PilotID {
			members := team.Members()
			if len(members) == 0 {
				return tx.Delete(&postgres.GameTeam{}, "id = ?", team.ID).Error
			}
			// Deterministic choice: first remaining member
			team.PilotID = members[0]
			team.MemberIDs = postgres.EncodeStringList(members[1:])
		} else {
			team.MemberIDs = removeFromList(team.MemberIDs, sess.UserID)
		}
		team.NeedsSync = true
		return tx.Save(team).Error
	})
}

// AttachTrip associates one of the caller's trips with their team so it
// feeds the team's score.
func AttachTrip(db *gorm.DB, sess session.Session, teamID, tripID string) (*postgres.GameTeam, error) {
	var updated postgres.GameTeam
	err := db.Transaction(func(tx *gorm.DB) error {
		team, err := loadTeam(tx, teamID)
		if err != nil {
			return err
		}
		if !team.HasMember(sess.UserID) {
			return apperrors.ErrPermissionDenied
		}
		var trip postgres.Trip
		if err := tx.Where("id = ?", tripID).First(&trip).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}
		if trip.UserID != sess.UserID {
			return apperrors.ErrPermissionDenied
		}
		if postgres.ListContains(team.TripIDs, tripID) {
			updated = *team
			return nil
		}
		team.TripIDs = postgres.EncodeStringList(append(postgres.DecodeStringList(team.TripIDs), tripID))
		team.NeedsSync = true
		if err := tx.Save(team).Error; err != nil {
			return err
		}
		updated = *team
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListTeams returns a game's teams in creation order
func ListTeams(db *gorm.DB, gameID string) ([]postgres.GameTeam, error) {
	var teams []postgres.GameTeam
	err := db.Where("game_id = ?", gameID).Order("created_at").Find(&teams).Error
	return teams, err
}

func loadTeam(tx *gorm.DB, teamID string) (*postgres.GameTeam, error) {
	var team postgres.GameTeam
	if err := tx.Where("id = ?", teamID).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &team, nil
}

// userTeam finds the team within a game that has the user as pilot or
// member, nil if none.
func userTeam(tx *gorm.DB, gameID, userID string) (*postgres.GameTeam, error) {
	var teams []postgres.GameTeam
	if err := tx.Where("game_id = ?", gameID).Find(&teams).Error; err != nil {
		return nil, err
	}
	for i := range teams {
		if teams[i].HasMember(userID) {
			return &teams[i], nil
		}
	}
	return nil, nil
}

func removeFromList(raw datatypes.JSON, value string) datatypes.JSON {
	return postgres.EncodeStringList(removeFromListSlice(postgres.DecodeStringList(raw), value))
}

func removeFromListSlice(list []string, value string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}
