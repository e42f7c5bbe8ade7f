package game

import (
	"errors"

	"github.com/ChrisHammers/LicensePlateApp-sub000/apperrors"
	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/session"
	"gorm.io/gorm"
)

// CreateParams is the game creation payload
type CreateParams struct {
	Name              string
	Mode              string
	ScoringType       string
	MinTeamSize       int
	MaxTeamSize       *int
	CustomPlatePoints int
	Countries         []string
}

func validMode(mode string) bool {
	return mode == roadtrip.GameModeCompetitive || mode == roadtrip.GameModeCollaborative
}

func validScoringType(st string) bool {
	switch st {
	case roadtrip.ScoringTotalFound, roadtrip.ScoringUniqueFound,
		roadtrip.ScoringTimeBased, roadtrip.ScoringCustom:
		return true
	}
	return false
}

// CreateGame creates a game in the lobby state (no StartedAt)
func CreateGame(db *gorm.DB, sess session.Session, params CreateParams) (*postgres.Game, error) {
	if params.Name == "" {
		return nil, apperrors.Invariant("game name is required")
	}
	if params.Mode == "" {
		params.Mode = roadtrip.GameModeCompetitive
	}
	if !validMode(params.Mode) {
		return nil, apperrors.Invariant("unknown game mode %q", params.Mode)
	}
	if params.ScoringType == "" {
		params.ScoringType = roadtrip.ScoringTotalFound
	}
	if !validScoringType(params.ScoringType) {
		return nil, apperrors.Invariant("unknown scoring type %q", params.ScoringType)
	}
	if params.MinTeamSize < roadtrip.MinTeamSizeFloor {
		params.MinTeamSize = roadtrip.MinTeamSizeFloor
	}
	if params.MaxTeamSize != nil && *params.MaxTeamSize < params.MinTeamSize {
		return nil, apperrors.Invariant("maxTeamSize %d is below minTeamSize %d",
			*params.MaxTeamSize, params.MinTeamSize)
	}
	if len(params.Countries) == 0 {
		return nil, apperrors.Invariant("a game needs at least one enabled country")
	}
	for _, code := range params.Countries {
		if !roadtrip.IsValidCountry(code) {
			return nil, apperrors.Invariant("unknown country code %q", code)
		}
	}

	game := postgres.Game{
		Name:              params.Name,
		Mode:              params.Mode,
		ScoringType:       params.ScoringType,
		CreatorID:         sess.UserID,
		MinTeamSize:       params.MinTeamSize,
		MaxTeamSize:       params.MaxTeamSize,
		CustomPlatePoints: params.CustomPlatePoints,
		EnabledCountries:  postgres.EncodeStringList(params.Countries),
		NeedsSync:         true,
	}
	if err := db.Create(&game).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

// StartGame moves lobby -> active. Precondition (not an automatic fix):
// at least one team, and every team at or above MinTeamSize.
func StartGame(db *gorm.DB, sess session.Session, gameID string) (*postgres.Game, error) {
	var started postgres.Game
	err := db.Transaction(func(tx *gorm.DB) error {
		game, err := loadGame(tx, gameID)
		if err != nil {
			return err
		}
		if game.CreatorID != sess.UserID {
			return apperrors.ErrPermissionDenied
		}
		if game.StartedAt != nil {
			return apperrors.Invariant("game %s has already started", gameID)
		}

		var teams []postgres.GameTeam
		if err := tx.Where("game_id = ?", gameID).Find(&teams).Error; err != nil {
			return err
		}
		if len(teams) == 0 {
			return apperrors.Invariant("game %s has no teams", gameID)
		}
		for _, team := range teams {
			if team.Size() < game.MinTeamSize {
				return apperrors.Invariant("team %s has %d members, game requires %d",
					team.ID, team.Size(), game.MinTeamSize)
			}
		}

		now := tx.NowFunc()
		game.StartedAt = &now
		game.NeedsSync = true
		if err := tx.Save(game).Error; err != nil {
			return err
		}
		started = *game
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &started, nil
}

// EndGame moves active -> ended and writes each team's final score
func EndGame(db *gorm.DB, sess session.Session, gameID string) (*postgres.Game, error) {
	var ended postgres.Game
	err := db.Transaction(func(tx *gorm.DB) error {
		game, err := loadGame(tx, gameID)
		if err != nil {
			return err
		}
		if game.CreatorID != sess.UserID {
			return apperrors.ErrPermissionDenied
		}
		if game.StartedAt == nil {
			return apperrors.Invariant("game %s has not started", gameID)
		}
		if game.EndedAt != nil {
			return apperrors.Invariant("game %s has already ended", gameID)
		}

		now := tx.NowFunc()
		game.EndedAt = &now
		game.NeedsSync = true
		if err := tx.Save(game).Error; err != nil {
			return err
		}
		if err := recomputeScores(tx, game); err != nil {
			return err
		}
		ended = *game
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ended, nil
}

// RecomputeScores re-runs the score computation for every team. Safe to
// call repeatedly; the computation is a pure function of the trip data.
func RecomputeScores(db *gorm.DB, gameID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		game, err := loadGame(tx, gameID)
		if err != nil {
			return err
		}
		return recomputeScores(tx, game)
	})
}

func recomputeScores(tx *gorm.DB, game *postgres.Game) error {
	var teams []postgres.GameTeam
	if err := tx.Where("game_id = ?", game.ID).Find(&teams).Error; err != nil {
		return err
	}
	for i := range teams {
		trips, err := snapshotTrips(tx, teams[i].TripIDs)
		if err != nil {
			return err
		}
		score := ComputeScore(game.ScoringType, game.CustomPlatePoints, trips)
		if teams[i].Score != score {
			teams[i].Score = score
			teams[i].NeedsSync = true
			if err := tx.Save(&teams[i]).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func loadGame(tx *gorm.DB, gameID string) (*postgres.Game, error) {
	var game postgres.Game
	if err := tx.Where("id = ?", gameID).First(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &game, nil
}
