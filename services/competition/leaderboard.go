package competition

import (
	"errors"
	"sort"
	"time"

	"github.com/ChrisHammers/LicensePlateApp-sub000/apperrors"
	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/session"
	"gorm.io/gorm"
)

// CreateParams is the competition creation payload
type CreateParams struct {
	Name        string
	Description string
	Type        string
	StartsAt    time.Time
	EndsAt      *time.Time
}

func CreateCompetition(db *gorm.DB, sess session.Session, params CreateParams) (*postgres.Competition, error) {
	if params.Name == "" {
		return nil, apperrors.Invariant("competition name is required")
	}
	if params.Type == "" {
		params.Type = roadtrip.CompetitionScheduled
	}
	if params.Type != roadtrip.CompetitionScheduled && params.Type != roadtrip.CompetitionOngoing {
		return nil, apperrors.Invariant("unknown competition type %q", params.Type)
	}
	if params.StartsAt.IsZero() {
		return nil, apperrors.Invariant("competition start time is required")
	}
	if params.EndsAt != nil && params.EndsAt.Before(params.StartsAt) {
		return nil, apperrors.Invariant("competition cannot end before it starts")
	}

	comp := postgres.Competition{
		Name:        params.Name,
		Description: params.Description,
		Type:        params.Type,
		StartsAt:    params.StartsAt,
		EndsAt:      params.EndsAt,
		NeedsSync:   true,
	}
	if err := db.Create(&comp).Error; err != nil {
		return nil, err
	}
	return &comp, nil
}

func validScope(scope string) bool {
	switch scope {
	case roadtrip.LeaderboardScopeUser, roadtrip.LeaderboardScopeFamily, roadtrip.LeaderboardScopeTeam:
		return true
	}
	return false
}

// UpsertScore writes a subject's score and recomputes every rank. Ranks
// are never drifted incrementally; the whole board is re-sorted on each
// update so rank is always the 1-based position by descending score.
func UpsertScore(db *gorm.DB, competitionID, scope, subjectID string, score int) error {
	if !validScope(scope) {
		return apperrors.Invariant("unknown leaderboard scope %q", scope)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		var comp postgres.Competition
		if err := tx.Where("id = ?", competitionID).First(&comp).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}

		var entry postgres.LeaderboardEntry
		err := tx.Where("competition_id = ? AND scope = ? AND subject_id = ?",
			competitionID, scope, subjectID).First(&entry).Error
		switch {
		case err == nil:
			entry.Score = score
			if err := tx.Save(&entry).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			entry = postgres.LeaderboardEntry{
				CompetitionID: competitionID,
				Scope:         scope,
				SubjectID:     subjectID,
				Score:         score,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		default:
			return err
		}

		if err := recomputeRanks(tx, competitionID); err != nil {
			return err
		}

		comp.NeedsSync = true
		return tx.Save(&comp).Error
	})
}

// Leaderboard returns the entries ordered by rank
func Leaderboard(db *gorm.DB, competitionID string) ([]postgres.LeaderboardEntry, error) {
	var comp postgres.Competition
	if err := db.Where("id = ?", competitionID).First(&comp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	var entries []postgres.LeaderboardEntry
	err := db.Where("competition_id = ?", competitionID).Order("rank").Find(&entries).Error
	return entries, err
}

func recomputeRanks(tx *gorm.DB, competitionID string) error {
	var entries []postgres.LeaderboardEntry
	if err := tx.Where("competition_id = ?", competitionID).Find(&entries).Error; err != nil {
		return err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	for i := range entries {
		rank := i + 1
		if entries[i].Rank != rank {
			entries[i].Rank = rank
			if err := tx.Save(&entries[i]).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
