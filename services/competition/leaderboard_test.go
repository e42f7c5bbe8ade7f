package competition

import (
	"testing"
	"time"

	"github.com/ChrisHammers/LicensePlateApp-sub000/apperrors"
	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&postgres.Competition{}, &postgres.LeaderboardEntry{}))
	return db
}

func mkCompetition(t *testing.T, db *gorm.DB, name string) *postgres.Competition {
	t.Helper()
	comp, err := CreateCompetition(db, session.New("organizer", true), CreateParams{
		Name:     name,
		Type:     roadtrip.CompetitionOngoing,
		StartsAt: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return comp
}

func TestCreateCompetitionValidation(t *testing.T) {
	db := setupTestDB(t)
	sess := session.New("organizer", true)
	starts := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := CreateCompetition(db, sess, CreateParams{StartsAt: starts})
	assert.True(t, apperrors.IsInvariant(err))

	_, err = CreateCompetition(db, sess, CreateParams{Name: "Summer", Type: "weekly", StartsAt: starts})
	assert.True(t, apperrors.IsInvariant(err))

	_, err = CreateCompetition(db, sess, CreateParams{Name: "Summer"})
	assert.True(t, apperrors.IsInvariant(err))

	ends := starts.Add(-time.Hour)
	_, err = CreateCompetition(db, sess, CreateParams{Name: "Summer", StartsAt: starts, EndsAt: &ends})
	assert.True(t, apperrors.IsInvariant(err))

	comp, err := CreateCompetition(db, sess, CreateParams{Name: "Summer", StartsAt: starts})
	require.NoError(t, err)
	assert.Equal(t, roadtrip.CompetitionScheduled, comp.Type)
	assert.True(t, comp.NeedsSync)
}

func TestUpsertScoreRecomputesRanks(t *testing.T) {
	db := setupTestDB(t)
	comp := mkCompetition(t, db, "Summer Cup")

	require.NoError(t, UpsertScore(db, comp.ID, roadtrip.LeaderboardScopeUser, "alice", 10))
	require.NoError(t, UpsertScore(db, comp.ID, roadtrip.LeaderboardScopeUser, "bob", 30))
	require.NoError(t, UpsertScore(db, comp.ID, roadtrip.LeaderboardScopeUser, "carol", 20))

	board, err := Leaderboard(db, comp.ID)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, []string{"bob", "carol", "alice"}, subjects(board))
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, 2, board[1].Rank)
	assert.Equal(t, 3, board[2].Rank)

	// Re-reporting replaces the entry and reshuffles the board
	require.NoError(t, UpsertScore(db, comp.ID, roadtrip.LeaderboardScopeUser, "alice", 99))
	board, err = Leaderboard(db, comp.ID)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, []string{"alice", "bob", "carol"}, subjects(board))
}

func TestTiesBreakByFirstReported(t *testing.T) {
	db := setupTestDB(t)
	comp := mkCompetition(t, db, "Summer Cup")

	require.NoError(t, UpsertScore(db, comp.ID, roadtrip.LeaderboardScopeUser, "alice", 20))
	require.NoError(t, UpsertScore(db, comp.ID, roadtrip.LeaderboardScopeUser, "bob", 20))

	board, err := Leaderboard(db, comp.ID)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, []string{"alice", "bob"}, subjects(board))

	// Bob updating to the same score keeps his original position
	require.NoError(t, UpsertScore(db, comp.ID, roadtrip.LeaderboardScopeUser, "bob", 20))
	board, err = Leaderboard(db, comp.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, subjects(board))
}

func TestScopesAreSeparateEntries(t *testing.T) {
	db := setupTestDB(t)
	comp := mkCompetition(t, db, "Summer Cup")

	require.NoError(t, UpsertScore(db, comp.ID, roadtrip.LeaderboardScopeUser, "x1", 10))
	require.NoError(t, UpsertScore(db, comp.ID, roadtrip.LeaderboardScopeFamily, "x1", 40))

	board, err := Leaderboard(db, comp.ID)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, roadtrip.LeaderboardScopeFamily, board[0].Scope)
	assert.Equal(t, roadtrip.LeaderboardScopeUser, board[1].Scope)
}

func TestUpsertScoreGuards(t *testing.T) {
	db := setupTestDB(t)
	comp := mkCompetition(t, db, "Summer Cup")

	err := UpsertScore(db, comp.ID, "galaxy", "alice", 10)
	assert.True(t, apperrors.IsInvariant(err))

	err = UpsertScore(db, "missing", roadtrip.LeaderboardScopeUser, "alice", 10)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = Leaderboard(db, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func subjects(entries []postgres.LeaderboardEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.SubjectID
	}
	return out
}
