package sharecode

import (
	"strings"
	"testing"

	"github.com/ChrisHammers/LicensePlateApp-sub000/apperrors"
	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
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
	require.NoError(t, db.AutoMigrate(&postgres.Family{}, &postgres.Game{}))
	return db
}

func mkFamily(t *testing.T, db *gorm.DB, name string) *postgres.Family {
	t.Helper()
	f := postgres.Family{Name: name, MaxCaptains: 2, MaxScouts: 3}
	require.NoError(t, db.Create(&f).Error)
	return &f
}

func mkGame(t *testing.T, db *gorm.DB, name string) *postgres.Game {
	t.Helper()
	g := postgres.Game{
		Name:             name,
		Mode:             roadtrip.GameModeCompetitive,
		ScoringType:      roadtrip.ScoringTotalFound,
		CreatorID:        "creator",
		MinTeamSize:      roadtrip.MinTeamSizeFloor,
		EnabledCountries: postgres.EncodeStringList([]string{"DE"}),
	}
	require.NoError(t, db.Create(&g).Error)
	return &g
}

func TestGenerateFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := Generate()
		assert.Len(t, code, roadtrip.ShareCodeLength)
		for _, r := range code {
			assert.Contains(t, roadtrip.ShareCodeCharset, string(r))
		}
		assert.Equal(t, strings.ToUpper(code), code)
	}
}

func TestEnsureFamilyCodeIsStable(t *testing.T) {
	db := setupTestDB(t)
	fam := mkFamily(t, db, "Hammers")

	code, err := EnsureFamilyCode(db, fam.ID)
	require.NoError(t, err)
	require.Len(t, code, roadtrip.ShareCodeLength)

	again, err := EnsureFamilyCode(db, fam.ID)
	require.NoError(t, err)
	assert.Equal(t, code, again)

	_, err = EnsureFamilyCode(db, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRegenerateInvalidatesOldCode(t *testing.T) {
	db := setupTestDB(t)
	fam := mkFamily(t, db, "Hammers")

	old, err := EnsureFamilyCode(db, fam.ID)
	require.NoError(t, err)

	fresh, err := RegenerateFamilyCode(db, fam.ID)
	require.NoError(t, err)
	assert.NotEqual(t, old, fresh)

	_, err = Resolve(db, old)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	res, err := Resolve(db, fresh)
	require.NoError(t, err)
	require.NotNil(t, res.Family)
	assert.Equal(t, fam.ID, res.Family.ID)
}

func TestResolveNormalizesInput(t *testing.T) {
	db := setupTestDB(t)
	fam := mkFamily(t, db, "Hammers")
	code, err := EnsureFamilyCode(db, fam.ID)
	require.NoError(t, err)

	res, err := Resolve(db, "  "+strings.ToLower(code)+" ")
	require.NoError(t, err)
	require.NotNil(t, res.Family)
	assert.Equal(t, fam.ID, res.Family.ID)
	assert.Nil(t, res.Game)
}

func TestResolveGameCode(t *testing.T) {
	db := setupTestDB(t)
	g := mkGame(t, db, "Summer Run")

	code, err := EnsureGameCode(db, g.ID)
	require.NoError(t, err)

	res, err := Resolve(db, code)
	require.NoError(t, err)
	require.NotNil(t, res.Game)
	assert.Equal(t, g.ID, res.Game.ID)
	assert.Nil(t, res.Family)
}

func TestResolveRejectsMalformedCodes(t *testing.T) {
	db := setupTestDB(t)

	for _, code := range []string{"", "SHORT", "WAYTOOLONGCODE", "ABCD1234EXTRA"} {
		_, err := Resolve(db, code)
		assert.ErrorIs(t, err, apperrors.ErrNotFound, "code %q", code)
	}

	// Well-formed but unassigned
	_, err := Resolve(db, "ABCD1234")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
