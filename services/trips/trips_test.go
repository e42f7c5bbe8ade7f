package trips

import (
	"testing"

	"github.com/ChrisHammers/LicensePlateApp-sub000/apperrors"
	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/family"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/session"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/sharecode"
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
	require.NoError(t, db.AutoMigrate(
		&postgres.User{}, &postgres.Family{}, &postgres.FamilyMember{},
		&postgres.Trip{}, &postgres.PlateMark{}, &postgres.Game{}))
	return db
}

func mkUser(t *testing.T, db *gorm.DB, name string) *postgres.User {
	t.Helper()
	u := postgres.User{Username: name, Email: name + "@example.com"}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func mkSession(u *postgres.User) session.Session {
	return session.New(u.ID, true)
}

// mkScout puts the user into a fresh family as a scout via share code
func mkScout(t *testing.T, db *gorm.DB, captain, scout *postgres.User) {
	t.Helper()
	fam, err := family.CreateFamily(db, mkSession(captain), "The "+captain.Username+"s")
	require.NoError(t, err)
	code, err := sharecode.EnsureFamilyCode(db, fam.ID)
	require.NoError(t, err)
	_, _, err = family.JoinViaShareCode(db, mkSession(scout), code, roadtrip.RoleScout)
	require.NoError(t, err)
}

func TestCreateTripAndMark(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")

	trip, err := CreateTrip(db, mkSession(alice), "Coast run", []string{"DE", "FR"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, trip.UserID)
	assert.True(t, trip.NeedsSync)
	assert.Nil(t, trip.EndedAt)

	mark, err := MarkPlate(db, mkSession(alice), trip.ID, "DE")
	require.NoError(t, err)
	assert.Equal(t, trip.ID, mark.TripID)
	assert.Equal(t, "DE", mark.Country)

	// Duplicate sightings are separate marks
	_, err = MarkPlate(db, mkSession(alice), trip.ID, "DE")
	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Model(&postgres.PlateMark{}).Where("trip_id = ?", trip.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestCreateTripRejectsUnknownCountry(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")

	_, err := CreateTrip(db, mkSession(alice), "Nowhere", []string{"ZZ"})
	assert.True(t, apperrors.IsInvariant(err))
}

func TestScoutCannotCreateTrips(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")
	timmy := mkUser(t, db, "timmy")
	mkScout(t, db, alice, timmy)

	_, err := CreateTrip(db, mkSession(timmy), "Timmy's trip", nil)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	// Marking plates is the one thing a scout may do
	trip, err := CreateTrip(db, mkSession(alice), "Family trip", nil)
	require.NoError(t, err)
	require.NoError(t, db.Model(trip).Update("user_id", timmy.ID).Error)
	_, err = MarkPlate(db, mkSession(timmy), trip.ID, "DE")
	assert.NoError(t, err)
}

func TestScoutCannotModifySettings(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")
	timmy := mkUser(t, db, "timmy")
	mkScout(t, db, alice, timmy)

	name := "Renamed"
	_, err := UpdateTripSettings(db, mkSession(timmy), "whatever", &name, nil)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestNoFamilyUserIsUnrestricted(t *testing.T) {
	db := setupTestDB(t)
	loner := mkUser(t, db, "loner")

	trip, err := CreateTrip(db, mkSession(loner), "Solo", nil)
	require.NoError(t, err)

	name := "Solo v2"
	updated, err := UpdateTripSettings(db, mkSession(loner), trip.ID, &name, []string{"US", "CA"})
	require.NoError(t, err)
	assert.Equal(t, "Solo v2", updated.Name)
	assert.Equal(t, []string{"US", "CA"}, postgres.DecodeStringList(updated.Countries))
}

func TestOnlyOwnerTouchesTrip(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")
	bob := mkUser(t, db, "bob")

	trip, err := CreateTrip(db, mkSession(alice), "Private", nil)
	require.NoError(t, err)

	_, err = MarkPlate(db, mkSession(bob), trip.ID, "DE")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	_, err = EndTrip(db, mkSession(bob), trip.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	name := "Stolen"
	_, err = UpdateTripSettings(db, mkSession(bob), trip.ID, &name, nil)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestEndedTripRejectsMarks(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")

	trip, err := CreateTrip(db, mkSession(alice), "Short", nil)
	require.NoError(t, err)
	_, err = MarkPlate(db, mkSession(alice), trip.ID, "DE")
	require.NoError(t, err)

	ended, err := EndTrip(db, mkSession(alice), trip.ID)
	require.NoError(t, err)
	require.NotNil(t, ended.EndedAt)

	_, err = MarkPlate(db, mkSession(alice), trip.ID, "FR")
	assert.True(t, apperrors.IsInvariant(err))

	// Ending again changes nothing
	again, err := EndTrip(db, mkSession(alice), trip.ID)
	require.NoError(t, err)
	assert.Equal(t, ended.EndedAt.Unix(), again.EndedAt.Unix())
}

func TestMarkPlateRejectsUnknownCountry(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")
	trip, err := CreateTrip(db, mkSession(alice), "Run", nil)
	require.NoError(t, err)

	_, err = MarkPlate(db, mkSession(alice), trip.ID, "XX")
	assert.True(t, apperrors.IsInvariant(err))

	_, err = MarkPlate(db, mkSession(alice), "missing-trip", "DE")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListTripsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")
	bob := mkUser(t, db, "bob")

	for _, name := range []string{"one", "two", "three"} {
		_, err := CreateTrip(db, mkSession(alice), name, nil)
		require.NoError(t, err)
	}
	_, err := CreateTrip(db, mkSession(bob), "bob's", nil)
	require.NoError(t, err)

	list, err := ListTrips(db, mkSession(alice))
	require.NoError(t, err)
	require.Len(t, list, 3)
	for _, trip := range list {
		assert.Equal(t, alice.ID, trip.UserID)
	}
}
