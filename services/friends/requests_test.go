package friends

import (
	"testing"

	"github.com/ChrisHammers/LicensePlateApp-sub000/apperrors"
	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	familysvc "github.com/ChrisHammers/LicensePlateApp-sub000/services/family"
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
		&postgres.FriendRequest{}, &postgres.Game{}))
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

// mkScout builds a family with a captain and one accepted scout
func mkScout(t *testing.T, db *gorm.DB, captain, scout *postgres.User) *postgres.Family {
	t.Helper()
	fam, err := familysvc.CreateFamily(db, mkSession(captain), "Fam")
	require.NoError(t, err)
	code, err := sharecode.EnsureFamilyCode(db, fam.ID)
	require.NoError(t, err)
	_, _, err = familysvc.JoinViaShareCode(db, mkSession(scout), code, roadtrip.RoleScout)
	require.NoError(t, err)
	return fam
}

func TestSendAndAcceptRequest(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")
	bob := mkUser(t, db, "bob")

	req, err := SendRequest(db, mkSession(alice), bob.ID)
	require.NoError(t, err)
	assert.Equal(t, roadtrip.RequestStatusPending, req.Status)

	resolved, err := Respond(db, mkSession(bob), req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, roadtrip.RequestStatusApproved, resolved.Status)
	assert.Nil(t, resolved.ApprovedBy)
	require.NotNil(t, resolved.RespondedAt)

	aFriends, err := ListFriends(db, alice.ID)
	require.NoError(t, err)
	require.Len(t, aFriends, 1)
	assert.Equal(t, bob.ID, aFriends[0].ID)

	bFriends, err := ListFriends(db, bob.ID)
	require.NoError(t, err)
	require.Len(t, bFriends, 1)
	assert.Equal(t, alice.ID, bFriends[0].ID)
}

func TestSendRequestGuards(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")
	bob := mkUser(t, db, "bob")

	_, err := SendRequest(db, mkSession(alice), alice.ID)
	assert.True(t, apperrors.IsInvariant(err))

	_, err = SendRequest(db, mkSession(alice), "nobody")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = SendRequest(db, mkSession(alice), bob.ID)
	require.NoError(t, err)

	// Second outstanding request for the same ordered pair
	_, err = SendRequest(db, mkSession(alice), bob.ID)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateRequest)

	// The reverse direction is a distinct relationship
	_, err = SendRequest(db, mkSession(bob), alice.ID)
	require.NoError(t, err)
}

func TestAlreadyFriends(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")
	bob := mkUser(t, db, "bob")

	req, err := SendRequest(db, mkSession(alice), bob.ID)
	require.NoError(t, err)
	_, err = Respond(db, mkSession(bob), req.ID, true)
	require.NoError(t, err)

	_, err = SendRequest(db, mkSession(alice), bob.ID)
	assert.True(t, apperrors.IsInvariant(err))
}

func TestOnlyRecipientResolvesPending(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")
	bob := mkUser(t, db, "bob")
	carol := mkUser(t, db, "carol")

	req, err := SendRequest(db, mkSession(alice), bob.ID)
	require.NoError(t, err)

	_, err = Respond(db, mkSession(carol), req.ID, true)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	// The sender cannot approve their own request either
	_, err = Respond(db, mkSession(alice), req.ID, true)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestDenyIsTerminal(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")
	bob := mkUser(t, db, "bob")

	req, err := SendRequest(db, mkSession(alice), bob.ID)
	require.NoError(t, err)
	_, err = Respond(db, mkSession(bob), req.ID, false)
	require.NoError(t, err)

	_, err = Respond(db, mkSession(bob), req.ID, true)
	assert.True(t, apperrors.IsInvariant(err))

	friends, err := ListFriends(db, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestScoutRequestNeedsCaptain(t *testing.T) {
	db := setupTestDB(t)
	captain := mkUser(t, db, "captain")
	scout := mkUser(t, db, "scout")
	outsider := mkUser(t, db, "outsider")
	fam := mkScout(t, db, captain, scout)

	req, err := SendRequest(db, mkSession(outsider), scout.ID)
	require.NoError(t, err)
	assert.Equal(t, roadtrip.RequestStatusCaptainApproval, req.Status)

	// The scout cannot resolve it themselves
	_, err = Respond(db, mkSession(scout), req.ID, true)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	// It shows up in the captain's approval queue
	queue, err := PendingCaptainApprovals(db, fam.ID)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, req.ID, queue[0].ID)

	resolved, err := Respond(db, mkSession(captain), req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, roadtrip.RequestStatusApproved, resolved.Status)
	require.NotNil(t, resolved.ApprovedBy)
	assert.Equal(t, captain.ID, *resolved.ApprovedBy)

	friends, err := ListFriends(db, scout.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, outsider.ID, friends[0].ID)
}

func TestReplayedApprovalIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	captain := mkUser(t, db, "captain")
	scout := mkUser(t, db, "scout")
	outsider := mkUser(t, db, "outsider")
	mkScout(t, db, captain, scout)

	req, err := SendRequest(db, mkSession(outsider), scout.ID)
	require.NoError(t, err)
	_, err = Respond(db, mkSession(captain), req.ID, true)
	require.NoError(t, err)

	// An offline replay of the same approval must not duplicate friends
	_, err = Respond(db, mkSession(captain), req.ID, true)
	require.NoError(t, err)

	var reloaded postgres.User
	require.NoError(t, db.First(&reloaded, "id = ?", scout.ID).Error)
	assert.Equal(t, []string{outsider.ID}, reloaded.FriendIDs())
}

func TestNonCaptainCannotApproveScoutRequest(t *testing.T) {
	db := setupTestDB(t)
	captain := mkUser(t, db, "captain")
	scout := mkUser(t, db, "scout")
	outsider := mkUser(t, db, "outsider")
	stranger := mkUser(t, db, "stranger")
	mkScout(t, db, captain, scout)

	req, err := SendRequest(db, mkSession(outsider), scout.ID)
	require.NoError(t, err)

	_, err = Respond(db, mkSession(stranger), req.ID, true)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestScoutRoleLostFallsBackToRecipient(t *testing.T) {
	db := setupTestDB(t)
	captain := mkUser(t, db, "captain")
	scout := mkUser(t, db, "scout")
	outsider := mkUser(t, db, "outsider")
	fam := mkScout(t, db, captain, scout)

	req, err := SendRequest(db, mkSession(outsider), scout.ID)
	require.NoError(t, err)
	require.Equal(t, roadtrip.RequestStatusCaptainApproval, req.Status)

	// The scout leaves the family before the captain gets to it
	require.NoError(t, familysvc.LeaveFamily(db, mkSession(scout), fam.ID))

	resolved, err := Respond(db, mkSession(scout), req.ID, true)
	require.NoError(t, err)
	assert.Equal(t, roadtrip.RequestStatusApproved, resolved.Status)
	assert.Nil(t, resolved.ApprovedBy)
}

func TestOutstandingListings(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")
	bob := mkUser(t, db, "bob")
	carol := mkUser(t, db, "carol")

	reqAB, err := SendRequest(db, mkSession(alice), bob.ID)
	require.NoError(t, err)
	_, err = SendRequest(db, mkSession(carol), bob.ID)
	require.NoError(t, err)

	received, err := ListReceived(db, bob.ID)
	require.NoError(t, err)
	assert.Len(t, received, 2)

	sent, err := ListSent(db, alice.ID)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, reqAB.ID, sent[0].ID)

	// Resolved requests drop out of the outstanding listings
	_, err = Respond(db, mkSession(bob), reqAB.ID, true)
	require.NoError(t, err)
	received, err = ListReceived(db, bob.ID)
	require.NoError(t, err)
	assert.Len(t, received, 1)
}
