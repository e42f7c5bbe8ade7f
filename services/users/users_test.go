package users

import (
	"testing"

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
	require.NoError(t, db.AutoMigrate(
		&postgres.User{}, &postgres.Family{}, &postgres.FamilyMember{},
		&postgres.FriendRequest{}, &postgres.Game{}, &postgres.GameTeam{},
		&postgres.Trip{}, &postgres.Competition{}, &postgres.LeaderboardEntry{}))
	return db
}

func TestRegisterAndAuthenticate(t *testing.T) {
	db := setupTestDB(t)

	user, err := Register(db, "alice", "alice@example.com", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "hunter2", user.PasswordHash)
	assert.False(t, user.Claimed)

	got, err := Authenticate(db, "alice@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = Authenticate(db, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = Authenticate(db, "nobody@example.com", "hunter2")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	db := setupTestDB(t)

	_, err := Register(db, "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	_, err = Register(db, "alice", "other@example.com", "pw")
	assert.True(t, apperrors.IsInvariant(err))
	_, err = Register(db, "other", "alice@example.com", "pw")
	assert.True(t, apperrors.IsInvariant(err))
	_, err = Register(db, "", "x@example.com", "pw")
	assert.True(t, apperrors.IsInvariant(err))
}

func TestUpdateProfile(t *testing.T) {
	db := setupTestDB(t)
	alice, err := Register(db, "alice", "alice@example.com", "pw")
	require.NoError(t, err)
	_, err = Register(db, "bob", "bob@example.com", "pw")
	require.NoError(t, err)

	name := "alice_2"
	phone := "+1 555 0100"
	yes := true
	updated, err := UpdateProfile(db, session.New(alice.ID, true), ProfileUpdate{
		Username: &name, Phone: &phone, PhonePublic: &yes,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice_2", updated.Username)
	assert.Equal(t, phone, updated.Phone)
	assert.True(t, updated.PhonePublic)
	assert.True(t, updated.NeedsSync)

	// Clashing with another user's name is rejected
	taken := "bob"
	_, err = UpdateProfile(db, session.New(alice.ID, true), ProfileUpdate{Username: &taken})
	assert.True(t, apperrors.IsInvariant(err))

	empty := "  "
	_, err = UpdateProfile(db, session.New(alice.ID, true), ProfileUpdate{Username: &empty})
	assert.True(t, apperrors.IsInvariant(err))
}

func TestPublicViewHonorsVisibility(t *testing.T) {
	user := &postgres.User{
		ID: "u1", Username: "alice",
		Email: "alice@example.com", Phone: "+1 555 0100",
	}

	view := PublicView(user)
	assert.Equal(t, "alice", view["username"])
	assert.NotContains(t, view, "email")
	assert.NotContains(t, view, "phone")

	user.EmailPublic = true
	user.PhonePublic = true
	view = PublicView(user)
	assert.Equal(t, user.Email, view["email"])
	assert.Equal(t, user.Phone, view["phone"])
}

func TestClaimIdentityRewritesEverything(t *testing.T) {
	db := setupTestDB(t)
	alice, err := Register(db, "alice", "alice@example.com", "pw")
	require.NoError(t, err)
	bob, err := Register(db, "bob", "bob@example.com", "pw")
	require.NoError(t, err)

	// Seed references to alice's local ID across the schema
	require.NoError(t, db.Create(&postgres.FamilyMember{
		FamilyID: "fam1", UserID: alice.ID, InvitedBy: &alice.ID,
		Role: roadtrip.RoleCaptain, Status: roadtrip.MemberStatusAccepted, IsActive: true,
	}).Error)
	require.NoError(t, db.Create(&postgres.FriendRequest{
		FromUserID: alice.ID, ToUserID: bob.ID, Status: roadtrip.RequestStatusApproved,
	}).Error)
	require.NoError(t, db.Create(&postgres.Game{
		Name: "g", CreatorID: alice.ID,
		EnabledCountries: postgres.EncodeStringList([]string{"DE"}),
	}).Error)
	team := postgres.GameTeam{
		GameID: "g1", PilotID: bob.ID,
		MemberIDs: postgres.EncodeStringList([]string{alice.ID}),
	}
	require.NoError(t, db.Create(&team).Error)
	require.NoError(t, db.Create(&postgres.Trip{UserID: alice.ID, Name: "t"}).Error)
	require.NoError(t, db.Create(&postgres.LeaderboardEntry{
		CompetitionID: "c1", Scope: roadtrip.LeaderboardScopeUser,
		SubjectID: alice.ID, Score: 7, Rank: 1,
	}).Error)
	bob.AddFriend(alice.ID)
	require.NoError(t, db.Save(bob).Error)

	var notifiedOld, notifiedNew string
	providerID := "auth0|abc123"
	err = ClaimIdentity(db, alice.ID, providerID, func(oldID, newID string) {
		notifiedOld, notifiedNew = oldID, newID
	})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, notifiedOld)
	assert.Equal(t, providerID, notifiedNew)

	var claimed postgres.User
	require.NoError(t, db.First(&claimed, "id = ?", providerID).Error)
	assert.True(t, claimed.Claimed)
	var gone int64
	require.NoError(t, db.Model(&postgres.User{}).Where("id = ?", alice.ID).Count(&gone).Error)
	assert.Zero(t, gone)

	var member postgres.FamilyMember
	require.NoError(t, db.First(&member, "family_id = ?", "fam1").Error)
	assert.Equal(t, providerID, member.UserID)
	require.NotNil(t, member.InvitedBy)
	assert.Equal(t, providerID, *member.InvitedBy)

	var request postgres.FriendRequest
	require.NoError(t, db.First(&request, "to_user_id = ?", bob.ID).Error)
	assert.Equal(t, providerID, request.FromUserID)

	var game postgres.Game
	require.NoError(t, db.First(&game, "name = ?", "g").Error)
	assert.Equal(t, providerID, game.CreatorID)

	var reloadedTeam postgres.GameTeam
	require.NoError(t, db.First(&reloadedTeam, "id = ?", team.ID).Error)
	assert.Equal(t, []string{providerID}, reloadedTeam.Members())

	var trip postgres.Trip
	require.NoError(t, db.First(&trip, "name = ?", "t").Error)
	assert.Equal(t, providerID, trip.UserID)

	var entry postgres.LeaderboardEntry
	require.NoError(t, db.First(&entry, "competition_id = ?", "c1").Error)
	assert.Equal(t, providerID, entry.SubjectID)

	var friend postgres.User
	require.NoError(t, db.First(&friend, "id = ?", bob.ID).Error)
	assert.Equal(t, []string{providerID}, friend.FriendIDs())
}

func TestClaimIdentityGuards(t *testing.T) {
	db := setupTestDB(t)
	alice, err := Register(db, "alice", "alice@example.com", "pw")
	require.NoError(t, err)
	bob, err := Register(db, "bob", "bob@example.com", "pw")
	require.NoError(t, err)

	// A taken identifier is rejected
	err = ClaimIdentity(db, alice.ID, bob.ID, nil)
	assert.True(t, apperrors.IsInvariant(err))

	err = ClaimIdentity(db, alice.ID, alice.ID, nil)
	assert.True(t, apperrors.IsInvariant(err))

	err = ClaimIdentity(db, "missing", "auth0|x", nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Claiming is a one-shot migration
	require.NoError(t, ClaimIdentity(db, alice.ID, "auth0|abc", nil))
	err = ClaimIdentity(db, "auth0|abc", "auth0|def", nil)
	assert.True(t, apperrors.IsInvariant(err))
}
