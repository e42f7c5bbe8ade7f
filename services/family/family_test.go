package family

import (
	"fmt"
	"testing"

	"github.com/ChrisHammers/LicensePlateApp-sub000/apperrors"
	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
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
		&postgres.FriendRequest{}, &postgres.Game{}, &postgres.GameTeam{},
		&postgres.Trip{}, &postgres.PlateMark{}))
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

func TestCreateFamilyMakesCallerCaptain(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")

	fam, err := CreateFamily(db, mkSession(alice), "Roadtrippers")
	require.NoError(t, err)
	assert.Equal(t, roadtrip.DefaultMaxCaptains, fam.MaxCaptains)
	assert.Equal(t, roadtrip.DefaultMaxScouts, fam.MaxScouts)

	role, err := ActiveRole(db, alice.ID, fam.ID)
	require.NoError(t, err)
	assert.Equal(t, roadtrip.RoleCaptain, role)

	var reloaded postgres.User
	require.NoError(t, db.First(&reloaded, "id = ?", alice.ID).Error)
	require.NotNil(t, reloaded.FamilyID)
	assert.Equal(t, fam.ID, *reloaded.FamilyID)
}

func TestCreateFamilyRejectsSecondFamily(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")

	_, err := CreateFamily(db, mkSession(alice), "First")
	require.NoError(t, err)

	_, err = CreateFamily(db, mkSession(alice), "Second")
	assert.True(t, apperrors.IsInvariant(err))
}

func TestInvitationLifecycle(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")
	bob := mkUser(t, db, "bob")

	fam, err := CreateFamily(db, mkSession(alice), "Roadtrippers")
	require.NoError(t, err)

	member, err := InviteMember(db, mkSession(alice), fam.ID, bob.ID, roadtrip.RoleSergeant)
	require.NoError(t, err)
	assert.Equal(t, roadtrip.MemberStatusPending, member.Status)
	assert.False(t, member.IsActive)
	require.NotNil(t, member.InvitedBy)
	assert.Equal(t, alice.ID, *member.InvitedBy)

	// A pending invitation grants nothing
	_, err = ActiveRole(db, bob.ID, fam.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	// Double-invite while one is pending
	_, err = InviteMember(db, mkSession(alice), fam.ID, bob.ID, roadtrip.RoleScout)
	assert.True(t, apperrors.IsInvariant(err))

	accepted, err := AcceptInvitation(db, mkSession(bob), member.ID)
	require.NoError(t, err)
	assert.Equal(t, roadtrip.MemberStatusAccepted, accepted.Status)
	assert.True(t, accepted.IsActive)
	require.NotNil(t, accepted.JoinedAt)

	role, err := ActiveRole(db, bob.ID, fam.ID)
	require.NoError(t, err)
	assert.Equal(t, roadtrip.RoleSergeant, role)

	// Accepting again is a no-op
	_, err = AcceptInvitation(db, mkSession(bob), member.ID)
	require.NoError(t, err)

	// Declining an accepted invitation is rejected
	err = DeclineInvitation(db, mkSession(bob), member.ID)
	assert.True(t, apperrors.IsInvariant(err))
}

func TestDeclineIsTerminal(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")
	bob := mkUser(t, db, "bob")

	fam, err := CreateFamily(db, mkSession(alice), "Roadtrippers")
	require.NoError(t, err)
	member, err := InviteMember(db, mkSession(alice), fam.ID, bob.ID, roadtrip.RoleScout)
	require.NoError(t, err)

	require.NoError(t, DeclineInvitation(db, mkSession(bob), member.ID))

	// Declining twice is a no-op
	require.NoError(t, DeclineInvitation(db, mkSession(bob), member.ID))

	// The declined row can never be accepted
	_, err = AcceptInvitation(db, mkSession(bob), member.ID)
	assert.True(t, apperrors.IsInvariant(err))
}

func TestOnlyInviteeMayRespond(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")
	bob := mkUser(t, db, "bob")
	carol := mkUser(t, db, "carol")

	fam, err := CreateFamily(db, mkSession(alice), "Roadtrippers")
	require.NoError(t, err)
	member, err := InviteMember(db, mkSession(alice), fam.ID, bob.ID, roadtrip.RoleScout)
	require.NoError(t, err)

	_, err = AcceptInvitation(db, mkSession(carol), member.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	err = DeclineInvitation(db, mkSession(carol), member.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestScoutCannotInvite(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")
	bob := mkUser(t, db, "bob")
	carol := mkUser(t, db, "carol")

	fam, err := CreateFamily(db, mkSession(alice), "Roadtrippers")
	require.NoError(t, err)
	member, err := InviteMember(db, mkSession(alice), fam.ID, bob.ID, roadtrip.RoleScout)
	require.NoError(t, err)
	_, err = AcceptInvitation(db, mkSession(bob), member.ID)
	require.NoError(t, err)

	_, err = InviteMember(db, mkSession(bob), fam.ID, carol.ID, roadtrip.RoleScout)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestScoutLimitIsSoft(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")

	fam, err := CreateFamily(db, mkSession(alice), "Roadtrippers")
	require.NoError(t, err)
	code, err := sharecode.EnsureFamilyCode(db, fam.ID)
	require.NoError(t, err)

	// Fill all three scout seats
	for i := 0; i < roadtrip.DefaultMaxScouts; i++ {
		scout := mkUser(t, db, fmt.Sprintf("scout%d", i))
		_, atLimit, err := JoinViaShareCode(db, mkSession(scout), code, roadtrip.RoleScout)
		require.NoError(t, err)
		assert.False(t, atLimit)
	}

	atLimit, err := IsAtLimit(db, fam.ID, roadtrip.RoleScout)
	require.NoError(t, err)
	assert.True(t, atLimit)

	// One more scout still joins; the caller just gets the warning flag
	extra := mkUser(t, db, "extra")
	member, atLimit, err := JoinViaShareCode(db, mkSession(extra), code, roadtrip.RoleScout)
	require.NoError(t, err)
	assert.True(t, atLimit)
	assert.Equal(t, roadtrip.MemberStatusAccepted, member.Status)
	assert.True(t, member.IsActive)
}

func TestOnlyRetiredGeneralSpansFamilies(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")
	bob := mkUser(t, db, "bob")
	grandpa := mkUser(t, db, "grandpa")

	famA, err := CreateFamily(db, mkSession(alice), "A")
	require.NoError(t, err)
	famB, err := CreateFamily(db, mkSession(bob), "B")
	require.NoError(t, err)

	// grandpa joins A as retired general, then B too
	mA, err := InviteMember(db, mkSession(alice), famA.ID, grandpa.ID, roadtrip.RoleRetiredGeneral)
	require.NoError(t, err)
	_, err = AcceptInvitation(db, mkSession(grandpa), mA.ID)
	require.NoError(t, err)

	mB, err := InviteMember(db, mkSession(bob), famB.ID, grandpa.ID, roadtrip.RoleRetiredGeneral)
	require.NoError(t, err)
	_, err = AcceptInvitation(db, mkSession(grandpa), mB.ID)
	require.NoError(t, err)

	// A captain of A cannot also be invited into B as sergeant
	_, err = InviteMember(db, mkSession(bob), famB.ID, alice.ID, roadtrip.RoleSergeant)
	assert.True(t, apperrors.IsInvariant(err))
}

func TestRemoveMemberKeepsHistory(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")
	bob := mkUser(t, db, "bob")

	fam, err := CreateFamily(db, mkSession(alice), "Roadtrippers")
	require.NoError(t, err)
	member, err := InviteMember(db, mkSession(alice), fam.ID, bob.ID, roadtrip.RoleSergeant)
	require.NoError(t, err)
	_, err = AcceptInvitation(db, mkSession(bob), member.ID)
	require.NoError(t, err)

	require.NoError(t, RemoveMember(db, mkSession(alice), fam.ID, bob.ID))

	// Role is gone but the row survives, deactivated
	_, err = ActiveRole(db, bob.ID, fam.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	var row postgres.FamilyMember
	require.NoError(t, db.First(&row, "id = ?", member.ID).Error)
	assert.False(t, row.IsActive)
	assert.Equal(t, roadtrip.MemberStatusAccepted, row.Status)

	var reloaded postgres.User
	require.NoError(t, db.First(&reloaded, "id = ?", bob.ID).Error)
	assert.Nil(t, reloaded.FamilyID)
}

func TestNonCaptainCannotRemoveOthers(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")
	bob := mkUser(t, db, "bob")

	fam, err := CreateFamily(db, mkSession(alice), "Roadtrippers")
	require.NoError(t, err)
	member, err := InviteMember(db, mkSession(alice), fam.ID, bob.ID, roadtrip.RoleSergeant)
	require.NoError(t, err)
	_, err = AcceptInvitation(db, mkSession(bob), member.ID)
	require.NoError(t, err)

	err = RemoveMember(db, mkSession(bob), fam.ID, alice.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	// Leaving your own family needs no permission
	require.NoError(t, LeaveFamily(db, mkSession(bob), fam.ID))
}

func TestUpdateFamilyLimits(t *testing.T) {
	db := setupTestDB(t)
	alice := mkUser(t, db, "alice")
	bob := mkUser(t, db, "bob")

	fam, err := CreateFamily(db, mkSession(alice), "Roadtrippers")
	require.NoError(t, err)

	name := "Renamed"
	five := 5
	updated, err := UpdateFamily(db, mkSession(alice), fam.ID, &name, nil, &five)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, 5, updated.MaxScouts)

	// Outsiders hold no role at all
	_, err = UpdateFamily(db, mkSession(bob), fam.ID, &name, nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	zero := 0
	_, err = UpdateFamily(db, mkSession(alice), fam.ID, nil, &zero, nil)
	assert.True(t, apperrors.IsInvariant(err))
}
