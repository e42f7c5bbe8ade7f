package permissions

import (
	"testing"

	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/stretchr/testify/assert"
)

func TestCaptainCanDoEverything(t *testing.T) {
	for _, action := range roadtrip.AllActions {
		assert.True(t, CanPerform(roadtrip.RoleCaptain, action),
			"captain should be allowed to %s", action)
	}
}

func TestScoutCanOnlyMarkPlates(t *testing.T) {
	for _, action := range roadtrip.AllActions {
		allowed := CanPerform(roadtrip.RoleScout, action)
		if action == roadtrip.ActionMarkPlates {
			assert.True(t, allowed)
		} else {
			assert.False(t, allowed, "scout should not be allowed to %s", action)
		}
	}
}

func TestSergeantAndRetiredGeneralShareTripRights(t *testing.T) {
	tripActions := map[roadtrip.Action]bool{
		roadtrip.ActionCreateTrips:        true,
		roadtrip.ActionModifyTripSettings: true,
		roadtrip.ActionMarkPlates:         true,
	}
	for _, role := range []roadtrip.Role{roadtrip.RoleSergeant, roadtrip.RoleRetiredGeneral} {
		for _, action := range roadtrip.AllActions {
			assert.Equal(t, tripActions[action], CanPerform(role, action),
				"role %s action %s", role, action)
		}
	}
}

// The matrix must be deterministic and defined for every combination,
// including roles or actions that don't exist.
func TestMatrixIsTotal(t *testing.T) {
	for _, role := range roadtrip.AllRoles {
		for _, action := range roadtrip.AllActions {
			first := CanPerform(role, action)
			assert.Equal(t, first, CanPerform(role, action))
		}
	}
	assert.False(t, CanPerform(roadtrip.Role("admiral"), roadtrip.ActionMarkPlates))
	assert.False(t, CanPerform(roadtrip.RoleCaptain, roadtrip.Action("launch_rockets")))
}
