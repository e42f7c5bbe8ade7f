package permissions

import (
	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
)

// CanPerform is the role/action permission matrix. It is a pure function
// and total over the role x action space: every combination has a defined
// answer and an unknown role or action is denied.
func CanPerform(role roadtrip.Role, action roadtrip.Action) bool {
	switch role {
	case roadtrip.RoleCaptain:
		switch action {
		case roadtrip.ActionManageFamily,
			roadtrip.ActionApproveFriendRequest,
			roadtrip.ActionCreateTrips,
			roadtrip.ActionModifyTripSettings,
			roadtrip.ActionMarkPlates,
			roadtrip.ActionInviteToFamily,
			roadtrip.ActionRemoveMembers:
			return true
		}
		return false

	case roadtrip.RoleSergeant, roadtrip.RoleRetiredGeneral:
		switch action {
		case roadtrip.ActionCreateTrips,
			roadtrip.ActionModifyTripSettings,
			roadtrip.ActionMarkPlates:
			return true
		}
		return false

	case roadtrip.RoleScout:
		return action == roadtrip.ActionMarkPlates
	}
	return false
}
