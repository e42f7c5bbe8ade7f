package sync

import "fmt"

/**
 * Stable document paths for the remote store. Kept in one place so the
 * push loop and the listener never disagree on the key format.
 */

func UserPath(id string) string {
	return fmt.Sprintf("users/%s", id)
}

func FamilyPath(id string) string {
	return fmt.Sprintf("families/%s", id)
}

// FamilyMember documents nest under their owning family
func FamilyMemberPath(familyID, memberID string) string {
	return fmt.Sprintf("families/%s/members/%s", familyID, memberID)
}

func FriendRequestPath(id string) string {
	return fmt.Sprintf("friend_requests/%s", id)
}

func GamePath(id string) string {
	return fmt.Sprintf("games/%s", id)
}

func GameTeamPath(gameID, teamID string) string {
	return fmt.Sprintf("games/%s/teams/%s", gameID, teamID)
}

func CompetitionPath(id string) string {
	return fmt.Sprintf("competitions/%s", id)
}

func TripPath(id string) string {
	return fmt.Sprintf("trips/%s", id)
}
