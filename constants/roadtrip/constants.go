package roadtrip_constants

// Role is a family role. Every FamilyMember row holds exactly one.
type Role string

const (
	RoleCaptain        Role = "captain"
	RoleSergeant       Role = "sergeant"
	RoleScout          Role = "scout"
	RoleRetiredGeneral Role = "retired_general"
)

// AllRoles is used by the permission matrix tests to sweep the full table
var AllRoles = []Role{RoleCaptain, RoleSergeant, RoleScout, RoleRetiredGeneral}

// Action is something a family member may try to do
type Action string

const (
	ActionManageFamily         Action = "manage_family"
	ActionApproveFriendRequest Action = "approve_friend_requests"
	ActionCreateTrips          Action = "create_trips"
	ActionModifyTripSettings   Action = "modify_trip_settings"
	ActionMarkPlates           Action = "mark_plates"
	ActionInviteToFamily       Action = "invite_to_family"
	ActionRemoveMembers        Action = "remove_members"
)

var AllActions = []Action{
	ActionManageFamily,
	ActionApproveFriendRequest,
	ActionCreateTrips,
	ActionModifyTripSettings,
	ActionMarkPlates,
	ActionInviteToFamily,
	ActionRemoveMembers,
}

// Soft limits for privileged roles (new families start with these)
const DefaultMaxCaptains = 2
const DefaultMaxScouts = 3

// FamilyMember invitation status
const (
	MemberStatusPending  = "pending"
	MemberStatusAccepted = "accepted"
	MemberStatusDeclined = "declined"
)

// FriendRequest status
const (
	RequestStatusPending         = "pending"
	RequestStatusApproved        = "approved"
	RequestStatusDenied          = "denied"
	RequestStatusCaptainApproval = "requires_captain_approval"
)

// Game mode
const (
	GameModeCompetitive   = "competitive"
	GameModeCollaborative = "collaborative"
)

// Game scoring type
const (
	ScoringTotalFound  = "total_found"
	ScoringUniqueFound = "unique_found"
	ScoringTimeBased   = "time_based"
	ScoringCustom      = "custom"
)

// Competition type
const (
	CompetitionScheduled = "scheduled"
	CompetitionOngoing   = "ongoing"
)

// Leaderboard entry scope
const (
	LeaderboardScopeUser   = "user"
	LeaderboardScopeFamily = "family"
	LeaderboardScopeTeam   = "team"
)

// Team size floor: a game can never ask for less than 2 per team
const MinTeamSizeFloor = 2

// Share code format: 8 uppercase alphanumeric characters, no checksum
const ShareCodeLength = 8
const ShareCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Time-based scoring: each plate is worth TimeBasedPlateValue minus one
// point per full minute between trip start and the mark, floored at 1.
const TimeBasedPlateValue = 100

// Custom scoring: per-plate value when a game doesn't set its own
const DefaultCustomPlatePoints = 5

// Countries whose plates can be enabled for a game
var Countries = []string{
	"AT", "BE", "BG", "CH", "CZ", "DE", "DK", "ES", "FI", "FR",
	"GB", "GR", "HR", "HU", "IE", "IT", "LU", "NL", "NO", "PL",
	"PT", "RO", "SE", "SI", "SK", "US", "CA", "MX",
}

func IsValidCountry(code string) bool {
	for _, c := range Countries {
		if c == code {
			return true
		}
	}
	return false
}
