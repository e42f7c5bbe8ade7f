package routes

import (
	"github.com/ChrisHammers/LicensePlateApp-sub000/controllers"
	"github.com/ChrisHammers/LicensePlateApp-sub000/middleware"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/auth"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, provider *auth.JWTProvider) {
	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes group
	api := router.Group("/")

	api.GET("/ping", controllers.Ping)

	api.POST("/signup", controllers.SignUp(db))

	api.POST("/login", controllers.Login(db, provider))

	api.GET("/users/:user_id", controllers.GetUserPublicInfo(db))

	// Share codes resolve without authentication so an invite link can
	// show what it points at before the user signs in.
	api.GET("/resolve/:code", controllers.ResolveShareCode(db))

	authentication := api.Group("/auth")
	authentication.Use(middleware.AuthRequired(provider))
	{
		authentication.GET("/me", controllers.GetUserPrivateInfo(db))

		authentication.PATCH("/update", controllers.UpdateUserInfo(db))

		authentication.POST("/claim", controllers.ClaimIdentity(db, provider))

		// Families and invitations
		authentication.POST("/families", controllers.CreateFamily(db))
		authentication.GET("/families/:family_id", controllers.GetFamily(db))
		authentication.PATCH("/families/:family_id", controllers.UpdateFamily(db))
		authentication.POST("/families/:family_id/invite", controllers.InviteToFamily(db))
		authentication.POST("/families/:family_id/leave", controllers.LeaveFamily(db))
		authentication.POST("/families/:family_id/remove", controllers.RemoveFamilyMember(db))
		authentication.GET("/families/:family_id/share_code", controllers.GetFamilyShareCode(db))
		authentication.POST("/families/:family_id/share_code", controllers.RegenerateFamilyShareCode(db))
		authentication.GET("/families/:family_id/friend_approvals", controllers.GetPendingCaptainApprovals(db))
		authentication.POST("/families/join", controllers.JoinFamilyByCode(db))

		authentication.GET("/invitations", controllers.GetReceivedInvitations(db))
		authentication.POST("/invitations/:member_id/respond", controllers.RespondToInvitation(db))

		// Friends
		authentication.GET("/friends", controllers.GetFriends(db))
		authentication.POST("/friends/request", controllers.SendFriendRequest(db))
		authentication.POST("/friends/request/:request_id/respond", controllers.RespondToFriendRequest(db))
		authentication.GET("/friends/requests/received", controllers.GetReceivedFriendRequests(db))
		authentication.GET("/friends/requests/sent", controllers.GetSentFriendRequests(db))

		// Games and teams
		authentication.POST("/games", controllers.CreateGame(db))
		authentication.GET("/games/:game_id", controllers.GetGame(db))
		authentication.POST("/games/:game_id/start", controllers.StartGame(db))
		authentication.POST("/games/:game_id/end", controllers.EndGame(db))
		authentication.POST("/games/:game_id/leave", controllers.LeaveGame(db))
		authentication.POST("/games/:game_id/teams", controllers.CreateTeam(db))
		authentication.GET("/games/:game_id/scores", controllers.GetGameScores(db))
		authentication.GET("/games/:game_id/share_code", controllers.GetGameShareCode(db))
		authentication.POST("/teams/:team_id/members", controllers.AddTeamMember(db))
		authentication.POST("/teams/:team_id/members/remove", controllers.RemoveTeamMember(db))
		authentication.POST("/teams/:team_id/pilot", controllers.ChangeTeamPilot(db))
		authentication.POST("/teams/:team_id/trips", controllers.AttachTripToTeam(db))

		// Trips and plate marks
		authentication.POST("/trips", controllers.CreateTrip(db))
		authentication.GET("/trips", controllers.GetTrips(db))
		authentication.PATCH("/trips/:trip_id", controllers.UpdateTrip(db))
		authentication.POST("/trips/:trip_id/marks", controllers.MarkPlate(db))
		authentication.POST("/trips/:trip_id/end", controllers.EndTrip(db))

		// Competitions
		authentication.POST("/competitions", controllers.CreateCompetition(db))
		authentication.GET("/competitions", controllers.GetCompetitions(db))
		authentication.POST("/competitions/:competition_id/scores", controllers.ReportCompetitionScore(db))
		authentication.GET("/competitions/:competition_id/leaderboard", controllers.GetLeaderboard(db))
	}
}
