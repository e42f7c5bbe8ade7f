package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ChrisHammers/LicensePlateApp-sub000/middleware"
	models "github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/game"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/sharecode"
	"github.com/ChrisHammers/LicensePlateApp-sub000/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func teamView(t models.GameTeam) gin.H {
	return gin.H{
		"team_id":  t.ID,
		"name":     t.Name,
		"pilot_id": t.PilotID,
		"members":  t.Members(),
		"trip_ids": models.DecodeStringList(t.TripIDs),
		"score":    t.Score,
	}
}

// @Summary Create a game
// @Description The game starts in the lobby state until the creator starts it
// @Tags games
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param name formData string true "Game name"
// @Param mode formData string true "competitive or collaborative"
// @Param scoring_type formData string true "total_found, unique_found, time_based or custom"
// @Param min_team_size formData integer false "Minimum roster per team, at least 2"
// @Param max_team_size formData integer false "Optional roster cap"
// @Param custom_plate_points formData integer false "Points per plate for custom scoring"
// @Param countries formData string true "Comma separated ISO country codes"
// @Success 200 {object} object{game_id=string}
// @Failure 400 {object} object{error=string}
// @Router /auth/games [post]
// @Security ApiKeyAuth
func CreateGame(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		params := game.CreateParams{
			Name:        c.PostForm("name"),
			Mode:        c.PostForm("mode"),
			ScoringType: c.PostForm("scoring_type"),
		}
		if v, exists := c.GetPostForm("min_team_size"); exists {
			n, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "min_team_size must be a number"})
				return
			}
			params.MinTeamSize = n
		}
		if v, exists := c.GetPostForm("max_team_size"); exists {
			n, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "max_team_size must be a number"})
				return
			}
			params.MaxTeamSize = &n
		}
		if v, exists := c.GetPostForm("custom_plate_points"); exists {
			n, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "custom_plate_points must be a number"})
				return
			}
			params.CustomPlatePoints = n
		}
		for _, code := range strings.Split(c.PostForm("countries"), ",") {
			if code = strings.TrimSpace(code); code != "" {
				params.Countries = append(params.Countries, code)
			}
		}

		created, err := game.CreateGame(db, sess, params)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"game_id": created.ID})
	}
}

// @Summary Get a game with its teams
// @Tags games
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param game_id path string true "Game identifier"
// @Success 200 {object} object{id=string,name=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/games/{game_id} [get]
// @Security ApiKeyAuth
func GetGame(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameID := c.Param("game_id")

		g, err := utils.CheckGameExists(db, gameID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
			return
		}
		teams, err := game.ListTeams(db, gameID)
		if err != nil {
			respondError(c, err)
			return
		}

		teamViews := make([]gin.H, 0, len(teams))
		for _, t := range teams {
			teamViews = append(teamViews, teamView(t))
		}

		c.JSON(http.StatusOK, gin.H{
			"id":            g.ID,
			"name":          g.Name,
			"mode":          g.Mode,
			"scoring_type":  g.ScoringType,
			"creator_id":    g.CreatorID,
			"started_at":    g.StartedAt,
			"ended_at":      g.EndedAt,
			"min_team_size": g.MinTeamSize,
			"max_team_size": g.MaxTeamSize,
			"countries":     g.CountryCodes(),
			"teams":         teamViews,
		})
	}
}

// @Summary Start a game
// @Description Creator only. Every team must meet the minimum roster size.
// @Tags games
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param game_id path string true "Game identifier"
// @Success 200 {object} object{started_at=string}
// @Failure 400 {object} object{error=string}
// @Router /auth/games/{game_id}/start [post]
// @Security ApiKeyAuth
func StartGame(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		started, err := game.StartGame(db, sess, c.Param("game_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"started_at": started.StartedAt})
	}
}

// @Summary End a game
// @Description Creator only. Final scores are computed on end.
// @Tags games
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param game_id path string true "Game identifier"
// @Success 200 {object} object{ended_at=string}
// @Failure 400 {object} object{error=string}
// @Router /auth/games/{game_id}/end [post]
// @Security ApiKeyAuth
func EndGame(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		ended, err := game.EndGame(db, sess, c.Param("game_id"))
		if err != nil {
			respondError(c, err)
			return
		}

		teams, _ := game.ListTeams(db, ended.ID)
		scores := make([]gin.H, 0, len(teams))
		for _, t := range teams {
			scores = append(scores, gin.H{"team_id": t.ID, "score": t.Score})
		}
		c.JSON(http.StatusOK, gin.H{"ended_at": ended.EndedAt, "scores": scores})
	}
}

// @Summary Create a team in a game
// @Description The caller becomes the team pilot
// @Tags games
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param game_id path string true "Game identifier"
// @Param name formData string false "Team name"
// @Success 200 {object} object{team_id=string}
// @Router /auth/games/{game_id}/teams [post]
// @Security ApiKeyAuth
func CreateTeam(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		var name *string
		if v, exists := c.GetPostForm("name"); exists {
			name = &v
		}
		team, err := game.CreateTeam(db, sess, c.Param("game_id"), name)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"team_id": team.ID})
	}
}

// @Summary Add a member to a team
// @Description Pilots add anyone; other users may only add themselves
// @Tags games
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param team_id path string true "Team identifier"
// @Param user_id formData string true "User to add"
// @Success 200 {object} object{team_id=string}
// @Failure 400 {object} object{error=string}
// @Router /auth/teams/{team_id}/members [post]
// @Security ApiKeyAuth
func AddTeamMember(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		team, err := game.AddMember(db, sess, c.Param("team_id"), c.PostForm("user_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, teamView(*team))
	}
}

// @Summary Remove a member from a team
// @Tags games
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param team_id path string true "Team identifier"
// @Param user_id formData string true "User to remove"
// @Success 200 {object} object{team_id=string}
// @Failure 400 {object} object{error=string}
// @Router /auth/teams/{team_id}/members/remove [post]
// @Security ApiKeyAuth
func RemoveTeamMember(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		team, err := game.RemoveMember(db, sess, c.Param("team_id"), c.PostForm("user_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, teamView(*team))
	}
}

// @Summary Transfer the pilot seat
// @Description Current pilot only; the new pilot must already be on the team
// @Tags games
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param team_id path string true "Team identifier"
// @Param user_id formData string true "New pilot"
// @Success 200 {object} object{pilot_id=string}
// @Failure 400 {object} object{error=string}
// @Router /auth/teams/{team_id}/pilot [post]
// @Security ApiKeyAuth
func ChangeTeamPilot(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		team, err := game.ChangePilot(db, sess, c.Param("team_id"), c.PostForm("user_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, teamView(*team))
	}
}

// @Summary Leave a game
// @Description A departing pilot hands the seat to the next member; an
// emptied team is deleted.
// @Tags games
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param game_id path string true "Game identifier"
// @Success 200 {object} object{message=string}
// @Router /auth/games/{game_id}/leave [post]
// @Security ApiKeyAuth
func LeaveGame(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		if err := game.LeaveGame(db, sess, c.Param("game_id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Left game"})
	}
}

// @Summary Attach a trip to a team
// @Description The trip's plate marks feed the team score
// @Tags games
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param team_id path string true "Team identifier"
// @Param trip_id formData string true "Trip owned by the caller"
// @Success 200 {object} object{team_id=string}
// @Failure 403 {object} object{error=string}
// @Router /auth/teams/{team_id}/trips [post]
// @Security ApiKeyAuth
func AttachTripToTeam(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		team, err := game.AttachTrip(db, sess, c.Param("team_id"), c.PostForm("trip_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, teamView(*team))
	}
}

// @Summary Get live scores for a game
// @Description Recomputes from attached trips before returning
// @Tags games
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param game_id path string true "Game identifier"
// @Success 200 {object} map[string]interface{} "scores"
// @Router /auth/games/{game_id}/scores [get]
// @Security ApiKeyAuth
func GetGameScores(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameID := c.Param("game_id")
		if err := game.RecomputeScores(db, gameID); err != nil {
			respondError(c, err)
			return
		}
		teams, err := game.ListTeams(db, gameID)
		if err != nil {
			respondError(c, err)
			return
		}
		scores := make([]gin.H, 0, len(teams))
		for _, t := range teams {
			scores = append(scores, gin.H{"team_id": t.ID, "name": t.Name, "score": t.Score})
		}
		c.JSON(http.StatusOK, gin.H{"scores": scores})
	}
}

// @Summary Get or create the game share code
// @Tags games
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param game_id path string true "Game identifier"
// @Success 200 {object} object{share_code=string}
// @Router /auth/games/{game_id}/share_code [get]
// @Security ApiKeyAuth
func GetGameShareCode(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		code, err := sharecode.EnsureGameCode(db, c.Param("game_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"share_code": code})
	}
}
