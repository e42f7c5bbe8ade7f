package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ChrisHammers/LicensePlateApp-sub000/middleware"
	models "github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/competition"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary Create a competition
// @Tags competitions
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param name formData string true "Competition name"
// @Param description formData string false "Description"
// @Param type formData string false "scheduled or open_ended"
// @Param starts_at formData string true "RFC3339 start time"
// @Param ends_at formData string false "RFC3339 end time"
// @Success 200 {object} object{competition_id=string}
// @Failure 400 {object} object{error=string}
// @Router /auth/competitions [post]
// @Security ApiKeyAuth
func CreateCompetition(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		startsAt, err := time.Parse(time.RFC3339, c.PostForm("starts_at"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "starts_at must be RFC3339"})
			return
		}
		params := competition.CreateParams{
			Name:        c.PostForm("name"),
			Description: c.PostForm("description"),
			Type:        c.PostForm("type"),
			StartsAt:    startsAt,
		}
		if v, exists := c.GetPostForm("ends_at"); exists {
			endsAt, err := time.Parse(time.RFC3339, v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "ends_at must be RFC3339"})
				return
			}
			params.EndsAt = &endsAt
		}

		created, err := competition.CreateCompetition(db, sess, params)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"competition_id": created.ID})
	}
}

// @Summary List competitions
// @Tags competitions
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} map[string]interface{} "competitions"
// @Router /auth/competitions [get]
// @Security ApiKeyAuth
func GetCompetitions(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var comps []models.Competition
		if err := db.Order("starts_at desc").Find(&comps).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving competitions"})
			return
		}
		var compsInfo []gin.H
		for _, comp := range comps {
			compsInfo = append(compsInfo, gin.H{
				"competition_id": comp.ID,
				"name":           comp.Name,
				"type":           comp.Type,
				"starts_at":      comp.StartsAt,
				"ends_at":        comp.EndsAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"competitions": compsInfo})
	}
}

// @Summary Report a score into a competition
// @Description Upserts the subject's entry and recomputes the ranking
// @Tags competitions
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param competition_id path string true "Competition identifier"
// @Param scope formData string true "user, family or team"
// @Param subject_id formData string true "Subject identifier"
// @Param score formData integer true "Score value"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Router /auth/competitions/{competition_id}/scores [post]
// @Security ApiKeyAuth
func ReportCompetitionScore(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		score, err := strconv.Atoi(c.PostForm("score"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "score must be a number"})
			return
		}
		err = competition.UpsertScore(db, c.Param("competition_id"), c.PostForm("scope"), c.PostForm("subject_id"), score)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Score recorded"})
	}
}

// @Summary Get the leaderboard for a competition
// @Tags competitions
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param competition_id path string true "Competition identifier"
// @Success 200 {object} map[string]interface{} "leaderboard"
// @Failure 404 {object} object{error=string}
// @Router /auth/competitions/{competition_id}/leaderboard [get]
// @Security ApiKeyAuth
func GetLeaderboard(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := competition.Leaderboard(db, c.Param("competition_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		var board []gin.H
		for _, e := range entries {
			board = append(board, gin.H{
				"rank":       e.Rank,
				"scope":      e.Scope,
				"subject_id": e.SubjectID,
				"score":      e.Score,
			})
		}
		c.JSON(http.StatusOK, gin.H{"leaderboard": board})
	}
}
