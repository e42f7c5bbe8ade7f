package controllers

import (
	"net/http"
	"strings"

	"github.com/ChrisHammers/LicensePlateApp-sub000/middleware"
	models "github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/trips"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func splitCountries(raw string) []string {
	var out []string
	for _, code := range strings.Split(raw, ",") {
		if code = strings.TrimSpace(code); code != "" {
			out = append(out, code)
		}
	}
	return out
}

// @Summary Create a trip
// @Tags trips
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param name formData string true "Trip name"
// @Param countries formData string false "Comma separated ISO country codes"
// @Success 200 {object} object{trip_id=string}
// @Failure 403 {object} object{error=string}
// @Router /auth/trips [post]
// @Security ApiKeyAuth
func CreateTrip(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		trip, err := trips.CreateTrip(db, sess, c.PostForm("name"), splitCountries(c.PostForm("countries")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"trip_id": trip.ID})
	}
}

// @Summary List the authenticated user's trips
// @Tags trips
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} map[string]interface{} "trips"
// @Router /auth/trips [get]
// @Security ApiKeyAuth
func GetTrips(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		list, err := trips.ListTrips(db, sess)
		if err != nil {
			respondError(c, err)
			return
		}
		var tripsInfo []gin.H
		for _, t := range list {
			tripsInfo = append(tripsInfo, gin.H{
				"trip_id":    t.ID,
				"name":       t.Name,
				"countries":  models.DecodeStringList(t.Countries),
				"started_at": t.StartedAt,
				"ended_at":   t.EndedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"trips": tripsInfo})
	}
}

// @Summary Update trip settings
// @Tags trips
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param trip_id path string true "Trip identifier"
// @Param name formData string false "New trip name"
// @Param countries formData string false "Comma separated ISO country codes"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} object{error=string}
// @Router /auth/trips/{trip_id} [patch]
// @Security ApiKeyAuth
func UpdateTrip(db *gorm.DB) gin.HandlerFunc {
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
		var countries []string
		if v, exists := c.GetPostForm("countries"); exists {
			countries = splitCountries(v)
		}
		if _, err := trips.UpdateTripSettings(db, sess, c.Param("trip_id"), name, countries); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Trip updated"})
	}
}

// @Summary Record a plate sighting on a trip
// @Tags trips
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param trip_id path string true "Trip identifier"
// @Param country formData string true "ISO country code of the plate"
// @Success 200 {object} object{mark_id=string}
// @Failure 400 {object} object{error=string}
// @Router /auth/trips/{trip_id}/marks [post]
// @Security ApiKeyAuth
func MarkPlate(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		mark, err := trips.MarkPlate(db, sess, c.Param("trip_id"), c.PostForm("country"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"mark_id": mark.ID, "seen_at": mark.SeenAt})
	}
}

// @Summary End a trip
// @Tags trips
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param trip_id path string true "Trip identifier"
// @Success 200 {object} object{ended_at=string}
// @Router /auth/trips/{trip_id}/end [post]
// @Security ApiKeyAuth
func EndTrip(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		trip, err := trips.EndTrip(db, sess, c.Param("trip_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ended_at": trip.EndedAt})
	}
}
