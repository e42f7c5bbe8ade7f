package controllers

import (
	"net/http"
	"strconv"
	"strings"

	models "github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	"github.com/ChrisHammers/LicensePlateApp-sub000/middleware"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/auth"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/users"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary Register a new user
// @Description Creates a local account with a unique username
// @Tags users
// @Accept x-www-form-urlencoded
// @Produce json
// @Param username formData string true "Display name, unique"
// @Param email formData string true "Email address"
// @Param password formData string true "Password"
// @Success 200 {object} object{user_id=string}
// @Failure 400 {object} object{error=string}
// @Router /signup [post]
func SignUp(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.PostForm("username")
		email := c.PostForm("email")
		password := c.PostForm("password")

		// Minimum input sanitizing
		if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parameters can't be empty"})
			return
		}

		user, err := users.Register(db, username, email, password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": user.ID})
	}
}

// @Summary Log in
// @Description Verifies credentials and returns a bearer token
// @Tags users
// @Accept x-www-form-urlencoded
// @Produce json
// @Param email formData string true "Email address"
// @Param password formData string true "Password"
// @Success 200 {object} object{token=string,user_id=string}
// @Failure 401 {object} object{error=string}
// @Router /login [post]
func Login(db *gorm.DB, provider *auth.JWTProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.PostForm("email")
		password := c.PostForm("password")

		if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parameters can't be empty"})
			return
		}

		user, err := users.Authenticate(db, email, password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password!"})
			return
		}

		token, err := provider.IssueToken(user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error issuing token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "user_id": user.ID})
	}
}

// @Summary Get the authenticated user's private info
// @Tags users
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} object{id=string,username=string,email=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/me [get]
// @Security ApiKeyAuth
func GetUserPrivateInfo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		var user models.User
		if err := db.Where("id = ?", sess.UserID).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"email":        user.Email,
			"phone":        user.Phone,
			"email_public": user.EmailPublic,
			"phone_public": user.PhonePublic,
			"family_id":    user.FamilyID,
			"friends":      user.FriendIDs(),
			"needs_sync":   user.NeedsSync,
			"claimed":      user.Claimed,
		})
	}
}

// @Summary Get a user's public info
// @Description Contact fields only show when the user made them public
// @Tags users
// @Produce json
// @Param user_id path string true "User identifier"
// @Success 200 {object} object{id=string,username=string}
// @Failure 404 {object} object{error=string}
// @Router /users/{user_id} [get]
func GetUserPublicInfo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := db.Where("id = ?", c.Param("user_id")).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusOK, users.PublicView(&user))
	}
}

// @Summary Update the authenticated user's profile
// @Tags users
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param username formData string false "New display name"
// @Param phone formData string false "New phone number"
// @Param email_public formData boolean false "Email visibility"
// @Param phone_public formData boolean false "Phone visibility"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Router /auth/update [patch]
// @Security ApiKeyAuth
func UpdateUserInfo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		var update users.ProfileUpdate
		if v, exists := c.GetPostForm("username"); exists {
			update.Username = &v
		}
		if v, exists := c.GetPostForm("phone"); exists {
			update.Phone = &v
		}
		if v, exists := c.GetPostForm("email_public"); exists {
			b, err := strconv.ParseBool(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "email_public must be a boolean"})
				return
			}
			update.EmailPublic = &b
		}
		if v, exists := c.GetPostForm("phone_public"); exists {
			b, err := strconv.ParseBool(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "phone_public must be a boolean"})
				return
			}
			update.PhonePublic = &b
		}

		if _, err := users.UpdateProfile(db, sess, update); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
	}
}

// @Summary Claim a provider identity
// @Description Migrates the local-only user id to a provider-issued one, exactly once
// @Tags users
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param provider_id formData string true "Provider-issued identifier"
// @Success 200 {object} object{message=string,token=string}
// @Failure 400 {object} object{error=string}
// @Router /auth/claim [post]
// @Security ApiKeyAuth
func ClaimIdentity(db *gorm.DB, provider *auth.JWTProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		providerID := strings.TrimSpace(c.PostForm("provider_id"))
		if providerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provider_id is required"})
			return
		}

		if err := users.ClaimIdentity(db, sess.UserID, providerID, provider.FireIdentityClaimed); err != nil {
			respondError(c, err)
			return
		}

		// The old token references the retired id
		token, err := provider.IssueToken(providerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error issuing token"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Identity claimed", "token": token})
	}
}
