package controllers

import (
	"net/http"
	"strconv"
	"strings"

	roadtrip "github.com/ChrisHammers/LicensePlateApp-sub000/constants/roadtrip"
	"github.com/ChrisHammers/LicensePlateApp-sub000/middleware"
	models "github.com/ChrisHammers/LicensePlateApp-sub000/models/postgres"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/family"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/sharecode"
	"github.com/ChrisHammers/LicensePlateApp-sub000/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary Create a family
// @Description The caller becomes the first Captain
// @Tags families
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param name formData string false "Family display name"
// @Success 200 {object} object{family_id=string}
// @Failure 400 {object} object{error=string}
// @Router /auth/families [post]
// @Security ApiKeyAuth
func CreateFamily(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		created, err := family.CreateFamily(db, sess, c.PostForm("name"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"family_id": created.ID})
	}
}

// @Summary Get a family with its members
// @Tags families
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param family_id path string true "Family identifier"
// @Success 200 {object} object{id=string,name=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/families/{family_id} [get]
// @Security ApiKeyAuth
func GetFamily(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		familyID := c.Param("family_id")

		fam, err := utils.CheckFamilyExists(db, familyID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Family not found"})
			return
		}

		members, err := family.ListMembers(db, familyID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching members"})
			return
		}

		memberViews := make([]gin.H, 0, len(members))
		for _, m := range members {
			memberViews = append(memberViews, gin.H{
				"id":        m.ID,
				"user_id":   m.UserID,
				"role":      m.Role,
				"is_active": m.IsActive,
				"status":    m.Status,
				"joined_at": m.JoinedAt,
			})
		}

		captainAtLimit, _ := family.IsAtLimit(db, familyID, roadtrip.RoleCaptain)
		scoutAtLimit, _ := family.IsAtLimit(db, familyID, roadtrip.RoleScout)

		c.JSON(http.StatusOK, gin.H{
			"id":               fam.ID,
			"name":             fam.Name,
			"max_captains":     fam.MaxCaptains,
			"max_scouts":       fam.MaxScouts,
			"captain_at_limit": captainAtLimit,
			"scout_at_limit":   scoutAtLimit,
			"members":          memberViews,
		})
	}
}

// @Summary Update a family
// @Description Rename or adjust the soft role limits. Captain only.
// @Tags families
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param family_id path string true "Family identifier"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} object{error=string}
// @Router /auth/families/{family_id} [patch]
// @Security ApiKeyAuth
func UpdateFamily(db *gorm.DB) gin.HandlerFunc {
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
		var maxCaptains, maxScouts *int
		if v, exists := c.GetPostForm("max_captains"); exists {
			n, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "max_captains must be a number"})
				return
			}
			maxCaptains = &n
		}
		if v, exists := c.GetPostForm("max_scouts"); exists {
			n, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "max_scouts must be a number"})
				return
			}
			maxScouts = &n
		}

		if _, err := family.UpdateFamily(db, sess, c.Param("family_id"), name, maxCaptains, maxScouts); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Family updated"})
	}
}

// @Summary Invite a user into a family
// @Description Creates a pending membership the target must accept
// @Tags families
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param family_id path string true "Family identifier"
// @Param user_id formData string true "User to invite"
// @Param role formData string true "Role for the new member"
// @Success 200 {object} object{member_id=string}
// @Failure 400 {object} object{error=string}
// @Router /auth/families/{family_id}/invite [post]
// @Security ApiKeyAuth
func InviteToFamily(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		targetID := c.PostForm("user_id")
		role := roadtrip.Role(c.PostForm("role"))
		if targetID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		member, err := family.InviteMember(db, sess, c.Param("family_id"), targetID, role)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"member_id": member.ID})
	}
}

// @Summary Respond to a family invitation
// @Tags families
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param member_id path string true "Invitation (member row) identifier"
// @Param accept formData boolean true "true to accept, false to decline"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Router /auth/invitations/{member_id}/respond [post]
// @Security ApiKeyAuth
func RespondToInvitation(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		accept, err := strconv.ParseBool(c.PostForm("accept"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "accept must be a boolean"})
			return
		}

		memberID := c.Param("member_id")
		if accept {
			if _, err := family.AcceptInvitation(db, sess, memberID); err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "Invitation accepted"})
			return
		}
		if err := family.DeclineInvitation(db, sess, memberID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Invitation declined"})
	}
}

// @Summary List the authenticated user's pending family invitations
// @Tags families
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} map[string]interface{} "received_invitations"
// @Router /auth/invitations [get]
// @Security ApiKeyAuth
func GetReceivedInvitations(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		var invitations []models.FamilyMember
		if err := db.Where("user_id = ? AND status = ?", sess.UserID, roadtrip.MemberStatusPending).
			Find(&invitations).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving invitations"})
			return
		}

		var invitationsInfo []gin.H
		for _, inv := range invitations {
			var fam models.Family
			if err := db.Where("id = ?", inv.FamilyID).First(&fam).Error; err != nil {
				continue
			}
			invitationsInfo = append(invitationsInfo, gin.H{
				"member_id":   inv.ID,
				"family_id":   fam.ID,
				"family_name": fam.Name,
				"role":        inv.Role,
				"invited_by":  inv.InvitedBy,
				"invited_at":  inv.InvitedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"received_invitations": invitationsInfo})
	}
}

// @Summary Leave a family
// @Description Deactivates the caller's membership; the row is kept for history
// @Tags families
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param family_id path string true "Family identifier"
// @Success 200 {object} object{message=string}
// @Router /auth/families/{family_id}/leave [post]
// @Security ApiKeyAuth
func LeaveFamily(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		if err := family.LeaveFamily(db, sess, c.Param("family_id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Left family"})
	}
}

// @Summary Remove a member from a family
// @Tags families
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param family_id path string true "Family identifier"
// @Param user_id formData string true "Member to deactivate"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} object{error=string}
// @Router /auth/families/{family_id}/remove [post]
// @Security ApiKeyAuth
func RemoveFamilyMember(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		targetID := c.PostForm("user_id")
		if targetID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}
		if err := family.RemoveMember(db, sess, c.Param("family_id"), targetID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
	}
}

// @Summary Get or create the family share code
// @Tags families
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param family_id path string true "Family identifier"
// @Success 200 {object} object{share_code=string}
// @Router /auth/families/{family_id}/share_code [get]
// @Security ApiKeyAuth
func GetFamilyShareCode(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		code, err := sharecode.EnsureFamilyCode(db, c.Param("family_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"share_code": code})
	}
}

// @Summary Regenerate the family share code
// @Description The previous code stops resolving immediately
// @Tags families
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param family_id path string true "Family identifier"
// @Success 200 {object} object{share_code=string}
// @Router /auth/families/{family_id}/share_code [post]
// @Security ApiKeyAuth
func RegenerateFamilyShareCode(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		code, err := sharecode.RegenerateFamilyCode(db, c.Param("family_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"share_code": code})
	}
}

// @Summary Join a family via share code
// @Description Possession of the code substitutes for approval: the
// membership is created directly as accepted and active. Role limits are
// soft; at_limit flags when the family already has enough of the role.
// @Tags families
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param code formData string true "Share code"
// @Param role formData string true "Role to join with"
// @Success 200 {object} object{member_id=string,at_limit=boolean}
// @Failure 404 {object} object{error=string}
// @Router /auth/families/join [post]
// @Security ApiKeyAuth
func JoinFamilyByCode(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		code := strings.TrimSpace(c.PostForm("code"))
		role := roadtrip.Role(c.PostForm("role"))

		member, atLimit, err := family.JoinViaShareCode(db, sess, code, role)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"member_id": member.ID,
			"family_id": member.FamilyID,
			"at_limit":  atLimit,
		})
	}
}
