package controllers

import (
	"net/http"
	"strconv"

	"github.com/ChrisHammers/LicensePlateApp-sub000/middleware"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/friends"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// @Summary Send a friend request
// @Description When the recipient is a Scout the request is routed to their
// family Captain for approval instead of the recipient.
// @Tags friends
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param user_id formData string true "Recipient user id"
// @Success 200 {object} object{request_id=string,status=string}
// @Failure 409 {object} object{error=string}
// @Router /auth/friends/request [post]
// @Security ApiKeyAuth
func SendFriendRequest(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		toUserID := c.PostForm("user_id")
		if toUserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
			return
		}

		request, err := friends.SendRequest(db, sess, toUserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"request_id": request.ID, "status": request.Status})
	}
}

// @Summary Respond to a friend request
// @Description The recipient approves or denies. Requests waiting on captain
// approval are answered by a Captain of the Scout's family instead.
// @Tags friends
// @Accept x-www-form-urlencoded
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param request_id path string true "Friend request identifier"
// @Param approve formData boolean true "true to approve, false to deny"
// @Success 200 {object} object{status=string}
// @Failure 403 {object} object{error=string}
// @Router /auth/friends/request/{request_id}/respond [post]
// @Security ApiKeyAuth
func RespondToFriendRequest(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		approve, err := strconv.ParseBool(c.PostForm("approve"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "approve must be a boolean"})
			return
		}

		request, err := friends.Respond(db, sess, c.Param("request_id"), approve)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": request.Status, "approved_by": request.ApprovedBy})
	}
}

// @Summary List the authenticated user's friends
// @Tags friends
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} map[string]interface{} "friends"
// @Router /auth/friends [get]
// @Security ApiKeyAuth
func GetFriends(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		list, err := friends.ListFriends(db, sess.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		var friendsInfo []gin.H
		for _, f := range list {
			friendsInfo = append(friendsInfo, gin.H{
				"id":       f.ID,
				"username": f.Username,
			})
		}
		c.JSON(http.StatusOK, gin.H{"friends": friendsInfo})
	}
}

// @Summary List received friend requests still pending
// @Tags friends
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} map[string]interface{} "received_requests"
// @Router /auth/friends/requests/received [get]
// @Security ApiKeyAuth
func GetReceivedFriendRequests(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		requests, err := friends.ListReceived(db, sess.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		var requestsInfo []gin.H
		for _, r := range requests {
			requestsInfo = append(requestsInfo, gin.H{
				"request_id": r.ID,
				"from_user":  r.FromUserID,
				"status":     r.Status,
				"created_at": r.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"received_requests": requestsInfo})
	}
}

// @Summary List sent friend requests still outstanding
// @Tags friends
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {object} map[string]interface{} "sent_requests"
// @Router /auth/friends/requests/sent [get]
// @Security ApiKeyAuth
func GetSentFriendRequests(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := middleware.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		requests, err := friends.ListSent(db, sess.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		var requestsInfo []gin.H
		for _, r := range requests {
			requestsInfo = append(requestsInfo, gin.H{
				"request_id": r.ID,
				"to_user":    r.ToUserID,
				"status":     r.Status,
				"created_at": r.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"sent_requests": requestsInfo})
	}
}

// @Summary List friend requests waiting on captain approval for a family
// @Tags friends
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param family_id path string true "Family identifier"
// @Success 200 {object} map[string]interface{} "pending_approvals"
// @Router /auth/families/{family_id}/friend_approvals [get]
// @Security ApiKeyAuth
func GetPendingCaptainApprovals(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		requests, err := friends.PendingCaptainApprovals(db, c.Param("family_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		var requestsInfo []gin.H
		for _, r := range requests {
			requestsInfo = append(requestsInfo, gin.H{
				"request_id": r.ID,
				"from_user":  r.FromUserID,
				"to_user":    r.ToUserID,
				"created_at": r.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"pending_approvals": requestsInfo})
	}
}
