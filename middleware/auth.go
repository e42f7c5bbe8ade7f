package middleware

import (
	"net/http"
	"strings"

	"github.com/ChrisHammers/LicensePlateApp-sub000/services/auth"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/session"
	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// AuthRequired validates the Bearer token and stores the caller's
// session in the gin context for the handlers downstream.
func AuthRequired(provider auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		userID, err := provider.CurrentUserID(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(sessionKey, session.New(userID, provider.IsOnline()))
		c.Next()
	}
}

// SessionFrom returns the session AuthRequired stored on the context
func SessionFrom(c *gin.Context) (session.Session, bool) {
	value, exists := c.Get(sessionKey)
	if !exists {
		return session.Session{}, false
	}
	sess, ok := value.(session.Session)
	return sess, ok
}
