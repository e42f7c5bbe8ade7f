package socket_io

import (
	"fmt"
	"strings"

	"github.com/ChrisHammers/LicensePlateApp-sub000/services/auth"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// VerifyUserConnection verifies a socket.io client connection using the
// same bearer token the HTTP API accepts, and resolves the user id it
// carries.
func VerifyUserConnection(client *socket.Socket, provider auth.Provider) (success bool, userID string) {
	// Checks if we have auth data in the connection
	authData, ok := client.Handshake().Auth.(map[string]interface{})
	if !ok {
		fmt.Println("No auth data provided in handshake!")
		client.Emit("error", gin.H{"error": "Authentication failed: missing auth data"})
		return false, ""
	}

	token, exists := authData["authorization"].(string)
	if !exists {
		fmt.Println("No authorization token provided in handshake!")
		client.Emit("error", gin.H{"error": "Authentication failed: missing authorization token"})
		return false, ""
	}
	token = strings.TrimPrefix(token, "Bearer ")

	userID, err := provider.CurrentUserID(token)
	if err != nil {
		fmt.Println("Error decoding JWT:", err)
		client.Emit("error", gin.H{
			"error": "Authentication failed: invalid JWT. Remember to set it on the 'Authorization' field and with the 'Bearer ' prefix.",
		})
		return false, ""
	}

	return true, userID
}
