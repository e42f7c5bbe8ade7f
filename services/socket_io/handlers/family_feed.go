package handlers

import (
	"context"
	"fmt"

	socketio_types "github.com/ChrisHammers/LicensePlateApp-sub000/services/socket_io/types"
	"github.com/ChrisHammers/LicensePlateApp-sub000/utils"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
	"gorm.io/gorm"
)

// FamilyRoom names the per-family feed room
func FamilyRoom(familyID string) string {
	return "family:" + familyID
}

// HandleJoinFamilyFeed subscribes the client to its family's change feed.
// Only active accepted members may listen. Joining also opens the remote
// subscription (refcounted in feeds) so inbound changes get merged and
// broadcast while someone is watching.
func HandleJoinFamilyFeed(client *socket.Socket, db *gorm.DB, userID string, feeds *FeedSubscriptions) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 1 {
			client.Emit("error", gin.H{"error": "Missing family ID"})
			return
		}
		familyID, ok := args[0].(string)
		if !ok {
			client.Emit("error", gin.H{"error": "Invalid family ID"})
			return
		}

		if _, err := utils.CheckFamilyExists(db, familyID); err != nil {
			fmt.Println("Family does not exist:", familyID)
			client.Emit("error", gin.H{"error": "Family does not exist"})
			return
		}

		active, err := utils.IsActiveFamilyMember(db, familyID, userID)
		if err != nil || !active {
			fmt.Println("User is NOT an active member:", userID, "Family:", familyID)
			client.Emit("error", gin.H{"error": "You must be an active family member to listen"})
			return
		}

		if err := feeds.Join(context.Background(), string(client.Id()), familyID); err != nil {
			fmt.Println("Error subscribing to remote changes for family:", familyID, err)
			client.Emit("error", gin.H{"error": "Could not subscribe to the family feed"})
			return
		}

		client.Join(socket.Room(FamilyRoom(familyID)))
		fmt.Println("Client joined family feed:", familyID)
		client.Emit("family_feed_joined", gin.H{"family_id": familyID})
	}
}

// HandleLeaveFamilyFeed unsubscribes the client from a family feed room
// and drops its reference on the remote subscription
func HandleLeaveFamilyFeed(client *socket.Socket, userID string, feeds *FeedSubscriptions) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 1 {
			client.Emit("error", gin.H{"error": "Missing family ID"})
			return
		}
		familyID, ok := args[0].(string)
		if !ok {
			client.Emit("error", gin.H{"error": "Invalid family ID"})
			return
		}
		if err := feeds.Leave(string(client.Id()), familyID); err != nil {
			fmt.Println("Error releasing remote subscription for family:", familyID, err)
		}
		client.Leave(socket.Room(FamilyRoom(familyID)))
		fmt.Println("Client left family feed:", familyID, "User:", userID)
		client.Emit("family_feed_left", gin.H{"family_id": familyID})
	}
}

// HandleDisconnecting removes the connection from the server map and
// releases every feed subscription the client still holds
func HandleDisconnecting(userID string, sio *socketio_types.SocketServer, client *socket.Socket, feeds *FeedSubscriptions) func(args ...interface{}) {
	return func(args ...interface{}) {
		fmt.Println("User disconnecting:", userID)
		if err := feeds.Drop(string(client.Id())); err != nil {
			fmt.Println("Error releasing feed subscriptions for user:", userID, err)
		}
		sio.RemoveConnection(userID)
	}
}
