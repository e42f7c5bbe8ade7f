package socket_io

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ChrisHammers/LicensePlateApp-sub000/services/auth"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/socket_io/handlers"
	socketio_types "github.com/ChrisHammers/LicensePlateApp-sub000/services/socket_io/types"

	"gorm.io/gorm"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

type MySocketServer socketio_types.SocketServer

// Start wires the family feed: clients authenticate with the same JWT the
// HTTP API uses, join rooms per family, and receive entity change events
// pushed by the sync loop. listener scopes the remote-change subscription
// to families someone is actually watching.
func (sio *MySocketServer) Start(router *gin.Engine, db *gorm.DB, provider auth.Provider, listener handlers.FamilyListener) {
	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	// NOTE: higher ping interval and timeout to 1) reduce network load and 2) support slower networks
	c.SetPingInterval(5 * time.Second)
	c.SetPingTimeout(3 * time.Second)
	c.SetMaxHttpBufferSize(1000000)
	c.SetConnectTimeout(10 * time.Second)
	c.SetTransports(types.NewSet("polling", "websocket"))
	c.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	sio.UserConnections = make(map[string]*socket.Socket)

	feeds := handlers.NewFeedSubscriptions(listener)

	sio.Sio_server = socket.NewServer(nil, nil)
	sio.Sio_server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)

		// Check if the client is authenticated
		success, userID := VerifyUserConnection(client, provider)
		if !success {
			return
		}

		(*socketio_types.SocketServer)(sio).AddConnection(userID, client)

		fmt.Println("An individual just connected!: ", userID)

		// Join the room that carries the caller's family change feed
		client.On("join_family_feed", handlers.HandleJoinFamilyFeed(client, db, userID, feeds))

		// Leave the feed voluntarily
		client.On("leave_family_feed", handlers.HandleLeaveFamilyFeed(client, userID, feeds))

		// NOTE: will remove sio connection from map and release its feeds
		client.On("disconnecting", handlers.HandleDisconnecting(userID, (*socketio_types.SocketServer)(sio), client, feeds))
	})

	router.POST("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))
	router.GET("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))

	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				sio.Sio_server.Close(nil)
				os.Exit(0)
			}
		}
	}()

	fmt.Println("Socket server started")
}

// BroadcastFamilyChange pushes an entity change event to every client
// subscribed to the family's feed room.
func (sio *MySocketServer) BroadcastFamilyChange(familyID string, payload interface{}) {
	if sio.Sio_server == nil {
		return
	}
	sio.Sio_server.To(socket.Room(handlers.FamilyRoom(familyID))).Emit("family_change", payload)
}
