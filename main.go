package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ChrisHammers/LicensePlateApp-sub000/config"
	_ "github.com/ChrisHammers/LicensePlateApp-sub000/config/swagger"
	"github.com/ChrisHammers/LicensePlateApp-sub000/middleware"
	"github.com/ChrisHammers/LicensePlateApp-sub000/routes"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/auth"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/remote"
	"github.com/ChrisHammers/LicensePlateApp-sub000/services/socket_io"
	appsync "github.com/ChrisHammers/LicensePlateApp-sub000/sync"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// @title License Plate Game API
// @version 1.0
// @description Gin-Gonic server for the family road trip plate game
// @BasePath /
func main() {
	godotenv.Load()
	log.Println("Setting up server...")

	if os.Getenv("PROD") == "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	gormDB, err := config.ConnectGORM()
	if err != nil {
		log.Fatalf("Error connecting to PostgreSQL: %v", err)
	}
	log.Println("GORM Connected")

	// Only migrate in development or during deployment
	if os.Getenv("MIGRATE_POSTGRES") == "true" {
		log.Println("Migrating PostgreSQL database...")
		if err := config.MigrateDatabase(gormDB); err != nil {
			log.Printf("Warning: Database migration failed: %v", err)
		} else {
			log.Println("Database migrated successfully")
		}
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("Error reading GORM PostgreSQL instance: %v", err)
	}
	defer sqlDB.Close()

	redisClient, err := config.ConnectRedis()
	if err != nil {
		log.Fatalf("Error connecting to Redis: %v", err)
	}
	defer config.CloseRedis(redisClient)

	provider := auth.NewJWTProvider()

	// Background push loop draining dirty rows to the remote store
	reconciler := appsync.NewReconciler(gormDB, remote.NewRedisStore(redisClient), 5*time.Second)
	reconciler.OnConnectivity = provider.SetOnline

	r := gin.Default()

	middleware.SetUpMiddleware(r)

	routes.SetupRoutes(r, gormDB, provider)

	// Family feeds scope the reconciler's remote-change listeners to the
	// families clients are actually watching
	sio := &socket_io.MySocketServer{}
	sio.Start(r, gormDB, provider, reconciler)

	// Remote changes applied locally fan out to the family feed room
	reconciler.Notify = func(change remote.Change) {
		parts := strings.Split(change.Path, "/")
		if len(parts) >= 2 && parts[0] == "families" {
			sio.BroadcastFamilyChange(parts[1], gin.H{
				"path":       change.Path,
				"updated_at": change.UpdatedAt,
			})
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reconciler.Start(ctx)
	defer reconciler.Stop()

	// Configure port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server started on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}
