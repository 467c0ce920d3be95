package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"chess-wager-system/handlers"
	"chess-wager-system/models"
	"chess-wager-system/services"
	"chess-wager-system/utils"
	"chess-wager-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB — enough for appeal evidence screenshots
	})

	// CORS for the browser frontend
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	if err := utils.InitEvidenceStore(); err != nil {
		log.Printf("⚠️  Evidence store disabled (appeals will be text-only): %v", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Account{},
		&models.Challenge{},
		&models.Match{},
		&models.Appeal{},
		&models.Transaction{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	cfg := services.LoadConfig()
	lichess := services.NewLichessClient()

	authService := services.NewAuthService(db, lichess, jwtSecret)
	walletService := services.NewWalletService(db, cfg)
	challengeService := services.NewChallengeService(db, cfg)
	matchService := services.NewMatchService(db, cfg, lichess)
	adminService := services.NewAdminService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Rating refresh poller (display only, settlement never reads it)
	ratingClient := workers.NewRatingSyncClient(db, lichess)
	go workers.PollRatings(ctx, ratingClient, 10*time.Minute)

	// Minutely sweep: expire stale challenges, release elapsed appeal windows
	matchService.StartHousekeeping()

	secret := []byte(jwtSecret)
	handlers.SetupAuthRoutes(app, authService, secret)
	handlers.SetupWageringRoutes(app, walletService, challengeService, matchService, secret)
	handlers.SetupAdminRoutes(app, adminService, secret)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Housekeeping sweep running (every 1m)")
	log.Println("✅ Rating polling running (every 10m)")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}
