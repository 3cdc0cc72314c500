package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"prize-hunt-system/handlers"
	"prize-hunt-system/middleware"
	"prize-hunt-system/models"
	"prize-hunt-system/services"
	"prize-hunt-system/utils"
	"prize-hunt-system/workers"

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
		BodyLimit: 1 * 1024 * 1024, // claims and telemetry are small JSON bodies
	})

	// 🔐 GLOBAL: only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

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
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles, X-Device-ID",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID, Retry-After",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Prize{},
		&models.Claim{},
		&models.Reward{},
		&models.Redemption{},
		&models.GameUser{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.PlaySession{},
		&models.SessionLocation{},
		&models.IdempotencyRecord{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// Fire-and-forget queues between the claim path and background workers.
	// Bounded so a claim burst never unbounded-spawns work; full queues drop
	// with a log line instead of blocking settlement.
	events := make(chan models.GameEvent, 256)
	audits := make(chan models.AntiCheatAuditRecord, 128)

	claimService := services.NewClaimService(db, events, audits)
	prizeService := services.NewPrizeService(db)
	redemptionService := services.NewRedemptionService(db)
	achievementService := services.NewAchievementService(db)
	sessionService := services.NewSessionService(db, events)
	liveFeedService := services.NewLiveFeedService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	achievementWorker := workers.NewAchievementWorker(achievementService, events, 4)
	achievementWorker.Start(ctx)

	auditArchiver := workers.NewAuditArchiver(audits)
	go auditArchiver.Start(ctx)

	services.StartSweepers(prizeService, sessionService, claimService)

	handlers.SetupClaimRoutes(app, claimService, liveFeedService)
	handlers.SetupPrizeRoutes(app, prizeService)
	handlers.SetupSessionRoutes(app, sessionService)
	handlers.SetupAchievementRoutes(app, achievementService)
	handlers.SetupRedemptionRoutes(app, redemptionService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Achievement worker pool running")
	log.Println("✅ Anti-cheat audit archiver running")
	log.Println("✅ Sweepers scheduled (prizes, sessions, idempotency)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
