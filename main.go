package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"gan-backend/handlers"
	"gan-backend/middleware"
	"gan-backend/models"
	"gan-backend/services"
	"gan-backend/utils"
	"gan-backend/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment variables directly")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	// TranslateError maps unique-constraint violations to
	// gorm.ErrDuplicatedKey, which the registration path relies on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.AdminUser{},
		&models.Wallet{},
		&models.Transaction{},
		&models.Tournament{},
		&models.TokenBundle{},
		&models.Registration{},
		&models.Product{},
		&models.SiteSetting{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	seedTokenBundles(db)

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB, banners are capped well below this
	})

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		log.Println("ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOrigins = "http://localhost:3000"
	}
	origins := strings.Split(allowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(middleware.Maintenance(db))

	walletService := services.NewWalletService(db)
	whatsappService := services.NewWhatsAppService(db)
	authService := services.NewAuthService(db)
	tournamentService := services.NewTournamentService(db, walletService, whatsappService)
	paymentService := services.NewPaymentService(db, walletService)
	adminService := services.NewAdminService(db, walletService, tournamentService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, err := tournamentService.StartScheduler()
	if err != nil {
		log.Fatal("failed to start scheduler:", err)
	}
	defer func() { _ = sched.Shutdown() }()

	reconcileWorker := workers.NewPaymentReconcileWorker(db, paymentService)
	reconcileWorker.Start(ctx)

	handlers.SetupPublicRoutes(app, paymentService)
	handlers.SetupAuthRoutes(app, authService)
	handlers.SetupWalletRoutes(app, authService, walletService)
	handlers.SetupTournamentRoutes(app, authService, tournamentService)
	handlers.SetupPaymentRoutes(app, authService, paymentService)
	handlers.SetupWhatsAppRoutes(app, authService, whatsappService)
	handlers.SetupAdminRoutes(app, adminService, tournamentService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Server running on http://localhost:%s", port)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// seedTokenBundles installs the default catalog on first boot. Admins can
// edit or disable bundles afterwards; an existing catalog is never touched.
func seedTokenBundles(db *gorm.DB) {
	var count int64
	db.Model(&models.TokenBundle{}).Count(&count)
	if count > 0 {
		return
	}

	bundles := []models.TokenBundle{
		{Name: "Starter Pack", Tokens: 100, BonusTokens: 0, PricePKR: 1399, PriceUSD: 4.99, Description: "Perfect for trying your first tournament", SortOrder: 1},
		{Name: "Popular Pack", Tokens: 200, BonusTokens: 10, PricePKR: 2239, PriceUSD: 7.99, Description: "Most popular choice", Badge: "POPULAR", SortOrder: 2, IsFeatured: true},
		{Name: "Value Pack", Tokens: 500, BonusTokens: 50, PricePKR: 5039, PriceUSD: 17.99, Description: "Great value with bonus tokens", Badge: "BEST VALUE", SortOrder: 3},
		{Name: "Pro Pack", Tokens: 1000, BonusTokens: 150, PricePKR: 8399, PriceUSD: 29.99, Description: "For serious competitors", SortOrder: 4},
		{Name: "Ultimate Pack", Tokens: 2500, BonusTokens: 500, PricePKR: 19599, PriceUSD: 69.99, Description: "Maximum tokens, maximum bonus", Badge: "ULTIMATE", SortOrder: 5},
	}
	for i := range bundles {
		bundles[i].ID = uuid.NewString()
		bundles[i].IsActive = true
	}
	if err := db.Create(&bundles).Error; err != nil {
		log.Printf("failed to seed token bundles: %v", err)
		return
	}
	log.Printf("seeded %d default token bundles", len(bundles))
}
