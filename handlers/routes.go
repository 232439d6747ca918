package handlers

import (
	"gan-backend/middleware"
	"gan-backend/services"

	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes wires Google OAuth, session and profile endpoints.
func SetupAuthRoutes(app *fiber.App, auth *services.AuthService) {
	// Public OAuth flow
	app.Get("/api/auth/google", auth.GoogleLogin)
	app.Get("/api/auth/google/callback", auth.GoogleCallback)
	app.Get("/api/auth/dev-login", auth.DevLogin)
	app.Post("/api/auth/logout", auth.Logout)

	secured := app.Group("/api", middleware.UserAuth(auth))
	secured.Get("/auth/me", auth.Me)
	secured.Get("/users/profile", auth.Me)
	secured.Put("/users/profile", auth.UpdateProfile)
	secured.Get("/users/check-profile-status", auth.ProfileStatus)
	secured.Get("/users/search", auth.SearchUser)
}

// SetupWalletRoutes wires balance, history and transfer endpoints.
func SetupWalletRoutes(app *fiber.App, auth *services.AuthService, wallets *services.WalletService) {
	secured := app.Group("/api/wallet", middleware.UserAuth(auth))
	secured.Get("/balance", wallets.GetBalance)
	secured.Get("/transactions", wallets.GetTransactions)
	secured.Post("/transfer", wallets.TransferTokens)
}

// SetupTournamentRoutes wires the player-facing tournament endpoints.
func SetupTournamentRoutes(app *fiber.App, auth *services.AuthService, tournaments *services.TournamentService) {
	// Browsing is public; the detail endpoint reveals room credentials to
	// registered callers, so it parses the token when one is sent.
	app.Get("/api/tournaments", tournaments.ListTournaments)
	app.Get("/api/tournaments/:id", middleware.OptionalUserAuth(auth), tournaments.GetTournament)

	secured := app.Group("/api", middleware.UserAuth(auth))
	secured.Post("/tournaments/:id/register", tournaments.RegisterForTournament)
	secured.Get("/tournaments/:id/participants", tournaments.GetParticipants)
	secured.Post("/tournaments/:id/check-in", tournaments.CheckIn)
	secured.Get("/registrations/my", tournaments.GetMyRegistrations)
}

// SetupPaymentRoutes wires bundle listing, purchase initiation and the
// gateway webhooks. Webhooks are unauthenticated; they carry their own
// signatures.
func SetupPaymentRoutes(app *fiber.App, auth *services.AuthService, payments *services.PaymentService) {
	app.Get("/api/payments/bundles", payments.GetBundles)
	app.Post("/api/payments/callback/easypaisa", payments.EasypaisaCallback)
	app.Post("/api/payments/callback/jazzcash", payments.JazzCashCallback)

	secured := app.Group("/api/payments", middleware.UserAuth(auth))
	secured.Post("/initiate", payments.InitiatePayment)
	secured.Get("/status/:id", payments.CheckStatus)
	secured.Get("/receipt/:id", payments.GetReceipt)
	secured.Post("/products/buy", payments.BuyProduct)
}

// SetupWhatsAppRoutes wires number verification.
func SetupWhatsAppRoutes(app *fiber.App, auth *services.AuthService, whatsapp *services.WhatsAppService) {
	secured := app.Group("/api/whatsapp", middleware.UserAuth(auth))
	secured.Post("/send-code", whatsapp.SendCode)
	secured.Post("/verify-code", whatsapp.VerifyCode)
}

// SetupAdminRoutes wires the back-office. Everything except login and the
// one-time setup requires an admin token.
func SetupAdminRoutes(app *fiber.App, admin *services.AdminService, tournaments *services.TournamentService) {
	app.Post("/api/admin/auth/login", admin.Login)
	app.Get("/api/admin/auth/check-setup", admin.CheckSetup)
	app.Post("/api/admin/auth/setup", admin.Setup)

	secured := app.Group("/api/admin", middleware.AdminAuth(admin))
	secured.Get("/auth/me", admin.MeAdmin)
	secured.Get("/dashboard/stats", admin.DashboardStats)

	secured.Get("/users", admin.ListUsers)
	secured.Get("/users/:id", admin.GetUser)
	secured.Put("/users/:id/block", admin.BlockUser)
	secured.Put("/users/:id/unblock", admin.UnblockUser)
	secured.Delete("/users/:id", middleware.SuperAdminOnly(), admin.DeleteUser)

	secured.Get("/wallets", admin.ListWallets)
	secured.Post("/wallets/:id/add-tokens", admin.GrantTokens)

	secured.Get("/tournaments", admin.ListTournamentsAdmin)
	secured.Post("/tournaments", admin.CreateTournament)
	secured.Get("/tournaments/:id", admin.GetTournamentAdmin)
	secured.Put("/tournaments/:id", admin.UpdateTournament)
	secured.Delete("/tournaments/:id", admin.DeleteTournament)
	secured.Post("/tournaments/:id/complete", admin.CompleteTournament)
	secured.Post("/tournaments/:id/notify-room", tournaments.NotifyRoomDetails)
	secured.Post("/upload/banner", admin.UploadBanner)

	secured.Get("/transactions", admin.ListTransactions)
	secured.Get("/transactions/stats", admin.TransactionStats)
	secured.Get("/rewards/leaderboard", admin.RewardsLeaderboard)

	secured.Get("/bundles", admin.ListBundlesAdmin)
	secured.Post("/bundles", admin.CreateBundle)
	secured.Put("/bundles/:id", admin.UpdateBundle)
	secured.Delete("/bundles/:id", admin.DeleteBundle)

	secured.Get("/products", admin.ListProductsAdmin)
	secured.Post("/products", admin.CreateProduct)
	secured.Put("/products/:id", admin.UpdateProduct)
	secured.Delete("/products/:id", admin.DeleteProduct)

	secured.Get("/maintenance", admin.GetMaintenance)
	secured.Put("/maintenance", admin.SetMaintenance)
}

// SetupPublicRoutes wires health and status probes plus the public catalog.
func SetupPublicRoutes(app *fiber.App, payments *services.PaymentService) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/api/status", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "gan-backend"})
	})
	// Products are browsable without auth
	app.Get("/api/products", payments.ListProducts)
}
