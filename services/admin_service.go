package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gan-backend/models"
	"gan-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminService covers the back-office: admin accounts, dashboards, user and
// wallet management, tournament lifecycle, catalog CRUD and maintenance mode.
type AdminService struct {
	DB          *gorm.DB
	Wallets     *WalletService
	Tournaments *TournamentService
	JWTSecret   string
	TokenTTL    time.Duration
}

func NewAdminService(db *gorm.DB, wallets *WalletService, tournaments *TournamentService) *AdminService {
	secret := os.Getenv("ADMIN_JWT_SECRET")
	if secret == "" {
		secret = os.Getenv("JWT_SECRET") + "-admin"
	}
	return &AdminService{
		DB:          db,
		Wallets:     wallets,
		Tournaments: tournaments,
		JWTSecret:   secret,
		TokenTTL:    12 * time.Hour,
	}
}

type adminClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
	Scope string `json:"scope"`
}

// IssueToken signs an admin session token.
func (s *AdminService) IssueToken(admin *models.AdminUser) (string, error) {
	now := time.Now()
	claims := adminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: admin.Email,
		Role:  admin.Role,
		Scope: "admin",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.JWTSecret))
}

// ParseToken validates an admin token and returns the admin id and role.
func (s *AdminService) ParseToken(tokenString string) (string, string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &adminClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.JWTSecret), nil
	})
	if err != nil {
		return "", "", err
	}
	claims, ok := token.Claims.(*adminClaims)
	if !ok || !token.Valid || claims.Scope != "admin" {
		return "", "", errors.New("invalid admin token")
	}
	return claims.Subject, claims.Role, nil
}

// ---- Auth ----

// CheckSetup reports whether the one-time setup endpoint is still open.
func (s *AdminService) CheckSetup(c *fiber.Ctx) error {
	var count int64
	s.DB.Model(&models.AdminUser{}).Count(&count)
	return c.JSON(fiber.Map{"setup_needed": count == 0})
}

// Setup creates the first admin account. Locked as soon as any admin exists.
func (s *AdminService) Setup(c *fiber.Ctx) error {
	var count int64
	s.DB.Model(&models.AdminUser{}).Count(&count)
	if count > 0 {
		return c.Status(403).JSON(fiber.Map{"error": "setup already completed"})
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.Email == "" || len(req.Password) < 8 {
		return c.Status(400).JSON(fiber.Map{"error": "email and a password of at least 8 characters are required"})
	}

	admin := &models.AdminUser{
		ID:       uuid.NewString(),
		Email:    strings.ToLower(req.Email),
		FullName: req.FullName,
		Role:     "superadmin",
		IsActive: true,
	}
	if err := admin.SetPassword(req.Password); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to hash password"})
	}
	if err := s.DB.Create(admin).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to create admin"})
	}

	log.Printf("[Admin] initial superadmin created: %s", admin.Email)
	token, err := s.IssueToken(admin)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to issue token"})
	}
	return c.Status(201).JSON(fiber.Map{"token": token, "admin": admin})
}

// Login authenticates an admin by email and password.
func (s *AdminService) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	var admin models.AdminUser
	err := s.DB.Where("email = ?", strings.ToLower(req.Email)).First(&admin).Error
	if err != nil || !admin.CheckPassword(req.Password) {
		// Same response for unknown email and bad password.
		return c.Status(401).JSON(fiber.Map{"error": "invalid credentials"})
	}
	if !admin.IsActive {
		return c.Status(403).JSON(fiber.Map{"error": "account disabled"})
	}

	now := time.Now().UTC()
	s.DB.Model(&admin).Update("last_login", &now)

	token, err := s.IssueToken(&admin)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to issue token"})
	}
	return c.JSON(fiber.Map{"token": token, "admin": admin})
}

// MeAdmin returns the authenticated admin's profile.
func (s *AdminService) MeAdmin(c *fiber.Ctx) error {
	adminID := c.Locals("admin_id").(string)
	var admin models.AdminUser
	if err := s.DB.First(&admin, "id = ?", adminID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "admin not found"})
	}
	return c.JSON(admin)
}

// ---- Dashboard ----

// DashboardStats aggregates platform-wide counters for the admin overview.
func (s *AdminService) DashboardStats(c *fiber.Ctx) error {
	var (
		totalUsers, activeUsers, verifiedUsers, newToday       int64
		totalTournaments, activeTournaments, completedTourneys int64
		totalRegistrations                                     int64
		totalTxns, completedTxns, pendingTxns, failedTxns      int64
	)

	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)

	s.DB.Model(&models.User{}).Count(&totalUsers)
	s.DB.Model(&models.User{}).Where("is_active = ?", true).Count(&activeUsers)
	s.DB.Model(&models.User{}).Where("whats_app_verified = ?", true).Count(&verifiedUsers)
	s.DB.Model(&models.User{}).Where("created_at >= ?", startOfDay).Count(&newToday)

	var walletTotals struct {
		Purchased int
		Earned    int
		SpentPKR  float64
	}
	s.DB.Model(&models.Wallet{}).
		Select("COALESCE(SUM(purchased_tokens),0) AS purchased, COALESCE(SUM(earned_tokens),0) AS earned, COALESCE(SUM(total_spent_pkr),0) AS spent_pkr").
		Scan(&walletTotals)

	s.DB.Model(&models.Tournament{}).Count(&totalTournaments)
	s.DB.Model(&models.Tournament{}).
		Where("status IN ?", []models.TournamentStatus{
			models.TournamentUpcoming, models.TournamentRegistrationOpen, models.TournamentActive,
		}).Count(&activeTournaments)
	s.DB.Model(&models.Tournament{}).Where("status = ?", models.TournamentCompleted).Count(&completedTourneys)
	s.DB.Model(&models.Registration{}).Count(&totalRegistrations)

	s.DB.Model(&models.Transaction{}).Count(&totalTxns)
	s.DB.Model(&models.Transaction{}).Where("status = ?", models.TransactionCompleted).Count(&completedTxns)
	s.DB.Model(&models.Transaction{}).Where("status = ?", models.TransactionPending).Count(&pendingTxns)
	s.DB.Model(&models.Transaction{}).Where("status = ?", models.TransactionFailed).Count(&failedTxns)

	return c.JSON(fiber.Map{
		"users": fiber.Map{
			"total":     totalUsers,
			"active":    activeUsers,
			"verified":  verifiedUsers,
			"new_today": newToday,
			"blocked":   totalUsers - activeUsers,
		},
		"wallets": fiber.Map{
			"total_purchased_tokens": walletTotals.Purchased,
			"total_earned_tokens":    walletTotals.Earned,
			"total_spent_pkr":        walletTotals.SpentPKR,
		},
		"tournaments": fiber.Map{
			"total":               totalTournaments,
			"active":              activeTournaments,
			"completed":           completedTourneys,
			"total_registrations": totalRegistrations,
		},
		"transactions": fiber.Map{
			"total":     totalTxns,
			"completed": completedTxns,
			"pending":   pendingTxns,
			"failed":    failedTxns,
		},
	})
}

// ---- User management ----

// ListUsers returns a paginated, searchable user list.
func (s *AdminService) ListUsers(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit > 200 {
		limit = 200
	}
	offset := c.QueryInt("offset", 0)

	query := s.DB.Model(&models.User{})

	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		switch c.Query("search_by") {
		case "email":
			query = query.Where("email ILIKE ?", pattern)
		case "phone", "whatsapp":
			query = query.Where("whats_app_number ILIKE ?", pattern)
		case "player_id":
			query = query.Where("player_id ILIKE ?", pattern)
		case "name":
			query = query.Where("full_name ILIKE ?", pattern)
		default:
			query = query.Where(
				"email ILIKE ? OR full_name ILIKE ? OR whats_app_number ILIKE ? OR player_id ILIKE ?",
				pattern, pattern, pattern, pattern)
		}
	}

	switch c.Query("status") {
	case "active":
		query = query.Where("is_active = ?", true)
	case "blocked":
		query = query.Where("is_active = ?", false)
	case "verified":
		query = query.Where("whats_app_verified = ?", true)
	}

	var total int64
	query.Count(&total)

	var users []models.User
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to list users"})
	}

	return c.JSON(fiber.Map{"users": users, "total": total, "limit": limit, "offset": offset})
}

// GetUser returns one user with wallet and recent activity.
func (s *AdminService) GetUser(c *fiber.Ctx) error {
	var user models.User
	if err := s.DB.Preload("Wallet").First(&user, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}

	var registrations int64
	s.DB.Model(&models.Registration{}).Where("user_id = ?", user.ID).Count(&registrations)

	var recent []models.Transaction
	s.DB.Where("user_id = ?", user.ID).Order("created_at DESC").Limit(10).Find(&recent)

	return c.JSON(fiber.Map{
		"user":                user,
		"registration_count":  registrations,
		"recent_transactions": recent,
	})
}

// BlockUser deactivates an account. Blocked users cannot authenticate.
func (s *AdminService) BlockUser(c *fiber.Ctx) error {
	return s.setUserActive(c, false)
}

// UnblockUser reactivates an account.
func (s *AdminService) UnblockUser(c *fiber.Ctx) error {
	return s.setUserActive(c, true)
}

func (s *AdminService) setUserActive(c *fiber.Ctx, active bool) error {
	result := s.DB.Model(&models.User{}).Where("id = ?", c.Params("id")).Update("is_active", active)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update user"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}
	return c.JSON(fiber.Map{"success": true, "is_active": active})
}

// DeleteUser removes a user and, via cascade, their wallet, ledger and
// registrations. Superadmin only.
func (s *AdminService) DeleteUser(c *fiber.Ctx) error {
	userID := c.Params("id")
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return err
		}
		return tx.Select("Wallet", "Transactions", "Registrations").Delete(&user).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "user not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete user"})
	}
	log.Printf("[Admin] deleted user %s", userID)
	return c.JSON(fiber.Map{"success": true})
}

// ---- Wallet management ----

// ListWallets returns wallets joined with owner email, biggest first.
func (s *AdminService) ListWallets(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit > 200 {
		limit = 200
	}
	offset := c.QueryInt("offset", 0)

	type walletRow struct {
		models.Wallet
		Email    string `json:"email"`
		FullName string `json:"full_name"`
	}

	var rows []walletRow
	err := s.DB.Model(&models.Wallet{}).
		Select("wallets.*, users.email, users.full_name").
		Joins("JOIN users ON users.id = wallets.user_id").
		Order("wallets.purchased_tokens + wallets.earned_tokens DESC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to list wallets"})
	}

	var total int64
	s.DB.Model(&models.Wallet{}).Count(&total)

	return c.JSON(fiber.Map{"wallets": rows, "total": total})
}

// GrantTokens manually credits a wallet. The grant is written to the ledger
// as a bonus row so it is auditable like any other credit.
func (s *AdminService) GrantTokens(c *fiber.Ctx) error {
	userID := c.Params("id")

	var req struct {
		Amount     int    `json:"amount"`
		TokenClass string `json:"token_class"`
		Reason     string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.Amount <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "amount must be positive"})
	}
	class := models.TokenClass(req.TokenClass)
	if !class.IsValid() {
		class = models.TokenClassEarned
	}

	description := req.Reason
	if description == "" {
		description = "Admin token grant"
	}

	var txn *models.Transaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		_, t, err := s.Wallets.Credit(tx, userID, req.Amount, class, CreditOptions{
			Type:        models.TransactionTypeBonus,
			Description: description,
		})
		if err != nil {
			return err
		}
		txn = t
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "user not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "failed to grant tokens"})
	}

	adminID, _ := c.Locals("admin_id").(string)
	log.Printf("[Admin] %s granted %d %s tokens to user %s", adminID, req.Amount, class, userID)

	return c.JSON(fiber.Map{
		"success":        true,
		"transaction_id": txn.ID,
		"new_balance":    txn.BalanceAfter,
	})
}

// ---- Tournament management ----

type tournamentRequest struct {
	Title             string  `json:"title"`
	Game              string  `json:"game"`
	Description       string  `json:"description"`
	Rules             string  `json:"rules"`
	EntryFee          int     `json:"entry_fee"`
	PrizePool         int     `json:"prize_pool"`
	FirstPlaceReward  int     `json:"first_place_reward"`
	SecondPlaceReward int     `json:"second_place_reward"`
	ThirdPlaceReward  int     `json:"third_place_reward"`
	FourthPlaceReward int     `json:"fourth_place_reward"`
	FifthPlaceReward  int     `json:"fifth_place_reward"`
	MaxParticipants   int     `json:"max_participants"`
	MinParticipants   int     `json:"min_participants"`
	RegistrationStart *string `json:"registration_start"`
	RegistrationEnd   *string `json:"registration_end"`
	StartDate         string  `json:"start_date"`
	EndDate           *string `json:"end_date"`
	Status            string  `json:"status"`
	BannerURL         string  `json:"banner_url"`
	RoomID            string  `json:"room_id"`
	RoomPassword      string  `json:"room_password"`
}

func parseTimePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTournamentsAdmin includes drafts and room details, unlike the public list.
func (s *AdminService) ListTournamentsAdmin(c *fiber.Ctx) error {
	query := s.DB.Model(&models.Tournament{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var tournaments []models.Tournament
	if err := query.Order("created_at DESC").Find(&tournaments).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to list tournaments"})
	}

	out := make([]fiber.Map, 0, len(tournaments))
	for i := range tournaments {
		t := &tournaments[i]
		out = append(out, fiber.Map{
			"id":                   t.ID,
			"title":                t.Title,
			"slug":                 t.Slug,
			"game":                 t.Game,
			"status":               t.Status,
			"entry_fee":            t.EntryFee,
			"prize_pool":           t.PrizePool,
			"current_participants": t.CurrentParticipants,
			"max_participants":     t.MaxParticipants,
			"start_date":           t.StartDate,
			"room_id":              t.RoomID,
			"room_password":        t.RoomPassword,
			"banner_url":           t.BannerURL,
			"created_at":           t.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"tournaments": out})
}

// CreateTournament creates a tournament with a unique slug derived from the
// title.
func (s *AdminService) CreateTournament(c *fiber.Ctx) error {
	var req tournamentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.Title == "" {
		return c.Status(400).JSON(fiber.Map{"error": "title is required"})
	}
	game := models.GameType(req.Game)
	if !game.IsValid() {
		return c.Status(400).JSON(fiber.Map{"error": "unknown game type"})
	}
	startDate, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "start_date must be RFC3339"})
	}
	regStart, err := parseTimePtr(req.RegistrationStart)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "registration_start must be RFC3339"})
	}
	regEnd, err := parseTimePtr(req.RegistrationEnd)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "registration_end must be RFC3339"})
	}
	endDate, err := parseTimePtr(req.EndDate)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "end_date must be RFC3339"})
	}

	status := models.TournamentStatus(req.Status)
	if req.Status == "" {
		status = models.TournamentDraft
	}
	if !status.IsValid() {
		return c.Status(400).JSON(fiber.Map{"error": "unknown status"})
	}

	maxParticipants := req.MaxParticipants
	if maxParticipants <= 0 {
		maxParticipants = 100
	}
	minParticipants := req.MinParticipants
	if minParticipants <= 0 {
		minParticipants = 2
	}

	slug, err := utils.UniqueSlug(s.DB, "tournaments", req.Title)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to generate slug"})
	}

	tournament := &models.Tournament{
		ID:                uuid.NewString(),
		Title:             req.Title,
		Slug:              slug,
		Game:              game,
		Description:       req.Description,
		Rules:             req.Rules,
		EntryFee:          req.EntryFee,
		PrizePool:         req.PrizePool,
		FirstPlaceReward:  req.FirstPlaceReward,
		SecondPlaceReward: req.SecondPlaceReward,
		ThirdPlaceReward:  req.ThirdPlaceReward,
		FourthPlaceReward: req.FourthPlaceReward,
		FifthPlaceReward:  req.FifthPlaceReward,
		MaxParticipants:   maxParticipants,
		MinParticipants:   minParticipants,
		RegistrationStart: regStart,
		RegistrationEnd:   regEnd,
		StartDate:         startDate,
		EndDate:           endDate,
		Status:            status,
		BannerURL:         req.BannerURL,
		RoomID:            req.RoomID,
		RoomPassword:      req.RoomPassword,
	}
	if err := s.DB.Create(tournament).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to create tournament"})
	}
	return c.Status(201).JSON(tournament)
}

// GetTournamentAdmin returns full details including room credentials and
// registration list.
func (s *AdminService) GetTournamentAdmin(c *fiber.Ctx) error {
	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
	}

	var registrations []models.Registration
	s.DB.Where("tournament_id = ?", tournament.ID).Order("registered_at ASC").Find(&registrations)

	return c.JSON(fiber.Map{
		"tournament":    tournament,
		"room_id":       tournament.RoomID,
		"room_password": tournament.RoomPassword,
		"registrations": registrations,
	})
}

// UpdateTournament applies a partial update. The slug is never regenerated;
// links to a published tournament must not break.
func (s *AdminService) UpdateTournament(c *fiber.Ctx) error {
	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
	}

	var req map[string]interface{}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	updates := map[string]interface{}{}
	assign := func(key, column string) {
		if v, ok := req[key]; ok {
			updates[column] = v
		}
	}
	assign("title", "title")
	assign("description", "description")
	assign("rules", "rules")
	assign("entry_fee", "entry_fee")
	assign("prize_pool", "prize_pool")
	assign("first_place_reward", "first_place_reward")
	assign("second_place_reward", "second_place_reward")
	assign("third_place_reward", "third_place_reward")
	assign("fourth_place_reward", "fourth_place_reward")
	assign("fifth_place_reward", "fifth_place_reward")
	assign("max_participants", "max_participants")
	assign("min_participants", "min_participants")
	assign("banner_url", "banner_url")
	assign("room_id", "room_id")
	assign("room_password", "room_password")

	if v, ok := req["game"].(string); ok {
		if !models.GameType(v).IsValid() {
			return c.Status(400).JSON(fiber.Map{"error": "unknown game type"})
		}
		updates["game"] = v
	}
	if v, ok := req["status"].(string); ok {
		if !models.TournamentStatus(v).IsValid() {
			return c.Status(400).JSON(fiber.Map{"error": "unknown status"})
		}
		updates["status"] = v
	}
	for key, column := range map[string]string{
		"registration_start": "registration_start",
		"registration_end":   "registration_end",
		"start_date":         "start_date",
		"end_date":           "end_date",
	} {
		if v, ok := req[key].(string); ok {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return c.Status(400).JSON(fiber.Map{"error": key + " must be RFC3339"})
			}
			updates[column] = t
		}
	}

	if len(updates) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "no fields to update"})
	}
	if err := s.DB.Model(&tournament).Updates(updates).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update tournament"})
	}
	return c.JSON(tournament)
}

// DeleteTournament refuses to remove a tournament with registered players;
// those must be cancelled first so entry fees can be handled explicitly.
func (s *AdminService) DeleteTournament(c *fiber.Ctx) error {
	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
	}

	var active int64
	s.DB.Model(&models.Registration{}).
		Where("tournament_id = ? AND active_key = ?", tournament.ID, "").
		Count(&active)
	if active > 0 {
		return c.Status(409).JSON(fiber.Map{
			"error": "tournament has active registrations, cancel it instead of deleting",
		})
	}

	if err := s.DB.Select("Registrations").Delete(&tournament).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete tournament"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// UploadBanner stores a tournament banner image in R2 and returns its public
// URL.
func (s *AdminService) UploadBanner(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "file is required"})
	}
	if fileHeader.Size > utils.MaxBannerSize {
		return c.Status(400).JSON(fiber.Map{"error": "file exceeds 5MB limit"})
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !utils.AllowedImageTypes[contentType] {
		return c.Status(400).JSON(fiber.Map{"error": "only jpeg, png, gif and webp images are allowed"})
	}

	ext := ".img"
	if idx := strings.LastIndex(fileHeader.Filename, "."); idx >= 0 {
		ext = fileHeader.Filename[idx:]
	}
	key := fmt.Sprintf("banners/%s%s", uuid.NewString(), ext)

	url, err := utils.UploadFileToR2(fileHeader, key)
	if err != nil {
		log.Printf("[Admin] banner upload failed: %v", err)
		return c.Status(502).JSON(fiber.Map{"error": "failed to upload banner"})
	}
	return c.JSON(fiber.Map{"url": url})
}

// CompleteTournament settles placements and distributes rewards in one atomic
// operation. Placements accept both "1".."5" and "1st".."5th" keys.
func (s *AdminService) CompleteTournament(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var req struct {
		Winners map[string]string `json:"winners"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	placements := make(map[int]string)
	for place, userID := range req.Winners {
		if userID == "" {
			continue
		}
		pos, err := parsePlacement(place)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		if prev, dup := placements[pos]; dup && prev != userID {
			return c.Status(400).JSON(fiber.Map{"error": fmt.Sprintf("placement %d assigned twice", pos)})
		}
		placements[pos] = userID
	}

	seen := make(map[string]int)
	for pos, userID := range placements {
		if otherPos, dup := seen[userID]; dup {
			return c.Status(400).JSON(fiber.Map{
				"error": fmt.Sprintf("user assigned to placements %d and %d", otherPos, pos),
			})
		}
		seen[userID] = pos
	}

	if err := s.Tournaments.DistributeRewards(tournamentID, placements); err != nil {
		switch {
		case errors.Is(err, ErrTournamentNotFound):
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		case errors.Is(err, ErrUserNotFound):
			return c.Status(400).JSON(fiber.Map{"error": "a winner is not registered for this tournament"})
		}
		log.Printf("[Admin] reward distribution for %s failed: %v", tournamentID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to distribute rewards"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "tournament completed and rewards distributed"})
}

// parsePlacement accepts "1", "1st", "2nd" etc. and returns the 1-based
// position.
func parsePlacement(place string) (int, error) {
	trimmed := strings.TrimRight(strings.ToLower(place), "stndrh")
	pos, err := strconv.Atoi(trimmed)
	if err != nil || pos < 1 || pos > 5 {
		return 0, fmt.Errorf("invalid placement %q, expected 1st through 5th", place)
	}
	return pos, nil
}

// ---- Transactions ----

// ListTransactions returns the global ledger with filters.
func (s *AdminService) ListTransactions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit > 200 {
		limit = 200
	}
	offset := c.QueryInt("offset", 0)

	query := s.DB.Model(&models.Transaction{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if kind := c.Query("type"); kind != "" {
		query = query.Where("type = ?", kind)
	}
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var total int64
	query.Count(&total)

	var txns []models.Transaction
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&txns).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to list transactions"})
	}
	return c.JSON(fiber.Map{"transactions": txns, "total": total})
}

// TransactionStats aggregates the ledger by status and by kind, plus revenue
// over the last 30 days.
func (s *AdminService) TransactionStats(c *fiber.Ctx) error {
	type bucket struct {
		Key   string `json:"key"`
		Count int64  `json:"count"`
		Total int64  `json:"total_tokens"`
	}

	var byStatus []bucket
	s.DB.Model(&models.Transaction{}).
		Select("status AS key, COUNT(*) AS count, COALESCE(SUM(token_amount),0) AS total").
		Group("status").Scan(&byStatus)

	var byType []bucket
	s.DB.Model(&models.Transaction{}).
		Select("type AS key, COUNT(*) AS count, COALESCE(SUM(token_amount),0) AS total").
		Group("type").Scan(&byType)

	var revenue struct {
		PKR float64
		USD float64
	}
	s.DB.Model(&models.Transaction{}).
		Where("type = ? AND status = ? AND created_at >= ?",
			models.TransactionTypePurchase, models.TransactionCompleted,
			time.Now().UTC().AddDate(0, 0, -30)).
		Select("COALESCE(SUM(amount_pkr),0) AS pkr, COALESCE(SUM(amount_usd),0) AS usd").
		Scan(&revenue)

	return c.JSON(fiber.Map{
		"by_status": byStatus,
		"by_type":   byType,
		"revenue_30d": fiber.Map{
			"pkr":         revenue.PKR,
			"pkr_display": utils.FormatPKR(revenue.PKR),
			"usd":         revenue.USD,
		},
	})
}

// RewardsLeaderboard ranks players by lifetime earned tokens.
func (s *AdminService) RewardsLeaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit > 100 {
		limit = 100
	}

	type leaderRow struct {
		UserID            string `json:"user_id"`
		Email             string `json:"email"`
		FullName          string `json:"full_name"`
		TotalTokensEarned int    `json:"total_tokens_earned"`
		EarnedTokens      int    `json:"earned_tokens"`
	}

	var rows []leaderRow
	err := s.DB.Model(&models.Wallet{}).
		Select("wallets.user_id, users.email, users.full_name, wallets.total_tokens_earned, wallets.earned_tokens").
		Joins("JOIN users ON users.id = wallets.user_id").
		Where("wallets.total_tokens_earned > 0").
		Order("wallets.total_tokens_earned DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load leaderboard"})
	}
	return c.JSON(fiber.Map{"leaderboard": rows})
}

// ---- Bundles ----

// ListBundlesAdmin includes inactive bundles.
func (s *AdminService) ListBundlesAdmin(c *fiber.Ctx) error {
	var bundles []models.TokenBundle
	if err := s.DB.Order("sort_order ASC").Find(&bundles).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to list bundles"})
	}
	return c.JSON(fiber.Map{"bundles": bundles})
}

// CreateBundle adds a purchasable token bundle.
func (s *AdminService) CreateBundle(c *fiber.Ctx) error {
	var bundle models.TokenBundle
	if err := c.BodyParser(&bundle); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if bundle.Name == "" || bundle.Tokens <= 0 || bundle.PricePKR <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "name, tokens and price_pkr are required"})
	}
	bundle.ID = uuid.NewString()
	if err := s.DB.Create(&bundle).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to create bundle"})
	}
	return c.Status(201).JSON(bundle)
}

// UpdateBundle applies a partial bundle update.
func (s *AdminService) UpdateBundle(c *fiber.Ctx) error {
	var bundle models.TokenBundle
	if err := s.DB.First(&bundle, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "bundle not found"})
	}

	var req map[string]interface{}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	allowed := map[string]bool{
		"name": true, "tokens": true, "bonus_tokens": true,
		"price_pkr": true, "price_usd": true, "description": true,
		"badge": true, "icon": true, "sort_order": true,
		"is_active": true, "is_featured": true,
	}
	updates := map[string]interface{}{}
	for k, v := range req {
		if allowed[k] {
			updates[k] = v
		}
	}
	if len(updates) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "no fields to update"})
	}
	if err := s.DB.Model(&bundle).Updates(updates).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update bundle"})
	}
	return c.JSON(bundle)
}

// DeleteBundle soft-disables rather than removes: completed purchases still
// reference the bundle.
func (s *AdminService) DeleteBundle(c *fiber.Ctx) error {
	result := s.DB.Model(&models.TokenBundle{}).Where("id = ?", c.Params("id")).Update("is_active", false)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to disable bundle"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "bundle not found"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// ---- Products ----

// ListProductsAdmin includes inactive products.
func (s *AdminService) ListProductsAdmin(c *fiber.Ctx) error {
	query := s.DB.Model(&models.Product{})
	if t := c.Query("product_type"); t != "" {
		query = query.Where("product_type = ?", t)
	}
	var products []models.Product
	if err := query.Order("created_at DESC").Find(&products).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to list products"})
	}
	return c.JSON(fiber.Map{"products": products})
}

// CreateProduct adds an in-game product to the catalog.
func (s *AdminService) CreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if !product.ProductType.IsValid() {
		return c.Status(400).JSON(fiber.Map{"error": "unknown product type"})
	}
	if product.Name == "" || product.TokenPrice <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "name and token_price are required"})
	}
	product.ID = uuid.NewString()
	if err := s.DB.Create(&product).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to create product"})
	}
	return c.Status(201).JSON(product)
}

// UpdateProduct applies a partial product update.
func (s *AdminService) UpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := s.DB.First(&product, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "product not found"})
	}

	var req map[string]interface{}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	allowed := map[string]bool{
		"name": true, "description": true, "category": true,
		"token_price": true, "token_amount": true, "validity": true,
		"banner_url": true, "is_active": true,
	}
	updates := map[string]interface{}{}
	for k, v := range req {
		if allowed[k] {
			updates[k] = v
		}
	}
	if len(updates) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "no fields to update"})
	}
	if err := s.DB.Model(&product).Updates(updates).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update product"})
	}
	return c.JSON(product)
}

// DeleteProduct soft-disables a product.
func (s *AdminService) DeleteProduct(c *fiber.Ctx) error {
	result := s.DB.Model(&models.Product{}).Where("id = ?", c.Params("id")).Update("is_active", false)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to disable product"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "product not found"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// ---- Maintenance mode ----

// GetMaintenance returns the current maintenance settings.
func (s *AdminService) GetMaintenance(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"enabled":  s.getSetting(models.SettingMaintenanceEnabled) == "true",
		"title":    s.getSetting(models.SettingMaintenanceTitle),
		"message":  s.getSetting(models.SettingMaintenanceMessage),
		"end_time": s.getSetting(models.SettingMaintenanceEndTime),
	})
}

// SetMaintenance toggles maintenance mode and its banner texts.
func (s *AdminService) SetMaintenance(c *fiber.Ctx) error {
	var req struct {
		Enabled bool   `json:"enabled"`
		Title   string `json:"title"`
		Message string `json:"message"`
		EndTime string `json:"end_time"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		pairs := map[string]string{
			models.SettingMaintenanceEnabled: strconv.FormatBool(req.Enabled),
			models.SettingMaintenanceTitle:   req.Title,
			models.SettingMaintenanceMessage: req.Message,
			models.SettingMaintenanceEndTime: req.EndTime,
		}
		for key, value := range pairs {
			if err := s.setSetting(tx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to save settings"})
	}

	log.Printf("[Admin] maintenance mode set to %t", req.Enabled)
	return c.JSON(fiber.Map{"success": true, "enabled": req.Enabled})
}

func (s *AdminService) getSetting(key string) string {
	var setting models.SiteSetting
	if err := s.DB.Where("key = ?", key).First(&setting).Error; err != nil {
		return ""
	}
	return setting.Value
}

func (s *AdminService) setSetting(tx *gorm.DB, key, value string) error {
	var setting models.SiteSetting
	err := tx.Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(&models.SiteSetting{ID: uuid.NewString(), Key: key, Value: value}).Error
	}
	if err != nil {
		return err
	}
	return tx.Model(&setting).Update("value", value).Error
}
