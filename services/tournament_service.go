package services

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"gan-backend/models"
	"gan-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TournamentService struct {
	DB       *gorm.DB
	Wallets  *WalletService
	WhatsApp *WhatsAppService
}

func NewTournamentService(db *gorm.DB, wallets *WalletService, whatsapp *WhatsAppService) *TournamentService {
	return &TournamentService{DB: db, Wallets: wallets, WhatsApp: whatsapp}
}

// Register runs the whole registration as one transaction: lock the
// tournament row, re-check the window, debit the entry fee, insert the
// confirmed registration and bump the participant counter. Any failure rolls
// the debit back; no partial registration ever exists.
func (s *TournamentService) Register(userID, tournamentID, playerID, teamName string) (*models.Registration, error) {
	var registration *models.Registration

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var tournament models.Tournament
		if err := forUpdate(tx).
			First(&tournament, "id = ?", tournamentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}

		if !tournament.IsRegistrationOpen() {
			return ErrRegistrationClosed
		}

		var existing models.Registration
		err := tx.Where("user_id = ? AND tournament_id = ? AND status <> ?",
			userID, tournamentID, models.RegistrationCancelled).
			First(&existing).Error
		if err == nil {
			return ErrAlreadyRegistered
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		reg := &models.Registration{
			ID:           uuid.NewString(),
			UserID:       userID,
			TournamentID: tournamentID,
			Status:       models.RegistrationConfirmed,
			TokensPaid:   tournament.EntryFee,
			PlayerID:     playerID,
			TeamName:     teamName,
		}

		if tournament.EntryFee > 0 {
			_, txn, err := s.Wallets.Debit(tx, userID, tournament.EntryFee, models.DebitPurchasedFirst, DebitOptions{
				Type:         models.TransactionTypeEntry,
				Description:  fmt.Sprintf("Entry fee for %s", tournament.Title),
				TournamentID: tournament.ID,
			})
			if err != nil {
				return err
			}
			reg.TransactionID = txn.ID
		}

		if err := tx.Create(reg).Error; err != nil {
			// The unique index on (user, tournament, active_key) closes the
			// read-then-write race between two concurrent registrations.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRegistered
			}
			return fmt.Errorf("create registration: %w", err)
		}

		tournament.CurrentParticipants++
		if err := tx.Save(&tournament).Error; err != nil {
			return fmt.Errorf("update participant count: %w", err)
		}

		registration = reg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return registration, nil
}

// DistributeRewards settles a finished tournament: placements maps 1..5 to
// user IDs. Every populated placement with a configured reward gets an
// earned-token credit, a reward ledger row and its registration updated. The
// whole batch is one transaction, so a mid-batch failure never leaves a
// partially rewarded tournament marked completed. Unfilled placements are
// skipped and the tournament still completes.
func (s *TournamentService) DistributeRewards(tournamentID string, placements map[int]string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var tournament models.Tournament
		if err := forUpdate(tx).
			First(&tournament, "id = ?", tournamentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}

		for position := 1; position <= 5; position++ {
			winnerID := placements[position]
			reward := tournament.PlacementReward(position)
			if winnerID == "" || reward <= 0 {
				continue
			}

			_, txn, err := s.Wallets.Credit(tx, winnerID, reward, models.TokenClassEarned, CreditOptions{
				Type:         models.TransactionTypeReward,
				Description:  fmt.Sprintf("Prize for %s - position #%d", tournament.Title, position),
				TournamentID: tournament.ID,
			})
			if err != nil {
				return fmt.Errorf("credit position %d: %w", position, err)
			}

			var reg models.Registration
			err = tx.Where("user_id = ? AND tournament_id = ? AND status <> ?",
				winnerID, tournamentID, models.RegistrationCancelled).
				First(&reg).Error
			if err == nil {
				reg.SetResult(position, reward)
				reg.RewardTransactionID = txn.ID
				if err := tx.Save(&reg).Error; err != nil {
					return fmt.Errorf("update registration result: %w", err)
				}
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		tournament.Status = models.TournamentCompleted
		if err := tx.Save(&tournament).Error; err != nil {
			return fmt.Errorf("complete tournament: %w", err)
		}
		return nil
	})
}

// --- Public handlers ---

// ListTournaments returns tournaments filtered by game and status. Without a
// status filter only upcoming, registration_open and active ones show.
func (s *TournamentService) ListTournaments(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.Query("per_page", "20"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	query := s.DB.Model(&models.Tournament{})
	if game := c.Query("game"); game != "" {
		query = query.Where("game = ?", game)
	}
	if status := c.Query("status"); status != "" {
		if !models.TournamentStatus(status).IsValid() {
			return c.Status(400).JSON(fiber.Map{"error": "unknown tournament status"})
		}
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status IN ?", []models.TournamentStatus{
			models.TournamentUpcoming,
			models.TournamentRegistrationOpen,
			models.TournamentActive,
		})
	}

	var total int64
	query.Count(&total)

	var tournaments []models.Tournament
	if err := query.Order("start_date ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&tournaments).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load tournaments"})
	}

	return c.JSON(fiber.Map{
		"tournaments": tournamentSummaries(tournaments),
		"total":       total,
		"page":        page,
		"per_page":    perPage,
	})
}

// GetTournament returns one tournament by id or slug. Room details are only
// included for callers holding a confirmed or checked-in registration.
func (s *TournamentService) GetTournament(c *fiber.Ctx) error {
	key := c.Params("id")

	// The id column is a uuid; comparing it against a slug string would error
	// on Postgres, so pick the column by key shape.
	column := "slug"
	if _, err := uuid.Parse(key); err == nil {
		column = "id"
	}

	var tournament models.Tournament
	err := s.DB.Where(column+" = ?", key).First(&tournament).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "failed to load tournament"})
	}

	body := tournamentDetail(&tournament)

	if userID, ok := c.Locals("user_id").(string); ok && userID != "" {
		var reg models.Registration
		err := s.DB.Where("user_id = ? AND tournament_id = ? AND status IN ?",
			userID, tournament.ID,
			[]models.RegistrationStatus{models.RegistrationConfirmed, models.RegistrationCheckedIn}).
			First(&reg).Error
		if err == nil {
			body["is_registered"] = true
			body["registration"] = reg
			body["room_id"] = tournament.RoomID
			body["room_password"] = tournament.RoomPassword
		}
	}

	return c.JSON(body)
}

// RegisterForTournament is the user-facing registration endpoint.
func (s *TournamentService) RegisterForTournament(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	tournamentID := c.Params("id")

	var req struct {
		PlayerID string `json:"player_id"`
		TeamName string `json:"team_name"`
	}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	if req.PlayerID == "" {
		var user models.User
		if err := s.DB.First(&user, "id = ?", userID).Error; err == nil {
			req.PlayerID = user.PlayerID
		}
	}

	registration, err := s.Register(userID, tournamentID, req.PlayerID, req.TeamName)
	if err != nil {
		switch {
		case errors.Is(err, ErrTournamentNotFound):
			return c.Status(404).JSON(fiber.Map{"error": "tournament_not_found", "message": err.Error()})
		case errors.Is(err, ErrRegistrationClosed):
			return c.Status(400).JSON(fiber.Map{"error": "registration_closed", "message": err.Error()})
		case errors.Is(err, ErrAlreadyRegistered):
			return c.Status(409).JSON(fiber.Map{"error": "already_registered", "message": err.Error()})
		default:
			return walletErrorResponse(c, err)
		}
	}

	return c.Status(201).JSON(registration)
}

// GetMyRegistrations lists the caller's registrations, optionally filtered by
// status, newest first, with the tournament embedded.
func (s *TournamentService) GetMyRegistrations(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	query := s.DB.Where("user_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var registrations []models.Registration
	if err := query.Order("registered_at DESC").Find(&registrations).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load registrations"})
	}

	out := make([]fiber.Map, 0, len(registrations))
	for _, reg := range registrations {
		entry := fiber.Map{"registration": reg}
		var tournament models.Tournament
		if err := s.DB.First(&tournament, "id = ?", reg.TournamentID).Error; err == nil {
			entry["tournament"] = tournamentDetail(&tournament)
		}
		out = append(out, entry)
	}
	return c.JSON(out)
}

// GetParticipants lists confirmed and checked-in players for a tournament.
func (s *TournamentService) GetParticipants(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
	}

	var registrations []models.Registration
	if err := s.DB.Where("tournament_id = ? AND status IN ?", tournamentID,
		[]models.RegistrationStatus{models.RegistrationConfirmed, models.RegistrationCheckedIn}).
		Order("registered_at ASC").
		Find(&registrations).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load participants"})
	}

	out := make([]fiber.Map, 0, len(registrations))
	for _, reg := range registrations {
		entry := fiber.Map{
			"registration_id": reg.ID,
			"player_id":       reg.PlayerID,
			"team_name":       reg.TeamName,
			"status":          reg.Status,
			"checked_in":      reg.CheckedIn,
			"registered_at":   reg.RegisteredAt,
		}
		var user models.User
		if err := s.DB.First(&user, "id = ?", reg.UserID).Error; err == nil {
			entry["user"] = fiber.Map{
				"id":         user.ID,
				"full_name":  user.FullName,
				"avatar_url": user.AvatarURL,
			}
		}
		out = append(out, entry)
	}
	return c.JSON(out)
}

// CheckIn marks the caller present for a tournament they are confirmed in.
func (s *TournamentService) CheckIn(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	tournamentID := c.Params("id")

	var reg models.Registration
	err := s.DB.Where("user_id = ? AND tournament_id = ? AND status <> ?",
		userID, tournamentID, models.RegistrationCancelled).
		First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "registration not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "failed to load registration"})
	}

	if !reg.Status.CanTransitionTo(models.RegistrationCheckedIn) {
		return c.Status(400).JSON(fiber.Map{"error": fmt.Sprintf("cannot check in from status %q", reg.Status)})
	}

	reg.CheckIn()
	if err := s.DB.Save(&reg).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to check in"})
	}

	return c.JSON(fiber.Map{"success": true, "checked_in_at": reg.CheckedInAt})
}

// NotifyRoomDetails pushes the room id and password to every checked-in or
// confirmed participant over WhatsApp. Admin-only.
func (s *TournamentService) NotifyRoomDetails(c *fiber.Ctx) error {
	tournamentID := c.Params("id")

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
	}
	if tournament.RoomID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "tournament has no room details yet"})
	}

	var registrations []models.Registration
	s.DB.Where("tournament_id = ? AND status IN ?", tournamentID,
		[]models.RegistrationStatus{models.RegistrationConfirmed, models.RegistrationCheckedIn}).
		Find(&registrations)

	notified := 0
	for _, reg := range registrations {
		var user models.User
		if err := s.DB.First(&user, "id = ?", reg.UserID).Error; err != nil {
			continue
		}
		if !user.WhatsAppVerified || user.WhatsAppNumber == "" {
			continue
		}
		err := s.WhatsApp.SendTournamentNotification(user.WhatsAppNumber,
			tournament.Title, tournament.RoomID, tournament.RoomPassword,
			tournament.StartDate.Format(time.RFC1123))
		if err != nil {
			log.Printf("[Tournament] room notification to %s failed: %v", utils.MaskPhone(user.WhatsAppNumber), err)
			continue
		}
		notified++
	}

	return c.JSON(fiber.Map{"success": true, "notified": notified})
}

func tournamentSummaries(tournaments []models.Tournament) []fiber.Map {
	out := make([]fiber.Map, 0, len(tournaments))
	for i := range tournaments {
		t := &tournaments[i]
		out = append(out, fiber.Map{
			"id":                   t.ID,
			"title":                t.Title,
			"slug":                 t.Slug,
			"game":                 t.Game,
			"entry_fee":            t.EntryFee,
			"prize_pool":           t.PrizePool,
			"status":               t.Status,
			"start_date":           t.StartDate,
			"max_participants":     t.MaxParticipants,
			"current_participants": t.CurrentParticipants,
			"slots_available":      t.SlotsAvailable(),
			"is_registration_open": t.IsRegistrationOpen(),
			"thumbnail_url":        t.ThumbnailURL,
		})
	}
	return out
}

func tournamentDetail(t *models.Tournament) fiber.Map {
	return fiber.Map{
		"id":                   t.ID,
		"title":                t.Title,
		"slug":                 t.Slug,
		"game":                 t.Game,
		"description":          t.Description,
		"rules":                t.Rules,
		"entry_fee":            t.EntryFee,
		"prize_pool":           t.PrizePool,
		"first_place_reward":   t.FirstPlaceReward,
		"second_place_reward":  t.SecondPlaceReward,
		"third_place_reward":   t.ThirdPlaceReward,
		"fourth_place_reward":  t.FourthPlaceReward,
		"fifth_place_reward":   t.FifthPlaceReward,
		"max_participants":     t.MaxParticipants,
		"min_participants":     t.MinParticipants,
		"current_participants": t.CurrentParticipants,
		"slots_available":      t.SlotsAvailable(),
		"is_registration_open": t.IsRegistrationOpen(),
		"registration_start":   t.RegistrationStart,
		"registration_end":     t.RegistrationEnd,
		"start_date":           t.StartDate,
		"end_date":             t.EndDate,
		"status":               t.Status,
		"banner_url":           t.BannerURL,
		"thumbnail_url":        t.ThumbnailURL,
		"created_at":           t.CreatedAt,
	}
}
