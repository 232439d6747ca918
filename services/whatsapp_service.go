package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"gan-backend/models"
	"gan-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// WhatsAppService sends templated messages through the Meta Cloud API and
// runs the number verification flow. When credentials are absent it runs in
// dev mode: messages are logged instead of sent, so local flows still work.
type WhatsAppService struct {
	DB          *gorm.DB
	AccessToken string
	PhoneID     string
	APIBase     string
	DevMode     bool
}

func NewWhatsAppService(db *gorm.DB) *WhatsAppService {
	token := os.Getenv("WHATSAPP_ACCESS_TOKEN")
	phoneID := os.Getenv("WHATSAPP_PHONE_NUMBER_ID")
	return &WhatsAppService{
		DB:          db,
		AccessToken: token,
		PhoneID:     phoneID,
		APIBase:     "https://graph.facebook.com/v19.0",
		DevMode:     token == "" || phoneID == "" || os.Getenv("DEBUG") == "true",
	}
}

// formatInternational normalizes a Pakistani number to the 92xxxxxxxxxx form
// the Cloud API expects.
func formatInternational(phone string) string {
	p := strings.TrimSpace(phone)
	p = strings.TrimPrefix(p, "+")
	p = strings.ReplaceAll(p, " ", "")
	p = strings.ReplaceAll(p, "-", "")
	if strings.HasPrefix(p, "0") {
		p = "92" + p[1:]
	}
	return p
}

type templateComponent struct {
	Type       string              `json:"type"`
	Parameters []templateParameter `json:"parameters"`
}

type templateParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// sendTemplate posts one template message. Parameter order must match the
// template's placeholder order exactly or Meta rejects the send.
func (s *WhatsAppService) sendTemplate(phone, templateName string, params []string) error {
	to := formatInternational(phone)
	if s.DevMode {
		log.Printf("[WhatsApp] dev mode: would send %q to %s with params %v", templateName, utils.MaskPhone(to), params)
		return nil
	}

	parameters := make([]templateParameter, 0, len(params))
	for _, p := range params {
		parameters = append(parameters, templateParameter{Type: "text", Text: p})
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "template",
		"template": map[string]interface{}{
			"name":     templateName,
			"language": map[string]string{"code": "en"},
			"components": []templateComponent{
				{Type: "body", Parameters: parameters},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/messages", s.APIBase, s.PhoneID)
	req, err := http.NewRequest("POST", url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.AccessToken)

	resp, err := utils.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("whatsapp send failed (%d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendVerificationCode delivers the 6-digit code for number verification.
func (s *WhatsAppService) SendVerificationCode(phone, code string) error {
	return s.sendTemplate(phone, "gan_verification_code", []string{code})
}

// SendTournamentNotification delivers room credentials shortly before start.
func (s *WhatsAppService) SendTournamentNotification(phone, title, roomID, roomPassword, startTime string) error {
	return s.sendTemplate(phone, "gan_tournament_room", []string{title, roomID, roomPassword, startTime})
}

// SendRewardNotification congratulates a placed player.
func (s *WhatsAppService) SendRewardNotification(phone, title string, position, tokens int) error {
	return s.sendTemplate(phone, "gan_tournament_reward", []string{
		title, fmt.Sprintf("%d", position), fmt.Sprintf("%d", tokens),
	})
}

// SendCode generates a fresh verification code for the caller's number and
// pushes it over WhatsApp. The code lives on the user row with a 10 minute
// expiry; requesting a new code invalidates the previous one.
func (s *WhatsAppService) SendCode(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		WhatsAppNumber string `json:"whatsapp_number"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	number := formatInternational(req.WhatsAppNumber)
	if len(number) < 11 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid phone number"})
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}

	code := utils.GenerateNumericCode(6)
	expires := time.Now().UTC().Add(10 * time.Minute)

	err := s.DB.Model(&user).Updates(map[string]interface{}{
		"whats_app_number":          number,
		"whats_app_verified":        false,
		"whats_app_code":            code,
		"whats_app_code_expires_at": &expires,
	}).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to save code"})
	}

	if err := s.SendVerificationCode(number, code); err != nil {
		log.Printf("[WhatsApp] verification send to %s failed: %v", utils.MaskPhone(number), err)
		return c.Status(502).JSON(fiber.Map{"error": "failed to send verification code"})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "Verification code sent",
		"expires_at": expires,
	})
}

// VerifyCode checks the submitted code against the stored one. Expiry and
// mismatch are reported as distinct errors so the client can prompt
// appropriately.
func (s *WhatsAppService) VerifyCode(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}

	if err := s.checkCode(&user, req.Code); err != nil {
		switch {
		case errors.Is(err, ErrCodeExpired):
			return c.Status(400).JSON(fiber.Map{"error": "verification code expired, request a new one"})
		case errors.Is(err, ErrCodeMismatch):
			return c.Status(400).JSON(fiber.Map{"error": "incorrect verification code"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "verification failed"})
	}

	err := s.DB.Model(&user).Updates(map[string]interface{}{
		"whats_app_verified":        true,
		"whats_app_code":            "",
		"whats_app_code_expires_at": nil,
	}).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to save verification"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "WhatsApp number verified"})
}

func (s *WhatsAppService) checkCode(user *models.User, code string) error {
	if user.WhatsAppCode == "" || user.WhatsAppCodeExpiresAt == nil {
		return ErrCodeMismatch
	}
	if time.Now().UTC().After(*user.WhatsAppCodeExpiresAt) {
		return ErrCodeExpired
	}
	if user.WhatsAppCode != code {
		return ErrCodeMismatch
	}
	return nil
}
