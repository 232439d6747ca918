package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"gan-backend/models"
	"gan-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// AuthService handles Google OAuth sign-in and issues the platform's own
// JWT session tokens.
type AuthService struct {
	DB           *gorm.DB
	ClientID     string
	ClientSecret string
	RedirectURI  string
	FrontendURL  string
	JWTSecret    string
	TokenTTL     time.Duration
	Debug        bool
}

func NewAuthService(db *gorm.DB) *AuthService {
	ttl := 7 * 24 * time.Hour
	return &AuthService{
		DB:           db,
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURI:  os.Getenv("GOOGLE_REDIRECT_URI"),
		FrontendURL:  os.Getenv("FRONTEND_URL"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		TokenTTL:     ttl,
		Debug:        os.Getenv("DEBUG") == "true",
	}
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// IssueToken signs a session JWT for the given user.
func (s *AuthService) IssueToken(userID, email string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a session JWT and returns the user id it names.
func (s *AuthService) ParseToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.JWTSecret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token claims")
	}
	return claims.Subject, nil
}

// GoogleLogin redirects the browser to Google's consent page.
func (s *AuthService) GoogleLogin(c *fiber.Ctx) error {
	params := url.Values{}
	params.Set("client_id", s.ClientID)
	params.Set("redirect_uri", s.RedirectURI)
	params.Set("response_type", "code")
	params.Set("scope", "openid email profile")
	params.Set("access_type", "offline")
	params.Set("prompt", "consent")

	return c.Redirect(googleAuthURL+"?"+params.Encode(), fiber.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleCallback exchanges the auth code, upserts the user and redirects to
// the frontend with a session token. New users get their wallet created in
// the same transaction.
func (s *AuthService) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing authorization code"})
	}

	info, err := s.exchangeCode(code)
	if err != nil {
		log.Printf("[Auth] google exchange failed: %v", err)
		return c.Status(502).JSON(fiber.Map{"error": "failed to authenticate with Google"})
	}

	user, err := s.upsertGoogleUser(info)
	if err != nil {
		log.Printf("[Auth] user upsert failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "authentication failed"})
	}
	if !user.IsActive {
		return c.Status(403).JSON(fiber.Map{"error": "account is blocked"})
	}

	token, err := s.IssueToken(user.ID, user.Email)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to issue session"})
	}

	page := "/dashboard.html"
	if !user.ProfileCompleted {
		page = "/profile.html"
	}
	return c.Redirect(fmt.Sprintf("%s%s?token=%s", s.FrontendURL, page, token), fiber.StatusTemporaryRedirect)
}

func (s *AuthService) exchangeCode(code string) (*googleUserInfo, error) {
	form := url.Values{}
	form.Set("client_id", s.ClientID)
	form.Set("client_secret", s.ClientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", s.RedirectURI)

	resp, err := utils.HTTPClient.PostForm(googleTokenURL, form)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("token exchange returned %d: %s", resp.StatusCode, string(body))
	}

	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, err
	}

	req, err := http.NewRequest("GET", googleUserinfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)

	infoResp, err := utils.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo: %w", err)
	}
	defer infoResp.Body.Close()
	if infoResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned %d", infoResp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(infoResp.Body).Decode(&info); err != nil {
		return nil, err
	}
	if info.ID == "" || info.Email == "" {
		return nil, errors.New("incomplete google profile")
	}
	return &info, nil
}

func (s *AuthService) upsertGoogleUser(info *googleUserInfo) (*models.User, error) {
	var user models.User
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("google_id = ?", info.ID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{
				ID:        uuid.NewString(),
				GoogleID:  info.ID,
				Email:     strings.ToLower(info.Email),
				FullName:  info.Name,
				AvatarURL: info.Picture,
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			wallet := &models.Wallet{ID: uuid.NewString(), UserID: user.ID}
			if err := tx.Create(wallet).Error; err != nil {
				return fmt.Errorf("create wallet: %w", err)
			}
			return nil
		}
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		return tx.Model(&user).Updates(map[string]interface{}{
			"last_login": &now,
			"avatar_url": info.Picture,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Me returns the authenticated user's profile and wallet summary.
func (s *AuthService) Me(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var user models.User
	if err := s.DB.Preload("Wallet").First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}
	return c.JSON(user)
}

// UpdateProfile fills in the signup fields collected after first login.
// profile_completed flips automatically once everything required is present.
func (s *AuthService) UpdateProfile(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		FullName           string `json:"full_name"`
		Age                int    `json:"age"`
		City               string `json:"city"`
		Country            string `json:"country"`
		PlayerID           string `json:"player_id"`
		PreferredGame      string `json:"preferred_game"`
		PreferredPayment   string `json:"preferred_payment"`
		MobileWalletNumber string `json:"mobile_wallet_number"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}

	user.FullName = req.FullName
	user.Age = req.Age
	user.City = req.City
	user.Country = req.Country
	user.PlayerID = req.PlayerID
	user.PreferredGame = req.PreferredGame
	if req.PreferredPayment != "" {
		user.PreferredPayment = req.PreferredPayment
	}
	if req.MobileWalletNumber != "" {
		user.MobileWalletNumber = req.MobileWalletNumber
	}
	user.ProfileCompleted = user.IsProfileComplete()

	if err := s.DB.Save(&user).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to update profile"})
	}
	return c.JSON(user)
}

// ProfileStatus lists the fields still missing before the profile counts as
// complete.
func (s *AuthService) ProfileStatus(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}

	missing := []string{}
	if user.FullName == "" {
		missing = append(missing, "full_name")
	}
	if user.Age <= 0 {
		missing = append(missing, "age")
	}
	if user.City == "" {
		missing = append(missing, "city")
	}
	if user.Country == "" {
		missing = append(missing, "country")
	}
	if user.WhatsAppNumber == "" {
		missing = append(missing, "whatsapp_number")
	}
	if !user.WhatsAppVerified {
		missing = append(missing, "whatsapp_verification")
	}
	if user.PlayerID == "" {
		missing = append(missing, "player_id")
	}

	return c.JSON(fiber.Map{
		"profile_completed": user.ProfileCompleted,
		"whatsapp_verified": user.WhatsAppVerified,
		"missing_fields":    missing,
	})
}

// SearchUser finds another user by email, for token transfers.
func (s *AuthService) SearchUser(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	email := strings.ToLower(strings.TrimSpace(c.Query("email")))
	if email == "" {
		return c.Status(400).JSON(fiber.Map{"error": "email query parameter is required"})
	}

	var user models.User
	if err := s.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "user not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "search failed"})
	}
	if user.ID == userID {
		return c.Status(400).JSON(fiber.Map{"error": "cannot search for yourself"})
	}

	return c.JSON(fiber.Map{
		"id":         user.ID,
		"email":      user.Email,
		"full_name":  user.FullName,
		"avatar_url": user.AvatarURL,
	})
}

// Logout is stateless; the client discards its token.
func (s *AuthService) Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "logged out"})
}

// DevLogin issues a session for a throwaway test account. Only available
// with DEBUG=true.
func (s *AuthService) DevLogin(c *fiber.Ctx) error {
	if !s.Debug {
		return c.Status(403).JSON(fiber.Map{"error": "dev login is disabled"})
	}

	email := c.Query("email", "testuser@example.com")
	name := c.Query("name", "Test User")

	var user models.User
	err := s.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.DB.Transaction(func(tx *gorm.DB) error {
			user = models.User{
				ID:       uuid.NewString(),
				GoogleID: "dev_" + uuid.NewString()[:8],
				Email:    email,
				FullName: name,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			wallet := &models.Wallet{
				ID:              uuid.NewString(),
				UserID:          user.ID,
				PurchasedTokens: 500,
				EarnedTokens:    100,
			}
			return tx.Create(wallet).Error
		})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "dev login failed"})
	}

	token, err := s.IssueToken(user.ID, user.Email)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to issue session"})
	}
	return c.JSON(fiber.Map{"token": token, "user_id": user.ID})
}
