package middleware

import (
	"strings"

	"gan-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Maintenance returns 503 for player traffic while maintenance mode is on.
// Admin routes and the public status endpoint stay reachable so the mode can
// be turned off again.
func Maintenance(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if strings.HasPrefix(path, "/api/admin") || path == "/api/status" || path == "/health" {
			return c.Next()
		}

		var setting models.SiteSetting
		err := db.Where("key = ?", models.SettingMaintenanceEnabled).First(&setting).Error
		if err != nil || setting.Value != "true" {
			return c.Next()
		}

		resp := fiber.Map{
			"error":       "service under maintenance",
			"maintenance": true,
		}

		var msg models.SiteSetting
		if err := db.Where("key = ?", models.SettingMaintenanceMessage).First(&msg).Error; err == nil && msg.Value != "" {
			resp["message"] = msg.Value
		}
		var end models.SiteSetting
		if err := db.Where("key = ?", models.SettingMaintenanceEndTime).First(&end).Error; err == nil && end.Value != "" {
			resp["expected_end"] = end.Value
		}

		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
}
