package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/PixelVault/app/models"
	"github.com/ManuelReschke/PixelVault/app/repository"
	"github.com/ManuelReschke/PixelVault/internal/pkg/database"
)

type adminSettingsRequest struct {
	SiteTitle           string `json:"site_title"`
	SiteDescription     string `json:"site_description"`
	RegistrationEnabled bool   `json:"registration_enabled"`
	NewsletterEnabled   bool   `json:"newsletter_enabled"`
}

// HandleAdminGetSettings returns the live application settings.
func HandleAdminGetSettings(c *fiber.Ctx) error {
	settings, err := repository.GetGlobalFactory().GetSettingRepository().Get()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load settings")
	}
	return c.JSON(fiber.Map{
		"site_title":           settings.GetSiteTitle(),
		"site_description":     settings.SiteDescription,
		"registration_enabled": settings.IsRegistrationEnabled(),
		"newsletter_enabled":   settings.IsNewsletterEnabled(),
	})
}

// HandleAdminUpdateSettings persists new application settings and swaps the
// in-memory copy.
func HandleAdminUpdateSettings(c *fiber.Ctx) error {
	var req adminSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	settings := &models.AppSettings{
		SiteTitle:           req.SiteTitle,
		SiteDescription:     req.SiteDescription,
		RegistrationEnabled: req.RegistrationEnabled,
		NewsletterEnabled:   req.NewsletterEnabled,
	}
	if err := repository.GetGlobalFactory().GetSettingRepository().Save(settings); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	return c.JSON(fiber.Map{"message": "Settings updated"})
}

// HandleAdminStats returns daily registration counts and mailing-list sync
// outcomes for the last N days (default 7).
func HandleAdminStats(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	if days < 1 {
		days = 1
	}
	if days > 90 {
		days = 90
	}

	now := time.Now().UTC()
	endDate := now
	startDate := now.AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)

	repos := repository.GetGlobalRepositories()

	registrations, err := repos.User.GetDailyStats(startDate, endDate)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load registration stats")
	}

	syncStats, err := repos.SyncStat.GetRange(startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load sync stats")
	}

	userCount := int64(0)
	if db := database.GetDB(); db != nil {
		if count, cerr := repos.User.Count(); cerr == nil {
			userCount = count
		}
	}

	return c.JSON(fiber.Map{
		"days":          days,
		"total_users":   userCount,
		"registrations": registrations,
		"mailing_list":  syncStatsJSON(syncStats),
	})
}

func syncStatsJSON(stats []models.SyncStat) []fiber.Map {
	out := make([]fiber.Map, 0, len(stats))
	for _, s := range stats {
		out = append(out, fiber.Map{
			"date":    s.Date,
			"outcome": s.Outcome,
			"count":   s.Count,
		})
	}
	return out
}
