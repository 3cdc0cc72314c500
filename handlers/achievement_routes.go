// handlers/achievement_routes.go
package handlers

import (
	"errors"

	"prize-hunt-system/middleware"
	"prize-hunt-system/models"
	"prize-hunt-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupAchievementRoutes wires achievement progress and the player profile.
func SetupAchievementRoutes(app *fiber.App, achievementService *services.AchievementService) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/s/achievements", achievementService.ListCatalog)
	securedGroup.Get("/s/user/achievements", achievementService.ListMyAchievements)

	securedGroup.Get("/s/user/profile", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var user models.GameUser
		if err := achievementService.DB.Where("external_user_id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "DB error fetching profile",
				"cause": err.Error(),
			})
		}

		var unlockedCount int64
		if err := achievementService.DB.Model(&models.UserAchievement{}).
			Where("external_user_id = ? AND unlocked_at IS NOT NULL", userID).
			Count(&unlockedCount).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to count unlocked achievements",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"external_user_id":      user.ExternalUserID,
			"username":              user.Username,
			"points_available":      user.PointsAvailable,
			"points_total":          user.PointsTotal,
			"points_spent":          user.PointsSpent,
			"level":                 user.Level,
			"level_name":            services.LevelName(user.Level),
			"prizes_found":          user.PrizesFound,
			"current_streak":        user.CurrentStreak,
			"daily_claims_count":    user.DailyClaimsCount,
			"last_claim_at":         user.LastClaimAt,
			"unlocked_achievements": unlockedCount,
		})
	})
}
