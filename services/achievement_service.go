// services/achievement_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"prize-hunt-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AchievementService recomputes per-user progress when game events arrive.
// State machine per (user, achievement): locked → in-progress → unlocked
// (terminal). Progress never decreases and rewards grant exactly once; both
// are guarded at the database, not in memory.
type AchievementService struct {
	DB *gorm.DB
}

func NewAchievementService(db *gorm.DB) *AchievementService {
	return &AchievementService{DB: db}
}

// ProcessEvent handles one trigger event. Failures here are logged by the
// worker and never surface to the claim path.
func (s *AchievementService) ProcessEvent(event models.GameEvent) error {
	var achievements []models.Achievement
	if err := s.DB.Where("trigger = ? AND is_active = ?", event.Trigger, true).
		Find(&achievements).Error; err != nil {
		return fmt.Errorf("failed to load achievements for %s: %w", event.Trigger, err)
	}
	if len(achievements) == 0 {
		return nil
	}

	var user models.GameUser
	if err := s.DB.Where("external_user_id = ?", event.ExternalUserID).First(&user).Error; err != nil {
		return fmt.Errorf("user %s not found for achievement check: %w", event.ExternalUserID, err)
	}

	for i := range achievements {
		if err := s.applyAchievement(&user, &achievements[i]); err != nil {
			log.Printf("⚠️ [ACHIEVEMENT] %s for %s failed: %v", achievements[i].Code, user.ExternalUserID, err)
		}
	}
	return nil
}

// applyAchievement recomputes one (user, achievement) pair and unlocks it
// when progress reaches 100.
func (s *AchievementService) applyAchievement(user *models.GameUser, ach *models.Achievement) error {
	ua, err := s.ensureUserAchievement(user.ExternalUserID, ach.ID)
	if err != nil {
		return err
	}
	if ua.UnlockedAt != nil {
		// terminal — a duplicate trigger is an idempotent no-op
		return nil
	}

	current := metricValue(user, ach.ConditionMetric)
	progress := computeProgress(ach.ConditionType, current, ach.ConditionTarget)
	progress = monotonicProgress(ua.Progress, progress)

	if progress < 100 {
		// Conditional write keeps progress monotone even across racing
		// recomputations.
		return s.DB.Model(&models.UserAchievement{}).
			Where("id = ? AND unlocked_at IS NULL AND progress <= ?", ua.ID, progress).
			Update("progress", progress).Error
	}

	return s.unlock(user.ExternalUserID, ua.ID, ach)
}

// unlock transitions to the terminal state and grants the reward list
// exactly once. The unlocked_at IS NULL guard makes a duplicate trigger lose.
func (s *AchievementService) unlock(externalUserID, userAchievementID string, ach *models.Achievement) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&models.UserAchievement{}).
			Where("id = ? AND unlocked_at IS NULL", userAchievementID).
			Updates(map[string]interface{}{
				"progress":       100.0,
				"unlocked_at":    now,
				"reward_granted": true,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// someone else unlocked it first
			return nil
		}

		if ach.RewardPoints > 0 {
			var locked models.GameUser
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("external_user_id = ?", externalUserID).
				First(&locked).Error; err != nil {
				return err
			}
			locked.PointsAvailable += ach.RewardPoints
			locked.PointsTotal += ach.RewardPoints
			locked.Level = levelForPoints(locked.PointsTotal)
			if err := tx.Save(&locked).Error; err != nil {
				return err
			}
		}
		// RewardBadge / RewardTitle are cosmetic placeholders surfaced with
		// the unlocked row; nothing further to persist for them here.

		log.Printf("🏆 [ACHIEVEMENT] unlocked: %s → %s (+%d pts)", ach.Code, externalUserID, ach.RewardPoints)
		return nil
	})
}

// ensureUserAchievement creates the progress row on first touch (idempotent).
func (s *AchievementService) ensureUserAchievement(externalUserID, achievementID string) (*models.UserAchievement, error) {
	var ua models.UserAchievement
	err := s.DB.Where("external_user_id = ? AND achievement_id = ?", externalUserID, achievementID).
		First(&ua).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ua = models.UserAchievement{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			AchievementID:  achievementID,
			Progress:       0,
		}
		if cerr := s.DB.Create(&ua).Error; cerr != nil {
			// unique (user, achievement) index may have lost a race
			if ferr := s.DB.Where("external_user_id = ? AND achievement_id = ?", externalUserID, achievementID).
				First(&ua).Error; ferr != nil {
				return nil, cerr
			}
		}
		return &ua, nil
	}
	if err != nil {
		return nil, err
	}
	return &ua, nil
}

// --- handlers ---

// ListCatalog returns the active achievement templates.
func (s *AchievementService) ListCatalog(c *fiber.Ctx) error {
	var achievements []models.Achievement
	if err := s.DB.Where("is_active = ?", true).Order("created_at ASC").
		Find(&achievements).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch achievements"})
	}
	return c.JSON(achievements)
}

// ListMyAchievements returns the caller's progress rows with templates.
func (s *AchievementService) ListMyAchievements(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var rows []models.UserAchievement
	if err := s.DB.Preload("Achievement").
		Where("external_user_id = ?", userID).
		Order("updated_at DESC").
		Find(&rows).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch achievement progress"})
	}
	return c.JSON(rows)
}

// --- pure progress arithmetic ---

// computeProgress maps a user metric onto the 0..100 scale.
// counter: min(100, current/target*100); threshold: binary 0/100.
func computeProgress(condType models.AchievementConditionType, current, target int64) float64 {
	if target <= 0 {
		return 0
	}
	switch condType {
	case models.ConditionThreshold:
		if current >= target {
			return 100
		}
		return 0
	case models.ConditionCounter:
		p := float64(current) / float64(target) * 100
		if p > 100 {
			return 100
		}
		if p < 0 {
			return 0
		}
		return p
	default:
		return 0
	}
}

// monotonicProgress never lets recomputation move a pair backwards.
func monotonicProgress(stored, computed float64) float64 {
	if computed < stored {
		return stored
	}
	return computed
}

// metricValue resolves a condition metric from the user snapshot.
func metricValue(user *models.GameUser, metric string) int64 {
	switch metric {
	case "prizes_found":
		return user.PrizesFound
	case "points_total":
		return user.PointsTotal
	case "level":
		return int64(user.Level)
	case "current_streak":
		return int64(user.CurrentStreak)
	default:
		return 0
	}
}
