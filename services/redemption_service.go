// services/redemption_service.go
package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"prize-hunt-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// RedemptionService owns reward stock movement. Every stock transition is a
// single conditional UPDATE so the invariant
// stock_quantity == available + reserved + used holds under any interleaving.
type RedemptionService struct {
	DB *gorm.DB
}

func NewRedemptionService(db *gorm.DB) *RedemptionService {
	return &RedemptionService{DB: db}
}

// reserveRewardTx atomically moves one unit available→reserved and creates a
// pending redemption, inside the caller's transaction. Exactly
// stock_available reservations can ever succeed for a reward.
func reserveRewardTx(tx *gorm.DB, rewardID, userID string, claimID *string, pointsSpent int64, idempotencyKey string) (*models.Redemption, *ClaimError) {
	res := tx.Model(&models.Reward{}).
		Where("id = ? AND status = ? AND stock_available >= 1", rewardID, models.RewardStatusPublished).
		Updates(map[string]interface{}{
			"stock_available": gorm.Expr("stock_available - 1"),
			"stock_reserved":  gorm.Expr("stock_reserved + 1"),
		})
	if res.Error != nil {
		log.Printf("❌ [REDEMPTION] stock reservation failed for %s: %v", rewardID, res.Error)
		return nil, newClaimError(ErrCodeInternal, "stock reservation failed")
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.Reward{}).Where("id = ?", rewardID).Count(&count).Error; err == nil && count == 0 {
			return nil, newClaimError(ErrCodeRewardNotFound, "reward not found")
		}
		return nil, newClaimError(ErrCodeInsufficientStock, "reward stock exhausted")
	}

	redemption := models.Redemption{
		ID:             uuid.NewString(),
		ExternalUserID: userID,
		RewardID:       rewardID,
		ClaimID:        claimID,
		PointsSpent:    pointsSpent,
		Status:         models.RedemptionStatusPending,
		IdempotencyKey: idempotencyKey,
	}
	if err := tx.Create(&redemption).Error; err != nil {
		// unique idempotency key lost a race — surface the existing record
		if strings.Contains(strings.ToLower(err.Error()), "duplicate") ||
			strings.Contains(strings.ToLower(err.Error()), "unique") {
			var existing models.Redemption
			if ferr := tx.Where("idempotency_key = ?", idempotencyKey).First(&existing).Error; ferr == nil {
				return &existing, nil
			}
		}
		log.Printf("❌ [REDEMPTION] failed to create redemption for %s: %v", rewardID, err)
		return nil, newClaimError(ErrCodeInternal, "failed to create redemption")
	}
	return &redemption, nil
}

// RedeemReward spends points on a published reward directly (outside the
// claim pipeline). Same reservation discipline, plus a conditional points
// debit on the user.
func (s *RedemptionService) RedeemReward(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	rewardID := c.Params("id")

	if _, err := uuid.Parse(rewardID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid reward ID"})
	}

	var req struct {
		IdempotencyKey string `json:"idempotency_key"`
	}
	if err := c.BodyParser(&req); err != nil || req.IdempotencyKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "idempotency_key is required"})
	}

	var existing models.Redemption
	if err := s.DB.Where("idempotency_key = ?", req.IdempotencyKey).First(&existing).Error; err == nil {
		return c.JSON(existing)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "idempotency store unavailable"})
	}

	var reward models.Reward
	if err := s.DB.Where("id = ?", rewardID).First(&reward).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RespondClaimError(c, newClaimError(ErrCodeRewardNotFound, "reward not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var redemption *models.Redemption
	var cerr *ClaimError
	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		if reward.PointsCost > 0 {
			res := tx.Model(&models.GameUser{}).
				Where("external_user_id = ? AND points_available >= ?", userID, reward.PointsCost).
				Updates(map[string]interface{}{
					"points_available": gorm.Expr("points_available - ?", reward.PointsCost),
					"points_spent":     gorm.Expr("points_spent + ?", reward.PointsCost),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fiber.NewError(fiber.StatusConflict, "insufficient points balance")
			}
		}
		r, rerr := reserveRewardTx(tx, rewardID, userID, nil, reward.PointsCost, req.IdempotencyKey)
		if rerr != nil {
			cerr = rerr
			return rerr
		}
		redemption = r
		return nil
	})
	if txErr != nil {
		if cerr != nil {
			return RespondClaimError(c, cerr)
		}
		var ferr *fiber.Error
		if errors.As(txErr, &ferr) {
			return c.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "redemption failed"})
	}
	return c.Status(fiber.StatusCreated).JSON(redemption)
}

// ConfirmRedemption moves a pending reservation to fulfilled
// (reserved→used) and attaches the issued code. Fulfillment-workflow only.
func (s *RedemptionService) ConfirmRedemption(c *fiber.Ctx) error {
	id := c.Params("id")
	var req struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	var redemption models.Redemption
	if err := s.DB.Where("id = ?", id).First(&redemption).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "redemption not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&models.Redemption{}).
			Where("id = ? AND status = ?", id, models.RedemptionStatusPending).
			Updates(map[string]interface{}{
				"status":       models.RedemptionStatusFulfilled,
				"code":         req.Code,
				"fulfilled_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "redemption is not pending")
		}
		return tx.Model(&models.Reward{}).
			Where("id = ? AND stock_reserved >= 1", redemption.RewardID).
			Updates(map[string]interface{}{
				"stock_reserved": gorm.Expr("stock_reserved - 1"),
				"stock_used":     gorm.Expr("stock_used + 1"),
			}).Error
	})
	if err != nil {
		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return c.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
		}
		log.Printf("❌ [REDEMPTION] confirm failed for %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "confirm failed"})
	}
	return c.JSON(fiber.Map{"message": "redemption fulfilled", "redemption_id": id})
}

// ReleaseRedemption cancels a pending reservation (reserved→available).
func (s *RedemptionService) ReleaseRedemption(c *fiber.Ctx) error {
	id := c.Params("id")

	var redemption models.Redemption
	if err := s.DB.Where("id = ?", id).First(&redemption).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "redemption not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Redemption{}).
			Where("id = ? AND status = ?", id, models.RedemptionStatusPending).
			Update("status", models.RedemptionStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusConflict, "redemption is not pending")
		}
		return tx.Model(&models.Reward{}).
			Where("id = ? AND stock_reserved >= 1", redemption.RewardID).
			Updates(map[string]interface{}{
				"stock_reserved":  gorm.Expr("stock_reserved - 1"),
				"stock_available": gorm.Expr("stock_available + 1"),
			}).Error
	})
	if err != nil {
		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return c.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
		}
		log.Printf("❌ [REDEMPTION] release failed for %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "release failed"})
	}
	return c.JSON(fiber.Map{"message": "redemption released", "redemption_id": id})
}

// CreateReward creates a stock-limited catalog entry (admin only).
func (s *RedemptionService) CreateReward(c *fiber.Ctx) error {
	var req struct {
		Title       string              `json:"title"`
		Description string              `json:"description"`
		PointsCost  int64               `json:"points_cost"`
		Stock       int                 `json:"stock"`
		Status      models.RewardStatus `json:"status"`
		ExpiryDate  *time.Time          `json:"expiry_date,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}
	if req.Stock < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "stock must not be negative"})
	}
	if req.Status == "" {
		req.Status = models.RewardStatusDraft
	}

	reward := models.Reward{
		ID:             uuid.NewString(),
		Title:          req.Title,
		Slug:           slug.Make(req.Title) + "-" + uuid.NewString()[:8],
		Description:    req.Description,
		PointsCost:     req.PointsCost,
		Status:         req.Status,
		StockQuantity:  req.Stock,
		StockAvailable: req.Stock,
		ExpiryDate:     req.ExpiryDate,
	}
	if err := s.DB.Create(&reward).Error; err != nil {
		log.Printf("❌ [REDEMPTION] failed to create reward: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create reward"})
	}
	return c.Status(fiber.StatusCreated).JSON(reward)
}

// GetReward returns one catalog entry, stock buckets included.
func (s *RedemptionService) GetReward(c *fiber.Ctx) error {
	id := c.Params("id")
	var reward models.Reward
	if err := s.DB.Where("id = ?", id).First(&reward).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RespondClaimError(c, newClaimError(ErrCodeRewardNotFound, "reward not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(reward)
}

// ListMyRedemptions returns the caller's redemptions, newest first.
func (s *RedemptionService) ListMyRedemptions(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var redemptions []models.Redemption
	if err := s.DB.Where("external_user_id = ?", userID).
		Order("created_at DESC").
		Find(&redemptions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch redemptions"})
	}
	return c.JSON(redemptions)
}
