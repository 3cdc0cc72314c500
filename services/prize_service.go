// services/prize_service.go
package services

import (
	"errors"
	"log"
	"strconv"
	"time"

	"prize-hunt-system/models"
	"prize-hunt-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// PrizeService is the thin authoring/browse surface around prize documents.
// The heavy bulk-distribution tooling lives outside this service; only the
// claim pipeline ever mutates claimed_count.
type PrizeService struct {
	DB *gorm.DB
}

func NewPrizeService(db *gorm.DB) *PrizeService {
	return &PrizeService{DB: db}
}

var titleCaser = cases.Title(language.English)

// CreatePrize creates a new prize marker (admin only).
func (s *PrizeService) CreatePrize(c *fiber.Ctx) error {
	var req struct {
		Title               string                  `json:"title"`
		Category            string                  `json:"category"`
		Rarity              string                  `json:"rarity"`
		Latitude            float64                 `json:"latitude"`
		Longitude           float64                 `json:"longitude"`
		RadiusMeters        float64                 `json:"radius_meters"`
		ConfidenceThreshold float64                 `json:"confidence_threshold"`
		Quantity            int                     `json:"quantity"`
		ContentType         models.PrizeContentType `json:"content_type"`
		PointsAmount        int64                   `json:"points_amount"`
		BonusMultiplier     float64                 `json:"bonus_multiplier"`
		RewardID            *string                 `json:"reward_id,omitempty"`
		AutoRedeem          bool                    `json:"auto_redeem"`
		Probability         float64                 `json:"probability"`
		VisibleFrom         *time.Time              `json:"visible_from,omitempty"`
		VisibleUntil        *time.Time              `json:"visible_until,omitempty"`
		ExpiresAt           *time.Time              `json:"expires_at,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}
	if req.Quantity < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "quantity must be at least 1"})
	}
	switch req.ContentType {
	case models.PrizeContentPoints, models.PrizeContentReward, models.PrizeContentHybrid:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "content_type must be points, reward or hybrid"})
	}
	if req.ContentType != models.PrizeContentPoints && req.RewardID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "reward_id is required for reward and hybrid prizes"})
	}
	if req.Probability < 0 || req.Probability > 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "probability must be between 0 and 1"})
	}
	if req.RadiusMeters <= 0 {
		req.RadiusMeters = 50
	}
	if req.BonusMultiplier <= 0 {
		req.BonusMultiplier = 1
	}

	prize := models.Prize{
		ID:                  uuid.NewString(),
		Title:               titleCaser.String(req.Title),
		Slug:                slug.Make(req.Title) + "-" + uuid.NewString()[:8],
		Category:            req.Category,
		Rarity:              req.Rarity,
		Latitude:            req.Latitude,
		Longitude:           req.Longitude,
		RadiusMeters:        req.RadiusMeters,
		ConfidenceThreshold: req.ConfidenceThreshold,
		Quantity:            req.Quantity,
		Status:              models.PrizeStatusActive,
		ContentType:         req.ContentType,
		PointsAmount:        req.PointsAmount,
		BonusMultiplier:     req.BonusMultiplier,
		RewardID:            req.RewardID,
		AutoRedeem:          req.AutoRedeem,
		Probability:         req.Probability,
		VisibleFrom:         req.VisibleFrom,
		VisibleUntil:        req.VisibleUntil,
		ExpiresAt:           req.ExpiresAt,
	}
	if err := s.DB.Create(&prize).Error; err != nil {
		log.Printf("❌ [PRIZE] failed to create prize: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create prize"})
	}
	return c.Status(fiber.StatusCreated).JSON(prize)
}

// UpdatePrizeStatus lets an admin deactivate or revoke a prize. Captured is
// reserved for the claim pipeline and expired for the sweep.
func (s *PrizeService) UpdatePrizeStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	var req struct {
		Status models.PrizeStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	switch req.Status {
	case models.PrizeStatusActive, models.PrizeStatusInactive, models.PrizeStatusRevoked:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "status must be active, inactive or revoked"})
	}

	res := s.DB.Model(&models.Prize{}).
		Where("id = ? AND status NOT IN ?", id, []models.PrizeStatus{models.PrizeStatusCaptured, models.PrizeStatusExpired}).
		Update("status", req.Status)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "prize not found or in a terminal state"})
	}
	return c.JSON(fiber.Map{"message": "prize status updated", "prize_id": id, "status": req.Status})
}

// GetPrize returns one prize document.
func (s *PrizeService) GetPrize(c *fiber.Ctx) error {
	id := c.Params("id")
	var prize models.Prize
	if err := s.DB.Where("id = ?", id).First(&prize).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "prize not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(prize)
}

// NearbyPrize is the lightweight listing shape for the map view.
type NearbyPrize struct {
	ID             string  `json:"id"`
	Slug           string  `json:"slug"`
	Title          string  `json:"title"`
	Category       string  `json:"category"`
	Rarity         string  `json:"rarity"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	RadiusMeters   float64 `json:"radius_meters"`
	DistanceMeters float64 `json:"distance_meters"`
}

// ListNearby returns visible active prizes within a radius of the caller.
// Bounding-box SQL prefilter, then the exact haversine cut.
func (s *PrizeService) ListNearby(c *fiber.Ctx) error {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "lat and lng query parameters are required"})
	}
	radius, _ := strconv.ParseFloat(c.Query("radius", "2000"), 64)
	if radius <= 0 || radius > 20000 {
		radius = 2000
	}

	minLat, maxLat, minLng, maxLng := utils.BoundingBox(lat, lng, radius)
	now := time.Now().UTC()

	var prizes []models.Prize
	if err := s.DB.
		Where("status = ? AND claimed_count < quantity", models.PrizeStatusActive).
		Where("latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?", minLat, maxLat, minLng, maxLng).
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		Where("(visible_from IS NULL OR visible_from <= ?)", now).
		Where("(visible_until IS NULL OR visible_until >= ?)", now).
		Limit(200).
		Find(&prizes).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch prizes"})
	}

	nearby := make([]NearbyPrize, 0, len(prizes))
	for _, p := range prizes {
		d := utils.DistanceMeters(lat, lng, p.Latitude, p.Longitude)
		if d > radius {
			continue
		}
		nearby = append(nearby, NearbyPrize{
			ID:             p.ID,
			Slug:           p.Slug,
			Title:          p.Title,
			Category:       p.Category,
			Rarity:         p.Rarity,
			Latitude:       p.Latitude,
			Longitude:      p.Longitude,
			RadiusMeters:   p.RadiusMeters,
			DistanceMeters: d,
		})
	}
	return c.JSON(nearby)
}

// SweepExpired transitions prizes past their hard expiry or visibility
// window. Called from the scheduler.
func (s *PrizeService) SweepExpired() {
	now := time.Now().UTC()

	res := s.DB.Model(&models.Prize{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", models.PrizeStatusActive, now).
		Update("status", models.PrizeStatusExpired)
	if res.Error != nil {
		log.Printf("[Scheduler] prize expiry sweep failed: %v", res.Error)
	} else if res.RowsAffected > 0 {
		log.Printf("🧹 Expired %d prize(s)", res.RowsAffected)
	}

	res = s.DB.Model(&models.Prize{}).
		Where("status = ? AND visible_until IS NOT NULL AND visible_until < ?", models.PrizeStatusActive, now).
		Update("status", models.PrizeStatusInactive)
	if res.Error != nil {
		log.Printf("[Scheduler] prize visibility sweep failed: %v", res.Error)
	} else if res.RowsAffected > 0 {
		log.Printf("🧹 Deactivated %d prize(s) past visibility window", res.RowsAffected)
	}
}
