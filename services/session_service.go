// services/session_service.go
package services

import (
	"errors"
	"log"
	"time"

	"prize-hunt-system/models"
	"prize-hunt-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionService records per-session movement telemetry: an append-only
// location log with running distance/speed metrics and anti-cheat counters.
type SessionService struct {
	DB        *gorm.DB
	AntiCheat AntiCheatConfig

	InactivityTTL time.Duration

	events chan<- models.GameEvent
}

func NewSessionService(db *gorm.DB, events chan<- models.GameEvent) *SessionService {
	return &SessionService{
		DB:            db,
		AntiCheat:     AntiCheatConfigFromEnv(),
		InactivityTTL: time.Duration(envInt("SESSION_INACTIVITY_TTL_SECONDS", 1800)) * time.Second,
		events:        events,
	}
}

// StartSession opens a new active telemetry session for the caller. The
// player row is provisioned here on first contact; identity itself is
// already verified by the gateway.
func (s *SessionService) StartSession(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	now := time.Now().UTC()

	if err := s.DB.Where(models.GameUser{ExternalUserID: userID}).
		Attrs(models.GameUser{ID: uuid.NewString(), Level: 1}).
		FirstOrCreate(&models.GameUser{}).Error; err != nil {
		log.Printf("❌ [SESSION] failed to provision user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to start session"})
	}

	session := models.PlaySession{
		ID:             uuid.NewString(),
		ExternalUserID: userID,
		Status:         models.SessionStatusActive,
		LastActivityAt: now,
	}
	if err := s.DB.Create(&session).Error; err != nil {
		log.Printf("❌ [SESSION] failed to start session for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to start session"})
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// RecordLocation appends one sample and updates the running metrics.
func (s *SessionService) RecordLocation(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	sessionID := c.Params("id")

	var req struct {
		Latitude   float64    `json:"lat"`
		Longitude  float64    `json:"lng"`
		Accuracy   *float64   `json:"accuracy,omitempty"`
		RecordedAt *time.Time `json:"recorded_at,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	at := time.Now().UTC()
	if req.RecordedAt != nil {
		at = req.RecordedAt.UTC()
	}

	var session models.PlaySession
	if err := s.DB.Where("id = ? AND external_user_id = ?", sessionID, userID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if session.Status != models.SessionStatusActive {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "session is not active"})
	}

	advanceSessionMetrics(&session, req.Latitude, req.Longitude, at, s.AntiCheat)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		sample := models.SessionLocation{
			ID:         uuid.NewString(),
			SessionID:  session.ID,
			Latitude:   req.Latitude,
			Longitude:  req.Longitude,
			Accuracy:   req.Accuracy,
			RecordedAt: at,
		}
		if err := tx.Create(&sample).Error; err != nil {
			return err
		}
		return tx.Save(&session).Error
	})
	if err != nil {
		log.Printf("❌ [SESSION] failed to record location for %s: %v", sessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record location"})
	}
	return c.JSON(session)
}

// EndSession closes a session explicitly and emits SESSION_COMPLETED.
func (s *SessionService) EndSession(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	sessionID := c.Params("id")
	now := time.Now().UTC()

	res := s.DB.Model(&models.PlaySession{}).
		Where("id = ? AND external_user_id = ? AND status = ?", sessionID, userID, models.SessionStatusActive).
		Updates(map[string]interface{}{
			"status":   models.SessionStatusCompleted,
			"ended_at": now,
		})
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to end session"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "active session not found"})
	}

	select {
	case s.events <- models.GameEvent{
		Trigger:        models.TriggerSessionCompleted,
		ExternalUserID: userID,
		OccurredAt:     now,
	}:
	default:
		log.Printf("⚠️ [SESSION] event queue full, dropping SESSION_COMPLETED for %s", userID)
	}

	var session models.PlaySession
	if err := s.DB.Where("id = ?", sessionID).First(&session).Error; err == nil {
		return c.JSON(session)
	}
	return c.JSON(fiber.Map{"message": "session ended", "session_id": sessionID})
}

// GetSession returns one of the caller's sessions.
func (s *SessionService) GetSession(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	sessionID := c.Params("id")

	var session models.PlaySession
	if err := s.DB.Where("id = ? AND external_user_id = ?", sessionID, userID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(session)
}

// ListFlaggedSessions lists sessions queued for human review (admin).
func (s *SessionService) ListFlaggedSessions(c *fiber.Ctx) error {
	var sessions []models.PlaySession
	if err := s.DB.Where("flagged_for_review = ?", true).
		Order("updated_at DESC").
		Limit(200).
		Find(&sessions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch sessions"})
	}
	return c.JSON(sessions)
}

// SweepInactive abandons active sessions idle longer than the TTL.
// Called from the scheduler.
func (s *SessionService) SweepInactive() {
	cutoff := time.Now().UTC().Add(-s.InactivityTTL)
	res := s.DB.Model(&models.PlaySession{}).
		Where("status = ? AND last_activity_at < ?", models.SessionStatusActive, cutoff).
		Updates(map[string]interface{}{
			"status":   models.SessionStatusAbandoned,
			"ended_at": time.Now().UTC(),
		})
	if res.Error != nil {
		log.Printf("[Scheduler] session sweep failed: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("🧹 Abandoned %d inactive session(s)", res.RowsAffected)
	}
}

// advanceSessionMetrics folds one sample into the running metrics and
// anti-cheat counters. Pure state transition, no I/O; flagging only queues
// review and never blocks gameplay.
func advanceSessionMetrics(sess *models.PlaySession, lat, lng float64, at time.Time, cfg AntiCheatConfig) {
	if sess.LastLatitude != nil && sess.LastLongitude != nil && sess.LastSampleAt != nil {
		dt := at.Sub(*sess.LastSampleAt).Seconds()
		if dt > 0 {
			dist := utils.DistanceMeters(*sess.LastLatitude, *sess.LastLongitude, lat, lng)
			speed := dist / dt

			sess.DistanceTraveled += dist
			sess.TimeActiveSecs += dt
			if speed > sess.MaxSpeed {
				sess.MaxSpeed = speed
			}
			if sess.TimeActiveSecs > 0 {
				sess.AverageSpeed = sess.DistanceTraveled / sess.TimeActiveSecs
			}

			if dist >= cfg.TeleportDistanceMeters && speed >= cfg.TeleportMinSpeedMPS {
				sess.Teleportations++
				sess.RiskScore += cfg.TeleportScore
			} else if speed > cfg.MaxSpeedMPS {
				sess.SpeedViolations++
				sess.RiskScore += cfg.SpeedViolationScore
			}
			if sess.RiskScore > 100 {
				sess.RiskScore = 100
			}
			if sess.RiskScore >= cfg.RiskThreshold {
				sess.FlaggedForReview = true
			}
		}
	}

	sess.SampleCount++
	sess.LastLatitude = &lat
	sess.LastLongitude = &lng
	sess.LastSampleAt = &at
	sess.LastActivityAt = at
}
