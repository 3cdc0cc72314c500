// services/claim_service.go
package services

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"prize-hunt-system/models"
	"prize-hunt-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClaimService runs the end-to-end claim settlement pipeline. All persistent
// writes of one claim commit in a single transaction; the prize's conditional
// increment inside it is the only authoritative availability check.
type ClaimService struct {
	DB        *gorm.DB
	Region    utils.BoundingRegion
	AntiCheat AntiCheatConfig

	CooldownSeconds int
	DailyClaimLimit int
	IdempotencyTTL  time.Duration
	HistoryDepth    int

	events chan<- models.GameEvent
	audits chan<- models.AntiCheatAuditRecord
}

func NewClaimService(db *gorm.DB, events chan<- models.GameEvent, audits chan<- models.AntiCheatAuditRecord) *ClaimService {
	s := &ClaimService{
		DB:              db,
		Region:          regionFromEnv(),
		AntiCheat:       AntiCheatConfigFromEnv(),
		CooldownSeconds: envInt("CLAIM_COOLDOWN_SECONDS", 300),
		DailyClaimLimit: envInt("DAILY_CLAIM_LIMIT", 20),
		IdempotencyTTL:  time.Duration(envInt("IDEMPOTENCY_TTL_SECONDS", 600)) * time.Second,
		HistoryDepth:    10,
		events:          events,
		audits:          audits,
	}
	return s
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func regionFromEnv() utils.BoundingRegion {
	return utils.BoundingRegion{
		MinLat: envFloat("GAME_REGION_MIN_LAT", -90),
		MaxLat: envFloat("GAME_REGION_MAX_LAT", 90),
		MinLng: envFloat("GAME_REGION_MIN_LNG", -180),
		MaxLng: envFloat("GAME_REGION_MAX_LNG", 180),
	}
}

// ClaimRequest is the logical claim RPC body. Identity comes from the
// gateway headers, the prize id from the route.
type ClaimRequest struct {
	Location struct {
		Latitude  float64  `json:"lat"`
		Longitude float64  `json:"lng"`
		Accuracy  *float64 `json:"accuracy,omitempty"`
	} `json:"location"`
	DeviceSignals  *DeviceSignals `json:"device_signals,omitempty"`
	IdempotencyKey string         `json:"idempotency_key"`
}

// ClaimResult is the settlement response. It is stored verbatim in the
// idempotency record, so retries observe byte-identical data.
type ClaimResult struct {
	Claim         models.Claim `json:"claim"`
	PointsAwarded int64        `json:"points_awarded"`
	NewBalance    int64        `json:"new_balance"`
	NewLevel      string       `json:"new_level"`
}

// ClaimPrize is the transport handler for POST /s/prizes/:id/claim.
func (s *ClaimService) ClaimPrize(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	prizeID := c.Params("id")

	if _, err := uuid.Parse(prizeID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid prize ID"})
	}

	var req ClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.IdempotencyKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "idempotency_key is required"})
	}

	result, cerr := s.SettleClaim(userID, prizeID, req)
	if cerr != nil {
		return RespondClaimError(c, cerr)
	}
	return c.JSON(result)
}

// SettleClaim executes the pipeline. Every step short-circuits on failure;
// validation failures are terminal for the attempt.
func (s *ClaimService) SettleClaim(userID, prizeID string, req ClaimRequest) (*ClaimResult, *ClaimError) {
	now := time.Now().UTC()

	// 1. Idempotency lookup — a replay returns the stored result verbatim.
	// Store unavailability fails the request closed.
	var rec models.IdempotencyRecord
	err := s.DB.Where("key = ?", req.IdempotencyKey).First(&rec).Error
	if err == nil {
		var stored ClaimResult
		if jerr := json.Unmarshal([]byte(rec.ResultJSON), &stored); jerr != nil {
			log.Printf("❌ [CLAIM] corrupt idempotency record %s: %v", rec.Key, jerr)
			return nil, newClaimError(ErrCodeInternal, "stored settlement result unreadable")
		}
		return &stored, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("❌ [CLAIM] idempotency store unavailable: %v", err)
		return nil, newClaimError(ErrCodeInternal, "idempotency store unavailable")
	}

	// 2. Bounds check against the configured game region.
	if !s.Region.Contains(req.Location.Latitude, req.Location.Longitude) {
		return nil, newClaimError(ErrCodeLocationOutOfBounds, "reported location is outside the game region")
	}

	// 3. Entity fetch.
	var user models.GameUser
	if err := s.DB.Where("external_user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newClaimError(ErrCodeUserNotFound, "user not found")
		}
		return nil, newClaimError(ErrCodeInternal, "failed to load user")
	}
	if user.IsBanned {
		return nil, newClaimError(ErrCodeUserBanned, "account is banned")
	}

	var prize models.Prize
	if err := s.DB.Where("id = ?", prizeID).First(&prize).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newClaimError(ErrCodePrizeNotFound, "prize not found")
		}
		return nil, newClaimError(ErrCodeInternal, "failed to load prize")
	}

	// 4. Fast-path availability; the conditional increment below is the
	// authoritative check.
	if !prize.Available(now) {
		return nil, newClaimError(ErrCodePrizeNotAvailable, "prize is not available")
	}

	// 5. Geodesic distance gate.
	distance := utils.DistanceMeters(req.Location.Latitude, req.Location.Longitude, prize.Latitude, prize.Longitude)
	if distance-prize.RadiusMeters > 1e-6 {
		return nil, newClaimError(ErrCodeDistanceTooFar, "too far from the prize location")
	}

	// 6. Anti-cheat, always evaluated — prior trace alone suffices.
	history := s.recentLocationHistory(userID, s.HistoryDepth)
	current := LocationSample{
		Latitude:   req.Location.Latitude,
		Longitude:  req.Location.Longitude,
		Accuracy:   req.Location.Accuracy,
		RecordedAt: now,
	}
	decision := EvaluateMovement(userID, history, current, req.DeviceSignals, s.AntiCheat)
	if !decision.Allowed {
		s.archiveDenial(userID, prizeID, req, decision, now)
		return nil, newClaimError(ErrCodeAntiCheatViolation, "movement failed integrity checks")
	}

	// 7. Cooldown and daily cap.
	if remaining := cooldownRemaining(user.LastClaimAt, now, time.Duration(s.CooldownSeconds)*time.Second); remaining > 0 {
		cerr := newClaimError(ErrCodeCooldownActive, "claim cooldown active")
		cerr.RetryAfterSecs = int(math.Ceil(remaining.Seconds()))
		return nil, cerr
	}
	dailyCount := effectiveDailyCount(user.LastClaimAt, user.DailyClaimsCount, now)
	if dailyCount >= s.DailyClaimLimit {
		return nil, newClaimError(ErrCodeDailyLimitExceeded, "daily claim limit reached")
	}

	checks := models.ValidationChecks{
		DistanceOK:   true,
		TimeOK:       true,
		SpeedOK:      decision.SpeedViolations == 0,
		CooldownOK:   true,
		DailyLimitOK: true,
	}

	// 8–10. Atomic settlement: prize increment, claim insert, reward
	// settlement, user update and idempotency record commit together, so a
	// failure after the increment rolls the consumed slot back too.
	var result *ClaimResult
	var cerr *ClaimError
	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Prize{}).
			Where("id = ? AND status = ? AND claimed_count < quantity", prize.ID, models.PrizeStatusActive).
			Where("(expires_at IS NULL OR expires_at > ?)", now).
			Update("claimed_count", gorm.Expr("claimed_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// lost the race — indistinguishable from plain unavailability
			cerr = newClaimError(ErrCodePrizeNotAvailable, "prize is not available")
			return cerr
		}

		// Irreversible capture once the last unit is gone.
		if err := tx.Model(&models.Prize{}).
			Where("id = ? AND claimed_count >= quantity AND status = ?", prize.ID, models.PrizeStatusActive).
			Update("status", models.PrizeStatusCaptured).Error; err != nil {
			return err
		}

		// 9. Reward computation; the probability roll is drawn exactly once
		// and the outcome persists in the stored result.
		points, wantRedemption := computeAward(&prize, rand.Float64())

		claim := models.Claim{
			ID:             uuid.NewString(),
			ExternalUserID: userID,
			PrizeID:        prize.ID,
			Latitude:       req.Location.Latitude,
			Longitude:      req.Location.Longitude,
			Accuracy:       req.Location.Accuracy,
			DistanceMeters: distance,
			PointsAwarded:  points,
			RiskScore:      decision.RiskScore,
			MockLocation:   req.DeviceSignals != nil && req.DeviceSignals.MockLocation,
			AttestationOK:  true,
			DistanceOK:     checks.DistanceOK,
			TimeOK:         checks.TimeOK,
			SpeedOK:        checks.SpeedOK,
			CooldownOK:     checks.CooldownOK,
			DailyLimitOK:   checks.DailyLimitOK,
			IdempotencyKey: req.IdempotencyKey,
		}
		if req.DeviceSignals != nil {
			claim.ReportedSpeed = req.DeviceSignals.Speed
			claim.AttestationOK = req.DeviceSignals.AttestationToken == "" ||
				VerifyAttestation(req.DeviceSignals.AttestationToken, userID, s.AntiCheat.AttestationSecret)
		}
		if err := tx.Create(&claim).Error; err != nil {
			return err
		}

		if wantRedemption && prize.RewardID != nil {
			redemption, rerr := reserveRewardTx(tx, *prize.RewardID, userID, &claim.ID, 0,
				"claim:"+req.IdempotencyKey)
			switch {
			case rerr == nil:
				claim.RedemptionID = &redemption.ID
				if err := tx.Model(&models.Claim{}).Where("id = ?", claim.ID).
					Update("redemption_id", redemption.ID).Error; err != nil {
					return err
				}
			case prize.ContentType == models.PrizeContentHybrid &&
				(rerr.Code == ErrCodeInsufficientStock || rerr.Code == ErrCodeRewardNotFound):
				// bonus stock ran dry — the guaranteed points still settle
				log.Printf("⚠️ [CLAIM] hybrid bonus skipped for %s: %v", claim.ID, rerr)
			default:
				cerr = rerr
				return rerr
			}
		}

		// User ledger and stats; row lock serializes same-user claims.
		var locked models.GameUser
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("external_user_id = ?", userID).
			First(&locked).Error; err != nil {
			return err
		}
		locked.PointsAvailable += points
		locked.PointsTotal += points
		locked.PrizesFound++
		locked.CurrentStreak = nextStreak(locked.LastClaimAt, locked.CurrentStreak, now)
		locked.DailyClaimsCount = effectiveDailyCount(locked.LastClaimAt, locked.DailyClaimsCount, now) + 1
		locked.LastClaimAt = &now
		locked.LastLatitude = &req.Location.Latitude
		locked.LastLongitude = &req.Location.Longitude
		locked.Level = levelForPoints(locked.PointsTotal)
		if err := tx.Save(&locked).Error; err != nil {
			return err
		}

		result = &ClaimResult{
			Claim:         claim,
			PointsAwarded: points,
			NewBalance:    locked.PointsAvailable,
			NewLevel:      LevelName(locked.Level),
		}

		payload, jerr := json.Marshal(result)
		if jerr != nil {
			return jerr
		}
		// Unique key index makes a concurrent duplicate lose here and roll
		// everything back; its retry then replays the winner's result.
		return tx.Create(&models.IdempotencyRecord{
			ID:             uuid.NewString(),
			Key:            req.IdempotencyKey,
			ExternalUserID: userID,
			ResultJSON:     string(payload),
			ExpiresAt:      now.Add(s.IdempotencyTTL),
		}).Error
	})
	if txErr != nil {
		if cerr != nil {
			return nil, cerr
		}
		log.Printf("❌ [CLAIM] settlement transaction failed for %s/%s: %v", userID, prizeID, txErr)
		return nil, newClaimError(ErrCodeInternal, "settlement failed")
	}

	// 11. Side effects, decoupled from the success path.
	s.notify(models.GameEvent{
		Trigger:        models.TriggerPrizeClaimed,
		ExternalUserID: userID,
		PrizeID:        prize.ID,
		Category:       prize.Category,
		Rarity:         prize.Rarity,
		PointsAwarded:  result.PointsAwarded,
		OccurredAt:     now,
	})

	return result, nil
}

// GetClaim returns one of the caller's claims.
func (s *ClaimService) GetClaim(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	claimID := c.Params("id")

	var claim models.Claim
	if err := s.DB.Where("id = ? AND external_user_id = ?", claimID, userID).First(&claim).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RespondClaimError(c, newClaimError(ErrCodeClaimNotFound, "claim not found"))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(claim)
}

// ListMyClaims returns the caller's claims, newest first.
func (s *ClaimService) ListMyClaims(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var claims []models.Claim
	if err := s.DB.Where("external_user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&claims).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch claims"})
	}
	return c.JSON(claims)
}

// recentLocationHistory loads the user's latest telemetry samples across
// sessions, oldest first, for the anti-cheat trace.
func (s *ClaimService) recentLocationHistory(userID string, limit int) []LocationSample {
	var rows []LocationSample
	err := s.DB.Raw(`
		SELECT sl.latitude, sl.longitude, sl.accuracy, sl.recorded_at
		FROM session_locations sl
		INNER JOIN play_sessions ps ON ps.id = sl.session_id
		WHERE ps.external_user_id = ?
		ORDER BY sl.recorded_at DESC
		LIMIT ?
	`, userID, limit).Scan(&rows).Error
	if err != nil {
		log.Printf("⚠️ [CLAIM] failed to load location history for %s: %v", userID, err)
		return nil
	}
	// reverse into chronological order
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows
}

func (s *ClaimService) archiveDenial(userID, prizeID string, req ClaimRequest, decision AntiCheatDecision, now time.Time) {
	audit := models.AntiCheatAuditRecord{
		ExternalUserID: userID,
		PrizeID:        prizeID,
		Latitude:       req.Location.Latitude,
		Longitude:      req.Location.Longitude,
		Accuracy:       req.Location.Accuracy,
		RiskScore:      decision.RiskScore,
		Violations:     decision.Violations,
		DeniedAt:       now,
	}
	if req.DeviceSignals != nil {
		audit.ReportedSpeed = req.DeviceSignals.Speed
		audit.MockLocation = req.DeviceSignals.MockLocation
		audit.Attestation = req.DeviceSignals.AttestationToken
	}
	select {
	case s.audits <- audit:
	default:
		log.Printf("⚠️ [CLAIM] audit queue full, dropping denial record for %s", userID)
	}
}

func (s *ClaimService) notify(event models.GameEvent) {
	select {
	case s.events <- event:
	default:
		log.Printf("⚠️ [CLAIM] event queue full, dropping %s for %s", event.Trigger, event.ExternalUserID)
	}
}

// --- pure settlement arithmetic ---

// computeAward resolves points and whether a redemption should be created for
// a prize given one uniform roll in [0,1).
func computeAward(prize *models.Prize, roll float64) (points int64, wantRedemption bool) {
	switch prize.ContentType {
	case models.PrizeContentPoints:
		return flooredPoints(prize.PointsAmount, prize.BonusMultiplier), false
	case models.PrizeContentReward:
		return 0, prize.RewardID != nil
	case models.PrizeContentHybrid:
		points = flooredPoints(prize.PointsAmount, prize.BonusMultiplier)
		wantRedemption = prize.RewardID != nil && roll < prize.Probability
		return points, wantRedemption
	default:
		return 0, false
	}
}

func flooredPoints(amount int64, multiplier float64) int64 {
	if multiplier <= 0 {
		multiplier = 1
	}
	return int64(math.Floor(float64(amount) * multiplier))
}

// cooldownRemaining returns how long until the user may claim again; zero or
// negative means no cooldown is in effect.
func cooldownRemaining(lastClaimAt *time.Time, now time.Time, cooldown time.Duration) time.Duration {
	if lastClaimAt == nil {
		return 0
	}
	return lastClaimAt.Add(cooldown).Sub(now)
}

// effectiveDailyCount resets the daily counter when the last claim happened
// on an earlier UTC day.
func effectiveDailyCount(lastClaimAt *time.Time, count int, now time.Time) int {
	if lastClaimAt == nil {
		return 0
	}
	ly, lm, ld := lastClaimAt.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	if ly != ny || lm != nm || ld != nd {
		return 0
	}
	return count
}

// nextStreak advances the consecutive-day streak: claim yesterday continues
// it, claim today keeps it, anything older restarts at 1.
func nextStreak(lastClaimAt *time.Time, streak int, now time.Time) int {
	if lastClaimAt == nil || streak <= 0 {
		return 1
	}
	last := lastClaimAt.UTC().Truncate(24 * time.Hour)
	today := now.UTC().Truncate(24 * time.Hour)
	switch today.Sub(last) {
	case 0:
		return streak
	case 24 * time.Hour:
		return streak + 1
	default:
		return 1
	}
}

// Level curve: points needed for the next level grows as level^1.2.
const basePointsPerLevel = 500

func pointsForNextLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	return int64(float64(basePointsPerLevel) * math.Pow(float64(level), 1.2))
}

func levelForPoints(totalPoints int64) int {
	level := 1
	remaining := totalPoints
	for level < 200 {
		need := pointsForNextLevel(level)
		if remaining < need {
			break
		}
		remaining -= need
		level++
	}
	return level
}

// LevelName maps a numeric level to its display tier.
func LevelName(level int) string {
	switch {
	case level >= 100:
		return "Legend"
	case level >= 50:
		return "Diamond"
	case level >= 25:
		return "Platinum"
	case level >= 15:
		return "Gold"
	case level >= 8:
		return "Silver"
	case level >= 3:
		return "Bronze"
	default:
		return "Rookie"
	}
}
