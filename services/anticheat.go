// services/anticheat.go
package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"

	"prize-hunt-system/utils"
)

// Violation codes recorded by the evaluator
const (
	ViolationSpeed        = "SPEED_VIOLATION"
	ViolationTeleport     = "TELEPORTATION"
	ViolationMockLocation = "MOCK_LOCATION"
	ViolationAttestation  = "ATTESTATION_FAILED"
)

// DeviceSignals are the optional client-reported integrity signals attached
// to a claim request.
type DeviceSignals struct {
	Speed            *float64 `json:"speed,omitempty"` // m/s, client-reported
	MockLocation     bool     `json:"mock_location,omitempty"`
	AttestationToken string   `json:"attestation_token,omitempty"`
}

// LocationSample is one timestamped coordinate of a movement trace.
type LocationSample struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// AntiCheatConfig holds the movement-plausibility thresholds. The evaluator
// itself is pure; the config is resolved once at startup.
type AntiCheatConfig struct {
	MaxSpeedMPS            float64 // above plausible vehicular travel
	TeleportDistanceMeters float64 // displacement that can only be a jump
	TeleportMinSpeedMPS    float64 // displacement/Δt above this + distance above threshold = teleport
	RiskThreshold          int     // allowed = risk < threshold

	SpeedViolationScore int
	TeleportScore       int
	MockLocationScore   int
	AttestationScore    int

	AttestationSecret string
}

// DefaultAntiCheatConfig returns the tuned defaults.
func DefaultAntiCheatConfig() AntiCheatConfig {
	return AntiCheatConfig{
		MaxSpeedMPS:            42,   // ~150 km/h
		TeleportDistanceMeters: 1000, // 1 km jumps
		TeleportMinSpeedMPS:    139,  // ~500 km/h
		RiskThreshold:          60,
		SpeedViolationScore:    25,
		TeleportScore:          45,
		MockLocationScore:      50,
		AttestationScore:       35,
	}
}

// AntiCheatConfigFromEnv overlays env tunables on the defaults.
func AntiCheatConfigFromEnv() AntiCheatConfig {
	cfg := DefaultAntiCheatConfig()
	if v := os.Getenv("ANTICHEAT_MAX_SPEED_MPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.MaxSpeedMPS = f
		}
	}
	if v := os.Getenv("ANTICHEAT_TELEPORT_DISTANCE_M"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.TeleportDistanceMeters = f
		}
	}
	if v := os.Getenv("ANTICHEAT_RISK_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			cfg.RiskThreshold = n
		}
	}
	cfg.AttestationSecret = os.Getenv("ANTICHEAT_ATTESTATION_SECRET")
	return cfg
}

// AntiCheatDecision is the evaluator output. RiskScore is 0..100.
type AntiCheatDecision struct {
	Allowed         bool     `json:"allowed"`
	RiskScore       int      `json:"risk_score"`
	Violations      []string `json:"violations"`
	SpeedViolations int      `json:"speed_violations"`
	Teleportations  int      `json:"teleportations"`
}

// EvaluateMovement scores a player's movement plausibility. It is a pure
// function of its inputs so synthetic trajectories can be tested without any
// persistence. history must be ordered oldest-first; current is appended as
// the newest sample. Device signals may be nil — the trace alone is evaluated.
func EvaluateMovement(userID string, history []LocationSample, current LocationSample, signals *DeviceSignals, cfg AntiCheatConfig) AntiCheatDecision {
	d := AntiCheatDecision{}

	trace := make([]LocationSample, 0, len(history)+1)
	trace = append(trace, history...)
	trace = append(trace, current)

	for i := 1; i < len(trace); i++ {
		prev, cur := trace[i-1], trace[i]
		dt := cur.RecordedAt.Sub(prev.RecordedAt).Seconds()
		if dt <= 0 {
			continue
		}
		dist := utils.DistanceMeters(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude)
		speed := dist / dt

		if dist >= cfg.TeleportDistanceMeters && speed >= cfg.TeleportMinSpeedMPS {
			d.Teleportations++
			d.RiskScore += cfg.TeleportScore
			d.Violations = append(d.Violations, ViolationTeleport)
			continue
		}
		if speed > cfg.MaxSpeedMPS {
			d.SpeedViolations++
			d.RiskScore += cfg.SpeedViolationScore
			d.Violations = append(d.Violations, ViolationSpeed)
		}
	}

	if signals != nil {
		if signals.MockLocation {
			d.RiskScore += cfg.MockLocationScore
			d.Violations = append(d.Violations, ViolationMockLocation)
		}
		if signals.Speed != nil && *signals.Speed > cfg.MaxSpeedMPS {
			d.SpeedViolations++
			d.RiskScore += cfg.SpeedViolationScore
			d.Violations = append(d.Violations, ViolationSpeed)
		}
		if signals.AttestationToken != "" && !VerifyAttestation(signals.AttestationToken, userID, cfg.AttestationSecret) {
			d.RiskScore += cfg.AttestationScore
			d.Violations = append(d.Violations, ViolationAttestation)
		}
	}

	if d.RiskScore > 100 {
		d.RiskScore = 100
	}
	d.Allowed = d.RiskScore < cfg.RiskThreshold
	return d
}

// VerifyAttestation checks a client attestation token of the form
// "v1:<hex hmac-sha256(secret, userID)>".
func VerifyAttestation(token, userID, secret string) bool {
	if secret == "" {
		// no secret provisioned — token presence alone cannot be verified
		return true
	}
	parts := strings.SplitN(token, ":", 2)
	if len(parts) != 2 || parts[0] != "v1" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(userID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(parts[1]), []byte(expected))
}
