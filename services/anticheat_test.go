package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"testing"
	"time"
)

const earthRadiusMeters = 6371000.0

func sampleAt(lat, lng float64, at time.Time) LocationSample {
	return LocationSample{Latitude: lat, Longitude: lng, RecordedAt: at}
}

// metersNorth offsets a latitude by the given distance.
func metersNorth(lat, meters float64) float64 {
	return lat + meters/earthRadiusMeters*180/math.Pi
}

func TestEvaluateMovement(t *testing.T) {
	cfg := DefaultAntiCheatConfig()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lat, lng := 48.8566, 2.3522

	t.Run("clean walking trace is allowed", func(t *testing.T) {
		// ~1.4 m/s segments
		history := []LocationSample{
			sampleAt(lat, lng, base),
			sampleAt(metersNorth(lat, 14), lng, base.Add(10*time.Second)),
		}
		current := sampleAt(metersNorth(lat, 28), lng, base.Add(20*time.Second))

		d := EvaluateMovement("user-1", history, current, nil, cfg)
		if !d.Allowed {
			t.Fatalf("expected clean trace to be allowed, got risk=%d violations=%v", d.RiskScore, d.Violations)
		}
		if d.RiskScore != 0 {
			t.Errorf("expected zero risk, got %d", d.RiskScore)
		}
	})

	t.Run("2km jump in 1 second is a teleportation", func(t *testing.T) {
		history := []LocationSample{sampleAt(lat, lng, base)}
		current := sampleAt(metersNorth(lat, 2000), lng, base.Add(1*time.Second))

		d := EvaluateMovement("user-1", history, current, nil, cfg)
		if d.Teleportations != 1 {
			t.Fatalf("expected 1 teleportation, got %d (violations=%v)", d.Teleportations, d.Violations)
		}
		if d.RiskScore != cfg.TeleportScore {
			t.Errorf("expected risk %d, got %d", cfg.TeleportScore, d.RiskScore)
		}
	})

	t.Run("implausible speed below teleport distance is a speed violation", func(t *testing.T) {
		// 500m in 5s = 100 m/s, over MaxSpeedMPS but under the teleport distance
		history := []LocationSample{sampleAt(lat, lng, base)}
		current := sampleAt(metersNorth(lat, 500), lng, base.Add(5*time.Second))

		d := EvaluateMovement("user-1", history, current, nil, cfg)
		if d.SpeedViolations != 1 {
			t.Fatalf("expected 1 speed violation, got %d", d.SpeedViolations)
		}
		if d.Teleportations != 0 {
			t.Errorf("expected no teleportations, got %d", d.Teleportations)
		}
	})

	t.Run("mock location plus teleport is denied", func(t *testing.T) {
		history := []LocationSample{sampleAt(lat, lng, base)}
		current := sampleAt(metersNorth(lat, 2000), lng, base.Add(1*time.Second))
		signals := &DeviceSignals{MockLocation: true}

		d := EvaluateMovement("user-1", history, current, signals, cfg)
		if d.Allowed {
			t.Fatalf("expected denial, got risk=%d", d.RiskScore)
		}
		if d.RiskScore != cfg.TeleportScore+cfg.MockLocationScore {
			t.Errorf("expected additive risk %d, got %d", cfg.TeleportScore+cfg.MockLocationScore, d.RiskScore)
		}
	})

	t.Run("deterministic for a fixed trajectory", func(t *testing.T) {
		history := []LocationSample{
			sampleAt(lat, lng, base),
			sampleAt(metersNorth(lat, 2000), lng, base.Add(1*time.Second)),
		}
		current := sampleAt(metersNorth(lat, 2500), lng, base.Add(3*time.Second))

		first := EvaluateMovement("user-1", history, current, nil, cfg)
		second := EvaluateMovement("user-1", history, current, nil, cfg)
		if first.RiskScore != second.RiskScore || first.Allowed != second.Allowed {
			t.Errorf("evaluator not deterministic: %+v vs %+v", first, second)
		}
	})

	t.Run("risk score is capped at 100", func(t *testing.T) {
		var history []LocationSample
		for i := 0; i < 6; i++ {
			history = append(history, sampleAt(metersNorth(lat, float64(i)*2000), lng, base.Add(time.Duration(i)*time.Second)))
		}
		current := sampleAt(metersNorth(lat, 14000), lng, base.Add(7*time.Second))

		d := EvaluateMovement("user-1", history, current, &DeviceSignals{MockLocation: true}, cfg)
		if d.RiskScore != 100 {
			t.Errorf("expected capped risk 100, got %d", d.RiskScore)
		}
	})

	t.Run("zero or negative elapsed time is skipped", func(t *testing.T) {
		history := []LocationSample{sampleAt(lat, lng, base)}
		current := sampleAt(metersNorth(lat, 2000), lng, base) // same timestamp

		d := EvaluateMovement("user-1", history, current, nil, cfg)
		if d.Teleportations != 0 || d.SpeedViolations != 0 {
			t.Errorf("expected no violations for zero Δt, got %+v", d)
		}
	})
}

func TestVerifyAttestation(t *testing.T) {
	secret := "test-secret"
	userID := "user-42"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(userID))
	valid := "v1:" + hex.EncodeToString(mac.Sum(nil))

	cases := []struct {
		name  string
		token string
		want  bool
	}{
		{"valid token", valid, true},
		{"tampered token", "v1:deadbeef", false},
		{"wrong version", "v2:" + valid[3:], false},
		{"garbage", "not-a-token", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := VerifyAttestation(tc.token, userID, secret); got != tc.want {
				t.Errorf("VerifyAttestation(%q) = %v, want %v", tc.token, got, tc.want)
			}
		})
	}

	t.Run("no provisioned secret cannot reject", func(t *testing.T) {
		if !VerifyAttestation("anything", userID, "") {
			t.Error("expected pass-through when no secret is configured")
		}
	})

	t.Run("invalid token raises risk in evaluation", func(t *testing.T) {
		cfg := DefaultAntiCheatConfig()
		cfg.AttestationSecret = secret
		current := sampleAt(48.8566, 2.3522, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

		d := EvaluateMovement(userID, nil, current, &DeviceSignals{AttestationToken: "v1:deadbeef"}, cfg)
		if d.RiskScore != cfg.AttestationScore {
			t.Errorf("expected risk %d, got %d", cfg.AttestationScore, d.RiskScore)
		}
	})
}
