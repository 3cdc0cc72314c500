package services

import (
	"math"
	"testing"
	"time"

	"prize-hunt-system/models"
)

func TestAdvanceSessionMetrics(t *testing.T) {
	cfg := DefaultAntiCheatConfig()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lat, lng := 48.8566, 2.3522

	t.Run("first sample only seeds state", func(t *testing.T) {
		sess := models.PlaySession{}
		advanceSessionMetrics(&sess, lat, lng, base, cfg)

		if sess.SampleCount != 1 {
			t.Errorf("expected 1 sample, got %d", sess.SampleCount)
		}
		if sess.DistanceTraveled != 0 {
			t.Errorf("expected no distance on first sample, got %f", sess.DistanceTraveled)
		}
		if sess.LastLatitude == nil || *sess.LastLatitude != lat {
			t.Error("last latitude not recorded")
		}
		if !sess.LastActivityAt.Equal(base) {
			t.Error("last activity not advanced")
		}
	})

	t.Run("walking samples accumulate distance and speed", func(t *testing.T) {
		sess := models.PlaySession{}
		advanceSessionMetrics(&sess, lat, lng, base, cfg)
		advanceSessionMetrics(&sess, metersNorth(lat, 100), lng, base.Add(50*time.Second), cfg)
		advanceSessionMetrics(&sess, metersNorth(lat, 200), lng, base.Add(100*time.Second), cfg)

		if sess.SampleCount != 3 {
			t.Fatalf("expected 3 samples, got %d", sess.SampleCount)
		}
		if math.Abs(sess.DistanceTraveled-200) > 0.1 {
			t.Errorf("expected ~200m traveled, got %f", sess.DistanceTraveled)
		}
		if math.Abs(sess.AverageSpeed-2) > 0.01 {
			t.Errorf("expected ~2 m/s average, got %f", sess.AverageSpeed)
		}
		if math.Abs(sess.MaxSpeed-2) > 0.01 {
			t.Errorf("expected ~2 m/s max, got %f", sess.MaxSpeed)
		}
		if sess.RiskScore != 0 || sess.FlaggedForReview {
			t.Errorf("clean trace should carry no risk, got %d flagged=%v", sess.RiskScore, sess.FlaggedForReview)
		}
	})

	t.Run("max speed keeps the fastest segment", func(t *testing.T) {
		sess := models.PlaySession{}
		advanceSessionMetrics(&sess, lat, lng, base, cfg)
		advanceSessionMetrics(&sess, metersNorth(lat, 100), lng, base.Add(10*time.Second), cfg)  // 10 m/s
		advanceSessionMetrics(&sess, metersNorth(lat, 110), lng, base.Add(20*time.Second), cfg) // 1 m/s

		if math.Abs(sess.MaxSpeed-10) > 0.01 {
			t.Errorf("expected max 10 m/s, got %f", sess.MaxSpeed)
		}
	})

	t.Run("single teleport counts but does not flag", func(t *testing.T) {
		sess := models.PlaySession{}
		advanceSessionMetrics(&sess, lat, lng, base, cfg)
		advanceSessionMetrics(&sess, metersNorth(lat, 2000), lng, base.Add(1*time.Second), cfg)

		if sess.Teleportations != 1 {
			t.Fatalf("expected 1 teleportation, got %d", sess.Teleportations)
		}
		if sess.RiskScore != cfg.TeleportScore {
			t.Errorf("expected risk %d, got %d", cfg.TeleportScore, sess.RiskScore)
		}
		if sess.FlaggedForReview {
			t.Error("one teleport is below the review threshold")
		}
	})

	t.Run("repeated teleports flag the session for review", func(t *testing.T) {
		sess := models.PlaySession{}
		advanceSessionMetrics(&sess, lat, lng, base, cfg)
		advanceSessionMetrics(&sess, metersNorth(lat, 2000), lng, base.Add(1*time.Second), cfg)
		advanceSessionMetrics(&sess, metersNorth(lat, 4000), lng, base.Add(2*time.Second), cfg)

		if sess.Teleportations != 2 {
			t.Fatalf("expected 2 teleportations, got %d", sess.Teleportations)
		}
		if !sess.FlaggedForReview {
			t.Errorf("expected flagged session at risk %d", sess.RiskScore)
		}
	})

	t.Run("speed violation below teleport distance", func(t *testing.T) {
		sess := models.PlaySession{}
		advanceSessionMetrics(&sess, lat, lng, base, cfg)
		// 500m in 5s = 100 m/s
		advanceSessionMetrics(&sess, metersNorth(lat, 500), lng, base.Add(5*time.Second), cfg)

		if sess.SpeedViolations != 1 {
			t.Errorf("expected 1 speed violation, got %d", sess.SpeedViolations)
		}
		if sess.Teleportations != 0 {
			t.Errorf("expected no teleportations, got %d", sess.Teleportations)
		}
	})

	t.Run("risk score is capped at 100", func(t *testing.T) {
		sess := models.PlaySession{}
		advanceSessionMetrics(&sess, lat, lng, base, cfg)
		for i := 1; i <= 4; i++ {
			advanceSessionMetrics(&sess, metersNorth(lat, float64(i)*2000), lng, base.Add(time.Duration(i)*time.Second), cfg)
		}
		if sess.RiskScore != 100 {
			t.Errorf("expected capped risk 100, got %d", sess.RiskScore)
		}
	})

	t.Run("out-of-order sample adds no distance", func(t *testing.T) {
		sess := models.PlaySession{}
		advanceSessionMetrics(&sess, lat, lng, base, cfg)
		advanceSessionMetrics(&sess, metersNorth(lat, 2000), lng, base.Add(-1*time.Second), cfg)

		if sess.DistanceTraveled != 0 {
			t.Errorf("expected no distance for out-of-order sample, got %f", sess.DistanceTraveled)
		}
		if sess.Teleportations != 0 || sess.SpeedViolations != 0 {
			t.Error("out-of-order sample must not count violations")
		}
		if sess.SampleCount != 2 {
			t.Errorf("sample still counts, got %d", sess.SampleCount)
		}
	})
}
