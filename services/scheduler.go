// services/scheduler.go
package services

import (
	"log"
	"time"

	"prize-hunt-system/models"

	"github.com/go-co-op/gocron/v2"
)

// StartSweepers runs the background maintenance jobs: prize expiry, session
// inactivity TTL and idempotency retention.
func StartSweepers(prizes *PrizeService, sessions *SessionService, claims *ClaimService) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: expire prizes and close out visibility windows
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(prizes.SweepExpired),
	)

	// Every minute: abandon inactive sessions
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(sessions.SweepInactive),
	)

	// Every five minutes: purge idempotency records past retention
	_, _ = sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(claims.PurgeIdempotencyRecords),
	)
}

// PurgeIdempotencyRecords drops settled results past the retention window.
// Retention matches the client retry horizon, so a purged key means the
// client has long stopped retrying.
func (s *ClaimService) PurgeIdempotencyRecords() {
	res := s.DB.Where("expires_at <= ?", time.Now().UTC()).
		Delete(&models.IdempotencyRecord{})
	if res.Error != nil {
		log.Printf("[Scheduler] idempotency purge failed: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("🧹 Purged %d idempotency record(s)", res.RowsAffected)
	}
}
