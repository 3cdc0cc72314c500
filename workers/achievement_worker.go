// workers/achievement_worker.go
package workers

import (
	"context"
	"log"

	"prize-hunt-system/models"
	"prize-hunt-system/services"
)

// AchievementWorker drains game events into the achievement engine on a
// bounded pool. The claim path only ever does a non-blocking channel send, so
// a slow achievement check can never block or fail a claim.
type AchievementWorker struct {
	service *services.AchievementService
	events  <-chan models.GameEvent
	workers int
}

func NewAchievementWorker(service *services.AchievementService, events <-chan models.GameEvent, workers int) *AchievementWorker {
	if workers < 1 {
		workers = 4
	}
	return &AchievementWorker{
		service: service,
		events:  events,
		workers: workers,
	}
}

// Start launches the pool; it drains until the context is cancelled.
func (w *AchievementWorker) Start(ctx context.Context) {
	log.Printf("Starting achievement worker pool (%d workers)...", w.workers)
	for i := 0; i < w.workers; i++ {
		go w.run(ctx, i)
	}
}

func (w *AchievementWorker) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Printf("Achievement worker %d stopped.", id)
			return
		case event, ok := <-w.events:
			if !ok {
				return
			}
			if err := w.service.ProcessEvent(event); err != nil {
				// logged, never propagated to the claim caller
				log.Printf("❌ [ACHIEVEMENT_WORKER] %s for %s: %v",
					event.Trigger, event.ExternalUserID, err)
			}
		}
	}
}
