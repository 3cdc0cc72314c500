// services/live_feed_service.go
package services

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"prize-hunt-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// LiveFeedService streams capture events to dashboard observers over SSE.
// It is a read-side fan-out: the claim pipeline never waits on it.
type LiveFeedService struct {
	DB *gorm.DB
}

func NewLiveFeedService(db *gorm.DB) *LiveFeedService {
	return &LiveFeedService{DB: db}
}

// captureEvent is the wire shape pushed to dashboards.
type captureEvent struct {
	Type string `json:"type"` // capture_created
	Data struct {
		ClaimID        string    `json:"claim_id"`
		ExternalUserID string    `json:"user_id"`
		PrizeID        string    `json:"prize_id"`
		PrizeTitle     string    `json:"prize_title"`
		Rarity         string    `json:"rarity"`
		PointsAwarded  int64     `json:"points_awarded"`
		DistanceMeters float64   `json:"distance_meters"`
		Timestamp      time.Time `json:"timestamp"`
	} `json:"data"`
}

// capturedRow is the polled join of claims and prize summaries.
type capturedRow struct {
	ID             string
	ExternalUserID string
	PrizeID        string
	Title          string
	Rarity         string
	PointsAwarded  int64
	DistanceMeters float64
	CreatedAt      time.Time
}

// StreamCapturesSSE streams newly created claims as capture_created events.
func (s *LiveFeedService) StreamCapturesSSE(c *fiber.Ctx) error {
	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		var lastMaxCreatedAt time.Time

		// Initialize cursor at the newest existing claim
		var latest models.Claim
		if err := s.DB.Order("created_at DESC").First(&latest).Error; err == nil {
			lastMaxCreatedAt = latest.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("SSE init error: %v", err)
		}

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		w.Flush()

		for {
			select {
			case <-ticker.C:
				var rows []capturedRow
				err := s.DB.Raw(`
					SELECT c.id, c.external_user_id, c.prize_id,
					       p.title, p.rarity,
					       c.points_awarded, c.distance_meters, c.created_at
					FROM claims c
					INNER JOIN prizes p ON p.id = c.prize_id
					WHERE c.created_at > ?
					ORDER BY c.created_at ASC
					LIMIT 100
				`, lastMaxCreatedAt).Scan(&rows).Error
				if err != nil {
					log.Printf("SSE query error: %v", err)
					continue
				}
				if len(rows) == 0 {
					continue
				}

				lastMaxCreatedAt = rows[len(rows)-1].CreatedAt

				for _, r := range rows {
					var ev captureEvent
					ev.Type = "capture_created"
					ev.Data.ClaimID = r.ID
					ev.Data.ExternalUserID = r.ExternalUserID
					ev.Data.PrizeID = r.PrizeID
					ev.Data.PrizeTitle = r.Title
					ev.Data.Rarity = r.Rarity
					ev.Data.PointsAwarded = r.PointsAwarded
					ev.Data.DistanceMeters = r.DistanceMeters
					ev.Data.Timestamp = r.CreatedAt

					payload, _ := json.Marshal(ev)
					fmt.Fprintf(w, "event: capture\ndata: %s\n\n", payload)
				}

				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

			case <-c.Context().Done():
				return
			}
		}
	})

	return nil
}
