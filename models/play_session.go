package models

import "time"

// PlaySessionStatus tracks a telemetry session's lifecycle
type PlaySessionStatus string

const (
	SessionStatusActive    PlaySessionStatus = "active"
	SessionStatusCompleted PlaySessionStatus = "completed"
	SessionStatusAbandoned PlaySessionStatus = "abandoned"
)

// PlaySession holds one play session's movement telemetry: running metrics
// plus anti-cheat counters. FlaggedForReview only queues a human audit, it
// never blocks gameplay.
type PlaySession struct {
	ID             string            `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string            `gorm:"index;not null" json:"external_user_id"`
	Status         PlaySessionStatus `gorm:"not null;default:'active';index" json:"status"`

	StartedAt      time.Time  `json:"started_at" gorm:"autoCreateTime"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	LastActivityAt time.Time  `gorm:"index" json:"last_activity_at"`

	// Derived metrics, updated on every location sample
	DistanceTraveled float64 `json:"distance_traveled" gorm:"default:0"` // meters
	AverageSpeed     float64 `json:"average_speed" gorm:"default:0"`     // m/s
	MaxSpeed         float64 `json:"max_speed" gorm:"default:0"`         // m/s
	TimeActiveSecs   float64 `json:"time_active_secs" gorm:"default:0"`
	SampleCount      int     `json:"sample_count" gorm:"default:0"`

	// Anti-cheat counters
	SpeedViolations  int  `json:"speed_violations" gorm:"default:0"`
	Teleportations   int  `json:"teleportations" gorm:"default:0"`
	RiskScore        int  `json:"risk_score" gorm:"default:0"`
	FlaggedForReview bool `json:"flagged_for_review" gorm:"default:false;index"`

	// Last sample, kept inline to avoid re-reading the log on every update
	LastLatitude  *float64   `json:"last_latitude,omitempty"`
	LastLongitude *float64   `json:"last_longitude,omitempty"`
	LastSampleAt  *time.Time `json:"last_sample_at,omitempty"`

	Timestamps
}

// SessionLocation is one appended sample of the per-session location log.
type SessionLocation struct {
	ID         string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	SessionID  string    `gorm:"index;not null;type:uuid" json:"session_id"`
	Latitude   float64   `gorm:"not null" json:"latitude"`
	Longitude  float64   `gorm:"not null" json:"longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	RecordedAt time.Time `gorm:"index" json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}
