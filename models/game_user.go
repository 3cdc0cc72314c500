package models

import (
	"time"

	"gorm.io/gorm"
)

// GameUser is the local snapshot of player state owned by the settlement
// service. Identity comes pre-authenticated from the gateway; points here are
// an internal ledger, not currency.
type GameUser struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`
	Username       string `gorm:"index" json:"username"`

	// Points ledger
	PointsAvailable int64 `json:"points_available" gorm:"default:0"`
	PointsTotal     int64 `json:"points_total" gorm:"default:0"`
	PointsSpent     int64 `json:"points_spent" gorm:"default:0"`

	Level int `json:"level" gorm:"default:1"`

	// Stats mutated by the claim pipeline
	PrizesFound      int64      `json:"prizes_found" gorm:"default:0"`
	CurrentStreak    int        `json:"current_streak" gorm:"default:0"`
	DailyClaimsCount int        `json:"daily_claims_count" gorm:"default:0"`
	LastClaimAt      *time.Time `json:"last_claim_at,omitempty"`

	// Last known location
	LastLatitude  *float64 `json:"last_latitude,omitempty"`
	LastLongitude *float64 `json:"last_longitude,omitempty"`

	IsBanned bool `json:"is_banned" gorm:"default:false"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
