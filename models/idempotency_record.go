package models

import "time"

// IdempotencyRecord stores one settled claim result keyed by the client's
// idempotency key. A retry with the same key returns ResultJSON verbatim.
// Rows expire after a short retention window matching the client retry
// horizon and are purged by the scheduler.
type IdempotencyRecord struct {
	ID             string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Key            string    `gorm:"uniqueIndex;not null" json:"key"`
	ExternalUserID string    `gorm:"index;not null" json:"external_user_id"`
	ResultJSON     string    `gorm:"type:text;not null" json:"result_json"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	ExpiresAt      time.Time `gorm:"index;not null" json:"expires_at"`
}
