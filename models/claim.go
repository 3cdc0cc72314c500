package models

import "time"

// ValidationChecks is the snapshot of per-step pipeline outcomes recorded on
// the claim for audit.
type ValidationChecks struct {
	DistanceOK   bool `json:"distance_ok"`
	TimeOK       bool `json:"time_ok"`
	SpeedOK      bool `json:"speed_ok"`
	CooldownOK   bool `json:"cooldown_ok"`
	DailyLimitOK bool `json:"daily_limit_ok"`
}

// Claim is the immutable record of one successful settlement. The only
// post-creation mutation allowed is attaching the derived RedemptionID.
type Claim struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string `gorm:"index;not null" json:"external_user_id"`
	PrizeID        string `gorm:"index;not null;type:uuid" json:"prize_id"`

	// Reported location and computed distance to the prize anchor
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	Accuracy       *float64 `json:"accuracy,omitempty"`
	DistanceMeters float64  `json:"distance_meters"`

	PointsAwarded int64   `gorm:"not null" json:"points_awarded"`
	RedemptionID  *string `gorm:"type:uuid" json:"redemption_id,omitempty"`

	// Device signals used by anti-cheat, kept for offline audit
	ReportedSpeed *float64 `json:"reported_speed,omitempty"`
	MockLocation  bool     `json:"mock_location"`
	AttestationOK bool     `json:"attestation_ok"`
	RiskScore     int      `json:"risk_score"`

	// Validation snapshot (flattened columns)
	DistanceOK   bool `json:"distance_ok"`
	TimeOK       bool `json:"time_ok"`
	SpeedOK      bool `json:"speed_ok"`
	CooldownOK   bool `json:"cooldown_ok"`
	DailyLimitOK bool `json:"daily_limit_ok"`

	IdempotencyKey string    `gorm:"uniqueIndex;not null" json:"idempotency_key"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Checks rebuilds the validation snapshot from the flattened columns.
func (c *Claim) Checks() ValidationChecks {
	return ValidationChecks{
		DistanceOK:   c.DistanceOK,
		TimeOK:       c.TimeOK,
		SpeedOK:      c.SpeedOK,
		CooldownOK:   c.CooldownOK,
		DailyLimitOK: c.DailyLimitOK,
	}
}
