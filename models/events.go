package models

import "time"

// GameEvent is the fire-and-forget payload pushed to the achievement engine
// after a claim (or session) settles. Losing one under burst is acceptable;
// failing a claim over it is not.
type GameEvent struct {
	Trigger        string    `json:"trigger"` // PRIZE_CLAIMED, SESSION_COMPLETED
	ExternalUserID string    `json:"external_user_id"`
	PrizeID        string    `json:"prize_id,omitempty"`
	Category       string    `json:"category,omitempty"`
	Rarity         string    `json:"rarity,omitempty"`
	PointsAwarded  int64     `json:"points_awarded,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// AntiCheatAuditRecord is the full-signal snapshot archived for every denied
// claim. The client only ever sees the generic denial code.
type AntiCheatAuditRecord struct {
	ExternalUserID string    `json:"external_user_id"`
	PrizeID        string    `json:"prize_id"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Accuracy       *float64  `json:"accuracy,omitempty"`
	ReportedSpeed  *float64  `json:"reported_speed,omitempty"`
	MockLocation   bool      `json:"mock_location"`
	Attestation    string    `json:"attestation_token,omitempty"`
	RiskScore      int       `json:"risk_score"`
	Violations     []string  `json:"violations"`
	DeniedAt       time.Time `json:"denied_at"`
}
