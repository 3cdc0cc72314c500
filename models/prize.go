package models

import "time"

// PrizeStatus tracks the lifecycle of a geo-anchored prize
type PrizeStatus string

const (
	PrizeStatusActive   PrizeStatus = "active"
	PrizeStatusCaptured PrizeStatus = "captured"
	PrizeStatusExpired  PrizeStatus = "expired"
	PrizeStatusInactive PrizeStatus = "inactive"
	PrizeStatusRevoked  PrizeStatus = "revoked"
)

// PrizeContentType indicates how a prize pays out
type PrizeContentType string

const (
	PrizeContentPoints PrizeContentType = "points"
	PrizeContentReward PrizeContentType = "reward"
	PrizeContentHybrid PrizeContentType = "hybrid"
)

// Prize is a geo-anchored claimable marker. ClaimedCount is mutated only by
// the claim pipeline's conditional increment; once it reaches Quantity the
// prize flips to captured and never goes back.
type Prize struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Slug     string `gorm:"uniqueIndex;not null" json:"slug"`
	Title    string `gorm:"not null" json:"title"`
	Category string `gorm:"index" json:"category"`
	Rarity   string `json:"rarity"` // common, rare, epic, legendary

	// Geofence
	Latitude            float64 `gorm:"not null;index:idx_prizes_coords" json:"latitude"`
	Longitude           float64 `gorm:"not null;index:idx_prizes_coords" json:"longitude"`
	RadiusMeters        float64 `gorm:"not null;default:50" json:"radius_meters"`
	ConfidenceThreshold float64 `gorm:"default:0.7" json:"confidence_threshold"`

	Quantity     int         `gorm:"not null;default:1" json:"quantity"`
	ClaimedCount int         `gorm:"not null;default:0" json:"claimed_count"`
	Status       PrizeStatus `gorm:"not null;default:'active';index" json:"status"`

	// Payout
	ContentType     PrizeContentType `gorm:"not null;default:'points'" json:"content_type"`
	PointsAmount    int64            `gorm:"default:0" json:"points_amount"`
	BonusMultiplier float64          `gorm:"default:1" json:"bonus_multiplier"`
	RewardID        *string          `gorm:"type:uuid" json:"reward_id,omitempty"`
	AutoRedeem      bool             `gorm:"default:false" json:"auto_redeem"`
	Probability     float64          `gorm:"default:0" json:"probability"` // hybrid bonus roll, 0..1

	// Visibility window and hard expiry
	VisibleFrom  *time.Time `json:"visible_from,omitempty"`
	VisibleUntil *time.Time `json:"visible_until,omitempty"`
	ExpiresAt    *time.Time `gorm:"index" json:"expires_at,omitempty"`

	Timestamps
}

// Available reports the fast-path availability check. The conditional
// increment in the claim transaction is the authoritative one.
func (p *Prize) Available(now time.Time) bool {
	if p.Status != PrizeStatusActive {
		return false
	}
	if p.ClaimedCount >= p.Quantity {
		return false
	}
	if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
		return false
	}
	if p.VisibleFrom != nil && now.Before(*p.VisibleFrom) {
		return false
	}
	if p.VisibleUntil != nil && now.After(*p.VisibleUntil) {
		return false
	}
	return true
}
