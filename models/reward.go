package models

import "time"

// RewardStatus indicates the publishing status of the reward catalog entry
type RewardStatus string

const (
	RewardStatusDraft     RewardStatus = "draft"
	RewardStatusPublished RewardStatus = "published"
	RewardStatusArchived  RewardStatus = "archived"
)

// Reward is a stock-limited catalog item a prize can link to.
// Invariant: StockQuantity == StockAvailable + StockReserved + StockUsed.
// The three buckets are only moved by single-statement conditional updates.
type Reward struct {
	ID          string       `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Title       string       `gorm:"not null" json:"title"`
	Slug        string       `gorm:"uniqueIndex;not null" json:"slug"`
	Description string       `gorm:"type:text" json:"description"`
	PointsCost  int64        `gorm:"default:0" json:"points_cost"`
	Status      RewardStatus `gorm:"not null;default:'draft'" json:"status"`

	StockQuantity  int `gorm:"not null;default:0" json:"stock_quantity"`
	StockAvailable int `gorm:"not null;default:0" json:"stock_available"`
	StockReserved  int `gorm:"not null;default:0" json:"stock_reserved"`
	StockUsed      int `gorm:"not null;default:0" json:"stock_used"`

	ExpiryDate *time.Time `json:"expiry_date,omitempty"`

	Timestamps
}

// RedemptionStatus tracks a reservation through fulfillment
type RedemptionStatus string

const (
	RedemptionStatusPending   RedemptionStatus = "pending"
	RedemptionStatusFulfilled RedemptionStatus = "fulfilled"
	RedemptionStatusCancelled RedemptionStatus = "cancelled"
	RedemptionStatusFailed    RedemptionStatus = "failed"
)

// Redemption links a user to one reserved reward unit. Created pending by
// the settlement core; confirmed or released by the fulfillment workflow.
type Redemption struct {
	ID             string           `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string           `gorm:"index;not null" json:"external_user_id"`
	RewardID       string           `gorm:"index;not null;type:uuid" json:"reward_id"`
	ClaimID        *string          `gorm:"type:uuid" json:"claim_id,omitempty"`
	PointsSpent    int64            `gorm:"default:0" json:"points_spent"`
	Status         RedemptionStatus `gorm:"not null;default:'pending';index" json:"status"`
	Code           *string          `json:"code,omitempty"`
	IdempotencyKey string           `gorm:"uniqueIndex;not null" json:"idempotency_key"`
	FulfilledAt    *time.Time       `json:"fulfilled_at,omitempty"`

	Timestamps
}
