package models

import "time"

// Achievement triggers
const (
	TriggerPrizeClaimed     = "PRIZE_CLAIMED"
	TriggerSessionCompleted = "SESSION_COMPLETED"
)

// AchievementConditionType selects the progress formula
type AchievementConditionType string

const (
	// ConditionCounter: progress = min(100, counter/target*100)
	ConditionCounter AchievementConditionType = "counter"
	// ConditionThreshold: binary 0/100 (e.g. level reached)
	ConditionThreshold AchievementConditionType = "threshold"
)

// Achievement is the template; one row per unlockable milestone.
type Achievement struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Code        string `gorm:"uniqueIndex;not null" json:"code"` // e.g. "first_find"
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Trigger     string `gorm:"index;not null" json:"trigger"` // PRIZE_CLAIMED, ...

	ConditionType   AchievementConditionType `gorm:"not null" json:"condition_type"`
	ConditionMetric string                   `gorm:"not null" json:"condition_metric"` // prizes_found, points_total, level, current_streak
	ConditionTarget int64                    `gorm:"not null" json:"condition_target"`

	// Reward list: points plus placeholders for cosmetics
	RewardPoints int64  `gorm:"default:0" json:"reward_points"`
	RewardBadge  string `json:"reward_badge,omitempty"`
	RewardTitle  string `json:"reward_title,omitempty"`

	IsActive bool `gorm:"default:true;index" json:"is_active"`

	Timestamps
}

// UserAchievement is the per-user progress record. Progress never decreases;
// once UnlockedAt is set the row is immutable.
type UserAchievement struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string `gorm:"not null;uniqueIndex:idx_user_achievement" json:"external_user_id"`
	AchievementID  string `gorm:"not null;type:uuid;uniqueIndex:idx_user_achievement" json:"achievement_id"`

	Progress      float64    `gorm:"not null;default:0" json:"progress"` // 0..100
	UnlockedAt    *time.Time `json:"unlocked_at,omitempty"`
	RewardGranted bool       `gorm:"default:false" json:"reward_granted"`

	Achievement *Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`

	Timestamps
}
