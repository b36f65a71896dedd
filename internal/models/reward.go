package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StarReasonSubmission = "submission"
	StarReasonBonus      = "bonus"
	StarReasonSpend      = "spend"
	StarReasonAdmin      = "admin"
)

// StarTransaction is one ledger entry; positive amounts earn, negative
// amounts spend. A user's balance is the sum over their entries.
type StarTransaction struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	UserID       string    `gorm:"size:36;not null;index" json:"user_id"`
	AssignmentID *string   `gorm:"size:36" json:"assignment_id,omitempty"`
	Amount       int       `gorm:"not null" json:"amount"`
	Reason       string    `gorm:"size:32;not null" json:"reason"`
	CreatedBy    *string   `gorm:"size:36" json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type RewardCatalog struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	Key           string         `gorm:"size:64;uniqueIndex;not null" json:"key"`
	Title         string         `gorm:"size:255;not null" json:"title"`
	Description   string         `gorm:"type:text" json:"description,omitempty"`
	Type          string         `gorm:"size:32" json:"type,omitempty"`
	CostStars     int            `gorm:"not null" json:"cost_stars"`
	ActiveFrom    *time.Time     `json:"active_from,omitempty"`
	ActiveTo      *time.Time     `json:"active_to,omitempty"`
	MaxPerStudent *int           `json:"max_per_student,omitempty"`
	Meta          datatypes.JSON `json:"meta,omitempty"`
}

func (RewardCatalog) TableName() string { return "reward_catalog" }

type UserRewardUnlock struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	UserID     string     `gorm:"size:36;not null;index" json:"user_id"`
	RewardID   string     `gorm:"size:36;not null;index" json:"reward_id"`
	UnlockedAt time.Time  `json:"unlocked_at"`
	SpentStars int        `gorm:"default:0" json:"spent_stars"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}
