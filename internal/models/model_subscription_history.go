package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubscriptionHistory is the append-only audit trail: one row per
// lifecycle mutation with full before/after snapshots. Rows reference
// the subscription by ID only and survive later changes to it.
type SubscriptionHistory struct {
	ID             string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SubscriptionID uint   `gorm:"column:subscription_id;not null;index:idx_history_subscription" json:"subscription_id"`
	// ChangedBy is the directory user ID of the actor.
	ChangedBy string `gorm:"column:changed_by;type:varchar(64);not null" json:"changed_by"`
	// Before is nil for the creation entry.
	Before    datatypes.JSONType[*Subscription] `gorm:"column:before;type:jsonb;default:'null'" json:"before"`
	After     datatypes.JSONType[*Subscription] `gorm:"column:after;type:jsonb;default:'null'" json:"after"`
	Notes     string                            `gorm:"column:notes;type:varchar(500)" json:"notes,omitempty"`
	CreatedAt time.Time                         `json:"created_at"`
}

func (SubscriptionHistory) TableName() string {
	return "subscription_history"
}
