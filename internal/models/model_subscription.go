package models

import (
	"time"

	"github.com/nestfold/provisioning/pkg/types"
)

// Subscription binds an organization to a plan with a time-bounded
// lifecycle. Exactly one row exists per organization; all mutations go
// through the lifecycle service, never field-by-field writes.
type Subscription struct {
	ID             uint                     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrganizationID uint                     `gorm:"column:organization_id;not null;uniqueIndex" json:"organization_id"`
	PlanID         uint                     `gorm:"column:plan_id;not null" json:"plan_id"`
	Status         types.SubscriptionStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	StartedAt      time.Time                `gorm:"column:started_at;not null" json:"started_at"`
	// EndedAt nil means indefinite; access gating treats that as a
	// "contact your administrator" condition rather than valid.
	EndedAt *time.Time `gorm:"column:ended_at;default:null" json:"ended_at"`
	// PausedAt and CancelledAt are mutually exclusive and both cleared
	// when the subscription returns to active.
	PausedAt    *time.Time `gorm:"column:paused_at;default:null" json:"paused_at"`
	CancelledAt *time.Time `gorm:"column:cancelled_at;default:null" json:"cancelled_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// Valid reports whether the subscription currently grants access.
func (s *Subscription) Valid(now time.Time) bool {
	return s != nil &&
		s.Status == types.SubscriptionStatusActive &&
		s.EndedAt != nil &&
		s.EndedAt.After(now)
}
