package types

import "github.com/shopspring/decimal"

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// KnownStatuses lists the status values the lifecycle service accepts as
// an update target. Anything else is rejected as invalid input.
var KnownStatuses = []SubscriptionStatus{
	SubscriptionStatusActive,
	SubscriptionStatusPaused,
	SubscriptionStatusCancelled,
	SubscriptionStatusExpired,
}

// DefaultCurrency applies when a plan is created without an explicit currency.
const DefaultCurrency = "EUR"

// PlanSpec carries the tenant-requested plan limits on subscription
// create/update. Ignored entirely when the selected plan is public.
type PlanSpec struct {
	MaxMembers              int              `json:"max_members"`
	MaxProjects             int              `json:"max_projects"`
	SharedStoragePerProject int64            `json:"shared_storage_per_project"`
	PrivateStoragePerUser   int64            `json:"private_storage_per_user"`
	Price                   *decimal.Decimal `json:"price,omitempty"`
	Currency                string           `json:"currency,omitempty"`
}

// Normalize applies defaults and reports whether the spec is acceptable.
func (s *PlanSpec) Normalize() bool {
	if s.MaxMembers < 0 || s.MaxProjects < 0 || s.SharedStoragePerProject < 0 || s.PrivateStoragePerUser < 0 {
		return false
	}
	if s.Price != nil && s.Price.IsNegative() {
		return false
	}
	if s.Currency == "" {
		s.Currency = DefaultCurrency
	}
	return true
}
