package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/nestfold/provisioning/internal/models"
	"github.com/nestfold/provisioning/pkg/types"
)

// Repositories expose the typed queries the core needs and nothing else;
// no generic query builder leaks out of this package. Lookups that miss
// return gorm.ErrRecordNotFound so callers can errors.Is on it.
//
// WithTx rebinds a repository to a transaction handle so a service can
// run several repositories inside one unit of work.

type PlanRepository interface {
	Create(ctx context.Context, plan *models.Plan) error
	Find(ctx context.Context, id uint) (*models.Plan, error)
	FindPublic(ctx context.Context) ([]models.Plan, error)
	Update(ctx context.Context, plan *models.Plan) error
	Delete(ctx context.Context, id uint) error
	WithTx(tx *gorm.DB) PlanRepository
}

type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	FindByGroupID(ctx context.Context, groupID string) (*models.Organization, error)
	// FindByUserID resolves the organization through the group_user
	// membership join.
	FindByUserID(ctx context.Context, userID string) (*models.Organization, error)
	// FindGroupIDsForUser lists the organization groups the user is in.
	FindGroupIDsForUser(ctx context.Context, userID string) ([]string, error)
	MemberCount(ctx context.Context, groupID string) (int64, error)
	Update(ctx context.Context, org *models.Organization) error
	Delete(ctx context.Context, id uint) error
	WithTx(tx *gorm.DB) OrganizationRepository
}

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) error
	FindByOrganizationID(ctx context.Context, organizationID uint) (*models.Subscription, error)
	// FindByOrganizationIDForUpdate takes a row lock; only valid inside
	// a transaction.
	FindByOrganizationIDForUpdate(ctx context.Context, organizationID uint) (*models.Subscription, error)
	Update(ctx context.Context, sub *models.Subscription) error
	DeleteByOrganizationID(ctx context.Context, organizationID uint) error
	// ExpireLapsed bulk-transitions active subscriptions whose end date
	// has passed and returns the number of rows affected.
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
	WithTx(tx *gorm.DB) SubscriptionRepository
}

type HistoryRepository interface {
	Append(ctx context.Context, entry *models.SubscriptionHistory) error
	List(ctx context.Context, req *ListHistoryRequest) ([]*models.SubscriptionHistory, int64, error)
	WithTx(tx *gorm.DB) HistoryRepository
}

// ListHistoryRequest narrows audit queries for the admin listing.
type ListHistoryRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}
