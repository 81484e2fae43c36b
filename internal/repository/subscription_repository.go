package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nestfold/provisioning/internal/models"
	"github.com/nestfold/provisioning/pkg/types"
)

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) WithTx(tx *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: tx}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *subscriptionRepository) FindByOrganizationID(ctx context.Context, organizationID uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where("organization_id = ?", organizationID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindByOrganizationIDForUpdate(ctx context.Context, organizationID uint) (*models.Subscription, error) {
	q := r.db.WithContext(ctx)
	// SQLite has no row locks and serializes writers on its own.
	if r.db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var sub models.Subscription
	if err := q.Where("organization_id = ?", organizationID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *subscriptionRepository) DeleteByOrganizationID(ctx context.Context, organizationID uint) error {
	return r.db.WithContext(ctx).Where("organization_id = ?", organizationID).Delete(&models.Subscription{}).Error
}

// ExpireLapsed flips every active subscription past its end date to
// expired in a single UPDATE. Running it again with no newly lapsed rows
// affects nothing.
func (r *subscriptionRepository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status = ?", types.SubscriptionStatusActive).
		Where("ended_at IS NOT NULL").
		Where("ended_at < ?", now.UTC()).
		Update("status", types.SubscriptionStatusExpired)
	return res.RowsAffected, res.Error
}
