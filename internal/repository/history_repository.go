package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nestfold/provisioning/internal/models"
	"github.com/nestfold/provisioning/pkg/tool"
	"github.com/nestfold/provisioning/pkg/types"
)

type historyRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) WithTx(tx *gorm.DB) HistoryRepository {
	return &historyRepository{db: tx}
}

func (r *historyRepository) Append(ctx context.Context, entry *models.SubscriptionHistory) error {
	if entry.ID == "" {
		entry.ID = tool.GenerateUUIDV7()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *historyRepository) List(ctx context.Context, req *ListHistoryRequest) ([]*models.SubscriptionHistory, int64, error) {
	if req.Size <= 0 {
		req.Size = 50
	}
	if req.From < 0 {
		req.From = 0
	}

	q := r.db.WithContext(ctx).Model(&models.SubscriptionHistory{})
	if len(req.Filters) > 0 {
		q = q.Where(clause.Where{Exprs: []clause.Expression{types.FiltersAnd{Filters: req.Filters}}})
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{
		Column: clause.Column{Name: sortBy},
		Desc:   req.SortOrder != "asc",
	}}}).Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}

	var rows []*models.SubscriptionHistory
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
