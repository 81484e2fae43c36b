package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nestfold/provisioning/internal/models"
)

type organizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) WithTx(tx *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: tx}
}

func (r *organizationRepository) Create(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *organizationRepository) FindByGroupID(ctx context.Context, groupID string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).Where("group_id = ?", groupID).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// FindByUserID joins through group membership. A user belongs to at most
// one organization, enforced by the membership service.
func (r *organizationRepository) FindByUserID(ctx context.Context, userID string) (*models.Organization, error) {
	var org models.Organization
	err := r.db.WithContext(ctx).
		Joins("INNER JOIN group_user gu ON gu.gid = organizations.group_id").
		Where("gu.uid = ?", userID).
		First(&org).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) FindGroupIDsForUser(ctx context.Context, userID string) ([]string, error) {
	var gids []string
	err := r.db.WithContext(ctx).
		Model(&models.Organization{}).
		Joins("INNER JOIN group_user gu ON gu.gid = organizations.group_id").
		Where("gu.uid = ?", userID).
		Pluck("organizations.group_id", &gids).Error
	if err != nil {
		return nil, err
	}
	return gids, nil
}

func (r *organizationRepository) MemberCount(ctx context.Context, groupID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.GroupUser{}).
		Where("gid = ?", groupID).
		Count(&count).Error
	return count, err
}

func (r *organizationRepository) Update(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Save(org).Error
}

func (r *organizationRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Organization{}, id).Error
}
