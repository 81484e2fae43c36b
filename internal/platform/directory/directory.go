package directory

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/nestfold/provisioning/internal/models"
	"github.com/nestfold/provisioning/pkg/apperr"
)

// Directory is the group/identity boundary. Services depend on this
// interface only; the default implementation below is backed by the same
// relational store, but a deployment can delegate to an external
// identity system instead.
type Directory interface {
	GroupExists(ctx context.Context, gid string) (bool, error)
	CreateGroup(ctx context.Context, gid string) error
	DeleteGroup(ctx context.Context, gid string) error

	AddUserToGroup(ctx context.Context, uid, gid string) error
	RemoveUserFromGroup(ctx context.Context, uid, gid string) error
	UserGroups(ctx context.Context, uid string) ([]string, error)
	GroupMembers(ctx context.Context, gid string) ([]string, error)

	GetUser(ctx context.Context, uid string) (*models.User, error)
	IsAdmin(ctx context.Context, uid string) (bool, error)
	SetUserQuota(ctx context.Context, uid string, bytes int64) error
	SetUserOrganization(ctx context.Context, uid string, organizationID *uint) error

	WithTx(tx *gorm.DB) Directory
}

type gormDirectory struct {
	db *gorm.DB
}

func New(db *gorm.DB) Directory {
	return &gormDirectory{db: db}
}

func (d *gormDirectory) WithTx(tx *gorm.DB) Directory {
	return &gormDirectory{db: tx}
}

func (d *gormDirectory) GroupExists(ctx context.Context, gid string) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.Group{}).Where("gid = ?", gid).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (d *gormDirectory) CreateGroup(ctx context.Context, gid string) error {
	exists, err := d.GroupExists(ctx, gid)
	if err != nil {
		return err
	}
	if exists {
		return apperr.Conflict("group %q already exists", gid)
	}
	return d.db.WithContext(ctx).Create(&models.Group{GID: gid}).Error
}

func (d *gormDirectory) DeleteGroup(ctx context.Context, gid string) error {
	if err := d.db.WithContext(ctx).Where("gid = ?", gid).Delete(&models.GroupUser{}).Error; err != nil {
		return err
	}
	return d.db.WithContext(ctx).Where("gid = ?", gid).Delete(&models.Group{}).Error
}

func (d *gormDirectory) AddUserToGroup(ctx context.Context, uid, gid string) error {
	if err := d.ensureUser(ctx, uid); err != nil {
		return err
	}
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.GroupUser{}).
		Where("gid = ? AND uid = ?", gid, uid).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return d.db.WithContext(ctx).Create(&models.GroupUser{GID: gid, UID: uid}).Error
}

func (d *gormDirectory) RemoveUserFromGroup(ctx context.Context, uid, gid string) error {
	return d.db.WithContext(ctx).Where("gid = ? AND uid = ?", gid, uid).Delete(&models.GroupUser{}).Error
}

func (d *gormDirectory) UserGroups(ctx context.Context, uid string) ([]string, error) {
	var gids []string
	err := d.db.WithContext(ctx).Model(&models.GroupUser{}).
		Where("uid = ?", uid).Pluck("gid", &gids).Error
	return gids, err
}

func (d *gormDirectory) GroupMembers(ctx context.Context, gid string) ([]string, error) {
	var uids []string
	err := d.db.WithContext(ctx).Model(&models.GroupUser{}).
		Where("gid = ?", gid).Pluck("uid", &uids).Error
	return uids, err
}

func (d *gormDirectory) GetUser(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).Where("uid = ?", uid).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *gormDirectory) IsAdmin(ctx context.Context, uid string) (bool, error) {
	user, err := d.GetUser(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin, nil
}

func (d *gormDirectory) SetUserQuota(ctx context.Context, uid string, bytes int64) error {
	if err := d.ensureUser(ctx, uid); err != nil {
		return err
	}
	return d.db.WithContext(ctx).Model(&models.User{}).
		Where("uid = ?", uid).Update("quota_bytes", bytes).Error
}

func (d *gormDirectory) SetUserOrganization(ctx context.Context, uid string, organizationID *uint) error {
	if err := d.ensureUser(ctx, uid); err != nil {
		return err
	}
	return d.db.WithContext(ctx).Model(&models.User{}).
		Where("uid = ?", uid).Update("organization_id", organizationID).Error
}

// ensureUser creates the directory-side user row on first contact.
func (d *gormDirectory) ensureUser(ctx context.Context, uid string) error {
	var count int64
	if err := d.db.WithContext(ctx).Model(&models.User{}).Where("uid = ?", uid).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return d.db.WithContext(ctx).Create(&models.User{UID: uid}).Error
}

var Module = fx.Options(
	fx.Provide(New),
)
