package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is a quota/pricing template. Public plans are shared across
// organizations and never touched by lifecycle cleanup; custom plans are
// owned by exactly one organization's subscription and are deleted as
// soon as nothing references them.
type Plan struct {
	ID   uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	// MaxMembers caps the organization's member count; enforced on join.
	MaxMembers  int `gorm:"column:max_members;not null" json:"max_members"`
	MaxProjects int `gorm:"column:max_projects;not null" json:"max_projects"`
	// Storage limits are bytes.
	SharedStoragePerProject int64 `gorm:"column:shared_storage_per_project;not null" json:"shared_storage_per_project"`
	PrivateStoragePerUser   int64 `gorm:"column:private_storage_per_user;not null" json:"private_storage_per_user"`
	// Price is optional; nil means not priced.
	Price    *decimal.Decimal `gorm:"column:price;type:numeric(12,2)" json:"price"`
	Currency string           `gorm:"column:currency;type:varchar(3);not null;default:'EUR'" json:"currency"`
	IsPublic bool             `gorm:"column:is_public;not null;default:false" json:"is_public"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Plan) TableName() string {
	return "plans"
}
