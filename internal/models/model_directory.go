package models

import "time"

// Group is a directory group. Organization groups are the ones an
// organizations row points at; anything else is a plain group.
type Group struct {
	GID       string    `gorm:"column:gid;type:varchar(64);primaryKey" json:"gid"`
	CreatedAt time.Time `json:"created_at"`
}

func (Group) TableName() string {
	return "groups"
}

// GroupUser is the group membership join row.
type GroupUser struct {
	GID       string    `gorm:"column:gid;type:varchar(64);primaryKey" json:"gid"`
	UID       string    `gorm:"column:uid;type:varchar(64);primaryKey;index:idx_group_user_uid" json:"uid"`
	CreatedAt time.Time `json:"created_at"`
}

func (GroupUser) TableName() string {
	return "group_user"
}

// User is the directory-side user state this service owns: the single
// organization the user belongs to and the storage quota granted by that
// organization's plan.
type User struct {
	UID            string `gorm:"column:uid;type:varchar(64);primaryKey" json:"uid"`
	OrganizationID *uint  `gorm:"column:organization_id;default:null" json:"organization_id"`
	QuotaBytes     int64  `gorm:"column:quota_bytes;not null;default:0" json:"quota_bytes"`
	IsAdmin        bool   `gorm:"column:is_admin;not null;default:false" json:"is_admin"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
