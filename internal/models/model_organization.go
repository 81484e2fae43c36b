package models

import "time"

// Organization binds a tenant 1:1 to a directory group. GroupID is
// immutable after creation; the display name may change.
type Organization struct {
	ID      uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name    string `gorm:"column:name;type:varchar(255);not null" json:"name"`
	GroupID string `gorm:"column:group_id;type:varchar(64);not null;uniqueIndex" json:"group_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Organization) TableName() string {
	return "organizations"
}
