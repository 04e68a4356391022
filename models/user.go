package models

import "time"

type User struct {
	UserID       int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	Username     string     `gorm:"column:username;unique" json:"username"`
	Email        string     `gorm:"column:email;unique" json:"email"`
	Password     string     `gorm:"column:password" json:"-"`
	IsSupervisor bool       `gorm:"column:is_supervisor" json:"is_supervisor"`
	IsSuperuser  bool       `gorm:"column:is_superuser" json:"is_superuser"`
	IsActive     bool       `gorm:"column:is_active;default:true" json:"is_active"`
	Bio          *string    `gorm:"column:bio" json:"bio,omitempty"`
	Location     *string    `gorm:"column:location" json:"location,omitempty"`
	CreateAt     time.Time  `gorm:"column:create_at;autoCreateTime" json:"create_at"`
	UpdateAt     time.Time  `gorm:"column:update_at;autoUpdateTime" json:"update_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}
