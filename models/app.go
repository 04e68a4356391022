package models

import "time"

// App represents a mobile application in the catalog.
type App struct {
	AppID         int        `gorm:"primaryKey;column:app_id" json:"app_id"`
	Name          string     `gorm:"column:name;unique" json:"name"`
	Description   *string    `gorm:"column:description" json:"description,omitempty"`
	Developer     *string    `gorm:"column:developer" json:"developer,omitempty"`
	Category      *string    `gorm:"column:category" json:"category,omitempty"`
	Version       *string    `gorm:"column:version" json:"version,omitempty"`
	AppStoreURL   *string    `gorm:"column:app_store_url" json:"app_store_url,omitempty"`
	GooglePlayURL *string    `gorm:"column:google_play_url" json:"google_play_url,omitempty"`
	BundleID      *string    `gorm:"column:bundle_id" json:"bundle_id,omitempty"`
	SizeMB        *float64   `gorm:"column:size_mb" json:"size_mb,omitempty"`
	AverageRating float64    `gorm:"column:average_rating" json:"average_rating"`
	TotalRatings  int        `gorm:"column:total_ratings" json:"total_ratings"`
	Tags          StringList `gorm:"column:tags;type:json" json:"tags"`
	IsActive      bool       `gorm:"column:is_active;default:true" json:"is_active"`
	CreateAt      time.Time  `gorm:"column:create_at;autoCreateTime" json:"create_at"`
	UpdateAt      time.Time  `gorm:"column:update_at;autoUpdateTime" json:"update_at"`
	DeleteAt      *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName overrides
func (App) TableName() string {
	return "apps"
}
