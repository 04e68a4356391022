package models

import "time"

// AppImportRun records one execution of the CSV catalog import command.
type AppImportRun struct {
	RunID      string     `gorm:"primaryKey;column:run_id" json:"run_id"`
	SourceFile string     `gorm:"column:source_file" json:"source_file"`
	Trigger    string     `gorm:"column:trigger_source" json:"trigger"`
	Created    int        `gorm:"column:created_count" json:"created"`
	Updated    int        `gorm:"column:updated_count" json:"updated"`
	Skipped    int        `gorm:"column:skipped_count" json:"skipped"`
	Failed     int        `gorm:"column:failed_count" json:"failed"`
	Status     string     `gorm:"column:status" json:"status"`
	Error      *string    `gorm:"column:error" json:"error,omitempty"`
	StartedAt  time.Time  `gorm:"column:started_at;autoCreateTime" json:"started_at"`
	FinishedAt *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
}

// TableName specifies the table name for AppImportRun.
func (AppImportRun) TableName() string {
	return "app_import_runs"
}
