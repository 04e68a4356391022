package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"app-review-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImportService loads app catalog rows from CSV files. Rows are matched
// by app name, so re-running an import updates instead of duplicating.
type ImportService struct {
	db *gorm.DB
}

func NewImportService(db *gorm.DB) *ImportService {
	return &ImportService{db: db}
}

// ImportApps reads a CSV stream with a header row and upserts apps.
// Recognized columns: name, description, developer, category, version,
// app_store_url, google_play_url, bundle_id, tags (semicolon-separated).
// Every run is recorded in app_import_runs.
func (s *ImportService) ImportApps(r io.Reader, sourceFile, trigger string, dryRun bool) (*models.AppImportRun, error) {
	run := &models.AppImportRun{
		RunID:      uuid.NewString(),
		SourceFile: sourceFile,
		Trigger:    trigger,
		Status:     "running",
	}
	if !dryRun {
		if err := s.db.Create(run).Error; err != nil {
			return nil, err
		}
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return s.finishRun(run, dryRun, fmt.Errorf("read header: %w", err))
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["name"]; !ok {
		return s.finishRun(run, dryRun, errors.New("csv is missing required column 'name'"))
	}

	field := func(record []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			run.Failed++
			log.Printf("import run %s: bad csv row: %v", run.RunID, err)
			continue
		}

		name := field(record, "name")
		if name == "" {
			run.Skipped++
			continue
		}

		app := models.App{
			Name:          name,
			Description:   optionalString(field(record, "description")),
			Developer:     optionalString(field(record, "developer")),
			Category:      optionalString(field(record, "category")),
			Version:       optionalString(field(record, "version")),
			AppStoreURL:   optionalString(field(record, "app_store_url")),
			GooglePlayURL: optionalString(field(record, "google_play_url")),
			BundleID:      optionalString(field(record, "bundle_id")),
			Tags:          splitTags(field(record, "tags")),
			IsActive:      true,
		}

		if dryRun {
			run.Created++
			continue
		}

		var existing models.App
		findErr := s.db.Where("name = ?", name).First(&existing).Error
		switch {
		case findErr == nil:
			app.AppID = existing.AppID
			app.AverageRating = existing.AverageRating
			app.TotalRatings = existing.TotalRatings
			app.CreateAt = existing.CreateAt
			if err := s.db.Save(&app).Error; err != nil {
				run.Failed++
				log.Printf("import run %s: update %q: %v", run.RunID, name, err)
				continue
			}
			run.Updated++
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			if err := s.db.Create(&app).Error; err != nil {
				run.Failed++
				log.Printf("import run %s: create %q: %v", run.RunID, name, err)
				continue
			}
			run.Created++
		default:
			run.Failed++
			log.Printf("import run %s: lookup %q: %v", run.RunID, name, findErr)
		}
	}

	return s.finishRun(run, dryRun, nil)
}

func (s *ImportService) finishRun(run *models.AppImportRun, dryRun bool, failure error) (*models.AppImportRun, error) {
	now := time.Now()
	run.FinishedAt = &now
	if failure != nil {
		run.Status = "failed"
		msg := failure.Error()
		run.Error = &msg
	} else {
		run.Status = "completed"
	}

	if !dryRun {
		if err := s.db.Save(run).Error; err != nil {
			return run, err
		}
	}
	return run, failure
}

func splitTags(raw string) models.StringList {
	if raw == "" {
		return models.StringList{}
	}
	parts := strings.Split(raw, ";")
	tags := make(models.StringList, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
