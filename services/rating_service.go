package services

import (
	"math"

	"app-review-api/models"

	"gorm.io/gorm"
)

// RatingService keeps the denormalized per-app rating aggregate in sync
// with the set of approved reviews.
type RatingService struct{}

func NewRatingService() *RatingService {
	return &RatingService{}
}

// Recompute recalculates average_rating and total_ratings for an app from
// its approved reviews. Runs on the caller's handle so it can join an
// open transaction.
func (s *RatingService) Recompute(db *gorm.DB, appID int) error {
	type aggregate struct {
		Avg   *float64
		Count int64
	}

	var agg aggregate
	err := db.Model(&models.Review{}).
		Select("AVG(rating) AS avg, COUNT(*) AS count").
		Where("app_id = ? AND status = ?", appID, models.StatusApproved).
		Scan(&agg).Error
	if err != nil {
		return err
	}

	average := 0.0
	if agg.Avg != nil {
		average = math.Round(*agg.Avg*100) / 100
	}

	return db.Model(&models.App{}).
		Where("app_id = ?", appID).
		Updates(map[string]interface{}{
			"average_rating": average,
			"total_ratings":  agg.Count,
		}).Error
}
