package controllers

import (
	"net/http"

	"app-review-api/config"
	"app-review-api/models"
	"app-review-api/services"

	"github.com/gin-gonic/gin"
)

type CreateReviewRequest struct {
	AppID   int      `json:"app_id" binding:"required"`
	Title   *string  `json:"title"`
	Content string   `json:"content" binding:"required"`
	Rating  int      `json:"rating" binding:"required"`
	Tags    []string `json:"tags"`
}

type UpdateReviewRequest struct {
	Title   *string  `json:"title"`
	Content *string  `json:"content"`
	Rating  *int     `json:"rating"`
	Tags    []string `json:"tags"`
}

// POST /api/v1/reviews
func CreateReview(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := approvalService.Submit(currentUserID(c), services.SubmitInput{
		AppID:   req.AppID,
		Title:   req.Title,
		Content: req.Content,
		Rating:  req.Rating,
		Tags:    req.Tags,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// GET /api/v1/reviews/my
func GetMyReviews(c *gin.Context) {
	page := parsePOS(c.Query("page"), 1)
	size := parsePOS(c.Query("page_size"), 10)

	query := config.DB.Model(&models.Review{}).
		Preload("App").
		Where("user_id = ?", currentUserID(c))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count reviews"})
		return
	}

	var reviews []models.Review
	if err := query.Order("create_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&reviews).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviews"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": reviews,
		"meta": gin.H{
			"page":      page,
			"page_size": size,
			"total":     total,
		},
	})
}

// GET /api/v1/reviews/:id
func GetReview(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var review models.Review
	if err := config.DB.Preload("App").Preload("Author").
		Where("review_id = ?", reviewID).
		First(&review).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		return
	}

	// Approved reviews are public; otherwise only the author and
	// moderating roles may look.
	isStaff := c.GetBool("isSupervisor") || c.GetBool("isSuperuser")
	if review.Status != models.StatusApproved && review.UserID != currentUserID(c) && !isStaff {
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"review": review})
}

// PUT /api/v1/reviews/:id - author edit; resets the review to pending and
// clears all supervisor decisions.
func UpdateReview(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := approvalService.Edit(reviewID, currentUserID(c), services.EditInput{
		Title:   req.Title,
		Content: req.Content,
		Rating:  req.Rating,
		Tags:    req.Tags,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"review":  review,
		"message": "Review updated and sent back for re-review",
	})
}

// DELETE /api/v1/reviews/:id
func DeleteReview(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := approvalService.Delete(reviewID, currentUserID(c)); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GET /api/v1/reviews/stats - author-side statistics
func GetReviewStats(c *gin.Context) {
	userID := currentUserID(c)

	stats := gin.H{
		"total_reviews":        0,
		"pending_reviews":      0,
		"approved_reviews":     0,
		"rejected_reviews":     0,
		"conflicted_reviews":   0,
		"average_rating_given": 0.0,
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var rows []statusCount
	if err := config.DB.Model(&models.Review{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	var total int64
	for _, row := range rows {
		total += row.Count
		switch row.Status {
		case models.StatusPending:
			stats["pending_reviews"] = row.Count
		case models.StatusApproved:
			stats["approved_reviews"] = row.Count
		case models.StatusRejected:
			stats["rejected_reviews"] = row.Count
		case models.StatusConflicted, models.StatusEscalated:
			stats["conflicted_reviews"] = row.Count
		}
	}
	stats["total_reviews"] = total

	if total > 0 {
		var row struct{ Avg *float64 }
		if err := config.DB.Model(&models.Review{}).
			Select("AVG(rating) AS avg").
			Where("user_id = ?", userID).
			Scan(&row).Error; err == nil && row.Avg != nil {
			stats["average_rating_given"] = *row.Avg
		}
	}

	c.JSON(http.StatusOK, stats)
}
