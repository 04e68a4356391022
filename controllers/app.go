package controllers

import (
	"net/http"
	"time"

	"app-review-api/config"
	"app-review-api/models"
	"app-review-api/utils"

	"github.com/gin-gonic/gin"
)

type AppRequest struct {
	Name          string   `json:"name" binding:"required,max=200"`
	Description   *string  `json:"description"`
	Developer     *string  `json:"developer"`
	Category      *string  `json:"category"`
	Version       *string  `json:"version"`
	AppStoreURL   *string  `json:"app_store_url"`
	GooglePlayURL *string  `json:"google_play_url"`
	BundleID      *string  `json:"bundle_id"`
	SizeMB        *float64 `json:"size_mb"`
	Tags          []string `json:"tags"`
}

// GET /api/v1/apps?q=&category=&developer=&page=&page_size=
func GetApps(c *gin.Context) {
	page := parsePOS(c.Query("page"), 1)
	size := parsePOS(c.Query("page_size"), 20)

	query := config.DB.Model(&models.App{}).
		Where("is_active = ? AND delete_at IS NULL", true)

	if q := utils.SanitizeInput(c.Query("q")); q != "" {
		query = query.Where("name LIKE ?", "%"+q+"%")
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if developer := c.Query("developer"); developer != "" {
		query = query.Where("developer = ?", developer)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count apps"})
		return
	}

	var apps []models.App
	if err := query.Order("create_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&apps).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch apps"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": apps,
		"meta": gin.H{
			"page":      page,
			"page_size": size,
			"total":     total,
		},
	})
}

// GET /api/v1/apps/:id
func GetApp(c *gin.Context) {
	appID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var app models.App
	if err := config.DB.Where("app_id = ? AND delete_at IS NULL", appID).First(&app).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "App not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"app": app})
}

// GET /api/v1/apps/:id/reviews - approved reviews only, newest first
func GetAppReviews(c *gin.Context) {
	appID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page := parsePOS(c.Query("page"), 1)
	size := parsePOS(c.Query("page_size"), 20)

	query := config.DB.Model(&models.Review{}).
		Preload("Author").
		Where("app_id = ? AND status = ?", appID, models.StatusApproved)

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

// GET /api/v1/apps/search/suggestions?q= - name auto-suggestions, min 3 chars
func GetAppSuggestions(c *gin.Context) {
	q := utils.SanitizeInput(c.Query("q"))
	if len(q) < 3 {
		c.JSON(http.StatusOK, gin.H{"suggestions": []string{}})
		return
	}

	var names []string
	if err := config.DB.Model(&models.App{}).
		Where("name LIKE ? AND is_active = ? AND delete_at IS NULL", "%"+q+"%", true).
		Order("name ASC").
		Limit(10).
		Pluck("name", &names).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch suggestions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": names})
}

// GET /api/v1/apps/categories
func GetAppCategories(c *gin.Context) {
	var categories []string
	if err := config.DB.Model(&models.App{}).
		Where("category IS NOT NULL AND category <> '' AND delete_at IS NULL").
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GET /api/v1/apps/developers
func GetAppDevelopers(c *gin.Context) {
	var developers []string
	if err := config.DB.Model(&models.App{}).
		Where("developer IS NOT NULL AND developer <> '' AND delete_at IS NULL").
		Distinct().
		Order("developer ASC").
		Pluck("developer", &developers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch developers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"developers": developers})
}

// POST /api/v1/apps (admin only)
func CreateApp(c *gin.Context) {
	var req AppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app := models.App{
		Name:          utils.SanitizeInput(req.Name),
		Description:   req.Description,
		Developer:     req.Developer,
		Category:      req.Category,
		Version:       req.Version,
		AppStoreURL:   req.AppStoreURL,
		GooglePlayURL: req.GooglePlayURL,
		BundleID:      req.BundleID,
		SizeMB:        req.SizeMB,
		Tags:          req.Tags,
		IsActive:      true,
	}
	if app.Tags == nil {
		app.Tags = models.StringList{}
	}

	if err := config.DB.Create(&app).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create app (name may already exist)"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"app": app})
}

// PUT /api/v1/apps/:id (admin only)
func UpdateApp(c *gin.Context) {
	appID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var app models.App
	if err := config.DB.Where("app_id = ? AND delete_at IS NULL", appID).First(&app).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "App not found"})
		return
	}

	var req AppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app.Name = utils.SanitizeInput(req.Name)
	app.Description = req.Description
	app.Developer = req.Developer
	app.Category = req.Category
	app.Version = req.Version
	app.AppStoreURL = req.AppStoreURL
	app.GooglePlayURL = req.GooglePlayURL
	app.BundleID = req.BundleID
	app.SizeMB = req.SizeMB
	if req.Tags != nil {
		app.Tags = req.Tags
	}

	if err := config.DB.Save(&app).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update app"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"app": app})
}

// DELETE /api/v1/apps/:id (admin only, soft delete)
func DeleteApp(c *gin.Context) {
	appID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var app models.App
	if err := config.DB.Where("app_id = ? AND delete_at IS NULL", appID).First(&app).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "App not found"})
		return
	}

	now := time.Now()
	app.DeleteAt = &now
	app.IsActive = false
	if err := config.DB.Save(&app).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete app"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "App deleted"})
}
