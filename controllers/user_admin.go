package controllers

import (
	"net/http"

	"app-review-api/config"
	"app-review-api/models"

	"github.com/gin-gonic/gin"
)

// GET /api/v1/admin/users?page=&page_size=
func GetUsers(c *gin.Context) {
	page := parsePOS(c.Query("page"), 1)
	size := parsePOS(c.Query("page_size"), 20)

	query := config.DB.Model(&models.User{}).Where("delete_at IS NULL")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
		return
	}

	var users []models.User
	if err := query.Order("user_id ASC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": users,
		"meta": gin.H{
			"page":      page,
			"page_size": size,
			"total":     total,
		},
	})
}

// GET /api/v1/admin/users/supervisors - current eligible roster
func GetSupervisors(c *gin.Context) {
	var supervisors []models.User
	if err := config.DB.
		Where("is_supervisor = ? AND is_active = ? AND delete_at IS NULL", true, true).
		Order("user_id ASC").
		Find(&supervisors).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch supervisors"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"supervisors": supervisors,
		"total":       len(supervisors),
	})
}

// POST /api/v1/admin/users/:id/promote
func PromoteSupervisor(c *gin.Context) {
	setSupervisorFlag(c, true, "User promoted to supervisor")
}

// POST /api/v1/admin/users/:id/revoke
func RevokeSupervisor(c *gin.Context) {
	setSupervisorFlag(c, false, "Supervisor privileges revoked")
}

func setSupervisorFlag(c *gin.Context, flag bool, message string) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var user models.User
	if err := config.DB.Where("user_id = ? AND delete_at IS NULL", userID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if user.IsSupervisor != flag {
		user.IsSupervisor = flag
		if err := config.DB.Save(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
			return
		}
		// Roster changed; majority thresholds must see it immediately.
		actorDirectory.InvalidateRoster()
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"user":    user,
	})
}
