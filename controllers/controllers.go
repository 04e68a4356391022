package controllers

import (
	"net/http"
	"strconv"

	"app-review-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	actorDirectory  *services.UserActorDirectory
	approvalService *services.ApprovalService
)

// Init wires the service layer. Called once from main (and from handler
// tests with their own database handle).
func Init(db *gorm.DB) {
	actorDirectory = services.NewUserActorDirectory(db)
	approvalService = services.NewApprovalService(
		db,
		actorDirectory,
		services.NewRatingService(),
		services.NewMailNotifier(db),
	)
}

func currentUserID(c *gin.Context) int {
	return c.GetInt("userID")
}

func parsePOS(q string, def int) int {
	if q == "" {
		return def
	}
	n, err := strconv.Atoi(q)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func parseIDParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case services.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case services.IsAuthorization(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case services.IsInvalidState(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case services.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
