package controllers

import (
	"net/http"

	"app-review-api/config"
	"app-review-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type DecisionRequest struct {
	Decision string `json:"decision" binding:"required"`
	Comment  string `json:"comment"`
}

type ResolveRequest struct {
	FinalDecision   string `json:"final_decision" binding:"required"`
	ResolutionNotes string `json:"resolution_notes" binding:"required"`
}

type OverrideRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// GET /api/v1/moderation/reviews?filter=pending|approved|rejected|conflicted|all
// Moderation queue with the blind-voting rule applied per row.
func GetModerationReviews(c *gin.Context) {
	filter := c.DefaultQuery("filter", models.StatusPending)
	page := parsePOS(c.Query("page"), 1)
	size := parsePOS(c.Query("page_size"), 20)

	items, total, err := approvalService.ListByStatus(filter, currentUserID(c), page, size)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": items,
		"meta": gin.H{
			"page":      page,
			"page_size": size,
			"total":     total,
		},
	})
}

// POST /api/v1/moderation/reviews/:id/decision
func CastReviewDecision(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := approvalService.CastVote(reviewID, currentUserID(c), req.Decision, req.Comment)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	message := "Your " + result.MyDecision + " decision has been recorded."
	if result.Review.Status != models.StatusPending {
		message += " The review has been " + result.Review.Status + "."
	}

	c.JSON(http.StatusOK, gin.H{
		"message":          message,
		"review_status":    result.Review.Status,
		"approval_summary": result.Summary,
		"my_decision":      result.MyDecision,
	})
}

// GET /api/v1/moderation/reviews/:id/decisions
// Role-filtered approval detail for one review.
func GetReviewDecisions(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	view, err := approvalService.GetApprovalSummary(reviewID, currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resolutions, err := approvalService.Resolutions(reviewID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"review_id":          view.ReviewID,
		"review_status":      view.Status,
		"approval_summary":   view.Summary,
		"required_approvals": view.Summary.RequiredApprovals,
		"my_decision":        view.MyDecision,
		"decisions":          view.Decisions,
		"resolutions":        resolutions,
	})
}

// GET /api/v1/moderation/stats
func GetSupervisorStats(c *gin.Context) {
	userID := currentUserID(c)

	var totalDecisions, approvedDecisions, rejectedDecisions, pendingSystemWide int64

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&totalDecisions, config.DB.Model(&models.SupervisorDecision{}).
			Where("supervisor_id = ?", userID)},
		{&approvedDecisions, config.DB.Model(&models.SupervisorDecision{}).
			Where("supervisor_id = ? AND decision = ?", userID, models.DecisionApproved)},
		{&rejectedDecisions, config.DB.Model(&models.SupervisorDecision{}).
			Where("supervisor_id = ? AND decision = ?", userID, models.DecisionRejected)},
		{&pendingSystemWide, config.DB.Model(&models.Review{}).
			Where("status = ?", models.StatusPending)},
	}
	for _, count := range counts {
		if err := count.query.Count(count.dest).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_decisions":     totalDecisions,
		"approved_count":      approvedDecisions,
		"rejected_count":      rejectedDecisions,
		"pending_system_wide": pendingSystemWide,
	})
}

// GET /api/v1/admin/conflicts
func GetConflictedReviews(c *gin.Context) {
	page := parsePOS(c.Query("page"), 1)
	size := parsePOS(c.Query("page_size"), 20)

	items, total, err := approvalService.ListByStatus(models.StatusConflicted, currentUserID(c), page, size)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conflicted_reviews": items,
		"meta": gin.H{
			"page":      page,
			"page_size": size,
			"total":     total,
		},
	})
}

// POST /api/v1/admin/reviews/:id/resolve
func ResolveReviewConflict(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := approvalService.ResolveConflict(reviewID, currentUserID(c), req.FinalDecision, req.ResolutionNotes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Conflict resolved: review " + review.Status,
		"review_id":      review.ReviewID,
		"final_decision": review.Status,
		"review":         review,
	})
}

// POST /api/v1/admin/reviews/:id/override
func OverrideReview(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := approvalService.AdminOverride(reviewID, currentUserID(c), req.Status, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Admin override successful: review set to " + review.Status,
		"review_id": review.ReviewID,
		"status":    review.Status,
		"review":    review,
	})
}
