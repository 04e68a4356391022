package services

import (
	"fmt"
	"log"

	"app-review-api/config"
	"app-review-api/models"

	"gorm.io/gorm"
)

// MailNotifier emails admins and supervisors when a review enters the
// conflicted state. Failures are logged, never propagated; notification
// must not fail the vote that triggered it.
type MailNotifier struct {
	db *gorm.DB
}

func NewMailNotifier(db *gorm.DB) *MailNotifier {
	return &MailNotifier{db: db}
}

func (n *MailNotifier) NotifyConflict(review *models.Review, summary models.ApprovalSummary) {
	var emails []string
	err := n.db.Model(&models.User{}).
		Where("(is_superuser = ? OR is_supervisor = ?) AND is_active = ? AND delete_at IS NULL", true, true, true).
		Where("email <> ''").
		Distinct().
		Pluck("email", &emails).Error
	if err != nil {
		log.Printf("conflict notification for review %d: failed to load recipients: %v", review.ReviewID, err)
		return
	}
	if len(emails) == 0 {
		return
	}

	subject := fmt.Sprintf("Review conflict requires admin resolution - review #%d", review.ReviewID)
	body := fmt.Sprintf(`<p>A review vote ended without a majority and requires admin resolution.</p>
<ul>
<li>Review ID: %d</li>
<li>Rating: %d</li>
<li>Supervisors: %d (approved %d / rejected %d)</li>
</ul>
<p>Please resolve this case on the conflict resolution page.</p>`,
		review.ReviewID, review.Rating,
		summary.TotalSupervisors, summary.Approved, summary.Rejected)

	if err := config.SendMail(emails, subject, body); err != nil {
		log.Printf("conflict notification for review %d: %v", review.ReviewID, err)
	}
}
