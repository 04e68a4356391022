package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"app-review-api/models"
	"app-review-api/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConflictNotifier is told when a review enters the conflicted state.
type ConflictNotifier interface {
	NotifyConflict(review *models.Review, summary models.ApprovalSummary)
}

// ApprovalService owns the review lifecycle: submission, author edits,
// supervisor voting, tally evaluation, admin override and conflict
// resolution. Every state transition for a given review runs under that
// review's lock, so vote-insert + tally-recompute + status-write is one
// atomic unit.
type ApprovalService struct {
	db       *gorm.DB
	actors   ActorDirectory
	ratings  *RatingService
	notifier ConflictNotifier

	locksMu sync.Mutex
	locks   map[int]*reviewLock
}

type reviewLock struct {
	mu   sync.Mutex
	refs int
}

func NewApprovalService(db *gorm.DB, actors ActorDirectory, ratings *RatingService, notifier ConflictNotifier) *ApprovalService {
	return &ApprovalService{
		db:       db,
		actors:   actors,
		ratings:  ratings,
		notifier: notifier,
		locks:    make(map[int]*reviewLock),
	}
}

// lockReview serializes state transitions per review id. Cross-review
// operations stay fully parallel. Entries are refcounted and removed once
// the last holder releases, so the map only holds in-flight reviews.
func (s *ApprovalService) lockReview(reviewID int) func() {
	s.locksMu.Lock()
	l, ok := s.locks[reviewID]
	if !ok {
		l = &reviewLock{}
		s.locks[reviewID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, reviewID)
		}
		s.locksMu.Unlock()
	}
}

// lockForUpdate adds a row-level lock on dialects that support it, so
// multiple API instances sharing one MySQL database stay serialized too.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func isLockContention(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Deadlock found") || strings.Contains(msg, "Lock wait timeout")
}

func wrapTxError(err error) error {
	if isLockContention(err) {
		return NewConcurrencyConflictError(err)
	}
	return err
}

// SubmitInput carries a new review submission.
type SubmitInput struct {
	AppID   int
	Title   *string
	Content string
	Rating  int
	Tags    []string
}

// Submit creates a new review in pending status with zero decisions.
func (s *ApprovalService) Submit(actorID int, in SubmitInput) (*models.Review, error) {
	content := utils.SanitizeInput(in.Content)
	if content == "" {
		return nil, NewValidationError("review content must not be empty")
	}
	if !utils.ValidateRating(in.Rating) {
		return nil, NewValidationError("rating must be between 1 and 5")
	}

	var app models.App
	if err := s.db.Where("app_id = ? AND is_active = ? AND delete_at IS NULL", in.AppID, true).
		First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("app %d not found", in.AppID)
		}
		return nil, err
	}

	var existing int64
	if err := s.db.Model(&models.Review{}).
		Where("app_id = ? AND user_id = ?", in.AppID, actorID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, NewValidationError("you have already reviewed this app")
	}

	review := models.Review{
		AppID:   in.AppID,
		UserID:  actorID,
		Title:   in.Title,
		Content: content,
		Rating:  in.Rating,
		Tags:    in.Tags,
		Status:  models.StatusPending,
	}
	if review.Tags == nil {
		review.Tags = models.StringList{}
	}

	if err := s.db.Create(&review).Error; err != nil {
		// Unique (app_id, user_id) backs the duplicate check against races.
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry") ||
			strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, NewValidationError("you have already reviewed this app")
		}
		return nil, err
	}

	return &review, nil
}

// EditInput carries an author edit. Nil fields are left unchanged.
type EditInput struct {
	Title   *string
	Content *string
	Rating  *int
	Tags    []string
}

// Edit applies an author edit. Regardless of the prior status the review
// returns to pending and all supervisor decisions are cleared; the edit is
// an explicit re-review trigger, not a passive field update.
func (s *ApprovalService) Edit(reviewID, actorID int, in EditInput) (*models.Review, error) {
	if in.Content != nil {
		if utils.SanitizeInput(*in.Content) == "" {
			return nil, NewValidationError("review content must not be empty")
		}
	}
	if in.Rating != nil && !utils.ValidateRating(*in.Rating) {
		return nil, NewValidationError("rating must be between 1 and 5")
	}

	unlock := s.lockReview(reviewID)
	defer unlock()

	var review models.Review
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("review_id = ?", reviewID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("review %d not found", reviewID)
			}
			return err
		}
		if review.UserID != actorID {
			return NewAuthorizationError("only the author can edit this review")
		}

		wasApproved := review.Status == models.StatusApproved

		if in.Title != nil {
			review.Title = in.Title
		}
		if in.Content != nil {
			review.Content = utils.SanitizeInput(*in.Content)
		}
		if in.Rating != nil {
			review.Rating = *in.Rating
		}
		if in.Tags != nil {
			review.Tags = in.Tags
		}

		if err := tx.Where("review_id = ?", reviewID).
			Delete(&models.SupervisorDecision{}).Error; err != nil {
			return err
		}

		review.Status = models.StatusPending
		review.ReviewedByID = nil
		review.ReviewedAt = nil
		review.RejectionReason = nil

		if err := tx.Save(&review).Error; err != nil {
			return err
		}

		if wasApproved {
			return s.ratings.Recompute(tx, review.AppID)
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxError(err)
	}

	return &review, nil
}

// Delete removes a pending review. Authors may not delete reviews that
// have already entered moderation outcomes.
func (s *ApprovalService) Delete(reviewID, actorID int) error {
	unlock := s.lockReview(reviewID)
	defer unlock()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := lockForUpdate(tx).Where("review_id = ?", reviewID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("review %d not found", reviewID)
			}
			return err
		}
		if review.UserID != actorID {
			return NewAuthorizationError("only the author can delete this review")
		}
		if review.Status != models.StatusPending {
			return NewInvalidStateError("only pending reviews can be deleted (current status: %s)", review.Status)
		}

		if err := tx.Where("review_id = ?", reviewID).
			Delete(&models.SupervisorDecision{}).Error; err != nil {
			return err
		}
		return tx.Delete(&review).Error
	})
	return wrapTxError(err)
}

// VoteResult is returned to the voting supervisor: the fresh tally plus
// the review's (possibly transitioned) state.
type VoteResult struct {
	Review     *models.Review         `json:"review"`
	Summary    models.ApprovalSummary `json:"approval_summary"`
	MyDecision string                 `json:"my_decision"`
}

// CastVote records or replaces one supervisor's decision and re-evaluates
// the tally in the same locked unit. A re-vote by the same supervisor
// replaces the prior decision; it never double-counts.
func (s *ApprovalService) CastVote(reviewID, actorID int, decision, comment string) (*VoteResult, error) {
	decision = strings.ToLower(strings.TrimSpace(decision))
	if decision != models.DecisionApproved && decision != models.DecisionRejected {
		return nil, NewValidationError("decision must be either 'approved' or 'rejected'")
	}

	ok, err := s.actors.IsSupervisor(actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewAuthorizationError("supervisor privileges required")
	}

	unlock := s.lockReview(reviewID)
	defer unlock()

	var (
		review  models.Review
		summary models.ApprovalSummary
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("review_id = ?", reviewID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("review %d not found", reviewID)
			}
			return err
		}
		if review.Status != models.StatusPending {
			return NewInvalidStateError("review is not pending approval (current status: %s)", review.Status)
		}

		var existing models.SupervisorDecision
		findErr := tx.Where("review_id = ? AND supervisor_id = ?", reviewID, actorID).
			First(&existing).Error
		switch {
		case findErr == nil:
			existing.Decision = decision
			existing.Comment = optionalString(comment)
			existing.DecidedAt = time.Now()
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			record := models.SupervisorDecision{
				ReviewID:     reviewID,
				SupervisorID: actorID,
				Decision:     decision,
				Comment:      optionalString(comment),
				DecidedAt:    time.Now(),
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		default:
			return findErr
		}

		var err error
		summary, err = s.evaluate(tx, &review)
		return err
	})
	if err != nil {
		return nil, wrapTxError(err)
	}

	if models.IsConflictState(review.Status) && s.notifier != nil {
		s.notifier.NotifyConflict(&review, summary)
	}

	return &VoteResult{Review: &review, Summary: summary, MyDecision: decision}, nil
}

// evaluate recomputes the tally against the current roster and applies a
// transition out of pending when one is due. Must run inside the caller's
// transaction with the review row held.
func (s *ApprovalService) evaluate(tx *gorm.DB, review *models.Review) (models.ApprovalSummary, error) {
	summary, counted, err := s.tally(tx, review.ReviewID)
	if err != nil {
		return summary, err
	}

	allVoted := summary.Approved+summary.Rejected == summary.TotalSupervisors

	switch {
	case summary.Approved >= summary.RequiredApprovals:
		now := time.Now()
		review.Status = models.StatusApproved
		review.ReviewedAt = &now
		if latest := latestByDecision(counted, models.DecisionApproved); latest != nil {
			review.ReviewedByID = &latest.SupervisorID
		}
		if err := tx.Save(review).Error; err != nil {
			return summary, err
		}
		if err := s.ratings.Recompute(tx, review.AppID); err != nil {
			return summary, err
		}
	case summary.Rejected >= summary.RequiredApprovals:
		now := time.Now()
		review.Status = models.StatusRejected
		review.ReviewedAt = &now
		if latest := latestByDecision(counted, models.DecisionRejected); latest != nil {
			review.ReviewedByID = &latest.SupervisorID
			if latest.Comment != nil && *latest.Comment != "" {
				review.RejectionReason = latest.Comment
			}
		}
		if err := tx.Save(review).Error; err != nil {
			return summary, err
		}
	case allVoted && summary.TotalSupervisors > 0:
		// Exhausted roster without a strict majority on either side.
		now := time.Now()
		review.Status = models.StatusConflicted
		review.ReviewedAt = &now
		if err := tx.Save(review).Error; err != nil {
			return summary, err
		}
		log.Printf("review %d entered conflicted state (%d approved / %d rejected of %d supervisors)",
			review.ReviewID, summary.Approved, summary.Rejected, summary.TotalSupervisors)
	}

	return summary, nil
}

// tally builds the approval summary for a review from the stored decisions
// and the current supervisor roster. Decisions cast by actors no longer on
// the roster remain stored but do not count, so the three buckets always
// sum to the roster size.
func (s *ApprovalService) tally(db *gorm.DB, reviewID int) (models.ApprovalSummary, []models.SupervisorDecision, error) {
	var summary models.ApprovalSummary

	roster, err := s.actors.ListEligibleSupervisors()
	if err != nil {
		return summary, nil, err
	}
	eligible := make(map[int]bool, len(roster))
	for _, id := range roster {
		eligible[id] = true
	}

	var decisions []models.SupervisorDecision
	if err := db.Where("review_id = ?", reviewID).
		Order("decided_at ASC").
		Find(&decisions).Error; err != nil {
		return summary, nil, err
	}

	counted := decisions[:0:0]
	for _, d := range decisions {
		if !eligible[d.SupervisorID] {
			continue
		}
		counted = append(counted, d)
		switch d.Decision {
		case models.DecisionApproved:
			summary.Approved++
		case models.DecisionRejected:
			summary.Rejected++
		}
	}

	summary.TotalSupervisors = len(roster)
	summary.Pending = summary.TotalSupervisors - summary.Approved - summary.Rejected
	summary.RequiredApprovals = summary.TotalSupervisors/2 + 1
	return summary, counted, nil
}

func latestByDecision(decisions []models.SupervisorDecision, decision string) *models.SupervisorDecision {
	var latest *models.SupervisorDecision
	for i := range decisions {
		d := &decisions[i]
		if d.Decision != decision {
			continue
		}
		if latest == nil || d.DecidedAt.After(latest.DecidedAt) {
			latest = d
		}
	}
	return latest
}

// AdminOverride sets a review to any of pending/approved/rejected,
// bypassing the voting workflow. Always appends a resolution record.
// Overriding to pending clears decisions, mirroring the edit semantics.
func (s *ApprovalService) AdminOverride(reviewID, actorID int, newStatus, reason string) (*models.Review, error) {
	newStatus = strings.ToLower(strings.TrimSpace(newStatus))
	if newStatus != models.StatusPending && newStatus != models.StatusApproved && newStatus != models.StatusRejected {
		return nil, NewValidationError("status must be 'approved', 'rejected', or 'pending'")
	}
	reason = utils.SanitizeInput(reason)
	if newStatus == models.StatusRejected && reason == "" {
		return nil, NewValidationError("a reason is required when rejecting")
	}

	ok, err := s.actors.IsAdmin(actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewAuthorizationError("superuser privileges required")
	}

	unlock := s.lockReview(reviewID)
	defer unlock()

	var review models.Review
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("review_id = ?", reviewID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("review %d not found", reviewID)
			}
			return err
		}

		originalStatus := review.Status
		now := time.Now()

		if newStatus == models.StatusPending {
			if err := tx.Where("review_id = ?", reviewID).
				Delete(&models.SupervisorDecision{}).Error; err != nil {
				return err
			}
			review.ReviewedByID = nil
			review.ReviewedAt = nil
			review.RejectionReason = nil
		} else {
			review.ReviewedByID = &actorID
			review.ReviewedAt = &now
			if newStatus == models.StatusRejected {
				r := fmt.Sprintf("Admin override: %s", reason)
				review.RejectionReason = &r
			}
		}
		review.Status = newStatus

		if err := tx.Save(&review).Error; err != nil {
			return err
		}

		record := models.ResolutionRecord{
			ReviewID:    reviewID,
			AdminID:     actorID,
			Action:      models.ResolutionActionOverride,
			FinalStatus: newStatus,
			Reason:      optionalString(reason),
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		if originalStatus == models.StatusApproved || newStatus == models.StatusApproved {
			if err := s.ratings.Recompute(tx, review.AppID); err != nil {
				return err
			}
		}

		log.Printf("admin %d overrode review %d: %s -> %s", actorID, reviewID, originalStatus, newStatus)
		return nil
	})
	if err != nil {
		return nil, wrapTxError(err)
	}

	return &review, nil
}

// ResolveConflict is the admin escape hatch for reviews stuck in the
// conflicted or escalated state. Requires non-empty notes.
func (s *ApprovalService) ResolveConflict(reviewID, actorID int, finalDecision, notes string) (*models.Review, error) {
	finalDecision = strings.ToLower(strings.TrimSpace(finalDecision))
	if finalDecision != models.StatusApproved && finalDecision != models.StatusRejected {
		return nil, NewValidationError("final decision must be either 'approved' or 'rejected'")
	}
	notes = utils.SanitizeInput(notes)
	if notes == "" {
		return nil, NewValidationError("resolution notes must not be empty")
	}

	ok, err := s.actors.IsAdmin(actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, NewAuthorizationError("superuser privileges required")
	}

	unlock := s.lockReview(reviewID)
	defer unlock()

	var review models.Review
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("review_id = ?", reviewID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("review %d not found", reviewID)
			}
			return err
		}
		if !models.IsConflictState(review.Status) {
			return NewInvalidStateError("review is not in a conflict state (current status: %s)", review.Status)
		}

		now := time.Now()
		review.Status = finalDecision
		review.ReviewedByID = &actorID
		review.ReviewedAt = &now
		if finalDecision == models.StatusRejected {
			r := fmt.Sprintf("Conflict resolution: %s", notes)
			review.RejectionReason = &r
		}

		if err := tx.Save(&review).Error; err != nil {
			return err
		}

		record := models.ResolutionRecord{
			ReviewID:    reviewID,
			AdminID:     actorID,
			Action:      models.ResolutionActionConflict,
			FinalStatus: finalDecision,
			Reason:      &notes,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		if finalDecision == models.StatusApproved {
			return s.ratings.Recompute(tx, review.AppID)
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxError(err)
	}

	return &review, nil
}

// DecisionDetail is one supervisor's decision as exposed to callers who
// may see individual votes.
type DecisionDetail struct {
	SupervisorID   int     `json:"supervisor_id"`
	SupervisorName string  `json:"supervisor_name"`
	Decision       string  `json:"decision"`
	Comment        *string `json:"comment,omitempty"`
	DecidedAt      string  `json:"decided_at"`
}

// SummaryView is the role-filtered projection of a review's approval
// state. Decisions is nil while blind voting applies to the caller.
type SummaryView struct {
	ReviewID   int                    `json:"review_id"`
	Status     string                 `json:"review_status"`
	Summary    models.ApprovalSummary `json:"approval_summary"`
	MyDecision string                 `json:"my_decision"`
	Decisions  []DecisionDetail       `json:"decisions,omitempty"`
}

// DecisionsVisible implements the blind voting rule: individual decisions
// are withheld while a review is pending, except from admins.
func DecisionsVisible(status string, isAdmin bool) bool {
	return isAdmin || status != models.StatusPending
}

// GetApprovalSummary recomputes the summary for a review and filters the
// decision detail by the caller's capabilities. Never cached; a roster
// change is reflected on the next read.
func (s *ApprovalService) GetApprovalSummary(reviewID, actorID int) (*SummaryView, error) {
	var review models.Review
	if err := s.db.Where("review_id = ?", reviewID).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("review %d not found", reviewID)
		}
		return nil, err
	}

	isAdmin, err := s.actors.IsAdmin(actorID)
	if err != nil {
		return nil, err
	}

	return s.buildView(&review, actorID, isAdmin)
}

func (s *ApprovalService) buildView(review *models.Review, actorID int, isAdmin bool) (*SummaryView, error) {
	summary, _, err := s.tally(s.db, review.ReviewID)
	if err != nil {
		return nil, err
	}

	view := &SummaryView{
		ReviewID:   review.ReviewID,
		Status:     review.Status,
		Summary:    summary,
		MyDecision: "pending",
	}

	var mine models.SupervisorDecision
	err = s.db.Where("review_id = ? AND supervisor_id = ?", review.ReviewID, actorID).
		First(&mine).Error
	if err == nil {
		view.MyDecision = mine.Decision
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if !DecisionsVisible(review.Status, isAdmin) {
		return view, nil
	}

	var decisions []models.SupervisorDecision
	if err := s.db.Preload("Supervisor").
		Where("review_id = ?", review.ReviewID).
		Order("decided_at DESC").
		Find(&decisions).Error; err != nil {
		return nil, err
	}

	view.Decisions = make([]DecisionDetail, 0, len(decisions))
	for _, d := range decisions {
		detail := DecisionDetail{
			SupervisorID: d.SupervisorID,
			Decision:     d.Decision,
			Comment:      d.Comment,
			DecidedAt:    d.DecidedAt.Format(time.RFC3339),
		}
		if d.Supervisor != nil {
			detail.SupervisorName = d.Supervisor.Username
		}
		view.Decisions = append(view.Decisions, detail)
	}
	return view, nil
}

// ModerationItem is one row of the moderation queue.
type ModerationItem struct {
	Review *models.Review `json:"review"`
	View   *SummaryView   `json:"approval"`
}

// ListByStatus returns reviews filtered by lifecycle status with the
// blind voting rule applied per row for the calling actor.
func (s *ApprovalService) ListByStatus(filter string, actorID, page, pageSize int) ([]ModerationItem, int64, error) {
	query := s.db.Model(&models.Review{}).Preload("App").Preload("Author")

	switch filter {
	case "", "all":
	case models.StatusPending, models.StatusApproved, models.StatusRejected, models.StatusEscalated:
		query = query.Where("status = ?", filter)
	case models.StatusConflicted:
		query = query.Where("status IN ?", []string{models.StatusConflicted, models.StatusEscalated})
	default:
		return nil, 0, NewValidationError("unknown status filter '%s'", filter)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	if err := query.Order("create_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&reviews).Error; err != nil {
		return nil, 0, err
	}

	isAdmin, err := s.actors.IsAdmin(actorID)
	if err != nil {
		return nil, 0, err
	}

	items := make([]ModerationItem, 0, len(reviews))
	for i := range reviews {
		view, err := s.buildView(&reviews[i], actorID, isAdmin)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, ModerationItem{Review: &reviews[i], View: view})
	}
	return items, total, nil
}

// Resolutions returns the append-only audit trail for a review.
func (s *ApprovalService) Resolutions(reviewID int) ([]models.ResolutionRecord, error) {
	var records []models.ResolutionRecord
	err := s.db.Preload("Admin").
		Where("review_id = ?", reviewID).
		Order("resolved_at ASC").
		Find(&records).Error
	return records, err
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
