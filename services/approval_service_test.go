package services

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"app-review-api/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubNotifier struct {
	conflicts []int
}

func (s *stubNotifier) NotifyConflict(review *models.Review, _ models.ApprovalSummary) {
	s.conflicts = append(s.conflicts, review.ReviewID)
}

type fixture struct {
	db       *gorm.DB
	dir      *UserActorDirectory
	svc      *ApprovalService
	notifier *stubNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	// A ":memory:" DSN cannot be shared across pool connections; the
	// directory queries run outside the service transaction's connection,
	// so every fixture needs the on-disk database.
	return newFileFixture(t)
}

// newFileFixture backs the fixture with an on-disk database. Needed for
// concurrent tests: with ":memory:" every pool connection opens its own
// empty database.
func newFileFixture(t *testing.T) *fixture {
	t.Helper()
	return openFixture(t, filepath.Join(t.TempDir(), "reviews.db"))
}

func openFixture(t *testing.T, dsn string) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.App{},
		&models.Review{},
		&models.SupervisorDecision{},
		&models.ResolutionRecord{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	dir := NewUserActorDirectory(db)
	notifier := &stubNotifier{}
	svc := NewApprovalService(db, dir, NewRatingService(), notifier)
	return &fixture{db: db, dir: dir, svc: svc, notifier: notifier}
}

func (f *fixture) seedUser(t *testing.T, username string, supervisor, admin bool) models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		Password:     "x",
		IsSupervisor: supervisor,
		IsSuperuser:  admin,
		IsActive:     true,
	}
	if err := f.db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}
	f.dir.InvalidateRoster()
	return user
}

func (f *fixture) seedSupervisors(t *testing.T, n int) []models.User {
	t.Helper()
	sups := make([]models.User, 0, n)
	for i := 1; i <= n; i++ {
		sups = append(sups, f.seedUser(t, fmt.Sprintf("sup%d", i), true, false))
	}
	return sups
}

func (f *fixture) seedApp(t *testing.T, name string) models.App {
	t.Helper()
	app := models.App{Name: name, IsActive: true, Tags: models.StringList{}}
	if err := f.db.Create(&app).Error; err != nil {
		t.Fatalf("failed to seed app %s: %v", name, err)
	}
	return app
}

func (f *fixture) submit(t *testing.T, authorID, appID int) *models.Review {
	t.Helper()
	review, err := f.svc.Submit(authorID, SubmitInput{
		AppID:   appID,
		Content: "solid app, works offline",
		Rating:  4,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	return review
}

func (f *fixture) reloadReview(t *testing.T, reviewID int) models.Review {
	t.Helper()
	var review models.Review
	if err := f.db.Where("review_id = ?", reviewID).First(&review).Error; err != nil {
		t.Fatalf("failed to reload review %d: %v", reviewID, err)
	}
	return review
}

func assertSummary(t *testing.T, s models.ApprovalSummary, total, approved, rejected, required int) {
	t.Helper()
	if s.TotalSupervisors != total || s.Approved != approved || s.Rejected != rejected {
		t.Fatalf("unexpected summary %+v, want total=%d approved=%d rejected=%d", s, total, approved, rejected)
	}
	if s.RequiredApprovals != required {
		t.Fatalf("required approvals = %d, want %d", s.RequiredApprovals, required)
	}
	if s.Approved+s.Rejected+s.Pending != s.TotalSupervisors {
		t.Fatalf("summary buckets do not sum to roster size: %+v", s)
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	author := f.seedUser(t, "alice", false, false)
	app := f.seedApp(t, "Notes")

	if _, err := f.svc.Submit(author.UserID, SubmitInput{AppID: app.AppID, Content: "ok", Rating: 6}); !IsValidation(err) {
		t.Fatalf("expected validation error for rating 6, got %v", err)
	}
	if _, err := f.svc.Submit(author.UserID, SubmitInput{AppID: app.AppID, Content: "   ", Rating: 3}); !IsValidation(err) {
		t.Fatalf("expected validation error for empty content, got %v", err)
	}
	if _, err := f.svc.Submit(author.UserID, SubmitInput{AppID: 999, Content: "ok", Rating: 3}); !IsNotFound(err) {
		t.Fatalf("expected not found for unknown app, got %v", err)
	}

	review := f.submit(t, author.UserID, app.AppID)
	if review.Status != models.StatusPending {
		t.Fatalf("new review status = %s, want pending", review.Status)
	}

	if _, err := f.svc.Submit(author.UserID, SubmitInput{AppID: app.AppID, Content: "again", Rating: 2}); !IsValidation(err) {
		t.Fatalf("expected validation error for duplicate review, got %v", err)
	}
}

func TestMajorityApprovesWithThreeSupervisors(t *testing.T) {
	f := newFixture(t)
	author := f.seedUser(t, "alice", false, false)
	sups := f.seedSupervisors(t, 3)
	app := f.seedApp(t, "Notes")
	review := f.submit(t, author.UserID, app.AppID)

	res, err := f.svc.CastVote(review.ReviewID, sups[0].UserID, "approved", "")
	if err != nil {
		t.Fatalf("vote 1 failed: %v", err)
	}
	assertSummary(t, res.Summary, 3, 1, 0, 2)
	if res.Review.Status != models.StatusPending {
		t.Fatalf("status after 1 vote = %s, want pending", res.Review.Status)
	}

	res, err = f.svc.CastVote(review.ReviewID, sups[1].UserID, "rejected", "too short")
	if err != nil {
		t.Fatalf("vote 2 failed: %v", err)
	}
	assertSummary(t, res.Summary, 3, 1, 1, 2)
	if res.Review.Status != models.StatusPending {
		t.Fatalf("status after 2 votes = %s, want pending", res.Review.Status)
	}

	res, err = f.svc.CastVote(review.ReviewID, sups[2].UserID, "approved", "")
	if err != nil {
		t.Fatalf("vote 3 failed: %v", err)
	}
	assertSummary(t, res.Summary, 3, 2, 1, 2)
	if res.Review.Status != models.StatusApproved {
		t.Fatalf("status after majority = %s, want approved", res.Review.Status)
	}

	// Approval feeds the denormalized app rating.
	var got models.App
	if err := f.db.First(&got, "app_id = ?", app.AppID).Error; err != nil {
		t.Fatalf("failed to reload app: %v", err)
	}
	if got.TotalRatings != 1 || got.AverageRating != 4 {
		t.Fatalf("app rating = %.2f/%d, want 4.00/1", got.AverageRating, got.TotalRatings)
	}
}

func TestEvenSplitBecomesConflicted(t *testing.T) {
	f := newFixture(t)
	author := f.seedUser(t, "alice", false, false)
	sups := f.seedSupervisors(t, 4)
	app := f.seedApp(t, "Notes")
	review := f.submit(t, author.UserID, app.AppID)

	votes := []string{"approved", "rejected", "approved", "rejected"}
	var last *VoteResult
	for i, decision := range votes {
		var err error
		last, err = f.svc.CastVote(review.ReviewID, sups[i].UserID, decision, "")
		if err != nil {
			t.Fatalf("vote %d failed: %v", i+1, err)
		}
	}

	assertSummary(t, last.Summary, 4, 2, 2, 3)
	if last.Review.Status != models.StatusConflicted {
		t.Fatalf("status after exhausted split = %s, want conflicted", last.Review.Status)
	}
	if len(f.notifier.conflicts) != 1 || f.notifier.conflicts[0] != review.ReviewID {
		t.Fatalf("expected one conflict notification for review %d, got %v", review.ReviewID, f.notifier.conflicts)
	}
}

func TestRevoteReplacesPriorDecision(t *testing.T) {
	f := newFixture(t)
	author := f.seedUser(t, "alice", false, false)
	sups := f.seedSupervisors(t, 3)
	app := f.seedApp(t, "Notes")
	review := f.submit(t, author.UserID, app.AppID)

	if _, err := f.svc.CastVote(review.ReviewID, sups[0].UserID, "approved", ""); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	res, err := f.svc.CastVote(review.ReviewID, sups[0].UserID, "rejected", "changed my mind")
	if err != nil {
		t.Fatalf("revote failed: %v", err)
	}

	assertSummary(t, res.Summary, 3, 0, 1, 2)

	var count int64
	f.db.Model(&models.SupervisorDecision{}).Where("review_id = ?", review.ReviewID).Count(&count)
	if count != 1 {
		t.Fatalf("decision rows = %d, want 1 (replace, not append)", count)
	}
}

func TestConcurrentVotesSerializePerReview(t *testing.T) {
	f := newFileFixture(t)
	author := f.seedUser(t, "alice", false, false)
	sups := f.seedSupervisors(t, 4)
	app := f.seedApp(t, "Notes")
	review := f.submit(t, author.UserID, app.AppID)

	// All four supervisors approve at once. Required majority is 3; the
	// per-review lock must serialize vote+tally+transition so the review
	// lands on approved exactly once, with any vote arriving after the
	// transition rejected as an invalid state, never silently dropped.
	var wg sync.WaitGroup
	errs := make(chan error, len(sups))
	for _, sup := range sups {
		wg.Add(1)
		go func(supervisorID int) {
			defer wg.Done()
			_, err := f.svc.CastVote(review.ReviewID, supervisorID, "approved", "")
			errs <- err
		}(sup.UserID)
	}
	wg.Wait()
	close(errs)

	accepted := 0
	for err := range errs {
		switch {
		case err == nil:
			accepted++
		case IsInvalidState(err):
			// Landed after the majority transition.
		default:
			t.Fatalf("unexpected vote error: %v", err)
		}
	}
	if accepted < 3 {
		t.Fatalf("accepted votes = %d, want at least the required 3", accepted)
	}

	got := f.reloadReview(t, review.ReviewID)
	if got.Status != models.StatusApproved {
		t.Fatalf("status after concurrent votes = %s, want approved", got.Status)
	}

	// One decision row per accepted vote, nothing lost or duplicated.
	var rows int64
	f.db.Model(&models.SupervisorDecision{}).Where("review_id = ?", review.ReviewID).Count(&rows)
	if int(rows) != accepted {
		t.Fatalf("decision rows = %d, want %d (one per accepted vote)", rows, accepted)
	}

	// The rating aggregate saw exactly one approval transition.
	var gotApp models.App
	if err := f.db.First(&gotApp, "app_id = ?", app.AppID).Error; err != nil {
		t.Fatalf("failed to reload app: %v", err)
	}
	if gotApp.TotalRatings != 1 || gotApp.AverageRating != 4 {
		t.Fatalf("app rating = %.2f/%d, want 4.00/1", gotApp.AverageRating, gotApp.TotalRatings)
	}

	// All per-review locks are released and reclaimed once idle.
	f.svc.locksMu.Lock()
	held := len(f.svc.locks)
	f.svc.locksMu.Unlock()
	if held != 0 {
		t.Fatalf("lock map holds %d entries after all votes returned, want 0", held)
	}
}

func TestVoteAuthorizationAndState(t *testing.T) {
	f := newFixture(t)
	author := f.seedUser(t, "alice", false, false)
	outsider := f.seedUser(t, "bob", false, false)
	sups := f.seedSupervisors(t, 1)
	app := f.seedApp(t, "Notes")
	review := f.submit(t, author.UserID, app.AppID)

	if _, err := f.svc.CastVote(review.ReviewID, outsider.UserID, "approved", ""); !IsAuthorization(err) {
		t.Fatalf("expected authorization error for non-supervisor, got %v", err)
	}

	// Single supervisor: required = 1, one approval finalizes.
	if _, err := f.svc.CastVote(review.ReviewID, sups[0].UserID, "approved", ""); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	if _, err := f.svc.CastVote(review.ReviewID, sups[0].UserID, "rejected", ""); !IsInvalidState(err) {
		t.Fatalf("expected invalid state error for vote on approved review, got %v", err)
	}

	if _, err := f.svc.CastVote(999, sups[0].UserID, "approved", ""); !IsNotFound(err) {
		t.Fatalf("expected not found for unknown review, got %v", err)
	}
}

func TestEditResetsStatusAndClearsDecisions(t *testing.T) {
	f := newFixture(t)
	author := f.seedUser(t, "alice", false, false)
	sups := f.seedSupervisors(t, 2)
	app := f.seedApp(t, "Notes")
	review := f.submit(t, author.UserID, app.AppID)

	for _, sup := range sups {
		if _, err := f.svc.CastVote(review.ReviewID, sup.UserID, "approved", ""); err != nil {
			t.Fatalf("vote failed: %v", err)
		}
	}
	if got := f.reloadReview(t, review.ReviewID); got.Status != models.StatusApproved {
		t.Fatalf("setup: status = %s, want approved", got.Status)
	}

	newContent := "after the update the app crashes on launch"
	newRating := 1
	if _, err := f.svc.Edit(review.ReviewID, sups[0].UserID, EditInput{Content: &newContent}); !IsAuthorization(err) {
		t.Fatalf("expected authorization error for non-author edit, got %v", err)
	}

	edited, err := f.svc.Edit(review.ReviewID, author.UserID, EditInput{Content: &newContent, Rating: &newRating})
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}

	if edited.Status != models.StatusPending {
		t.Fatalf("status after edit = %s, want pending", edited.Status)
	}
	if edited.ReviewedByID != nil || edited.ReviewedAt != nil || edited.RejectionReason != nil {
		t.Fatalf("moderation fields not cleared after edit: %+v", edited)
	}

	var count int64
	f.db.Model(&models.SupervisorDecision{}).Where("review_id = ?", review.ReviewID).Count(&count)
	if count != 0 {
		t.Fatalf("decision rows after edit = %d, want 0", count)
	}

	// The approval left the rating aggregate; the edit must take it back out.
	var got models.App
	if err := f.db.First(&got, "app_id = ?", app.AppID).Error; err != nil {
		t.Fatalf("failed to reload app: %v", err)
	}
	if got.TotalRatings != 0 || got.AverageRating != 0 {
		t.Fatalf("app rating after edit = %.2f/%d, want 0/0", got.AverageRating, got.TotalRatings)
	}
}

func TestResolveConflict(t *testing.T) {
	f := newFixture(t)
	author := f.seedUser(t, "alice", false, false)
	admin := f.seedUser(t, "root", false, true)
	sups := f.seedSupervisors(t, 2)
	app := f.seedApp(t, "Notes")
	review := f.submit(t, author.UserID, app.AppID)

	// Pending reviews cannot be resolved.
	if _, err := f.svc.ResolveConflict(review.ReviewID, admin.UserID, "approved", "notes"); !IsInvalidState(err) {
		t.Fatalf("expected invalid state error on pending review, got %v", err)
	}

	// 1-1 split with both supervisors voted -> conflicted.
	if _, err := f.svc.CastVote(review.ReviewID, sups[0].UserID, "approved", ""); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if _, err := f.svc.CastVote(review.ReviewID, sups[1].UserID, "rejected", ""); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if got := f.reloadReview(t, review.ReviewID); got.Status != models.StatusConflicted {
		t.Fatalf("setup: status = %s, want conflicted", got.Status)
	}

	if _, err := f.svc.ResolveConflict(review.ReviewID, admin.UserID, "approved", "   "); !IsValidation(err) {
		t.Fatalf("expected validation error for empty notes, got %v", err)
	}
	if _, err := f.svc.ResolveConflict(review.ReviewID, sups[0].UserID, "approved", "notes"); !IsAuthorization(err) {
		t.Fatalf("expected authorization error for non-admin, got %v", err)
	}

	resolved, err := f.svc.ResolveConflict(review.ReviewID, admin.UserID, "approved", "content is fine")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.Status != models.StatusApproved {
		t.Fatalf("status after resolution = %s, want approved", resolved.Status)
	}

	// Supervisor decisions stay for history; a resolution record is appended.
	var decisions, resolutions int64
	f.db.Model(&models.SupervisorDecision{}).Where("review_id = ?", review.ReviewID).Count(&decisions)
	f.db.Model(&models.ResolutionRecord{}).Where("review_id = ?", review.ReviewID).Count(&resolutions)
	if decisions != 2 {
		t.Fatalf("decision rows = %d, want 2", decisions)
	}
	if resolutions != 1 {
		t.Fatalf("resolution rows = %d, want 1", resolutions)
	}

	records, err := f.svc.Resolutions(review.ReviewID)
	if err != nil {
		t.Fatalf("resolutions failed: %v", err)
	}
	if records[0].Action != models.ResolutionActionConflict || records[0].FinalStatus != models.StatusApproved {
		t.Fatalf("unexpected resolution record: %+v", records[0])
	}
}

func TestAdminOverride(t *testing.T) {
	f := newFixture(t)
	author := f.seedUser(t, "alice", false, false)
	admin := f.seedUser(t, "root", false, true)
	sups := f.seedSupervisors(t, 3)
	app := f.seedApp(t, "Notes")
	review := f.submit(t, author.UserID, app.AppID)

	if _, err := f.svc.CastVote(review.ReviewID, sups[0].UserID, "approved", ""); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	if _, err := f.svc.AdminOverride(review.ReviewID, sups[0].UserID, "approved", ""); !IsAuthorization(err) {
		t.Fatalf("expected authorization error for non-admin, got %v", err)
	}
	if _, err := f.svc.AdminOverride(review.ReviewID, admin.UserID, "conflicted", ""); !IsValidation(err) {
		t.Fatalf("expected validation error for illegal target status, got %v", err)
	}
	if _, err := f.svc.AdminOverride(review.ReviewID, admin.UserID, "rejected", ""); !IsValidation(err) {
		t.Fatalf("expected validation error for rejection without reason, got %v", err)
	}

	overridden, err := f.svc.AdminOverride(review.ReviewID, admin.UserID, "rejected", "spam content")
	if err != nil {
		t.Fatalf("override failed: %v", err)
	}
	if overridden.Status != models.StatusRejected {
		t.Fatalf("status after override = %s, want rejected", overridden.Status)
	}
	if overridden.RejectionReason == nil || *overridden.RejectionReason == "" {
		t.Fatalf("rejection reason not recorded")
	}

	// Override keeps decisions in place for everything but pending.
	var decisions int64
	f.db.Model(&models.SupervisorDecision{}).Where("review_id = ?", review.ReviewID).Count(&decisions)
	if decisions != 1 {
		t.Fatalf("decision rows after reject override = %d, want 1", decisions)
	}

	// Overriding to pending forces a re-review: decisions cleared.
	pending, err := f.svc.AdminOverride(review.ReviewID, admin.UserID, "pending", "")
	if err != nil {
		t.Fatalf("override to pending failed: %v", err)
	}
	if pending.Status != models.StatusPending || pending.ReviewedByID != nil || pending.RejectionReason != nil {
		t.Fatalf("override to pending did not reset review: %+v", pending)
	}
	f.db.Model(&models.SupervisorDecision{}).Where("review_id = ?", review.ReviewID).Count(&decisions)
	if decisions != 0 {
		t.Fatalf("decision rows after pending override = %d, want 0", decisions)
	}

	var resolutions int64
	f.db.Model(&models.ResolutionRecord{}).Where("review_id = ?", review.ReviewID).Count(&resolutions)
	if resolutions != 2 {
		t.Fatalf("resolution rows = %d, want 2 (append-only)", resolutions)
	}
}

func TestBlindVoting(t *testing.T) {
	f := newFixture(t)
	author := f.seedUser(t, "alice", false, false)
	admin := f.seedUser(t, "root", false, true)
	sups := f.seedSupervisors(t, 2)
	app := f.seedApp(t, "Notes")
	review := f.submit(t, author.UserID, app.AppID)

	if _, err := f.svc.CastVote(review.ReviewID, sups[0].UserID, "approved", "looks good"); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	// The voter sees aggregates and their own decision, not peers.
	view, err := f.svc.GetApprovalSummary(review.ReviewID, sups[0].UserID)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if view.MyDecision != models.DecisionApproved {
		t.Fatalf("my decision = %s, want approved", view.MyDecision)
	}
	if view.Decisions != nil {
		t.Fatalf("peer decisions leaked while pending: %+v", view.Decisions)
	}
	assertSummary(t, view.Summary, 2, 1, 0, 2)

	// A peer who has not voted sees no decision detail either.
	peerView, err := f.svc.GetApprovalSummary(review.ReviewID, sups[1].UserID)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if peerView.MyDecision != "pending" || peerView.Decisions != nil {
		t.Fatalf("peer view leaks detail while pending: %+v", peerView)
	}

	// Admins see the detail regardless of state.
	adminView, err := f.svc.GetApprovalSummary(review.ReviewID, admin.UserID)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if len(adminView.Decisions) != 1 || adminView.Decisions[0].SupervisorName != sups[0].Username {
		t.Fatalf("admin view missing decision detail: %+v", adminView.Decisions)
	}

	// After resolution the detail becomes visible to everyone involved.
	if _, err := f.svc.CastVote(review.ReviewID, sups[1].UserID, "approved", ""); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	finalView, err := f.svc.GetApprovalSummary(review.ReviewID, sups[0].UserID)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if finalView.Status != models.StatusApproved || len(finalView.Decisions) != 2 {
		t.Fatalf("decision detail not revealed after resolution: %+v", finalView)
	}
}

func TestRosterChangeMovesThreshold(t *testing.T) {
	f := newFixture(t)
	author := f.seedUser(t, "alice", false, false)
	sups := f.seedSupervisors(t, 3)
	app := f.seedApp(t, "Notes")
	review := f.submit(t, author.UserID, app.AppID)

	res, err := f.svc.CastVote(review.ReviewID, sups[0].UserID, "approved", "")
	if err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	assertSummary(t, res.Summary, 3, 1, 0, 2)

	// Two more supervisors join; the threshold moves from 2 to 3 and the
	// next tally reflects the grown roster.
	f.seedUser(t, "sup4", true, false)
	f.seedUser(t, "sup5", true, false)

	res, err = f.svc.CastVote(review.ReviewID, sups[1].UserID, "approved", "")
	if err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	assertSummary(t, res.Summary, 5, 2, 0, 3)
	if res.Review.Status != models.StatusPending {
		t.Fatalf("status = %s, want pending with grown roster", res.Review.Status)
	}
}

func TestDeleteOnlyPendingByAuthor(t *testing.T) {
	f := newFixture(t)
	author := f.seedUser(t, "alice", false, false)
	sup := f.seedUser(t, "sup1", true, false)
	app := f.seedApp(t, "Notes")
	review := f.submit(t, author.UserID, app.AppID)

	if err := f.svc.Delete(review.ReviewID, sup.UserID); !IsAuthorization(err) {
		t.Fatalf("expected authorization error for non-author delete, got %v", err)
	}

	if _, err := f.svc.CastVote(review.ReviewID, sup.UserID, "approved", ""); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if err := f.svc.Delete(review.ReviewID, author.UserID); !IsInvalidState(err) {
		t.Fatalf("expected invalid state error for delete of approved review, got %v", err)
	}

	second := f.seedApp(t, "Maps")
	other := f.submit(t, author.UserID, second.AppID)
	if err := f.svc.Delete(other.ReviewID, author.UserID); err != nil {
		t.Fatalf("delete of pending review failed: %v", err)
	}

	var count int64
	f.db.Model(&models.Review{}).Where("review_id = ?", other.ReviewID).Count(&count)
	if count != 0 {
		t.Fatalf("review still present after delete")
	}
}

func TestListByStatusAppliesBlindVoting(t *testing.T) {
	f := newFixture(t)
	author := f.seedUser(t, "alice", false, false)
	sups := f.seedSupervisors(t, 2)
	app := f.seedApp(t, "Notes")
	review := f.submit(t, author.UserID, app.AppID)

	if _, err := f.svc.CastVote(review.ReviewID, sups[0].UserID, "approved", ""); err != nil {
		t.Fatalf("vote failed: %v", err)
	}

	items, total, err := f.svc.ListByStatus(models.StatusPending, sups[1].UserID, 1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("list returned %d/%d rows, want 1", len(items), total)
	}
	if items[0].View.Decisions != nil {
		t.Fatalf("listing leaked decisions while pending")
	}

	if _, _, err := f.svc.ListByStatus("bogus", sups[0].UserID, 1, 20); !IsValidation(err) {
		t.Fatalf("expected validation error for unknown filter, got %v", err)
	}
}
