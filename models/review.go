package models

import "time"

// Review lifecycle statuses. Conflicted and escalated both require an
// admin decision to reach a terminal state.
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusConflicted = "conflicted"
	StatusEscalated  = "escalated"
)

// Supervisor decision values.
const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

// Resolution record actions.
const (
	ResolutionActionOverride = "override"
	ResolutionActionConflict = "conflict_resolution"
)

// Review is one user's opinion of one app. Content is owned by the author;
// status transitions are owned by the approval engine.
type Review struct {
	ReviewID        int        `gorm:"primaryKey;column:review_id" json:"review_id"`
	AppID           int        `gorm:"column:app_id;uniqueIndex:uniq_app_user" json:"app_id"`
	UserID          int        `gorm:"column:user_id;uniqueIndex:uniq_app_user" json:"user_id"`
	Title           *string    `gorm:"column:title" json:"title,omitempty"`
	Content         string     `gorm:"column:content" json:"content"`
	Rating          int        `gorm:"column:rating" json:"rating"`
	Tags            StringList `gorm:"column:tags;type:json" json:"tags"`
	Status          string     `gorm:"column:status;default:pending;index" json:"status"`
	ReviewedByID    *int       `gorm:"column:reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	RejectionReason *string    `gorm:"column:rejection_reason" json:"rejection_reason,omitempty"`
	CreateAt        time.Time  `gorm:"column:create_at;autoCreateTime" json:"create_at"`
	UpdateAt        time.Time  `gorm:"column:update_at;autoUpdateTime" json:"update_at"`

	// Relations
	App        *App  `gorm:"foreignKey:AppID" json:"app,omitempty"`
	Author     *User `gorm:"foreignKey:UserID" json:"author,omitempty"`
	ReviewedBy *User `gorm:"foreignKey:ReviewedByID" json:"reviewed_by_user,omitempty"`
}

// SupervisorDecision is one supervisor's vote on one review. Unique per
// (review, supervisor); a re-vote replaces the prior row.
type SupervisorDecision struct {
	DecisionID   int       `gorm:"primaryKey;column:decision_id" json:"decision_id"`
	ReviewID     int       `gorm:"column:review_id;uniqueIndex:uniq_review_supervisor" json:"review_id"`
	SupervisorID int       `gorm:"column:supervisor_id;uniqueIndex:uniq_review_supervisor" json:"supervisor_id"`
	Decision     string    `gorm:"column:decision" json:"decision"`
	Comment      *string   `gorm:"column:comment" json:"comment,omitempty"`
	DecidedAt    time.Time `gorm:"column:decided_at;autoUpdateTime" json:"decided_at"`

	Supervisor *User `gorm:"foreignKey:SupervisorID" json:"supervisor,omitempty"`
}

// ResolutionRecord is an append-only audit entry for admin overrides and
// conflict resolutions. Supervisor decisions are never deleted by a
// resolution; they stay visible for history.
type ResolutionRecord struct {
	ResolutionID int       `gorm:"primaryKey;column:resolution_id" json:"resolution_id"`
	ReviewID     int       `gorm:"column:review_id;index" json:"review_id"`
	AdminID      int       `gorm:"column:admin_id" json:"admin_id"`
	Action       string    `gorm:"column:action" json:"action"`
	FinalStatus  string    `gorm:"column:final_status" json:"final_status"`
	Reason       *string   `gorm:"column:reason" json:"reason,omitempty"`
	ResolvedAt   time.Time `gorm:"column:resolved_at;autoCreateTime" json:"resolved_at"`

	Admin *User `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
}

// ApprovalSummary is derived from the decision set plus the current
// supervisor roster; it is never stored.
type ApprovalSummary struct {
	TotalSupervisors  int `json:"total_supervisors"`
	Approved          int `json:"approved"`
	Rejected          int `json:"rejected"`
	Pending           int `json:"pending"`
	RequiredApprovals int `json:"required_approvals"`
}

// TableName overrides
func (Review) TableName() string {
	return "reviews"
}

func (SupervisorDecision) TableName() string {
	return "supervisor_decisions"
}

func (ResolutionRecord) TableName() string {
	return "resolution_records"
}

// IsTerminal reports whether the status is one a review cannot leave
// without an author edit or an admin action.
func IsTerminal(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

// IsConflictState reports whether the status requires admin resolution.
func IsConflictState(status string) bool {
	return status == StatusConflicted || status == StatusEscalated
}

// ValidStatus reports whether s is a known review status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusConflicted, StatusEscalated:
		return true
	}
	return false
}
