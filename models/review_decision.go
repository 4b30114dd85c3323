package models

import "time"

type Decision string

const (
	DecisionApproved        Decision = "approved"
	DecisionChangesRequired Decision = "changes_required"
	DecisionApprove         Decision = "approve" // dean
	DecisionReject          Decision = "reject"  // dean
)

// ReviewDecision records one reviewing role's verdict for one stage.
type ReviewDecision struct {
	DecisionID    uint      `gorm:"primaryKey;autoIncrement;column:decision_id" json:"decision_id"`
	ApplicationID string    `gorm:"column:application_id;type:varchar(36);index" json:"application_id"`
	Stage         Stage     `gorm:"column:stage;type:varchar(32)" json:"stage"`
	ReviewerID    string    `gorm:"column:reviewer_id;type:varchar(64)" json:"reviewer_id"`
	ReviewerRole  Role      `gorm:"column:reviewer_role;type:varchar(32)" json:"reviewer_role"`
	Decision      Decision  `gorm:"column:decision;type:varchar(32)" json:"decision"`
	Comments      *string   `gorm:"column:comments;type:text" json:"comments,omitempty"`
	ReviewRound   int       `gorm:"column:review_round" json:"review_round"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
}

func (ReviewDecision) TableName() string { return "review_decisions" }

// StageHistory tracks every pipeline transition of an application.
type StageHistory struct {
	HistoryID       uint      `gorm:"primaryKey;autoIncrement;column:history_id" json:"history_id"`
	ApplicationID   string    `gorm:"column:application_id;type:varchar(36);index" json:"application_id"`
	OldStage        *Stage    `gorm:"column:old_stage;type:varchar(32)" json:"old_stage"`
	NewStage        Stage     `gorm:"column:new_stage;type:varchar(32)" json:"new_stage"`
	ChangesRequired bool      `gorm:"column:changes_required" json:"changes_required"`
	ChangedBy       string    `gorm:"column:changed_by;type:varchar(64)" json:"changed_by"`
	Reason          *string   `gorm:"column:reason;type:text" json:"reason,omitempty"`
	Notes           *string   `gorm:"column:notes;type:varchar(255)" json:"notes,omitempty"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
}

func (StageHistory) TableName() string { return "application_stage_history" }
