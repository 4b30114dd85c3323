package models

import "time"

type UpdateKind string

const (
	UpdateKindHearing         UpdateKind = "hearing"
	UpdateKindDocumentRequest UpdateKind = "document_request"
	UpdateKindMilestone       UpdateKind = "milestone"
	UpdateKindGeneral         UpdateKind = "general"
)

func (k UpdateKind) Valid() bool {
	switch k {
	case UpdateKindHearing, UpdateKindDocumentRequest, UpdateKindMilestone, UpdateKindGeneral:
		return true
	}
	return false
}

type UpdatePriority string

const (
	PriorityLow    UpdatePriority = "low"
	PriorityMedium UpdatePriority = "medium"
	PriorityHigh   UpdatePriority = "high"
	PriorityUrgent UpdatePriority = "urgent"
)

func (p UpdatePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// StatusUpdate is an immutable, informational timeline entry.
type StatusUpdate struct {
	ID              uint           `gorm:"primaryKey;autoIncrement;column:id" json:"-"`
	UpdateID        string         `gorm:"column:update_id;type:varchar(36);uniqueIndex" json:"update_id"`
	ApplicationID   string         `gorm:"column:application_id;type:varchar(36);index" json:"application_id"`
	AuthorID        string         `gorm:"column:author_id;type:varchar(64)" json:"author_id"`
	AuthorRole      Role           `gorm:"column:author_role;type:varchar(32)" json:"author_role"`
	Kind            UpdateKind     `gorm:"column:kind;type:varchar(32)" json:"kind"`
	Priority        UpdatePriority `gorm:"column:priority;type:varchar(16)" json:"priority"`
	Message         string         `gorm:"column:message;type:text" json:"message"`
	NotifyApplicant bool           `gorm:"column:notify_applicant" json:"notify_applicant"`
	NotifyInventors bool           `gorm:"column:notify_inventors" json:"notify_inventors"`
	CreatedAt       time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (StatusUpdate) TableName() string { return "status_updates" }
