package models

import "time"

type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionAccepted SuggestionStatus = "accepted"
	SuggestionRejected SuggestionStatus = "rejected"
)

// Terminal reports whether the status can no longer change.
func (s SuggestionStatus) Terminal() bool {
	return s == SuggestionAccepted || s == SuggestionRejected
}

// Suggestion is a proposed whole-value replacement for one field of one
// application. ID orders suggestions by creation; SuggestionID is the public key.
type Suggestion struct {
	ID            uint             `gorm:"primaryKey;autoIncrement;column:id" json:"-"`
	SuggestionID  string           `gorm:"column:suggestion_id;type:varchar(36);uniqueIndex" json:"suggestion_id"`
	ApplicationID string           `gorm:"column:application_id;type:varchar(36);index" json:"application_id"`
	FieldName     string           `gorm:"column:field_name;type:varchar(191);index" json:"field_name"`
	FieldPath     *string          `gorm:"column:field_path;type:varchar(255)" json:"field_path,omitempty"`
	AuthorID      string           `gorm:"column:author_id;type:varchar(64)" json:"author_id"`
	AuthorRole    Role             `gorm:"column:author_role;type:varchar(32)" json:"author_role"`
	OriginalValue string           `gorm:"column:original_value;type:text" json:"original_value"`
	ProposedValue string           `gorm:"column:proposed_value;type:text" json:"proposed_value"`
	Note          *string          `gorm:"column:note;type:text" json:"note,omitempty"`
	Status        SuggestionStatus `gorm:"column:status;type:varchar(16);index" json:"status"`
	ResponderID   *string          `gorm:"column:responder_id;type:varchar(64)" json:"responder_id,omitempty"`
	ResponderNote *string          `gorm:"column:responder_note;type:text" json:"responder_note,omitempty"`
	CreatedAt     time.Time        `gorm:"column:created_at" json:"created_at"`
	ResolvedAt    *time.Time       `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
}

func (Suggestion) TableName() string { return "suggestions" }

// TargetKey is the key written into the field map when the suggestion is
// accepted: the structured path for nested fields, otherwise the field name.
func (s Suggestion) TargetKey() string {
	if s.FieldPath != nil && *s.FieldPath != "" {
		return *s.FieldPath
	}
	return s.FieldName
}
