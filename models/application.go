package models

import "time"

// Stage is the position of an application in the mentor -> DRD -> dean pipeline.
type Stage string

const (
	StageDraft        Stage = "draft"
	StageMentorReview Stage = "mentor_review"
	StageDRDReview    Stage = "drd_review"
	StageDeanReview   Stage = "dean_review"
	StageApproved     Stage = "approved"
	StageRejected     Stage = "rejected"
)

func (s Stage) Valid() bool {
	switch s {
	case StageDraft, StageMentorReview, StageDRDReview, StageDeanReview, StageApproved, StageRejected:
		return true
	}
	return false
}

// Terminal reports whether no further decision can move the application.
func (s Stage) Terminal() bool {
	return s == StageApproved || s == StageRejected
}

// InReview reports whether a reviewing role currently owns the application.
func (s Stage) InReview() bool {
	return s == StageMentorReview || s == StageDRDReview || s == StageDeanReview
}

// Application is the document under review. Field values live in
// application_fields, one row per field name.
type Application struct {
	ApplicationID   string     `gorm:"primaryKey;column:application_id;type:varchar(36)" json:"application_id"`
	OwnerID         string     `gorm:"column:owner_id;type:varchar(64);index" json:"owner_id"`
	ApplicantEmail  string     `gorm:"column:applicant_email;type:varchar(255)" json:"applicant_email"`
	Title           string     `gorm:"column:title;type:varchar(500)" json:"title"`
	Stage           Stage      `gorm:"column:stage;type:varchar(32);index" json:"stage"`
	ChangesRequired bool       `gorm:"column:changes_required" json:"changes_required"`
	SubmittedAt     *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Fields    []ApplicationField    `gorm:"foreignKey:ApplicationID;references:ApplicationID" json:"-"`
	Inventors []ApplicationInventor `gorm:"foreignKey:ApplicationID;references:ApplicationID" json:"inventors"`

	// FieldValues is the flattened view of Fields for API responses.
	FieldValues map[string]string `gorm:"-" json:"fields"`
}

func (Application) TableName() string { return "applications" }

// FieldMap flattens the loaded field rows into name -> value.
func (a *Application) FieldMap() map[string]string {
	out := make(map[string]string, len(a.Fields))
	for _, f := range a.Fields {
		out[f.FieldName] = f.Value
	}
	return out
}

// ApplicationField holds the authoritative value of one field.
type ApplicationField struct {
	ApplicationID string    `gorm:"primaryKey;column:application_id;type:varchar(36)" json:"application_id"`
	FieldName     string    `gorm:"primaryKey;column:field_name;type:varchar(191)" json:"field_name"`
	Value         string    `gorm:"column:value;type:text" json:"value"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (ApplicationField) TableName() string { return "application_fields" }

// ApplicationInventor is a co-inventor who may be notified about progress.
type ApplicationInventor struct {
	InventorID    uint   `gorm:"primaryKey;autoIncrement;column:inventor_id" json:"inventor_id"`
	ApplicationID string `gorm:"column:application_id;type:varchar(36);index" json:"application_id"`
	Name          string `gorm:"column:name;type:varchar(255)" json:"name"`
	Email         string `gorm:"column:email;type:varchar(255)" json:"email"`
}

func (ApplicationInventor) TableName() string { return "application_inventors" }
