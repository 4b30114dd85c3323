package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ip-review-api/models"
)

// ApplicationStore persists applications, their field values and their
// stage history.
type ApplicationStore interface {
	Get(ctx context.Context, applicationID string) (*models.Application, error)
	Create(ctx context.Context, app *models.Application) error
	WriteField(ctx context.Context, applicationID, key, value string) error
	Transition(ctx context.Context, app *models.Application, change StageChange) error
}

// StageChange describes one pipeline transition of an application.
type StageChange struct {
	NewStage        models.Stage
	ChangesRequired bool
	ChangedBy       string
	Reason          string
	Note            string
	SubmittedAt     *time.Time
}

type GormApplicationStore struct{ db *gorm.DB }

var _ ApplicationStore = (*GormApplicationStore)(nil)

func NewApplicationStore(db *gorm.DB) *GormApplicationStore {
	return &GormApplicationStore{db: db}
}

func (s *GormApplicationStore) Get(ctx context.Context, applicationID string) (*models.Application, error) {
	var app models.Application
	err := s.db.WithContext(ctx).
		Preload("Fields").
		Preload("Inventors").
		Where("application_id = ?", applicationID).
		First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("application", applicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("load application: %w", err)
	}
	app.FieldValues = app.FieldMap()
	return &app, nil
}

// Create stores a new application with its initial fields and inventors.
func (s *GormApplicationStore) Create(ctx context.Context, app *models.Application) error {
	if app.ApplicationID == "" {
		app.ApplicationID = uuid.NewString()
	}
	if app.Stage == "" {
		app.Stage = models.StageDraft
	}

	now := time.Now()
	app.Fields = app.Fields[:0]
	for name, value := range app.FieldValues {
		app.Fields = append(app.Fields, models.ApplicationField{
			ApplicationID: app.ApplicationID,
			FieldName:     name,
			Value:         value,
			UpdatedAt:     now,
		})
	}

	if err := s.db.WithContext(ctx).Create(app).Error; err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	app.FieldValues = app.FieldMap()
	return nil
}

// WriteField upserts the authoritative value of one field.
func (s *GormApplicationStore) WriteField(ctx context.Context, applicationID, key, value string) error {
	row := models.ApplicationField{
		ApplicationID: applicationID,
		FieldName:     key,
		Value:         value,
		UpdatedAt:     time.Now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "application_id"}, {Name: "field_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("write field %s: %w", key, err)
	}
	return nil
}

// Transition moves the application to a new stage and logs the change. The
// update is conditional on the stage the caller observed, so a concurrent
// transition makes this one fail instead of overwriting it.
func (s *GormApplicationStore) Transition(ctx context.Context, app *models.Application, change StageChange) error {
	db := s.db.WithContext(ctx)
	now := time.Now()

	updates := map[string]interface{}{
		"stage":            change.NewStage,
		"changes_required": change.ChangesRequired,
		"updated_at":       now,
	}
	if change.SubmittedAt != nil {
		updates["submitted_at"] = *change.SubmittedAt
	}

	res := db.Model(&models.Application{}).
		Where("application_id = ? AND stage = ? AND changes_required = ?", app.ApplicationID, app.Stage, app.ChangesRequired).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update application stage: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return invalidTransitionError("application %q changed while the decision was being recorded", app.ApplicationID)
	}

	oldStage := app.Stage
	history := models.StageHistory{
		ApplicationID:   app.ApplicationID,
		OldStage:        &oldStage,
		NewStage:        change.NewStage,
		ChangesRequired: change.ChangesRequired,
		ChangedBy:       change.ChangedBy,
		Reason:          optionalString(change.Reason),
		Notes:           optionalString(change.Note),
		CreatedAt:       now,
	}
	if err := db.Create(&history).Error; err != nil {
		return fmt.Errorf("log stage history: %w", err)
	}

	app.Stage = change.NewStage
	app.ChangesRequired = change.ChangesRequired
	app.UpdatedAt = now
	if change.SubmittedAt != nil {
		app.SubmittedAt = change.SubmittedAt
	}
	return nil
}
