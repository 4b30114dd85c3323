package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ip-review-api/models"
)

// SuggestionStore is pure keyed persistence for suggestions. It holds no
// filtering or authorization rules.
type SuggestionStore interface {
	Get(ctx context.Context, applicationID string) ([]models.Suggestion, error)
	Find(ctx context.Context, suggestionID string) (*models.Suggestion, error)
	Create(ctx context.Context, rec models.Suggestion) (*models.Suggestion, error)
	UpdateStatus(ctx context.Context, suggestionID string, status models.SuggestionStatus, responderID, note string) (*models.Suggestion, error)
}

type GormSuggestionStore struct{ db *gorm.DB }

var _ SuggestionStore = (*GormSuggestionStore)(nil)

// NewSuggestionStore binds a store to db, which may be a transaction.
func NewSuggestionStore(db *gorm.DB) *GormSuggestionStore {
	return &GormSuggestionStore{db: db}
}

// Get returns every suggestion of an application in creation order.
func (s *GormSuggestionStore) Get(ctx context.Context, applicationID string) ([]models.Suggestion, error) {
	var items []models.Suggestion
	if err := s.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load suggestions: %w", err)
	}
	return items, nil
}

func (s *GormSuggestionStore) Find(ctx context.Context, suggestionID string) (*models.Suggestion, error) {
	var item models.Suggestion
	err := s.db.WithContext(ctx).Where("suggestion_id = ?", suggestionID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("suggestion", suggestionID)
	}
	if err != nil {
		return nil, fmt.Errorf("load suggestion: %w", err)
	}
	return &item, nil
}

// Create assigns identity and timestamp and forces the pending status.
func (s *GormSuggestionStore) Create(ctx context.Context, rec models.Suggestion) (*models.Suggestion, error) {
	rec.ID = 0
	rec.SuggestionID = uuid.NewString()
	rec.Status = models.SuggestionPending
	rec.ResponderID = nil
	rec.ResponderNote = nil
	rec.ResolvedAt = nil
	rec.CreatedAt = time.Now()

	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("create suggestion: %w", err)
	}
	return &rec, nil
}

// UpdateStatus resolves a pending suggestion. The write is conditional on the
// row still being pending, so of two racing callers only one succeeds; the
// other gets ErrInvalidTransition.
func (s *GormSuggestionStore) UpdateStatus(ctx context.Context, suggestionID string, status models.SuggestionStatus, responderID, note string) (*models.Suggestion, error) {
	if !status.Terminal() {
		return nil, invalidTransitionError("suggestion cannot move to %q", status)
	}

	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.Suggestion{}).
		Where("suggestion_id = ? AND status = ?", suggestionID, models.SuggestionPending).
		Updates(map[string]interface{}{
			"status":         status,
			"responder_id":   optionalString(responderID),
			"responder_note": optionalString(note),
			"resolved_at":    now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("update suggestion status: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		current, err := s.Find(ctx, suggestionID)
		if err != nil {
			return nil, err
		}
		return nil, invalidTransitionError("suggestion %q is already %s", suggestionID, current.Status)
	}
	return s.Find(ctx, suggestionID)
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
