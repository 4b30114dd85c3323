package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ip-review-api/config"
	"ip-review-api/models"
)

type StatusUpdateInput struct {
	ApplicationID   string
	Kind            models.UpdateKind
	Priority        models.UpdatePriority
	Message         string
	NotifyApplicant bool
	NotifyInventors bool
}

// StatusUpdateService keeps the append-only timeline of an application. It
// never touches fields or stage.
type StatusUpdateService struct {
	db *gorm.DB
	c  Collaborators
}

func NewStatusUpdateService(db *gorm.DB, c Collaborators) *StatusUpdateService {
	if db == nil {
		db = config.DB
	}
	return &StatusUpdateService{db: db, c: c.withDefaults()}
}

func (s *StatusUpdateService) Add(ctx context.Context, actor Actor, in StatusUpdateInput) (*models.StatusUpdate, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, validationError("message_required", "message must not be blank")
	}
	kind := in.Kind
	if kind == "" {
		kind = models.UpdateKindGeneral
	}
	if !kind.Valid() {
		return nil, validationError("invalid_kind", "unknown update kind %q", kind)
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, validationError("invalid_priority", "unknown priority %q", priority)
	}

	app, err := s.c.Stores.Applications(s.db).Get(ctx, in.ApplicationID)
	if err != nil {
		return nil, err
	}
	if err := s.c.Authorizer.Authorize(ctx, actor, ActionPostUpdate, Resource{Application: app}); err != nil {
		return nil, err
	}

	update := &models.StatusUpdate{
		UpdateID:        uuid.NewString(),
		ApplicationID:   app.ApplicationID,
		AuthorID:        actor.UserID,
		AuthorRole:      actor.Role,
		Kind:            kind,
		Priority:        priority,
		Message:         message,
		NotifyApplicant: in.NotifyApplicant,
		NotifyInventors: in.NotifyInventors,
		CreatedAt:       time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(update).Error; err != nil {
		return nil, fmt.Errorf("create status update: %w", err)
	}

	if update.NotifyApplicant || update.NotifyInventors {
		s.c.Notifier.Notify(ctx, NotificationRequest{
			ApplicationID:   app.ApplicationID,
			EventKey:        EventStatusUpdate,
			NotifyApplicant: update.NotifyApplicant,
			NotifyInventors: update.NotifyInventors,
			Data: map[string]string{
				"application_title": app.Title,
				"kind":              string(update.Kind),
				"priority":          string(update.Priority),
				"message":           update.Message,
			},
		})
	}
	return update, nil
}

// Delete hard-deletes an entry. Only the authoring role class may do so.
func (s *StatusUpdateService) Delete(ctx context.Context, actor Actor, updateID string) error {
	caps, ok := CapabilitiesOf(actor.Role)
	if !ok || !caps.CanPostUpdates {
		return permissionError("role %s cannot delete status updates", actor.Role)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var update models.StatusUpdate
		err := tx.Where("update_id = ?", updateID).First(&update).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("status update", updateID)
		}
		if err != nil {
			return fmt.Errorf("load status update: %w", err)
		}
		if update.AuthorRole != actor.Role {
			return permissionError("status update was authored by %s", update.AuthorRole)
		}
		if err := tx.Delete(&models.StatusUpdate{}, update.ID).Error; err != nil {
			return fmt.Errorf("delete status update: %w", err)
		}
		return nil
	})
}

// ListNewestFirst is the full timeline view.
func (s *StatusUpdateService) ListNewestFirst(ctx context.Context, actor Actor, applicationID string) ([]models.StatusUpdate, error) {
	return s.list(ctx, actor, applicationID, "id DESC")
}

// ListChronological is the compact, oldest-first rendering order.
func (s *StatusUpdateService) ListChronological(ctx context.Context, actor Actor, applicationID string) ([]models.StatusUpdate, error) {
	return s.list(ctx, actor, applicationID, "id ASC")
}

func (s *StatusUpdateService) list(ctx context.Context, actor Actor, applicationID, order string) ([]models.StatusUpdate, error) {
	app, err := s.c.Stores.Applications(s.db).Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := s.c.Authorizer.Authorize(ctx, actor, ActionView, Resource{Application: app}); err != nil {
		return nil, err
	}
	var items []models.StatusUpdate
	if err := s.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order(order).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load status updates: %w", err)
	}
	return items, nil
}
