package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"ip-review-api/config"
	"ip-review-api/models"
)

type InventorInput struct {
	Name  string
	Email string
}

type CreateApplicationInput struct {
	Title          string
	ApplicantEmail string
	Fields         map[string]string
	Inventors      []InventorInput
}

// ApplicationService creates drafts and reads applications. Field values and
// stages are only changed by SuggestionService and ReviewService.
type ApplicationService struct {
	db *gorm.DB
	c  Collaborators
}

func NewApplicationService(db *gorm.DB, c Collaborators) *ApplicationService {
	if db == nil {
		db = config.DB
	}
	return &ApplicationService{db: db, c: c.withDefaults()}
}

// Create stores a draft owned by the calling applicant.
func (s *ApplicationService) Create(ctx context.Context, actor Actor, in CreateApplicationInput) (*models.Application, error) {
	if actor.Role != models.RoleApplicant || actor.UserID == "" {
		return nil, permissionError("only applicants can create applications")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationError("title_required", "title is required")
	}

	fields := make(map[string]string, len(in.Fields))
	for name, value := range in.Fields {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !s.c.Fields.Known(name) {
			return nil, validationError("unknown_field", "field %q is not part of the application form", name)
		}
		fields[name] = value
	}

	app := &models.Application{
		OwnerID:        actor.UserID,
		ApplicantEmail: strings.TrimSpace(in.ApplicantEmail),
		Title:          title,
		Stage:          models.StageDraft,
		FieldValues:    fields,
	}
	for _, inv := range in.Inventors {
		name := strings.TrimSpace(inv.Name)
		if name == "" {
			return nil, validationError("inventor_name_required", "every inventor needs a name")
		}
		app.Inventors = append(app.Inventors, models.ApplicationInventor{
			Name:  name,
			Email: strings.TrimSpace(inv.Email),
		})
	}

	if err := s.c.Stores.Applications(s.db).Create(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// Get returns the application when the actor may read it.
func (s *ApplicationService) Get(ctx context.Context, actor Actor, applicationID string) (*models.Application, error) {
	app, err := s.c.Stores.Applications(s.db).Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := s.c.Authorizer.Authorize(ctx, actor, ActionView, Resource{Application: app}); err != nil {
		return nil, err
	}
	return app, nil
}
