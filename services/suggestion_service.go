package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"ip-review-api/config"
	"ip-review-api/models"
)

var suggestionLog = config.Logger("suggestion")

// ResponseAction is the applicant's (or reviewer's) verdict on a suggestion.
type ResponseAction string

const (
	ResponseAccept ResponseAction = "accept"
	ResponseReject ResponseAction = "reject"
)

// PendingScope narrows PendingCount by who authored the suggestion.
type PendingScope string

const (
	PendingAll       PendingScope = "all"
	PendingReviewers PendingScope = "reviewers" // awaiting the applicant
	PendingApplicant PendingScope = "applicant" // applicant counter-suggestions
)

func (s PendingScope) Valid() bool {
	switch s {
	case PendingAll, PendingReviewers, PendingApplicant:
		return true
	}
	return false
}

type ProposeInput struct {
	ApplicationID string
	FieldName     string
	FieldPath     string
	OriginalValue string
	ProposedValue string
	Note          string
}

// SuggestionService owns the suggestion lifecycle: proposing, resolving and
// applying accepted values to the application's fields.
type SuggestionService struct {
	db *gorm.DB
	c  Collaborators
}

func NewSuggestionService(db *gorm.DB, c Collaborators) *SuggestionService {
	if db == nil {
		db = config.DB
	}
	return &SuggestionService{db: db, c: c.withDefaults()}
}

// Propose records a pending suggestion. It never changes the field itself.
func (s *SuggestionService) Propose(ctx context.Context, actor Actor, in ProposeInput) (*models.Suggestion, error) {
	fieldName := strings.TrimSpace(in.FieldName)
	if fieldName == "" {
		return nil, validationError("field_name_required", "field name is required")
	}
	if strings.TrimSpace(in.ProposedValue) == "" {
		return nil, validationError("proposed_value_required", "proposed value must not be blank")
	}
	if !s.c.Fields.Known(fieldName) {
		return nil, validationError("unknown_field", "field %q is not part of the application form", fieldName)
	}

	var created *models.Suggestion
	var app *models.Application
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		app, err = s.c.Stores.Applications(tx).Get(ctx, in.ApplicationID)
		if err != nil {
			return err
		}
		if app.Stage.Terminal() {
			return invalidTransitionError("application is %s and no longer accepts suggestions", app.Stage)
		}
		if err := s.c.Authorizer.Authorize(ctx, actor, ActionSuggest, Resource{Application: app}); err != nil {
			return err
		}

		created, err = s.c.Stores.Suggestions(tx).Create(ctx, models.Suggestion{
			ApplicationID: app.ApplicationID,
			FieldName:     fieldName,
			FieldPath:     optionalString(in.FieldPath),
			AuthorID:      actor.UserID,
			AuthorRole:    actor.Role,
			OriginalValue: in.OriginalValue,
			ProposedValue: in.ProposedValue,
			Note:          optionalString(in.Note),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	suggestionLog.Printf("proposed %s on application=%s field=%s by %s/%s",
		created.SuggestionID, created.ApplicationID, created.TargetKey(), actor.Role, actor.UserID)

	if actor.Role != models.RoleApplicant {
		s.c.Notifier.Notify(ctx, NotificationRequest{
			ApplicationID:   app.ApplicationID,
			EventKey:        EventSuggestionProposed,
			NotifyApplicant: true,
			Data: map[string]string{
				"application_title": app.Title,
				"field":             created.TargetKey(),
				"author_role":       string(actor.Role),
			},
		})
	}
	return created, nil
}

// Respond resolves a pending suggestion. Accepting writes the proposed value
// into the application in the same transaction; the most recently accepted
// suggestion for a field therefore wins.
func (s *SuggestionService) Respond(ctx context.Context, actor Actor, suggestionID string, action ResponseAction, note string) (*models.Suggestion, error) {
	var target models.SuggestionStatus
	switch action {
	case ResponseAccept:
		target = models.SuggestionAccepted
	case ResponseReject:
		target = models.SuggestionRejected
	default:
		return nil, validationError("invalid_action", "action must be %q or %q", ResponseAccept, ResponseReject)
	}

	var resolved *models.Suggestion
	var app *models.Application
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := s.c.Stores.Suggestions(tx)
		apps := s.c.Stores.Applications(tx)

		current, err := store.Find(ctx, suggestionID)
		if err != nil {
			return err
		}
		if current.Status.Terminal() {
			return alreadyResolvedError(suggestionID, string(current.Status))
		}

		app, err = apps.Get(ctx, current.ApplicationID)
		if err != nil {
			return err
		}
		if app.Stage.Terminal() {
			return invalidTransitionError("application is %s and its fields can no longer change", app.Stage)
		}
		if err := s.c.Authorizer.Authorize(ctx, actor, ActionRespond, Resource{Application: app, Suggestion: current}); err != nil {
			return err
		}

		resolved, err = store.UpdateStatus(ctx, suggestionID, target, actor.UserID, note)
		if err != nil {
			if code, ok := CodeOf(err); ok && code == CodeInvalidTransition {
				return alreadyResolvedError(suggestionID, "resolved")
			}
			return err
		}

		if target != models.SuggestionAccepted {
			return nil
		}

		key := resolved.TargetKey()
		baseline := app.FieldValues[key]
		if baseline != resolved.OriginalValue {
			suggestionLog.Printf("accepting stale suggestion %s: field %s changed since it was proposed", resolved.SuggestionID, key)
		}
		value, err := s.c.Replacer.Apply(baseline, *resolved)
		if err != nil {
			return err
		}
		if err := apps.WriteField(ctx, app.ApplicationID, key, value); err != nil {
			return err
		}
		app.FieldValues[key] = value
		return nil
	})
	if err != nil {
		return nil, err
	}

	suggestionLog.Printf("%s %s on application=%s by %s/%s",
		resolved.Status, resolved.SuggestionID, resolved.ApplicationID, actor.Role, actor.UserID)

	event := EventSuggestionAccepted
	if resolved.Status == models.SuggestionRejected {
		event = EventSuggestionRejected
	}
	req := NotificationRequest{
		ApplicationID: resolved.ApplicationID,
		EventKey:      event,
		Data: map[string]string{
			"application_title": app.Title,
			"field":             resolved.TargetKey(),
			"note":              valueOr(resolved.ResponderNote, "-"),
		},
	}
	if resolved.AuthorRole == models.RoleApplicant {
		req.NotifyApplicant = true
	} else if resolved.AuthorID != "" {
		req.UserIDs = []string{resolved.AuthorID}
	}
	s.c.Notifier.Notify(ctx, req)

	return resolved, nil
}

// ListForApplication returns every suggestion of the application in creation order.
func (s *SuggestionService) ListForApplication(ctx context.Context, actor Actor, applicationID string) ([]models.Suggestion, error) {
	app, err := s.c.Stores.Applications(s.db).Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := s.c.Authorizer.Authorize(ctx, actor, ActionView, Resource{Application: app}); err != nil {
		return nil, err
	}
	return s.c.Stores.Suggestions(s.db).Get(ctx, applicationID)
}

// ListForField returns the history of one field, any status, in creation
// order. A non-empty fieldPath matches the structured path instead of the
// field name.
func (s *SuggestionService) ListForField(ctx context.Context, actor Actor, applicationID, fieldName, fieldPath string) ([]models.Suggestion, error) {
	all, err := s.ListForApplication(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}

	fieldName = strings.TrimSpace(fieldName)
	fieldPath = strings.TrimSpace(fieldPath)
	if fieldName == "" && fieldPath == "" {
		return all, nil
	}

	out := make([]models.Suggestion, 0, len(all))
	for _, sg := range all {
		if fieldPath != "" {
			if sg.FieldPath != nil && *sg.FieldPath == fieldPath {
				out = append(out, sg)
			}
			continue
		}
		if sg.FieldName == fieldName {
			out = append(out, sg)
		}
	}
	return out, nil
}

// PendingCount counts pending suggestions of an application.
func (s *SuggestionService) PendingCount(ctx context.Context, actor Actor, applicationID string, scope PendingScope) (int, error) {
	if scope == "" {
		scope = PendingAll
	}
	if !scope.Valid() {
		return 0, validationError("invalid_scope", "unknown pending scope %q", scope)
	}
	all, err := s.ListForApplication(ctx, actor, applicationID)
	if err != nil {
		return 0, err
	}
	return countPending(all, scope), nil
}

func countPending(items []models.Suggestion, scope PendingScope) int {
	n := 0
	for _, sg := range items {
		if sg.Status != models.SuggestionPending {
			continue
		}
		byApplicant := sg.AuthorRole == models.RoleApplicant
		switch {
		case scope == PendingReviewers && byApplicant:
			continue
		case scope == PendingApplicant && !byApplicant:
			continue
		}
		n++
	}
	return n
}

func valueOr(v *string, fallback string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return fallback
	}
	return *v
}
