package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"ip-review-api/config"
	"ip-review-api/models"
)

var pipelineLog = config.Logger("pipeline")

// nextStage is the forward edge taken on approval.
var nextStage = map[models.Stage]models.Stage{
	models.StageDraft:        models.StageMentorReview,
	models.StageMentorReview: models.StageDRDReview,
	models.StageDRDReview:    models.StageDeanReview,
	models.StageDeanReview:   models.StageApproved,
}

type DecisionInput struct {
	ApplicationID string
	Stage         models.Stage
	Decision      models.Decision
	Comments      string
}

// ReviewService drives an application through mentor, DRD and dean review.
type ReviewService struct {
	db *gorm.DB
	c  Collaborators
}

func NewReviewService(db *gorm.DB, c Collaborators) *ReviewService {
	if db == nil {
		db = config.DB
	}
	return &ReviewService{db: db, c: c.withDefaults()}
}

// Submit hands a draft to mentor review.
func (s *ReviewService) Submit(ctx context.Context, actor Actor, applicationID string) (*models.Application, error) {
	var app *models.Application
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		apps := s.c.Stores.Applications(tx)
		var err error
		if app, err = apps.Get(ctx, applicationID); err != nil {
			return err
		}
		if app.Stage != models.StageDraft {
			return invalidTransitionError("application is in %s, only drafts can be submitted", app.Stage)
		}
		if err := s.c.Authorizer.Authorize(ctx, actor, ActionSubmit, Resource{Application: app}); err != nil {
			return err
		}
		now := time.Now()
		return apps.Transition(ctx, app, StageChange{
			NewStage:    models.StageMentorReview,
			ChangedBy:   actor.UserID,
			Note:        "submitted",
			SubmittedAt: &now,
		})
	})
	if err != nil {
		return nil, err
	}
	pipelineLog.Printf("application=%s submitted by %s", app.ApplicationID, actor.UserID)
	return app, nil
}

// Resubmit returns an application with requested changes to the reviewer of
// the stage it is still in.
func (s *ReviewService) Resubmit(ctx context.Context, actor Actor, applicationID string) (*models.Application, error) {
	var app *models.Application
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		apps := s.c.Stores.Applications(tx)
		var err error
		if app, err = apps.Get(ctx, applicationID); err != nil {
			return err
		}
		if !app.ChangesRequired {
			return invalidTransitionError("application is not waiting for changes")
		}
		if err := s.c.Authorizer.Authorize(ctx, actor, ActionSubmit, Resource{Application: app}); err != nil {
			return err
		}
		return apps.Transition(ctx, app, StageChange{
			NewStage:  app.Stage,
			ChangedBy: actor.UserID,
			Note:      "resubmitted",
		})
	})
	if err != nil {
		return nil, err
	}
	pipelineLog.Printf("application=%s resubmitted into %s by %s", app.ApplicationID, app.Stage, actor.UserID)
	return app, nil
}

// SubmitDecision applies a reviewing role's decision for the stage it owns.
func (s *ReviewService) SubmitDecision(ctx context.Context, actor Actor, in DecisionInput) (*models.Application, *models.ReviewDecision, error) {
	decision := models.Decision(strings.ToLower(strings.TrimSpace(string(in.Decision))))
	comments := strings.TrimSpace(in.Comments)

	var app *models.Application
	var record *models.ReviewDecision
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		apps := s.c.Stores.Applications(tx)
		var err error
		if app, err = apps.Get(ctx, in.ApplicationID); err != nil {
			return err
		}
		if app.Stage.Terminal() {
			return invalidTransitionError("application is already %s", app.Stage)
		}
		if in.Stage != app.Stage {
			return invalidTransitionError("application is in %s, not %s", app.Stage, in.Stage)
		}
		if err := s.c.Authorizer.Authorize(ctx, actor, ActionDecide, Resource{Application: app}); err != nil {
			return err
		}
		caps, _ := CapabilitiesOf(actor.Role)
		if !caps.Allows(decision) {
			return validationError("invalid_decision", "decision %q is not valid at %s", decision, app.Stage)
		}
		if app.ChangesRequired {
			return invalidTransitionError("application is waiting for the applicant to resubmit")
		}

		change := StageChange{
			ChangedBy: actor.UserID,
			Reason:    comments,
			Note:      fmt.Sprintf("%s_decision:%s", actor.Role, decision),
		}
		switch decision {
		case models.DecisionApproved, models.DecisionApprove:
			change.NewStage = nextStage[app.Stage]
		case models.DecisionReject:
			change.NewStage = models.StageRejected
		case models.DecisionChangesRequired:
			if comments == "" {
				suggestions, err := s.c.Stores.Suggestions(tx).Get(ctx, app.ApplicationID)
				if err != nil {
					return err
				}
				if countPending(suggestions, PendingAll) == 0 {
					return validationError("comments_required",
						"comments are required when no suggestion is pending for the application")
				}
			}
			change.NewStage = app.Stage
			change.ChangesRequired = true
		}

		var rounds int64
		if err := tx.Model(&models.ReviewDecision{}).
			Where("application_id = ?", app.ApplicationID).
			Count(&rounds).Error; err != nil {
			return fmt.Errorf("count review rounds: %w", err)
		}

		decidedAt := app.Stage
		if err := apps.Transition(ctx, app, change); err != nil {
			return err
		}

		record = &models.ReviewDecision{
			ApplicationID: app.ApplicationID,
			Stage:         decidedAt,
			ReviewerID:    actor.UserID,
			ReviewerRole:  actor.Role,
			Decision:      decision,
			Comments:      optionalString(comments),
			ReviewRound:   int(rounds) + 1,
			CreatedAt:     time.Now(),
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("save review decision: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	pipelineLog.Printf("application=%s %s at %s by %s/%s -> %s (changes_required=%t)",
		app.ApplicationID, decision, record.Stage, actor.Role, actor.UserID, app.Stage, app.ChangesRequired)

	s.c.Notifier.Notify(ctx, NotificationRequest{
		ApplicationID:   app.ApplicationID,
		EventKey:        DecisionEventKey(decision),
		NotifyApplicant: true,
		Data: map[string]string{
			"application_title": app.Title,
			"stage":             string(record.Stage),
			"new_stage":         string(app.Stage),
			"reviewer_role":     string(actor.Role),
			"comments":          valueOr(record.Comments, "-"),
		},
	})
	return app, record, nil
}

// ListDecisions returns the decision history of an application, oldest first.
func (s *ReviewService) ListDecisions(ctx context.Context, actor Actor, applicationID string) ([]models.ReviewDecision, error) {
	if err := s.authorizeView(ctx, actor, applicationID); err != nil {
		return nil, err
	}
	var items []models.ReviewDecision
	if err := s.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("decision_id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load review decisions: %w", err)
	}
	return items, nil
}

// History returns the stage transitions of an application, oldest first.
func (s *ReviewService) History(ctx context.Context, actor Actor, applicationID string) ([]models.StageHistory, error) {
	if err := s.authorizeView(ctx, actor, applicationID); err != nil {
		return nil, err
	}
	var items []models.StageHistory
	if err := s.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Order("history_id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load stage history: %w", err)
	}
	return items, nil
}

func (s *ReviewService) authorizeView(ctx context.Context, actor Actor, applicationID string) error {
	app, err := s.c.Stores.Applications(s.db).Get(ctx, applicationID)
	if err != nil {
		return err
	}
	return s.c.Authorizer.Authorize(ctx, actor, ActionView, Resource{Application: app})
}
