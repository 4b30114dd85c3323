package services

import (
	"context"

	"ip-review-api/models"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   models.Role
}

// ReviewerRole is the capability record shared by every role, so mentor, DRD
// and dean go through the same code paths.
type ReviewerRole struct {
	Role           models.Role
	IsReviewer     bool
	CanSuggest     bool
	CanDecide      bool
	CanPostUpdates bool
	StageOwned     models.Stage
	Decisions      []models.Decision
}

var roleCapabilities = map[models.Role]ReviewerRole{
	models.RoleApplicant: {
		Role:       models.RoleApplicant,
		CanSuggest: true, // counter-suggestions
	},
	models.RoleMentor: {
		Role:       models.RoleMentor,
		IsReviewer: true,
		CanSuggest: true,
		CanDecide:  true,
		StageOwned: models.StageMentorReview,
		Decisions:  []models.Decision{models.DecisionApproved, models.DecisionChangesRequired},
	},
	models.RoleDRDReviewer: {
		Role:           models.RoleDRDReviewer,
		IsReviewer:     true,
		CanSuggest:     true,
		CanDecide:      true,
		CanPostUpdates: true,
		StageOwned:     models.StageDRDReview,
		Decisions:      []models.Decision{models.DecisionApproved, models.DecisionChangesRequired},
	},
	models.RoleDean: {
		Role:       models.RoleDean,
		IsReviewer: true,
		CanDecide:  true,
		StageOwned: models.StageDeanReview,
		Decisions:  []models.Decision{models.DecisionApprove, models.DecisionReject},
	},
}

// CapabilitiesOf returns the capability record of a role.
func CapabilitiesOf(role models.Role) (ReviewerRole, bool) {
	caps, ok := roleCapabilities[role]
	return caps, ok
}

// Allows reports whether decision is one this role may issue.
func (r ReviewerRole) Allows(decision models.Decision) bool {
	for _, d := range r.Decisions {
		if d == decision {
			return true
		}
	}
	return false
}

// Action names an operation that needs an authorization check.
type Action string

const (
	ActionSuggest    Action = "suggest"
	ActionRespond    Action = "respond"
	ActionDecide     Action = "decide"
	ActionSubmit     Action = "submit"
	ActionPostUpdate Action = "post_update"
	ActionView       Action = "view"
)

// Resource is what an action is checked against. Suggestion is only set for
// ActionRespond.
type Resource struct {
	Application *models.Application
	Suggestion  *models.Suggestion
}

// Authorizer answers "may this actor perform action on this application at
// its current stage". A nil error means yes.
type Authorizer interface {
	Authorize(ctx context.Context, actor Actor, action Action, res Resource) error
}

// RoleAuthorizer grants access from the role capability table and the
// application's stage. Per-application reviewer assignment is left to a
// richer implementation.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(_ context.Context, actor Actor, action Action, res Resource) error {
	caps, ok := CapabilitiesOf(actor.Role)
	if !ok {
		return permissionError("unknown role %q", actor.Role)
	}
	app := res.Application
	if app == nil {
		return permissionError("no application to authorize %s against", action)
	}
	isOwner := actor.Role == models.RoleApplicant && actor.UserID != "" && actor.UserID == app.OwnerID

	switch action {
	case ActionSuggest:
		if !caps.CanSuggest {
			return permissionError("role %s cannot propose suggestions", actor.Role)
		}
		if caps.IsReviewer {
			if app.Stage != caps.StageOwned {
				return permissionError("role %s cannot suggest while the application is in %s", actor.Role, app.Stage)
			}
			return nil
		}
		if !isOwner {
			return permissionError("only the owning applicant may counter-suggest")
		}
		if !app.Stage.InReview() {
			return permissionError("counter-suggestions are only accepted during review")
		}
		return nil

	case ActionRespond:
		sg := res.Suggestion
		if sg == nil {
			return permissionError("no suggestion to resolve")
		}
		// Applicants resolve reviewer suggestions, reviewers resolve
		// applicant counter-suggestions.
		if (actor.Role == models.RoleApplicant) == (sg.AuthorRole == models.RoleApplicant) {
			return permissionError("suggestions authored by %s cannot be resolved by %s", sg.AuthorRole, actor.Role)
		}
		if caps.IsReviewer {
			if caps.StageOwned != app.Stage {
				return permissionError("role %s cannot resolve suggestions while the application is in %s", actor.Role, app.Stage)
			}
			return nil
		}
		if !isOwner {
			return permissionError("only the owning applicant may resolve reviewer suggestions")
		}
		return nil

	case ActionView:
		if caps.IsReviewer || isOwner {
			return nil
		}
		return permissionError("role %s cannot read this application", actor.Role)

	case ActionDecide:
		if !caps.CanDecide {
			return permissionError("role %s cannot issue review decisions", actor.Role)
		}
		if caps.StageOwned != app.Stage {
			return permissionError("role %s does not own stage %s", actor.Role, app.Stage)
		}
		return nil

	case ActionSubmit:
		if !isOwner {
			return permissionError("only the owning applicant may submit")
		}
		return nil

	case ActionPostUpdate:
		if !caps.CanPostUpdates {
			return permissionError("role %s cannot post status updates", actor.Role)
		}
		return nil
	}
	return permissionError("unknown action %q", action)
}
