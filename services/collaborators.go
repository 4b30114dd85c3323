package services

import (
	"context"

	"gorm.io/gorm"

	"ip-review-api/models"
)

// FieldRegistry tells whether a field name exists on the application form.
// config.FieldCatalog satisfies it.
type FieldRegistry interface {
	Known(name string) bool
}

// ValueReplacer computes the new baseline of a field when a suggestion is
// accepted. A token level differ can replace WholeValueReplacer without
// touching the suggestion lifecycle.
type ValueReplacer interface {
	Apply(current string, s models.Suggestion) (string, error)
}

// WholeValueReplacer treats every suggestion as an atomic replace.
type WholeValueReplacer struct{}

func (WholeValueReplacer) Apply(_ string, s models.Suggestion) (string, error) {
	return s.ProposedValue, nil
}

// NotificationRequest asks for a message to be delivered. The notify flags are
// delivery hints; UserIDs address account holders directly.
type NotificationRequest struct {
	ApplicationID   string
	EventKey        string
	Data            map[string]string
	NotifyApplicant bool
	NotifyInventors bool
	UserIDs         []string
}

// Notifier delivers notifications fire-and-forget. Implementations must not
// block the caller on delivery and must swallow (log) delivery failures.
type Notifier interface {
	Notify(ctx context.Context, req NotificationRequest)
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, NotificationRequest) {}

type anyField struct{}

func (anyField) Known(string) bool { return true }

// Stores build the persistence adapters for a connection or a transaction.
type Stores struct {
	Suggestions  func(db *gorm.DB) SuggestionStore
	Applications func(db *gorm.DB) ApplicationStore
}

// Collaborators are the outbound dependencies shared by the engine services.
// Zero values are replaced by permissive defaults.
type Collaborators struct {
	Authorizer Authorizer
	Fields     FieldRegistry
	Replacer   ValueReplacer
	Notifier   Notifier
	Stores     Stores
}

func (c Collaborators) withDefaults() Collaborators {
	if c.Authorizer == nil {
		c.Authorizer = RoleAuthorizer{}
	}
	if c.Fields == nil {
		c.Fields = anyField{}
	}
	if c.Replacer == nil {
		c.Replacer = WholeValueReplacer{}
	}
	if c.Notifier == nil {
		c.Notifier = noopNotifier{}
	}
	if c.Stores.Suggestions == nil {
		c.Stores.Suggestions = func(db *gorm.DB) SuggestionStore { return NewSuggestionStore(db) }
	}
	if c.Stores.Applications == nil {
		c.Stores.Applications = func(db *gorm.DB) ApplicationStore { return NewApplicationStore(db) }
	}
	return c
}
