package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ip-review-api/models"
)

func TestUpdateStatusOnlyFromPending(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	app := seedApplication(t, db, models.StageMentorReview, nil)
	store := NewSuggestionStore(db)

	sg, err := store.Create(ctx, models.Suggestion{
		ApplicationID: app.ApplicationID,
		FieldName:     "title",
		AuthorID:      mentor.UserID,
		AuthorRole:    models.RoleMentor,
		ProposedValue: "New",
		Status:        models.SuggestionAccepted,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionPending, sg.Status, "create always starts pending")

	resolved, err := store.UpdateStatus(ctx, sg.SuggestionID, models.SuggestionRejected, applicant.UserID, "no")
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionRejected, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	// a second writer that read the row while it was still pending loses
	_, err = store.UpdateStatus(ctx, sg.SuggestionID, models.SuggestionAccepted, applicant.UserID, "")
	var domainErr *Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, CodeInvalidTransition, domainErr.Code)

	current, err := store.Find(ctx, sg.SuggestionID)
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionRejected, current.Status)
	require.NotNil(t, current.ResponderNote)
	assert.Equal(t, "no", *current.ResponderNote)

	_, err = store.UpdateStatus(ctx, sg.SuggestionID, models.SuggestionPending, applicant.UserID, "")
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	_, err = store.UpdateStatus(ctx, "missing", models.SuggestionAccepted, applicant.UserID, "")
	assert.True(t, errors.Is(err, ErrNotFound))
}

// failingWrites wraps the gorm store and refuses field writes.
type failingWrites struct {
	ApplicationStore
}

func (failingWrites) WriteField(context.Context, string, string, string) error {
	return errors.New("disk full")
}

func TestAcceptRollsBackWhenFieldWriteFails(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	app := seedApplication(t, db, models.StageMentorReview, map[string]string{"title": "Old"})
	svc := NewSuggestionService(db, Collaborators{Stores: Stores{
		Applications: func(db *gorm.DB) ApplicationStore { return failingWrites{NewApplicationStore(db)} },
	}})

	sg := propose(t, svc, mentor, app.ApplicationID, "title", "Old", "New")
	_, err := svc.Respond(ctx, applicant, sg.SuggestionID, ResponseAccept, "")
	require.Error(t, err)

	current, err := NewSuggestionStore(db).Find(ctx, sg.SuggestionID)
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionPending, current.Status)
	assert.Equal(t, "Old", reloadApplication(t, db, app.ApplicationID).FieldValues["title"])
}
