package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ip-review-api/models"
)

func TestCreateApplicationDraft(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewApplicationService(db, Collaborators{Fields: knownFields{"abstract": true, "priorArt": true}})

	app, err := svc.Create(ctx, applicant, CreateApplicationInput{
		Title:          "  Low-power sensor mesh ",
		ApplicantEmail: "applicant@example.org",
		Fields:         map[string]string{"abstract": "A mesh of sensors", "priorArt": ""},
		Inventors:      []InventorInput{{Name: "Ada", Email: "ada@example.org"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, app.ApplicationID)
	assert.Equal(t, models.StageDraft, app.Stage)
	assert.Equal(t, "Low-power sensor mesh", app.Title)

	got, err := svc.Get(ctx, applicant, app.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"abstract": "A mesh of sensors", "priorArt": ""}, got.FieldValues)
	require.Len(t, got.Inventors, 1)
	assert.Equal(t, "ada@example.org", got.Inventors[0].Email)
	assert.Equal(t, applicant.UserID, got.OwnerID)
}

func TestCreateApplicationValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewApplicationService(newTestDB(t), Collaborators{Fields: knownFields{"abstract": true}})

	_, err := svc.Create(ctx, mentor, CreateApplicationInput{Title: "x"})
	assert.True(t, errors.Is(err, ErrPermission))

	cases := []struct {
		name string
		in   CreateApplicationInput
		rule string
	}{
		{"no title", CreateApplicationInput{Title: "  "}, "title_required"},
		{"unknown field", CreateApplicationInput{Title: "x", Fields: map[string]string{"budget": "1"}}, "unknown_field"},
		{"nameless inventor", CreateApplicationInput{Title: "x", Inventors: []InventorInput{{Email: "a@b.c"}}}, "inventor_name_required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, applicant, tc.in)
			var domainErr *Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, tc.rule, domainErr.Rule)
		})
	}

	_, err = svc.Get(ctx, applicant, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestWriteFieldUpserts(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	app := seedApplication(t, db, models.StageDraft, map[string]string{"title": "A"})
	store := NewApplicationStore(db)

	require.NoError(t, store.WriteField(ctx, app.ApplicationID, "title", "B"))
	require.NoError(t, store.WriteField(ctx, app.ApplicationID, "abstract", "C"))

	got := reloadApplication(t, db, app.ApplicationID)
	assert.Equal(t, map[string]string{"title": "B", "abstract": "C"}, got.FieldValues)
}

func TestTransitionRejectsStaleStage(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	app := seedApplication(t, db, models.StageMentorReview, nil)
	store := NewApplicationStore(db)

	stale := *app
	require.NoError(t, store.Transition(ctx, app, StageChange{NewStage: models.StageDRDReview, ChangedBy: mentor.UserID}))
	assert.Equal(t, models.StageDRDReview, app.Stage)

	err := store.Transition(ctx, &stale, StageChange{NewStage: models.StageMentorReview, ChangesRequired: true, ChangedBy: mentor.UserID})
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, models.StageDRDReview, reloadApplication(t, db, app.ApplicationID).Stage)
}

func TestReadsRequireOwnerOrReviewer(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	app := seedApplication(t, db, models.StageMentorReview, map[string]string{"title": "Old"})

	apps := NewApplicationService(db, Collaborators{})
	suggestions := NewSuggestionService(db, Collaborators{})
	reviews := NewReviewService(db, Collaborators{})
	updates := NewStatusUpdateService(db, Collaborators{})

	reads := map[string]func(Actor) error{
		"application": func(a Actor) error { _, err := apps.Get(ctx, a, app.ApplicationID); return err },
		"suggestions": func(a Actor) error {
			_, err := suggestions.ListForField(ctx, a, app.ApplicationID, "title", "")
			return err
		},
		"pending":   func(a Actor) error { _, err := suggestions.PendingCount(ctx, a, app.ApplicationID, PendingAll); return err },
		"decisions": func(a Actor) error { _, err := reviews.ListDecisions(ctx, a, app.ApplicationID); return err },
		"history":   func(a Actor) error { _, err := reviews.History(ctx, a, app.ApplicationID); return err },
		"updates":   func(a Actor) error { _, err := updates.ListChronological(ctx, a, app.ApplicationID); return err },
	}

	stranger := Actor{UserID: "u-stranger", Role: models.RoleApplicant}
	for name, read := range reads {
		t.Run(name, func(t *testing.T) {
			for _, actor := range []Actor{applicant, mentor, drd, dean} {
				assert.NoError(t, read(actor), actor.Role)
			}
			assert.True(t, errors.Is(read(stranger), ErrPermission))
		})
	}
}
