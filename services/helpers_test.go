package services

import (
	"context"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ip-review-api/models"
)

var (
	applicant = Actor{UserID: "u-applicant", Role: models.RoleApplicant}
	mentor    = Actor{UserID: "u-mentor", Role: models.RoleMentor}
	mentor2   = Actor{UserID: "u-mentor-2", Role: models.RoleMentor}
	drd       = Actor{UserID: "u-drd", Role: models.RoleDRDReviewer}
	dean      = Actor{UserID: "u-dean", Role: models.RoleDean}
)

// newTestDB opens a private in-memory database. One connection keeps the
// memory database alive and serializes transactions the way a row lock would.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

// seedApplication stores an application owned by the test applicant at the
// given stage.
func seedApplication(t *testing.T, db *gorm.DB, stage models.Stage, fields map[string]string) *models.Application {
	t.Helper()

	app := &models.Application{
		OwnerID:        applicant.UserID,
		ApplicantEmail: "applicant@example.org",
		Title:          "Self-cleaning solar panel",
		Stage:          stage,
		FieldValues:    fields,
		Inventors: []models.ApplicationInventor{
			{Name: "Ada", Email: "ada@example.org"},
			{Name: "Grace", Email: "grace@example.org"},
		},
	}
	require.NoError(t, NewApplicationStore(db).Create(context.Background(), app))
	return app
}

func reloadApplication(t *testing.T, db *gorm.DB, id string) *models.Application {
	t.Helper()
	app, err := NewApplicationStore(db).Get(context.Background(), id)
	require.NoError(t, err)
	return app
}

// recordingNotifier captures requests instead of delivering them.
type recordingNotifier struct {
	mu       sync.Mutex
	requests []NotificationRequest
}

func (r *recordingNotifier) Notify(_ context.Context, req NotificationRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
}

func (r *recordingNotifier) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.requests))
	for _, req := range r.requests {
		out = append(out, req.EventKey)
	}
	return out
}

func (r *recordingNotifier) last() NotificationRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[len(r.requests)-1]
}

type knownFields map[string]bool

func (k knownFields) Known(name string) bool { return k[name] }
