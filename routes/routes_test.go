package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ip-review-api/config"
	"ip-review-api/controllers"
	"ip-review-api/middleware"
	"ip-review-api/models"
	"ip-review-api/services"
)

const secret = "routes-test-secret"

type testServer struct {
	t          *testing.T
	router     *gin.Engine
	dispatcher *services.Dispatcher
	tokens     map[models.Role]string
	stranger   string // applicant token of a user owning nothing
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))

	catalog, err := config.LoadFieldCatalog("../config/fields.yaml")
	require.NoError(t, err)

	dispatcher := services.NewDispatcher(db, nil, nil, "")
	collab := services.Collaborators{Fields: catalog, Notifier: dispatcher}
	h := &controllers.Handler{
		Applications:  services.NewApplicationService(db, collab),
		Suggestions:   services.NewSuggestionService(db, collab),
		Reviews:       services.NewReviewService(db, collab),
		StatusUpdates: services.NewStatusUpdateService(db, collab),
		Notifications: services.NewNotificationService(db),
		Fields:        catalog,
	}

	router := gin.New()
	SetupRoutes(router, h, secret)

	s := &testServer{t: t, router: router, dispatcher: dispatcher, tokens: map[models.Role]string{}}
	for role, user := range map[models.Role]string{
		models.RoleApplicant:   "u-applicant",
		models.RoleMentor:      "u-mentor",
		models.RoleDRDReviewer: "u-drd",
		models.RoleDean:        "u-dean",
	} {
		token, err := middleware.SignToken(secret, user, user+"@example.org", role, time.Hour)
		require.NoError(t, err)
		s.tokens[role] = token
	}
	s.stranger, err = middleware.SignToken(secret, "u-stranger", "stranger@example.org", models.RoleApplicant, time.Hour)
	require.NoError(t, err)
	t.Cleanup(dispatcher.Wait)
	return s
}

func (s *testServer) do(role models.Role, method, path string, body any) (int, map[string]any) {
	s.t.Helper()
	token := ""
	if role != "" {
		token = s.tokens[role]
	}
	return s.doWithToken(token, method, path, body)
}

func (s *testServer) doWithToken(token, method, path string, body any) (int, map[string]any) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func field(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		cur = cur.(map[string]any)[k]
	}
	return cur
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do("", http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	code, _ = s.do("", http.MethodGet, "/fields", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestReviewRoundTripOverHTTP(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(models.RoleApplicant, http.MethodPost, "/applications", map[string]any{
		"title":           "Self-cleaning solar panel",
		"applicant_email": "applicant@example.org",
		"fields":          map[string]string{"title": "Old", "iprType": "patent"},
		"inventors":       []map[string]string{{"name": "Ada", "email": "ada@example.org"}},
	})
	require.Equal(t, http.StatusCreated, code, body)
	appID := field(body, "application", "application_id").(string)

	code, _ = s.do(models.RoleMentor, http.MethodPost, "/applications", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusForbidden, code)

	code, body = s.do(models.RoleApplicant, http.MethodPost, "/applications/"+appID+"/submit", nil)
	require.Equal(t, http.StatusOK, code, body)

	code, body = s.do(models.RoleMentor, http.MethodPost, "/applications/"+appID+"/suggestions", map[string]any{
		"field_name": "title", "original_value": "Old", "proposed_value": "New",
	})
	require.Equal(t, http.StatusCreated, code, body)
	suggestionID := field(body, "suggestion", "suggestion_id").(string)

	code, body = s.do(models.RoleMentor, http.MethodPost, "/applications/"+appID+"/suggestions", map[string]any{
		"field_name": "budget", "proposed_value": "1",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "unknown_field", body["rule"])

	code, body = s.do(models.RoleApplicant, http.MethodGet, "/applications/"+appID+"/suggestions/pending-count", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["pending"])

	code, body = s.do(models.RoleApplicant, http.MethodPost, "/suggestions/"+suggestionID+"/respond", map[string]any{"action": "accept"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "accepted", field(body, "suggestion", "status"))

	code, body = s.do(models.RoleApplicant, http.MethodPost, "/suggestions/"+suggestionID+"/respond", map[string]any{"action": "reject"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "already_resolved", body["code"])

	code, body = s.do(models.RoleDRDReviewer, http.MethodGet, "/applications/"+appID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "New", field(body, "application", "fields", "title"))

	code, body = s.do(models.RoleMentor, http.MethodPost, "/applications/"+appID+"/decisions", map[string]any{
		"stage": "mentor_review", "decision": "changes_required",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "comments_required", body["rule"])

	code, _ = s.do(models.RoleApplicant, http.MethodPost, "/applications/"+appID+"/decisions", map[string]any{
		"stage": "mentor_review", "decision": "approved",
	})
	assert.Equal(t, http.StatusForbidden, code)

	code, body = s.do(models.RoleDRDReviewer, http.MethodPost, "/applications/"+appID+"/decisions", map[string]any{
		"stage": "drd_review", "decision": "approved",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "invalid_transition", body["code"])

	for _, step := range []struct {
		role     models.Role
		stage    string
		decision string
		next     string
	}{
		{models.RoleMentor, "mentor_review", "approved", "drd_review"},
		{models.RoleDRDReviewer, "drd_review", "approved", "dean_review"},
		{models.RoleDean, "dean_review", "approve", "approved"},
	} {
		code, body = s.do(step.role, http.MethodPost, "/applications/"+appID+"/decisions", map[string]any{
			"stage": step.stage, "decision": step.decision,
		})
		require.Equal(t, http.StatusOK, code, body)
		assert.Equal(t, step.next, field(body, "application", "stage"))
	}

	code, body = s.do(models.RoleApplicant, http.MethodGet, "/applications/"+appID+"/history", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["items"], 4)

	s.dispatcher.Wait()
	code, body = s.do(models.RoleApplicant, http.MethodGet, "/notifications?unreadOnly=true", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["items"], 4, "one proposal and three approvals")

	code, body = s.do(models.RoleMentor, http.MethodGet, "/notifications", nil)
	require.Equal(t, http.StatusOK, code)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	id := items[0].(map[string]any)["notification_id"].(float64)

	code, _ = s.do(models.RoleMentor, http.MethodPost, fmt.Sprintf("/notifications/%d/read", int(id)), nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(models.RoleApplicant, http.MethodPost, fmt.Sprintf("/notifications/%d/read", int(id)), nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStatusUpdatesOverHTTP(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(models.RoleApplicant, http.MethodPost, "/applications", map[string]any{"title": "Sensor mesh"})
	require.Equal(t, http.StatusCreated, code, body)
	appID := field(body, "application", "application_id").(string)

	code, _ = s.do(models.RoleMentor, http.MethodPost, "/applications/"+appID+"/status-updates", map[string]any{"message": "x"})
	assert.Equal(t, http.StatusForbidden, code)

	var updateID string
	for _, msg := range []string{"first", "second"} {
		code, body = s.do(models.RoleDRDReviewer, http.MethodPost, "/applications/"+appID+"/status-updates", map[string]any{
			"message": msg, "kind": "milestone", "priority": "high",
		})
		require.Equal(t, http.StatusCreated, code, body)
		updateID = field(body, "status_update", "update_id").(string)
	}

	code, body = s.do(models.RoleApplicant, http.MethodGet, "/applications/"+appID+"/status-updates", nil)
	require.Equal(t, http.StatusOK, code)
	items := body["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "second", items[0].(map[string]any)["message"])

	code, body = s.do(models.RoleApplicant, http.MethodGet, "/applications/"+appID+"/status-updates?order=chronological", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "first", body["items"].([]any)[0].(map[string]any)["message"])

	code, _ = s.do(models.RoleApplicant, http.MethodGet, "/applications/"+appID+"/status-updates?order=random", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(models.RoleDRDReviewer, http.MethodDelete, "/status-updates/"+updateID, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(models.RoleDRDReviewer, http.MethodDelete, "/status-updates/"+updateID, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestOtherApplicantsCannotRead(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(models.RoleApplicant, http.MethodPost, "/applications", map[string]any{"title": "Sensor mesh"})
	require.Equal(t, http.StatusCreated, code, body)
	appID := field(body, "application", "application_id").(string)

	for _, path := range []string{
		"/applications/" + appID,
		"/applications/" + appID + "/suggestions",
		"/applications/" + appID + "/suggestions/pending-count",
		"/applications/" + appID + "/decisions",
		"/applications/" + appID + "/history",
		"/applications/" + appID + "/status-updates",
	} {
		code, body = s.doWithToken(s.stranger, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusForbidden, code, path)
		assert.Equal(t, "permission", body["code"], path)
		assert.Nil(t, body["application"], path)

		code, _ = s.do(models.RoleApplicant, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, code, path)
		code, _ = s.do(models.RoleDean, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, code, path)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(models.RoleApplicant, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Route not found", body["error"])
}
