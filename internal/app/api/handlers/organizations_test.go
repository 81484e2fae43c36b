package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	orgsvc "github.com/nestfold/provisioning/internal/app/service/organization"
	plansvc "github.com/nestfold/provisioning/internal/app/service/plan"
	subsvc "github.com/nestfold/provisioning/internal/app/service/subscription"
	"github.com/nestfold/provisioning/internal/models"
	"github.com/nestfold/provisioning/internal/platform/directory"
	"github.com/nestfold/provisioning/internal/repository"
)

type apiFixture struct {
	db *gorm.DB
	r  *gin.Engine
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Plan{}, &models.Organization{}, &models.Subscription{}, &models.SubscriptionHistory{},
		&models.Group{}, &models.GroupUser{}, &models.User{},
	))

	log := zap.NewNop().Sugar()
	plans := repository.NewPlanRepository(db)
	orgs := repository.NewOrganizationRepository(db)
	subs := repository.NewSubscriptionRepository(db)
	planS := plansvc.NewService(plans, log)
	subS := subsvc.NewService(db, log, planS, orgs, subs, plans, repository.NewHistoryRepository(db))
	orgS := orgsvc.NewService(db, log, directory.New(db), subS, orgs, subs, plans)

	r := gin.New()
	api := r.Group("/api/v1")
	RegisterOrganizationRoutes(api, orgS, subS)
	RegisterPlanRoutes(api, planS)
	return &apiFixture{db: db, r: r}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}

func TestOrganizationLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/orgs", map[string]any{
		"group_id":     "acme",
		"display_name": "Acme Corp",
		"validity":     "1 month",
		"spec":         map[string]any{"max_members": 5},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"active"`)

	w = f.do(t, http.MethodGet, "/api/v1/orgs/acme", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Acme Corp")
	require.Contains(t, w.Body.String(), `"max_members":5`)

	w = f.do(t, http.MethodDelete, "/api/v1/orgs/acme", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/orgs/acme", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestProvision_MissingGroupIDRejected(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/orgs", map[string]any{"validity": "1 month"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProvision_DuplicateGroupReturnsConflict(t *testing.T) {
	f := newAPIFixture(t)

	body := map[string]any{"group_id": "acme", "validity": "1 month"}
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/v1/orgs", body).Code)
	require.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/api/v1/orgs", body).Code)
}

func TestUpdate_PauseOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/orgs", map[string]any{
		"group_id": "acme", "display_name": "Acme", "validity": "1 month",
		"spec": map[string]any{"max_members": 5},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var created struct {
		Data struct {
			Subscription models.Subscription `json:"subscription"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = f.do(t, http.MethodPut, "/api/v1/orgs/acme/subscription", map[string]any{
		"display_name": "Acme",
		"plan_id":      created.Data.Subscription.PlanID,
		"spec":         map[string]any{"max_members": 5},
		"status":       "paused",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"paused"`)

	// Unknown status values are rejected outright.
	w = f.do(t, http.MethodPut, "/api/v1/orgs/acme/subscription", map[string]any{
		"display_name": "Acme",
		"plan_id":      created.Data.Subscription.PlanID,
		"spec":         map[string]any{"max_members": 5},
		"status":       "suspended",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPublicPlansOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	require.NoError(t, f.db.Create(&models.Plan{Name: "Team", MaxMembers: 25, Currency: "EUR", IsPublic: true}).Error)

	w := f.do(t, http.MethodGet, "/api/v1/plans", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"Team"`)
}
