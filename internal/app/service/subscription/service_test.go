package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nestfold/provisioning/internal/app/service/plan"
	"github.com/nestfold/provisioning/internal/models"
	"github.com/nestfold/provisioning/internal/repository"
	"github.com/nestfold/provisioning/pkg/apperr"
	"github.com/nestfold/provisioning/pkg/types"
)

type fixture struct {
	db  *gorm.DB
	svc *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Plan{}, &models.Organization{}, &models.Subscription{}, &models.SubscriptionHistory{},
	))

	log := zap.NewNop().Sugar()
	plans := repository.NewPlanRepository(db)
	svc := NewService(
		db, log,
		plan.NewService(plans, log),
		repository.NewOrganizationRepository(db),
		repository.NewSubscriptionRepository(db),
		plans,
		repository.NewHistoryRepository(db),
	)
	return &fixture{db: db, svc: svc}
}

func (f *fixture) seedOrg(t *testing.T, groupID string) *models.Organization {
	t.Helper()
	org := &models.Organization{Name: groupID, GroupID: groupID}
	require.NoError(t, f.db.Create(org).Error)
	return org
}

func (f *fixture) historyCount(t *testing.T, subscriptionID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.SubscriptionHistory{}).
		Where("subscription_id = ?", subscriptionID).Count(&n).Error)
	return n
}

func TestCreate_SynthesizesCustomPlan(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, "acme")

	sub, err := f.svc.Create(context.Background(), nil, CreateRequest{
		OrganizationID: org.ID,
		Validity:       "1 month",
		Spec:           types.PlanSpec{MaxMembers: 5},
		ActingUserID:   "admin-1",
	})
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusActive, sub.Status)
	require.NotNil(t, sub.EndedAt)
	require.True(t, sub.EndedAt.After(sub.StartedAt))

	var p models.Plan
	require.NoError(t, f.db.First(&p, sub.PlanID).Error)
	require.False(t, p.IsPublic)
	require.Equal(t, 5, p.MaxMembers)

	var entry models.SubscriptionHistory
	require.NoError(t, f.db.Where("subscription_id = ?", sub.ID).First(&entry).Error)
	require.Equal(t, "created", entry.Notes)
	require.Equal(t, "admin-1", entry.ChangedBy)
	require.Nil(t, entry.Before.Data())
	require.NotNil(t, entry.After.Data())
}

func TestCreate_SecondSubscriptionConflicts(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, "acme")

	_, err := f.svc.Create(context.Background(), nil, CreateRequest{
		OrganizationID: org.ID, Validity: "1 month",
	})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), nil, CreateRequest{
		OrganizationID: org.ID, Validity: "1 month",
	})
	require.True(t, apperr.IsConflict(err))
}

func TestCreate_UnknownSelectedPlan(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, "acme")

	missing := uint(999)
	_, err := f.svc.Create(context.Background(), nil, CreateRequest{
		OrganizationID: org.ID, Validity: "1 month", PlanID: &missing,
	})
	require.True(t, apperr.IsNotFound(err))
}

func TestCreate_InvalidValidity(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, "acme")

	_, err := f.svc.Create(context.Background(), nil, CreateRequest{
		OrganizationID: org.ID, Validity: "eventually",
	})
	require.True(t, apperr.IsInvalid(err))
}

func TestUpdate_PauseSetsTimestampAndAppendsHistory(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, "acme")
	created, err := f.svc.Create(context.Background(), nil, CreateRequest{
		OrganizationID: org.ID, Validity: "1 month", Spec: types.PlanSpec{MaxMembers: 5},
	})
	require.NoError(t, err)

	sub, err := f.svc.Update(context.Background(), UpdateRequest{
		GroupID:      "acme",
		DisplayName:  "acme",
		PlanID:       created.PlanID,
		Spec:         types.PlanSpec{MaxMembers: 5},
		Status:       types.SubscriptionStatusPaused,
		ActingUserID: "admin-1",
	})
	require.NoError(t, err)
	require.Equal(t, types.SubscriptionStatusPaused, sub.Status)
	require.NotNil(t, sub.PausedAt)
	require.Nil(t, sub.CancelledAt)
	require.EqualValues(t, 2, f.historyCount(t, sub.ID))

	// Resuming clears both transition timestamps.
	sub, err = f.svc.Update(context.Background(), UpdateRequest{
		GroupID:     "acme",
		DisplayName: "acme",
		PlanID:      created.PlanID,
		Spec:        types.PlanSpec{MaxMembers: 5},
		Status:      types.SubscriptionStatusActive,
	})
	require.NoError(t, err)
	require.Nil(t, sub.PausedAt)
	require.Nil(t, sub.CancelledAt)
}

func TestUpdate_ExtendsFromCurrentEndDate(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, "acme")
	created, err := f.svc.Create(context.Background(), nil, CreateRequest{
		OrganizationID: org.ID, Validity: "1 month", Spec: types.PlanSpec{MaxMembers: 5},
	})
	require.NoError(t, err)

	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.db.Model(&models.Subscription{}).
		Where("id = ?", created.ID).Update("ended_at", end).Error)

	extend := "1 month"
	sub, err := f.svc.Update(context.Background(), UpdateRequest{
		GroupID:        "acme",
		DisplayName:    "acme",
		PlanID:         created.PlanID,
		Spec:           types.PlanSpec{MaxMembers: 5},
		Status:         types.SubscriptionStatusActive,
		ExtendDuration: &extend,
	})
	require.NoError(t, err)
	require.NotNil(t, sub.EndedAt)
	require.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), sub.EndedAt.UTC())
}

func TestUpdate_SwitchToPublicReclaimsCustomPlan(t *testing.T) {
	f := newFixture(t)
	public := &models.Plan{Name: "Team", MaxMembers: 25, Currency: types.DefaultCurrency, IsPublic: true}
	require.NoError(t, f.db.Create(public).Error)

	org := f.seedOrg(t, "acme")
	created, err := f.svc.Create(context.Background(), nil, CreateRequest{
		OrganizationID: org.ID, Validity: "1 month", Spec: types.PlanSpec{MaxMembers: 5},
	})
	require.NoError(t, err)
	customID := created.PlanID

	sub, err := f.svc.Update(context.Background(), UpdateRequest{
		GroupID:     "acme",
		DisplayName: "acme",
		PlanID:      public.ID,
		Status:      types.SubscriptionStatusActive,
	})
	require.NoError(t, err)
	require.Equal(t, public.ID, sub.PlanID)

	err = f.db.First(&models.Plan{}, customID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdate_RenamesOrganization(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, "acme")
	created, err := f.svc.Create(context.Background(), nil, CreateRequest{
		OrganizationID: org.ID, Validity: "1 month", Spec: types.PlanSpec{MaxMembers: 5},
	})
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), UpdateRequest{
		GroupID:     "acme",
		DisplayName: "Acme Corp",
		PlanID:      created.PlanID,
		Spec:        types.PlanSpec{MaxMembers: 5},
		Status:      types.SubscriptionStatusActive,
	})
	require.NoError(t, err)

	var reloaded models.Organization
	require.NoError(t, f.db.First(&reloaded, org.ID).Error)
	require.Equal(t, "Acme Corp", reloaded.Name)
}

func TestUpdate_RejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Update(context.Background(), UpdateRequest{
		GroupID: "acme",
		Status:  types.SubscriptionStatus("suspended"),
	})
	require.True(t, apperr.IsInvalid(err))
}

func TestUpdate_MissingOrganization(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Update(context.Background(), UpdateRequest{
		GroupID: "ghost",
		Status:  types.SubscriptionStatusActive,
	})
	require.True(t, apperr.IsNotFound(err))
}

func TestExpireLapsed_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	org := f.seedOrg(t, "acme")
	created, err := f.svc.Create(context.Background(), nil, CreateRequest{
		OrganizationID: org.ID, Validity: "1 month", Spec: types.PlanSpec{MaxMembers: 5},
	})
	require.NoError(t, err)

	past := time.Now().UTC().Add(-24 * time.Hour)
	require.NoError(t, f.db.Model(&models.Subscription{}).
		Where("id = ?", created.ID).Update("ended_at", past).Error)

	n, err := f.svc.ExpireLapsed(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	var sub models.Subscription
	require.NoError(t, f.db.First(&sub, created.ID).Error)
	require.Equal(t, types.SubscriptionStatusExpired, sub.Status)

	n, err = f.svc.ExpireLapsed(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	// The bulk transition writes no history rows.
	require.EqualValues(t, 1, f.historyCount(t, created.ID))
}

func TestExpireLapsed_SkipsIndefiniteAndPaused(t *testing.T) {
	f := newFixture(t)
	for i, sub := range []*models.Subscription{
		{OrganizationID: 1, PlanID: 1, Status: types.SubscriptionStatusActive, StartedAt: time.Now()},
		{OrganizationID: 2, PlanID: 1, Status: types.SubscriptionStatusPaused, StartedAt: time.Now()},
	} {
		if i == 1 {
			past := time.Now().UTC().Add(-time.Hour)
			sub.EndedAt = &past
		}
		require.NoError(t, f.db.Create(sub).Error)
	}

	n, err := f.svc.ExpireLapsed(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 0, n)
}

func TestListHistory_FiltersBySubscription(t *testing.T) {
	f := newFixture(t)
	for _, orgName := range []string{"acme", "globex"} {
		org := f.seedOrg(t, orgName)
		_, err := f.svc.Create(context.Background(), nil, CreateRequest{
			OrganizationID: org.ID, Validity: "1 month", Spec: types.PlanSpec{MaxMembers: 5},
		})
		require.NoError(t, err)
	}

	rows, total, err := f.svc.ListHistory(context.Background(), &repository.ListHistoryRequest{
		Filters: []*types.CommonFilter{{
			Field:    "subscription_id",
			Operator: types.CommonFilterOperatorEq,
			Values:   []any{1},
		}},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, rows, 1)
	require.EqualValues(t, 1, rows[0].SubscriptionID)
}
