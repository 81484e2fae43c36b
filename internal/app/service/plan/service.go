package plan

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nestfold/provisioning/internal/models"
	"github.com/nestfold/provisioning/internal/repository"
	"github.com/nestfold/provisioning/pkg/apperr"
	"github.com/nestfold/provisioning/pkg/logctx"
	"github.com/nestfold/provisioning/pkg/types"
)

type Service struct {
	plans repository.PlanRepository
	log   *zap.SugaredLogger
}

func NewService(plans repository.PlanRepository, log *zap.SugaredLogger) *Service {
	return &Service{plans: plans, log: log}
}

func customPlanName(organizationID uint) string {
	return fmt.Sprintf("Custom Plan for Org %d", organizationID)
}

// Resolve decides which plan a subscription edit ends up on. In order:
// a selected public plan wins as-is (requested limits are ignored), an
// already-custom current plan is mutated in place, otherwise a fresh
// custom plan is forked for the organization. Resolve never deletes;
// the lifecycle service reclaims the orphaned previous plan afterwards.
func (s *Service) Resolve(ctx context.Context, tx *gorm.DB, selectedPlanID, currentPlanID, organizationID uint, spec types.PlanSpec) (uint, error) {
	plans := s.plans
	if tx != nil {
		plans = plans.WithTx(tx)
	}

	selected, err := plans.Find(ctx, selectedPlanID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("failed to load selected plan %d: %w", selectedPlanID, err)
	}
	if selected != nil && selected.IsPublic {
		return selected.ID, nil
	}

	current, err := plans.Find(ctx, currentPlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The subscription references a plan that is gone. The
			// lifecycle service is the only writer, so this cannot
			// happen unless the store was corrupted.
			return 0, apperr.Integrity(err, "current plan %d not found for organization %d", currentPlanID, organizationID)
		}
		return 0, fmt.Errorf("failed to load current plan %d: %w", currentPlanID, err)
	}

	if !current.IsPublic {
		current.MaxMembers = spec.MaxMembers
		current.MaxProjects = spec.MaxProjects
		current.SharedStoragePerProject = spec.SharedStoragePerProject
		current.PrivateStoragePerUser = spec.PrivateStoragePerUser
		current.Price = spec.Price
		current.Currency = spec.Currency
		if err := plans.Update(ctx, current); err != nil {
			return 0, fmt.Errorf("failed to update custom plan %d: %w", current.ID, err)
		}
		return current.ID, nil
	}

	forked, err := s.createCustom(ctx, plans, organizationID, spec)
	if err != nil {
		return 0, err
	}
	logctx.FromCtx(ctx, s.log).Infow("forked custom plan",
		"organization_id", organizationID, "plan_id", forked.ID, "from_plan_id", currentPlanID)
	return forked.ID, nil
}

// CreateCustom creates a private plan owned by the organization's
// subscription, named deterministically from the organization ID.
func (s *Service) CreateCustom(ctx context.Context, tx *gorm.DB, organizationID uint, spec types.PlanSpec) (*models.Plan, error) {
	plans := s.plans
	if tx != nil {
		plans = plans.WithTx(tx)
	}
	return s.createCustom(ctx, plans, organizationID, spec)
}

func (s *Service) createCustom(ctx context.Context, plans repository.PlanRepository, organizationID uint, spec types.PlanSpec) (*models.Plan, error) {
	if !spec.Normalize() {
		return nil, apperr.Invalid("plan limits must be non-negative")
	}
	plan := &models.Plan{
		Name:                    customPlanName(organizationID),
		MaxMembers:              spec.MaxMembers,
		MaxProjects:             spec.MaxProjects,
		SharedStoragePerProject: spec.SharedStoragePerProject,
		PrivateStoragePerUser:   spec.PrivateStoragePerUser,
		Price:                   spec.Price,
		Currency:                spec.Currency,
		IsPublic:                false,
	}
	if err := plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create custom plan: %w", err)
	}
	return plan, nil
}

// CreatePublic adds a plan to the shared catalogue. Admin operation.
func (s *Service) CreatePublic(ctx context.Context, name string, spec types.PlanSpec) (*models.Plan, error) {
	if name == "" {
		return nil, apperr.Invalid("plan name must not be empty")
	}
	if !spec.Normalize() {
		return nil, apperr.Invalid("plan limits must be non-negative")
	}
	plan := &models.Plan{
		Name:                    name,
		MaxMembers:              spec.MaxMembers,
		MaxProjects:             spec.MaxProjects,
		SharedStoragePerProject: spec.SharedStoragePerProject,
		PrivateStoragePerUser:   spec.PrivateStoragePerUser,
		Price:                   spec.Price,
		Currency:                spec.Currency,
		IsPublic:                true,
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create public plan: %w", err)
	}
	return plan, nil
}

// ListPublic returns the shared plan catalogue.
func (s *Service) ListPublic(ctx context.Context) ([]models.Plan, error) {
	return s.plans.FindPublic(ctx)
}
