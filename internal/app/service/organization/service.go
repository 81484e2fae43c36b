package organization

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nestfold/provisioning/internal/app/service/subscription"
	"github.com/nestfold/provisioning/internal/models"
	"github.com/nestfold/provisioning/internal/platform/directory"
	"github.com/nestfold/provisioning/internal/repository"
	"github.com/nestfold/provisioning/pkg/apperr"
	"github.com/nestfold/provisioning/pkg/logctx"
	"github.com/nestfold/provisioning/pkg/types"
)

// Service provisions and deprovisions organizations: the directory
// group, the organization row and the subscription move together in one
// transaction, so a tenant either fully exists or not at all.
type Service struct {
	db     *gorm.DB
	log    *zap.SugaredLogger
	dir    directory.Directory
	subSvc *subscription.Service
	orgs   repository.OrganizationRepository
	subs   repository.SubscriptionRepository
	plans  repository.PlanRepository
}

func NewService(
	db *gorm.DB,
	log *zap.SugaredLogger,
	dir directory.Directory,
	subSvc *subscription.Service,
	orgs repository.OrganizationRepository,
	subs repository.SubscriptionRepository,
	plans repository.PlanRepository,
) *Service {
	return &Service{db: db, log: log, dir: dir, subSvc: subSvc, orgs: orgs, subs: subs, plans: plans}
}

type ProvisionRequest struct {
	GroupID      string
	DisplayName  string
	Validity     string
	PlanID       *uint
	Spec         types.PlanSpec
	ActingUserID string
}

type ProvisionResult struct {
	Organization *models.Organization `json:"organization"`
	Subscription *models.Subscription `json:"subscription"`
}

func (s *Service) Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error) {
	if req.GroupID == "" {
		return nil, apperr.Invalid("group id must not be empty")
	}

	var result ProvisionResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dir := s.dir.WithTx(tx)
		orgs := s.orgs.WithTx(tx)

		if err := dir.CreateGroup(ctx, req.GroupID); err != nil {
			return err
		}

		org := &models.Organization{Name: req.DisplayName, GroupID: req.GroupID}
		if err := orgs.Create(ctx, org); err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}

		sub, err := s.subSvc.Create(ctx, tx, subscription.CreateRequest{
			OrganizationID: org.ID,
			Validity:       req.Validity,
			PlanID:         req.PlanID,
			Spec:           req.Spec,
			ActingUserID:   req.ActingUserID,
		})
		if err != nil {
			return err
		}

		result = ProvisionResult{Organization: org, Subscription: sub}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("provisioned organization",
		"group_id", req.GroupID, "organization_id", result.Organization.ID,
		"subscription_id", result.Subscription.ID)
	return &result, nil
}

// Deprovision removes the organization, its group and memberships, the
// subscription and any custom plan it owned. Member quota grants are
// cleared so departing users do not keep organization storage.
func (s *Service) Deprovision(ctx context.Context, groupID string) error {
	if groupID == "admin" {
		return apperr.Invalid("the admin group cannot be deleted")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dir := s.dir.WithTx(tx)
		orgs := s.orgs.WithTx(tx)
		subs := s.subs.WithTx(tx)
		plans := s.plans.WithTx(tx)

		org, err := orgs.FindByGroupID(ctx, groupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("organization does not exist for group %q", groupID)
			}
			return fmt.Errorf("failed to load organization: %w", err)
		}

		var ownedPlan *models.Plan
		sub, err := subs.FindByOrganizationID(ctx, org.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load subscription: %w", err)
		}
		if sub != nil {
			p, err := plans.Find(ctx, sub.PlanID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to load plan: %w", err)
			}
			if p != nil && !p.IsPublic {
				ownedPlan = p
			}
		}

		members, err := dir.GroupMembers(ctx, groupID)
		if err != nil {
			return fmt.Errorf("failed to list group members: %w", err)
		}
		for _, uid := range members {
			if err := dir.SetUserOrganization(ctx, uid, nil); err != nil {
				return fmt.Errorf("failed to clear organization for user %s: %w", uid, err)
			}
			if err := dir.SetUserQuota(ctx, uid, 0); err != nil {
				return fmt.Errorf("failed to reset quota for user %s: %w", uid, err)
			}
		}

		if err := dir.DeleteGroup(ctx, groupID); err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}
		if err := subs.DeleteByOrganizationID(ctx, org.ID); err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}
		if err := orgs.Delete(ctx, org.ID); err != nil {
			return fmt.Errorf("failed to delete organization: %w", err)
		}
		if ownedPlan != nil {
			if err := plans.Delete(ctx, ownedPlan.ID); err != nil {
				return fmt.Errorf("failed to delete custom plan %d: %w", ownedPlan.ID, err)
			}
		}

		logctx.FromCtx(ctx, s.log).Infow("deprovisioned organization",
			"group_id", groupID, "organization_id", org.ID, "members_cleared", len(members))
		return nil
	})
}

// Details bundles what the get-organization endpoint returns.
type Details struct {
	Organization *models.Organization `json:"organization"`
	Subscription *models.Subscription `json:"subscription"`
	Plan         *models.Plan         `json:"plan"`
}

func (s *Service) Get(ctx context.Context, groupID string) (*Details, error) {
	org, err := s.orgs.FindByGroupID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("organization does not exist for group %q", groupID)
		}
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}

	sub, err := s.subs.FindByOrganizationID(ctx, org.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("no subscription found for organization %d", org.ID)
		}
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	p, err := s.plans.Find(ctx, sub.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Integrity(err, "subscription %d references missing plan %d", sub.ID, sub.PlanID)
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	return &Details{Organization: org, Subscription: sub, Plan: p}, nil
}
