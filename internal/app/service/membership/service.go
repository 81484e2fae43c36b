package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nestfold/provisioning/internal/platform/directory"
	"github.com/nestfold/provisioning/internal/repository"
	"github.com/nestfold/provisioning/pkg/apperr"
	"github.com/nestfold/provisioning/pkg/logctx"
	"github.com/nestfold/provisioning/pkg/metrics"
)

// Service gates group membership changes on the organization's plan:
// the member cap is checked before any mutation, quota is granted
// before the group add so a user never has organization access without
// the matching quota, and a user belongs to at most one organization.
type Service struct {
	db    *gorm.DB
	log   *zap.SugaredLogger
	dir   directory.Directory
	orgs  repository.OrganizationRepository
	subs  repository.SubscriptionRepository
	plans repository.PlanRepository
	mtr   *metrics.Metrics
}

func NewService(
	db *gorm.DB,
	log *zap.SugaredLogger,
	dir directory.Directory,
	orgs repository.OrganizationRepository,
	subs repository.SubscriptionRepository,
	plans repository.PlanRepository,
	mtr *metrics.Metrics,
) *Service {
	return &Service{db: db, log: log, dir: dir, orgs: orgs, subs: subs, plans: plans, mtr: mtr}
}

// Join adds the user to a group. For organization groups the whole
// check-then-act sequence runs in one transaction holding the
// subscription row lock, so two simultaneous joins cannot both pass the
// capacity check.
func (s *Service) Join(ctx context.Context, userID, groupID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dir := s.dir.WithTx(tx)
		orgs := s.orgs.WithTx(tx)
		subs := s.subs.WithTx(tx)
		plans := s.plans.WithTx(tx)

		org, err := orgs.FindByGroupID(ctx, groupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Plain group, no tenant semantics.
				return dir.AddUserToGroup(ctx, userID, groupID)
			}
			return fmt.Errorf("failed to resolve group %q: %w", groupID, err)
		}

		sub, err := subs.FindByOrganizationIDForUpdate(ctx, org.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Integrity(err, "organization %d has no subscription", org.ID)
			}
			return fmt.Errorf("failed to load subscription: %w", err)
		}

		p, err := plans.Find(ctx, sub.PlanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Integrity(err, "subscription %d references missing plan %d", sub.ID, sub.PlanID)
			}
			return fmt.Errorf("failed to load plan: %w", err)
		}

		// One organization per user: drop memberships in other
		// organization groups before counting.
		orgGroups, err := orgs.FindGroupIDsForUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list organization groups for user: %w", err)
		}
		for _, gid := range lo.Filter(orgGroups, func(g string, _ int) bool { return g != groupID }) {
			if err := dir.RemoveUserFromGroup(ctx, userID, gid); err != nil {
				return fmt.Errorf("failed to leave previous organization group %q: %w", gid, err)
			}
			logctx.FromCtx(ctx, s.log).Infow("removed user from previous organization group",
				"user_id", userID, "group_id", gid)
		}

		count, err := orgs.MemberCount(ctx, groupID)
		if err != nil {
			return fmt.Errorf("failed to count members: %w", err)
		}
		if count >= int64(p.MaxMembers) {
			s.mtr.MembershipRejections.Inc()
			return apperr.Capacity("organization has %d members, plan allows at most %d", count, p.MaxMembers)
		}

		if err := dir.SetUserOrganization(ctx, userID, &org.ID); err != nil {
			return fmt.Errorf("failed to assign organization to user: %w", err)
		}
		if err := dir.SetUserQuota(ctx, userID, p.PrivateStoragePerUser); err != nil {
			return fmt.Errorf("failed to set user quota: %w", err)
		}
		if err := dir.AddUserToGroup(ctx, userID, groupID); err != nil {
			return fmt.Errorf("failed to add user to group: %w", err)
		}

		logctx.FromCtx(ctx, s.log).Infow("user joined organization",
			"user_id", userID, "group_id", groupID,
			"organization_id", org.ID, "quota_bytes", p.PrivateStoragePerUser)
		return nil
	})
}

// Leave removes the user from a group; organization groups also clear
// the organization reference and reset the quota to zero.
func (s *Service) Leave(ctx context.Context, userID, groupID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dir := s.dir.WithTx(tx)
		orgs := s.orgs.WithTx(tx)

		_, err := orgs.FindByGroupID(ctx, groupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dir.RemoveUserFromGroup(ctx, userID, groupID)
			}
			return fmt.Errorf("failed to resolve group %q: %w", groupID, err)
		}

		if err := dir.SetUserOrganization(ctx, userID, nil); err != nil {
			return fmt.Errorf("failed to clear organization for user: %w", err)
		}
		if err := dir.SetUserQuota(ctx, userID, 0); err != nil {
			return fmt.Errorf("failed to reset user quota: %w", err)
		}
		if err := dir.RemoveUserFromGroup(ctx, userID, groupID); err != nil {
			return fmt.Errorf("failed to remove user from group: %w", err)
		}

		logctx.FromCtx(ctx, s.log).Infow("user left organization group",
			"user_id", userID, "group_id", groupID)
		return nil
	})
}
