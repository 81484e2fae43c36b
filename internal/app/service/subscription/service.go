package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nestfold/provisioning/internal/app/service/plan"
	"github.com/nestfold/provisioning/internal/models"
	"github.com/nestfold/provisioning/internal/repository"
	"github.com/nestfold/provisioning/pkg/apperr"
	"github.com/nestfold/provisioning/pkg/logctx"
	"github.com/nestfold/provisioning/pkg/types"
	"github.com/nestfold/provisioning/pkg/validity"
)

// Service owns the subscription lifecycle: every create and update runs
// as one transaction covering plan resolution, the status transition,
// duration extension, the history row and stale custom-plan cleanup.
type Service struct {
	db      *gorm.DB
	log     *zap.SugaredLogger
	planSvc *plan.Service
	orgs    repository.OrganizationRepository
	subs    repository.SubscriptionRepository
	plans   repository.PlanRepository
	history repository.HistoryRepository
}

func NewService(
	db *gorm.DB,
	log *zap.SugaredLogger,
	planSvc *plan.Service,
	orgs repository.OrganizationRepository,
	subs repository.SubscriptionRepository,
	plans repository.PlanRepository,
	history repository.HistoryRepository,
) *Service {
	return &Service{db: db, log: log, planSvc: planSvc, orgs: orgs, subs: subs, plans: plans, history: history}
}

// CreateRequest provisions the initial subscription for an organization.
// PlanID nil means "synthesize a custom plan from Spec".
type CreateRequest struct {
	OrganizationID uint
	Validity       string
	PlanID         *uint
	Spec           types.PlanSpec
	ActingUserID   string
}

// Create inserts the organization's one subscription. Must run inside
// the caller's transaction when provisioning org + group + subscription
// as a unit; pass tx nil to use the service's own handle.
func (s *Service) Create(ctx context.Context, tx *gorm.DB, req CreateRequest) (*models.Subscription, error) {
	handle := tx
	if handle == nil {
		handle = s.db
	}
	subs := s.subs.WithTx(handle)
	plans := s.plans.WithTx(handle)
	history := s.history.WithTx(handle)

	if _, err := subs.FindByOrganizationID(ctx, req.OrganizationID); err == nil {
		return nil, apperr.Conflict("organization %d already has a subscription", req.OrganizationID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing subscription: %w", err)
	}

	now := time.Now().UTC()
	endedAt, err := validity.Extend(now, req.Validity)
	if err != nil {
		return nil, apperr.Invalid("invalid validity %q", req.Validity)
	}

	planID := uint(0)
	if req.PlanID == nil {
		custom, err := s.planSvc.CreateCustom(ctx, handle, req.OrganizationID, req.Spec)
		if err != nil {
			return nil, err
		}
		planID = custom.ID
	} else {
		p, err := plans.Find(ctx, *req.PlanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("plan %d does not exist", *req.PlanID)
			}
			return nil, fmt.Errorf("failed to load plan %d: %w", *req.PlanID, err)
		}
		planID = p.ID
	}

	sub := &models.Subscription{
		OrganizationID: req.OrganizationID,
		PlanID:         planID,
		Status:         types.SubscriptionStatusActive,
		StartedAt:      now,
		EndedAt:        &endedAt,
	}
	if err := subs.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	if err := history.Append(ctx, &models.SubscriptionHistory{
		SubscriptionID: sub.ID,
		ChangedBy:      req.ActingUserID,
		Before:         datatypes.NewJSONType[*models.Subscription](nil),
		After:          datatypes.NewJSONType(sub),
		Notes:          "created",
	}); err != nil {
		return nil, fmt.Errorf("failed to append subscription history: %w", err)
	}

	return sub, nil
}

// UpdateRequest is the single entry point for all subscription edits.
type UpdateRequest struct {
	GroupID        string
	DisplayName    string
	PlanID         uint
	Spec           types.PlanSpec
	Status         types.SubscriptionStatus
	ExtendDuration *string
	ActingUserID   string
}

// Update applies the whole edit as one unit of work: resolve the plan,
// transition the status, extend the duration, persist, append history
// and reclaim the orphaned custom plan. Not-found errors surface
// verbatim so callers can tell "doesn't exist" from "operation failed".
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*models.Subscription, error) {
	if !lo.Contains(types.KnownStatuses, req.Status) {
		return nil, apperr.Invalid("unknown subscription status %q", req.Status)
	}
	if !req.Spec.Normalize() {
		return nil, apperr.Invalid("plan limits must be non-negative")
	}

	var updated *models.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orgs := s.orgs.WithTx(tx)
		subs := s.subs.WithTx(tx)
		plans := s.plans.WithTx(tx)
		history := s.history.WithTx(tx)

		org, err := orgs.FindByGroupID(ctx, req.GroupID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("organization does not exist for group %q", req.GroupID)
			}
			return fmt.Errorf("failed to load organization: %w", err)
		}

		// The row lock serializes concurrent edits of the same
		// subscription for the rest of the transaction.
		sub, err := subs.FindByOrganizationIDForUpdate(ctx, org.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("subscription does not exist for organization %d", org.ID)
			}
			return fmt.Errorf("failed to load subscription: %w", err)
		}

		snapshot := *sub

		if org.Name != req.DisplayName {
			org.Name = req.DisplayName
			if err := orgs.Update(ctx, org); err != nil {
				return fmt.Errorf("failed to rename organization: %w", err)
			}
		}

		finalPlanID, err := s.planSvc.Resolve(ctx, tx, req.PlanID, snapshot.PlanID, org.ID, req.Spec)
		if err != nil {
			return err
		}
		sub.PlanID = finalPlanID

		now := time.Now().UTC()
		if snapshot.Status != req.Status {
			applyStatus(sub, req.Status, now)
		}

		if req.ExtendDuration != nil {
			basis := now
			if sub.EndedAt != nil {
				basis = *sub.EndedAt
			}
			newEnd, err := validity.Extend(basis, *req.ExtendDuration)
			if err != nil {
				return apperr.Invalid("invalid extend duration %q", *req.ExtendDuration)
			}
			sub.EndedAt = &newEnd
		}

		if err := subs.Update(ctx, sub); err != nil {
			return fmt.Errorf("failed to persist subscription: %w", err)
		}

		if err := history.Append(ctx, &models.SubscriptionHistory{
			SubscriptionID: sub.ID,
			ChangedBy:      req.ActingUserID,
			Before:         datatypes.NewJSONType(&snapshot),
			After:          datatypes.NewJSONType(sub),
		}); err != nil {
			return fmt.Errorf("failed to append subscription history: %w", err)
		}

		// Reclaim the previous custom plan once nothing references it.
		if snapshot.PlanID != finalPlanID {
			previous, err := plans.Find(ctx, snapshot.PlanID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to load previous plan %d: %w", snapshot.PlanID, err)
			}
			if previous != nil && !previous.IsPublic {
				if err := plans.Delete(ctx, previous.ID); err != nil {
					return fmt.Errorf("failed to delete orphaned plan %d: %w", previous.ID, err)
				}
				logctx.FromCtx(ctx, s.log).Infow("reclaimed orphaned custom plan",
					"plan_id", previous.ID, "organization_id", org.ID)
			}
		}

		updated = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// applyStatus records the target status and keeps the pause/cancel
// timestamps mutually exclusive; returning to active clears both.
func applyStatus(sub *models.Subscription, target types.SubscriptionStatus, now time.Time) {
	sub.Status = target
	switch target {
	case types.SubscriptionStatusPaused:
		sub.PausedAt = &now
		sub.CancelledAt = nil
	case types.SubscriptionStatusCancelled:
		sub.CancelledAt = &now
		sub.PausedAt = nil
	case types.SubscriptionStatusActive:
		sub.PausedAt = nil
		sub.CancelledAt = nil
	}
}

// ExpireLapsed is the sweeper entry point: one transaction selecting and
// bulk-updating every active subscription past its end date. Idempotent.
// The bulk transition intentionally writes no history rows.
func (s *Service) ExpireLapsed(ctx context.Context) (int64, error) {
	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.subs.WithTx(tx).ExpireLapsed(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("failed to expire lapsed subscriptions: %w", err)
		}
		affected = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// ListHistory serves the admin audit listing.
func (s *Service) ListHistory(ctx context.Context, req *repository.ListHistoryRequest) ([]*models.SubscriptionHistory, int64, error) {
	if req == nil {
		req = &repository.ListHistoryRequest{}
	}
	return s.history.List(ctx, req)
}
