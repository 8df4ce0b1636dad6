package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/edgeslab/edges-backend/internal/clients/redis"
	"github.com/edgeslab/edges-backend/internal/data/repos"
	"github.com/edgeslab/edges-backend/internal/domain/billing"
	"github.com/edgeslab/edges-backend/internal/observability"
	"github.com/edgeslab/edges-backend/internal/platform/apierr"
	"github.com/edgeslab/edges-backend/internal/platform/dbctx"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
	"github.com/edgeslab/edges-backend/internal/usage"
)

const usageCacheTTL = 5 * time.Minute

// UsageSnapshot is the subscription view shown next to the chart. When the
// counter could not be read Status is "unknown" and the numbers are zero.
type UsageSnapshot struct {
	Status                 usage.Status `json:"status"`
	Tier                   billing.Tier `json:"tier,omitempty"`
	TierName               string       `json:"tierName,omitempty"`
	EvaluationsUsed        int          `json:"evaluationsUsed"`
	MonthlyEvaluationLimit int          `json:"monthlyEvaluationLimit"`
	PercentUsed            int          `json:"percentUsed"`
	Warnings               []string     `json:"warnings,omitempty"`
	Policy                 usage.Policy `json:"policy"`
}

type UsageService interface {
	Snapshot(ctx context.Context, userID uuid.UUID) UsageSnapshot
	SnapshotFrom(sub *billing.Subscription) UsageSnapshot
	ApplyTierChange(ctx context.Context, userID uuid.UUID, tier billing.Tier, customerID, subscriptionID string) (UsageSnapshot, error)
	ApplyCancellation(ctx context.Context, userID uuid.UUID) (UsageSnapshot, error)
	ApplyRollover(ctx context.Context, userID uuid.UUID) (UsageSnapshot, error)
	Reconcile(ctx context.Context, userID uuid.UUID) (UsageSnapshot, error)
	Invalidate(ctx context.Context, userID uuid.UUID)
	Policy() usage.Policy
}

type usageService struct {
	log     *logger.Logger
	subs    repos.SubscriptionRepo
	evals   repos.EvaluationRepo
	store   repos.UsageStore
	cache   redis.Cache
	catalog *billing.Catalog
	policy  usage.Policy
	metrics *observability.Metrics
	now     func() time.Time
}

func NewUsageService(
	log *logger.Logger,
	subs repos.SubscriptionRepo,
	evals repos.EvaluationRepo,
	store repos.UsageStore,
	cache redis.Cache,
	catalog *billing.Catalog,
	policy usage.Policy,
	metrics *observability.Metrics,
) UsageService {
	if cache == nil {
		cache = redis.Noop{}
	}
	return &usageService{
		log:     log.With("service", "UsageService"),
		subs:    subs,
		evals:   evals,
		store:   store,
		cache:   cache,
		catalog: catalog,
		policy:  policy,
		metrics: metrics,
		now:     time.Now,
	}
}

func usageCacheKey(userID uuid.UUID) string { return "usage:" + userID.String() }

func (s *usageService) Policy() usage.Policy { return s.policy }

// Snapshot never fails: a storage error degrades to StatusUnknown.
func (s *usageService) Snapshot(ctx context.Context, userID uuid.UUID) UsageSnapshot {
	var cached UsageSnapshot
	if err := s.cache.GetJSON(ctx, usageCacheKey(userID), &cached); err == nil {
		s.metrics.UsageSnapshot("cache")
		return cached
	} else if !errors.Is(err, redis.ErrMiss) {
		s.log.Warn("usage cache read failed", "user_id", userID.String(), "error", err)
	}

	sub, err := s.subs.GetByUserID(dbctx.Context{Ctx: ctx}, userID)
	var snap UsageSnapshot
	switch {
	case errors.Is(err, repos.ErrSubscriptionNotFound):
		snap = s.fromTracker(usage.NewFree(s.catalog))
	case err != nil:
		s.log.Warn("usage snapshot unavailable", "user_id", userID.String(), "error", err)
		s.metrics.UsageSnapshot("unknown")
		return UsageSnapshot{Status: usage.StatusUnknown, Policy: s.policy}
	default:
		snap = s.SnapshotFrom(sub)
	}
	s.metrics.UsageSnapshot("db")
	s.cacheSnapshot(ctx, userID, snap)
	return snap
}

func (s *usageService) SnapshotFrom(sub *billing.Subscription) UsageSnapshot {
	return s.fromTracker(usage.FromSubscription(sub))
}

func (s *usageService) fromTracker(t usage.Tracker) UsageSnapshot {
	return UsageSnapshot{
		Status:                 t.Status(),
		Tier:                   t.Tier,
		TierName:               t.Tier.DisplayName(),
		EvaluationsUsed:        t.EvaluationsUsed,
		MonthlyEvaluationLimit: t.MonthlyLimit,
		PercentUsed:            t.PercentUsed(),
		Warnings:               t.Warnings(),
		Policy:                 s.policy,
	}
}

func (s *usageService) ApplyTierChange(ctx context.Context, userID uuid.UUID, tier billing.Tier, customerID, subscriptionID string) (UsageSnapshot, error) {
	if _, ok := s.catalog.Plan(tier); !ok {
		return UsageSnapshot{}, apierr.BadRequest("unknown_plan", fmt.Errorf("%w: %s", billing.ErrUnknownPlan, tier))
	}
	return s.mutate(ctx, userID, "tier_change", func(sub *billing.Subscription) {
		t := usage.FromSubscription(sub)
		t.ChangeTier(tier, s.catalog)
		t.ApplyTo(sub)
		if customerID != "" {
			sub.StripeCustomerID = customerID
		}
		if subscriptionID != "" {
			sub.StripeSubscriptionID = subscriptionID
		}
		sub.PeriodStartedAt = s.now().UTC()
	})
}

func (s *usageService) ApplyCancellation(ctx context.Context, userID uuid.UUID) (UsageSnapshot, error) {
	return s.mutate(ctx, userID, "cancellation", func(sub *billing.Subscription) {
		t := usage.FromSubscription(sub)
		t.Cancel(s.catalog)
		t.ApplyTo(sub)
		sub.StripeSubscriptionID = ""
		sub.PeriodStartedAt = s.now().UTC()
	})
}

func (s *usageService) ApplyRollover(ctx context.Context, userID uuid.UUID) (UsageSnapshot, error) {
	return s.mutate(ctx, userID, "rollover", func(sub *billing.Subscription) {
		t := usage.FromSubscription(sub)
		t.Rollover()
		t.ApplyTo(sub)
		sub.PeriodStartedAt = s.now().UTC()
	})
}

// Reconcile recounts the rows saved since the current period started and
// overwrites the counter with that number.
func (s *usageService) Reconcile(ctx context.Context, userID uuid.UUID) (UsageSnapshot, error) {
	var counted int64
	snap, err := s.mutateErr(ctx, userID, "reconcile", func(dbc dbctx.Context, sub *billing.Subscription) error {
		n, err := s.evals.CountByUserSince(dbc, userID, sub.PeriodStartedAt)
		if err != nil {
			return fmt.Errorf("count evaluations: %w", err)
		}
		counted = n
		t := usage.FromSubscription(sub)
		t.Reconcile(int(n))
		t.ApplyTo(sub)
		return nil
	})
	if err == nil {
		s.log.Info("usage reconciled", "user_id", userID.String(), "rows", counted)
	}
	return snap, err
}

func (s *usageService) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.Delete(ctx, usageCacheKey(userID)); err != nil {
		s.log.Warn("usage cache invalidate failed", "user_id", userID.String(), "error", err)
	}
}

func (s *usageService) mutate(ctx context.Context, userID uuid.UUID, op string, fn func(sub *billing.Subscription)) (UsageSnapshot, error) {
	return s.mutateErr(ctx, userID, op, func(_ dbctx.Context, sub *billing.Subscription) error {
		fn(sub)
		return nil
	})
}

func (s *usageService) mutateErr(ctx context.Context, userID uuid.UUID, op string, fn func(dbc dbctx.Context, sub *billing.Subscription) error) (UsageSnapshot, error) {
	if userID == uuid.Nil {
		return UsageSnapshot{}, apierr.BadRequest("missing_user", errors.New("user id required"))
	}
	sub, err := s.store.Mutate(ctx, userID, fn)
	if err != nil {
		s.log.Error("usage transition failed", "op", op, "user_id", userID.String(), "error", err)
		return UsageSnapshot{}, apierr.Retryable(http.StatusServiceUnavailable, "usage_update_failed", err)
	}
	s.Invalidate(ctx, userID)
	s.log.Info("usage transition applied", "op", op, "user_id", userID.String(), "tier", sub.Tier)
	return s.SnapshotFrom(sub), nil
}

func (s *usageService) cacheSnapshot(ctx context.Context, userID uuid.UUID, snap UsageSnapshot) {
	if err := s.cache.SetJSON(ctx, usageCacheKey(userID), snap, usageCacheTTL); err != nil {
		s.log.Warn("usage cache write failed", "user_id", userID.String(), "error", err)
	}
}
