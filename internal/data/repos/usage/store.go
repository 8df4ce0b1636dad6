package usage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	billingrepo "github.com/edgeslab/edges-backend/internal/data/repos/billing"
	evaluationrepo "github.com/edgeslab/edges-backend/internal/data/repos/evaluation"
	"github.com/edgeslab/edges-backend/internal/domain/billing"
	"github.com/edgeslab/edges-backend/internal/domain/evaluation"
	"github.com/edgeslab/edges-backend/internal/platform/dbctx"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
	tracker "github.com/edgeslab/edges-backend/internal/usage"
)

// UsageStore keeps the evaluations table and the usage counter consistent.
type UsageStore interface {
	// InsertAndIncrement stores the row and counts it in one transaction. On
	// any error neither the row nor the counter changes.
	InsertAndIncrement(ctx context.Context, row *evaluation.Evaluation, policy tracker.Policy) (*billing.Subscription, error)
	// Mutate loads the user's row under a lock, applies fn and writes it back.
	// Reads fn makes must go through dbc so they share the locking transaction.
	Mutate(ctx context.Context, userID uuid.UUID, fn func(dbc dbctx.Context, sub *billing.Subscription) error) (*billing.Subscription, error)
}

type usageStore struct {
	db        *gorm.DB
	log       *logger.Logger
	evals     evaluationrepo.EvaluationRepo
	subs      billingrepo.SubscriptionRepo
	freeLimit int
}

func NewUsageStore(db *gorm.DB, baseLog *logger.Logger, evals evaluationrepo.EvaluationRepo, subs billingrepo.SubscriptionRepo, freeLimit int) UsageStore {
	return &usageStore{
		db:        db,
		log:       baseLog.With("repo", "UsageStore"),
		evals:     evals,
		subs:      subs,
		freeLimit: freeLimit,
	}
}

func (s *usageStore) InsertAndIncrement(ctx context.Context, row *evaluation.Evaluation, policy tracker.Policy) (*billing.Subscription, error) {
	if row == nil || row.UserID == uuid.Nil {
		return nil, fmt.Errorf("insert evaluation: missing user")
	}
	var out *billing.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.subs.EnsureForUser(dbc, row.UserID, s.freeLimit); err != nil {
			return fmt.Errorf("ensure subscription: %w", err)
		}
		// the conditional UPDATE takes the row lock before the insert
		ok, err := s.subs.Increment(dbc, row.UserID, policy == tracker.PolicyHard)
		if err != nil {
			return fmt.Errorf("increment usage: %w", err)
		}
		if !ok {
			return tracker.ErrLimitReached
		}
		if _, err := s.evals.Create(dbc, []*evaluation.Evaluation{row}); err != nil {
			return fmt.Errorf("insert evaluation: %w", err)
		}
		sub, err := s.subs.GetByUserID(dbc, row.UserID)
		if err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *usageStore) Mutate(ctx context.Context, userID uuid.UUID, fn func(dbc dbctx.Context, sub *billing.Subscription) error) (*billing.Subscription, error) {
	var out *billing.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.subs.EnsureForUser(dbc, userID, s.freeLimit); err != nil {
			return fmt.Errorf("ensure subscription: %w", err)
		}
		var sub billing.Subscription
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return billingrepo.ErrSubscriptionNotFound
			}
			return err
		}
		if err := fn(dbc, &sub); err != nil {
			return err
		}
		if err := s.subs.Upsert(dbc, &sub); err != nil {
			return fmt.Errorf("save subscription: %w", err)
		}
		out = &sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
