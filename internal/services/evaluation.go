package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/edgeslab/edges-backend/internal/data/repos"
	"github.com/edgeslab/edges-backend/internal/domain/evaluation"
	"github.com/edgeslab/edges-backend/internal/observability"
	"github.com/edgeslab/edges-backend/internal/platform/apierr"
	"github.com/edgeslab/edges-backend/internal/platform/dbctx"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
	"github.com/edgeslab/edges-backend/internal/usage"
)

type SaveResult struct {
	Evaluation *evaluation.Evaluation `json:"evaluation"`
	Usage      UsageSnapshot          `json:"usage"`
}

type EvaluationService interface {
	// Save persists the concept and counts it against the user's quota in one
	// step. Failures are retryable and leave the counter untouched.
	Save(ctx context.Context, userID uuid.UUID, c evaluation.Concept) (*SaveResult, error)
	List(ctx context.Context, userID uuid.UUID) ([]evaluation.Concept, error)
}

type evaluationService struct {
	log     *logger.Logger
	evals   repos.EvaluationRepo
	store   repos.UsageStore
	usage   UsageService
	metrics *observability.Metrics
}

func NewEvaluationService(log *logger.Logger, evals repos.EvaluationRepo, store repos.UsageStore, usageSvc UsageService, metrics *observability.Metrics) EvaluationService {
	return &evaluationService{
		log:     log.With("service", "EvaluationService"),
		evals:   evals,
		store:   store,
		usage:   usageSvc,
		metrics: metrics,
	}
}

func (s *evaluationService) Save(ctx context.Context, userID uuid.UUID, c evaluation.Concept) (*SaveResult, error) {
	if userID == uuid.Nil {
		return nil, apierr.Unauthorized(errors.New("sign in to save evaluations"))
	}
	if err := c.Validate(); err != nil {
		return nil, apierr.BadRequest("invalid_concept", err)
	}

	row := evaluation.FromConcept(userID, &c)
	sub, err := s.store.InsertAndIncrement(ctx, row, s.usage.Policy())
	if err != nil {
		if errors.Is(err, usage.ErrLimitReached) {
			s.metrics.EvaluationSaveFailed("limit_reached")
			return nil, apierr.New(http.StatusPaymentRequired, "limit_reached", errors.New(usage.MessageReached))
		}
		s.metrics.EvaluationSaveFailed("storage")
		s.log.Error("save evaluation failed", "user_id", userID.String(), "error", err)
		return nil, apierr.Retryable(http.StatusServiceUnavailable, "persistence_failed", errors.New("could not save evaluation, please try again"))
	}
	s.usage.Invalidate(ctx, userID)

	snap := s.usage.SnapshotFrom(sub)
	s.metrics.EvaluationSaved(row.Source)
	if snap.Status == usage.StatusApproaching || snap.Status == usage.StatusReached {
		s.metrics.LimitWarning(string(snap.Status), string(snap.Tier))
	}
	s.log.Info("evaluation saved",
		"user_id", userID.String(),
		"evaluation_id", row.ID.String(),
		"used", snap.EvaluationsUsed,
		"limit", snap.MonthlyEvaluationLimit,
	)
	return &SaveResult{Evaluation: row, Usage: snap}, nil
}

func (s *evaluationService) List(ctx context.Context, userID uuid.UUID) ([]evaluation.Concept, error) {
	rows, err := s.evals.ListByUserID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		s.log.Warn("list evaluations failed", "user_id", userID.String(), "error", err)
		return nil, apierr.Retryable(http.StatusServiceUnavailable, "fetch_failed", errors.New("could not load saved evaluations"))
	}
	out := make([]evaluation.Concept, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r.ToConcept())
	}
	return out, nil
}
