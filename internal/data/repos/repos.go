package repos

import (
	"gorm.io/gorm"

	"github.com/edgeslab/edges-backend/internal/data/repos/billing"
	"github.com/edgeslab/edges-backend/internal/data/repos/evaluation"
	"github.com/edgeslab/edges-backend/internal/data/repos/usage"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
)

type EvaluationRepo = evaluation.EvaluationRepo
type SubscriptionRepo = billing.SubscriptionRepo
type BillingEventRepo = billing.BillingEventRepo
type UsageStore = usage.UsageStore

var (
	ErrSubscriptionNotFound = billing.ErrSubscriptionNotFound
	ErrDuplicateEvent       = billing.ErrDuplicateEvent
)

func NewEvaluationRepo(db *gorm.DB, log *logger.Logger) EvaluationRepo {
	return evaluation.NewEvaluationRepo(db, log)
}

func NewSubscriptionRepo(db *gorm.DB, log *logger.Logger) SubscriptionRepo {
	return billing.NewSubscriptionRepo(db, log)
}

func NewBillingEventRepo(db *gorm.DB, log *logger.Logger) BillingEventRepo {
	return billing.NewBillingEventRepo(db, log)
}

func NewUsageStore(db *gorm.DB, log *logger.Logger, evals EvaluationRepo, subs SubscriptionRepo, freeLimit int) UsageStore {
	return usage.NewUsageStore(db, log, evals, subs, freeLimit)
}
