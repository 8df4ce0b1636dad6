package app

import (
	"gorm.io/gorm"

	"github.com/edgeslab/edges-backend/internal/data/repos"
	"github.com/edgeslab/edges-backend/internal/domain/billing"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
)

type Repos struct {
	Evaluation   repos.EvaluationRepo
	Subscription repos.SubscriptionRepo
	BillingEvent repos.BillingEventRepo
	Usage        repos.UsageStore
}

func wireRepos(db *gorm.DB, log *logger.Logger, catalog *billing.Catalog) Repos {
	log.Info("Wiring repos...")
	evals := repos.NewEvaluationRepo(db, log)
	subs := repos.NewSubscriptionRepo(db, log)
	return Repos{
		Evaluation:   evals,
		Subscription: subs,
		BillingEvent: repos.NewBillingEventRepo(db, log),
		Usage:        repos.NewUsageStore(db, log, evals, subs, catalog.Limit(billing.TierFree)),
	}
}
