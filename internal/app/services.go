package app

import (
	"fmt"

	"github.com/edgeslab/edges-backend/internal/domain/billing"
	"github.com/edgeslab/edges-backend/internal/observability"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
	"github.com/edgeslab/edges-backend/internal/services"
	"github.com/edgeslab/edges-backend/internal/usage"
)

type Services struct {
	Identity   services.IdentityService
	Usage      services.UsageService
	Evaluation services.EvaluationService
	Billing    services.BillingService
	Scoring    services.ScoringService
}

func loadCatalog(cfg Config) (*billing.Catalog, error) {
	if cfg.PlansFile == "" {
		return billing.DefaultCatalog(), nil
	}
	c, err := billing.LoadCatalogFile(cfg.PlansFile)
	if err != nil {
		return nil, fmt.Errorf("load plans: %w", err)
	}
	return c, nil
}

func wireServices(log *logger.Logger, cfg Config, catalog *billing.Catalog, repos Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	policy, err := usage.ParsePolicy(cfg.UsageLimitPolicy)
	if err != nil {
		return Services{}, fmt.Errorf("USAGE_LIMIT_POLICY: %w", err)
	}

	identity, err := services.NewIdentityService(log, services.IdentityConfig{
		Mode:            cfg.IdentityMode,
		JWTSecret:       cfg.Supabase.JWTSecret,
		RequireAudience: cfg.Supabase.RequireAudience,
	}, clients.Supabase)
	if err != nil {
		return Services{}, fmt.Errorf("init identity service: %w", err)
	}

	usageSvc := services.NewUsageService(log, repos.Subscription, repos.Evaluation, repos.Usage, clients.Cache, catalog, policy, metrics)
	return Services{
		Identity:   identity,
		Usage:      usageSvc,
		Evaluation: services.NewEvaluationService(log, repos.Evaluation, repos.Usage, usageSvc, metrics),
		Billing:    services.NewBillingService(log, clients.Stripe, usageSvc, repos.Subscription, repos.BillingEvent, clients.Cache, catalog, metrics),
		Scoring:    services.NewScoringService(log, cfg.ScoringSeed),
	}, nil
}
