package app

import (
	"errors"
	"fmt"

	"github.com/edgeslab/edges-backend/internal/clients/redis"
	"github.com/edgeslab/edges-backend/internal/clients/stripe"
	"github.com/edgeslab/edges-backend/internal/clients/supabase"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
)

type Clients struct {
	Cache    redis.Cache
	Stripe   stripe.Client
	Supabase supabase.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	out.Cache = redis.Noop{}
	if cfg.Redis.Addr != "" {
		c, err := redis.NewCache(redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		}, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis cache: %w", err)
		}
		out.Cache = c
	} else {
		log.Warn("REDIS_ADDR not set, usage cache and webhook claims disabled")
	}

	// Stripe
	sc, err := stripe.NewClient(stripe.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		Breaker:       stripe.DefaultBreakerConfig("stripe"),
	}, log)
	switch {
	case errors.Is(err, stripe.ErrNotConfigured):
		log.Warn("STRIPE_SECRET_KEY not set, paid checkout and webhooks disabled")
	case err != nil:
		_ = out.Cache.Close()
		return Clients{}, fmt.Errorf("init stripe client: %w", err)
	default:
		out.Stripe = sc
	}

	// Supabase
	if cfg.Supabase.URL != "" && cfg.Supabase.ServiceRoleKey != "" {
		sb, err := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey, log)
		if err != nil {
			_ = out.Cache.Close()
			return Clients{}, fmt.Errorf("init supabase client: %w", err)
		}
		out.Supabase = sb
	}

	return out, nil
}

func (c Clients) Close() {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
}
