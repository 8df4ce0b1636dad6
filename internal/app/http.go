package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/edgeslab/edges-backend/internal/clients/redis"
	"github.com/edgeslab/edges-backend/internal/http"
	httpH "github.com/edgeslab/edges-backend/internal/http/handlers"
	httpMW "github.com/edgeslab/edges-backend/internal/http/middleware"
	"github.com/edgeslab/edges-backend/internal/observability"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
	"github.com/edgeslab/edges-backend/internal/radar"
	"github.com/edgeslab/edges-backend/internal/session"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Me         *httpH.MeHandler
	Session    *httpH.SessionHandler
	Evaluation *httpH.EvaluationHandler
	Billing    *httpH.BillingHandler
}

func wireHandlers(log *logger.Logger, cfg Config, db *gorm.DB, cache redis.Cache, services Services, sessions *session.Store, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	deps := map[string]httpH.Pinger{
		"postgres": httpH.PingFunc(func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
		"redis": cache,
	}
	return Handlers{
		Health:     httpH.NewHealthHandler(deps),
		Me:         httpH.NewMeHandler(),
		Session:    httpH.NewSessionHandler(log, sessions, services.Evaluation, services.Usage, services.Scoring, metrics, radar.RenderOptions{FontPath: cfg.ChartFontPath}),
		Evaluation: httpH.NewEvaluationHandler(services.Evaluation, services.Usage),
		Billing:    httpH.NewBillingHandler(services.Billing, cfg.PublicOrigin),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Identity),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		ServiceName:       cfg.Otel.ServiceName,
		TracingEnabled:    cfg.Otel.Enabled,
		CORSOrigins:       cfg.CORSOrigins,
		AuthMiddleware:    middleware.Auth,
		MeHandler:         handlers.Me,
		SessionHandler:    handlers.Session,
		EvaluationHandler: handlers.Evaluation,
		BillingHandler:    handlers.Billing,
		HealthHandler:     handlers.Health,
	})
}
