package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/edgeslab/edges-backend/internal/http/handlers"
	httpMW "github.com/edgeslab/edges-backend/internal/http/middleware"
	"github.com/edgeslab/edges-backend/internal/observability"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string

	AuthMiddleware    *httpMW.AuthMiddleware
	MeHandler         *httpH.MeHandler
	SessionHandler    *httpH.SessionHandler
	EvaluationHandler *httpH.EvaluationHandler
	BillingHandler    *httpH.BillingHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Billing (public)
		if cfg.BillingHandler != nil {
			api.POST("/billing/webhook", cfg.BillingHandler.Webhook)
			api.GET("/billing/plans", cfg.BillingHandler.Plans)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.MeHandler != nil {
			protected.GET("/me", cfg.MeHandler.GetMe)
		}

		// Evaluation session
		if cfg.SessionHandler != nil {
			protected.GET("/session", cfg.SessionHandler.Get)
			protected.DELETE("/session", cfg.SessionHandler.SignOut)
			protected.POST("/session/load", cfg.SessionHandler.Load)
			protected.POST("/session/concepts", cfg.SessionHandler.AddConcept)
			protected.POST("/session/concepts/ai", cfg.SessionHandler.AddAIConcept)
			protected.PATCH("/session/concepts/:index", cfg.SessionHandler.RenameConcept)
			protected.DELETE("/session/concepts/:index", cfg.SessionHandler.RemoveConcept)
			protected.POST("/session/concepts/:index/save", cfg.SessionHandler.SaveConcept)
			protected.POST("/session/highlight", cfg.SessionHandler.Highlight)
			protected.POST("/session/form", cfg.SessionHandler.SetForm)
			protected.GET("/session/chart", cfg.SessionHandler.Chart)
			protected.GET("/session/chart.html", cfg.SessionHandler.ChartHTML)
			protected.GET("/session/chart.png", cfg.SessionHandler.ChartPNG)
		}

		// Saved evaluations and usage
		if cfg.EvaluationHandler != nil {
			protected.GET("/evaluations", cfg.EvaluationHandler.List)
			protected.GET("/subscription", cfg.EvaluationHandler.Subscription)
		}

		if cfg.BillingHandler != nil {
			protected.POST("/billing/checkout", cfg.BillingHandler.Checkout)
		}
	}

	return r
}
