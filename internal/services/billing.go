package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"

	"github.com/edgeslab/edges-backend/internal/clients/redis"
	"github.com/edgeslab/edges-backend/internal/clients/stripe"
	"github.com/edgeslab/edges-backend/internal/data/repos"
	"github.com/edgeslab/edges-backend/internal/domain/billing"
	"github.com/edgeslab/edges-backend/internal/observability"
	"github.com/edgeslab/edges-backend/internal/platform/apierr"
	"github.com/edgeslab/edges-backend/internal/platform/ctxutil"
	"github.com/edgeslab/edges-backend/internal/platform/dbctx"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
)

const (
	FreePlanActivatedMessage = "Free plan activated successfully"

	webhookClaimTTL = 24 * time.Hour
)

// Webhook outcomes, recorded per provider event.
const (
	OutcomeApplied   = "applied"
	OutcomeIgnored   = "ignored"
	OutcomeDuplicate = "duplicate"
)

type CheckoutResult struct {
	Success   bool           `json:"success,omitempty"`
	Message   string         `json:"message,omitempty"`
	URL       string         `json:"url,omitempty"`
	SessionID string         `json:"sessionId,omitempty"`
	Usage     *UsageSnapshot `json:"usage,omitempty"`
}

type WebhookResult struct {
	Received  bool   `json:"received"`
	EventID   string `json:"eventId,omitempty"`
	Outcome   string `json:"outcome"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

type BillingService interface {
	Plans() []billing.Plan
	CreateCheckout(ctx context.Context, id ctxutil.Identity, planID, origin string) (*CheckoutResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error)
}

type billingService struct {
	log     *logger.Logger
	stripe  stripe.Client
	usage   UsageService
	subs    repos.SubscriptionRepo
	events  repos.BillingEventRepo
	cache   redis.Cache
	catalog *billing.Catalog
	metrics *observability.Metrics
}

// NewBillingService accepts a nil processor client; paid checkouts and
// webhooks then fail with a 503.
func NewBillingService(
	log *logger.Logger,
	sc stripe.Client,
	usageSvc UsageService,
	subs repos.SubscriptionRepo,
	events repos.BillingEventRepo,
	cache redis.Cache,
	catalog *billing.Catalog,
	metrics *observability.Metrics,
) BillingService {
	if cache == nil {
		cache = redis.Noop{}
	}
	return &billingService{
		log:     log.With("service", "BillingService"),
		stripe:  sc,
		usage:   usageSvc,
		subs:    subs,
		events:  events,
		cache:   cache,
		catalog: catalog,
		metrics: metrics,
	}
}

func (s *billingService) Plans() []billing.Plan { return s.catalog.Plans() }

func (s *billingService) CreateCheckout(ctx context.Context, id ctxutil.Identity, planID, origin string) (*CheckoutResult, error) {
	if !id.Authenticated() {
		return nil, apierr.Unauthorized(errors.New("sign in to change plans"))
	}
	tier, err := billing.ParseTier(planID)
	if err != nil {
		s.metrics.Checkout(planID, "invalid")
		return nil, apierr.BadRequest("invalid_plan", errors.New("invalid plan selected"))
	}
	plan, ok := s.catalog.Plan(tier)
	if !ok {
		s.metrics.Checkout(planID, "invalid")
		return nil, apierr.BadRequest("invalid_plan", errors.New("invalid plan selected"))
	}

	if !plan.Paid() {
		snap, err := s.usage.ApplyTierChange(ctx, id.UserID, tier, "", "")
		if err != nil {
			s.metrics.Checkout(string(tier), "error")
			return nil, err
		}
		s.metrics.Checkout(string(tier), "activated")
		return &CheckoutResult{Success: true, Message: FreePlanActivatedMessage, Usage: &snap}, nil
	}

	if s.stripe == nil {
		s.metrics.Checkout(string(tier), "unconfigured")
		return nil, apierr.New(http.StatusServiceUnavailable, "billing_unavailable", stripe.ErrNotConfigured)
	}
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	sess, err := s.stripe.CreateCheckoutSession(ctx, stripe.CheckoutRequest{
		UserID:     id.UserID,
		Email:      id.Email,
		Plan:       plan,
		SuccessURL: origin + "/subscription-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  origin + "/subscription-canceled",
	})
	if err != nil {
		s.metrics.Checkout(string(tier), "error")
		if errors.Is(err, stripe.ErrUnavailable) {
			return nil, apierr.Retryable(http.StatusServiceUnavailable, "billing_unavailable", err)
		}
		return nil, apierr.Retryable(http.StatusBadGateway, "checkout_failed", fmt.Errorf("could not start checkout: %w", err))
	}
	s.metrics.Checkout(string(tier), "created")
	s.log.Info("checkout session created", "user_id", id.UserID.String(), "plan", string(tier), "checkout_session_id", sess.ID)
	return &CheckoutResult{URL: sess.URL, SessionID: sess.ID}, nil
}

// HandleWebhook verifies and applies one provider notification. A redis claim
// and the billing_events table together keep each event at most once; a
// failed application releases the claim so the provider's retry is processed.
func (s *billingService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	ctx, span := observability.Tracer("billing").Start(ctx, "billing.webhook")
	defer span.End()

	if s.stripe == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "billing_unavailable", stripe.ErrNotConfigured)
	}
	ev, err := s.stripe.ParseWebhook(payload, signature)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse webhook")
		s.metrics.BillingEvent("unknown", "rejected")
		switch {
		case errors.Is(err, stripe.ErrNotConfigured):
			return nil, apierr.New(http.StatusServiceUnavailable, "billing_unavailable", err)
		case errors.Is(err, stripe.ErrInvalidSignature):
			return nil, apierr.BadRequest("invalid_signature", err)
		default:
			return nil, apierr.BadRequest("malformed_event", err)
		}
	}
	requestID := ctxutil.RequestID(ctx)
	span.SetAttributes(
		attribute.String("billing.event_id", ev.ID),
		attribute.String("billing.event_type", string(ev.Type)),
		attribute.String("http.request_id", requestID),
	)

	claimKey := "billing_event:" + ev.ID
	claimed, err := s.cache.Claim(ctx, claimKey, webhookClaimTTL)
	if err != nil {
		s.log.Warn("webhook claim failed, falling back to table check", "event_id", ev.ID, "error", err)
		claimed = true
	}
	if !claimed {
		return s.duplicate(ev), nil
	}
	seen, err := s.events.Exists(dbctx.Context{Ctx: ctx}, ev.ID)
	if err != nil {
		s.release(ctx, claimKey)
		return nil, apierr.Retryable(http.StatusServiceUnavailable, "billing_store_unavailable", err)
	}
	if seen {
		return s.duplicate(ev), nil
	}

	userID, outcome, err := s.dispatch(ctx, ev)
	if err != nil {
		s.release(ctx, claimKey)
		span.RecordError(err)
		span.SetStatus(codes.Error, "apply webhook")
		s.metrics.BillingEvent(string(ev.Type), "failed")
		s.log.Error("webhook application failed", "event_id", ev.ID, "type", string(ev.Type), "request_id", requestID, "error", err)
		return nil, err
	}

	rec := &billing.BillingEvent{
		ID:        ev.ID,
		Type:      string(ev.Type),
		Outcome:   outcome,
		Payload:   datatypes.JSON(ev.Raw),
		RequestID: requestID,
	}
	if userID != uuid.Nil {
		rec.UserID = &userID
	}
	if err := s.events.Create(dbctx.Context{Ctx: ctx}, rec); err != nil {
		if errors.Is(err, repos.ErrDuplicateEvent) {
			return s.duplicate(ev), nil
		}
		// The transition is already committed; a retry would be caught by the claim.
		s.log.Warn("record billing event failed", "event_id", ev.ID, "error", err)
	}

	s.metrics.BillingEvent(string(ev.Type), outcome)
	s.log.Info("webhook processed", "event_id", ev.ID, "type", string(ev.Type), "outcome", outcome, "request_id", requestID)
	return &WebhookResult{Received: true, EventID: ev.ID, Outcome: outcome}, nil
}

func (s *billingService) dispatch(ctx context.Context, ev *billing.Event) (uuid.UUID, string, error) {
	switch ev.Type {
	case billing.EventCheckoutCompleted:
		if want := s.catalog.Limit(ev.Tier); ev.MonthlyLimit != 0 && ev.MonthlyLimit != want {
			s.log.Warn("checkout limit differs from plan catalog, using catalog",
				"event_id", ev.ID, "plan", string(ev.Tier), "event_limit", ev.MonthlyLimit, "catalog_limit", want)
		}
		if _, err := s.usage.ApplyTierChange(ctx, ev.UserID, ev.Tier, ev.CustomerID, ev.SubscriptionID); err != nil {
			return ev.UserID, "", err
		}
		return ev.UserID, OutcomeApplied, nil

	case billing.EventSubscriptionDeleted:
		sub, err := s.subs.GetByStripeSubscriptionID(dbctx.Context{Ctx: ctx}, ev.SubscriptionID)
		if errors.Is(err, repos.ErrSubscriptionNotFound) {
			return uuid.Nil, "", apierr.BadRequest("subscription_not_found", fmt.Errorf("no subscription for %s", ev.SubscriptionID))
		}
		if err != nil {
			return uuid.Nil, "", apierr.Retryable(http.StatusServiceUnavailable, "billing_store_unavailable", err)
		}
		if _, err := s.usage.ApplyCancellation(ctx, sub.UserID); err != nil {
			return sub.UserID, "", err
		}
		return sub.UserID, OutcomeApplied, nil

	case billing.EventInvoicePaid:
		if !ev.CycleRollover {
			return uuid.Nil, OutcomeIgnored, nil
		}
		sub, err := s.subs.GetByStripeSubscriptionID(dbctx.Context{Ctx: ctx}, ev.SubscriptionID)
		if errors.Is(err, repos.ErrSubscriptionNotFound) {
			s.log.Warn("rollover for unknown subscription", "event_id", ev.ID)
			return uuid.Nil, OutcomeIgnored, nil
		}
		if err != nil {
			return uuid.Nil, "", apierr.Retryable(http.StatusServiceUnavailable, "billing_store_unavailable", err)
		}
		if _, err := s.usage.ApplyRollover(ctx, sub.UserID); err != nil {
			return sub.UserID, "", err
		}
		return sub.UserID, OutcomeApplied, nil

	default:
		// customer.subscription.updated and anything else is acknowledged only.
		return uuid.Nil, OutcomeIgnored, nil
	}
}

func (s *billingService) duplicate(ev *billing.Event) *WebhookResult {
	s.metrics.BillingEvent(string(ev.Type), OutcomeDuplicate)
	s.log.Info("duplicate webhook ignored", "event_id", ev.ID, "type", string(ev.Type))
	return &WebhookResult{Received: true, EventID: ev.ID, Outcome: OutcomeDuplicate, Duplicate: true}
}

func (s *billingService) release(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.Warn("release webhook claim failed", "key", key, "error", err)
	}
}
