package stripe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/edgeslab/edges-backend/internal/domain/billing"
	"github.com/edgeslab/edges-backend/internal/platform/logger"
)

var (
	ErrNotConfigured    = errors.New("payment processor not configured")
	ErrUnavailable      = errors.New("payment processor temporarily unavailable")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed webhook event")
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	Breaker       BreakerConfig
}

type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

type CheckoutRequest struct {
	UserID     uuid.UUID
	Email      string
	Plan       billing.Plan
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Client interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*billing.Event, error)
}

// backend is the slice of the Stripe API the client calls.
type backend interface {
	FindCustomerByEmail(ctx context.Context, email string) (string, error)
	NewCheckoutSession(params *stripeapi.CheckoutSessionParams) (*stripeapi.CheckoutSession, error)
}

type stripeClient struct {
	log           *logger.Logger
	api           backend
	webhookSecret string
	cb            *gobreaker.CircuitBreaker
}

func NewClient(cfg Config, log *logger.Logger) (Client, error) {
	if cfg.SecretKey == "" {
		return nil, ErrNotConfigured
	}
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)
	return newClient(cfg, log, &apiBackend{sc: sc}), nil
}

func newClient(cfg Config, log *logger.Logger, api backend) *stripeClient {
	if log == nil {
		log = logger.Nop()
	}
	clientLog := log.With("client", "StripeClient")
	bc := cfg.Breaker
	if bc.Name == "" {
		bc = DefaultBreakerConfig("stripe")
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        bc.Name,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bc.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= bc.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			clientLog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &stripeClient{
		log:           clientLog,
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		cb:            cb,
	}
}

// CreateCheckoutSession opens a monthly subscription checkout for a paid
// plan, reusing the customer record that matches the email if there is one.
func (c *stripeClient) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if !req.Plan.Paid() {
		return nil, fmt.Errorf("%w: %s has no checkout", billing.ErrUnknownPlan, req.Plan.ID)
	}

	out, err := c.cb.Execute(func() (interface{}, error) {
		customerID, err := c.api.FindCustomerByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("lookup customer: %w", err)
		}
		return c.api.NewCheckoutSession(checkoutParams(ctx, req, customerID))
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		c.log.Error("create checkout session failed", "plan", string(req.Plan.ID), "error", err)
		return nil, err
	}
	sess := out.(*stripeapi.CheckoutSession)
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func checkoutParams(ctx context.Context, req CheckoutRequest, customerID string) *stripeapi.CheckoutSessionParams {
	currency := req.Plan.Currency
	if currency == "" {
		currency = "usd"
	}
	interval := req.Plan.Interval
	if interval == "" {
		interval = "month"
	}
	params := &stripeapi.CheckoutSessionParams{
		Mode:       stripeapi.String(string(stripeapi.CheckoutSessionModeSubscription)),
		SuccessURL: stripeapi.String(req.SuccessURL),
		CancelURL:  stripeapi.String(req.CancelURL),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
					Currency: stripeapi.String(currency),
					ProductData: &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripeapi.String(req.Plan.Name),
					},
					UnitAmount: stripeapi.Int64(req.Plan.PriceCents),
					Recurring: &stripeapi.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripeapi.String(interval),
					},
				},
				Quantity: stripeapi.Int64(1),
			},
		},
	}
	if customerID != "" {
		params.Customer = stripeapi.String(customerID)
	} else {
		params.CustomerEmail = stripeapi.String(req.Email)
	}
	params.Context = ctx
	params.AddMetadata(metaUserID, req.UserID.String())
	params.AddMetadata(metaPlanID, string(req.Plan.ID))
	params.AddMetadata(metaMonthlyLimit, fmt.Sprintf("%d", req.Plan.MonthlyEvaluationLimit))
	return params
}

type apiBackend struct {
	sc *client.API
}

func (b *apiBackend) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", nil
	}
	params := &stripeapi.CustomerListParams{Email: stripeapi.String(email)}
	params.Limit = stripeapi.Int64(1)
	params.Context = ctx
	iter := b.sc.Customers.List(params)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	return "", iter.Err()
}

func (b *apiBackend) NewCheckoutSession(params *stripeapi.CheckoutSessionParams) (*stripeapi.CheckoutSession, error) {
	return b.sc.CheckoutSessions.New(params)
}
