package stripe

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/edgeslab/edges-backend/internal/domain/billing"
)

const (
	metaUserID       = "user_id"
	metaPlanID       = "plan_id"
	metaMonthlyLimit = "monthly_evaluation_limit"

	billingReasonCycle = "subscription_cycle"
)

// ParseWebhook verifies the Stripe-Signature header and decodes the event
// into the fields the usage tracker needs.
func (c *stripeClient) ParseWebhook(payload []byte, signature string) (*billing.Event, error) {
	if c.webhookSecret == "" {
		return nil, ErrNotConfigured
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return decodeEvent(ev, payload)
}

func decodeEvent(ev stripeapi.Event, payload []byte) (*billing.Event, error) {
	out := &billing.Event{ID: ev.ID, Type: billing.EventType(string(ev.Type)), Raw: payload}
	if ev.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedEvent)
	}

	switch out.Type {
	case billing.EventCheckoutCompleted:
		var sess stripeapi.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		userID, err := uuid.Parse(sess.Metadata[metaUserID])
		if err != nil {
			return nil, fmt.Errorf("%w: missing user_id in session metadata", ErrMalformedEvent)
		}
		tier, err := billing.ParseTier(sess.Metadata[metaPlanID])
		if err != nil {
			return nil, fmt.Errorf("%w: plan_id: %v", ErrMalformedEvent, err)
		}
		out.UserID = userID
		out.Tier = tier
		if n, err := strconv.Atoi(sess.Metadata[metaMonthlyLimit]); err == nil {
			out.MonthlyLimit = n
		}
		if sess.Customer != nil {
			out.CustomerID = sess.Customer.ID
		}
		if sess.Subscription != nil {
			out.SubscriptionID = sess.Subscription.ID
		}

	case billing.EventSubscriptionUpdated, billing.EventSubscriptionDeleted:
		var sub stripeapi.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		out.SubscriptionID = sub.ID
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}

	case billing.EventInvoicePaid:
		var inv stripeapi.Invoice
		if err := json.Unmarshal(ev.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
		out.CycleRollover = string(inv.BillingReason) == billingReasonCycle
	}
	return out, nil
}
