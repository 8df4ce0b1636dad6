package billing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EventType names the payment-processor notifications the usage tracker reacts to.
type EventType string

const (
	EventCheckoutCompleted   EventType = "checkout.session.completed"
	EventSubscriptionUpdated EventType = "customer.subscription.updated"
	EventSubscriptionDeleted EventType = "customer.subscription.deleted"
	EventInvoicePaid         EventType = "invoice.paid"
)

// Event is a provider notification already verified and decoded by the processor client.
type Event struct {
	ID   string
	Type EventType

	UserID         uuid.UUID
	Tier           Tier
	MonthlyLimit   int
	CustomerID     string
	SubscriptionID string
	CycleRollover  bool
	Raw            []byte
}

// BillingEvent records a processed provider event so it is applied at most once.
type BillingEvent struct {
	ID      string         `gorm:"primaryKey;column:id" json:"id"`
	Type    string         `gorm:"not null;index;column:type" json:"type"`
	UserID  *uuid.UUID     `gorm:"type:uuid;index;column:user_id" json:"user_id,omitempty"`
	Outcome string         `gorm:"not null;column:outcome" json:"outcome"`
	Payload datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
	// RequestID is the X-Request-Id of the delivery that applied the event.
	RequestID string    `gorm:"column:request_id;index" json:"request_id,omitempty"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (BillingEvent) TableName() string { return "billing_events" }
