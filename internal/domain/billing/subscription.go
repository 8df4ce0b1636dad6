package billing

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is the per-user usage row shared by every session of the user.
type Subscription struct {
	UserID                 uuid.UUID `gorm:"type:uuid;primaryKey;column:user_id" json:"user_id"`
	Tier                   string    `gorm:"not null;default:free;column:tier" json:"tier"`
	EvaluationsUsed        int       `gorm:"not null;default:0;column:evaluations_used" json:"evaluations_used"`
	MonthlyEvaluationLimit int       `gorm:"not null;default:5;column:monthly_evaluation_limit" json:"monthly_evaluation_limit"`
	StripeCustomerID       string    `gorm:"column:stripe_customer_id" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID   string    `gorm:"column:stripe_subscription_id;index" json:"stripe_subscription_id,omitempty"`
	PeriodStartedAt        time.Time `gorm:"not null;column:period_started_at" json:"period_started_at"`
	CreatedAt              time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Subscription) TableName() string { return "subscriptions" }
