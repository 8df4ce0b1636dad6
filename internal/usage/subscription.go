package usage

import "github.com/edgeslab/edges-backend/internal/domain/billing"

// FromSubscription reads the tracker state out of a stored row.
func FromSubscription(sub *billing.Subscription) Tracker {
	return Tracker{
		Tier:            billing.Tier(sub.Tier),
		EvaluationsUsed: sub.EvaluationsUsed,
		MonthlyLimit:    sub.MonthlyEvaluationLimit,
	}
}

// ApplyTo writes the tracker state back onto a stored row.
func (t Tracker) ApplyTo(sub *billing.Subscription) {
	sub.Tier = string(t.Tier)
	sub.EvaluationsUsed = t.EvaluationsUsed
	sub.MonthlyEvaluationLimit = t.MonthlyLimit
}
