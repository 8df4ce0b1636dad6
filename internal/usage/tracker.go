// Package usage is the monthly evaluation quota state machine. It holds no
// I/O; callers load a Tracker from storage, apply one event and persist it.
package usage

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/edgeslab/edges-backend/internal/domain/billing"
)

var ErrLimitReached = errors.New("monthly evaluation limit reached")

// Policy decides whether a save past the quota is allowed.
type Policy string

const (
	// PolicySoft warns at the limit but never blocks a save.
	PolicySoft Policy = "soft"
	PolicyHard Policy = "hard"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PolicySoft:
		return PolicySoft, nil
	case PolicyHard:
		return PolicyHard, nil
	default:
		return "", fmt.Errorf("unknown usage limit policy %q", s)
	}
}

type Status string

const (
	StatusOK          Status = "ok"
	StatusApproaching Status = "approaching"
	StatusReached     Status = "reached"
	// StatusUnknown is reported when the counter could not be read.
	StatusUnknown Status = "unknown"
)

const (
	MessageApproaching = "You're approaching your monthly evaluation limit"
	MessageReached     = "You've reached your monthly evaluation limit"
)

type Tracker struct {
	Tier            billing.Tier `json:"tier"`
	EvaluationsUsed int          `json:"evaluationsUsed"`
	MonthlyLimit    int          `json:"monthlyEvaluationLimit"`
}

// NewFree is the state of a user with no subscription row yet.
func NewFree(catalog *billing.Catalog) Tracker {
	return Tracker{Tier: billing.TierFree, MonthlyLimit: catalog.Limit(billing.TierFree)}
}

// CanSave reports whether policy admits one more save.
func (t Tracker) CanSave(p Policy) error {
	if p == PolicyHard && t.MonthlyLimit > 0 && t.EvaluationsUsed >= t.MonthlyLimit {
		return ErrLimitReached
	}
	return nil
}

// RecordSave counts one persisted evaluation.
func (t *Tracker) RecordSave() {
	t.EvaluationsUsed++
}

// ChangeTier moves to a new plan with a fresh counter.
func (t *Tracker) ChangeTier(tier billing.Tier, catalog *billing.Catalog) {
	t.Tier = tier
	t.EvaluationsUsed = 0
	t.MonthlyLimit = catalog.Limit(tier)
}

// Cancel reverts to the free plan. The counter is reset so the user is not
// left over a quota they never had.
func (t *Tracker) Cancel(catalog *billing.Catalog) {
	t.ChangeTier(billing.TierFree, catalog)
}

// Rollover starts a new billing cycle on the same plan.
func (t *Tracker) Rollover() {
	t.EvaluationsUsed = 0
}

// Reconcile overwrites the counter with an authoritative row count.
func (t *Tracker) Reconcile(rowCount int) {
	if rowCount < 0 {
		rowCount = 0
	}
	t.EvaluationsUsed = rowCount
}

// PercentUsed is used/limit as a rounded percentage, capped at 100.
func (t Tracker) PercentUsed() int {
	if t.MonthlyLimit <= 0 {
		return 100
	}
	pct := int(math.Round(float64(t.EvaluationsUsed) / float64(t.MonthlyLimit) * 100))
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

func (t Tracker) Status() Status {
	switch pct := t.PercentUsed(); {
	case pct >= 100:
		return StatusReached
	case pct > 90:
		return StatusApproaching
	default:
		return StatusOK
	}
}

// Warnings returns the user-facing notices for the current status. At the
// limit both notices apply.
func (t Tracker) Warnings() []string {
	switch t.Status() {
	case StatusReached:
		return []string{MessageApproaching, MessageReached}
	case StatusApproaching:
		return []string{MessageApproaching}
	}
	return nil
}
