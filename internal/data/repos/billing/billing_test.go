package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/edgeslab/edges-backend/internal/data/repos/testutil"
	types "github.com/edgeslab/edges-backend/internal/domain/billing"
	"github.com/edgeslab/edges-backend/internal/platform/dbctx"
)

func TestSubscriptionRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewSubscriptionRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	userID := uuid.New()

	if _, err := repo.GetByUserID(dbc, userID); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Fatalf("GetByUserID: expected ErrSubscriptionNotFound, got %v", err)
	}

	sub, err := repo.EnsureForUser(dbc, userID, 5)
	if err != nil {
		t.Fatalf("EnsureForUser: %v", err)
	}
	if sub.Tier != "free" || sub.MonthlyEvaluationLimit != 5 || sub.EvaluationsUsed != 0 {
		t.Fatalf("EnsureForUser: unexpected row %+v", sub)
	}

	if err := repo.UpdateFields(dbc, userID, map[string]interface{}{"evaluations_used": 4}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	again, err := repo.EnsureForUser(dbc, userID, 5)
	if err != nil {
		t.Fatalf("EnsureForUser again: %v", err)
	}
	if again.EvaluationsUsed != 4 {
		t.Fatalf("EnsureForUser must not reset an existing row, got %d", again.EvaluationsUsed)
	}

	ok, err := repo.Increment(dbc, userID, true)
	if err != nil || !ok {
		t.Fatalf("Increment below limit: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Increment(dbc, userID, true)
	if err != nil || ok {
		t.Fatalf("Increment at limit with cap: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Increment(dbc, userID, false)
	if err != nil || !ok {
		t.Fatalf("Increment at limit without cap: ok=%v err=%v", ok, err)
	}
	sub, _ = repo.GetByUserID(dbc, userID)
	if sub.EvaluationsUsed != 6 {
		t.Fatalf("expected 6 used, got %d", sub.EvaluationsUsed)
	}

	sub.Tier = string(types.TierProfessional)
	sub.MonthlyEvaluationLimit = 50
	sub.EvaluationsUsed = 0
	sub.StripeCustomerID = "cus_123"
	sub.StripeSubscriptionID = "sub_123"
	if err := repo.Upsert(dbc, sub); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	byStripe, err := repo.GetByStripeSubscriptionID(dbc, "sub_123")
	if err != nil {
		t.Fatalf("GetByStripeSubscriptionID: %v", err)
	}
	if byStripe.UserID != userID || byStripe.Tier != "professional" || byStripe.MonthlyEvaluationLimit != 50 {
		t.Fatalf("GetByStripeSubscriptionID: unexpected row %+v", byStripe)
	}

	if err := repo.UpdateFields(dbc, uuid.New(), map[string]interface{}{"tier": "free"}); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Fatalf("UpdateFields unknown user: expected ErrSubscriptionNotFound, got %v", err)
	}
}

func TestBillingEventRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewBillingEventRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	ev := &types.BillingEvent{ID: "evt_1", Type: string(types.EventCheckoutCompleted), Outcome: "applied"}
	if err := repo.Create(dbc, ev); err != nil {
		t.Fatalf("Create: %v", err)
	}
	exists, err := repo.Exists(dbc, "evt_1")
	if err != nil || !exists {
		t.Fatalf("Exists: %v %v", exists, err)
	}
	if err := repo.Create(dbc, &types.BillingEvent{ID: "evt_1", Type: "x", Outcome: "applied"}); !errors.Is(err, ErrDuplicateEvent) {
		t.Fatalf("Create duplicate: expected ErrDuplicateEvent, got %v", err)
	}
}
