package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/edgeslab/edges-backend/internal/data/repos/testutil"
	types "github.com/edgeslab/edges-backend/internal/domain/evaluation"
	"github.com/edgeslab/edges-backend/internal/platform/dbctx"
)

func TestEvaluationRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewEvaluationRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	userID := uuid.New()
	other := uuid.New()

	first := testutil.NewEvaluation(userID, "Ad A", "Acme")
	first.KPIsObjectives = "awareness"
	first.AdditionalContext = "launch week"
	first.AssetURL = "https://cdn.example.com/a.png"

	if _, err := repo.Create(dbc, []*types.Evaluation{first}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID == uuid.Nil {
		t.Fatalf("Create: expected id to be assigned")
	}
	if _, err := repo.Create(dbc, []*types.Evaluation{
		testutil.NewEvaluation(userID, "Ad B", ""),
		testutil.NewEvaluation(other, "Not mine", "Acme"),
	}); err != nil {
		t.Fatalf("Create batch: %v", err)
	}

	rows, err := repo.ListByUserID(dbc, userID)
	if err != nil {
		t.Fatalf("ListByUserID: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("ListByUserID: expected 2 rows, got %d", len(rows))
	}

	got := rows[0].ToConcept()
	want := first.ToConcept()
	if *got != *want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}

	count, err := repo.CountByUserSince(dbc, userID, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountByUserSince: %v", err)
	}
	if count != 2 {
		t.Fatalf("CountByUserSince: expected 2, got %d", count)
	}

	count, err = repo.CountByUserSince(dbc, userID, time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("CountByUserSince future: %v", err)
	}
	if count != 0 {
		t.Fatalf("CountByUserSince future: expected 0, got %d", count)
	}
}

func TestEvaluationRepoEmpty(t *testing.T) {
	db := testutil.DB(t)
	repo := NewEvaluationRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}

	created, err := repo.Create(dbc, nil)
	if err != nil || len(created) != 0 {
		t.Fatalf("Create(nil): %v %v", created, err)
	}
	rows, err := repo.ListByUserID(dbc, uuid.Nil)
	if err != nil || len(rows) != 0 {
		t.Fatalf("ListByUserID(nil): %v %v", rows, err)
	}
}
