package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeslab/edges-backend/internal/domain/billing"
)

func TestPercentUsed(t *testing.T) {
	cases := []struct {
		used, limit, want int
	}{
		{0, 5, 0},
		{1, 5, 20},
		{5, 5, 100},
		{6, 5, 100},
		{1, 3, 33},
		{2, 3, 67},
		{46, 50, 92},
		{3, 0, 100},
	}
	for _, tc := range cases {
		tr := Tracker{EvaluationsUsed: tc.used, MonthlyLimit: tc.limit}
		assert.Equal(t, tc.want, tr.PercentUsed(), "%d/%d", tc.used, tc.limit)
	}
}

func TestStatusThresholds(t *testing.T) {
	assert.Equal(t, StatusOK, Tracker{EvaluationsUsed: 45, MonthlyLimit: 50}.Status())
	assert.Equal(t, StatusApproaching, Tracker{EvaluationsUsed: 46, MonthlyLimit: 50}.Status())
	assert.Equal(t, StatusReached, Tracker{EvaluationsUsed: 50, MonthlyLimit: 50}.Status())

	assert.Nil(t, Tracker{EvaluationsUsed: 1, MonthlyLimit: 50}.Warnings())
	assert.Equal(t, []string{MessageApproaching}, Tracker{EvaluationsUsed: 46, MonthlyLimit: 50}.Warnings())
	assert.Equal(t, []string{MessageApproaching, MessageReached}, Tracker{EvaluationsUsed: 5, MonthlyLimit: 5}.Warnings())
}

func TestSoftLimitAllowsSavePastQuota(t *testing.T) {
	catalog := billing.DefaultCatalog()
	tr := NewFree(catalog)
	tr.EvaluationsUsed = 5

	require.NoError(t, tr.CanSave(PolicySoft))
	tr.RecordSave()
	assert.Equal(t, 6, tr.EvaluationsUsed)
	assert.Equal(t, 100, tr.PercentUsed())
	assert.Equal(t, StatusReached, tr.Status())
}

func TestHardLimitBlocksAtQuota(t *testing.T) {
	tr := Tracker{Tier: billing.TierFree, EvaluationsUsed: 5, MonthlyLimit: 5}
	assert.ErrorIs(t, tr.CanSave(PolicyHard), ErrLimitReached)

	tr.EvaluationsUsed = 4
	assert.NoError(t, tr.CanSave(PolicyHard))
}

func TestChangeTierResetsCounter(t *testing.T) {
	catalog := billing.DefaultCatalog()
	tr := Tracker{Tier: billing.TierFree, EvaluationsUsed: 4, MonthlyLimit: 5}

	tr.ChangeTier(billing.TierProfessional, catalog)
	assert.Equal(t, Tracker{Tier: billing.TierProfessional, EvaluationsUsed: 0, MonthlyLimit: 50}, tr)

	tr.ChangeTier(billing.TierEnterprise, catalog)
	assert.Equal(t, 999, tr.MonthlyLimit)
}

func TestCancelRevertsToFree(t *testing.T) {
	catalog := billing.DefaultCatalog()
	tr := Tracker{Tier: billing.TierProfessional, EvaluationsUsed: 30, MonthlyLimit: 50}
	tr.Cancel(catalog)
	assert.Equal(t, Tracker{Tier: billing.TierFree, EvaluationsUsed: 0, MonthlyLimit: 5}, tr)
}

func TestRolloverKeepsPlan(t *testing.T) {
	tr := Tracker{Tier: billing.TierProfessional, EvaluationsUsed: 30, MonthlyLimit: 50}
	tr.Rollover()
	assert.Equal(t, Tracker{Tier: billing.TierProfessional, EvaluationsUsed: 0, MonthlyLimit: 50}, tr)
}

func TestCounterOnlyDecreasesOnReset(t *testing.T) {
	tr := NewFree(billing.DefaultCatalog())
	prev := tr.EvaluationsUsed
	for i := 0; i < 8; i++ {
		tr.RecordSave()
		assert.Greater(t, tr.EvaluationsUsed, prev)
		prev = tr.EvaluationsUsed
	}
}

func TestReconcile(t *testing.T) {
	tr := Tracker{EvaluationsUsed: 9, MonthlyLimit: 5}
	tr.Reconcile(3)
	assert.Equal(t, 3, tr.EvaluationsUsed)
	tr.Reconcile(-1)
	assert.Equal(t, 0, tr.EvaluationsUsed)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicySoft, p)

	p, err = ParsePolicy(" HARD ")
	require.NoError(t, err)
	assert.Equal(t, PolicyHard, p)

	_, err = ParsePolicy("strict")
	assert.Error(t, err)
}
