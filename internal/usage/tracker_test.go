package usage

import (
	"testing"

	"flaire-cli/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanProceedFreeLimits(t *testing.T) {
	counters := models.UsageCounters{}
	assert.True(t, CanProceed(FeatureProfiles, models.PlanFree, counters))
	assert.True(t, CanProceed(FeatureOpeners, models.PlanFree, counters))

	counters = models.UsageCounters{Profiles: 2, Openers: 1}
	assert.False(t, CanProceed(FeatureProfiles, models.PlanFree, counters))
	assert.False(t, CanProceed(FeatureOpeners, models.PlanFree, counters))
}

func TestCanProceedUnlimited(t *testing.T) {
	counters := models.UsageCounters{Profiles: 10_000, Openers: 10_000}
	assert.True(t, CanProceed(FeatureProfiles, models.PlanPro, counters))
	assert.True(t, CanProceed(FeatureProfiles, models.PlanPremium, counters))
	assert.True(t, CanProceed(FeatureOpeners, models.PlanPremium, counters))
	assert.False(t, CanProceed(FeatureOpeners, models.PlanPro, counters), "pro openers are capped at 100")
}

func TestCanProceedUnknownFeature(t *testing.T) {
	assert.False(t, CanProceed(Feature("teleport"), models.PlanPremium, models.UsageCounters{}))
}

func TestTrackerDeniesThirdProfileOnFree(t *testing.T) {
	tracker := NewTracker(models.PlanFree)

	require.NoError(t, tracker.Allow(FeatureProfiles))
	tracker.Record(FeatureProfiles)
	require.NoError(t, tracker.Allow(FeatureProfiles))
	tracker.Record(FeatureProfiles)

	err := tracker.Allow(FeatureProfiles)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestTrackerPlanChangeResetsCounters(t *testing.T) {
	tracker := NewTracker(models.PlanFree)
	tracker.Record(FeatureProfiles)
	tracker.Record(FeatureProfiles)
	tracker.Record(FeatureOpeners)
	require.Equal(t, models.UsageCounters{Profiles: 2, Openers: 1}, tracker.Counters())

	tracker.SetPlan(models.PlanPro)
	assert.Equal(t, models.UsageCounters{}, tracker.Counters())
	assert.Equal(t, models.PlanPro, tracker.Plan())
}

func TestTrackerSamePlanKeepsCounters(t *testing.T) {
	tracker := NewTracker(models.PlanFree)
	tracker.Record(FeatureOpeners)

	tracker.SetPlan(models.PlanFree)
	assert.Equal(t, models.UsageCounters{Openers: 1}, tracker.Counters())
}
