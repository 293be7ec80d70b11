package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitsForTiers(t *testing.T) {
	free := LimitsFor(PlanFree)
	assert.Equal(t, PlanLimits{Profiles: 2, Openers: 1}, free)

	pro := LimitsFor(PlanPro)
	assert.Equal(t, Unlimited, pro.Profiles)
	assert.Equal(t, 100, pro.Openers)

	premium := LimitsFor(PlanPremium)
	assert.Equal(t, Unlimited, premium.Profiles)
	assert.Equal(t, Unlimited, premium.Openers)
}

func TestFreeLimitsBelowProWhereFinite(t *testing.T) {
	free := LimitsFor(PlanFree)
	pro := LimitsFor(PlanPro)

	// Only the opener limit is finite on both tiers.
	assert.Less(t, free.Openers, pro.Openers)
}

func TestLimitsForUnknownTierFallsBackToFree(t *testing.T) {
	assert.Equal(t, LimitsFor(PlanFree), LimitsFor(PlanTier("enterprise")))
}

func TestPlanTierKnown(t *testing.T) {
	assert.True(t, PlanFree.Known())
	assert.True(t, PlanPro.Known())
	assert.True(t, PlanPremium.Known())
	assert.False(t, PlanTier("gold").Known())
	assert.False(t, PlanTier("").Known())
}

func TestSessionValid(t *testing.T) {
	assert.False(t, (*Session)(nil).Valid())
	assert.False(t, (&Session{Email: "a@b.c"}).Valid())
	assert.True(t, (&Session{Email: "a@b.c", Token: "tok"}).Valid())
}
