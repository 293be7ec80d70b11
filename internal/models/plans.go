package models

// PlanTier is the subscription level gating feature usage limits.
type PlanTier string

const (
	PlanFree    PlanTier = "free"
	PlanPro     PlanTier = "pro"
	PlanPremium PlanTier = "premium"
)

// Known reports whether the tier is one of the supported plans.
func (t PlanTier) Known() bool {
	switch t {
	case PlanFree, PlanPro, PlanPremium:
		return true
	}
	return false
}

// Unlimited is the sentinel for a plan limit with no cap.
const Unlimited = -1

// UsageCounters tracks per-session consumption of the gated features.
// Counters are session-scoped and reset to zero whenever the plan changes.
type UsageCounters struct {
	Profiles int `json:"profiles"`
	Openers  int `json:"openers"`
}

// PlanLimits is the maximum permitted count per feature per period.
type PlanLimits struct {
	Profiles int
	Openers  int
}

var planLimits = map[PlanTier]PlanLimits{
	PlanFree:    {Profiles: 2, Openers: 1},
	PlanPro:     {Profiles: Unlimited, Openers: 100},
	PlanPremium: {Profiles: Unlimited, Openers: Unlimited},
}

// LimitsFor returns the static limits of a plan tier. Unknown tiers get the
// free limits.
func LimitsFor(tier PlanTier) PlanLimits {
	if limits, ok := planLimits[tier]; ok {
		return limits
	}
	return planLimits[PlanFree]
}
