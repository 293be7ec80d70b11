package usage

import (
	"errors"
	"sync"

	"flaire-cli/internal/models"

	"github.com/rs/zerolog/log"
)

// Feature is a gated capability.
type Feature string

const (
	FeatureProfiles Feature = "profiles"
	FeatureOpeners  Feature = "openers"
)

// ErrQuotaExceeded is the gate-denial signal raised before a workflow starts.
// It is a paywall prompt, not a fault.
var ErrQuotaExceeded = errors.New("plan limit reached")

// CanProceed reports whether one more use of the feature fits within the
// plan's limits given the counters consumed so far. Pure function.
func CanProceed(feature Feature, plan models.PlanTier, counters models.UsageCounters) bool {
	limits := models.LimitsFor(plan)

	var limit, used int
	switch feature {
	case FeatureProfiles:
		limit, used = limits.Profiles, counters.Profiles
	case FeatureOpeners:
		limit, used = limits.Openers, counters.Openers
	default:
		return false
	}

	if limit == models.Unlimited {
		return true
	}
	return used < limit
}

// Tracker holds the session-scoped usage counters for one plan. Counters are
// deliberately not persisted across process restarts.
type Tracker struct {
	mu       sync.Mutex
	plan     models.PlanTier
	counters models.UsageCounters
}

// NewTracker creates a tracker for the given plan with zero counters.
func NewTracker(plan models.PlanTier) *Tracker {
	return &Tracker{plan: plan}
}

// Allow checks the gate for one more use of the feature. It must be called
// before any transcoding or network work begins.
func (t *Tracker) Allow(feature Feature) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !CanProceed(feature, t.plan, t.counters) {
		log.Info().
			Str("feature", string(feature)).
			Str("plan", string(t.plan)).
			Msg("Usage limit reached")
		return ErrQuotaExceeded
	}
	return nil
}

// Record consumes one use of the feature. Called exactly once per successful
// workflow completion, never on error.
func (t *Tracker) Record(feature Feature) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch feature {
	case FeatureProfiles:
		t.counters.Profiles++
	case FeatureOpeners:
		t.counters.Openers++
	}
}

// SetPlan switches the active plan. Any tier change, upgrade included, resets
// the counters to zero.
func (t *Tracker) SetPlan(plan models.PlanTier) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if plan == t.plan {
		return
	}
	t.plan = plan
	t.counters = models.UsageCounters{}
}

// Counters returns a snapshot of the consumed counts.
func (t *Tracker) Counters() models.UsageCounters {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counters
}

// Plan returns the tier the tracker is currently gating against.
func (t *Tracker) Plan() models.PlanTier {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.plan
}
