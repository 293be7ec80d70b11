package workflow

import (
	"context"
	"math/rand/v2"
	"sync"

	"flaire-cli/internal/api"
	"flaire-cli/internal/models"
	"flaire-cli/internal/transcode"
	"flaire-cli/internal/usage"

	"github.com/rs/zerolog/log"
)

// ConfidencePolicy assigns a confidence score to one opener text. The backend
// does not supply a score, so the finalizing stage applies this locally.
type ConfidencePolicy func(text string) int

// PlaceholderConfidence is the default policy: a value in [70,95] that is not
// a scored prediction. TODO: drop this once the backend returns per-starter
// confidence.
func PlaceholderConfidence(string) int {
	value := 60 + rand.IntN(40)
	if value < 70 {
		value = 70
	}
	if value > 95 {
		value = 95
	}
	return value
}

// OpenerBuilder drives the conversation-starter workflow: transcode the
// single target photo, submit it, then enrich the returned starters with
// confidence scores during finalizing.
type OpenerBuilder struct {
	client     *api.Client
	gate       *usage.Tracker
	confidence ConfidencePolicy
	progress   ProgressFunc

	mu       sync.Mutex
	inFlight bool
	stage    Stage
	step     int
	openers  []models.Opener
	err      error
}

// NewOpenerBuilder creates an idle builder with the placeholder confidence
// policy.
func NewOpenerBuilder(client *api.Client, gate *usage.Tracker) *OpenerBuilder {
	return &OpenerBuilder{
		client:     client,
		gate:       gate,
		confidence: PlaceholderConfidence,
		stage:      StageIdle,
	}
}

// SetConfidencePolicy replaces the scoring policy applied during finalizing.
func (b *OpenerBuilder) SetConfidencePolicy(fn ConfidencePolicy) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if fn != nil {
		b.confidence = fn
	}
}

// OnProgress registers the stage-transition observer.
func (b *OpenerBuilder) OnProgress(fn ProgressFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.progress = fn
}

// Stage returns the current lifecycle stage.
func (b *OpenerBuilder) Stage() Stage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stage
}

// StepIndex returns the zero-based progress cursor into StepLabels.
func (b *OpenerBuilder) StepIndex() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.step
}

// StepLabels returns the ordered stage labels for display.
func (b *OpenerBuilder) StepLabels() []string {
	return OpenerSteps
}

// Results returns the last successfully generated openers. A failed
// regeneration does not clear them.
func (b *OpenerBuilder) Results() []models.Opener {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Opener, len(b.openers))
	copy(out, b.openers)
	return out
}

// Err returns the failure of the last invocation, or nil.
func (b *OpenerBuilder) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Build runs one opener-generation invocation for a single target photo.
func (b *OpenerBuilder) Build(ctx context.Context, photo models.CrushPhoto, hint string, preferences map[string]any) ([]models.Opener, error) {
	if photo.Path == "" {
		return nil, ErrNoPhotos
	}
	if err := b.begin(); err != nil {
		return nil, err
	}

	dataURL, err := transcode.DataURL(photo.Path)
	if err != nil {
		return nil, b.fail(err)
	}

	b.transition(StageGenerating, 1)
	starters, err := b.client.GenerateOpeners(ctx, []string{dataURL}, hint, preferences)
	if err != nil {
		return nil, b.fail(err)
	}

	// The backend returns bare text; finalizing enriches each starter with a
	// locally assigned confidence before exposing it.
	b.transition(StageFinalizing, 2)
	b.mu.Lock()
	policy := b.confidence
	b.mu.Unlock()

	mapped := make([]models.Opener, 0, len(starters))
	for _, text := range starters {
		mapped = append(mapped, models.Opener{
			Text:       text,
			Confidence: policy(text),
			Type:       "AI",
		})
	}

	return b.finish(mapped), nil
}

func (b *OpenerBuilder) begin() error {
	b.mu.Lock()
	if b.inFlight {
		b.mu.Unlock()
		return ErrBusy
	}
	b.mu.Unlock()

	if err := b.gate.Allow(usage.FeatureOpeners); err != nil {
		return err
	}

	b.mu.Lock()
	if b.inFlight {
		b.mu.Unlock()
		return ErrBusy
	}
	b.inFlight = true
	b.mu.Unlock()

	b.transition(StageProcessing, 0)
	return nil
}

func (b *OpenerBuilder) transition(stage Stage, step int) {
	b.mu.Lock()
	b.stage = stage
	b.step = step
	fn := b.progress
	b.mu.Unlock()

	log.Debug().Str("workflow", "openers").Str("stage", string(stage)).Int("step", step).Msg("Stage transition")
	if fn != nil {
		fn(stage, step)
	}
}

func (b *OpenerBuilder) fail(err error) error {
	b.mu.Lock()
	b.err = err
	b.stage = StageError
	b.inFlight = false
	fn := b.progress
	step := b.step
	b.mu.Unlock()

	log.Error().Err(err).Msg("Opener build failed")
	if fn != nil {
		fn(StageError, step)
	}
	return err
}

func (b *OpenerBuilder) finish(openers []models.Opener) []models.Opener {
	b.gate.Record(usage.FeatureOpeners)

	b.mu.Lock()
	b.openers = openers
	b.err = nil
	b.stage = StageDone
	b.inFlight = false
	fn := b.progress
	step := b.step
	b.mu.Unlock()

	log.Info().Int("count", len(openers)).Msg("Openers generated")
	if fn != nil {
		fn(StageDone, step)
	}

	out := make([]models.Opener, len(openers))
	copy(out, openers)
	return out
}
