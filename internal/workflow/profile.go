package workflow

import (
	"context"
	"errors"
	"sync"

	"flaire-cli/internal/api"
	"flaire-cli/internal/models"
	"flaire-cli/internal/photos"
	"flaire-cli/internal/transcode"
	"flaire-cli/internal/usage"

	"github.com/rs/zerolog/log"
)

// ProfileBuilder drives the profile-generation workflow: transcode every
// input photo, submit the encoded batch, normalize the response. One
// invocation at a time; a build started while another is in flight is
// rejected with ErrBusy.
type ProfileBuilder struct {
	client   *api.Client
	gate     *usage.Tracker
	progress ProgressFunc

	mu       sync.Mutex
	inFlight bool
	stage    Stage
	step     int
	profile  *models.GeneratedProfile
	err      error
}

// NewProfileBuilder creates an idle builder.
func NewProfileBuilder(client *api.Client, gate *usage.Tracker) *ProfileBuilder {
	return &ProfileBuilder{client: client, gate: gate, stage: StageIdle}
}

// OnProgress registers the stage-transition observer.
func (b *ProfileBuilder) OnProgress(fn ProgressFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.progress = fn
}

// Stage returns the current lifecycle stage.
func (b *ProfileBuilder) Stage() Stage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stage
}

// StepIndex returns the zero-based progress cursor into StepLabels.
func (b *ProfileBuilder) StepIndex() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.step
}

// StepLabels returns the ordered stage labels for display.
func (b *ProfileBuilder) StepLabels() []string {
	return ProfileSteps
}

// Result returns the last successfully generated profile. A failed
// regeneration does not clear it.
func (b *ProfileBuilder) Result() *models.GeneratedProfile {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profile
}

// Err returns the failure of the last invocation, or nil.
func (b *ProfileBuilder) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Build runs one profile-generation invocation over the encoded-content
// path. The quota gate is checked before any file or network work; denial
// leaves the machine in its prior state.
func (b *ProfileBuilder) Build(ctx context.Context, input []models.LocalPhoto, preferences map[string]any) (*models.GeneratedProfile, error) {
	if len(input) == 0 {
		return nil, ErrNoPhotos
	}
	if err := b.begin(); err != nil {
		return nil, err
	}

	paths := make([]string, len(input))
	for i, photo := range input {
		paths[i] = photo.Path
	}

	// Transcode the full set before submitting anything: a single failure
	// aborts the invocation with no partial submission.
	photoURLs, err := transcode.DataURLs(paths)
	if err != nil {
		return nil, b.fail(err)
	}

	b.transition(StageGenerating, 1)
	profile, err := b.client.GenerateProfileFromPhotos(ctx, photoURLs, preferences)
	if err != nil {
		return nil, b.fail(err)
	}

	return b.finish(profile), nil
}

// BuildUploaded runs one invocation over the stored-resource path: pending
// photos are uploaded first, then generation is requested by backend id.
func (b *ProfileBuilder) BuildUploaded(ctx context.Context, library *photos.Library, token string) (*models.GeneratedProfile, error) {
	if len(library.List()) == 0 {
		return nil, ErrNoPhotos
	}
	if err := b.begin(); err != nil {
		return nil, err
	}

	uploaded, err := library.EnsureUploaded(ctx, b.client, token)
	if err != nil {
		return nil, b.fail(err)
	}

	var ids []string
	for _, photo := range uploaded {
		if photo.Uploaded() {
			ids = append(ids, photo.RemoteID)
		}
	}
	if len(ids) == 0 {
		return nil, b.fail(errors.New("no uploaded photo ids"))
	}

	b.transition(StageGenerating, 1)
	profile, err := b.client.GenerateProfile(ctx, token, ids)
	if err != nil {
		return nil, b.fail(err)
	}

	return b.finish(profile), nil
}

// begin applies the in-flight guard and the quota gate, then resets the
// machine to processing.
func (b *ProfileBuilder) begin() error {
	b.mu.Lock()
	if b.inFlight {
		b.mu.Unlock()
		return ErrBusy
	}
	b.mu.Unlock()

	if err := b.gate.Allow(usage.FeatureProfiles); err != nil {
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

func (b *ProfileBuilder) transition(stage Stage, step int) {
	b.mu.Lock()
	b.stage = stage
	b.step = step
	fn := b.progress
	b.mu.Unlock()

	log.Debug().Str("workflow", "profile").Str("stage", string(stage)).Int("step", step).Msg("Stage transition")
	if fn != nil {
		fn(stage, step)
	}
}

// fail converts any transcode or remote failure into the error state. Prior
// results stay visible and no counter is consumed.
func (b *ProfileBuilder) fail(err error) error {
	b.mu.Lock()
	b.err = err
	b.stage = StageError
	b.inFlight = false
	fn := b.progress
	step := b.step
	b.mu.Unlock()

	log.Error().Err(err).Msg("Profile build failed")
	if fn != nil {
		fn(StageError, step)
	}
	return err
}

func (b *ProfileBuilder) finish(profile *models.GeneratedProfile) *models.GeneratedProfile {
	// Exactly one consumption per successful invocation.
	b.gate.Record(usage.FeatureProfiles)

	b.mu.Lock()
	b.profile = profile
	b.err = nil
	b.stage = StageDone
	b.step = len(ProfileSteps) - 1
	b.inFlight = false
	fn := b.progress
	b.mu.Unlock()

	log.Info().Int("match_percentage", profile.MatchPercentage).Msg("Profile generated")
	if fn != nil {
		fn(StageDone, len(ProfileSteps)-1)
	}
	return profile
}
