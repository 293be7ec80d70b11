package workflow

import "errors"

// Stage is the lifecycle of one build invocation. Idle is initial; done and
// error are terminal until the next invocation resets to processing.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageProcessing Stage = "processing"
	StageGenerating Stage = "generating"
	StageFinalizing Stage = "finalizing"
	StageDone       Stage = "done"
	StageError      Stage = "error"
)

// ErrBusy rejects a build started while another invocation of the same
// workflow is still in flight. The running invocation is unaffected.
var ErrBusy = errors.New("a build is already in flight")

// ErrNoPhotos rejects a build started without input photos.
var ErrNoPhotos = errors.New("no photos selected")

// ProfileSteps are the human-readable stage labels of the profile workflow,
// indexed by the step cursor.
var ProfileSteps = []string{"Processing Photos", "Generating Profile", "Finalizing"}

// OpenerSteps are the stage labels of the opener workflow.
var OpenerSteps = []string{"Analyzing Photo", "Generating Starters", "Finalizing"}

// ProgressFunc observes stage transitions for display. Called outside any
// builder lock.
type ProgressFunc func(stage Stage, step int)
