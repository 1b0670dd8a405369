// Package pipeline sequences the two remote capabilities: the input is
// humanized, the first variation is taken, and that variation is sent back
// through detection. The combined outcome is a Report.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/dusk-indust/humanizer/internal/normalize"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// MsgNoResult is reported when the humanizer succeeds without a variation.
const MsgNoResult = "Could not generate humanized text. Please try again."

// MsgDetectSkipped marks the detect stage when humanization failed first.
const MsgDetectSkipped = "skipped"

// Humanizer rewrites text. Implementations report failures in the result.
type Humanizer interface {
	Humanize(ctx context.Context, text string, intensity normalize.Intensity) normalize.HumanizationResult
}

// Detector classifies text. Implementations report failures in the result.
type Detector interface {
	Detect(ctx context.Context, text string) normalize.DetectionResult
}

// Request is one humanize-and-verify submission.
type Request struct {
	Text      string              `json:"text"`
	Intensity normalize.Intensity `json:"intensity,omitempty"`

	// CompareOriginal also detects the original text, concurrently with
	// humanization, so the report can show a before and after.
	CompareOriginal bool `json:"compare_original,omitempty"`
}

// Report is the combined view of one run.
type Report struct {
	ID           string                       `json:"id"`
	Original     string                       `json:"original"`
	Intensity    normalize.Intensity          `json:"intensity"`
	Humanization normalize.HumanizationResult `json:"humanization"`
	Humanized    string                       `json:"humanized,omitempty"`

	// Detection is nil when the run stopped before Step 3.
	Detection         *normalize.DetectionResult `json:"detection,omitempty"`
	OriginalDetection *normalize.DetectionResult `json:"original_detection,omitempty"`
	DetectionDegraded bool                       `json:"detection_degraded"`

	Metrics *Metrics `json:"metrics,omitempty"`
	Verdict Verdict  `json:"verdict,omitempty"`

	Error     string              `json:"error,omitempty"`
	ErrorKind normalize.ErrorKind `json:"error_kind,omitempty"`

	StartedAt time.Time `json:"started_at"`
	ElapsedMS int64     `json:"elapsed_ms"`
}

// Failed reports whether the run produced no humanized text. A degraded
// detection alone does not fail the run.
func (r Report) Failed() bool { return r.Error != "" }

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithProgress registers a callback for progress events. It is called
// synchronously and may be invoked from several goroutines at once.
func WithProgress(fn func(ProgressEvent)) Option {
	return func(p *Pipeline) { p.onProgress = fn }
}

// Pipeline owns the capability clients it sequences. It holds no per-run
// state, so concurrent runs are allowed and are not serialized.
type Pipeline struct {
	humanizer  Humanizer
	detector   Detector
	log        zerolog.Logger
	onProgress func(ProgressEvent)
}

// New creates a Pipeline over the given capabilities.
func New(h Humanizer, d Detector, opts ...Option) *Pipeline {
	p := &Pipeline{
		humanizer: h,
		detector:  d,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one request and blocks until it finishes. Failures are
// reported in the Report, never as a Go error.
func (p *Pipeline) Run(ctx context.Context, req Request) Report {
	return p.run(ctx, uuid.NewString(), req)
}

// Detect runs detection alone on text.
func (p *Pipeline) Detect(ctx context.Context, text string) normalize.DetectionResult {
	return p.detectStage(ctx, "", StageDetect, text)
}

func (p *Pipeline) run(ctx context.Context, id string, req Request) Report {
	start := time.Now()
	intensity := normalize.ParseIntensity(string(req.Intensity))
	log := p.log.With().Str("job_id", id).Logger()

	rep := Report{
		ID:        id,
		Original:  req.Text,
		Intensity: intensity,
		StartedAt: start.UTC(),
	}
	finish := func() Report {
		rep.ElapsedMS = time.Since(start).Milliseconds()
		return rep
	}

	if strings.TrimSpace(req.Text) == "" {
		rep.Humanization = normalize.HumanizationFailure(normalize.ErrorEmptyInput, normalize.MsgEmptyText)
		rep.Error, rep.ErrorKind = normalize.MsgEmptyText, normalize.ErrorEmptyInput
		return finish()
	}

	p.emit(ProgressEvent{JobID: id, Stage: StageHumanize, Status: ProgressPending})
	p.emit(ProgressEvent{JobID: id, Stage: StageDetect, Status: ProgressPending})

	// The original is scored alongside Step 1 and never gates it.
	var g errgroup.Group
	var original normalize.DetectionResult
	if req.CompareOriginal {
		g.Go(func() error {
			original = p.detectStage(ctx, id, StageDetectOriginal, req.Text)
			return nil
		})
	}

	// Step 1: humanize.
	p.emit(ProgressEvent{JobID: id, Stage: StageHumanize, Status: ProgressWorking})
	rep.Humanization = p.humanizer.Humanize(ctx, req.Text, intensity)
	_ = g.Wait()
	if req.CompareOriginal {
		rep.OriginalDetection = &original
	}

	if rep.Humanization.Failed() {
		rep.Error, rep.ErrorKind = rep.Humanization.Error, rep.Humanization.ErrorKind
		p.emit(ProgressEvent{JobID: id, Stage: StageHumanize, Status: ProgressFailed, Message: rep.Error})
		p.skipDetect(id)
		log.Warn().Str("error_kind", string(rep.ErrorKind)).Str("error", rep.Error).Msg("humanization failed, detection skipped")
		return finish()
	}

	// Step 2: first variation.
	humanized, ok := rep.Humanization.First()
	if !ok {
		rep.Error, rep.ErrorKind = MsgNoResult, normalize.ErrorNoResult
		p.emit(ProgressEvent{JobID: id, Stage: StageHumanize, Status: ProgressFailed, Message: rep.Error})
		p.skipDetect(id)
		log.Warn().Msg("humanizer returned no variations")
		return finish()
	}
	rep.Humanized = humanized
	m := ComputeMetrics(req.Text, humanized)
	rep.Metrics = &m
	p.emit(ProgressEvent{JobID: id, Stage: StageHumanize, Status: ProgressComplete})

	// Step 3: detect the humanized text. A failure here degrades the report
	// but keeps the humanized text.
	det := p.detectStage(ctx, id, StageDetect, humanized)
	rep.Detection = &det
	rep.DetectionDegraded = det.Failed()
	rep.Verdict = VerdictFor(det)

	log.Info().Str("intensity", string(intensity)).Str("verdict", string(rep.Verdict)).
		Bool("degraded", rep.DetectionDegraded).Dur("elapsed", time.Since(start)).Msg("run complete")
	return finish()
}

func (p *Pipeline) detectStage(ctx context.Context, id string, stage Stage, text string) normalize.DetectionResult {
	p.emit(ProgressEvent{JobID: id, Stage: stage, Status: ProgressWorking})
	res := p.detector.Detect(ctx, text)
	if res.Failed() {
		p.emit(ProgressEvent{JobID: id, Stage: stage, Status: ProgressFailed, Message: res.Error})
	} else {
		p.emit(ProgressEvent{JobID: id, Stage: stage, Status: ProgressComplete})
	}
	return res
}

// skipDetect closes out the pending detect stage when Step 3 never runs.
func (p *Pipeline) skipDetect(id string) {
	p.emit(ProgressEvent{JobID: id, Stage: StageDetect, Status: ProgressFailed, Message: MsgDetectSkipped})
}

// emit sends a progress event if a callback is registered.
func (p *Pipeline) emit(ev ProgressEvent) {
	if p.onProgress != nil {
		p.onProgress(ev)
	}
}
