package capability

import (
	"context"
	"errors"
	"time"

	"github.com/dusk-indust/humanizer/internal/gradio"
	"github.com/dusk-indust/humanizer/internal/normalize"
	"github.com/rs/zerolog"
)

// Detector asks the detection Space whether a passage is AI-generated.
type Detector struct {
	conn      *handle
	functions []string
	log       zerolog.Logger
}

// NewDetector creates a Detector bound to space. No connection is made
// until the first Detect call.
func NewDetector(space string, opts ...Option) *Detector {
	s := newSettings(DefaultDetectorFunctions, opts)
	return &Detector{
		conn:      &handle{space: space, dial: s.dial},
		functions: s.functions,
		log:       s.log.With().Str("capability", "detector").Str("space", space).Logger(),
	}
}

// Detect classifies text. Candidate function names are tried in order; a
// not-found rejection moves to the next name and any other failure stops
// immediately. The result never escapes as an error.
func (d *Detector) Detect(ctx context.Context, text string) normalize.DetectionResult {
	if isBlank(text) {
		return normalize.DetectionFailure(normalize.LabelUnknown, normalize.ErrorEmptyInput, normalize.MsgEmptyText)
	}

	caller := d.conn.ensureConnected()
	start := time.Now()
	for _, fn := range d.functions {
		v, err := caller.Call(ctx, fn, text)
		if err == nil {
			res := normalize.Detection(v)
			d.log.Info().Str("fn", fn).Str("label", string(res.Label)).
				Float64("ai_probability", res.AIProbability).Dur("elapsed", time.Since(start)).Msg("detection complete")
			return res
		}
		if errors.Is(err, gradio.ErrFunctionNotFound) {
			d.log.Debug().Str("fn", fn).Msg("function not exposed, trying next")
			continue
		}
		return d.classify(err)
	}

	d.log.Warn().Strs("tried", d.functions).Msg("no candidate function accepted")
	return normalize.DetectionFailure(normalize.LabelError, normalize.ErrorFunctionNotFound, normalize.MsgNoEndpoint)
}

// classify maps a transport failure onto a result. Queue-related messages
// mean the Space is cold-starting.
func (d *Detector) classify(err error) normalize.DetectionResult {
	if containsFold(err.Error(), "queue") {
		d.log.Warn().Err(err).Msg("space is loading")
		return normalize.DetectionFailure(normalize.LabelLoading, normalize.ErrorLoading, normalize.MsgSpaceStarting)
	}
	d.log.Error().Err(err).Msg("detection failed")
	return normalize.DetectionFailure(normalize.LabelError, normalize.ErrorRemoteFailure, err.Error())
}
