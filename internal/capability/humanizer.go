package capability

import (
	"context"
	"time"

	"github.com/dusk-indust/humanizer/internal/normalize"
	"github.com/rs/zerolog"
)

// Humanizer asks the rewriting Space to paraphrase a passage.
type Humanizer struct {
	conn     *handle
	function string
	log      zerolog.Logger
}

// NewHumanizer creates a Humanizer bound to space.
func NewHumanizer(space string, opts ...Option) *Humanizer {
	s := newSettings([]string{DefaultHumanizerFunction}, opts)
	return &Humanizer{
		conn:     &handle{space: space, dial: s.dial},
		function: s.functions[0],
		log:      s.log.With().Str("capability", "humanizer").Str("space", space).Logger(),
	}
}

// Humanize rewrites text at the given intensity. Unknown intensities fall
// back to standard. The result never escapes as an error.
func (h *Humanizer) Humanize(ctx context.Context, text string, intensity normalize.Intensity) normalize.HumanizationResult {
	if isBlank(text) {
		return normalize.HumanizationFailure(normalize.ErrorEmptyInput, normalize.MsgEmptyText)
	}
	intensity = normalize.ParseIntensity(string(intensity))

	start := time.Now()
	v, err := h.conn.ensureConnected().Call(ctx, h.function, text, string(intensity))
	if err != nil {
		if containsFold(err.Error(), "queue", "loading") {
			h.log.Warn().Err(err).Msg("space is loading")
			return normalize.HumanizationFailure(normalize.ErrorLoading, normalize.MsgSpaceStarting)
		}
		h.log.Error().Err(err).Msg("humanization failed")
		return normalize.HumanizationFailure(normalize.ErrorRemoteFailure, err.Error())
	}

	res := normalize.Humanization(v)
	h.log.Info().Str("intensity", string(intensity)).Int("variations", len(res.Variations)).
		Bool("failed", res.Failed()).Dur("elapsed", time.Since(start)).Msg("humanization complete")
	return res
}
