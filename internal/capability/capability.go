// Package capability wraps the two remote Spaces behind typed clients. Each
// client owns one lazily created transport handle, short-circuits empty
// input, and converts every transport failure into an error-carrying result
// so nothing below this layer escapes as a Go error.
package capability

import (
	"strings"
	"sync"

	"github.com/dusk-indust/humanizer/internal/gradio"
	"github.com/rs/zerolog"
)

// Default Space identifiers and function names.
const (
	DefaultDetectorSpace     = "SzegedAI/AI_Detector"
	DefaultHumanizerSpace    = "conversantech/humanizer-ai"
	DefaultHumanizerFunction = "/process_text_advanced"
)

// DefaultDetectorFunctions is the ordered candidate list tried by Detector.
// "/predict" is the name Gradio gives an Interface's default endpoint.
var DefaultDetectorFunctions = []string{"/classify", "/analyze", "/detect", "/infer", "/predict"}

// Dialer creates the transport handle for a Space.
type Dialer func(space string) gradio.Caller

// Option configures a Detector or Humanizer.
type Option func(*settings)

type settings struct {
	dial       Dialer
	clientOpts []gradio.ClientOption
	log        zerolog.Logger
	functions  []string
}

// WithDialer replaces the transport factory, typically with a test double.
func WithDialer(d Dialer) Option {
	return func(s *settings) { s.dial = d }
}

// WithClientOptions forwards options to the default gradio transport.
func WithClientOptions(opts ...gradio.ClientOption) Option {
	return func(s *settings) { s.clientOpts = append(s.clientOpts, opts...) }
}

// WithLogger sets the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithFunctions overrides the remote function name(s). The Detector tries
// them in order; the Humanizer uses the first.
func WithFunctions(names ...string) Option {
	return func(s *settings) {
		if len(names) > 0 {
			s.functions = append([]string(nil), names...)
		}
	}
}

func newSettings(defaults []string, opts []Option) settings {
	s := settings{log: zerolog.Nop(), functions: defaults}
	for _, opt := range opts {
		opt(&s)
	}
	if s.dial == nil {
		clientOpts := append([]gradio.ClientOption{gradio.WithLogger(s.log)}, s.clientOpts...)
		s.dial = func(space string) gradio.Caller {
			return gradio.NewClient(space, clientOpts...)
		}
	}
	return s
}

// handle is a transport created on first use and reused afterwards.
type handle struct {
	space  string
	dial   Dialer
	once   sync.Once
	caller gradio.Caller
}

// ensureConnected returns the handle's caller, dialing it exactly once.
func (h *handle) ensureConnected() gradio.Caller {
	h.once.Do(func() {
		h.caller = h.dial(h.space)
	})
	return h.caller
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

func containsFold(s string, needles ...string) bool {
	lower := strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
