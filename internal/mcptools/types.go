package mcptools

import (
	"github.com/dusk-indust/humanizer/internal/normalize"
	"github.com/dusk-indust/humanizer/internal/pipeline"
)

// --- MCP tool types for --serve-mcp ---

// DetectTextInput is the input for the detect_text tool.
type DetectTextInput struct {
	Text string `json:"text" jsonschema:"passage to classify" validate:"required,max=50000"`
}

// DetectTextOutput is the result of the detect_text tool.
type DetectTextOutput struct {
	Label         string  `json:"label"`
	Confidence    float64 `json:"confidence"`
	AIProbability float64 `json:"aiProbability"`
	Error         string  `json:"error,omitempty"`
	ErrorKind     string  `json:"errorKind,omitempty"`
}

// HumanizeTextInput is the input for the humanize_text tool.
type HumanizeTextInput struct {
	Text      string `json:"text" jsonschema:"passage to rewrite" validate:"required,max=50000"`
	Intensity string `json:"intensity,omitempty" jsonschema:"light, standard or heavy (default standard; unknown values fall back to standard)"`
}

// HumanizeTextOutput is the result of the humanize_text tool.
type HumanizeTextOutput struct {
	Variations []string `json:"variations"`
	Error      string   `json:"error,omitempty"`
	ErrorKind  string   `json:"errorKind,omitempty"`
}

// HumanizeAndVerifyInput is the input for the humanize_and_verify tool.
type HumanizeAndVerifyInput struct {
	Text            string `json:"text" jsonschema:"passage to rewrite and verify" validate:"required,max=50000"`
	Intensity       string `json:"intensity,omitempty" jsonschema:"light, standard or heavy (default standard)"`
	CompareOriginal bool   `json:"compareOriginal,omitempty" jsonschema:"also score the original text"`
}

// HumanizeAndVerifyOutput is the result of the humanize_and_verify tool.
type HumanizeAndVerifyOutput struct {
	ID                string            `json:"id"`
	Intensity         string            `json:"intensity"`
	Humanized         string            `json:"humanized,omitempty"`
	Detection         *DetectTextOutput `json:"detection,omitempty"`
	OriginalDetection *DetectTextOutput `json:"originalDetection,omitempty"`
	DetectionDegraded bool              `json:"detectionDegraded"`
	Verdict           string            `json:"verdict,omitempty"`
	Metrics           *pipeline.Metrics `json:"metrics,omitempty"`
	Error             string            `json:"error,omitempty"`
	ErrorKind         string            `json:"errorKind,omitempty"`
	Summary           string            `json:"summary"`
}

func detectOutput(r normalize.DetectionResult) DetectTextOutput {
	return DetectTextOutput{
		Label:         string(r.Label),
		Confidence:    r.Confidence,
		AIProbability: r.AIProbability,
		Error:         r.Error,
		ErrorKind:     string(r.ErrorKind),
	}
}

func detectOutputPtr(r *normalize.DetectionResult) *DetectTextOutput {
	if r == nil {
		return nil
	}
	out := detectOutput(*r)
	return &out
}
