package pipeline

import (
	"math"
	"strings"

	"github.com/dusk-indust/humanizer/internal/normalize"
)

// Metrics are readability figures computed locally for the humanized text.
// They are approximations for display, not values the remote services report.
type Metrics struct {
	OriginalWords     int     `json:"original_words"`
	Words             int     `json:"words"`
	Sentences         int     `json:"sentences"`
	AvgSentenceLength float64 `json:"avg_sentence_length"`
	Flesch            float64 `json:"flesch"`
	Grade             float64 `json:"grade"`
	WordChangePercent float64 `json:"word_change_percent"`
}

// ComputeMetrics derives Metrics for humanized relative to original.
// Sentences are counted as terminal punctuation marks, so "Wait..." counts
// three.
func ComputeMetrics(original, humanized string) Metrics {
	origWords := len(strings.Fields(original))
	words := len(strings.Fields(humanized))
	sentences := strings.Count(humanized, ".") + strings.Count(humanized, "!") + strings.Count(humanized, "?")
	avg := float64(words) / float64(max(sentences, 1))

	return Metrics{
		OriginalWords:     origWords,
		Words:             words,
		Sentences:         sentences,
		AvgSentenceLength: avg,
		Flesch:            clamp(206.835-1.015*avg-10, 0, 100),
		Grade:             clamp(avg/2, 1, 12),
		WordChangePercent: math.Abs(float64(words-origWords)) / float64(max(origWords, 1)) * 100,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Verdict grades the detection of the humanized text.
type Verdict string

const (
	VerdictPassed      Verdict = "passed"
	VerdictBorderline  Verdict = "borderline"
	VerdictRetry       Verdict = "retry"
	VerdictUnavailable Verdict = "unavailable"
)

// Thresholds on ai_probability, in percent.
const (
	passThreshold       = 20
	borderlineThreshold = 50
)

// VerdictFor grades a detection result. Any error, including a loading
// Space, yields VerdictUnavailable.
func VerdictFor(r normalize.DetectionResult) Verdict {
	switch {
	case r.Failed():
		return VerdictUnavailable
	case r.AIProbability < passThreshold:
		return VerdictPassed
	case r.AIProbability < borderlineThreshold:
		return VerdictBorderline
	default:
		return VerdictRetry
	}
}
