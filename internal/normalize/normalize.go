// Package normalize converts loosely-shaped remote responses into fixed
// result records. Every function here is pure and total: an unexpected shape
// yields an error-carrying result, never a Go error or a panic.
package normalize

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/dusk-indust/humanizer/internal/payload"
)

const (
	// PlaceholderConfidence is used when the remote side sends only a label.
	// It is not a measured score.
	PlaceholderConfidence = 90.0

	// defaultMappingScore applies when a mapping has neither confidence nor score.
	defaultMappingScore = 0.9

	// errorTextLimit bounds the length of a humanizer reply that may be read
	// as an error message instead of content.
	errorTextLimit = 100
)

// Detection normalizes a Detector response. Shapes are tried in order:
// null, string, sequence of two or more, sequence of one, mapping, other.
func Detection(v payload.Value) DetectionResult {
	switch v.Kind() {
	case payload.KindNull:
		return DetectionFailure(LabelUnknown, ErrorUnrecognizedShape, MsgUnexpectedReply)

	case payload.KindString:
		s, _ := v.Str()
		return placeholderSplit(strings.TrimSpace(s))

	case payload.KindSequence:
		switch {
		case v.Len() >= 2:
			label := v.Index(0).String()
			score, ok := v.Index(1).Float()
			if !ok {
				return placeholderSplit(label)
			}
			return scoredSplit(label, asPercent(score))
		case v.Len() == 1:
			return placeholderSplit(v.Index(0).String())
		}

	case payload.KindMapping:
		label := "Unknown"
		if lv, ok := firstField(v, "label", "prediction"); ok {
			label = lv.String()
		}
		score := defaultMappingScore
		if sv, ok := firstField(v, "confidence", "score"); ok {
			f, numeric := sv.Float()
			if !numeric {
				return placeholderSplit(label)
			}
			score = f
		}
		return scoredSplit(label, asPercent(score))
	}

	return DetectionFailure(LabelUnknown, ErrorUnrecognizedShape,
		fmt.Sprintf("Unexpected response: %s", v.String()))
}

// Humanization normalizes a Humanizer response. The remote function returns
// (humanized_text, analysis); only the first element is read. A bare string
// is accepted under the same rules.
func Humanization(v payload.Value) HumanizationResult {
	switch v.Kind() {
	case payload.KindNull:
		return HumanizationFailure(ErrorUnrecognizedShape, MsgNoResponse)

	case payload.KindSequence:
		if s, ok := v.Index(0).Str(); ok && strings.TrimSpace(s) != "" {
			return fromHumanizedText(s)
		}

	case payload.KindString:
		if s, _ := v.Str(); strings.TrimSpace(s) != "" {
			return fromHumanizedText(s)
		}
	}

	return HumanizationFailure(ErrorUnrecognizedShape,
		fmt.Sprintf("Unexpected response format: %s", v.Kind()))
}

func fromHumanizedText(s string) HumanizationResult {
	if utf8.RuneCountInString(s) < errorTextLimit && strings.Contains(strings.ToLower(s), "error") {
		return HumanizationFailure(ErrorRemoteFailure, s)
	}
	return HumanizationResult{Variations: []string{strings.TrimSpace(s)}}
}

// placeholderSplit classifies a bare label with the fixed 90/10 split.
func placeholderSplit(label string) DetectionResult {
	if IsAILabel(label) {
		return DetectionResult{Label: LabelAI, Confidence: PlaceholderConfidence, AIProbability: PlaceholderConfidence}
	}
	return DetectionResult{Label: LabelHuman, Confidence: PlaceholderConfidence, AIProbability: 100 - PlaceholderConfidence}
}

// scoredSplit classifies label and derives ai_probability from a percentage.
func scoredSplit(label string, confidence float64) DetectionResult {
	if IsAILabel(label) {
		return DetectionResult{Label: LabelAI, Confidence: round1(confidence), AIProbability: round1(confidence)}
	}
	return DetectionResult{Label: LabelHuman, Confidence: round1(confidence), AIProbability: round1(100 - confidence)}
}

// asPercent treats scores at or below 1 as fractions.
func asPercent(score float64) float64 {
	if score <= 1 {
		return score * 100
	}
	return score
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

func firstField(v payload.Value, keys ...string) (payload.Value, bool) {
	for _, k := range keys {
		if f, ok := v.Field(k); ok {
			return f, true
		}
	}
	return payload.Null(), false
}
