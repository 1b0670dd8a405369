package normalize

import (
	"encoding/json"
	"testing"

	"github.com/dusk-indust/humanizer/internal/payload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, s string) payload.Value {
	t.Helper()
	v, err := payload.Decode([]byte(s))
	require.NoError(t, err)
	return v
}

func TestDetection_DocumentedShapes(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		label      Label
		confidence float64
		aiProb     float64
		failed     bool
	}{
		{"null", `null`, LabelUnknown, 0, 0, true},
		{"string with AI", `"AI"`, LabelAI, 90, 90, false},
		{"string without AI", `"This looks human-written"`, LabelHuman, 90, 10, false},
		{"string artificial", `"artificial"`, LabelAI, 90, 90, false},
		{"pair fractional score", `["AI", 0.87]`, LabelAI, 87, 87, false},
		{"pair percentage score", `["Human", 72]`, LabelHuman, 72, 28, false},
		{"pair numeric string score", `["Human", "0.25"]`, LabelHuman, 25, 75, false},
		{"pair non-numeric score", `["AI", "high"]`, LabelAI, 90, 90, false},
		{"pair non-numeric score human", `["Human", null]`, LabelHuman, 90, 10, false},
		{"single element AI", `["ai-generated"]`, LabelAI, 90, 90, false},
		{"single element human", `["Human"]`, LabelHuman, 90, 10, false},
		{"mapping with score", `{"label":"Human","score":0.64}`, LabelHuman, 64, 36, false},
		{"mapping with confidence", `{"label":"AI","confidence":0.912}`, LabelAI, 91.2, 91.2, false},
		{"mapping prediction fallback", `{"prediction":"Artificial","confidence":80}`, LabelAI, 80, 80, false},
		{"mapping default score", `{"label":"AI"}`, LabelAI, 90, 90, false},
		{"mapping without label", `{"score":0.3}`, LabelHuman, 30, 70, false},
		{"mapping non-numeric score", `{"label":"AI","score":"n/a"}`, LabelAI, 90, 90, false},
		{"pair NaN score", `["AI", "NaN"]`, LabelAI, 90, 90, false},
		{"mapping infinite score", `{"label":"Human","score":"inf"}`, LabelHuman, 90, 10, false},
		{"mapping infinite score without label", `{"score":"inf"}`, LabelHuman, 90, 10, false},
		{"bare number", `0.5`, LabelUnknown, 0, 0, true},
		{"bare bool", `true`, LabelUnknown, 0, 0, true},
		{"empty sequence", `[]`, LabelUnknown, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detection(mustDecode(t, tt.raw))
			assert.Equal(t, tt.label, got.Label)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
			assert.InDelta(t, tt.aiProb, got.AIProbability, 1e-9)
			assert.Equal(t, tt.failed, got.Failed())
			if tt.failed {
				assert.Equal(t, ErrorUnrecognizedShape, got.ErrorKind)
			}
		})
	}
}

func TestDetection_NonFiniteScoresStayMarshalable(t *testing.T) {
	for _, raw := range []string{`["AI", "NaN"]`, `{"label":"Human","score":"inf"}`, `["Human", "-Infinity"]`} {
		got := Detection(mustDecode(t, raw))
		assert.InDelta(t, PlaceholderConfidence, got.Confidence, 1e-9, raw)
		assert.True(t, got.AIProbability >= 0 && got.AIProbability <= 100, raw)
		_, err := json.Marshal(got)
		assert.NoError(t, err, raw)
	}
}

func TestDetection_RoundTripExamples(t *testing.T) {
	assert.Equal(t,
		DetectionResult{Label: LabelAI, Confidence: 87.0, AIProbability: 87.0},
		Detection(payload.Sequence(payload.Text("AI"), payload.Number(0.87))))

	assert.Equal(t,
		DetectionResult{Label: LabelHuman, Confidence: 72.0, AIProbability: 28.0},
		Detection(payload.Sequence(payload.Text("Human"), payload.Number(72))))

	assert.Equal(t,
		DetectionResult{Label: LabelHuman, Confidence: 90.0, AIProbability: 10.0},
		Detection(payload.Text("This looks human-written")))
}

func TestDetection_RoundsToOneDecimal(t *testing.T) {
	got := Detection(payload.Sequence(payload.Text("AI"), payload.Number(0.98765)))
	assert.Equal(t, 98.8, got.Confidence)
	assert.Equal(t, 98.8, got.AIProbability)

	got = Detection(payload.Sequence(payload.Text("Human"), payload.Number(0.33333)))
	assert.Equal(t, 33.3, got.Confidence)
	assert.Equal(t, 66.7, got.AIProbability)
}

func TestDetection_UnrecognizedCarriesRawText(t *testing.T) {
	got := Detection(payload.Number(42))
	assert.Equal(t, LabelUnknown, got.Label)
	assert.Equal(t, "Unexpected response: 42", got.Error)
	assert.Zero(t, got.Confidence)
	assert.Zero(t, got.AIProbability)
}

func TestDetection_Idempotent(t *testing.T) {
	raws := []string{`null`, `"AI"`, `["Human", 72]`, `{"label":"AI","score":0.5}`, `3`}
	for _, raw := range raws {
		v := mustDecode(t, raw)
		first := Detection(v)
		second := Detection(v)
		assert.Equal(t, first, second, raw)
		assert.True(t, v.Equal(mustDecode(t, raw)), "input must not be mutated")
	}
}

func TestHumanization_Shapes(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		variations []string
		err        string
		kind       ErrorKind
	}{
		{
			name:       "pair with content",
			raw:        `["Rewritten paragraph text...", {"score": 3}]`,
			variations: []string{"Rewritten paragraph text..."},
		},
		{
			name:       "pair trims content",
			raw:        `["  Rewritten text.\n", null]`,
			variations: []string{"Rewritten text."},
		},
		{
			name:       "pair with short error",
			raw:        `["error: service overloaded", {}]`,
			variations: []string{},
			err:        "error: service overloaded",
			kind:       ErrorRemoteFailure,
		},
		{
			name:       "bare string",
			raw:        `"Just the text."`,
			variations: []string{"Just the text."},
		},
		{
			name:       "bare string short error",
			raw:        `"Processing Error occurred"`,
			variations: []string{},
			err:        "Processing Error occurred",
			kind:       ErrorRemoteFailure,
		},
		{
			name:       "null",
			raw:        `null`,
			variations: []string{},
			err:        MsgNoResponse,
			kind:       ErrorUnrecognizedShape,
		},
		{
			name:       "pair with blank first element",
			raw:        `["   ", {}]`,
			variations: []string{},
			err:        "Unexpected response format: sequence",
			kind:       ErrorUnrecognizedShape,
		},
		{
			name:       "pair with non-string first element",
			raw:        `[12, "x"]`,
			variations: []string{},
			err:        "Unexpected response format: sequence",
			kind:       ErrorUnrecognizedShape,
		},
		{
			name:       "mapping",
			raw:        `{"text":"hello"}`,
			variations: []string{},
			err:        "Unexpected response format: mapping",
			kind:       ErrorUnrecognizedShape,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Humanization(mustDecode(t, tt.raw))
			assert.Equal(t, tt.variations, got.Variations)
			assert.Equal(t, tt.err, got.Error)
			assert.Equal(t, tt.kind, got.ErrorKind)
		})
	}
}

func TestHumanization_LongTextMentioningErrorIsContent(t *testing.T) {
	long := "The error bars in the chart show how much the measurements varied between runs, " +
		"which matters a great deal when comparing the two methods."
	require.GreaterOrEqual(t, len(long), 100)

	got := Humanization(payload.Sequence(payload.Text(long), payload.Mapping(nil)))
	assert.False(t, got.Failed())
	assert.Equal(t, []string{long}, got.Variations)
}

func TestHumanization_ExactlyOneOutcome(t *testing.T) {
	for _, raw := range []string{`["ok text", {}]`, `["error", {}]`, `null`, `7`} {
		got := Humanization(mustDecode(t, raw))
		hasVariations := len(got.Variations) > 0
		hasError := got.Error != ""
		assert.True(t, hasVariations != hasError, raw)
	}
}

func TestHumanization_Idempotent(t *testing.T) {
	v := mustDecode(t, `["Some rewritten text", {"a": 1}]`)
	assert.Equal(t, Humanization(v), Humanization(v))
}

func TestParseIntensity(t *testing.T) {
	assert.Equal(t, IntensityLight, ParseIntensity("light"))
	assert.Equal(t, IntensityStandard, ParseIntensity("standard"))
	assert.Equal(t, IntensityHeavy, ParseIntensity("heavy"))
	assert.Equal(t, IntensityStandard, ParseIntensity("Heavy"))
	assert.Equal(t, IntensityStandard, ParseIntensity(""))
	assert.Equal(t, IntensityStandard, ParseIntensity("extreme"))

	assert.True(t, IntensityHeavy.Valid())
	assert.False(t, Intensity("max").Valid())
}

func TestIsAILabel(t *testing.T) {
	assert.True(t, IsAILabel("AI"))
	assert.True(t, IsAILabel("likely ai-written"))
	assert.True(t, IsAILabel("Artificial"))
	assert.False(t, IsAILabel("Human"))
	assert.False(t, IsAILabel(""))
}
