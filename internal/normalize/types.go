package normalize

import "strings"

// Label is the verdict carried by a DetectionResult.
type Label string

const (
	LabelAI      Label = "AI-Generated"
	LabelHuman   Label = "Human-Written"
	LabelUnknown Label = "Unknown"
	LabelError   Label = "Error"
	LabelLoading Label = "Loading"
)

// ErrorKind classifies why a result carries an error.
type ErrorKind string

const (
	ErrorNone              ErrorKind = ""
	ErrorEmptyInput        ErrorKind = "empty_input"
	ErrorLoading           ErrorKind = "loading"
	ErrorFunctionNotFound  ErrorKind = "function_not_found"
	ErrorUnrecognizedShape ErrorKind = "unrecognized_shape"
	ErrorRemoteFailure     ErrorKind = "remote_failure"
	ErrorNoResult          ErrorKind = "no_result"
)

// Messages shared by the capability clients.
const (
	MsgEmptyText       = "Empty text"
	MsgSpaceStarting   = "Space is starting up, please wait 30 seconds"
	MsgNoEndpoint      = "Could not find API endpoint"
	MsgNoResponse      = "No response from API"
	MsgUnexpectedReply = "unexpected response"
)

// DetectionResult is the normalized output of the Detector capability.
// Confidence and AIProbability are percentages in [0, 100]; both are zero
// whenever Error is set.
type DetectionResult struct {
	Label         Label     `json:"label"`
	Confidence    float64   `json:"confidence"`
	AIProbability float64   `json:"ai_probability"`
	Error         string    `json:"error,omitempty"`
	ErrorKind     ErrorKind `json:"error_kind,omitempty"`
}

// Failed reports whether r carries an error.
func (r DetectionResult) Failed() bool { return r.Error != "" }

// DetectionFailure builds an error-carrying DetectionResult.
func DetectionFailure(label Label, kind ErrorKind, msg string) DetectionResult {
	return DetectionResult{Label: label, Error: msg, ErrorKind: kind}
}

// HumanizationResult is the normalized output of the Humanizer capability.
type HumanizationResult struct {
	Variations []string  `json:"variations"`
	Error      string    `json:"error,omitempty"`
	ErrorKind  ErrorKind `json:"error_kind,omitempty"`
}

// Failed reports whether r carries an error.
func (r HumanizationResult) Failed() bool { return r.Error != "" }

// First returns the first variation, if any.
func (r HumanizationResult) First() (string, bool) {
	if len(r.Variations) == 0 {
		return "", false
	}
	return r.Variations[0], true
}

// HumanizationFailure builds an error-carrying HumanizationResult.
func HumanizationFailure(kind ErrorKind, msg string) HumanizationResult {
	return HumanizationResult{Variations: []string{}, Error: msg, ErrorKind: kind}
}

// Intensity controls how aggressively the Humanizer rewrites text.
type Intensity string

const (
	IntensityLight    Intensity = "light"
	IntensityStandard Intensity = "standard"
	IntensityHeavy    Intensity = "heavy"
)

// Intensities lists the accepted values in ascending strength.
func Intensities() []Intensity {
	return []Intensity{IntensityLight, IntensityStandard, IntensityHeavy}
}

// ParseIntensity maps s onto a known Intensity, falling back to standard.
// Matching is exact, so "Heavy" falls back too.
func ParseIntensity(s string) Intensity {
	switch Intensity(s) {
	case IntensityLight, IntensityStandard, IntensityHeavy:
		return Intensity(s)
	default:
		return IntensityStandard
	}
}

// Valid reports whether i is one of the known intensities.
func (i Intensity) Valid() bool {
	return ParseIntensity(string(i)) == i
}

// Description returns the short label shown next to each intensity.
func (i Intensity) Description() string {
	switch i {
	case IntensityLight:
		return "Light (Conservative, 5% changes)"
	case IntensityHeavy:
		return "Heavy (Maximum, 95% changes)"
	default:
		return "Standard (Balanced, 65% changes)"
	}
}

// IsAILabel reports whether a raw label names AI authorship. The match is a
// case-insensitive substring test for "AI" or "ARTIFICIAL".
func IsAILabel(raw string) bool {
	up := strings.ToUpper(raw)
	return strings.Contains(up, "AI") || strings.Contains(up, "ARTIFICIAL")
}
