// Package render turns pipeline output into terminal text or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dusk-indust/humanizer/internal/normalize"
	"github.com/dusk-indust/humanizer/internal/pipeline"
)

// RetryHint follows any loading-related error.
const RetryHint = "If the Space is loading, wait 30 seconds and try again."

// ErrorText renders an error message, adding the retry hint when the
// failure is loading-related. Other messages are shown verbatim.
func ErrorText(msg string, kind normalize.ErrorKind) string {
	if kind == normalize.ErrorLoading {
		return fmt.Sprintf("Error: %s\n\nTip: %s", msg, RetryHint)
	}
	return "Error: " + msg
}

// DetectionLine is the one-line status shown under a humanized text.
func DetectionLine(det normalize.DetectionResult) string {
	if det.Failed() {
		return "Detection: " + det.Error
	}
	base := fmt.Sprintf("Detection: %s (%.1f%% AI)", det.Label, det.AIProbability)
	switch pipeline.VerdictFor(det) {
	case pipeline.VerdictPassed:
		return base + " - PASSED!"
	case pipeline.VerdictBorderline:
		return base + " - Borderline"
	default:
		return base + " - Try again"
	}
}

// Report writes the text view of a pipeline run.
func Report(w io.Writer, rep pipeline.Report) error {
	var b strings.Builder

	if rep.Failed() {
		b.WriteString(ErrorText(rep.Error, rep.ErrorKind))
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintf(&b, "Humanized (%s):\n\n%s\n\n", rep.Intensity, rep.Humanized)

	if m := rep.Metrics; m != nil {
		b.WriteString("Content Analysis:\n")
		fmt.Fprintf(&b, "  Flesch Score:  %.0f (target: 40-60)\n", m.Flesch)
		fmt.Fprintf(&b, "  Grade Level:   %.1f\n", m.Grade)
		fmt.Fprintf(&b, "  Word Count:    %d\n", m.Words)
		fmt.Fprintf(&b, "  Words Changed: ~%.0f%%\n\n", m.WordChangePercent)
	}

	if rep.OriginalDetection != nil {
		if rep.OriginalDetection.Failed() {
			fmt.Fprintf(&b, "Original:  %s\n", rep.OriginalDetection.Error)
		} else {
			fmt.Fprintf(&b, "Original:  %s (%.1f%% AI)\n", rep.OriginalDetection.Label, rep.OriginalDetection.AIProbability)
		}
	}
	if rep.Detection != nil {
		b.WriteString(DetectionLine(*rep.Detection))
		b.WriteString("\n")
		if rep.Detection.ErrorKind == normalize.ErrorLoading {
			fmt.Fprintf(&b, "Tip: %s\n", RetryHint)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Detection writes the text view of a standalone detection.
func Detection(w io.Writer, det normalize.DetectionResult) error {
	if det.Failed() {
		_, err := fmt.Fprintln(w, ErrorText(det.Error, det.ErrorKind))
		return err
	}
	_, err := fmt.Fprintf(w, "Label:          %s\nConfidence:     %.1f%%\nAI probability: %.1f%%\n",
		det.Label, det.Confidence, det.AIProbability)
	return err
}

// Batch writes every report in order, each under a numbered header.
func Batch(w io.Writer, reports []pipeline.Report) error {
	for i, rep := range reports {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "=== [%d/%d] %s ===\n", i+1, len(reports), rep.ID); err != nil {
			return err
		}
		if err := Report(w, rep); err != nil {
			return err
		}
	}
	return nil
}

// BatchExport is the JSON envelope for a batch run.
type BatchExport struct {
	ExportedAt string            `json:"exportedAt"`
	Count      int               `json:"count"`
	Failed     int               `json:"failed"`
	Degraded   int               `json:"degraded"`
	Reports    []pipeline.Report `json:"reports"`
}

// NewBatchExport summarizes reports for export.
func NewBatchExport(reports []pipeline.Report) BatchExport {
	exp := BatchExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(reports),
		Reports:    reports,
	}
	if exp.Reports == nil {
		exp.Reports = []pipeline.Report{}
	}
	for _, r := range reports {
		if r.Failed() {
			exp.Failed++
		}
		if r.DetectionDegraded {
			exp.Degraded++
		}
	}
	return exp
}

// JSON writes v as indented JSON followed by a newline.
func JSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = w.Write(append(out, '\n'))
	return err
}
