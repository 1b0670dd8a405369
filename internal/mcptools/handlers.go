package mcptools

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dusk-indust/humanizer/internal/normalize"
	"github.com/dusk-indust/humanizer/internal/pipeline"
	"github.com/dusk-indust/humanizer/internal/render"
	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

// Runner is the part of *pipeline.Pipeline the tools need.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) pipeline.Report
	Detect(ctx context.Context, text string) normalize.DetectionResult
}

// Humanizer rewrites text without verification.
type Humanizer interface {
	Humanize(ctx context.Context, text string, intensity normalize.Intensity) normalize.HumanizationResult
}

// Service handles MCP tool calls.
type Service struct {
	runner    Runner
	humanizer Humanizer
	validate  *validator.Validate
	log       zerolog.Logger
}

// NewService creates a Service over a pipeline and the humanizer it wraps.
func NewService(runner Runner, humanizer Humanizer, log zerolog.Logger) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if idx := strings.Index(tag, ","); idx >= 0 {
			tag = tag[:idx]
		}
		if tag == "" || tag == "-" {
			return fld.Name
		}
		return tag
	})
	return &Service{
		runner:    runner,
		humanizer: humanizer,
		validate:  v,
		log:       log.With().Str("component", "mcp").Logger(),
	}
}

// checkInput rejects malformed tool arguments. Remote failures are never
// reported this way; they come back inside the tool output.
func (s *Service) checkInput(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("invalid input: %s failed %q", fe.Field(), fe.Tag())
	}
	return fmt.Errorf("invalid input: %w", err)
}

// DetectText classifies a passage.
func (s *Service) DetectText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DetectTextInput,
) (*mcp.CallToolResult, DetectTextOutput, error) {
	if err := s.checkInput(input); err != nil {
		return nil, DetectTextOutput{}, err
	}
	res := s.runner.Detect(ctx, input.Text)
	s.log.Debug().Str("tool", "detect_text").Str("label", string(res.Label)).Msg("tool call")
	return nil, detectOutput(res), nil
}

// HumanizeText rewrites a passage without running detection on the result.
func (s *Service) HumanizeText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input HumanizeTextInput,
) (*mcp.CallToolResult, HumanizeTextOutput, error) {
	if err := s.checkInput(input); err != nil {
		return nil, HumanizeTextOutput{}, err
	}
	intensity := normalize.ParseIntensity(input.Intensity)
	res := s.humanizer.Humanize(ctx, input.Text, intensity)
	s.log.Debug().Str("tool", "humanize_text").Bool("failed", res.Failed()).Msg("tool call")

	variations := res.Variations
	if variations == nil {
		variations = []string{}
	}
	return nil, HumanizeTextOutput{
		Variations: variations,
		Error:      res.Error,
		ErrorKind:  string(res.ErrorKind),
	}, nil
}

// HumanizeAndVerify runs the full pipeline: humanize, then detect the result.
func (s *Service) HumanizeAndVerify(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input HumanizeAndVerifyInput,
) (*mcp.CallToolResult, HumanizeAndVerifyOutput, error) {
	if err := s.checkInput(input); err != nil {
		return nil, HumanizeAndVerifyOutput{}, err
	}
	rep := s.runner.Run(ctx, pipeline.Request{
		Text:            input.Text,
		Intensity:       normalize.Intensity(input.Intensity),
		CompareOriginal: input.CompareOriginal,
	})
	s.log.Debug().Str("tool", "humanize_and_verify").Str("job_id", rep.ID).Str("verdict", string(rep.Verdict)).Msg("tool call")

	var summary strings.Builder
	if err := render.Report(&summary, rep); err != nil {
		return nil, HumanizeAndVerifyOutput{}, fmt.Errorf("render report: %w", err)
	}

	return nil, HumanizeAndVerifyOutput{
		ID:                rep.ID,
		Intensity:         string(rep.Intensity),
		Humanized:         rep.Humanized,
		Detection:         detectOutputPtr(rep.Detection),
		OriginalDetection: detectOutputPtr(rep.OriginalDetection),
		DetectionDegraded: rep.DetectionDegraded,
		Verdict:           string(rep.Verdict),
		Metrics:           rep.Metrics,
		Error:             rep.Error,
		ErrorKind:         string(rep.ErrorKind),
		Summary:           summary.String(),
	}, nil
}
