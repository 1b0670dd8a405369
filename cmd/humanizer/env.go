package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dusk-indust/humanizer/internal/capability"
	"github.com/dusk-indust/humanizer/internal/config"
	"github.com/dusk-indust/humanizer/internal/gradio"
	"github.com/dusk-indust/humanizer/internal/logger"
	"github.com/dusk-indust/humanizer/internal/mcptools"
	"github.com/dusk-indust/humanizer/internal/normalize"
	"github.com/dusk-indust/humanizer/internal/pipeline"
	"github.com/dusk-indust/humanizer/internal/render"
)

// env is the wired application for one invocation.
type env struct {
	flags     cliFlags
	cfg       *config.Config
	log       logger.Logger
	stderr    io.Writer
	humanizer *capability.Humanizer
	detector  *capability.Detector
}

func newEnv(flags cliFlags, stderr io.Writer) (*env, error) {
	cfg, err := config.Load(flags.ConfigDir)
	if err != nil {
		return nil, err
	}

	logOpts := logger.FromEnv()
	logOpts.Level = cfg.Log.Level
	logOpts.Format = cfg.Log.Format
	logOpts.Writer = stderr
	log := logger.New(logOpts)

	clientOpts := []gradio.ClientOption{gradio.WithTimeout(cfg.Timeout.Std())}
	if cfg.Token != "" {
		clientOpts = append(clientOpts, gradio.WithToken(cfg.Token))
	}

	e := &env{
		flags:  flags,
		cfg:    cfg,
		log:    log,
		stderr: stderr,
		humanizer: capability.NewHumanizer(cfg.HumanizerSpace,
			capability.WithLogger(logger.Named(log, "humanizer")),
			capability.WithClientOptions(clientOpts...),
			capability.WithFunctions(cfg.HumanizerFunction)),
		detector: capability.NewDetector(cfg.DetectorSpace,
			capability.WithLogger(logger.Named(log, "detector")),
			capability.WithClientOptions(clientOpts...),
			capability.WithFunctions(cfg.DetectorFunctions...)),
	}
	log.Debug().Str("detector_space", cfg.DetectorSpace).Str("humanizer_space", cfg.HumanizerSpace).
		Dur("timeout", cfg.Timeout.Std()).Msg("configured")
	return e, nil
}

func (e *env) intensity() normalize.Intensity {
	if e.flags.Intensity != "" {
		return normalize.ParseIntensity(e.flags.Intensity)
	}
	return normalize.ParseIntensity(e.cfg.Intensity)
}

// newPipeline builds a pipeline, printing progress to stderr unless quiet.
// The returned stop func flushes pending progress lines.
func (e *env) newPipeline() (*pipeline.Pipeline, func()) {
	opts := []pipeline.Option{pipeline.WithLogger(logger.Named(e.log, "pipeline"))}
	if e.flags.Quiet || e.flags.JSON {
		return pipeline.New(e.humanizer, e.detector, opts...), func() {}
	}

	progress := pipeline.NewProgressReporter()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range progress.Subscribe() {
			fmt.Fprintln(e.stderr, pipeline.FormatProgress(ev))
		}
	}()
	opts = append(opts, pipeline.WithProgress(progress.Emit))
	return pipeline.New(e.humanizer, e.detector, opts...), func() {
		progress.Close()
		wg.Wait()
	}
}

func (e *env) humanize(ctx context.Context, w io.Writer, text string) error {
	p, stop := e.newPipeline()
	job := p.Start(ctx, pipeline.Request{
		Text:            text,
		Intensity:       e.intensity(),
		CompareOriginal: e.flags.Compare || e.cfg.CompareOriginal,
	})
	rep, err := job.Wait(ctx)
	if err != nil {
		job.Cancel()
		rep, _ = job.Wait(context.Background())
	}
	stop()

	if e.flags.JSON {
		if err := render.JSON(w, rep); err != nil {
			return err
		}
	} else if err := render.Report(w, rep); err != nil {
		return err
	}
	if rep.Failed() {
		return errFailed
	}
	return nil
}

func (e *env) detect(ctx context.Context, w io.Writer, text string) error {
	p, stop := e.newPipeline()
	res := p.Detect(ctx, text)
	stop()

	if e.flags.JSON {
		if err := render.JSON(w, res); err != nil {
			return err
		}
	} else if err := render.Detection(w, res); err != nil {
		return err
	}
	if res.Failed() {
		return errFailed
	}
	return nil
}

func (e *env) batch(ctx context.Context, w io.Writer, passages []string) error {
	limit := e.cfg.BatchConcurrency
	if e.flags.Concurrency > 0 {
		limit = e.flags.Concurrency
	}
	reqs := make([]pipeline.Request, len(passages))
	for i, text := range passages {
		reqs[i] = pipeline.Request{
			Text:            text,
			Intensity:       e.intensity(),
			CompareOriginal: e.flags.Compare || e.cfg.CompareOriginal,
		}
	}

	p, stop := e.newPipeline()
	reports := p.RunBatch(ctx, reqs, limit)
	stop()

	exp := render.NewBatchExport(reports)
	if e.flags.JSON {
		if err := render.JSON(w, exp); err != nil {
			return err
		}
	} else if err := render.Batch(w, reports); err != nil {
		return err
	}
	if exp.Failed > 0 {
		return fmt.Errorf("%d of %d requests failed", exp.Failed, exp.Count)
	}
	return nil
}

func (e *env) serveMCP(ctx context.Context, addr string) error {
	p := pipeline.New(e.humanizer, e.detector, pipeline.WithLogger(logger.Named(e.log, "pipeline")))
	server := mcptools.NewServer(mcptools.NewService(p, e.humanizer, e.log))
	if addr != "" {
		return mcptools.RunHTTP(ctx, server, addr, e.log)
	}
	return mcptools.RunStdio(ctx, server)
}
