package pipeline

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Job is a run in progress. The Report becomes available once Done is closed.
type Job struct {
	// ID is also the ID of the resulting Report.
	ID string

	cancel context.CancelFunc
	done   chan struct{}
	report Report
}

// Start launches req on its own goroutine and returns immediately. Starting a
// second job while one is outstanding is allowed; the two runs share the
// capability clients and are not serialized.
func (p *Pipeline) Start(ctx context.Context, req Request) *Job {
	ctx, cancel := context.WithCancel(ctx)
	j := &Job{
		ID:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(j.done)
		defer cancel()
		j.report = p.run(ctx, j.ID, req)
	}()
	return j
}

// Done is closed when the job has finished.
func (j *Job) Done() <-chan struct{} { return j.done }

// Cancel aborts the job's remote calls. The job still finishes with a
// Report; the cancelled stage carries the context error.
func (j *Job) Cancel() { j.cancel() }

// Wait blocks until the job finishes or ctx is done. Cancelling ctx stops
// the wait only, not the job.
func (j *Job) Wait(ctx context.Context) (Report, error) {
	select {
	case <-j.done:
		return j.report, nil
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
}

// RunBatch runs every request and returns the reports in input order. At
// most limit runs are in flight; limit <= 0 means no limit. One request
// failing has no effect on the others.
func (p *Pipeline) RunBatch(ctx context.Context, reqs []Request, limit int) []Report {
	reports := make([]Report, len(reqs))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, req := range reqs {
		g.Go(func() error {
			reports[i] = p.Run(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range reports {
		if r.Failed() {
			failed++
		}
	}
	p.log.Info().Int("requests", len(reqs)).Int("failed", failed).Int("limit", limit).Msg("batch complete")
	return reports
}
