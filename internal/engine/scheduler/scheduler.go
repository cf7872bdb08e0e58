// Package scheduler resolves requested targets into rules and runs their
// jobs under a concurrency cap.
package scheduler

import (
	"context"
	"errors"
	"runtime"

	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/seer/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

// Options configures one build.
type Options struct {
	// Jobs caps concurrently active jobs.
	Jobs int
	// InputParallelism bounds parallel wants of a job's declared inputs.
	InputParallelism int
	// BuildID tags the build in logs.
	BuildID string
}

// Summary counts what a build did.
type Summary struct {
	BuildID string
	Built   int
	Skipped int
	Failed  int
	Queries int
}

// Scheduler runs builds. It holds no per-build state.
type Scheduler struct {
	executor  ports.Executor
	telemetry ports.Telemetry
	logger    ports.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(executor ports.Executor, telemetry ports.Telemetry, logger ports.Logger) *Scheduler {
	return &Scheduler{
		executor:  executor,
		telemetry: telemetry,
		logger:    logger,
	}
}

// Run builds targets using db. It returns once every resolved rule has an
// outcome, joining the errors of the rules that failed.
func (s *Scheduler) Run(ctx context.Context, db ports.RuleDatabase, targets []string, opts Options) (*Summary, error) {
	if opts.Jobs < 1 {
		opts.Jobs = runtime.NumCPU()
	}
	if opts.InputParallelism < 1 {
		opts.InputParallelism = opts.Jobs
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	st := newRunState(s, db, opts, cancel)
	for _, target := range targets {
		st.enqueue(ResolveRequest{Target: target, Reply: st.rootReply(target)})
	}

	work := make(chan *domain.Rule)

	var g errgroup.Group
	for range opts.Jobs {
		g.Go(func() error {
			st.worker(ctx, work)
			return nil
		})
	}
	g.Go(func() error {
		st.resolveLoop(ctx)
		return nil
	})

	dispatchErr := st.dispatch(ctx, work)
	if dispatchErr == nil && ctx.Err() != nil {
		dispatchErr = context.Cause(ctx)
	}
	close(work)
	st.queue.Close()
	if dispatchErr != nil {
		cancel(dispatchErr)
	}
	_ = g.Wait()
	st.resolvers.Wait()

	sum, err := st.summary()
	if dispatchErr != nil && !st.aborted() {
		err = errors.Join(dispatchErr, err)
	}
	return sum, err
}

// dispatch hands backlog rules to workers whenever the cap allows, and
// returns once nothing is left to resolve or run.
func (st *runState) dispatch(ctx context.Context, work chan<- *domain.Rule) error {
	for {
		for _, retired := range st.registry.Sweep() {
			st.s.logger.Debug("retired " + retired.Rule().String())
		}

		if rule := st.next(); rule != nil {
			select {
			case work <- rule:
				continue
			case <-ctx.Done():
				return context.Cause(ctx)
			}
		}

		if st.idle() {
			return nil
		}

		select {
		case <-st.wake:
		case <-ctx.Done():
			return context.Cause(ctx)
		}
	}
}

func (st *runState) worker(ctx context.Context, work <-chan *domain.Rule) {
	for rule := range work {
		st.registry.Run(ctx, rule, domain.RootContext())
		st.finish()
	}
}
