// Package builder builds a single target by recursive wants, without a
// resolver loop: every path is resolved on demand by the caller that wants it.
package builder

import (
	"context"
	"errors"
	"os"
	"runtime"
	"sync"

	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/seer/internal/core/ports"
	"go.trai.ch/seer/internal/engine/job"
	"go.trai.ch/seer/internal/engine/waits"
	"go.trai.ch/seer/internal/engine/want"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

// Options configures one invocation.
type Options struct {
	// Jobs caps concurrently executing commands.
	Jobs int
	// InputParallelism bounds parallel wants of a job's declared inputs.
	InputParallelism int
}

// Result counts what an invocation did.
type Result struct {
	Built   int
	Skipped int
	Failed  int
	Queries int
}

// Builder builds targets on demand.
type Builder struct {
	executor  ports.Executor
	telemetry ports.Telemetry
	logger    ports.Logger
}

// New creates a new Builder.
func New(executor ports.Executor, telemetry ports.Telemetry, logger ports.Logger) *Builder {
	return &Builder{
		executor:  executor,
		telemetry: telemetry,
		logger:    logger,
	}
}

// Want builds target and everything it needs, as found through db.
func (b *Builder) Want(ctx context.Context, db ports.RuleDatabase, target string, opts Options) (*Result, error) {
	if opts.Jobs < 1 {
		opts.Jobs = runtime.NumCPU()
	}
	if opts.InputParallelism < 1 {
		opts.InputParallelism = opts.Jobs
	}

	r := &requester{db: db, logger: b.logger, sources: make(map[string]bool)}
	graph := waits.New()
	tracker := want.New(r, b.logger, want.WithGraph(graph))
	r.registry = job.NewRegistry(job.Config{
		Tracker:          tracker,
		Executor:         b.executor,
		Telemetry:        b.telemetry,
		Logger:           b.logger,
		Slots:            semaphore.NewWeighted(int64(opts.Jobs)),
		InputParallelism: opts.InputParallelism,
		Graph:            graph,
	}, nil)

	err := tracker.Want(ctx, target, domain.RootContext())
	if err == nil && r.source(target) {
		if _, statErr := os.Lstat(target); statErr != nil {
			b.logger.Warn("no rule to build " + target)
		}
	}

	return r.result(err)
}

// requester resolves wanted paths against the rule database and runs the
// producing rule through the registry.
type requester struct {
	db       ports.RuleDatabase
	logger   ports.Logger
	registry *job.Registry

	mu      sync.Mutex
	queries int
	sources map[string]bool
}

// Request implements ports.FileRequester.
func (r *requester) Request(ctx context.Context, path string, tctx *domain.TargetContext) error {
	r.logger.Debug("query " + path)
	rule, err := r.db.Query(ctx, path)

	r.mu.Lock()
	r.queries++
	if err == nil && rule == nil {
		r.sources[path] = true
	}
	r.mu.Unlock()

	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrRuleQueryFailed.Error()), "target", path)
	}
	if rule == nil {
		return nil
	}

	outcome, err := r.registry.Await(ctx, rule, tctx)
	if err != nil {
		return err
	}
	return outcome.Err
}

func (r *requester) source(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sources[path]
}

func (r *requester) result(err error) (*Result, error) {
	res := &Result{}

	r.mu.Lock()
	res.Queries = r.queries
	r.mu.Unlock()

	var failures error
	for _, o := range r.registry.Outcomes() {
		switch o.Status() {
		case domain.VertexStatusCached:
			res.Skipped++
		case domain.VertexStatusFailed:
			res.Failed++
			if !errors.Is(o.Err, domain.ErrDependencyFailed) {
				failures = errors.Join(failures, o.Err)
			}
		default:
			res.Built++
		}
	}

	switch {
	case failures != nil:
		return res, failures
	case err != nil:
		return res, err
	}
	return res, nil
}
