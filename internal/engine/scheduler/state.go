package scheduler

import (
	"context"
	"errors"
	"os"
	"sync"

	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/seer/internal/core/ports"
	"go.trai.ch/seer/internal/engine/job"
	"go.trai.ch/seer/internal/engine/waits"
	"go.trai.ch/seer/internal/engine/want"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// runState is the shared state of one build invocation.
type runState struct {
	s      *Scheduler
	db     ports.RuleDatabase
	opts   Options
	cancel context.CancelCauseFunc

	queue     *resolveQueue
	resolvers sync.WaitGroup
	flight    singleflight.Group
	tracker   *want.Tracker
	registry  *job.Registry
	wake      chan struct{}

	mu       sync.Mutex
	rules    map[string]*domain.Rule
	queries  int
	backlog  []*domain.Rule
	inflight int
	errs     error
}

func newRunState(s *Scheduler, db ports.RuleDatabase, opts Options, cancel context.CancelCauseFunc) *runState {
	st := &runState{
		s:      s,
		db:     db,
		opts:   opts,
		cancel: cancel,
		queue:  newResolveQueue(),
		wake:   make(chan struct{}, 1),
		rules:  make(map[string]*domain.Rule),
	}
	graph := waits.New()
	st.tracker = want.New(st, s.logger, want.WithGraph(graph))
	st.registry = job.NewRegistry(job.Config{
		Tracker:          st.tracker,
		Executor:         s.executor,
		Telemetry:        s.telemetry,
		Logger:           s.logger,
		Slots:            semaphore.NewWeighted(int64(opts.Jobs)),
		InputParallelism: opts.InputParallelism,
		Graph:            graph,
	}, st.wakeup)
	return st
}

// enqueue schedules a resolution. The request counts as in flight until
// it has been resolved and replied to.
func (st *runState) enqueue(req ResolveRequest) {
	st.mu.Lock()
	st.inflight++
	st.mu.Unlock()

	if !st.queue.Enqueue(req) {
		st.finish()
	}
}

// finish marks one resolution or backlog entry as done.
func (st *runState) finish() {
	st.mu.Lock()
	st.inflight--
	idle := st.inflight == 0
	st.mu.Unlock()

	if idle {
		st.wakeup()
	}
}

func (st *runState) wakeup() {
	select {
	case st.wake <- struct{}{}:
	default:
	}
}

func (st *runState) idle() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.inflight == 0
}

// next pops the oldest backlog rule if the concurrency cap allows another job.
func (st *runState) next() *domain.Rule {
	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.backlog) == 0 || st.registry.Active() >= st.opts.Jobs {
		return nil
	}
	rule := st.backlog[0]
	st.backlog[0] = nil
	st.backlog = st.backlog[1:]
	return rule
}

func (st *runState) cached(name string) (*domain.Rule, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	rule, ok := st.rules[name]
	return rule, ok
}

// fail records an unrecoverable error and aborts the build.
func (st *runState) fail(err error) {
	st.mu.Lock()
	st.errs = errors.Join(st.errs, err)
	st.mu.Unlock()

	st.cancel(err)
}

// Request implements ports.FileRequester for the path status table: it
// resolves path and, if a rule produces it, runs or waits for that rule.
func (st *runState) Request(ctx context.Context, path string, tctx *domain.TargetContext) error {
	type resolution struct {
		rule *domain.Rule
		err  error
	}
	reply := make(chan resolution, 1)

	st.enqueue(ResolveRequest{
		Target: path,
		Reply: func(rule *domain.Rule, err error) {
			reply <- resolution{rule: rule, err: err}
		},
	})

	var res resolution
	select {
	case res = <-reply:
	case <-ctx.Done():
		return ctx.Err()
	}

	if res.err != nil || res.rule == nil {
		return res.err
	}

	outcome, err := st.registry.Await(ctx, res.rule, tctx)
	if err != nil {
		return err
	}
	return outcome.Err
}

// rootReply warns about requested targets that are neither buildable nor present.
func (st *runState) rootReply(target string) func(*domain.Rule, error) {
	return func(rule *domain.Rule, err error) {
		if rule != nil || err != nil {
			return
		}
		if _, statErr := os.Lstat(target); statErr != nil {
			st.s.logger.Warn("no rule to build " + target)
		}
	}
}

// aborted reports whether fail was called.
func (st *runState) aborted() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.errs != nil
}

func (st *runState) summary() (*Summary, error) {
	sum := &Summary{BuildID: st.opts.BuildID}

	st.mu.Lock()
	sum.Queries = st.queries
	errs := st.errs
	st.mu.Unlock()

	var failures error
	for _, o := range st.registry.Outcomes() {
		switch o.Status() {
		case domain.VertexStatusCached:
			sum.Skipped++
		case domain.VertexStatusFailed:
			sum.Failed++
			if !errors.Is(o.Err, domain.ErrDependencyFailed) {
				failures = errors.Join(failures, o.Err)
			}
		default:
			sum.Built++
		}
	}

	if errs != nil {
		return sum, errs
	}
	if sum.Failed > 0 {
		if failures == nil {
			failures = zerr.With(domain.ErrDependencyFailed, "failed", sum.Failed)
		}
		return sum, failures
	}
	return sum, nil
}
