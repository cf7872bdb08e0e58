// Package job drives a single rule from its declared inputs to its outputs.
package job

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/seer/internal/core/ports"
	"go.trai.ch/seer/internal/engine/waits"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Tracker is the subset of the path status table a job needs.
type Tracker interface {
	Want(ctx context.Context, path string, tctx *domain.TargetContext) error
	Claim(path string) bool
	Release(path string, err error)
	Status(path string) domain.PathStatus
}

// Slots bounds the number of commands executing at once.
// *semaphore.Weighted satisfies it.
type Slots interface {
	Acquire(ctx context.Context, n int64) error
	Release(n int64)
}

// Config holds the collaborators shared by every job of a build.
type Config struct {
	Tracker   Tracker
	Executor  ports.Executor
	Telemetry ports.Telemetry
	Logger    ports.Logger
	// Slots is optional; nil means unbounded.
	Slots Slots
	// InputParallelism bounds parallel wants of declared inputs.
	InputParallelism int
	// Graph is optional; it records which job releases each claimed output.
	Graph *waits.Graph
}

// CompletionFunc is invoked exactly once when a job finishes.
type CompletionFunc func(j *Job, o *domain.Outcome)

// Job is one execution of a rule.
type Job struct {
	rule       *domain.Rule
	tctx       *domain.TargetContext
	cfg        Config
	onComplete CompletionFunc
	slot       *slot
	owned      []func()

	done    chan struct{}
	outcome *domain.Outcome
}

// New creates a job for rule. tctx is the ancestry of whoever requested it;
// the job's own outputs are pushed on top of it.
func New(rule *domain.Rule, tctx *domain.TargetContext, cfg Config, onComplete CompletionFunc) *Job {
	if cfg.InputParallelism < 1 {
		cfg.InputParallelism = 1
	}
	for _, out := range rule.Outputs() {
		tctx = tctx.Push(out)
	}
	return &Job{
		rule:       rule,
		tctx:       tctx,
		cfg:        cfg,
		onComplete: onComplete,
		slot:       &slot{sem: cfg.Slots},
		done:       make(chan struct{}),
	}
}

// Rule returns the rule bound to the job.
func (j *Job) Rule() *domain.Rule {
	return j.rule
}

// Done is closed once the job has finished and its completion callback returned.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes and returns its outcome.
func (j *Job) Wait(ctx context.Context) (*domain.Outcome, error) {
	select {
	case <-j.done:
		return j.outcome, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run drives the job to completion on the calling goroutine.
func (j *Job) Run(ctx context.Context) *domain.Outcome {
	ctx = waits.WithNode(ctx, j)
	ctx, vertex := j.cfg.Telemetry.Record(ctx, j.rule.String())

	outcome := j.run(ctx)
	if outcome.Skipped {
		vertex.Cached()
	} else {
		vertex.Complete(outcome.Err)
	}

	j.outcome = outcome
	if j.onComplete != nil {
		j.onComplete(j, outcome)
	}
	close(j.done)

	return outcome
}

func (j *Job) run(ctx context.Context) *domain.Outcome {
	if err := j.wantInputs(ctx); err != nil {
		if errors.Is(err, domain.ErrDependencyCycle) {
			return &domain.Outcome{Err: zerr.With(err, "rule", j.rule.String())}
		}
		return &domain.Outcome{
			Err: errors.Join(domain.ErrDependencyFailed, zerr.With(zerr.Wrap(err, "input failed"), "rule", j.rule.String())),
		}
	}

	claimed, skip, err := j.prepareOutputs(ctx)
	if err != nil {
		j.releaseAll(claimed, err)
		return &domain.Outcome{Err: zerr.With(err, "rule", j.rule.String())}
	}
	if skip {
		j.cfg.Logger.Debug("up to date: " + j.rule.String())
		return &domain.Outcome{Skipped: true}
	}

	start := time.Now()
	accesses, err := j.execute(ctx)
	j.releaseAll(claimed, err)

	outcome := &domain.Outcome{
		Err:      err,
		Inputs:   discoveredInputs(accesses),
		Duration: time.Since(start),
	}
	if len(outcome.Inputs) > 0 {
		j.cfg.Logger.Debug(j.rule.String() + " read: " + strings.Join(outcome.Inputs, ", "))
	}
	return outcome
}

// wantInputs builds every declared input before the command starts. A
// failing input does not cancel its siblings: they may be shared with
// other rules. An input the rule produces itself is skipped; one an
// ancestor is building is a cycle.
func (j *Job) wantInputs(ctx context.Context) error {
	inputs := j.rule.Inputs()
	if len(inputs) == 0 {
		return nil
	}

	outputs := j.rule.Outputs()
	wanted := inputs[:0]
	for _, input := range inputs {
		switch {
		case slices.Contains(outputs, input):
			j.cfg.Logger.Debug(j.rule.String() + " lists its own output " + input + " as input")
		case j.tctx.Contains(input):
			chain := strings.Join(j.tctx.Paths(), " <- ")
			return zerr.With(zerr.Wrap(domain.ErrDependencyCycle, input+" is built by an ancestor"), "ancestry", chain)
		default:
			wanted = append(wanted, input)
		}
	}

	var g errgroup.Group
	g.SetLimit(j.cfg.InputParallelism)
	for _, input := range wanted {
		g.Go(func() error {
			return j.cfg.Tracker.Want(ctx, input, j.tctx)
		})
	}
	return g.Wait()
}

// prepareOutputs claims the job's unknown outputs and removes stale files
// at every output that is not READY. It reports skip when every output is
// already READY.
func (j *Job) prepareOutputs(ctx context.Context) (claimed []string, skip bool, err error) {
	outputs := j.rule.Outputs()
	ready := 0

	for _, out := range outputs {
		if err := j.ensureParentDir(ctx, out); err != nil {
			return claimed, false, err
		}

		if j.cfg.Tracker.Claim(out) {
			claimed = append(claimed, out)
			unblock, err := j.cfg.Graph.Add(waits.Path(out), j)
			if err != nil {
				return claimed, false, err
			}
			j.owned = append(j.owned, unblock)
		} else if j.cfg.Tracker.Status(out) == domain.PathReady {
			ready++
			continue
		}

		if err := removeStale(out); err != nil {
			return claimed, false, err
		}
	}

	switch {
	case ready == 0:
		return claimed, false, nil
	case ready == len(outputs):
		return claimed, true, nil
	default:
		return claimed, false, zerr.With(domain.ErrInconsistentOutputs, "ready", ready)
	}
}

// ensureParentDir wants a missing parent directory, since another rule may
// produce it, and otherwise marks the existing directory READY.
func (j *Job) ensureParentDir(ctx context.Context, out string) error {
	dir := filepath.Dir(out)
	if dir == "." || dir == string(filepath.Separator) {
		return nil
	}

	if _, err := os.Stat(dir); err != nil {
		return j.cfg.Tracker.Want(ctx, dir, j.tctx)
	}

	if j.cfg.Tracker.Claim(dir) {
		j.cfg.Tracker.Release(dir, nil)
	}
	return nil
}

func (j *Job) execute(ctx context.Context) ([]domain.Access, error) {
	if j.rule.Command() == "" {
		return nil, nil
	}

	if err := j.slot.acquire(ctx); err != nil {
		return nil, err
	}
	defer j.slot.release()

	j.cfg.Logger.Info("building " + j.rule.String())

	accesses, err := j.cfg.Executor.Execute(ctx, j.rule, j.tctx, j.resolveInput)
	if err != nil {
		return accesses, zerr.With(zerr.Wrap(err, domain.ErrRuleExecutionFailed.Error()), "rule", j.rule.String())
	}
	return accesses, nil
}

// resolveInput is handed to the executor for dynamically discovered inputs.
// The job's slot is lent out while the command is blocked on the input. An
// input that waits on this job is released unbuilt, as one requested by an
// ancestor would be.
func (j *Job) resolveInput(ctx context.Context, path string, tctx *domain.TargetContext) error {
	j.slot.lend()
	err := j.cfg.Tracker.Want(ctx, path, tctx)
	if errors.Is(err, domain.ErrDependencyCycle) {
		j.cfg.Logger.Debug("want " + path + ": " + err.Error() + ", releasing")
		err = nil
	}
	if rerr := j.slot.reclaim(ctx); rerr != nil && err == nil {
		err = rerr
	}
	return err
}

func (j *Job) releaseAll(claimed []string, err error) {
	for _, out := range claimed {
		j.cfg.Tracker.Release(out, err)
	}
	for _, unblock := range j.owned {
		unblock()
	}
	j.owned = nil
}

func removeStale(path string) error {
	if _, err := os.Lstat(path); err != nil {
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrOutputCleanupFailed.Error()), "path", path)
	}
	return nil
}

func discoveredInputs(accesses []domain.Access) []string {
	var paths []string
	for _, a := range accesses {
		if a.Func.ReadsInput() && a.Path != "" {
			paths = append(paths, a.Path)
		}
	}
	slices.Sort(paths)
	return slices.Compact(paths)
}
