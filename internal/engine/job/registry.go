package job

import (
	"context"
	"maps"
	"sync"

	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/seer/internal/engine/waits"
	"go.trai.ch/zerr"
)

// Registry tracks the jobs of one build. A rule is either active or has an
// outcome, never both; once it has an outcome it never runs again.
type Registry struct {
	cfg    Config
	notify func()

	mu       sync.Mutex
	active   map[domain.RuleKey]*Job
	outcomes map[domain.RuleKey]*domain.Outcome
	retired  []*Job
}

// NewRegistry creates an empty registry. notify, if set, is called after
// every job completion, outside the registry lock.
func NewRegistry(cfg Config, notify func()) *Registry {
	return &Registry{
		cfg:      cfg,
		notify:   notify,
		active:   make(map[domain.RuleKey]*Job),
		outcomes: make(map[domain.RuleKey]*domain.Outcome),
	}
}

// Run executes rule on the calling goroutine unless it is already active or
// finished. It returns nil when another caller is driving the rule.
func (r *Registry) Run(ctx context.Context, rule *domain.Rule, tctx *domain.TargetContext) *domain.Outcome {
	j, owner, outcome := r.admit(rule, tctx)
	switch {
	case outcome != nil:
		return outcome
	case owner:
		return j.Run(ctx)
	default:
		return nil
	}
}

// Await is like Run but waits for a rule that another caller is driving.
// Waiting on a job that itself waits on the caller fails with
// domain.ErrDependencyCycle.
func (r *Registry) Await(ctx context.Context, rule *domain.Rule, tctx *domain.TargetContext) (*domain.Outcome, error) {
	j, owner, outcome := r.admit(rule, tctx)
	if outcome != nil {
		return outcome, nil
	}

	unblock, err := r.cfg.Graph.Add(waits.NodeOf(ctx), j)
	defer unblock()

	switch {
	case owner:
		// A job that has not started waits on nothing, so err is nil here.
		return j.Run(ctx), nil
	case err != nil:
		return nil, zerr.With(err, "rule", rule.String())
	default:
		return j.Wait(ctx)
	}
}

// Active returns the number of active jobs.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Outcome returns the recorded outcome of rule, if any.
func (r *Registry) Outcome(rule *domain.Rule) (*domain.Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.outcomes[rule.Key()]
	return o, ok
}

// Outcomes returns a copy of every recorded outcome.
func (r *Registry) Outcomes() map[domain.RuleKey]*domain.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.outcomes)
}

// Sweep drops and returns the retired jobs.
func (r *Registry) Sweep() []*Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	retired := r.retired
	r.retired = nil
	return retired
}

func (r *Registry) admit(rule *domain.Rule, tctx *domain.TargetContext) (*Job, bool, *domain.Outcome) {
	key := rule.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if o, ok := r.outcomes[key]; ok {
		return nil, false, o
	}
	if j, ok := r.active[key]; ok {
		return j, false, nil
	}

	j := New(rule, tctx, r.cfg, r.complete)
	r.active[key] = j
	return j, true, nil
}

func (r *Registry) complete(j *Job, o *domain.Outcome) {
	key := j.rule.Key()

	r.mu.Lock()
	if r.active[key] != j {
		r.mu.Unlock()
		panic(zerr.With(domain.ErrJobNotActive, "rule", j.rule.String()))
	}
	delete(r.active, key)
	r.outcomes[key] = o
	r.retired = append(r.retired, j)
	r.mu.Unlock()

	if r.notify != nil {
		r.notify()
	}
}
