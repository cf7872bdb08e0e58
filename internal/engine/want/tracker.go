// Package want implements the path status table and the want operation that
// guarantees exactly one builder per path.
package want

import (
	"context"
	"sync"

	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/seer/internal/core/ports"
	"go.trai.ch/seer/internal/engine/waits"
	"go.trai.ch/zerr"
)

// Observer is notified of every status transition, under the table lock.
type Observer func(path string, from, to domain.PathStatus)

// Option configures a Tracker.
type Option func(*Tracker)

// WithObserver installs a transition observer.
func WithObserver(o Observer) Option {
	return func(t *Tracker) {
		t.observer = o
	}
}

// WithGraph records every blocking want in g. A want that would close a
// cycle of waits fails with domain.ErrDependencyCycle.
func WithGraph(g *waits.Graph) Option {
	return func(t *Tracker) {
		t.graph = g
	}
}

type entry struct {
	status domain.PathStatus
	// done is closed on the transition to PathReady.
	done chan struct{}
	err  error
}

// Tracker is the path status table of one build.
type Tracker struct {
	requester ports.FileRequester
	logger    ports.Logger
	observer  Observer
	graph     *waits.Graph

	mu    sync.Mutex
	paths map[domain.InternedString]*entry
}

// New creates an empty Tracker that builds paths through requester.
func New(requester ports.FileRequester, logger ports.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		requester: requester,
		logger:    logger,
		paths:     make(map[domain.InternedString]*entry),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Want blocks until path is READY. The first caller for an UNKNOWN path
// builds it through the file requester; everyone else waits for that build
// and receives its error. A path already present in tctx is being built by
// an ancestor of the caller and is returned immediately.
func (t *Tracker) Want(ctx context.Context, path string, tctx *domain.TargetContext) error {
	if tctx.Contains(path) {
		t.logger.Debug("want " + path + ": requested by an ancestor, releasing")
		return nil
	}

	e, claimed := t.claim(path)
	node := waits.Path(path)
	unblock, err := t.graph.Add(waits.NodeOf(ctx), node)
	if err != nil {
		if claimed {
			t.release(path, e, err)
		}
		return err
	}
	defer unblock()

	if claimed {
		err := t.requester.Request(waits.WithNode(ctx, node), path, tctx.Push(path))
		t.release(path, e, err)
		return err
	}

	return t.wait(ctx, path, e)
}

// Claim moves path from UNKNOWN to PENDING and reports whether this caller
// did so. The claimant must call Release.
func (t *Tracker) Claim(path string) bool {
	_, claimed := t.claim(path)
	return claimed
}

// Release moves a claimed path from PENDING to READY, recording err for
// every waiter. Releasing a path that is not PENDING panics.
func (t *Tracker) Release(path string, err error) {
	t.mu.Lock()
	e := t.paths[domain.NewInternedString(path)]
	t.mu.Unlock()

	t.release(path, e, err)
}

// Status returns the current status of path.
func (t *Tracker) Status(path string) domain.PathStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.paths[domain.NewInternedString(path)]; ok {
		return e.status
	}
	return domain.PathUnknown
}

// Wait blocks until path is READY if it is PENDING. It returns immediately
// for UNKNOWN and READY paths.
func (t *Tracker) Wait(ctx context.Context, path string) error {
	t.mu.Lock()
	e, ok := t.paths[domain.NewInternedString(path)]
	t.mu.Unlock()

	if !ok {
		return nil
	}
	return t.wait(ctx, path, e)
}

// Snapshot returns the status of every path the table knows about.
func (t *Tracker) Snapshot() map[string]domain.PathStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]domain.PathStatus, len(t.paths))
	for k, e := range t.paths {
		out[k.String()] = e.status
	}
	return out
}

func (t *Tracker) claim(path string) (*entry, bool) {
	key := domain.NewInternedString(path)

	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.paths[key]; ok {
		return e, false
	}

	e := &entry{status: domain.PathPending, done: make(chan struct{})}
	t.paths[key] = e
	t.notify(path, domain.PathUnknown, domain.PathPending)
	return e, true
}

func (t *Tracker) release(path string, e *entry, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e == nil || !e.status.CanTransition(domain.PathReady) {
		from := domain.PathUnknown
		if e != nil {
			from = e.status
		}
		panic(zerr.With(zerr.With(domain.ErrIllegalTransition, "path", path), "from", from.String()))
	}

	e.status = domain.PathReady
	e.err = err
	close(e.done)
	t.notify(path, domain.PathPending, domain.PathReady)
}

func (t *Tracker) wait(ctx context.Context, path string, e *entry) error {
	select {
	case <-e.done:
		return e.err
	default:
	}

	t.logger.Debug("waiting for " + path)

	select {
	case <-e.done:
		return e.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) notify(path string, from, to domain.PathStatus) {
	if t.observer != nil {
		t.observer(path, from, to)
	}
}
