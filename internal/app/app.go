// Package app implements the application layer for seer.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/seer/internal/core/ports"
	"go.trai.ch/seer/internal/engine/builder"
	"go.trai.ch/seer/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	opener    ports.RuleDatabaseOpener
	scheduler *scheduler.Scheduler
	builder   *builder.Builder
	telemetry ports.Telemetry
	logger    ports.Logger
	settings  domain.Settings
}

// New creates a new App instance.
func New(
	opener ports.RuleDatabaseOpener,
	sched *scheduler.Scheduler,
	b *builder.Builder,
	telemetry ports.Telemetry,
	log ports.Logger,
	settings domain.Settings,
) *App {
	return &App{
		opener:    opener,
		scheduler: sched,
		builder:   b,
		telemetry: telemetry,
		logger:    log,
		settings:  settings,
	}
}

// RunOptions configures one invocation.
type RunOptions struct {
	// Source selects the rule database.
	Source ports.RuleSource
	// Jobs overrides the configured concurrency cap when positive.
	Jobs int
	// Verbose enables debug logging for this invocation.
	Verbose bool
}

type verboser interface {
	SetVerbose(enable bool)
}

// Build resolves targets through the rule database and builds them with the
// scheduler.
func (a *App) Build(ctx context.Context, targets []string, opts RunOptions) error {
	if len(targets) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	return a.run(ctx, opts, func(ctx context.Context, db ports.RuleDatabase, id string) (counts, error) {
		sum, err := a.scheduler.Run(ctx, db, targets, scheduler.Options{
			Jobs:             a.jobs(opts),
			InputParallelism: a.settings.InputParallelism,
			BuildID:          id,
		})
		if sum == nil {
			return counts{}, err
		}
		return counts{built: sum.Built, skipped: sum.Skipped, failed: sum.Failed}, err
	})
}

// Want builds a single target by recursive wants, without the resolver loop.
func (a *App) Want(ctx context.Context, target string, opts RunOptions) error {
	if target == "" {
		return domain.ErrNoTargetsSpecified
	}

	return a.run(ctx, opts, func(ctx context.Context, db ports.RuleDatabase, _ string) (counts, error) {
		res, err := a.builder.Want(ctx, db, target, builder.Options{
			Jobs:             a.jobs(opts),
			InputParallelism: a.settings.InputParallelism,
		})
		if res == nil {
			return counts{}, err
		}
		return counts{built: res.Built, skipped: res.Skipped, failed: res.Failed}, err
	})
}

type counts struct {
	built, skipped, failed int
}

type buildFunc func(ctx context.Context, db ports.RuleDatabase, id string) (counts, error)

func (a *App) run(ctx context.Context, opts RunOptions, build buildFunc) (err error) {
	if opts.Verbose {
		if v, ok := a.logger.(verboser); ok {
			v.SetVerbose(true)
		}
	}

	db, err := a.opener.Open(ctx, opts.Source)
	if err != nil {
		return zerr.Wrap(err, "failed to open rule database")
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			a.logger.Warn("closing rule database: " + cerr.Error())
		}
	}()

	id := uuid.Must(uuid.NewV7()).String()
	a.logger.Debug("build " + id)

	ctx, vertex := a.telemetry.Record(ctx, "build "+id)
	c, err := build(ctx, db, id)
	vertex.Complete(err)

	a.logger.Info(fmt.Sprintf("built %d, skipped %d, failed %d (%s)", c.built, c.skipped, c.failed, id))

	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		a.logger.Warn("aborting")
	}
	a.logger.Error(err)
	return errors.Join(domain.ErrBuildExecutionFailed, err)
}

func (a *App) jobs(opts RunOptions) int {
	if opts.Jobs > 0 {
		return opts.Jobs
	}
	return a.settings.Jobs
}
