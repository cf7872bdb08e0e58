// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/seer/internal/core/domain"
)

// WantFunc blocks until path is built. tctx is the ancestry of the caller.
type WantFunc func(ctx context.Context, path string, tctx *domain.TargetContext) error

// FileRequester produces a path on behalf of want. It returns once the path
// exists or is known to be unbuildable.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type FileRequester interface {
	Request(ctx context.Context, path string, tctx *domain.TargetContext) error
}

// Executor runs a rule's command as a traced process.
type Executor interface {
	// Execute runs the command of rule. Delayed accesses reported by the
	// traced process are passed to want with tctx and acknowledged once it
	// returns. It returns every access the process reported.
	Execute(ctx context.Context, rule *domain.Rule, tctx *domain.TargetContext, want WantFunc) ([]domain.Access, error)
}
