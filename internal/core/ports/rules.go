package ports

import (
	"context"

	"go.trai.ch/seer/internal/core/domain"
)

//go:generate mockgen -source=rules.go -destination=mocks/mock_rules.go -package=mocks

// RuleDatabase maps a target name to the rule that builds it.
type RuleDatabase interface {
	// Query returns the rule for target, or nil if target is not buildable
	// (a source file). Implementations must be safe for concurrent use.
	Query(ctx context.Context, target string) (*domain.Rule, error)
	// Close releases the database.
	Close() error
}

// RuleSource selects a rule database.
type RuleSource struct {
	// QueryProgram is a shell command speaking the query protocol.
	QueryProgram string
	// RulesFile is a static YAML rules file.
	RulesFile string
}

// RuleDatabaseOpener opens the rule database for one build.
type RuleDatabaseOpener interface {
	Open(ctx context.Context, src RuleSource) (RuleDatabase, error)
}
