package ruledb

import (
	"context"

	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/seer/internal/core/ports"
)

// Opener implements ports.RuleDatabaseOpener.
type Opener struct{}

// NewOpener creates an Opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open starts the query program or loads the rules file named by src.
// Exactly one of the two must be set.
func (o *Opener) Open(ctx context.Context, src ports.RuleSource) (ports.RuleDatabase, error) {
	switch {
	case src.QueryProgram != "" && src.RulesFile != "":
		return nil, domain.ErrAmbiguousRuleSource
	case src.QueryProgram != "":
		return StartProgram(ctx, src.QueryProgram)
	case src.RulesFile != "":
		return LoadFile(src.RulesFile)
	default:
		return nil, domain.ErrNoRuleSource
	}
}
