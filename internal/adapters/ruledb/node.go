package ruledb

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/seer/internal/core/ports"
)

// NodeID is the unique identifier for the rule database opener node.
const NodeID graft.ID = "adapter.ruledb"

func init() {
	graft.Register(graft.Node[ports.RuleDatabaseOpener]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.RuleDatabaseOpener, error) {
			return NewOpener(), nil
		},
	})
}
