package trigger

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/seer/internal/adapters/config" //nolint:depguard // Wired in adapter layer
	"go.trai.ch/seer/internal/adapters/logger" //nolint:depguard // Wired in adapter layer
	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/seer/internal/core/ports"
)

// NodeID is the unique identifier for the traced executor node.
const NodeID graft.ID = "adapter.executor"

func init() {
	graft.Register(graft.Node[ports.Executor]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (ports.Executor, error) {
			settings, err := graft.Dep[domain.Settings](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			executor, err := NewExecutor(settings, log)
			if err != nil {
				return nil, err
			}
			return executor, nil
		},
	})
}
