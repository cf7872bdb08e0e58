package logger

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/seer/internal/adapters/config" //nolint:depguard // Settings select the log format
	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/seer/internal/core/ports"
)

// NodeID is the unique identifier for the logger Graft node.
const NodeID graft.ID = "adapter.logger"

func init() {
	graft.Register(graft.Node[ports.Logger]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.Logger, error) {
			settings, err := graft.Dep[domain.Settings](ctx)
			if err != nil {
				return nil, err
			}

			return Configure(settings), nil
		},
	})
}
