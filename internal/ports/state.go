package ports

import (
	"context"

	"broadlink-climate-bridge/internal/domain/model"
)

// StateRepository keeps the last written state of each entity across restarts.
type StateRepository interface {
	Get(ctx context.Context, uniqueID string) (*model.StateSnapshot, error)
	Save(ctx context.Context, uniqueID string, snapshot model.StateSnapshot) error
}

// StatePublisher is the host surface an entity writes its state to.
type StatePublisher interface {
	PublishState(ctx context.Context, entity ClimateEntity) error
}
