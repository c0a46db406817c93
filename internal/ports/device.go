package ports

import (
	"context"

	"broadlink-climate-bridge/internal/domain/model"
)

// DeviceCommandPort sends one command to a physical device and waits for the
// acknowledgment. Failures wrap model.ErrCommunication.
type DeviceCommandPort interface {
	Request(ctx context.Context, cmd model.DeviceCommand) error
}

// StatusSource fetches a full status snapshot from a device.
type StatusSource interface {
	Status(ctx context.Context) (*model.DeviceStatus, error)
}
