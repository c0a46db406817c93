package ports

import (
	"context"

	"broadlink-climate-bridge/internal/domain/model"
)

type BridgePort interface {
	GetDevices(ctx context.Context) ([]*model.Device, error)
	GetDevice(ctx context.Context, id string) (*model.Device, error)
	UpdateDeviceState(ctx context.Context, id string, state map[string]interface{}) error
	GetMetadata() model.HueMetadata
}
