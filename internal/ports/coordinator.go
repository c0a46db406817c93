package ports

import (
	"context"

	"broadlink-climate-bridge/internal/domain/model"
)

// Coordinator publishes periodic device status snapshots to listeners.
type Coordinator interface {
	Data() (model.DeviceStatus, bool)
	LastUpdateSuccess() bool
	AddListener(fn func()) (remove func())
	RequestRefresh(ctx context.Context)
}
