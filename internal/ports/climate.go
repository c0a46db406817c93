package ports

import (
	"context"

	"broadlink-climate-bridge/internal/domain/model"
)

// ClimateEntity is what host adapters need from a thermostat: its display
// state and the two requests a user can make.
type ClimateEntity interface {
	UniqueID() string
	Name() string
	State() model.DisplayState
	Available() bool
	SetTemperature(ctx context.Context, target float64) error
	SetHVACMode(ctx context.Context, mode model.HVACMode) error
	Update(ctx context.Context)
}
