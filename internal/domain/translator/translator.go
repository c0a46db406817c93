package translator

import (
	"broadlink-climate-bridge/internal/domain/model"
)

// Translator converts between a device status record and the climate
// entity's display state, and from user requests to device commands.
type Translator interface {
	DeriveDisplayState(status model.DeviceStatus) model.DisplayState
	BuildModeChangeCommands(mode model.HVACMode, sensorSource bool) ([]model.DeviceCommand, error)
	BuildTemperatureSetCommand(target float64) model.DeviceCommand
}
