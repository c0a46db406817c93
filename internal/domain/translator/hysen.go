package translator

import (
	"fmt"

	"broadlink-climate-bridge/internal/domain/model"
)

// HysenStrategy translates Hysen HY02/HY03 status frames and builds the
// commands that drive them.
type HysenStrategy struct{}

func (s *HysenStrategy) DeriveDisplayState(status model.DeviceStatus) model.DisplayState {
	state := model.DisplayState{
		HVACMode:     model.HVACModeOff,
		HVACAction:   model.HVACActionOff,
		SensorSource: bool(status.Sensor),
	}

	auto, cooling, active := bool(status.AutoMode), bool(status.HeatingCooling), bool(status.Active)
	if status.Power {
		switch {
		case auto:
			state.HVACMode = model.HVACModeAuto
		case cooling:
			state.HVACMode = model.HVACModeCool
		default:
			state.HVACMode = model.HVACModeHeat
		}

		switch {
		case !active:
			state.HVACAction = model.HVACActionIdle
		case cooling:
			state.HVACAction = model.HVACActionCooling
		default:
			state.HVACAction = model.HVACActionHeating
		}
	}

	if status.Sensor {
		state.CurrentTemperature = model.Float(status.ExternalTemp)
	} else {
		state.CurrentTemperature = model.Float(status.RoomTemp)
	}
	state.TargetTemperature = model.Float(status.ThermostatTemp)
	return state
}

// BuildModeChangeCommands returns the commands realizing mode, in the order
// they must be sent. Power is always set before mode.
func (s *HysenStrategy) BuildModeChangeCommands(mode model.HVACMode, sensorSource bool) ([]model.DeviceCommand, error) {
	switch mode {
	case model.HVACModeOff:
		return []model.DeviceCommand{model.SetPower(false)}, nil
	case model.HVACModeAuto:
		return []model.DeviceCommand{model.SetPower(true), model.SetMode(true, sensorSource)}, nil
	case model.HVACModeHeat:
		return []model.DeviceCommand{model.SetPower(true), model.SetMode(false, sensorSource)}, nil
	case model.HVACModeCool:
		// Cooling is selected by the power command, not by set_mode.
		return []model.DeviceCommand{model.SetPowerCooling(), model.SetMode(false, sensorSource)}, nil
	}
	return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedMode, mode)
}

func (s *HysenStrategy) BuildTemperatureSetCommand(target float64) model.DeviceCommand {
	return model.SetTemp(target)
}
