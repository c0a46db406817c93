package model

import (
	"fmt"
	"strings"
)

type CommandKind string

const (
	CommandSetPower CommandKind = "set_power"
	CommandSetMode  CommandKind = "set_mode"
	CommandSetTemp  CommandKind = "set_temp"
)

// DeviceCommand is one call on the device API: a command name plus its
// positional arguments, encoded the way the gateway forwards them.
type DeviceCommand struct {
	Kind CommandKind `json:"command"`
	Args []float64   `json:"args"`
}

// SetPower switches the thermostat on or off.
func SetPower(on bool) DeviceCommand {
	return DeviceCommand{Kind: CommandSetPower, Args: []float64{boolArg(on)}}
}

// SetPowerCooling powers the thermostat on and selects cooling. The second
// argument is the remote lock, left unlocked.
func SetPowerCooling() DeviceCommand {
	return DeviceCommand{Kind: CommandSetPower, Args: []float64{1, 0, 1}}
}

// SetMode selects auto or manual operation. The loop mode argument is always
// zero; sensor echoes the sensor source last reported by the device.
func SetMode(auto bool, sensor bool) DeviceCommand {
	return DeviceCommand{Kind: CommandSetMode, Args: []float64{boolArg(auto), 0, boolArg(sensor)}}
}

func SetTemp(target float64) DeviceCommand {
	return DeviceCommand{Kind: CommandSetTemp, Args: []float64{target}}
}

func (c DeviceCommand) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = fmt.Sprintf("%g", a)
	}
	return fmt.Sprintf("%s(%s)", c.Kind, strings.Join(args, ", "))
}

func boolArg(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
