package model

import "fmt"

// HVACMode is the user-facing operating mode of a climate entity.
type HVACMode string

const (
	HVACModeHeat HVACMode = "heat"
	HVACModeCool HVACMode = "cool"
	HVACModeOff  HVACMode = "off"
	HVACModeAuto HVACMode = "auto"
)

// HVACAction is what the device is physically doing right now.
type HVACAction string

const (
	HVACActionHeating HVACAction = "heating"
	HVACActionCooling HVACAction = "cooling"
	HVACActionIdle    HVACAction = "idle"
	HVACActionOff     HVACAction = "off"
)

// HVACModes lists the modes a Hysen thermostat accepts, in display order.
var HVACModes = []HVACMode{HVACModeHeat, HVACModeCool, HVACModeOff, HVACModeAuto}

func ParseHVACMode(s string) (HVACMode, error) {
	switch m := HVACMode(s); m {
	case HVACModeHeat, HVACModeCool, HVACModeOff, HVACModeAuto:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
}

func ParseHVACAction(s string) (HVACAction, bool) {
	switch a := HVACAction(s); a {
	case HVACActionHeating, HVACActionCooling, HVACActionIdle, HVACActionOff:
		return a, true
	}
	return "", false
}

// DisplayState is what the climate entity shows. Empty enums and nil
// temperatures mean the value is not known yet.
type DisplayState struct {
	HVACMode           HVACMode   `json:"hvac_mode,omitempty"`
	HVACAction         HVACAction `json:"hvac_action,omitempty"`
	CurrentTemperature *float64   `json:"current_temperature,omitempty"`
	TargetTemperature  *float64   `json:"temperature,omitempty"`

	// SensorSource is echoed back in set_mode commands.
	SensorSource bool `json:"-"`
}

func (s DisplayState) String() string {
	return fmt.Sprintf("Mode: %s, Action: %s, CurTemp: %s, Target: %s",
		s.HVACMode, s.HVACAction, formatTemp(s.CurrentTemperature), formatTemp(s.TargetTemperature))
}

func formatTemp(t *float64) string {
	if t == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", *t)
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
