package model

import (
	"encoding/json"
	"fmt"
)

// DeviceStatus is a full status snapshot of a Hysen thermostat as reported
// by the Broadlink gateway.
type DeviceStatus struct {
	Power          Flag    `json:"power"`
	AutoMode       Flag    `json:"auto_mode"`
	HeatingCooling Flag    `json:"heating_cooling"` // false = heat, true = cool
	Active         Flag    `json:"active"`
	Sensor         Flag    `json:"sensor"` // false = room sensor, true = external probe
	RoomTemp       float64 `json:"room_temp"`
	ExternalTemp   float64 `json:"external_temp"`
	ThermostatTemp float64 `json:"thermostat_temp"`
}

// Flag is a boolean that the gateway may encode either as a JSON bool or as
// the 0/1 integers used on the wire.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("flag: expected bool or number, got %s", data)
	}
	*f = n != 0
	return nil
}
