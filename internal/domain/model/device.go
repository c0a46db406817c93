package model

import "github.com/amimof/huego"

// Device is a thermostat as seen through the Hue emulation surface.
type Device struct {
	ID         string // Hue ID
	Name       string
	Type       DeviceType
	ExternalID string // Thermostat unique id
	State      *huego.State
}

// HueMetadata describes how a device presents itself to Hue clients.
type HueMetadata struct {
	Type             string
	ModelID          string
	ManufacturerName string
}
