package model

import "errors"

var (
	// ErrCommunication marks a failed or timed out round-trip to the device.
	ErrCommunication = errors.New("device communication failure")

	ErrUnsupportedMode = errors.New("unsupported hvac mode")

	ErrInvalidTemperature = errors.New("invalid target temperature")
)
