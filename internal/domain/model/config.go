package model

import "time"

type DeviceType string

// DeviceTypeHysen is the Broadlink device type reported by Hysen thermostats.
const DeviceTypeHysen DeviceType = "HYS"

type DeviceConfig struct {
	ID    string     `yaml:"id"`     // Unique id, usually the device MAC
	Name  string     `yaml:"name"`   // Device name; the entity is "<name> Thermostat"
	Type  DeviceType `yaml:"type"`   // Broadlink device type, e.g. "HYS"
	HueID string     `yaml:"hue_id"` // Stable Hue identifier, e.g. "1"
}

type HueConfig struct {
	Enabled bool    `yaml:"enabled"`
	MinTemp float64 `yaml:"min_temp"`
	MaxTemp float64 `yaml:"max_temp"`

	// Optional set-point conversions (variable: x)
	ToHueFormula    string `yaml:"to_hue_formula,omitempty"`
	ToDeviceFormula string `yaml:"to_device_formula,omitempty"`

	// Mode selected when Alexa turns a thermostat on
	OnMode HVACMode `yaml:"on_mode"`
}

type MQTTConfig struct {
	Broker          string `yaml:"broker"`
	User            string `yaml:"user"`
	Pass            string `yaml:"pass"`
	ClientID        string `yaml:"client_id"`
	DiscoveryPrefix string `yaml:"discovery_prefix"`
	TopicPrefix     string `yaml:"topic_prefix"`
}

type GatewayConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type Config struct {
	LogLevel     string          `yaml:"log_level"`
	HTTPPort     int             `yaml:"http_port"` // Echo devices only talk to port 80
	LocalIP      string          `yaml:"local_ip"`
	StatePath    string          `yaml:"state_path"`
	PollInterval time.Duration   `yaml:"poll_interval"`
	Gateway      GatewayConfig   `yaml:"gateway"`
	MQTT         MQTTConfig      `yaml:"mqtt"`
	Hue          HueConfig       `yaml:"hue"`
	Devices      []*DeviceConfig `yaml:"devices"` // Ordered slice
}
