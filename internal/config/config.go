package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"broadlink-climate-bridge/internal/domain/model"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath            = "/app/config.yaml"
	DefaultStatePath       = "/app/state.json"
	DefaultHTTPPort        = 80
	DefaultLogLevel        = "info"
	DefaultPollInterval    = 30 * time.Second
	DefaultGatewayTimeout  = 10 * time.Second
	DefaultMQTTClientID    = "broadlink_climate_bridge"
	DefaultDiscoveryPrefix = "homeassistant"
	DefaultTopicPrefix     = "broadlink"
	DefaultHueMinTemp      = 7.0
	DefaultHueMaxTemp      = 28.0
)

// Default returns the configuration used before the file is read.
func Default() *model.Config {
	return &model.Config{
		LogLevel:     DefaultLogLevel,
		HTTPPort:     DefaultHTTPPort,
		StatePath:    DefaultStatePath,
		PollInterval: DefaultPollInterval,
		Gateway:      model.GatewayConfig{Timeout: DefaultGatewayTimeout},
		MQTT: model.MQTTConfig{
			ClientID:        DefaultMQTTClientID,
			DiscoveryPrefix: DefaultDiscoveryPrefix,
			TopicPrefix:     DefaultTopicPrefix,
		},
		Hue: model.HueConfig{
			Enabled: true,
			MinTemp: DefaultHueMinTemp,
			MaxTemp: DefaultHueMaxTemp,
			OnMode:  model.HVACModeHeat,
		},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides, then validates.
func Load(path string) (*model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, os.Getenv)
}

// Parse decodes data and applies overrides looked up through getenv.
func Parse(data []byte, getenv func(string) string) (*model.Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *model.Config, getenv func(string) string) error {
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		cfg.HTTPPort = port
	}
	if v := getenv("LOCAL_IP"); v != "" {
		cfg.LocalIP = v
	}
	if v := getenv("STATE_PATH"); v != "" {
		cfg.StatePath = v
	}
	if v := getenv("GATEWAY_URL"); v != "" {
		cfg.Gateway.URL = v
	}
	if v := getenv("MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
	}
	if v := getenv("MQTT_USER"); v != "" {
		cfg.MQTT.User = v
	}
	if v := getenv("MQTT_PASS"); v != "" {
		cfg.MQTT.Pass = v
	}
	return nil
}

func applyDefaults(cfg *model.Config) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Gateway.Timeout <= 0 {
		cfg.Gateway.Timeout = DefaultGatewayTimeout
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = DefaultHTTPPort
	}
	if cfg.Hue.OnMode == "" {
		cfg.Hue.OnMode = model.HVACModeHeat
	}
	for i, d := range cfg.Devices {
		if d == nil {
			continue
		}
		if d.Type == "" {
			d.Type = model.DeviceTypeHysen
		}
		if d.Name == "" {
			d.Name = d.ID
		}
		if d.HueID == "" {
			d.HueID = strconv.Itoa(i + 1)
		}
	}
}

// Validate enforces what the bridge needs to start.
func Validate(cfg *model.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if cfg.Gateway.URL == "" {
		return fmt.Errorf("gateway.url is required")
	}
	if len(cfg.Devices) == 0 {
		return fmt.Errorf("at least one device is required")
	}

	ids := make(map[string]bool)
	hueIDs := make(map[string]bool)
	for i, d := range cfg.Devices {
		if d == nil || d.ID == "" {
			return fmt.Errorf("devices[%d].id is required", i)
		}
		if ids[d.ID] {
			return fmt.Errorf("duplicate device id %q", d.ID)
		}
		ids[d.ID] = true
		if hueIDs[d.HueID] {
			return fmt.Errorf("duplicate hue_id %q", d.HueID)
		}
		hueIDs[d.HueID] = true
	}

	if cfg.Hue.Enabled {
		if cfg.Hue.MaxTemp <= cfg.Hue.MinTemp {
			return fmt.Errorf("hue.max_temp must be above hue.min_temp")
		}
		mode, err := model.ParseHVACMode(string(cfg.Hue.OnMode))
		if err != nil {
			return fmt.Errorf("hue.on_mode: %w", err)
		}
		if mode == model.HVACModeOff {
			return fmt.Errorf("hue.on_mode cannot be off")
		}
	}
	return nil
}
