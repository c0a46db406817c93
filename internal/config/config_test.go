package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"broadlink-climate-bridge/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
log_level: debug
poll_interval: 1m
gateway:
  url: http://broadlink-gateway:8080
devices:
  - id: 34ea34b4c6d1
    name: Living Room
    type: HYS
  - id: 780f77aa0b12
    name: Bedroom
    hue_id: "7"
hue:
  to_hue_formula: "x * 5"
`

func noEnv(string) string { return "" }

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample), noEnv)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, time.Minute, cfg.PollInterval)
	assert.Equal(t, DefaultGatewayTimeout, cfg.Gateway.Timeout)
	assert.Equal(t, "http://broadlink-gateway:8080", cfg.Gateway.URL)
	assert.Equal(t, DefaultHTTPPort, cfg.HTTPPort)
	assert.Equal(t, DefaultTopicPrefix, cfg.MQTT.TopicPrefix)

	require.Len(t, cfg.Devices, 2)
	assert.Equal(t, "1", cfg.Devices[0].HueID)
	assert.Equal(t, "7", cfg.Devices[1].HueID)
	assert.Equal(t, model.DeviceTypeHysen, cfg.Devices[1].Type)

	assert.True(t, cfg.Hue.Enabled)
	assert.Equal(t, "x * 5", cfg.Hue.ToHueFormula)
	assert.Equal(t, DefaultHueMaxTemp, cfg.Hue.MaxTemp)
	assert.Equal(t, model.HVACModeHeat, cfg.Hue.OnMode)
}

func TestParse_JSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"gateway": {"url": "http://gw"}, "devices": [{"id": "abc"}]}`), noEnv)
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.Devices[0].Name)
}

func TestParse_EnvOverrides(t *testing.T) {
	env := map[string]string{
		"LOG_LEVEL":   "warn",
		"HTTP_PORT":   "8080",
		"GATEWAY_URL": "http://10.0.0.2",
		"MQTT_BROKER": "tcp://mqtt:1883",
		"MQTT_USER":   "bridge",
		"MQTT_PASS":   "secret",
		"LOCAL_IP":    "10.0.0.5",
		"STATE_PATH":  "/data/state.json",
	}
	cfg, err := Parse([]byte(sample), func(k string) string { return env[k] })
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "http://10.0.0.2", cfg.Gateway.URL)
	assert.Equal(t, "tcp://mqtt:1883", cfg.MQTT.Broker)
	assert.Equal(t, "bridge", cfg.MQTT.User)
	assert.Equal(t, "secret", cfg.MQTT.Pass)
	assert.Equal(t, "10.0.0.5", cfg.LocalIP)
	assert.Equal(t, "/data/state.json", cfg.StatePath)

	_, err = Parse([]byte(sample), func(k string) string {
		if k == "HTTP_PORT" {
			return "eighty"
		}
		return ""
	})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"no gateway":     `devices: [{id: a}]`,
		"no devices":     `gateway: {url: "http://gw"}`,
		"missing id":     `{gateway: {url: "http://gw"}, devices: [{name: x}]}`,
		"duplicate id":   `{gateway: {url: "http://gw"}, devices: [{id: a}, {id: a, hue_id: "9"}]}`,
		"duplicate hue":  `{gateway: {url: "http://gw"}, devices: [{id: a, hue_id: "1"}, {id: b, hue_id: "1"}]}`,
		"bad range":      `{gateway: {url: "http://gw"}, devices: [{id: a}], hue: {min_temp: 20, max_temp: 10}}`,
		"off on_mode":    `{gateway: {url: "http://gw"}, devices: [{id: a}], hue: {on_mode: "off"}}`,
		"bogus on_mode":  `{gateway: {url: "http://gw"}, devices: [{id: a}], hue: {on_mode: "dry"}}`,
		"malformed yaml": `devices: [`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data), noEnv)
			assert.Error(t, err)
		})
	}

	// Hue checks only apply when the surface is enabled
	_, err := Parse([]byte(`{gateway: {url: "http://gw"}, devices: [{id: a}], hue: {enabled: false, on_mode: "off"}}`), noEnv)
	assert.NoError(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Devices, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
