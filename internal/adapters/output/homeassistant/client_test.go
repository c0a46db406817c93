package homeassistant

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"broadlink-climate-bridge/internal/domain/model"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	retained bool
	payload  string
}

type fakeClient struct {
	mu       sync.Mutex
	messages []published
	err      error
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	var s string
	switch p := payload.(type) {
	case string:
		s = p
	case []byte:
		s = string(p)
	}
	c.messages = append(c.messages, published{topic: topic, retained: retained, payload: s})
	return &fakeToken{err: c.err}
}

func (c *fakeClient) topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.messages))
	for i, m := range c.messages {
		out[i] = m.topic
	}
	return out
}

type stubEntity struct {
	state     model.DisplayState
	available bool
}

func (e *stubEntity) UniqueID() string { return "34ea34b4c6d1" }
func (e *stubEntity) Name() string { return "Living Room Thermostat" }
func (e *stubEntity) State() model.DisplayState { return e.state }
func (e *stubEntity) Available() bool { return e.available }
func (e *stubEntity) SetTemperature(ctx context.Context, t float64) error { return nil }
func (e *stubEntity) SetHVACMode(ctx context.Context, m model.HVACMode) error { return nil }
func (e *stubEntity) Update(ctx context.Context) {}

func TestTopics_Defaults(t *testing.T) {
	topics := NewTopics(model.MQTTConfig{})
	assert.Equal(t, "homeassistant/climate/abc/config", topics.Config("abc"))
	assert.Equal(t, "broadlink/abc/state", topics.State("abc"))
	assert.Equal(t, "broadlink/abc/mode/set", topics.ModeCommand("abc"))
	assert.Equal(t, "broadlink/abc/temperature/set", topics.TemperatureCommand("abc"))
	assert.Equal(t, "broadlink/bridge/availability", topics.BridgeAvailability())

	topics = NewTopics(model.MQTTConfig{DiscoveryPrefix: "ha/", TopicPrefix: "hysen"})
	assert.Equal(t, "ha/climate/abc/config", topics.Config("abc"))
	assert.Equal(t, "hysen/abc/refresh", topics.Refresh("abc"))
}

func TestPublisher_PublishState(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, NewTopics(model.MQTTConfig{}))
	e := &stubEntity{
		state: model.DisplayState{
			HVACMode:           model.HVACModeHeat,
			HVACAction:         model.HVACActionHeating,
			CurrentTemperature: model.Float(21.5),
			TargetTemperature:  model.Float(22),
		},
		available: true,
	}

	require.NoError(t, p.PublishState(context.Background(), e))
	require.NoError(t, p.PublishState(context.Background(), e))

	assert.Equal(t, []string{
		"homeassistant/climate/34ea34b4c6d1/config",
		"broadlink/34ea34b4c6d1/state",
		"broadlink/34ea34b4c6d1/availability",
		"broadlink/34ea34b4c6d1/state",
		"broadlink/34ea34b4c6d1/availability",
	}, client.topics())

	state := client.messages[1]
	assert.True(t, state.retained)
	assert.JSONEq(t, `{"hvac_mode":"heat","hvac_action":"heating","current_temperature":21.5,"temperature":22}`, state.payload)
	assert.Equal(t, "online", client.messages[2].payload)
}

func TestPublisher_UnknownStateIsNull(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, NewTopics(model.MQTTConfig{}))

	require.NoError(t, p.PublishState(context.Background(), &stubEntity{}))
	assert.JSONEq(t, `{"hvac_mode":null,"hvac_action":null,"current_temperature":null,"temperature":null}`, client.messages[1].payload)
	assert.Equal(t, "offline", client.messages[2].payload)
}

func TestPublisher_OnlineReannounces(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, NewTopics(model.MQTTConfig{}))
	e := &stubEntity{available: true}

	require.NoError(t, p.PublishState(context.Background(), e))
	require.NoError(t, p.Online())
	require.NoError(t, p.PublishState(context.Background(), e))

	topics := client.topics()
	assert.Equal(t, "broadlink/bridge/availability", topics[3])
	assert.Equal(t, "homeassistant/climate/34ea34b4c6d1/config", topics[4])
}

func TestPublisher_Error(t *testing.T) {
	client := &fakeClient{err: errors.New("not connected")}
	p := NewPublisher(client, NewTopics(model.MQTTConfig{}))

	err := p.PublishState(context.Background(), &stubEntity{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
	assert.Len(t, client.messages, 1)
}

func TestDiscoveryPayload(t *testing.T) {
	doc := DiscoveryPayload(NewTopics(model.MQTTConfig{}), &stubEntity{})

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, "34ea34b4c6d1_climate", parsed["unique_id"])
	assert.Equal(t, "broadlink/34ea34b4c6d1/mode/set", parsed["mode_command_topic"])
	assert.Equal(t, "broadlink/34ea34b4c6d1/temperature/set", parsed["temperature_command_topic"])
	assert.Equal(t, []interface{}{"heat", "cool", "off", "auto"}, parsed["modes"])
	assert.Equal(t, 0.5, parsed["temp_step"])
	assert.Equal(t, "all", parsed["availability_mode"])

	device := parsed["device"].(map[string]interface{})
	assert.Equal(t, "Living Room Thermostat", device["name"])
}
