package homeassistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"broadlink-climate-bridge/internal/domain/model"
	"broadlink-climate-bridge/internal/ports"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultDiscoveryPrefix = "homeassistant"
	DefaultTopicPrefix     = "broadlink"

	publishTimeout = 5 * time.Second

	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// Client is the part of the paho client the publisher uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Topics builds the MQTT topics of the bridge and its entities.
type Topics struct {
	Discovery string
	Prefix    string
}

func NewTopics(cfg model.MQTTConfig) Topics {
	t := Topics{
		Discovery: strings.TrimSuffix(cfg.DiscoveryPrefix, "/"),
		Prefix:    strings.TrimSuffix(cfg.TopicPrefix, "/"),
	}
	if t.Discovery == "" {
		t.Discovery = DefaultDiscoveryPrefix
	}
	if t.Prefix == "" {
		t.Prefix = DefaultTopicPrefix
	}
	return t
}

func (t Topics) Config(id string) string {
	return fmt.Sprintf("%s/climate/%s/config", t.Discovery, id)
}

func (t Topics) State(id string) string { return fmt.Sprintf("%s/%s/state", t.Prefix, id) }
func (t Topics) Availability(id string) string { return fmt.Sprintf("%s/%s/availability", t.Prefix, id) }
func (t Topics) ModeCommand(id string) string { return fmt.Sprintf("%s/%s/mode/set", t.Prefix, id) }
func (t Topics) TemperatureCommand(id string) string {
	return fmt.Sprintf("%s/%s/temperature/set", t.Prefix, id)
}
func (t Topics) Refresh(id string) string { return fmt.Sprintf("%s/%s/refresh", t.Prefix, id) }

// BridgeAvailability is the bridge-wide topic, also used as the last will.
func (t Topics) BridgeAvailability() string { return t.Prefix + "/bridge/availability" }

// climateDescriptor is implemented by entities that describe their controls.
type climateDescriptor interface {
	HVACModes() []model.HVACMode
	TargetTemperatureStep() float64
	TemperatureUnit() string
}

// Publisher writes climate entities to Home Assistant over MQTT discovery.
type Publisher struct {
	client Client
	topics Topics

	mu        sync.Mutex
	announced map[string]bool
}

var _ ports.StatePublisher = (*Publisher)(nil)

func NewPublisher(client Client, topics Topics) *Publisher {
	return &Publisher{
		client:    client,
		topics:    topics,
		announced: make(map[string]bool),
	}
}

// Online marks the bridge available and forces discovery to be sent again,
// which Home Assistant needs after a broker restart.
func (p *Publisher) Online() error {
	p.mu.Lock()
	p.announced = make(map[string]bool)
	p.mu.Unlock()
	return p.publish(p.topics.BridgeAvailability(), true, PayloadOnline)
}

// PublishState announces the entity on first use, then publishes its state
// and availability.
func (p *Publisher) PublishState(ctx context.Context, entity ports.ClimateEntity) error {
	id := entity.UniqueID()

	p.mu.Lock()
	announced := p.announced[id]
	p.mu.Unlock()
	if !announced {
		if err := p.Announce(entity); err != nil {
			return err
		}
	}

	payload, err := json.Marshal(NewStatePayload(entity.State()))
	if err != nil {
		return err
	}
	if err := p.publish(p.topics.State(id), true, payload); err != nil {
		return err
	}

	availability := PayloadOffline
	if entity.Available() {
		availability = PayloadOnline
	}
	return p.publish(p.topics.Availability(id), true, availability)
}

func (p *Publisher) Announce(entity ports.ClimateEntity) error {
	payload, err := json.Marshal(DiscoveryPayload(p.topics, entity))
	if err != nil {
		return err
	}
	if err := p.publish(p.topics.Config(entity.UniqueID()), true, payload); err != nil {
		return err
	}
	log.Infof("Announced %s to Home Assistant", entity.Name())

	p.mu.Lock()
	p.announced[entity.UniqueID()] = true
	p.mu.Unlock()
	return nil
}

func (p *Publisher) publish(topic string, retained bool, payload interface{}) error {
	token := p.client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	log.Tracef("MQTT %s: %s", topic, payload)
	return nil
}

// StatePayload is the retained state document. Unknown values are null.
type StatePayload struct {
	HVACMode           *string  `json:"hvac_mode"`
	HVACAction         *string  `json:"hvac_action"`
	CurrentTemperature *float64 `json:"current_temperature"`
	Temperature        *float64 `json:"temperature"`
}

func NewStatePayload(s model.DisplayState) StatePayload {
	p := StatePayload{
		CurrentTemperature: s.CurrentTemperature,
		Temperature:        s.TargetTemperature,
	}
	if s.HVACMode != "" {
		mode := string(s.HVACMode)
		p.HVACMode = &mode
	}
	if s.HVACAction != "" {
		action := string(s.HVACAction)
		p.HVACAction = &action
	}
	return p
}

// DiscoveryPayload is the climate config document for entity.
func DiscoveryPayload(topics Topics, entity ports.ClimateEntity) map[string]interface{} {
	id := entity.UniqueID()
	modes := model.HVACModes
	step := 0.5
	unit := "C"
	if d, ok := entity.(climateDescriptor); ok {
		modes = d.HVACModes()
		step = d.TargetTemperatureStep()
		unit = strings.TrimPrefix(d.TemperatureUnit(), "°")
	}
	modeNames := make([]string, len(modes))
	for i, m := range modes {
		modeNames[i] = string(m)
	}

	state := topics.State(id)
	return map[string]interface{}{
		"name":      nil,
		"unique_id": id + "_climate",
		"object_id": id,
		"availability": []map[string]string{
			{"topic": topics.BridgeAvailability()},
			{"topic": topics.Availability(id)},
		},
		"availability_mode":            "all",
		"current_temperature_topic":    state,
		"current_temperature_template": "{{ value_json.current_temperature }}",
		"temperature_state_topic":      state,
		"temperature_state_template":   "{{ value_json.temperature }}",
		"temperature_command_topic":    topics.TemperatureCommand(id),
		"mode_state_topic":             state,
		"mode_state_template":          "{{ value_json.hvac_mode }}",
		"mode_command_topic":           topics.ModeCommand(id),
		"action_topic":                 state,
		"action_template":              "{{ value_json.hvac_action }}",
		"modes":                        modeNames,
		"temp_step":                    step,
		"precision":                    0.1,
		"temperature_unit":             unit,
		"device": map[string]interface{}{
			"identifiers":  []string{id},
			"manufacturer": "Hysen",
			"model":        "Broadlink HY02/HY03",
			"name":         entity.Name(),
		},
	}
}
