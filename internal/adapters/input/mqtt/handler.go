package mqtt

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"broadlink-climate-bridge/internal/domain/model"
	"broadlink-climate-bridge/internal/ports"
	paho "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const commandTimeout = 30 * time.Second

// Subscriber is the part of the paho client the handler uses.
type Subscriber interface {
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// Handler routes Home Assistant command topics to climate entities.
// Topics have the form <prefix>/<unique id>/<command>.
type Handler struct {
	prefix string

	mu       sync.RWMutex
	entities map[string]ports.ClimateEntity
}

func NewHandler(prefix string) *Handler {
	return &Handler{
		prefix:   strings.TrimSuffix(prefix, "/"),
		entities: make(map[string]ports.ClimateEntity),
	}
}

func (h *Handler) Register(entity ports.ClimateEntity) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entities[entity.UniqueID()] = entity
}

// Subscribe registers the command subscriptions. Call it from the connect
// handler so they survive reconnects.
func (h *Handler) Subscribe(client Subscriber) error {
	subs := map[string]paho.MessageHandler{
		h.prefix + "/+/mode/set":        h.HandleMode,
		h.prefix + "/+/temperature/set": h.HandleTemperature,
		h.prefix + "/+/refresh":         h.HandleRefresh,
	}
	for topic, cb := range subs {
		token := client.Subscribe(topic, 0, cb)
		token.Wait()
		if err := token.Error(); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		log.Debugf("Subscribed to %s", topic)
	}
	return nil
}

// HandleMode handles <prefix>/<id>/mode/set. Payload: hvac mode token.
func (h *Handler) HandleMode(client paho.Client, msg paho.Message) {
	entity, ok := h.entity(msg.Topic())
	if !ok {
		return
	}
	payload := strings.TrimSpace(string(msg.Payload()))
	log.Infof("Received mode command for %s: %s", entity.UniqueID(), payload)

	mode, err := model.ParseHVACMode(payload)
	if err != nil {
		log.WithError(err).Errorf("Invalid mode for %s", entity.UniqueID())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := entity.SetHVACMode(ctx, mode); err != nil {
		log.WithError(err).Errorf("Error setting mode of %s", entity.UniqueID())
	}
}

// HandleTemperature handles <prefix>/<id>/temperature/set. Payload: decimal
// set-point, e.g. "21.5".
func (h *Handler) HandleTemperature(client paho.Client, msg paho.Message) {
	entity, ok := h.entity(msg.Topic())
	if !ok {
		return
	}
	payload := strings.TrimSpace(string(msg.Payload()))
	log.Infof("Received temperature command for %s: %s", entity.UniqueID(), payload)

	temp, err := strconv.ParseFloat(payload, 64)
	if err != nil || math.IsNaN(temp) || math.IsInf(temp, 0) {
		log.Errorf("Invalid temperature format: %q", payload)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := entity.SetTemperature(ctx, temp); err != nil {
		log.WithError(err).Errorf("Error setting temperature of %s", entity.UniqueID())
	}
}

// HandleRefresh handles <prefix>/<id>/refresh.
func (h *Handler) HandleRefresh(client paho.Client, msg paho.Message) {
	entity, ok := h.entity(msg.Topic())
	if !ok {
		return
	}
	log.Debugf("Refresh requested for %s", entity.UniqueID())
	entity.Update(context.Background())
}

func (h *Handler) entity(topic string) (ports.ClimateEntity, bool) {
	rest := strings.TrimPrefix(topic, h.prefix+"/")
	if rest == topic {
		return nil, false
	}
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) < 2 || parts[0] == "" {
		return nil, false
	}

	h.mu.RLock()
	entity, ok := h.entities[parts[0]]
	h.mu.RUnlock()
	if !ok {
		log.Warnf("Command for unknown device %s", parts[0])
	}
	return entity, ok
}
