package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"broadlink-climate-bridge/internal/domain/model"
	"broadlink-climate-bridge/internal/domain/translator"
	"broadlink-climate-bridge/internal/ports"
	log "github.com/sirupsen/logrus"
)

const hueRequestTimeout = 30 * time.Second

// BridgeService exposes thermostats to Hue clients.
type BridgeService struct {
	hue         *translator.HueStrategy
	onMode      model.HVACMode
	thermostats map[string]ports.ClimateEntity
	mu          sync.RWMutex
}

var _ ports.BridgePort = (*BridgeService)(nil)

func NewBridgeService(hue *translator.HueStrategy, onMode model.HVACMode) *BridgeService {
	if onMode == "" || onMode == model.HVACModeOff {
		onMode = model.HVACModeHeat
	}
	return &BridgeService{
		hue:         hue,
		onMode:      onMode,
		thermostats: make(map[string]ports.ClimateEntity),
	}
}

func (s *BridgeService) Register(hueID string, thermostat ports.ClimateEntity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thermostats[hueID] = thermostat
}

func (s *BridgeService) GetDevices(ctx context.Context) ([]*model.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	devices := make([]*model.Device, 0, len(s.thermostats))
	for id, t := range s.thermostats {
		devices = append(devices, s.toDevice(id, t))
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices, nil
}

func (s *BridgeService) GetDevice(ctx context.Context, id string) (*model.Device, error) {
	s.mu.RLock()
	t, ok := s.thermostats[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("device %s not found", id)
	}
	return s.toDevice(id, t), nil
}

// UpdateDeviceState maps a Hue state change onto the thermostat: "on" picks
// a mode, "bri" a set-point. The device calls run in the background.
func (s *BridgeService) UpdateDeviceState(ctx context.Context, id string, hueStateUpdate map[string]interface{}) error {
	s.mu.RLock()
	t, ok := s.thermostats[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("device %s not found", id)
	}

	var mode model.HVACMode
	if on, ok := hueStateUpdate["on"].(bool); ok {
		current := t.State().HVACMode
		switch {
		case !on:
			mode = model.HVACModeOff
		case current == "" || current == model.HVACModeOff:
			mode = s.onMode
		}
	}
	var target *float64
	if bri, ok := hueStateUpdate["bri"].(float64); ok {
		if bri < 0 {
			bri = 0
		}
		if bri > 254 {
			bri = 254
		}
		target = model.Float(s.hue.ToTemperature(uint8(bri)))
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), hueRequestTimeout)
		defer cancel()
		if mode != "" {
			if err := t.SetHVACMode(ctx, mode); err != nil {
				log.WithError(err).Errorf("Error setting mode of %s", t.UniqueID())
				return
			}
		}
		if target != nil {
			if err := t.SetTemperature(ctx, *target); err != nil {
				log.WithError(err).Errorf("Error setting temperature of %s", t.UniqueID())
			}
		}
	}()

	return nil
}

func (s *BridgeService) GetMetadata() model.HueMetadata {
	return s.hue.GetMetadata()
}

func (s *BridgeService) toDevice(id string, t ports.ClimateEntity) *model.Device {
	return &model.Device{
		ID:         id,
		Name:       t.Name(),
		Type:       model.DeviceTypeHysen,
		ExternalID: t.UniqueID(),
		State:      s.hue.ToHue(t.State()),
	}
}
