package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"broadlink-climate-bridge/internal/domain/model"
	"broadlink-climate-bridge/internal/domain/translator"
	"broadlink-climate-bridge/internal/ports"
	log "github.com/sirupsen/logrus"
)

const (
	TargetTemperatureStep = 0.5
	TemperatureUnit       = "°C"

	// SupportTargetTemperature is the only climate feature a Hysen exposes.
	SupportTargetTemperature = 1
)

// Thermostat is the climate entity of one Hysen device. It owns its
// DisplayState; host adapters read it through State and write through
// SetTemperature and SetHVACMode.
type Thermostat struct {
	device      *model.DeviceConfig
	translator  translator.Translator
	channel     ports.DeviceCommandPort
	coordinator ports.Coordinator
	publisher   ports.StatePublisher
	states      ports.StateRepository
	log         *log.Entry

	mu             sync.RWMutex
	state          model.DisplayState
	live           bool
	removeListener func()

	// One outstanding command sequence per entity.
	cmdMu sync.Mutex
}

var _ ports.ClimateEntity = (*Thermostat)(nil)

func NewThermostat(
	device *model.DeviceConfig,
	tr translator.Translator,
	channel ports.DeviceCommandPort,
	coordinator ports.Coordinator,
	publisher ports.StatePublisher,
	states ports.StateRepository) *Thermostat {
	return &Thermostat{
		device:      device,
		translator:  tr,
		channel:     channel,
		coordinator: coordinator,
		publisher:   publisher,
		states:      states,
		log:         log.WithField("device", device.ID),
	}
}

func (t *Thermostat) UniqueID() string { return t.device.ID }

func (t *Thermostat) Name() string { return fmt.Sprintf("%s Thermostat", t.device.Name) }

func (t *Thermostat) SupportedFeatures() int { return SupportTargetTemperature }

func (t *Thermostat) TargetTemperatureStep() float64 { return TargetTemperatureStep }

func (t *Thermostat) TemperatureUnit() string { return TemperatureUnit }

func (t *Thermostat) HVACModes() []model.HVACMode {
	return append([]model.HVACMode(nil), model.HVACModes...)
}

func (t *Thermostat) Available() bool { return t.coordinator.LastUpdateSuccess() }

// State returns a copy of the current display state.
func (t *Thermostat) State() model.DisplayState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.state
	if s.CurrentTemperature != nil {
		s.CurrentTemperature = model.Float(*s.CurrentTemperature)
	}
	if s.TargetTemperature != nil {
		s.TargetTemperature = model.Float(*s.TargetTemperature)
	}
	return s
}

// Attach restores the last persisted state, writes it and starts following
// coordinator updates.
func (t *Thermostat) Attach(ctx context.Context) {
	if t.states != nil {
		snapshot, err := t.states.Get(ctx, t.UniqueID())
		if err != nil {
			t.log.WithError(err).Warn("Failed to load last state")
		} else if snapshot != nil {
			t.Restore(*snapshot)
		}
	}
	t.writeState(ctx)

	remove := t.coordinator.AddListener(t.HandleCoordinatorUpdate)
	t.mu.Lock()
	t.removeListener = remove
	t.mu.Unlock()
}

func (t *Thermostat) Detach() {
	t.mu.Lock()
	remove := t.removeListener
	t.removeListener = nil
	t.mu.Unlock()
	if remove != nil {
		remove()
	}
}

// Restore applies a persisted snapshot field by field. Fields that do not
// hold a recognized value are skipped. Nothing is applied once a live status
// has been seen.
func (t *Thermostat) Restore(snapshot model.StateSnapshot) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.live {
		return false
	}

	if mode, err := model.ParseHVACMode(snapshot.State); err == nil {
		t.state.HVACMode = mode
	} else if snapshot.State != "" {
		t.log.Warnf("Ignoring persisted hvac mode %q", snapshot.State)
	}

	if raw, ok := snapshot.Attributes[model.AttrHVACAction]; ok && raw != nil {
		s, _ := raw.(string)
		if action, ok := model.ParseHVACAction(s); ok {
			t.state.HVACAction = action
		} else {
			t.log.Warnf("Ignoring persisted hvac action %v", raw)
		}
	}
	if v, ok := number(snapshot.Attributes[model.AttrCurrentTemperature]); ok {
		t.state.CurrentTemperature = model.Float(v)
	}
	if v, ok := number(snapshot.Attributes[model.AttrTemperature]); ok {
		t.state.TargetTemperature = model.Float(v)
	}

	t.log.Infof("Restored state: %s", t.state)
	return true
}

// HandleCoordinatorUpdate is the coordinator listener. A failed poll leaves
// the display state as it was; the state is written either way.
func (t *Thermostat) HandleCoordinatorUpdate() {
	if t.coordinator.LastUpdateSuccess() {
		if status, ok := t.coordinator.Data(); ok {
			next := t.translator.DeriveDisplayState(status)
			t.mu.Lock()
			t.state = next
			t.live = true
			t.mu.Unlock()
			t.log.Debugf("Status update: %s", next)
		}
	}
	t.writeState(context.Background())
}

// SetTemperature records the new set-point before the device confirms it.
func (t *Thermostat) SetTemperature(ctx context.Context, target float64) error {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return fmt.Errorf("%w: %v", model.ErrInvalidTemperature, target)
	}

	t.mu.Lock()
	t.state.TargetTemperature = model.Float(target)
	t.mu.Unlock()
	t.writeState(ctx)

	return t.send(ctx, []model.DeviceCommand{t.translator.BuildTemperatureSetCommand(target)})
}

// SetHVACMode records the new mode before the device confirms it, then
// sends the power and mode commands in order.
func (t *Thermostat) SetHVACMode(ctx context.Context, mode model.HVACMode) error {
	t.mu.Lock()
	cmds, err := t.translator.BuildModeChangeCommands(mode, t.state.SensorSource)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	t.state.HVACMode = mode
	if mode == model.HVACModeOff {
		t.state.HVACAction = model.HVACActionOff
	}
	t.mu.Unlock()
	t.writeState(ctx)

	return t.send(ctx, cmds)
}

// Update asks the coordinator for a fresh status.
func (t *Thermostat) Update(ctx context.Context) {
	t.coordinator.RequestRefresh(ctx)
}

// send issues cmds one at a time and stops at the first failure. Commands
// already accepted by the device are not rolled back; the next poll
// reconciles the display state.
func (t *Thermostat) send(ctx context.Context, cmds []model.DeviceCommand) error {
	t.cmdMu.Lock()
	defer t.cmdMu.Unlock()

	for i, cmd := range cmds {
		t.log.Debugf("TX: %s", cmd)
		if err := t.channel.Request(ctx, cmd); err != nil {
			t.log.WithError(err).Errorf("Command %s failed, skipping %d remaining", cmd, len(cmds)-i-1)
			return fmt.Errorf("%s: %w", cmd.Kind, err)
		}
	}
	return nil
}

func (t *Thermostat) writeState(ctx context.Context) {
	if t.publisher != nil {
		if err := t.publisher.PublishState(ctx, t); err != nil {
			t.log.WithError(err).Warn("Failed to publish state")
		}
	}
	if t.states != nil {
		if err := t.states.Save(ctx, t.UniqueID(), model.NewStateSnapshot(t.State())); err != nil {
			t.log.WithError(err).Warn("Failed to persist state")
		}
	}
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
