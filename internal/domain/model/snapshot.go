package model

// Persisted attribute names, matching Home Assistant's climate state.
const (
	AttrHVACAction         = "hvac_action"
	AttrCurrentTemperature = "current_temperature"
	AttrTemperature        = "temperature"
)

// StateSnapshot is the last state written for an entity, kept across
// restarts. State holds the hvac mode token.
type StateSnapshot struct {
	State      string                 `json:"state"`
	Attributes map[string]interface{} `json:"attributes"`
}

// NewStateSnapshot captures a display state in persisted form.
func NewStateSnapshot(s DisplayState) StateSnapshot {
	attrs := map[string]interface{}{
		AttrHVACAction:         nil,
		AttrCurrentTemperature: nil,
		AttrTemperature:        nil,
	}
	if s.HVACAction != "" {
		attrs[AttrHVACAction] = string(s.HVACAction)
	}
	if s.CurrentTemperature != nil {
		attrs[AttrCurrentTemperature] = *s.CurrentTemperature
	}
	if s.TargetTemperature != nil {
		attrs[AttrTemperature] = *s.TargetTemperature
	}
	return StateSnapshot{State: string(s.HVACMode), Attributes: attrs}
}
