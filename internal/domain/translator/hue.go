package translator

import (
	"math"

	"broadlink-climate-bridge/internal/domain/model"
	"github.com/Knetic/govaluate"
	"github.com/amimof/huego"
)

const (
	DefaultHueMinTemp = 7.0
	DefaultHueMaxTemp = 28.0

	maxBri = 254
)

// HueStrategy presents a thermostat as a dimmable Hue light: on while the
// mode is not off, brightness tracking the set-point.
type HueStrategy struct {
	MinTemp float64
	MaxTemp float64

	ToHueFormula    string
	ToDeviceFormula string
}

func NewHueStrategy(cfg model.HueConfig) *HueStrategy {
	s := &HueStrategy{
		MinTemp:         cfg.MinTemp,
		MaxTemp:         cfg.MaxTemp,
		ToHueFormula:    cfg.ToHueFormula,
		ToDeviceFormula: cfg.ToDeviceFormula,
	}
	if s.MaxTemp <= s.MinTemp {
		s.MinTemp, s.MaxTemp = DefaultHueMinTemp, DefaultHueMaxTemp
	}
	return s
}

func (s *HueStrategy) ToHue(state model.DisplayState) *huego.State {
	hueState := &huego.State{
		On:        state.HVACMode != "" && state.HVACMode != model.HVACModeOff,
		Reachable: true,
	}
	if state.TargetTemperature == nil {
		return hueState
	}

	temp := *state.TargetTemperature
	var bri float64
	if s.ToHueFormula != "" {
		bri = s.evaluate(s.ToHueFormula, temp)
	} else {
		temp = math.Max(s.MinTemp, math.Min(s.MaxTemp, temp))
		bri = (temp - s.MinTemp) * maxBri / (s.MaxTemp - s.MinTemp)
	}
	hueState.Bri = uint8(math.Max(0, math.Min(maxBri, bri)))
	return hueState
}

// ToTemperature converts a Hue brightness to a set-point on the thermostat's
// 0.5 degree grid.
func (s *HueStrategy) ToTemperature(bri uint8) float64 {
	var temp float64
	if s.ToDeviceFormula != "" {
		temp = s.evaluate(s.ToDeviceFormula, float64(bri))
	} else {
		temp = float64(bri)*(s.MaxTemp-s.MinTemp)/maxBri + s.MinTemp
	}
	return math.Round(temp*2) / 2
}

func (s *HueStrategy) GetMetadata() model.HueMetadata {
	return model.HueMetadata{
		Type:             "Dimmable light",
		ModelID:          "LWB004",
		ManufacturerName: "Philips",
	}
}

// evaluate handles simple formulas like "x * 2.54" or "x / 2.54 + 7"
func (s *HueStrategy) evaluate(formula string, x float64) float64 {
	expression, err := govaluate.NewEvaluableExpression(formula)
	if err != nil {
		return x
	}
	parameters := make(map[string]interface{}, 1)
	parameters["x"] = x

	result, err := expression.Evaluate(parameters)
	if err != nil {
		return x
	}

	if val, ok := result.(float64); ok {
		return val
	}
	return x
}
