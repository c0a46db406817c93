package translator

import (
	"testing"

	"broadlink-climate-bridge/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHysenStrategy_PowerOff(t *testing.T) {
	s := &HysenStrategy{}
	for _, auto := range []model.Flag{false, true} {
		for _, hc := range []model.Flag{false, true} {
			for _, active := range []model.Flag{false, true} {
				st := s.DeriveDisplayState(model.DeviceStatus{
					Power: false, AutoMode: auto, HeatingCooling: hc, Active: active,
				})
				assert.Equal(t, model.HVACModeOff, st.HVACMode)
				assert.Equal(t, model.HVACActionOff, st.HVACAction)
			}
		}
	}
}

func TestHysenStrategy_Modes(t *testing.T) {
	s := &HysenStrategy{}

	st := s.DeriveDisplayState(model.DeviceStatus{Power: true, AutoMode: true, HeatingCooling: true})
	assert.Equal(t, model.HVACModeAuto, st.HVACMode)

	st = s.DeriveDisplayState(model.DeviceStatus{Power: true, HeatingCooling: false})
	assert.Equal(t, model.HVACModeHeat, st.HVACMode)

	st = s.DeriveDisplayState(model.DeviceStatus{Power: true, HeatingCooling: true})
	assert.Equal(t, model.HVACModeCool, st.HVACMode)
}

func TestHysenStrategy_Actions(t *testing.T) {
	s := &HysenStrategy{}

	st := s.DeriveDisplayState(model.DeviceStatus{Power: true, Active: false, HeatingCooling: true})
	assert.Equal(t, model.HVACActionIdle, st.HVACAction)

	st = s.DeriveDisplayState(model.DeviceStatus{Power: true, Active: true})
	assert.Equal(t, model.HVACActionHeating, st.HVACAction)

	st = s.DeriveDisplayState(model.DeviceStatus{Power: true, Active: true, HeatingCooling: true})
	assert.Equal(t, model.HVACActionCooling, st.HVACAction)

	// Auto mode still reports what the device is doing
	st = s.DeriveDisplayState(model.DeviceStatus{Power: true, AutoMode: true, Active: true})
	assert.Equal(t, model.HVACActionHeating, st.HVACAction)
}

func TestHysenStrategy_CurrentTemperatureFollowsSensor(t *testing.T) {
	s := &HysenStrategy{}
	status := model.DeviceStatus{RoomTemp: 20.5, ExternalTemp: 17.0, ThermostatTemp: 21.0}

	st := s.DeriveDisplayState(status)
	require.NotNil(t, st.CurrentTemperature)
	assert.Equal(t, 20.5, *st.CurrentTemperature)
	assert.False(t, st.SensorSource)

	status.Sensor = true
	st = s.DeriveDisplayState(status)
	assert.Equal(t, 17.0, *st.CurrentTemperature)
	assert.Equal(t, 21.0, *st.TargetTemperature)
	assert.True(t, st.SensorSource)
}

func TestHysenStrategy_Scenarios(t *testing.T) {
	s := &HysenStrategy{}

	st := s.DeriveDisplayState(model.DeviceStatus{
		Power: true, AutoMode: false, HeatingCooling: false, Active: true, Sensor: false,
		RoomTemp: 21.5, ThermostatTemp: 22.0,
	})
	assert.Equal(t, model.HVACModeHeat, st.HVACMode)
	assert.Equal(t, model.HVACActionHeating, st.HVACAction)
	assert.Equal(t, 21.5, *st.CurrentTemperature)
	assert.Equal(t, 22.0, *st.TargetTemperature)

	st = s.DeriveDisplayState(model.DeviceStatus{
		Power: true, AutoMode: true, Active: false, Sensor: true,
		ExternalTemp: 19.0, ThermostatTemp: 20.0,
	})
	assert.Equal(t, model.HVACModeAuto, st.HVACMode)
	assert.Equal(t, model.HVACActionIdle, st.HVACAction)
	assert.Equal(t, 19.0, *st.CurrentTemperature)
	assert.Equal(t, 20.0, *st.TargetTemperature)
}

func TestHysenStrategy_ModeChangeCommands(t *testing.T) {
	s := &HysenStrategy{}

	cmds, err := s.BuildModeChangeCommands(model.HVACModeOff, true)
	require.NoError(t, err)
	assert.Equal(t, []model.DeviceCommand{model.SetPower(false)}, cmds)
	assert.Equal(t, []float64{0}, cmds[0].Args)

	cmds, err = s.BuildModeChangeCommands(model.HVACModeAuto, true)
	require.NoError(t, err)
	assert.Equal(t, []model.DeviceCommand{
		{Kind: model.CommandSetPower, Args: []float64{1}},
		{Kind: model.CommandSetMode, Args: []float64{1, 0, 1}},
	}, cmds)

	cmds, err = s.BuildModeChangeCommands(model.HVACModeHeat, false)
	require.NoError(t, err)
	assert.Equal(t, []model.DeviceCommand{
		{Kind: model.CommandSetPower, Args: []float64{1}},
		{Kind: model.CommandSetMode, Args: []float64{0, 0, 0}},
	}, cmds)

	for _, sensor := range []bool{false, true} {
		cmds, err = s.BuildModeChangeCommands(model.HVACModeCool, sensor)
		require.NoError(t, err)
		require.Len(t, cmds, 2)
		assert.Equal(t, model.CommandSetPower, cmds[0].Kind)
		assert.Equal(t, []float64{1, 0, 1}, cmds[0].Args)
		assert.Equal(t, model.SetMode(false, sensor), cmds[1])
	}
}

func TestHysenStrategy_UnknownMode(t *testing.T) {
	s := &HysenStrategy{}
	cmds, err := s.BuildModeChangeCommands(model.HVACMode("dry"), false)
	assert.ErrorIs(t, err, model.ErrUnsupportedMode)
	assert.Empty(t, cmds)
}

func TestHysenStrategy_TemperatureCommand(t *testing.T) {
	s := &HysenStrategy{}
	cmd := s.BuildTemperatureSetCommand(22.5)
	assert.Equal(t, model.CommandSetTemp, cmd.Kind)
	assert.Equal(t, []float64{22.5}, cmd.Args)
	assert.Equal(t, "set_temp(22.5)", cmd.String())
}

func TestHueStrategy(t *testing.T) {
	s := NewHueStrategy(model.HueConfig{})
	assert.Equal(t, DefaultHueMinTemp, s.MinTemp)

	hueState := s.ToHue(model.DisplayState{HVACMode: model.HVACModeHeat, TargetTemperature: model.Float(21.0)})
	assert.True(t, hueState.On)
	assert.True(t, hueState.Reachable)
	assert.Equal(t, uint8(169), hueState.Bri)

	hueState = s.ToHue(model.DisplayState{HVACMode: model.HVACModeOff, TargetTemperature: model.Float(40)})
	assert.False(t, hueState.On)
	assert.Equal(t, uint8(254), hueState.Bri)

	assert.Equal(t, 28.0, s.ToTemperature(254))
	assert.Equal(t, 7.0, s.ToTemperature(0))
	assert.Equal(t, 21.0, s.ToTemperature(169))
}

func TestHueStrategy_Formulas(t *testing.T) {
	s := NewHueStrategy(model.HueConfig{
		MinTemp:         5,
		MaxTemp:         35,
		ToHueFormula:    "x * 5",
		ToDeviceFormula: "x / 5",
	})

	hueState := s.ToHue(model.DisplayState{HVACMode: model.HVACModeAuto, TargetTemperature: model.Float(20)})
	assert.Equal(t, uint8(100), hueState.Bri)
	assert.Equal(t, 20.5, s.ToTemperature(102))
}

func TestHueStrategy_Evaluate(t *testing.T) {
	s := &HueStrategy{}
	assert.Equal(t, 10.0, s.evaluate("x * 2", 5))
	assert.Equal(t, 5.0, s.evaluate("x / 2", 10))
	assert.Equal(t, 20.0, s.evaluate("x * 2 + 10", 5))

	// Error path
	assert.Equal(t, 5.0, s.evaluate("invalid", 5.0))
}

func TestMetadata(t *testing.T) {
	s := &HueStrategy{}
	assert.Equal(t, "Dimmable light", s.GetMetadata().Type)
	assert.Equal(t, "LWB004", s.GetMetadata().ModelID)
}

func TestFactory(t *testing.T) {
	f := NewFactory()
	tr, ok := f.GetTranslator(model.DeviceTypeHysen)
	assert.True(t, ok)
	assert.IsType(t, &HysenStrategy{}, tr)

	_, ok = f.GetTranslator(model.DeviceType("RM4"))
	assert.False(t, ok)
}
