package translator

import (
	"broadlink-climate-bridge/internal/domain/model"
)

// Factory maps Broadlink device types to their translators.
type Factory struct {
	strategies map[model.DeviceType]Translator
}

func NewFactory() *Factory {
	return &Factory{
		strategies: map[model.DeviceType]Translator{
			model.DeviceTypeHysen: &HysenStrategy{},
		},
	}
}

// GetTranslator returns the translator for a Broadlink device type. Only
// device types with a climate entity are known.
func (f *Factory) GetTranslator(deviceType model.DeviceType) (Translator, bool) {
	t, ok := f.strategies[deviceType]
	return t, ok
}
