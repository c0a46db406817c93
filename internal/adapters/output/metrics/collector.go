package metrics

import (
	"sync"

	"broadlink-climate-bridge/internal/domain/model"
	"broadlink-climate-bridge/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "broadlink_climate"

// Collector exports the display state of every registered thermostat.
type Collector struct {
	mu       sync.RWMutex
	entities []ports.ClimateEntity

	currentTemp *prometheus.GaugeVec
	targetTemp  *prometheus.GaugeVec
	mode        *prometheus.GaugeVec
	action      *prometheus.GaugeVec
	available   *prometheus.GaugeVec
}

func NewCollector() *Collector {
	labels := []string{"device_id", "device_name"}
	return &Collector{
		currentTemp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_temperature_celsius",
			Help:      "Temperature reported by the selected sensor",
		}, labels),
		targetTemp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "target_temperature_celsius",
			Help:      "Thermostat set-point",
		}, labels),
		mode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hvac_mode",
			Help:      "Current hvac mode (1 for the active mode)",
		}, append(labels, "mode")),
		action: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hvac_action",
			Help:      "Current hvac action (1 for the active action)",
		}, append(labels, "action")),
		available: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "available",
			Help:      "Last status poll success (1=ok, 0=error)",
		}, labels),
	}
}

func (c *Collector) Add(entity ports.ClimateEntity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entities = append(c.entities, entity)
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.currentTemp.Describe(ch)
	c.targetTemp.Describe(ch)
	c.mode.Describe(ch)
	c.action.Describe(ch)
	c.available.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.currentTemp.Reset()
	c.targetTemp.Reset()
	c.mode.Reset()
	c.action.Reset()
	c.available.Reset()

	for _, e := range c.entities {
		id, name := e.UniqueID(), e.Name()
		st := e.State()

		c.available.WithLabelValues(id, name).Set(boolValue(e.Available()))
		if st.CurrentTemperature != nil {
			c.currentTemp.WithLabelValues(id, name).Set(*st.CurrentTemperature)
		}
		if st.TargetTemperature != nil {
			c.targetTemp.WithLabelValues(id, name).Set(*st.TargetTemperature)
		}
		if st.HVACMode != "" {
			for _, m := range model.HVACModes {
				c.mode.WithLabelValues(id, name, string(m)).Set(boolValue(m == st.HVACMode))
			}
		}
		if st.HVACAction != "" {
			for _, a := range []model.HVACAction{model.HVACActionHeating, model.HVACActionCooling, model.HVACActionIdle, model.HVACActionOff} {
				c.action.WithLabelValues(id, name, string(a)).Set(boolValue(a == st.HVACAction))
			}
		}
	}

	c.currentTemp.Collect(ch)
	c.targetTemp.Collect(ch)
	c.mode.Collect(ch)
	c.action.Collect(ch)
	c.available.Collect(ch)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
