package metrics

import (
	"context"
	"time"

	"broadlink-climate-bridge/internal/domain/model"
	"broadlink-climate-bridge/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// DeviceMetrics counts the calls made to devices.
type DeviceMetrics struct {
	commands        *prometheus.CounterVec
	commandFailures *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	polls           *prometheus.CounterVec
	pollFailures    *prometheus.CounterVec
}

func NewDeviceMetrics() *DeviceMetrics {
	return &DeviceMetrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Device commands sent",
		}, []string{"device_id", "command"}),
		commandFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_failures_total",
			Help:      "Device commands that failed",
		}, []string{"device_id", "command"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time until the device acknowledged a command",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"device_id"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_polls_total",
			Help:      "Status requests made",
		}, []string{"device_id"}),
		pollFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_poll_failures_total",
			Help:      "Status requests that failed",
		}, []string{"device_id"}),
	}
}

func (m *DeviceMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.commands.Describe(ch)
	m.commandFailures.Describe(ch)
	m.commandDuration.Describe(ch)
	m.polls.Describe(ch)
	m.pollFailures.Describe(ch)
}

func (m *DeviceMetrics) Collect(ch chan<- prometheus.Metric) {
	m.commands.Collect(ch)
	m.commandFailures.Collect(ch)
	m.commandDuration.Collect(ch)
	m.polls.Collect(ch)
	m.pollFailures.Collect(ch)
}

// Commands wraps a command channel so every request is counted.
func (m *DeviceMetrics) Commands(deviceID string, next ports.DeviceCommandPort) ports.DeviceCommandPort {
	return &commandPort{metrics: m, deviceID: deviceID, next: next}
}

// Status wraps a status source so every poll is counted.
func (m *DeviceMetrics) Status(deviceID string, next ports.StatusSource) ports.StatusSource {
	return &statusSource{metrics: m, deviceID: deviceID, next: next}
}

type commandPort struct {
	metrics  *DeviceMetrics
	deviceID string
	next     ports.DeviceCommandPort
}

func (p *commandPort) Request(ctx context.Context, cmd model.DeviceCommand) error {
	start := time.Now()
	err := p.next.Request(ctx, cmd)
	p.metrics.commandDuration.WithLabelValues(p.deviceID).Observe(time.Since(start).Seconds())
	p.metrics.commands.WithLabelValues(p.deviceID, string(cmd.Kind)).Inc()
	if err != nil {
		p.metrics.commandFailures.WithLabelValues(p.deviceID, string(cmd.Kind)).Inc()
	}
	return err
}

type statusSource struct {
	metrics  *DeviceMetrics
	deviceID string
	next     ports.StatusSource
}

func (s *statusSource) Status(ctx context.Context) (*model.DeviceStatus, error) {
	status, err := s.next.Status(ctx)
	s.metrics.polls.WithLabelValues(s.deviceID).Inc()
	if err != nil {
		s.metrics.pollFailures.WithLabelValues(s.deviceID).Inc()
	}
	return status, err
}
