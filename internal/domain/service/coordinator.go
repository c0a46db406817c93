package service

import (
	"context"
	"sync"
	"time"

	"broadlink-climate-bridge/internal/domain/model"
	"broadlink-climate-bridge/internal/ports"
	log "github.com/sirupsen/logrus"
)

const DefaultPollInterval = 30 * time.Second

// UpdateCoordinator polls a device for status and notifies listeners after
// every attempt, successful or not.
type UpdateCoordinator struct {
	source   ports.StatusSource
	interval time.Duration
	timeout  time.Duration
	log      *log.Entry

	mu                sync.RWMutex
	data              *model.DeviceStatus
	lastUpdateSuccess bool
	failing           bool
	listeners         map[int]func()
	nextID            int

	refresh chan struct{}
}

var _ ports.Coordinator = (*UpdateCoordinator)(nil)

func NewUpdateCoordinator(name string, source ports.StatusSource, interval time.Duration) *UpdateCoordinator {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &UpdateCoordinator{
		source:    source,
		interval:  interval,
		timeout:   interval,
		log:       log.WithField("device", name),
		listeners: make(map[int]func()),
		refresh:   make(chan struct{}, 1),
	}
}

func (c *UpdateCoordinator) Data() (model.DeviceStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.data == nil {
		return model.DeviceStatus{}, false
	}
	return *c.data, true
}

func (c *UpdateCoordinator) LastUpdateSuccess() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUpdateSuccess
}

func (c *UpdateCoordinator) AddListener(fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// RequestRefresh schedules a refresh on the Run loop. Requests made while
// one is already pending are merged.
func (c *UpdateCoordinator) RequestRefresh(ctx context.Context) {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// Refresh fetches a status snapshot and notifies listeners.
func (c *UpdateCoordinator) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	status, err := c.source.Status(ctx)

	c.mu.Lock()
	wasFailing := c.failing
	if err != nil {
		c.lastUpdateSuccess = false
	} else {
		c.data = status
		c.lastUpdateSuccess = true
	}
	c.failing = err != nil
	listeners := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	switch {
	case err != nil && !wasFailing:
		c.log.WithError(err).Error("Error fetching status")
	case err != nil:
		c.log.WithError(err).Debug("Status still unavailable")
	case wasFailing:
		c.log.Info("Fetching status recovered")
	}

	for _, fn := range listeners {
		fn()
	}
	return err
}

// Run polls until ctx is done, starting with an immediate refresh.
func (c *UpdateCoordinator) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Refresh(ctx)
	for {
		select {
		case <-ticker.C:
			c.Refresh(ctx)
		case <-c.refresh:
			c.Refresh(ctx)
			ticker.Reset(c.interval)
		case <-ctx.Done():
			return nil
		}
	}
}
