package broadlink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"broadlink-climate-bridge/internal/domain/model"
	"broadlink-climate-bridge/internal/ports"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTimeout = 10 * time.Second

	// A Hysen answers one request at a time; polls landing right after each
	// other reuse the last answer.
	statusCacheTTL = 2 * time.Second
)

// Gateway talks to a Broadlink HTTP gateway that owns the local network
// protocol and forwards device API calls.
type Gateway struct {
	url        string
	httpClient *http.Client
	cache      *cache.Cache
}

func NewGateway(cfg model.GatewayConfig) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{
		url:        strings.TrimSuffix(cfg.URL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache.New(statusCacheTTL, time.Minute),
	}
}

// Device returns the command channel and status source of one device.
func (g *Gateway) Device(id string) *Device {
	return &Device{gateway: g, id: id, log: log.WithField("device", id)}
}

// Device is a single thermostat behind the gateway.
type Device struct {
	gateway *Gateway
	id      string
	log     *log.Entry
}

var (
	_ ports.DeviceCommandPort = (*Device)(nil)
	_ ports.StatusSource      = (*Device)(nil)
)

func (d *Device) ID() string { return d.id }

// Status returns the device status, served from cache when fresh.
func (d *Device) Status(ctx context.Context) (*model.DeviceStatus, error) {
	if cached, found := d.gateway.cache.Get(d.id); found {
		st := cached.(model.DeviceStatus)
		return &st, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint("status"), nil)
	if err != nil {
		return nil, err
	}

	var status model.DeviceStatus
	if err := d.do(req, &status); err != nil {
		return nil, err
	}

	d.gateway.cache.Set(d.id, status, cache.DefaultExpiration)
	d.log.Tracef("RX: %+v", status)
	return &status, nil
}

// Request sends one command and waits for the gateway to relay the device
// acknowledgment.
func (d *Device) Request(ctx context.Context, cmd model.DeviceCommand) error {
	body, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint("commands"), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	// The device state is about to change
	d.gateway.cache.Delete(d.id)

	return d.do(req, nil)
}

func (d *Device) endpoint(resource string) string {
	return fmt.Sprintf("%s/devices/%s/%s", d.gateway.url, url.PathEscape(d.id), resource)
}

func (d *Device) do(req *http.Request, out interface{}) error {
	resp, err := d.gateway.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrCommunication, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: gateway error %d: %s", model.ErrCommunication, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", model.ErrCommunication, err)
	}
	return nil
}
