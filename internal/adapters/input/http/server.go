package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"broadlink-climate-bridge/internal/domain/model"
	"broadlink-climate-bridge/internal/ports"
	"github.com/amimof/huego"
	log "github.com/sirupsen/logrus"
)

// Server serves the Hue bridge API that Alexa uses to discover and drive
// thermostats, plus the metrics endpoint.
type Server struct {
	bridge  ports.BridgePort
	metrics http.Handler
	ip      string
	port    int
}

func NewServer(bridge ports.BridgePort, metrics http.Handler, ip string, port int) *Server {
	if port == 0 {
		port = 80
	}
	return &Server{
		bridge:  bridge,
		metrics: metrics,
		ip:      ip,
		port:    port,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.bridge != nil {
		mux.HandleFunc("/description.xml", s.handleDescription)
		mux.HandleFunc("/api", s.handleAPI)
		mux.HandleFunc("/api/", s.handleAPI)
	}
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}

// ListenAndServe serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Infof("HTTP Server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

func (s *Server) handleDescription(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8" ?>
<root xmlns="urn:schemas-upnp-org:device-1-0">
<specVersion>
<major>1</major>
<minor>0</minor>
</specVersion>
<URLBase>http://%s:%d/</URLBase>
<device>
<deviceType>urn:schemas-upnp-org:device:Basic:1</deviceType>
<friendlyName>Philips hue (%s)</friendlyName>
<manufacturer>Royal Philips Electronics</manufacturer>
<manufacturerURL>http://www.philips.com</manufacturerURL>
<modelDescription>Philips hue Personal Wireless Lighting</modelDescription>
<modelName>Philips hue bridge 2012</modelName>
<modelNumber>929000226503</modelNumber>
<modelURL>http://www.meethue.com</modelURL>
<serialNumber>001788102201</serialNumber>
<UDN>uuid:2f402f80-da50-11e1-9b23-001788102201</UDN>
</device>
</root>`, s.ip, s.port, s.ip)
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	log.Debugf("Hue API %s %s", r.Method, r.URL.Path)

	if r.Method == http.MethodPost && (path == "" || path == "/") {
		s.handleRegister(w, r)
		return
	}

	if len(parts) < 1 || parts[0] == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	subPath := parts[1:]
	if len(subPath) == 0 {
		s.handleFullState(w, r)
		return
	}

	switch subPath[0] {
	case "lights":
		switch {
		case len(subPath) == 1:
			s.handleGetLights(w, r)
		case len(subPath) == 2:
			s.handleGetLight(w, r, subPath[1])
		case len(subPath) == 3 && subPath[2] == "state":
			s.handleSetLightState(w, r, subPath[1])
		default:
			http.NotFound(w, r)
		}
	case "groups":
		writeJSON(w, map[string]interface{}{})
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `[{"success":{"username": "admin"}}]`)
}

func (s *Server) lights(devices []*model.Device) map[string]*huego.Light {
	meta := s.bridge.GetMetadata()
	lights := make(map[string]*huego.Light, len(devices))
	for _, d := range devices {
		lights[d.ID] = s.light(meta, d)
	}
	return lights
}

func (s *Server) light(meta model.HueMetadata, d *model.Device) *huego.Light {
	return &huego.Light{
		Name:             d.Name,
		Type:             meta.Type,
		State:            d.State,
		ModelID:          meta.ModelID,
		UniqueID:         d.ExternalID,
		ManufacturerName: meta.ManufacturerName,
	}
}

func (s *Server) handleFullState(w http.ResponseWriter, r *http.Request) {
	devices, err := s.bridge.GetDevices(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"lights": s.lights(devices),
		"groups": make(map[string]interface{}),
		"config": map[string]interface{}{
			"name":       "Philips hue",
			"swversion":  "01003542",
			"apiversion": "1.11.0",
			"mac":        "00:17:88:10:22:01",
			"bridgeid":   "001788FFFE102201",
			"modelid":    "BSB001",
		},
	})
}

func (s *Server) handleGetLights(w http.ResponseWriter, r *http.Request) {
	devices, err := s.bridge.GetDevices(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, s.lights(devices))
}

func (s *Server) handleGetLight(w http.ResponseWriter, r *http.Request, id string) {
	device, err := s.bridge.GetDevice(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, s.light(s.bridge.GetMetadata(), device))
}

func (s *Server) handleSetLightState(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var stateUpdate map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&stateUpdate); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.bridge.UpdateDeviceState(r.Context(), id, stateUpdate); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	keys := make([]string, 0, len(stateUpdate))
	for k := range stateUpdate {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	resp := make([]map[string]interface{}, 0, len(keys))
	for _, k := range keys {
		resp = append(resp, map[string]interface{}{
			"success": map[string]interface{}{
				fmt.Sprintf("/lights/%s/state/%s", id, k): stateUpdate[k],
			},
		})
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to write response")
	}
}
