package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"broadlink-climate-bridge/internal/adapters/input/http"
	mqttin "broadlink-climate-bridge/internal/adapters/input/mqtt"
	"broadlink-climate-bridge/internal/adapters/input/ssdp"
	"broadlink-climate-bridge/internal/adapters/output/broadlink"
	"broadlink-climate-bridge/internal/adapters/output/homeassistant"
	"broadlink-climate-bridge/internal/adapters/output/metrics"
	"broadlink-climate-bridge/internal/adapters/output/persistence"
	"broadlink-climate-bridge/internal/config"
	"broadlink-climate-bridge/internal/domain/model"
	"broadlink-climate-bridge/internal/domain/service"
	"broadlink-climate-bridge/internal/domain/translator"
	"broadlink-climate-bridge/internal/ports"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Loading %s: %v", path, err)
	}
	setupLogging(cfg.LogLevel)

	ip := cfg.LocalIP
	if ip == "" {
		ip = getLocalIP()
	}
	if cfg.Hue.Enabled && ip == "" {
		log.Fatal("Could not determine local IP. Set LOCAL_IP environment variable.")
	}

	log.Infof("Starting Broadlink climate bridge with %d device(s)", len(cfg.Devices))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metrics
	registry := prometheus.NewRegistry()
	deviceMetrics := metrics.NewDeviceMetrics()
	climateMetrics := metrics.NewCollector()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		deviceMetrics,
		climateMetrics,
	)

	// Persistence
	states := persistence.NewJSONStateRepository(cfg.StatePath)

	// Home Assistant
	topics := homeassistant.NewTopics(cfg.MQTT)
	commands := mqttin.NewHandler(topics.Prefix)
	var (
		mqttClient  mqtt.Client
		haPublisher *homeassistant.Publisher
		publisher   ports.StatePublisher
		thermostats []*service.Thermostat
	)
	if cfg.MQTT.Broker != "" {
		mqttClient = newMQTTClient(cfg.MQTT, topics, func(c mqtt.Client) {
			log.Info("Connected to MQTT Broker")
			if err := haPublisher.Online(); err != nil {
				log.WithError(err).Warn("Failed to publish availability")
			}
			if err := commands.Subscribe(c); err != nil {
				log.WithError(err).Error("Failed to subscribe to command topics")
			}
			for _, t := range thermostats {
				if err := haPublisher.PublishState(ctx, t); err != nil {
					log.WithError(err).Warnf("Failed to publish %s", t.Name())
				}
			}
		})
		haPublisher = homeassistant.NewPublisher(mqttClient, topics)
		publisher = haPublisher
	} else {
		log.Warn("No MQTT broker configured, Home Assistant integration disabled")
	}

	// Devices
	gateway := broadlink.NewGateway(cfg.Gateway)
	factory := translator.NewFactory()
	hue := translator.NewHueStrategy(cfg.Hue)
	bridgeService := service.NewBridgeService(hue, cfg.Hue.OnMode)

	var coordinators []*service.UpdateCoordinator
	for _, d := range cfg.Devices {
		tr, ok := factory.GetTranslator(d.Type)
		if !ok {
			log.Warnf("Skipping %s: unsupported device type %q", d.ID, d.Type)
			continue
		}
		dev := gateway.Device(d.ID)
		coordinator := service.NewUpdateCoordinator(d.ID, deviceMetrics.Status(d.ID, dev), cfg.PollInterval)
		thermostat := service.NewThermostat(d, tr, deviceMetrics.Commands(d.ID, dev), coordinator, publisher, states)
		thermostat.Attach(ctx)

		bridgeService.Register(d.HueID, thermostat)
		commands.Register(thermostat)
		climateMetrics.Add(thermostat)
		coordinators = append(coordinators, coordinator)
		thermostats = append(thermostats, thermostat)
		log.Infof("Added %s (hue id %s)", thermostat.Name(), d.HueID)
	}
	if len(coordinators) == 0 {
		log.Fatal("No supported devices configured")
	}

	if mqttClient != nil {
		log.Infof("Connecting to MQTT broker %s", cfg.MQTT.Broker)
		mqttClient.Connect()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range coordinators {
		g.Go(func() error { return c.Run(gctx) })
	}

	var bridge ports.BridgePort
	if cfg.Hue.Enabled {
		bridge = bridgeService
		ssdpServer := ssdp.NewServer(ip, cfg.HTTPPort)
		g.Go(func() error {
			if err := ssdpServer.Start(gctx); err != nil {
				log.WithError(err).Error("SSDP Server error")
			}
			return nil
		})
	}
	httpServer := http.NewServer(bridge, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), ip, cfg.HTTPPort)
	g.Go(func() error { return httpServer.ListenAndServe(gctx) })

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Bridge stopped")
	}

	log.Info("Shutting down...")
	for _, t := range thermostats {
		t.Detach()
	}
	if mqttClient != nil && mqttClient.IsConnected() {
		mqttClient.Publish(topics.BridgeAvailability(), 0, true, homeassistant.PayloadOffline).WaitTimeout(time.Second)
		mqttClient.Disconnect(250)
	}
}

func setupLogging(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.Infof("Log level set to: %s", lvl)
}

func newMQTTClient(cfg model.MQTTConfig, topics homeassistant.Topics, onConnect mqtt.OnConnectHandler) mqtt.Client {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	if cfg.User != "" {
		opts.SetUsername(cfg.User)
		opts.SetPassword(cfg.Pass)
	}
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	// Command handlers call the device; do not block the router
	opts.SetOrderMatters(false)
	opts.SetWill(topics.BridgeAvailability(), homeassistant.PayloadOffline, 0, true)
	opts.SetOnConnectHandler(onConnect)
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		log.WithError(err).Warn("Lost connection to MQTT Broker")
	})
	return mqtt.NewClient(opts)
}

func getLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	return ""
}
