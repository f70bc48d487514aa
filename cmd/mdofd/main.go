// MDOF Core - multi-degree-of-freedom input daemon
//
// mdofd polls configured input devices, calibrates and transforms their
// axis samples, and dispatches the results as UDP command datagrams to
// the active visualisation target. Optional collaborators record dispatch
// history to SQLite, axis metrics to InfluxDB and session status to MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MSandovalPhD/mdof-core/internal/actuation"
	"github.com/MSandovalPhD/mdof-core/internal/datalog"
	"github.com/MSandovalPhD/mdof-core/internal/drivers/synth"
	"github.com/MSandovalPhD/mdof-core/internal/infrastructure/config"
	"github.com/MSandovalPhD/mdof-core/internal/infrastructure/database"
	"github.com/MSandovalPhD/mdof-core/internal/infrastructure/influxdb"
	"github.com/MSandovalPhD/mdof-core/internal/infrastructure/logging"
	"github.com/MSandovalPhD/mdof-core/internal/infrastructure/mqtt"
	"github.com/MSandovalPhD/mdof-core/internal/registry"
	"github.com/MSandovalPhD/mdof-core/internal/session"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error lets main handle exit codes
// consistently.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting mdofd", "version", version, "commit", commit)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)

	// Load and validate the pipeline document. Any bad reference fails
	// here; no session starts against a half-valid configuration.
	doc, err := registry.LoadDocument(cfg.Pipeline.DocumentPath)
	if err != nil {
		return fmt.Errorf("loading pipeline document: %w", err)
	}
	reg, err := registry.Build(doc, cfg.Pipeline.Visualisation)
	if err != nil {
		return fmt.Errorf("building registry: %w", err)
	}
	active := reg.ActiveVisualisation()
	log.Info("pipeline document validated",
		"devices", len(reg.Devices()),
		"visualisation", active.Name,
		"target", fmt.Sprintf("%s:%d", active.Host, active.Port),
	)

	sender, err := actuation.NewUDPSender(active.Host, active.Port)
	if err != nil {
		return fmt.Errorf("opening actuation socket: %w", err)
	}
	dispatcher := actuation.NewDispatcher(sender)
	defer func() {
		if closeErr := dispatcher.Close(); closeErr != nil {
			log.Error("error closing actuation socket", "error", closeErr)
		}
	}()

	opts, cleanup, err := buildCollaborators(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	driver, err := selectDriver(cfg.Pipeline.Driver, reg)
	if err != nil {
		return err
	}

	orch := session.NewOrchestrator(reg, driver, dispatcher, cfg.GetPollInterval(), log, opts)
	if err := orch.StartAll(ctx, cfg.Pipeline.Devices); err != nil {
		return fmt.Errorf("starting sessions: %w", err)
	}

	<-ctx.Done()
	log.Info("shutdown signal received")

	orch.StopAll()
	log.Info("all sessions stopped")
	return nil
}

// buildCollaborators wires the optional datalog, MQTT and InfluxDB
// collaborators. Each one is independent: disabled sections leave the
// corresponding collaborator nil and the sessions run without it.
func buildCollaborators(cfg *config.Config, log *logging.Logger) (session.Options, func(), error) {
	var opts session.Options
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Datalog.Enabled {
		db, err := database.Open(database.Config{
			Path:        cfg.Datalog.Path,
			WALMode:     cfg.Datalog.WALMode,
			BusyTimeout: cfg.Datalog.BusyTimeout,
		})
		if err != nil {
			return opts, cleanup, fmt.Errorf("opening datalog database: %w", err)
		}
		closers = append(closers, func() {
			log.Info("closing datalog database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		})

		store, err := datalog.New(db)
		if err != nil {
			cleanup()
			return opts, func() {}, fmt.Errorf("preparing datalog: %w", err)
		}
		opts.Recorder = store
		log.Info("datalog enabled", "path", cfg.Datalog.Path)
	}

	if cfg.MQTT.Enabled {
		client, err := mqtt.Connect(cfg.MQTT)
		if err != nil && !errors.Is(err, mqtt.ErrDisabled) {
			cleanup()
			return opts, func() {}, fmt.Errorf("connecting to MQTT: %w", err)
		}
		if client != nil {
			closers = append(closers, func() {
				log.Info("disconnecting from MQTT")
				client.Close()
			})
			opts.Status = client
			log.Info("MQTT telemetry enabled",
				"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			)
		}
	}

	if cfg.InfluxDB.Enabled {
		client, err := influxdb.Connect(cfg.InfluxDB)
		if err != nil && !errors.Is(err, influxdb.ErrDisabled) {
			cleanup()
			return opts, func() {}, fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		if client != nil {
			client.SetOnError(func(writeErr error) {
				log.Warn("influxdb write failed", "error", writeErr)
			})
			closers = append(closers, func() {
				log.Info("closing InfluxDB client")
				client.Close()
			})
			opts.Metrics = client
			log.Info("InfluxDB metrics enabled", "url", cfg.InfluxDB.URL)
		}
	}

	return opts, cleanup, nil
}

// selectDriver resolves the configured driver backend. Hardware backends
// register additional names here.
func selectDriver(name string, reg *registry.Registry) (session.Driver, error) {
	switch name {
	case "", "synth":
		return synth.New(reg), nil
	default:
		return nil, fmt.Errorf("unknown driver backend %q", name)
	}
}

// getConfigPath determines the configuration file path.
//
// Priority: command line argument, MDOF_CONFIG environment variable,
// then the default path.
func getConfigPath() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	if path := os.Getenv("MDOF_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
