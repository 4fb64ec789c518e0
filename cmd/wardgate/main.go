// Wardgate - Biometric Door Access Controller
//
// This is the main entry point for the Wardgate daemon. Wardgate drives a
// single door with two-factor biometric authentication:
//   - Face and fingerprint verdicts reconciled into one decision
//   - Fail-secure door control with automatic relock
//   - Append-only audit trail of every attempt
//   - Admin REST/WebSocket API for monitoring and identity management
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	_ "github.com/wardgate/wardgate-core/migrations"

	"github.com/wardgate/wardgate-core/internal/accesslog"
	"github.com/wardgate/wardgate-core/internal/admin"
	"github.com/wardgate/wardgate-core/internal/api"
	"github.com/wardgate/wardgate-core/internal/door"
	"github.com/wardgate/wardgate-core/internal/engine"
	"github.com/wardgate/wardgate-core/internal/eventlog"
	"github.com/wardgate/wardgate-core/internal/identity"
	"github.com/wardgate/wardgate-core/internal/infrastructure/config"
	"github.com/wardgate/wardgate-core/internal/infrastructure/database"
	"github.com/wardgate/wardgate-core/internal/infrastructure/influxdb"
	"github.com/wardgate/wardgate-core/internal/infrastructure/logging"
	"github.com/wardgate/wardgate-core/internal/infrastructure/mqtt"
	"github.com/wardgate/wardgate-core/internal/notify"
	"github.com/wardgate/wardgate-core/internal/sensor"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // startup wiring is linear but long
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Wardgate",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// System event log
	events := eventlog.NewRepository(db)
	if err := events.Record(ctx, "info", "core", "wardgate starting"); err != nil {
		log.Warn("recording startup event failed", "error", err)
	}
	defer func() {
		// Shutdown may race context cancellation; use a fresh context
		if err := events.Record(context.Background(), "info", "core", "wardgate stopped"); err != nil {
			log.Warn("recording shutdown event failed", "error", err)
		}
	}()

	// Identity store
	identityRepo := identity.NewRepository(db)
	identityStore := identity.NewStore(identityRepo)
	identityStore.SetLogger(log)
	if refreshErr := identityStore.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading identity store: %w", refreshErr)
	}

	// Admin accounts
	admins := admin.NewRepository(db)
	if err := seedAdmin(ctx, admins, log); err != nil {
		return fmt.Errorf("seeding admin account: %w", err)
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Event fanout: MQTT topics, WebSocket hub, telemetry
	dispatcher := notify.New(cfg.Site.ID)
	dispatcher.SetLogger(log)
	if mqttClient != nil {
		dispatcher.SetMQTT(mqttClient)
	}
	if influxClient != nil {
		dispatcher.SetMetrics(influxClient)
	}

	// Door controller
	controller, err := buildDoor(cfg, log)
	if err != nil {
		return fmt.Errorf("initialising door: %w", err)
	}
	defer func() {
		if closeErr := controller.Close(); closeErr != nil {
			log.Error("error closing door controller", "error", closeErr)
		}
	}()
	controller.SetOnChange(dispatcher.DoorChanged)

	// Publish the initial (locked) state so dashboards start consistent
	dispatcher.DoorChanged(controller.Status())

	// Biometric sensors
	faceSensor, fingerprintSensor, err := buildSensors(cfg, identityStore, log)
	if err != nil {
		return fmt.Errorf("initialising sensors: %w", err)
	}

	// Audit trail
	accessLogs := accesslog.NewRepository(db)
	recorder := accesslog.NewRecorder(accessLogs)
	recorder.SetLogger(log)
	recorder.SetAlerts(dispatcher)

	// Authentication engine
	eng := engine.New(
		faceSensor,
		fingerprintSensor,
		engine.NewReconciler(identityStore),
		engine.NewLockoutPolicy(cfg.Auth.Lockout.Threshold, cfg.LockoutCooldown()),
		controller,
		recorder,
		engine.Config{
			AttemptWindow: cfg.AttemptWindow(),
			IdleDelay:     cfg.IdleDelay(),
		},
	)
	eng.SetLogger(log)
	eng.SetAlerts(dispatcher)
	eng.SetTelemetry(dispatcher)
	eng.SetNotifier(dispatcher)

	// API server
	apiServer, err := api.New(api.Deps{
		Config:     cfg.API,
		WS:         cfg.WebSocket,
		Security:   cfg.Security,
		Logger:     log,
		Identities: identityStore,
		AccessLogs: accessLogs,
		Events:     events,
		Admins:     admins,
		Door:       controller,
		Engine:     eng,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	dispatcher.SetHub(apiServer.Hub())

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	if err := events.Record(ctx, "info", "core", "wardgate started"); err != nil {
		log.Warn("recording started event failed", "error", err)
	}
	log.Info("initialisation complete, authentication loop starting")

	// The engine owns the foreground; everything else runs on its own
	// goroutines behind the defer chain.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(gctx)
	})

	err = g.Wait()
	log.Info("shutdown signal received, cleaning up")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// getConfigPath returns the configuration file path.
// Uses WARDGATE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("WARDGATE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// seedAdmin creates the first admin account from WARDGATE_ADMIN_PASSWORD
// when no accounts exist yet. Without the variable the API stays
// functional but nobody can log in, which is called out loudly.
func seedAdmin(ctx context.Context, admins *admin.Repository, log *logging.Logger) error {
	count, err := admins.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("WARDGATE_ADMIN_PASSWORD")
	if password == "" {
		log.Warn("no admin accounts exist and WARDGATE_ADMIN_PASSWORD is not set; API login is impossible until one is created")
		return nil
	}

	seeded, err := admins.EnsureSeedAdmin(ctx, "admin", password)
	if err != nil {
		return err
	}
	if seeded != nil {
		log.Info("seed admin account created", "username", seeded.Username)
	}
	return nil
}

// buildDoor creates the door controller with a real or simulated actuator.
func buildDoor(cfg *config.Config, log *logging.Logger) (*door.Controller, error) {
	var (
		actuator door.Actuator
		err      error
	)
	if cfg.Door.Simulation {
		actuator = door.NewSimActuator()
		log.Info("door actuator simulated")
	} else {
		actuator, err = door.NewGPIOActuator(cfg.Door.RelayPin)
		if err != nil {
			return nil, err
		}
		log.Info("door actuator on GPIO", "pin", cfg.Door.RelayPin)
	}

	controller := door.NewController(actuator, cfg.UnlockDuration())
	controller.SetLogger(log)
	return controller, nil
}

// buildSensors creates the biometric capabilities.
//
// Simulation mode replaces both with scripted sensors that report "nobody
// presented" until a script is loaded; the engine loop, lockout policy, and
// audit trail behave identically either way. Hardware capture providers
// (camera encoder, serial fingerprint reader) are linked in per deployment
// and register through sensor.Camera and sensor.Scanner; a build without
// them cannot run in hardware mode.
func buildSensors(cfg *config.Config, store *identity.Store, log *logging.Logger) (face, fingerprint sensor.Sensor, err error) {
	if cfg.Sensors.Simulation {
		log.Info("biometric sensors simulated")
		return sensor.NewSim("face"), sensor.NewSim("fingerprint"), nil
	}

	return nil, nil, fmt.Errorf("hardware capture providers are not bundled in this build; set sensors.simulation: true")
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//   - apiServer: API server to check
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, apiServer *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	return nil
}
