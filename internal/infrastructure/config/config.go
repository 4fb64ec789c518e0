package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Wardgate Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Database  DatabaseConfig  `yaml:"database"`
	Sensors   SensorsConfig   `yaml:"sensors"`
	Auth      AuthConfig      `yaml:"auth"`
	Door      DoorConfig      `yaml:"door"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Security  SecurityConfig  `yaml:"security"`
}

// SiteConfig contains installation-specific information.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// SensorsConfig contains biometric sensor settings.
type SensorsConfig struct {
	// Simulation replaces both hardware sensors with deterministic
	// fixtures. Simulated verdicts flow through the same reconciliation
	// path as hardware verdicts.
	Simulation  bool              `yaml:"simulation"`
	Face        FaceConfig        `yaml:"face"`
	Fingerprint FingerprintConfig `yaml:"fingerprint"`
}

// FaceConfig contains face recognition capability settings.
type FaceConfig struct {
	// Tolerance is the maximum encoding distance accepted as a match.
	// Lower values are stricter.
	Tolerance float64 `yaml:"tolerance"`

	// PollTimeout is the maximum time in seconds a single face poll may
	// block on frame acquisition.
	PollTimeout int `yaml:"poll_timeout"`

	// CameraIndex selects the capture device.
	CameraIndex int `yaml:"camera_index"`
}

// FingerprintConfig contains fingerprint sensor settings.
type FingerprintConfig struct {
	// AcceptMode controls how sensor-native match results are accepted:
	// "any" accepts every match the sensor reports, "score" additionally
	// requires MinScore.
	AcceptMode string `yaml:"accept_mode"`

	// MinScore is the minimum sensor match score when AcceptMode is "score".
	MinScore int `yaml:"min_score"`

	// PollTimeout is the maximum time in seconds a single scan may block
	// on the serial read.
	PollTimeout int `yaml:"poll_timeout"`

	// Port is the serial device of the sensor (e.g. /dev/ttyUSB0).
	Port string `yaml:"port"`

	// BaudRate is the serial line speed.
	BaudRate int `yaml:"baud_rate"`
}

// AuthConfig contains authentication engine settings.
type AuthConfig struct {
	// AttemptWindow is the wall-clock bound in seconds within which both
	// sensor verdicts must arrive to be reconciled together.
	AttemptWindow int `yaml:"attempt_window"`

	// IdleDelayMS is the pause between attempt iterations to avoid
	// busy-polling hardware.
	IdleDelayMS int `yaml:"idle_delay_ms"`

	Lockout LockoutConfig `yaml:"lockout"`
}

// LockoutConfig contains failed-attempt lockout settings.
type LockoutConfig struct {
	// Threshold is the number of consecutive non-granted decisions for
	// one identity before further attempts are suppressed.
	Threshold int `yaml:"threshold"`

	// Cooldown is the suppression duration in seconds.
	Cooldown int `yaml:"cooldown"`
}

// DoorConfig contains door actuator settings.
type DoorConfig struct {
	// UnlockDuration is the number of seconds the door stays unlocked
	// before the auto-relock timer fires.
	UnlockDuration int `yaml:"unlock_duration"`

	// RelayPin is the GPIO pin driving the lock relay.
	RelayPin int `yaml:"relay_pin"`

	// Simulation replaces the relay with a logged no-op actuator.
	Simulation bool `yaml:"simulation"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings for attempt telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings for the admin API.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig contains JWT token settings.
type JWTConfig struct {
	Secret         string `yaml:"secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: WARDGATE_SECTION_KEY
// For example: WARDGATE_DATABASE_PATH, WARDGATE_JWT_SECRET
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
// Biometric defaults follow the reference installation: tolerance 0.6,
// 5 second unlock, 5 failures / 300 second lockout, 30 second window.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "door-001",
			Name:     "Wardgate",
			Timezone: "UTC",
		},
		Database: DatabaseConfig{
			Path:        "./data/wardgate.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Sensors: SensorsConfig{
			Face: FaceConfig{
				Tolerance:   0.6,
				PollTimeout: 5,
				CameraIndex: 0,
			},
			Fingerprint: FingerprintConfig{
				AcceptMode:  "any",
				MinScore:    50,
				PollTimeout: 5,
				Port:        "/dev/ttyUSB0",
				BaudRate:    57600,
			},
		},
		Auth: AuthConfig{
			AttemptWindow: 30,
			IdleDelayMS:   250,
			Lockout: LockoutConfig{
				Threshold: 5,
				Cooldown:  300,
			},
		},
		Door: DoorConfig{
			UnlockDuration: 5,
			RelayPin:       17,
		},
		MQTT: MQTTConfig{
			Enabled: true,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "wardgate-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			JWT: JWTConfig{
				AccessTokenTTL: 15,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: WARDGATE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("WARDGATE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Sensors
	if v := os.Getenv("WARDGATE_SENSORS_SIMULATION"); v != "" {
		cfg.Sensors.Simulation = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("WARDGATE_FINGERPRINT_PORT"); v != "" {
		cfg.Sensors.Fingerprint.Port = v
	}

	// MQTT
	if v := os.Getenv("WARDGATE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("WARDGATE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("WARDGATE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("WARDGATE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("WARDGATE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Security - JWT secret (IMPORTANT: always override in production)
	if v := os.Getenv("WARDGATE_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors and security issues.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.Sensors.Face.Tolerance <= 0 || c.Sensors.Face.Tolerance > 1 {
		errs = append(errs, "sensors.face.tolerance must be in (0, 1]")
	}

	switch c.Sensors.Fingerprint.AcceptMode {
	case "any", "score":
	default:
		errs = append(errs, `sensors.fingerprint.accept_mode must be "any" or "score"`)
	}

	if c.Auth.AttemptWindow < 1 {
		errs = append(errs, "auth.attempt_window must be at least 1 second")
	}

	if c.Auth.Lockout.Threshold < 1 {
		errs = append(errs, "auth.lockout.threshold must be at least 1")
	}

	if c.Door.UnlockDuration < 1 {
		errs = append(errs, "door.unlock_duration must be at least 1 second")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// JWT secret is REQUIRED. This service gates a physical door: a
	// forged admin token could disable identities or read the audit
	// trail, so weak secrets are rejected outright.
	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set WARDGATE_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters for adequate security")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// AttemptWindow returns the attempt window as a Duration.
func (c *Config) AttemptWindow() time.Duration {
	return time.Duration(c.Auth.AttemptWindow) * time.Second
}

// IdleDelay returns the inter-attempt idle delay as a Duration.
func (c *Config) IdleDelay() time.Duration {
	return time.Duration(c.Auth.IdleDelayMS) * time.Millisecond
}

// UnlockDuration returns the door unlock duration as a Duration.
func (c *Config) UnlockDuration() time.Duration {
	return time.Duration(c.Door.UnlockDuration) * time.Second
}

// LockoutCooldown returns the lockout cooldown as a Duration.
func (c *Config) LockoutCooldown() time.Duration {
	return time.Duration(c.Auth.Lockout.Cooldown) * time.Second
}

// FacePollTimeout returns the face poll timeout as a Duration.
func (c *Config) FacePollTimeout() time.Duration {
	return time.Duration(c.Sensors.Face.PollTimeout) * time.Second
}

// FingerprintPollTimeout returns the fingerprint poll timeout as a Duration.
func (c *Config) FingerprintPollTimeout() time.Duration {
	return time.Duration(c.Sensors.Fingerprint.PollTimeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
