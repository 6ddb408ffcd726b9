package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the triage service
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Database configuration (provider roster import)
	Database DatabaseConfig `mapstructure:"database"`

	// Triage engine tunables
	Triage TriageConfig `mapstructure:"triage"`

	// Monitoring configuration
	Monitoring MonitoringConfig `mapstructure:"monitoring"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds the optional roster-import database configuration.
// The decision path never touches the database; it is read once at startup
// to seed the in-memory provider directory.
type DatabaseConfig struct {
	ImportRoster    bool   `mapstructure:"import_roster"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// TriageConfig holds the decision-engine tunables
type TriageConfig struct {
	// ShortlistMax caps the ranked provider shortlist
	ShortlistMax int `mapstructure:"shortlist_max"`
	// RatingEpsilon is the rating difference below which two providers are
	// considered tied and ranked by earliest next-available slot instead
	RatingEpsilon float64 `mapstructure:"rating_epsilon"`
	// EmergencyOffsetMinutes is how far in the future an auto-scheduled
	// critical session is booked
	EmergencyOffsetMinutes int `mapstructure:"emergency_offset_minutes"`
	// SummaryTimeoutSeconds bounds the pre-visit summary call; on expiry
	// the booking proceeds with a placeholder
	SummaryTimeoutSeconds int `mapstructure:"summary_timeout_seconds"`
	// SlotHorizonDays is how far ahead availability slots are generated
	// from a provider's weekly schedule
	SlotHorizonDays int `mapstructure:"slot_horizon_days"`
	// SlotIntervalMinutes is the granularity of the generated slot grid
	SlotIntervalMinutes int `mapstructure:"slot_interval_minutes"`
	// WaitEstimates maps an urgency tier to its human-readable wait string
	WaitEstimates map[string]string `mapstructure:"wait_estimates"`
	// BaseFees maps a consultation type to its base fee in currency units
	BaseFees map[string]float64 `mapstructure:"base_fees"`
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/careroute")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideWithEnv(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a config populated with defaults only, no file or env
// lookup. Used by tests and embedded construction.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8084,
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
		},
		Triage:     DefaultTriage(),
		Monitoring: MonitoringConfig{Enabled: true, MetricsPath: "/metrics"},
		LogLevel:   "info",
	}
}

// DefaultTriage returns the built-in engine tunables
func DefaultTriage() TriageConfig {
	return TriageConfig{
		ShortlistMax:           3,
		RatingEpsilon:          0.1,
		EmergencyOffsetMinutes: 15,
		SummaryTimeoutSeconds:  3,
		SlotHorizonDays:        7,
		SlotIntervalMinutes:    30,
		WaitEstimates: map[string]string{
			"critical": "immediate",
			"high":     "within 24 hours",
			"medium":   "within 2-3 days",
			"low":      "within 1 week",
		},
		BaseFees: map[string]float64{
			"emergency":     150,
			"routine":       75,
			"follow_up":     50,
			"mental_health": 120,
		},
	}
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8084)
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.idle_timeout", 120)

	viper.SetDefault("database.import_roster", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "careroute")
	viper.SetDefault("database.user", "careroute")
	viper.SetDefault("database.ssl_mode", "require")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 300)

	viper.SetDefault("triage.shortlist_max", 3)
	viper.SetDefault("triage.rating_epsilon", 0.1)
	viper.SetDefault("triage.emergency_offset_minutes", 15)
	viper.SetDefault("triage.summary_timeout_seconds", 3)
	viper.SetDefault("triage.slot_horizon_days", 7)
	viper.SetDefault("triage.slot_interval_minutes", 30)
	viper.SetDefault("triage.wait_estimates", map[string]string{
		"critical": "immediate",
		"high":     "within 24 hours",
		"medium":   "within 2-3 days",
		"low":      "within 1 week",
	})
	viper.SetDefault("triage.base_fees", map[string]float64{
		"emergency":     150,
		"routine":       75,
		"follow_up":     50,
		"mental_health": 120,
	})

	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")

	viper.SetDefault("log_level", "info")
}

// overrideWithEnv overrides configuration with environment variables
func overrideWithEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}

	if pw := os.Getenv("DATABASE_PASSWORD"); pw != "" {
		config.Database.Password = pw
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Triage.ShortlistMax <= 0 {
		return fmt.Errorf("triage shortlist_max must be positive")
	}

	if config.Triage.RatingEpsilon < 0 {
		return fmt.Errorf("triage rating_epsilon must not be negative")
	}

	if config.Triage.EmergencyOffsetMinutes <= 0 {
		return fmt.Errorf("triage emergency_offset_minutes must be positive")
	}

	if config.Triage.SlotHorizonDays <= 0 {
		return fmt.Errorf("triage slot_horizon_days must be positive")
	}

	if config.Database.ImportRoster && config.Database.Password == "" {
		return fmt.Errorf("database password is required when roster import is enabled")
	}

	return nil
}
