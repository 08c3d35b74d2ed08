package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	Notify    NotifyConfig    `yaml:"notify"`
	Forecast  ForecastConfig  `yaml:"forecast"`
	Campus    CampusConfig    `yaml:"campus"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// RedisConfig contains the chat session store settings
type RedisConfig struct {
	Addr              string `yaml:"addr"`
	Password          string `yaml:"password"`
	DB                int    `yaml:"db"`
	SessionTTLMinutes int    `yaml:"session_ttl_minutes"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// NotifyConfig contains the outbound webhook channel settings
type NotifyConfig struct {
	WebhookURL     string `yaml:"webhook_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ForecastConfig contains the remote model serving settings
type ForecastConfig struct {
	BaseURL        string  `yaml:"base_url"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	EnsembleWeight float64 `yaml:"ensemble_weight"` // weight of the lag7 component; the model gets the rest
	TardyMedium    float64 `yaml:"tardy_medium_threshold"`
	TardyHigh      float64 `yaml:"tardy_high_threshold"`
}

// CampusConfig contains institutional rules
type CampusConfig struct {
	Timezone      string  `yaml:"timezone"`
	ClosingHour   int     `yaml:"closing_hour"`
	RiskThreshold float64 `yaml:"risk_threshold"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ExpireReservations string `yaml:"expire_reservations"`
	WeeklyReport       string `yaml:"weekly_report"`
	RiskScan           string `yaml:"risk_scan"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	if val := os.Getenv("WEBHOOK_URL"); val != "" {
		c.Notify.WebhookURL = val
	}
	if val := os.Getenv("FORECAST_BASE_URL"); val != "" {
		c.Forecast.BaseURL = val
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}

	if c.Redis.SessionTTLMinutes == 0 {
		c.Redis.SessionTTLMinutes = 45
	}

	if c.Notify.TimeoutSeconds == 0 {
		c.Notify.TimeoutSeconds = 5
	}
	if c.Forecast.TimeoutSeconds == 0 {
		c.Forecast.TimeoutSeconds = 3
	}
	if c.Forecast.EnsembleWeight == 0 {
		c.Forecast.EnsembleWeight = 0.6
	}
	if c.Forecast.TardyMedium == 0 {
		c.Forecast.TardyMedium = 0.40
	}
	if c.Forecast.TardyHigh == 0 {
		c.Forecast.TardyHigh = 0.65
	}

	if c.Campus.Timezone == "" {
		c.Campus.Timezone = "America/Argentina/Buenos_Aires"
	}
	if _, err := time.LoadLocation(c.Campus.Timezone); err != nil {
		return fmt.Errorf("invalid campus timezone %q: %w", c.Campus.Timezone, err)
	}
	if c.Campus.ClosingHour == 0 {
		c.Campus.ClosingHour = 23
	}
	if c.Campus.RiskThreshold == 0 {
		c.Campus.RiskThreshold = 70.0
	}

	// Scheduler defaults
	if c.Scheduler.ExpireReservations == "" {
		c.Scheduler.ExpireReservations = "0 */5 * * * *" // every 5 minutes
	}
	if c.Scheduler.WeeklyReport == "" {
		c.Scheduler.WeeklyReport = "0 0 8 * * 1" // Mondays 8 AM
	}
	if c.Scheduler.RiskScan == "" {
		c.Scheduler.RiskScan = "0 30 7 * * *" // daily 7:30 AM
	}

	return nil
}

// Location returns the campus timezone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Campus.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
