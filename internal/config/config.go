package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Data source kinds.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Trace exporter kinds.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	LogFormat   string          `mapstructure:"log_format"`
	Server      ServerConfig    `mapstructure:"server"`
	Data        DataConfig      `mapstructure:"data"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Analysis    AnalysisConfig  `mapstructure:"analysis"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DataConfig selects where prices, events and the change-point fit come from.
type DataConfig struct {
	Source           string `mapstructure:"source"`
	PricesPath       string `mapstructure:"prices_path"`
	EventsPath       string `mapstructure:"events_path"`
	ModelResultsPath string `mapstructure:"model_results_path"`

	// FetchRetries is how many times a failed upstream fetch is retried.
	FetchRetries    int           `mapstructure:"fetch_retries"`
	FetchRetryDelay time.Duration `mapstructure:"fetch_retry_delay"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	DatabaseURL     string        `mapstructure:"database_url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// DSN returns DatabaseURL when set, otherwise a keyword/value connection string.
func (c DatabaseConfig) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AnalysisConfig tunes the event impact evaluator.
type AnalysisConfig struct {
	ImpactWindowDays      int  `mapstructure:"impact_window_days"`
	MinWindowObservations int  `mapstructure:"min_window_observations"`
	IncludeWindowRows     bool `mapstructure:"include_window_rows"`
}

type TelemetryConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	Exporter       string  `mapstructure:"exporter"`
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	ServiceVersion string  `mapstructure:"service_version"`
	LogsEnabled    bool    `mapstructure:"logs_enabled"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

func Load() (*Config, error) {
	viper.Reset()
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)
	config.Data.Source = strings.ToLower(config.Data.Source)
	config.Telemetry.Exporter = strings.ToLower(config.Telemetry.Exporter)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Data.Source {
	case SourceFile:
		if c.Data.PricesPath == "" || c.Data.EventsPath == "" || c.Data.ModelResultsPath == "" {
			return fmt.Errorf("file data source requires prices_path, events_path and model_results_path")
		}
	case SourcePostgres:
	default:
		return fmt.Errorf("unknown data source %q, expected %q or %q", c.Data.Source, SourceFile, SourcePostgres)
	}

	if c.Data.FetchRetries < 0 {
		return fmt.Errorf("fetch_retries must not be negative, got %d", c.Data.FetchRetries)
	}

	if c.Analysis.ImpactWindowDays <= 0 {
		return fmt.Errorf("impact_window_days must be positive, got %d", c.Analysis.ImpactWindowDays)
	}
	if c.Analysis.MinWindowObservations < 2 {
		return fmt.Errorf("min_window_observations must be at least 2, got %d", c.Analysis.MinWindowObservations)
	}

	if c.Redis.Enabled && c.Redis.TTL <= 0 {
		return fmt.Errorf("redis ttl must be positive when redis is enabled")
	}

	if c.Telemetry.Enabled {
		switch c.Telemetry.Exporter {
		case ExporterStdout, ExporterOTLP:
		default:
			return fmt.Errorf("unknown telemetry exporter %q", c.Telemetry.Exporter)
		}
		if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
			return fmt.Errorf("telemetry sample_ratio must be between 0 and 1, got %v", c.Telemetry.SampleRatio)
		}
	}
	return nil
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "json")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.shutdown_timeout", "10s")

	// Data
	viper.SetDefault("data.source", SourceFile)
	viper.SetDefault("data.prices_path", "data/BrentOilPrices.csv")
	viper.SetDefault("data.events_path", "data/events.csv")
	viper.SetDefault("data.model_results_path", "data/model_results.json")
	viper.SetDefault("data.fetch_retries", 3)
	viper.SetDefault("data.fetch_retry_delay", "200ms")

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "oilpulse")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")
	viper.SetDefault("database.max_conns", 10)
	viper.SetDefault("database.min_conns", 1)
	viper.SetDefault("database.conn_max_lifetime", "300s")
	viper.SetDefault("database.conn_max_idle_time", "60s")

	// Redis
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.ttl", "10m")

	// Analysis
	viper.SetDefault("analysis.impact_window_days", 30)
	viper.SetDefault("analysis.min_window_observations", 5)
	viper.SetDefault("analysis.include_window_rows", true)

	// Telemetry
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.exporter", ExporterStdout)
	viper.SetDefault("telemetry.otlp_endpoint", "http://localhost:4318")
	viper.SetDefault("telemetry.service_name", "oilpulse")
	viper.SetDefault("telemetry.service_version", "dev")
	viper.SetDefault("telemetry.logs_enabled", false)
	viper.SetDefault("telemetry.sample_ratio", 1.0)
}
