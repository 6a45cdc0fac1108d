// File: internal/config/config.go
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// AnalysisConfig controls how run directories are parsed and where results go
type AnalysisConfig struct {
	Workers        int    `mapstructure:"workers"` // logs parsed concurrently
	OutputDir      string `mapstructure:"output_dir"`
	WriteSummary   bool   `mapstructure:"write_summary"`
	SummaryFile    string `mapstructure:"summary_file"`
	NodeLogGlob    string `mapstructure:"node_log_glob"`
	ClientLogGlob  string `mapstructure:"client_log_glob"`
	ParametersFile string `mapstructure:"parameters_file"` // relative to the run directory
}

// StorageConfig contains result database configuration
type StorageConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Type             string        `mapstructure:"type"` // sqlite, postgres
	ConnectionString string        `mapstructure:"connection_string"`
	MaxConnections   int           `mapstructure:"max_connections"`
	MaxIdleTime      time.Duration `mapstructure:"max_idle_time"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port          int           `mapstructure:"port"`
	Host          string        `mapstructure:"host"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	EnableMetrics bool          `mapstructure:"enable_metrics"`
	EnableHealth  bool          `mapstructure:"enable_health"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
	Output string `mapstructure:"output"` // stdout, stderr, file
	File   string `mapstructure:"file"`
}

// Load loads configuration from file and environment variables.
// An empty configPath looks for config.yaml in the working directory and
// falls back to defaults when none is found.
func Load(configPath string) (*Config, error) {
	return LoadWith(viper.GetViper(), configPath)
}

// LoadWith loads configuration using the given viper instance.
func LoadWith(v *viper.Viper, configPath string) (*Config, error) {
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("BENCHLOGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// log-level flag overrides the file
	if lvl := v.GetString("log-level"); lvl != "" {
		config.Logging.Level = lvl
	}
	if v.GetBool("debug") {
		config.App.Debug = true
		config.Logging.Level = "debug"
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "fbft-benchlogs")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	v.SetDefault("analysis.workers", runtime.NumCPU())
	v.SetDefault("analysis.output_dir", "results")
	v.SetDefault("analysis.write_summary", true)
	v.SetDefault("analysis.summary_file", "summary.txt")
	v.SetDefault("analysis.node_log_glob", "node*/miner_logs.txt")
	v.SetDefault("analysis.client_log_glob", "client*/client_logs.txt")
	v.SetDefault("analysis.parameters_file", DefaultBenchParametersFilename)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.type", "sqlite")
	v.SetDefault("storage.connection_string", "./data/benchlogs.db")
	v.SetDefault("storage.max_connections", 4)
	v.SetDefault("storage.max_idle_time", "15m")

	v.SetDefault("server.port", 8081)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.enable_metrics", true)
	v.SetDefault("server.enable_health", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Analysis.Workers <= 0 {
		return fmt.Errorf("analysis workers must be positive")
	}
	if c.Analysis.OutputDir == "" {
		return fmt.Errorf("analysis output directory is required")
	}
	if c.Storage.Enabled {
		switch strings.ToLower(c.Storage.Type) {
		case "sqlite", "postgres", "postgresql":
		default:
			return fmt.Errorf("unsupported storage type %q", c.Storage.Type)
		}
		if c.Storage.ConnectionString == "" {
			return fmt.Errorf("storage connection string is required")
		}
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	return nil
}
