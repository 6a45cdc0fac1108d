// File: cmd/benchlogs/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smartdevs17/fbft-benchlogs/internal/config"
	"github.com/smartdevs17/fbft-benchlogs/internal/metrics"
	"github.com/smartdevs17/fbft-benchlogs/internal/processor"
	"github.com/smartdevs17/fbft-benchlogs/internal/server"
	"github.com/smartdevs17/fbft-benchlogs/internal/storage"
	"github.com/smartdevs17/fbft-benchlogs/pkg/utils"
)

// AppVersion contains the application version
const AppVersion = "1.0.0"

// Application wires configuration, storage, metrics and the analyzer together
type Application struct {
	config   *config.Config
	logger   *logrus.Entry
	metrics  *metrics.Manager
	storage  storage.Storage
	analyzer *processor.Analyzer
	server   *server.HTTPServer
}

// NewApplication creates a new application instance. Storage is opened when
// enabled in the configuration.
func NewApplication(cfg *config.Config) (*Application, error) {
	app := &Application{config: cfg}

	if err := app.initializeLogger(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.metrics = metrics.NewManager()

	if cfg.Storage.Enabled {
		if err := app.initializeStorage(); err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
	}

	app.analyzer = processor.NewAnalyzer(&cfg.Analysis, app.storage, app.metrics.GetPrometheusMetrics())
	return app, nil
}

// initializeLogger initializes the application logger
func (app *Application) initializeLogger() error {
	logCfg := app.config.Logging
	if err := utils.InitLogger(logCfg.Level, logCfg.Format, logCfg.Output, logCfg.File); err != nil {
		return err
	}
	app.logger = utils.ComponentLogger("app")
	app.logger.WithFields(logrus.Fields{
		"level":  logCfg.Level,
		"format": logCfg.Format,
		"output": logCfg.Output,
	}).Debug("Logger initialized")
	return nil
}

// initializeStorage opens and migrates the result store
func (app *Application) initializeStorage() error {
	store, err := storage.Open(&app.config.Storage)
	if err != nil {
		return err
	}
	app.storage = storage.NewStorageWithMetrics(store, app.metrics)
	app.logger.WithField("type", app.config.Storage.Type).Info("Storage layer initialized")
	return nil
}

// Close releases the storage connection
func (app *Application) Close() {
	if app.storage != nil {
		if err := app.storage.Close(); err != nil {
			app.logger.WithError(err).Error("Failed to close storage")
		}
	}
}

// loadApplication loads the configuration and builds the application
func loadApplication(override func(*config.Config)) (*Application, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if override != nil {
		override(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return NewApplication(cfg)
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// CLI Commands

var rootCmd = &cobra.Command{
	Use:           "benchlogs",
	Short:         "FBFT/ROAST benchmark log analyzer",
	Long:          `Turns the replica and client logs of FBFT/ROAST benchmark runs into throughput, latency and phase metrics.`,
	Version:       AppVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("benchlogs %s\n", AppVersion)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var validateConfigCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetString("config"))
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		fmt.Printf("Configuration is valid!\n")
		fmt.Printf("Environment: %s\n", cfg.App.Environment)
		fmt.Printf("Workers: %d\n", cfg.Analysis.Workers)
		fmt.Printf("Output directory: %s\n", cfg.Analysis.OutputDir)
		if cfg.Storage.Enabled {
			fmt.Printf("Database: %s\n", cfg.Storage.Type)
		} else {
			fmt.Printf("Database: disabled\n")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug mode")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(validateConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		utils.GetLogger().WithError(err).Fatal("benchlogs failed")
	}
}
