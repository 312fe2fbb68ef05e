package cli

import (
	"fmt"

	"github.com/glorpus-work/gccfetch/internal/logger"
	"github.com/glorpus-work/gccfetch/pkg/config"
	"github.com/glorpus-work/gccfetch/pkg/database"
)

// These variables will be set by the main package
var (
	ConfigPath   *string
	Verbose      *bool
	NoColor      *bool
	OutputFormat *string
)

// loadConfig loads the configuration, applies the global flags and sets up logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if OutputFormat != nil && *OutputFormat != "" {
		cfg.Settings.OutputFormat = *OutputFormat
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.SetNoColor(noColor())
	logger.InitLogger(cfg.Settings.LogLevel, logger.OutputFormat(cfg.Settings.OutputFormat))
	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		// an empty path makes LoadConfig and SaveConfig report ErrEmptyConfigPath
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

func noColor() bool {
	return NoColor != nil && *NoColor
}

// openRecords opens the install record store under the cache root.
func openRecords(cfg *config.Config) (*database.Store, error) {
	return database.Open(database.DefaultPath(cfg.GetCacheDir()))
}
