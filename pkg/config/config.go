// Package config loads, validates and saves the gccfetch settings file.
// A missing file yields defaults; every setting has a default, so an empty
// file is a valid configuration.
package config

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/glorpus-work/gccfetch/pkg/errors"
	"github.com/glorpus-work/gccfetch/pkg/fsutil"
	"github.com/glorpus-work/gccfetch/pkg/platform"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Settings Settings `yaml:"settings"`
}

// Settings represents the acquisition and output settings.
type Settings struct {
	// CacheDir is the root holding staging files, archives and installed toolchains.
	CacheDir string `yaml:"cache_dir,omitempty"`
	// Arch overrides the host architecture used to pick the toolchain variant.
	Arch string `yaml:"arch,omitempty"`

	// Download settings
	Workers        int               `yaml:"workers"`
	MaxAttempts    int               `yaml:"max_attempts"`
	HTTPTimeout    time.Duration     `yaml:"http_timeout"`
	MinArchiveSize datasize.ByteSize `yaml:"min_archive_size"`
	MaxBandwidth   datasize.ByteSize `yaml:"max_bandwidth"` // per second, 0 is unlimited
	BackoffBase    time.Duration     `yaml:"backoff_base"`
	BackoffMax     time.Duration     `yaml:"backoff_max"`

	// Release manifest settings
	ManifestURL string `yaml:"manifest_url"`
	UserAgent   string `yaml:"user_agent,omitempty"`
	GitHubToken string `yaml:"github_token,omitempty"`

	KeepArchive     bool `yaml:"keep_archive"`
	VerifyChecksums bool `yaml:"verify_checksums"`
	CheckDiskSpace  bool `yaml:"check_disk_space"`

	// Output settings
	OutputFormat string `yaml:"output_format"` // text, json
	LogLevel     string `yaml:"log_level"`     // debug, info, warn, error
}

// Default configuration values.
const (
	DefaultWorkers        = 8
	DefaultMaxAttempts    = 3
	DefaultHTTPTimeout    = 60 * time.Second
	DefaultMinArchiveSize = 250 * datasize.MB
	DefaultBackoffBase    = 2 * time.Second
	DefaultBackoffMax     = 30 * time.Second
	DefaultManifestURL    = "https://api.github.com/repos/brechtsanders/winlibs_mingw/releases/latest"

	// TokenEnv is read when no github_token is configured.
	TokenEnv = "GITHUB_TOKEN"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	cacheDir, err := fsutil.GetCacheDir()
	if err != nil {
		cacheDir = filepath.Join(os.TempDir(), fsutil.AppName)
	}

	return &Config{
		Settings: Settings{
			CacheDir:        cacheDir,
			Arch:            platform.NormalizeArch(runtime.GOARCH),
			Workers:         DefaultWorkers,
			MaxAttempts:     DefaultMaxAttempts,
			HTTPTimeout:     DefaultHTTPTimeout,
			MinArchiveSize:  DefaultMinArchiveSize,
			BackoffBase:     DefaultBackoffBase,
			BackoffMax:      DefaultBackoffMax,
			ManifestURL:     DefaultManifestURL,
			KeepArchive:     true,
			VerifyChecksums: true,
			CheckDiskSpace:  true,
			OutputFormat:    "text",
			LogLevel:        "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
// Keys absent from the document keep their default value.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig writes the configuration atomically through a temporary file.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	// the file may hold a token
	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeSecure)
	if err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileRename, err.Error())
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	return validateSettings(c.Settings)
}

func validateSettings(s Settings) error {
	invalid := func(format string, args ...any) error {
		return errors.Wrapf(errors.ErrConfigValidation, format, args...)
	}

	switch {
	case s.Workers < 1:
		return invalid("workers must be at least 1")
	case s.MaxAttempts < 1:
		return invalid("max_attempts must be at least 1")
	case s.HTTPTimeout < 0:
		return invalid("http_timeout cannot be negative")
	case s.BackoffBase < 0:
		return invalid("backoff_base cannot be negative")
	case s.BackoffMax < 0:
		return invalid("backoff_max cannot be negative")
	case s.Arch != "" && !platform.IsValidArch(s.Arch):
		return invalid("invalid arch %q, must be one of: %s", s.Arch, strings.Join(platform.ValidArch(), ", "))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[s.OutputFormat] {
		return invalid("invalid output_format %q, must be one of: text, json", s.OutputFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return invalid("invalid log_level %q, must be one of: debug, info, warn, error", s.LogLevel)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user config directory")
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// GetCacheDir returns the cache root from settings.
func (c *Config) GetCacheDir() string {
	return c.Settings.CacheDir
}

// GetArch returns the normalized architecture the toolchain is chosen for.
func (c *Config) GetArch() string {
	if c.Settings.Arch == "" {
		return platform.CurrentPlatform().Arch
	}
	return platform.NormalizeArch(c.Settings.Arch)
}

// Token returns the configured release API token, falling back to $GITHUB_TOKEN.
func (c *Config) Token() string {
	if c.Settings.GitHubToken != "" {
		return c.Settings.GitHubToken
	}
	return os.Getenv(TokenEnv)
}

// applyDefaults fills values a document explicitly emptied.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.CacheDir == "" {
		c.Settings.CacheDir = defaults.Settings.CacheDir
	}
	if c.Settings.ManifestURL == "" {
		c.Settings.ManifestURL = defaults.Settings.ManifestURL
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	c.Settings.CacheDir = expandHome(c.Settings.CacheDir)
}

// expandHome resolves a leading ~ against the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
