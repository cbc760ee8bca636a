package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/s0up4200/nfx/unogs"
)

// ErrConfiguration is returned when required settings are missing or invalid
var ErrConfiguration = errors.New("configuration error")

// EnvPrefix is prepended to environment overrides, e.g. NFX_API_KEY
const EnvPrefix = "NFX"

// Load loads the configuration from file and environment.
// A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// AutomaticEnv only applies to keys that have a default
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "nfx"))
		}
		v.AddConfigPath("/etc/nfx/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := resolve(&cfg); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.key", "")
	v.SetDefault("api.key_file", "")
	v.SetDefault("api.listing_url", unogs.DefaultListingURL)
	v.SetDefault("api.search_url", unogs.DefaultSearchURL)
	v.SetDefault("api.country", unogs.DefaultCountry)
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.request_interval", time.Second)

	// Directories are derived from HOME in resolve when left empty
	v.SetDefault("cache.dir", "")
	v.SetDefault("lock.dir", "")
	v.SetDefault("lock.padding", unogs.DefaultRateLimitPadding)

	v.SetDefault("catalog.per_page", 100)
	v.SetDefault("catalog.max_titles", 500)

	v.SetDefault("filter.default_expression", `Type == "movie"`)

	v.SetDefault("output.format", "table")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// resolve fills in values that depend on the environment: the credential
// from api.key_file and the HOME-relative default directories.
func resolve(cfg *Config) error {
	if cfg.API.Key == "" && cfg.API.KeyFile != "" {
		path, err := expandHome(cfg.API.KeyFile)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: reading api.key_file: %v", ErrConfiguration, err)
		}
		cfg.API.Key = strings.TrimSpace(string(data))
	}

	var err error
	if cfg.Cache.Dir, err = dirOrDefault(cfg.Cache.Dir, ".cache", "nfx"); err != nil {
		return err
	}
	if cfg.Lock.Dir, err = dirOrDefault(cfg.Lock.Dir, ".config", "nfx"); err != nil {
		return err
	}

	return nil
}

func dirOrDefault(dir string, elem ...string) (string, error) {
	if dir != "" {
		return expandHome(dir)
	}
	home, err := homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, elem...)...), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func homeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", fmt.Errorf("%w: HOME is not set", ErrConfiguration)
	}
	return home, nil
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.API.ListingURL == "" || cfg.API.SearchURL == "" {
		return fmt.Errorf("%w: api.listing_url and api.search_url are required", ErrConfiguration)
	}

	if cfg.API.Country == "" {
		return fmt.Errorf("%w: api.country is required", ErrConfiguration)
	}

	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("%w: api.timeout must be positive", ErrConfiguration)
	}

	if cfg.API.RequestInterval < 0 {
		return fmt.Errorf("%w: api.request_interval must not be negative", ErrConfiguration)
	}

	if cfg.Lock.Padding < 0 {
		return fmt.Errorf("%w: lock.padding must not be negative", ErrConfiguration)
	}

	if cfg.Catalog.PerPage <= 0 {
		return fmt.Errorf("%w: catalog.per_page must be positive", ErrConfiguration)
	}

	if cfg.Catalog.MaxTitles < cfg.Catalog.PerPage {
		return fmt.Errorf("%w: catalog.max_titles must be at least catalog.per_page", ErrConfiguration)
	}

	validOutputs := map[string]bool{
		"table": true,
		"json":  true,
		"yaml":  true,
	}
	if !validOutputs[cfg.Output.Format] {
		return fmt.Errorf("%w: invalid output format: %s", ErrConfiguration, cfg.Output.Format)
	}

	for name, preset := range cfg.Filter.Presets {
		if strings.TrimSpace(preset.Expression) == "" {
			return fmt.Errorf("%w: filter preset %q has no expression", ErrConfiguration, name)
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("%w: invalid logging level: %s", ErrConfiguration, cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("%w: invalid logging format: %s", ErrConfiguration, cfg.Logging.Format)
	}

	return nil
}

// RequireAPIKey fails when no credential is configured. Only commands that
// reach the API need one.
func (c *Config) RequireAPIKey() error {
	if c.API.Key == "" {
		return fmt.Errorf("%w: api.key must be set (or NFX_API_KEY, or api.key_file)", ErrConfiguration)
	}
	return nil
}

// Preset returns the expression of the named filter preset
func (c *Config) Preset(name string) (string, error) {
	preset, ok := c.Filter.Presets[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("%w: unknown filter preset %q", ErrConfiguration, name)
	}
	return preset.Expression, nil
}
