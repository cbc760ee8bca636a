package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Lock    LockConfig    `mapstructure:"lock"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig holds uNoGS API connection details
type APIConfig struct {
	Key             string        `mapstructure:"key"`
	KeyFile         string        `mapstructure:"key_file"`
	ListingURL      string        `mapstructure:"listing_url"`
	SearchURL       string        `mapstructure:"search_url"`
	Country         string        `mapstructure:"country"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RequestInterval time.Duration `mapstructure:"request_interval"`
}

// CacheConfig contains the response cache location
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// LockConfig contains rate limit lock settings
type LockConfig struct {
	Dir     string `mapstructure:"dir"`
	Padding int    `mapstructure:"padding"`
}

// CatalogConfig contains paging limits for listings
type CatalogConfig struct {
	PerPage   int `mapstructure:"per_page"`
	MaxTitles int `mapstructure:"max_titles"`
}

// FilterConfig contains filter definitions
type FilterConfig struct {
	DefaultExpression string                  `mapstructure:"default_expression"`
	Presets           map[string]FilterPreset `mapstructure:"presets"`
}

// FilterPreset is a named filter expression
type FilterPreset struct {
	Expression  string `mapstructure:"expression"`
	Description string `mapstructure:"description"`
}

// OutputConfig contains result rendering settings
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
