package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		API: APIConfig{
			Key:             "valid-api-key",
			ListingURL:      "https://unogs-unogs-v1.p.rapidapi.com/aaapi.cgi",
			SearchURL:       "https://unogsng.p.rapidapi.com/search",
			Country:         "US",
			Timeout:         30 * time.Second,
			RequestInterval: time.Second,
		},
		Lock:    LockConfig{Padding: 5},
		Catalog: CatalogConfig{PerPage: 100, MaxTitles: 500},
		Output:  OutputConfig{Format: "table"},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			modify: func(*Config) {},
		},
		{
			name:    "missing country",
			modify:  func(c *Config) { c.API.Country = "" },
			wantErr: "api.country is required",
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.API.Timeout = 0 },
			wantErr: "api.timeout must be positive",
		},
		{
			name:    "negative padding",
			modify:  func(c *Config) { c.Lock.Padding = -1 },
			wantErr: "lock.padding must not be negative",
		},
		{
			name:    "max titles below page size",
			modify:  func(c *Config) { c.Catalog.MaxTitles = 50 },
			wantErr: "catalog.max_titles",
		},
		{
			name:    "invalid output format",
			modify:  func(c *Config) { c.Output.Format = "csv" },
			wantErr: "invalid output format: csv",
		},
		{
			name: "empty preset",
			modify: func(c *Config) {
				c.Filter.Presets = map[string]FilterPreset{"broken": {Expression: "  "}}
			},
			wantErr: `filter preset "broken" has no expression`,
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: "invalid logging level: trace",
		},
		{
			name:    "invalid log format",
			modify:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid logging format: xml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("NFX_API_KEY", "env-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err, "an explicit config path must exist")
	assert.Nil(t, cfg)

	chdir(t, t.TempDir())
	cfg, err = Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.API.Key)
	assert.Equal(t, "US", cfg.API.Country)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, time.Second, cfg.API.RequestInterval)
	assert.Equal(t, filepath.Join(home, ".cache", "nfx"), cfg.Cache.Dir)
	assert.Equal(t, filepath.Join(home, ".config", "nfx"), cfg.Lock.Dir)
	assert.Equal(t, 5, cfg.Lock.Padding)
	assert.Equal(t, 100, cfg.Catalog.PerPage)
	assert.Equal(t, 500, cfg.Catalog.MaxTitles)
	assert.Equal(t, `Type == "movie"`, cfg.Filter.DefaultExpression)
	assert.Equal(t, "table", cfg.Output.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_File(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  key: file-key
  country: GB
  request_interval: 0s
cache:
  dir: ~/cache
lock:
  dir: /var/lib/nfx
  padding: 10
filter:
  presets:
    Recent:
      expression: "Year >= 2020"
      description: Recent releases
output:
  format: json
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.API.Key)
	assert.Equal(t, "GB", cfg.API.Country)
	assert.Zero(t, cfg.API.RequestInterval)
	assert.Equal(t, filepath.Join(home, "cache"), cfg.Cache.Dir)
	assert.Equal(t, "/var/lib/nfx", cfg.Lock.Dir)
	assert.Equal(t, 10, cfg.Lock.Padding)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)

	expression, err := cfg.Preset("recent")
	require.NoError(t, err)
	assert.Equal(t, "Year >= 2020", expression)

	_, err = cfg.Preset("missing")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NFX_API_KEY", "env-key")
	t.Setenv("NFX_API_COUNTRY", "CA")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  key: file-key\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.API.Key)
	assert.Equal(t, "CA", cfg.API.Country)
}

func TestLoad_KeyFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NFX_API_KEY", "")

	keyFile := filepath.Join(t.TempDir(), "key.txt")
	require.NoError(t, os.WriteFile(keyFile, []byte("secret-key\n"), 0o600))

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  key_file: "+keyFile+"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", cfg.API.Key)
}

func TestLoad_MissingKeyFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NFX_API_KEY", "")
	t.Setenv("NFX_API_KEY_FILE", filepath.Join(t.TempDir(), "absent"))
	chdir(t, t.TempDir())

	_, err := Load("")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoad_MissingCredential(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NFX_API_KEY", "")
	chdir(t, t.TempDir())

	// Loading works without a key so that offline commands can run
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.API.Key)

	err = cfg.RequireAPIKey()
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "api.key")
}

func TestRequireAPIKey(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.RequireAPIKey())

	cfg.API.Key = ""
	assert.NoError(t, validate(cfg))
	assert.ErrorIs(t, cfg.RequireAPIKey(), ErrConfiguration)
}

func TestLoad_MissingHome(t *testing.T) {
	t.Setenv("HOME", "")
	t.Setenv("NFX_API_KEY", "env-key")
	chdir(t, t.TempDir())

	_, err := Load("")
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "HOME")
}

func TestLoad_MissingHomeWithExplicitDirs(t *testing.T) {
	t.Setenv("HOME", "")
	t.Setenv("NFX_API_KEY", "env-key")
	t.Setenv("NFX_CACHE_DIR", "/tmp/nfx-cache")
	t.Setenv("NFX_LOCK_DIR", "/tmp/nfx-lock")
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/nfx-cache", cfg.Cache.Dir)
	assert.Equal(t, "/tmp/nfx-lock", cfg.Lock.Dir)
}

// chdir mirrors testing.T.Chdir (Go 1.24+): it changes the working directory
// for the duration of the test and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
