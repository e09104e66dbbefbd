package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier; events from the feed are tagged with it.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// ImportConfig configures the natural-language parsing backend.
type ImportConfig struct {
	// Endpoint is the base URL of an OpenAI-compatible API.
	Endpoint       string `yaml:"endpoint" json:"endpoint"`
	Model          string `yaml:"model" json:"model"`
	APIKey         string `yaml:"api_key,omitempty" json:"-"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries" json:"max_retries"`
	// Temperature is nil when unset so that an explicit 0 is kept.
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens   int      `yaml:"max_tokens" json:"max_tokens"`
}

// ExportConfig holds calendar-level properties written on export.
type ExportConfig struct {
	CalendarName string `yaml:"calendar_name" json:"calendar_name"`
	ProductID    string `yaml:"product_id" json:"product_id"`
	UIDDomain    string `yaml:"uid_domain" json:"uid_domain"`
}

// CaptureConfig controls headless-browser previews of the calendar page.
type CaptureConfig struct {
	Enabled        bool   `yaml:"enabled" json:"enabled"`
	Width          int    `yaml:"width" json:"width"`
	Height         int    `yaml:"height" json:"height"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	Output         string `yaml:"output,omitempty" json:"output,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Clock is "12h" or "24h".
	Clock string `yaml:"clock" json:"clock"`

	// Timezone is the IANA zone whose wall clock zoned feed times are
	// converted to (e.g. "Asia/Seoul"). "Local" uses the host zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used for periodic subscription refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays / BackfillDays bound the window recurring feed events are
	// expanded into, relative to today.
	HorizonDays  int `yaml:"horizon_days" json:"horizon_days"`
	BackfillDays int `yaml:"backfill_days" json:"backfill_days"`

	// CacheDir holds conditional-request metadata and last good feed bodies.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`
	// FetchRetries bounds retries of a feed answering 429/5xx or failing
	// on the network before the cached body is served.
	FetchRetries int `yaml:"fetch_retries" json:"fetch_retries"`

	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogPretty bool   `yaml:"log_pretty" json:"log_pretty"`

	Import  ImportConfig  `yaml:"import" json:"import"`
	Export  ExportConfig  `yaml:"export" json:"export"`
	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"-"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "127.0.0.1:8080",
		Clock:        "12h",
		Timezone:     "Local",
		RefreshCron:  "*/15 * * * *",
		HorizonDays:  365,
		BackfillDays: 30,
		CacheDir:     "./var/ics-cache",
		FetchRetries: 2,
		LogLevel:     "info",
		Import: ImportConfig{
			Endpoint:       "https://api.openai.com",
			Model:          "gpt-3.5-turbo",
			TimeoutSeconds: 30,
			MaxRetries:     2,
			Temperature:    ptr(0.1),
			MaxTokens:      1500,
		},
		Export: ExportConfig{
			CalendarName: "My Calendar",
			ProductID:    "-//AI Calendar Generator//EN",
			UIDDomain:    "ai-calendar-generator.com",
		},
		Capture: CaptureConfig{
			Width:          1280,
			Height:         960,
			TimeoutSeconds: 20,
		},
		ICS:       []ICSConfig{},
		BasicAuth: nil,
	}
}

func ptr[T any](v T) *T { return &v }

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	d := DefaultConfig()

	if c.Listen == "" {
		c.Listen = d.Listen
	}
	switch c.Clock {
	case "12h", "24h":
	default:
		c.Clock = d.Clock
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = d.RefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = d.HorizonDays
	}
	if c.BackfillDays < 0 {
		c.BackfillDays = 0
	}
	if c.CacheDir == "" {
		c.CacheDir = d.CacheDir
	}
	if c.FetchRetries < 0 {
		c.FetchRetries = 0
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}

	if c.Import.Endpoint == "" {
		c.Import.Endpoint = d.Import.Endpoint
	}
	if c.Import.Model == "" {
		c.Import.Model = d.Import.Model
	}
	if c.Import.TimeoutSeconds <= 0 {
		c.Import.TimeoutSeconds = d.Import.TimeoutSeconds
	}
	if c.Import.MaxRetries < 0 {
		c.Import.MaxRetries = 0
	}
	if c.Import.Temperature == nil || *c.Import.Temperature < 0 {
		c.Import.Temperature = d.Import.Temperature
	}
	if c.Import.MaxTokens <= 0 {
		c.Import.MaxTokens = d.Import.MaxTokens
	}

	if c.Export.CalendarName == "" {
		c.Export.CalendarName = d.Export.CalendarName
	}
	if c.Export.ProductID == "" {
		c.Export.ProductID = d.Export.ProductID
	}
	if c.Export.UIDDomain == "" {
		c.Export.UIDDomain = d.Export.UIDDomain
	}

	if c.Capture.Width <= 0 {
		c.Capture.Width = d.Capture.Width
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = d.Capture.Height
	}
	if c.Capture.TimeoutSeconds <= 0 {
		c.Capture.TimeoutSeconds = d.Capture.TimeoutSeconds
	}

	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	for i := range c.ICS {
		if c.ICS[i].ID == "" {
			c.ICS[i].ID = fmt.Sprintf("ics-%d", i+1)
		}
	}
}

// Location resolves Timezone, falling back to the host zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ImportTimeout is the deadline of one natural-language import.
func (c *Config) ImportTimeout() time.Duration {
	return time.Duration(c.Import.TimeoutSeconds) * time.Second
}

// envOverlay lists the settings that may come from the environment. Keys are
// prefixed with AICAL_; the API key also falls back to OPENAI_API_KEY.
type envOverlay struct {
	Listen            *string `split_words:"true"`
	Clock             *string `split_words:"true"`
	Timezone          *string `split_words:"true"`
	LogLevel          *string `split_words:"true"`
	LogPretty         *bool   `split_words:"true"`
	ImportEndpoint    *string `split_words:"true"`
	ImportModel       *string `split_words:"true"`
	APIKey            *string `envconfig:"OPENAI_API_KEY"`
	BasicAuthUsername *string `split_words:"true"`
	BasicAuthPassword *string `split_words:"true"`
}

// ApplyEnv overlays environment variables onto c.
func (c *Config) ApplyEnv() error {
	var env envOverlay
	if err := envconfig.Process("aical", &env); err != nil {
		return fmt.Errorf("config env: %w", err)
	}

	setString := func(dst *string, v *string) {
		if v != nil && *v != "" {
			*dst = *v
		}
	}
	setString(&c.Listen, env.Listen)
	setString(&c.Clock, env.Clock)
	setString(&c.Timezone, env.Timezone)
	setString(&c.LogLevel, env.LogLevel)
	setString(&c.Import.Endpoint, env.ImportEndpoint)
	setString(&c.Import.Model, env.ImportModel)
	setString(&c.Import.APIKey, env.APIKey)
	if env.LogPretty != nil {
		c.LogPretty = *env.LogPretty
	}

	if env.BasicAuthUsername != nil && *env.BasicAuthUsername != "" {
		if c.BasicAuth == nil {
			c.BasicAuth = &BasicAuthConfig{}
		}
		c.BasicAuth.Username = *env.BasicAuthUsername
		if env.BasicAuthPassword != nil {
			c.BasicAuth.Password = *env.BasicAuthPassword
		}
	}

	c.Normalize()
	return nil
}

// Load loads configuration from the given YAML path and overlays the
// environment.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, cfg.ApplyEnv()
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Normalize()

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".aical-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
