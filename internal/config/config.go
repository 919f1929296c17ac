package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/rasalas/gitmsg/internal/xdg"
)

const fileName = "config.toml"

// Defaults applied before the config file and environment.
const (
	DefaultProvider    = "openai"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 8192
	DefaultIdleTimeout = 30 * time.Second
)

// Duration is a time.Duration written as a string such as "30s".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// ProviderConfig describes a provider missing from Registry, or overrides
// parts of a known one.
type ProviderConfig struct {
	Model string `toml:"model,omitempty"`
	URL   string `toml:"url,omitempty"`
	Env   string `toml:"env,omitempty"`
}

// Config is the contents of config.toml.
type Config struct {
	Provider    string                    `toml:"provider"`
	URL         string                    `toml:"url,omitempty"`
	Model       string                    `toml:"model,omitempty"`
	Temperature float64                   `toml:"temperature"`
	MaxTokens   int                       `toml:"max_tokens"`
	Stream      bool                      `toml:"stream"`
	IdleTimeout Duration                  `toml:"idle_timeout"`
	Custom      map[string]ProviderConfig `toml:"custom,omitempty"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Provider:    DefaultProvider,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Stream:      true,
		IdleTimeout: Duration{DefaultIdleTimeout},
	}
}

// Path returns the config file location.
func Path() (string, error) {
	return xdg.ConfigFile(fileName)
}

// Load reads the config file, if any, and applies environment overrides.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return DefaultConfig(), err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile decodes path over the defaults. A missing file is not an error.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from GITMSG_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("GITMSG_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := getenv("GITMSG_URL"); v != "" {
		c.URL = v
	}
	if v := getenv("GITMSG_MODEL"); v != "" {
		c.Model = v
	}
	if v := getenv("GITMSG_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("GITMSG_TEMPERATURE: %w", err)
		}
		c.Temperature = f
	}
	if v := getenv("GITMSG_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GITMSG_MAX_TOKENS: %w", err)
		}
		c.MaxTokens = n
	}
	if v := getenv("GITMSG_STREAM"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GITMSG_STREAM: %w", err)
		}
		c.Stream = b
	}
	if v := getenv("GITMSG_IDLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GITMSG_IDLE_TIMEOUT: %w", err)
		}
		c.IdleTimeout = Duration{d}
	}
	return nil
}

// Validate reports every problem with the config at once.
func (c Config) Validate() error {
	var errs []error
	if _, ok := c.ResolveProvider(c.Provider); !ok {
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature %v out of range [0, 2]", c.Temperature))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens))
	}
	if c.IdleTimeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("idle_timeout must be positive, got %s", c.IdleTimeout))
	}
	if c.URL != "" && !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		errs = append(errs, fmt.Errorf("url %q must start with http:// or https://", c.URL))
	}
	return errors.Join(errs...)
}

// ResolveProvider merges Registry defaults, the [custom.<name>] table and,
// for the selected provider, the top-level url and model.
func (c Config) ResolveProvider(name string) (ResolvedProvider, bool) {
	entry, known := Registry[name]
	custom, hasCustom := c.Custom[name]
	if !known && !hasCustom {
		return ResolvedProvider{}, false
	}

	rp := ResolvedProvider{
		Name:      name,
		Model:     entry.DefaultModel,
		URL:       entry.DefaultURL,
		Env:       entry.DefaultEnv,
		NeedsAuth: entry.NeedsAuth,
	}
	if hasCustom {
		if custom.Model != "" {
			rp.Model = custom.Model
		}
		if custom.URL != "" {
			rp.URL = custom.URL
		}
		if custom.Env != "" {
			rp.Env = custom.Env
			rp.NeedsAuth = true
		}
	}
	if name == c.Provider {
		if c.Model != "" {
			rp.Model = c.Model
		}
		if c.URL != "" {
			rp.URL = c.URL
		}
	}
	return rp, true
}

// Active resolves the selected provider.
func (c Config) Active() (ResolvedProvider, error) {
	rp, ok := c.ResolveProvider(c.Provider)
	if !ok {
		return rp, fmt.Errorf("unknown provider %q", c.Provider)
	}
	return rp, nil
}

// Save writes cfg to the config file, creating the directory.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
