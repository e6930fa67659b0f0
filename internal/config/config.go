// Package config loads tiburona settings: built-in defaults, then an
// optional TOML file, then TIBURONA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/delfinacorr/hello-tiburona/internal/greeter"
)

type Config struct {
	Socket  string `toml:"socket"`   // TIBURONA_SOCKET
	DBPath  string `toml:"db_path"`  // TIBURONA_DB
	NATSURL string `toml:"nats_url"` // TIBURONA_NATS_URL (optional, empty = no events)
	TTL     TTL    `toml:"ttl"`
}

// TTL holds lifetime windows as Go duration strings in the file.
type TTL struct {
	Threshold Duration `toml:"threshold"` // TIBURONA_TTL_THRESHOLD
	ExtendTo  Duration `toml:"extend_to"` // TIBURONA_TTL_EXTEND_TO
	Min       Duration `toml:"min"`       // TIBURONA_TTL_MIN
	Max       Duration `toml:"max"`       // TIBURONA_TTL_MAX (0 = uncapped)
}

// Duration decodes from a TOML string such as "24h".
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	dir := stateDir()
	return Config{
		Socket: filepath.Join(dir, "tiburonad.sock"),
		DBPath: filepath.Join(dir, "state.bbolt"),
		TTL: TTL{
			Threshold: Duration{greeter.DefaultTTL},
			ExtendTo:  Duration{greeter.DefaultTTL},
			Min:       Duration{greeter.DefaultTTL},
			Max:       Duration{31 * 24 * time.Hour},
		},
	}
}

// DefaultPath is where Load looks for a file when TIBURONA_CONFIG is unset.
func DefaultPath() string {
	return filepath.Join(stateDir(), "config.toml")
}

// Load reads path (or TIBURONA_CONFIG, or DefaultPath when both are empty)
// over the defaults and applies environment overrides. A missing file is
// not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = envOrDefault("TIBURONA_CONFIG", DefaultPath())
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg.Socket = envOrDefault("TIBURONA_SOCKET", cfg.Socket)
	cfg.DBPath = envOrDefault("TIBURONA_DB", cfg.DBPath)
	cfg.NATSURL = envOrDefault("TIBURONA_NATS_URL", cfg.NATSURL)
	for env, d := range map[string]*Duration{
		"TIBURONA_TTL_THRESHOLD": &cfg.TTL.Threshold,
		"TIBURONA_TTL_EXTEND_TO": &cfg.TTL.ExtendTo,
		"TIBURONA_TTL_MIN":       &cfg.TTL.Min,
		"TIBURONA_TTL_MAX":       &cfg.TTL.Max,
	} {
		if v := os.Getenv(env); v != "" {
			if err := d.UnmarshalText([]byte(v)); err != nil {
				return cfg, fmt.Errorf("%s: %w", env, err)
			}
		}
	}
	return cfg, cfg.Validate()
}

// Validate checks that the lifetime windows are usable.
func (c Config) Validate() error {
	if c.Socket == "" {
		return fmt.Errorf("socket must be set")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path must be set")
	}
	if c.TTL.Threshold.Duration <= 0 {
		return fmt.Errorf("ttl.threshold must be positive, got %s", c.TTL.Threshold)
	}
	if c.TTL.ExtendTo.Duration <= 0 {
		return fmt.Errorf("ttl.extend_to must be positive, got %s", c.TTL.ExtendTo)
	}
	if c.TTL.Min.Duration <= 0 {
		return fmt.Errorf("ttl.min must be positive, got %s", c.TTL.Min)
	}
	if c.TTL.Max.Duration < 0 {
		return fmt.Errorf("ttl.max must not be negative, got %s", c.TTL.Max)
	}
	if ceiling := c.TTL.Max.Duration; ceiling > 0 && (c.TTL.Threshold.Duration > ceiling || c.TTL.Min.Duration > ceiling) {
		return fmt.Errorf("ttl.threshold and ttl.min must not exceed ttl.max (%s)", c.TTL.Max)
	}
	return nil
}

// Write encodes c as TOML to path, creating parent directories.
func Write(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}

func stateDir() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".local", "state", "tiburona")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
