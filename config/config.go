package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/healthaccess/gateway"
	"github.com/jonwraymond/healthaccess/metric"
	"github.com/jonwraymond/healthaccess/observe"
	"github.com/jonwraymond/healthaccess/orchestrator"
	"github.com/jonwraymond/healthaccess/resilience"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// ValidDrivers lists the accepted store drivers.
var ValidDrivers = []string{DriverMemory, DriverSQLite}

// Config is the top-level configuration.
type Config struct {
	Observe      observe.Config      `yaml:"observe"`
	Orchestrator orchestrator.Config `yaml:"orchestrator"`
	Resilience   resilience.Config   `yaml:"resilience"`
	Store        StoreConfig         `yaml:"store"`
	Gateway      GatewayConfig       `yaml:"gateway"`
}

// StoreConfig selects and locates the sample store.
type StoreConfig struct {
	// Driver is memory or sqlite.
	// Default: memory
	Driver string `yaml:"driver"`

	// Path is the sqlite database file.
	Path string `yaml:"path"`

	// Location is the IANA time zone used for "today" and ages.
	// Default: the system local zone
	Location string `yaml:"location"`

	// Fixture, when set, seeds the memory store before each fetch. Use the
	// import command to load a fixture into sqlite once.
	Fixture string `yaml:"fixture"`
}

// GatewayConfig configures the local gateway.
type GatewayConfig struct {
	// Unavailable reports the health store as missing.
	Unavailable bool `yaml:"unavailable"`

	// Unsupported lists metrics the platform cannot represent.
	Unsupported []metric.Metric `yaml:"unsupported"`
}

// Default returns the configuration used for anything a file leaves out.
func Default() Config {
	return Config{
		Observe: observe.Config{
			ServiceName: "healthaccess",
			Tracing:     observe.TracingConfig{Exporter: "none", SamplePct: 1},
			Metrics:     observe.MetricsConfig{Exporter: "none"},
			Logging:     observe.LoggingConfig{Enabled: true, Level: "warn"},
		},
		Store: StoreConfig{Driver: DriverMemory},
	}
}

// Load reads the file at path. A missing file yields Default.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg, err := Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse expands, decodes and validates raw YAML. Unknown keys are errors.
func Parse(raw []byte) (Config, error) {
	expanded, err := ExpandEnvStrict(string(raw))
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}

	cfg = hydrateDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadEnv loads .env files into the process environment without
// overriding variables that are already set. Files that do not exist are
// skipped.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("config: load env %s: %w", f, err)
		}
	}
	return nil
}

func hydrateDefaults(cfg Config) Config {
	def := Default()
	if cfg.Observe.ServiceName == "" {
		cfg.Observe.ServiceName = def.Observe.ServiceName
	}
	if cfg.Observe.Logging.Level == "" {
		cfg.Observe.Logging.Level = def.Observe.Logging.Level
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = def.Store.Driver
	}
	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Observe.Validate(); err != nil {
		return err
	}
	if err := c.Orchestrator.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	for _, m := range c.Gateway.Unsupported {
		if !m.Valid() {
			return fmt.Errorf("%w: %d", metric.ErrUnknownMetric, int(m))
		}
	}
	return nil
}

// Validate validates the store section.
func (s StoreConfig) Validate() error {
	if !slices.Contains(ValidDrivers, s.Driver) {
		return fmt.Errorf("%w: %q", ErrUnknownDriver, s.Driver)
	}
	if s.Driver == DriverSQLite && s.Path == "" {
		return ErrMissingPath
	}
	if s.Driver == DriverSQLite && s.Fixture != "" {
		return ErrPersistentFixture
	}
	if _, err := s.TimeLocation(); err != nil {
		return err
	}
	return nil
}

// TimeLocation resolves Location, defaulting to time.Local.
func (s StoreConfig) TimeLocation() (*time.Location, error) {
	if s.Location == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidLocation, s.Location, err)
	}
	return loc, nil
}

// Open opens the configured store. The caller closes it.
func (s StoreConfig) Open() (gateway.Store, error) {
	switch s.Driver {
	case DriverMemory, "":
		return gateway.NewMemoryStore(), nil
	case DriverSQLite:
		return gateway.OpenSQLiteStore(s.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, s.Driver)
	}
}

// LocalConfig builds the gateway configuration. Consent and clock are left
// to the caller.
func (c Config) LocalConfig() (gateway.LocalConfig, error) {
	loc, err := c.Store.TimeLocation()
	if err != nil {
		return gateway.LocalConfig{}, err
	}
	return gateway.LocalConfig{
		Unavailable: c.Gateway.Unavailable,
		Unsupported: slices.Clone(c.Gateway.Unsupported),
		Location:    loc,
	}, nil
}
