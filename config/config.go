// Package config loads runtime and tool settings from a TOML or YAML file,
// then applies HAKO_* environment overrides.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	jlconfig "github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the full settings tree read by Load.
type Config struct {
	World   World   `toml:"world" yaml:"world" json:"world"`
	Logging Logging `toml:"logging" yaml:"logging" json:"logging"`
	Metrics Metrics `toml:"metrics" yaml:"metrics" json:"metrics"`
	Bench   Bench   `toml:"bench" yaml:"bench" json:"bench"`
}

// World holds the storage and threading settings of a hako.World.
type World struct {
	PageSize        int `toml:"page_size" yaml:"page_size" json:"page_size"`
	Workers         int `toml:"workers" yaml:"workers" json:"workers"`
	InitialCapacity int `toml:"initial_capacity" yaml:"initial_capacity" json:"initial_capacity"`
}

// Logging selects the log level and output format.
type Logging struct {
	Level  string `toml:"level" yaml:"level" json:"level"`
	Format string `toml:"format" yaml:"format" json:"format"` // "json" or "console"
}

// Metrics configures the statsd client. An empty address disables it.
type Metrics struct {
	StatsdAddress string   `toml:"statsd_address" yaml:"statsd_address" json:"statsd_address"`
	Tags          []string `toml:"tags" yaml:"tags" json:"tags"`
}

// Bench drives cmd/hakobench.
type Bench struct {
	Frames         int     `toml:"frames" yaml:"frames" json:"frames"`
	SpawnPerFrame  int     `toml:"spawn_per_frame" yaml:"spawn_per_frame" json:"spawn_per_frame"`
	DestroyRatio   float64 `toml:"destroy_ratio" yaml:"destroy_ratio" json:"destroy_ratio"`
	MutateRatio    float64 `toml:"mutate_ratio" yaml:"mutate_ratio" json:"mutate_ratio"`
	CheckIntegrity bool    `toml:"check_integrity" yaml:"check_integrity" json:"check_integrity"`
}

// env lists the variables that override file settings. Zero values leave the
// file setting alone.
type env struct {
	PageSize      int    `config:"HAKO_PAGE_SIZE"`
	Workers       int    `config:"HAKO_WORKERS"`
	LogLevel      string `config:"HAKO_LOG_LEVEL"`
	LogFormat     string `config:"HAKO_LOG_FORMAT"`
	StatsdAddress string `config:"HAKO_STATSD_ADDRESS"`
	Frames        int    `config:"HAKO_FRAMES"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		World: World{
			PageSize:        1024,
			Workers:         4,
			InitialCapacity: 1024,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
		Bench: Bench{
			Frames:         120,
			SpawnPerFrame:  2000,
			DestroyRatio:   0.1,
			MutateRatio:    0.2,
			CheckIntegrity: true,
		},
	}
}

// Load reads path (when non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read config %s", path)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		return eris.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return eris.Wrapf(err, "parse config %s", path)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var e env
	if err := jlconfig.FromEnv().To(&e); err != nil {
		return eris.Wrap(err, "read environment overrides")
	}
	if e.PageSize != 0 {
		c.World.PageSize = e.PageSize
	}
	if e.Workers != 0 {
		c.World.Workers = e.Workers
	}
	if e.LogLevel != "" {
		c.Logging.Level = e.LogLevel
	}
	if e.LogFormat != "" {
		c.Logging.Format = e.LogFormat
	}
	if e.StatsdAddress != "" {
		c.Metrics.StatsdAddress = e.StatsdAddress
	}
	if e.Frames != 0 {
		c.Bench.Frames = e.Frames
	}
	return nil
}

// Validate rejects settings the runtime cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.World.PageSize <= 0:
		return eris.Errorf("world.page_size must be positive, got %d", c.World.PageSize)
	case c.World.Workers <= 0:
		return eris.Errorf("world.workers must be positive, got %d", c.World.Workers)
	case c.World.InitialCapacity < 0:
		return eris.Errorf("world.initial_capacity must not be negative, got %d", c.World.InitialCapacity)
	case c.Bench.DestroyRatio < 0 || c.Bench.DestroyRatio > 1:
		return eris.Errorf("bench.destroy_ratio must be within [0,1], got %v", c.Bench.DestroyRatio)
	case c.Bench.MutateRatio < 0 || c.Bench.MutateRatio > 1:
		return eris.Errorf("bench.mutate_ratio must be within [0,1], got %v", c.Bench.MutateRatio)
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return eris.Wrapf(err, "logging.level %q", c.Logging.Level)
	}
	if f := c.Logging.Format; f != "json" && f != "console" {
		return eris.Errorf("logging.format must be json or console, got %q", f)
	}
	return nil
}

// NewLogger builds a zerolog logger writing to w.
func (l Logging) NewLogger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(l.Level)
	if err != nil {
		return zerolog.Nop(), eris.Wrapf(err, "logging.level %q", l.Level)
	}
	if l.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
