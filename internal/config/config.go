// Package config holds the engine's tunable settings.
//
// Settings load from a YAML or TOML file selected by extension, on top of
// defaults. The quiet window and poll interval are deliberately plain
// configuration: the right values depend on the machine and workload, not
// on anything the code can derive.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config errors.
var (
	// ErrUnsupportedFormat indicates the config file extension is not
	// .yaml, .yml, or .toml.
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

// Duration wraps time.Duration for YAML and TOML decoding of values like
// "400ms" or "10s".
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalText decodes a duration string. TOML decoding uses this.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalYAML decodes a duration string from a YAML scalar.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// GitConfig configures git invocation.
type GitConfig struct {
	// Path is the git executable path. Default: "git".
	Path string `yaml:"path" toml:"path"`

	// CommandTimeout bounds every git invocation. Default: 10s.
	CommandTimeout Duration `yaml:"command_timeout" toml:"command_timeout"`
}

// WatchConfig configures event watching and refresh scheduling.
type WatchConfig struct {
	// QuietWindow is the debounce window for filesystem bursts.
	// Default: 400ms.
	QuietWindow Duration `yaml:"quiet_window" toml:"quiet_window"`

	// PollInterval is the fallback poll period. Default: 10s.
	PollInterval Duration `yaml:"poll_interval" toml:"poll_interval"`

	// BufferSize is the watcher channel buffer. Default: 256.
	BufferSize int `yaml:"buffer_size" toml:"buffer_size"`

	// MaxWatches caps watched directories per process. 0 = unlimited.
	MaxWatches int `yaml:"max_watches" toml:"max_watches"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default: info.
	Level string `yaml:"level" toml:"level"`
}

// Config is the root configuration.
type Config struct {
	Git   GitConfig   `yaml:"git" toml:"git"`
	Watch WatchConfig `yaml:"watch" toml:"watch"`
	Log   LogConfig   `yaml:"log" toml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Git: GitConfig{
			Path:           "git",
			CommandTimeout: Duration(10 * time.Second),
		},
		Watch: WatchConfig{
			QuietWindow:  Duration(400 * time.Millisecond),
			PollInterval: Duration(10 * time.Second),
			BufferSize:   256,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a config file on top of defaults.
// An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse toml config: %w", err)
		}
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Git.Path == "" {
		return errors.New("git.path must not be empty")
	}
	if c.Git.CommandTimeout <= 0 {
		return errors.New("git.command_timeout must be positive")
	}
	if c.Watch.QuietWindow <= 0 {
		return errors.New("watch.quiet_window must be positive")
	}
	if c.Watch.PollInterval <= 0 {
		return errors.New("watch.poll_interval must be positive")
	}
	if c.Watch.BufferSize <= 0 {
		return errors.New("watch.buffer_size must be positive")
	}
	if c.Watch.MaxWatches < 0 {
		return errors.New("watch.max_watches must not be negative")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q invalid (debug, info, warn, error)", c.Log.Level)
	}
	return nil
}
