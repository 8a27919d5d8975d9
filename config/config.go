// Package config loads the runtime configuration from a YAML or JSON file
// with K_ prefixed environment overrides (K_LOOP__FPS=30 sets loop.fps).
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/pulse/core/metrics"
	"github.com/kilianp07/pulse/infra/input"
	"github.com/kilianp07/pulse/infra/journal"
	"github.com/kilianp07/pulse/infra/mqtt"
)

type Config struct {
	Loop    LoopConfig     `json:"loop"`
	Logging LoggingConfig  `json:"logging"`
	Metrics metrics.Config `json:"metrics"`
	Journal journal.Config `json:"journal"`
	Input   input.Config   `json:"input"`
	MQTT    mqtt.Config    `json:"mqtt"`
	Sentry  SentryConfig   `json:"sentry"`
}

// Load reads the configuration file at path, applies environment overrides,
// defaults and validation. An empty path loads the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Loop.SetDefaults()
	c.Logging.SetDefaults()
	c.Journal.SetDefaults()
	c.Input.SetDefaults()
	c.MQTT.SetDefaults()
}

// Validate checks every section and reports the first invalid one.
func (c Config) Validate() error {
	checks := []struct {
		section string
		err     error
	}{
		{"loop", c.Loop.Validate()},
		{"logging", c.Logging.Validate()},
		{"journal", c.Journal.Validate()},
		{"input", c.Input.Validate()},
		{"mqtt", c.MQTT.Validate()},
	}
	for _, ch := range checks {
		if ch.err != nil {
			return fmt.Errorf("%s: %w", ch.section, ch.err)
		}
	}
	return nil
}
