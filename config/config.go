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

	"github.com/energinet-labs/prosumer/core/model"
	"github.com/energinet-labs/prosumer/core/solver"
	"github.com/energinet-labs/prosumer/infra/mqtt"
)

// MetricsConfig selects the observability sinks.
type MetricsConfig struct {
	// PrometheusAddr exposes /metrics when non-empty, e.g. ":9090".
	PrometheusAddr string       `json:"prometheus_addr"`
	Influx         InfluxConfig `json:"influx"`
}

// InfluxConfig points at an InfluxDB bucket. An empty URL disables the sink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// Config is the full runtime configuration of one optimization run.
type Config struct {
	// DataDir holds one subdirectory of parameter files per question.
	DataDir string `json:"data_dir"`
	// Question names the subdirectory and variant to run, e.g. "question_1a".
	Question string `json:"question"`
	NumHours int    `json:"num_hours"`
	// Scenarios restricts the run to the named scenarios. Empty or "all"
	// keeps every registered scenario.
	Scenarios []string `json:"scenarios"`

	VaryTariff bool     `json:"vary_tariff"`
	FixedDA    *float64 `json:"fixed_da_price"`
	Seed       int64    `json:"seed"`

	Epsilon        float64 `json:"epsilon"`
	MaxCapacityKWh float64 `json:"max_capacity_kWh"`

	Solver  solver.Config `json:"solver"`
	Metrics MetricsConfig `json:"metrics"`
	MQTT    *mqtt.Config  `json:"mqtt"`
}

// SetDefaults fills unset fields with working values.
func (c *Config) SetDefaults() {
	if c.NumHours == 0 {
		c.NumHours = 24
	}
	if c.Seed == 0 {
		c.Seed = 1
	}
	c.Solver.SetDefaults()
}

// Validate checks the configuration before a run.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Question == "" {
		return fmt.Errorf("question is required")
	}
	if _, err := model.ParseVariant(c.Question); err != nil {
		return err
	}
	if c.NumHours <= 0 {
		return fmt.Errorf("num_hours must be positive, got %d", c.NumHours)
	}
	return c.Solver.Validate()
}

// Variant returns the optimization variant implied by the question name.
func (c *Config) Variant() model.Variant {
	v, _ := model.ParseVariant(c.Question)
	return v
}

// Load reads a YAML or JSON configuration file, applies PROSUMER_
// environment overrides (PROSUMER_METRICS__INFLUX__URL style), then
// defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
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
		return nil, err
	}
	if err := k.Load(env.Provider("PROSUMER_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "prosumer_")
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
