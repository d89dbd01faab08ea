// Package config decodes and validates the YAML run configuration that
// drives a domain build: which lattice to use, how many simulated ranks
// to run, where the geometry and iolet sidecar files live.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// RunConfig is the top-level document loaded from a run's YAML file.
type RunConfig struct {
	Lattice      string        `yaml:"lattice"`
	Ranks        int           `yaml:"ranks"`
	GeometryYAML string        `yaml:"geometry_yaml,omitempty"`
	Synthetic    string        `yaml:"synthetic,omitempty"` // named S1..S6 scenario, alternative to GeometryYAML
	Iolets       []IoletSpec   `yaml:"iolets,omitempty"`
	ReportDB     string        `yaml:"report_db,omitempty"`
	EventLogDir  string        `yaml:"event_log_dir,omitempty"`
	Introspect   IntrospectCfg `yaml:"introspect,omitempty"`
}

// IoletSpec describes one entry of RunConfig.Iolets; Kind selects which
// concrete iolet.Iolet variant to build. Fields not relevant to Kind are
// ignored.
type IoletSpec struct {
	Kind         string     `yaml:"kind"` // pressure|cosine_pressure|file_pressure|velocity|parabolic_velocity|womersley_velocity|file_velocity
	MeanPressure float64    `yaml:"mean_pressure,omitempty"`
	Amplitude    float64    `yaml:"amplitude,omitempty"`
	Period       float64    `yaml:"period,omitempty"`
	Phase        float64    `yaml:"phase,omitempty"`
	Direction    [3]float64 `yaml:"direction,omitempty"`
	Centre       [3]float64 `yaml:"centre,omitempty"`
	Radius       float64    `yaml:"radius,omitempty"`
	Speed        float64    `yaml:"speed,omitempty"`
	WomersleyN   float64    `yaml:"womersley_n,omitempty"`
	SeriesFile   string     `yaml:"series_file,omitempty"`
}

// IntrospectCfg controls the optional live websocket feed.
type IntrospectCfg struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Addr    string `yaml:"addr,omitempty"`
}

func defaults() RunConfig {
	return RunConfig{
		Lattice:     "D3Q19",
		Ranks:       1,
		Synthetic:   "S1",
		ReportDB:    "domainbuild-report.sqlite",
		EventLogDir: "domainbuild-events",
	}
}

// Load reads and validates a RunConfig from a YAML file. An empty path
// returns the defaults.
func Load(path string) (RunConfig, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, cfg.Validate()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("run config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("run config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks structural invariants that the JSON Schema (aimed at
// the raw YAML/JSON document) can't easily express, such as cross-field
// consistency.
func (c RunConfig) Validate() error {
	if c.Lattice != "D3Q19" && c.Lattice != "D3Q27" {
		return fmt.Errorf("unknown lattice %q", c.Lattice)
	}
	if c.Ranks < 1 {
		return fmt.Errorf("ranks must be >= 1, got %d", c.Ranks)
	}
	if c.GeometryYAML == "" && c.Synthetic == "" {
		return fmt.Errorf("one of geometry_yaml or synthetic must be set")
	}
	if c.GeometryYAML != "" && c.Synthetic != "" {
		return fmt.Errorf("geometry_yaml and synthetic are mutually exclusive")
	}
	return nil
}

// ValidateAgainstSchema additionally checks the raw YAML/JSON document (as
// a decoded any) against schemaPath, using jsonschema/v5 the way
// internal/protocol's tests compile and validate against a schema file.
func ValidateAgainstSchema(schemaPath string, doc any) error {
	schema, err := jsonschema.Compile(schemaPath)
	if err != nil {
		return fmt.Errorf("compile schema %s: %w", schemaPath, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("validate against %s: %w", schemaPath, err)
	}
	return nil
}
