// Package config loads lattice settings from lattice.yaml, lattice.json or lattice.hcl.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/adapters/file"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"
)

// DefaultFiles are probed, in order, when no config path is given.
var DefaultFiles = []string{"lattice.yaml", "lattice.yml", "lattice.json", "lattice.hcl"}

// HTTPConfig configures the planning service.
type HTTPConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// RedisConfig configures the shared scene registry.
type RedisConfig struct {
	Addr   string `yaml:"addr" json:"addr"`
	Prefix string `yaml:"prefix" json:"prefix"`
}

// Config holds every setting the CLI and servers read.
type Config struct {
	// Unit is the world distance between neighbouring cells.
	Unit float64 `yaml:"unit" json:"unit"`
	// SceneDir is the directory scene documents are resolved against.
	SceneDir string `yaml:"scene_dir" json:"scene_dir"`
	// Scene is the document providing the initial object table. Empty means
	// the run starts from an empty scene and relies on the reload.
	Scene string `yaml:"scene" json:"scene"`
	// Fallback enables the single reload of the scene file a synth names.
	Fallback bool `yaml:"fallback" json:"fallback"`

	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`
	// Output is the placement line format: jsonl or text.
	Output string `yaml:"output" json:"output"`

	HTTP    HTTPConfig  `yaml:"http" json:"http"`
	Metrics bool        `yaml:"metrics" json:"metrics"`
	Redis   RedisConfig `yaml:"redis" json:"redis"`
	// Hosts is the file listing host programs placements can be piped to.
	Hosts string `yaml:"hosts" json:"hosts"`

	// Path is the file the config was read from, if any.
	Path string `yaml:"-" json:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Unit:      domain.DefaultUnit,
		SceneDir:  ".",
		Fallback:  true,
		LogLevel:  "info",
		LogFormat: "text",
		Output:    string(file.FormatJSONL),
		HTTP:      HTTPConfig{Addr: ":8080"},
		Metrics:   true,
		Redis:     RedisConfig{Prefix: "lattice:"},
		Hosts:     "hosts.yaml",
	}
}

// Load reads path on top of the defaults. An empty path probes DefaultFiles
// in the working directory and falls back to the defaults when none exist.
func Load(path string) (*Config, error) {
	if path == "" {
		for _, name := range DefaultFiles {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
		if path == "" {
			return Default(), nil
		}
	}

	cfg := Default()
	cfg.Path = path
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		err = decodeHCL(path, cfg)
	case ".yaml", ".yml", ".json":
		err = decodeYAML(path, cfg)
	default:
		err = fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// JSON is a YAML subset, so one decoder serves both.
func decodeYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

type hclConfig struct {
	Unit      *float64 `hcl:"unit,optional"`
	SceneDir  *string  `hcl:"scene_dir,optional"`
	Scene     *string  `hcl:"scene,optional"`
	Fallback  *bool    `hcl:"fallback,optional"`
	LogLevel  *string  `hcl:"log_level,optional"`
	LogFormat *string  `hcl:"log_format,optional"`
	Output    *string  `hcl:"output,optional"`
	Metrics   *bool    `hcl:"metrics,optional"`
	Hosts     *string  `hcl:"hosts,optional"`

	HTTP  []*hclHTTP  `hcl:"http,block"`
	Redis []*hclRedis `hcl:"redis,block"`
}

type hclHTTP struct {
	Addr *string `hcl:"addr,optional"`
}

type hclRedis struct {
	Addr   *string `hcl:"addr,optional"`
	Prefix *string `hcl:"prefix,optional"`
}

func decodeHCL(path string, cfg *Config) error {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var raw hclConfig
	if diags := gohcl.DecodeBody(f.Body, nil, &raw); diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}
	if len(raw.HTTP) > 1 || len(raw.Redis) > 1 {
		return fmt.Errorf("%s: http and redis blocks may appear at most once", path)
	}

	set(&cfg.Unit, raw.Unit)
	set(&cfg.SceneDir, raw.SceneDir)
	set(&cfg.Scene, raw.Scene)
	set(&cfg.Fallback, raw.Fallback)
	set(&cfg.LogLevel, raw.LogLevel)
	set(&cfg.LogFormat, raw.LogFormat)
	set(&cfg.Output, raw.Output)
	set(&cfg.Metrics, raw.Metrics)
	set(&cfg.Hosts, raw.Hosts)
	if len(raw.HTTP) == 1 {
		set(&cfg.HTTP.Addr, raw.HTTP[0].Addr)
	}
	if len(raw.Redis) == 1 {
		set(&cfg.Redis.Addr, raw.Redis[0].Addr)
		set(&cfg.Redis.Prefix, raw.Redis[0].Prefix)
	}
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Unit <= 0 || math.IsNaN(c.Unit) || math.IsInf(c.Unit, 0) {
		errs = append(errs, fmt.Errorf("unit must be a positive number, got %v", c.Unit))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat))
	}
	if _, err := file.ParseFormat(c.Output); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ScenePath resolves name against SceneDir.
func (c *Config) ScenePath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.SceneDir, name)
}
