// Package config handles loading of memoproxy.yaml with environment variable
// expansion and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.yaml.in/yaml/v3"

	"github.com/vnykmshr/memoproxy/internal/directive"
	"github.com/vnykmshr/memoproxy/internal/registry"
)

// DefaultFile is the configuration file looked up when none is given
const DefaultFile = "memoproxy.yaml"

// Config is the generation pass configuration.
type Config struct {
	// Enabled turns the whole pass off when false
	Enabled bool `yaml:"enabled"`

	// CacheService is the container id of the pool injected into every proxy
	CacheService string `yaml:"cache_service"`

	// DefaultMemoizeSeconds is the lifetime used when no directive sets one
	DefaultMemoizeSeconds int `yaml:"default_memoize_seconds"`

	// TargetDirectory receives the generated files
	TargetDirectory string `yaml:"target_directory"`

	// Package is the package clause of generated files
	Package string `yaml:"package"`

	// ImportPath is the import path of TargetDirectory, if it is inside the
	// loaded module. Types declared there are referenced unqualified.
	ImportPath string `yaml:"import_path"`

	// Dir is the directory packages are loaded from, normally the module root
	Dir string `yaml:"dir"`

	// Staged writes into a sibling directory and swaps files in on success
	Staged bool `yaml:"staged"`

	// Scan lists packages searched for //memoize:service markers
	Scan []string `yaml:"scan"`

	// InterfacePackages are searched for implemented interfaces
	InterfacePackages []string `yaml:"interface_packages"`

	BuildTags []string `yaml:"build_tags"`

	Services []ServiceEntry `yaml:"services"`

	Log LogConfig `yaml:"log"`
}

// ServiceEntry is a service definition in the config file.
type ServiceEntry struct {
	ID   string `yaml:"id"`
	Type string `yaml:"type"` // import/path.Name
	// Tags default to memoizable
	Tags       []string `yaml:"tags"`
	Interfaces []string `yaml:"interfaces"`
}

// LogConfig controls the CLI logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error, none
	Format string `yaml:"format"` // text, json
}

// ValidationError reports an invalid configuration
type ValidationError struct {
	File string
	Err  error
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.File == "" {
		return "invalid config: " + e.Err.Error()
	}
	return fmt.Sprintf("invalid config %s: %v", e.File, e.Err)
}

// Unwrap returns the underlying validation errors
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is a ValidationError
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

var (
	envPattern       = regexp.MustCompile(`\$\{([^}]+)\}`)
	identPattern     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	qualifiedPattern = regexp.MustCompile(`^[^\s]+\.[A-Za-z_][A-Za-z0-9_]*$`)
)

// expandEnv replaces ${VAR} patterns with environment variable values.
func expandEnv(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := string(match[2 : len(match)-1])
		if val, ok := os.LookupEnv(varName); ok {
			return []byte(val)
		}
		return match
	})
}

// Default returns the configuration used for keys absent from the file.
func Default() *Config {
	return &Config{
		Enabled:               true,
		CacheService:          "memoize.pool",
		DefaultMemoizeSeconds: directive.DefaultSeconds,
		TargetDirectory:       "memoized",
		Package:               "memoized",
		Dir:                   ".",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads, parses and validates a YAML config file. Relative directories
// are resolved against the directory holding the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(expandEnv(data))
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return nil, &ValidationError{File: path, Err: err}
	}
	return cfg, nil
}

// Parse decodes data over the defaults without validating it
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) resolvePaths(base string) {
	if !filepath.IsAbs(c.Dir) {
		c.Dir = filepath.Join(base, c.Dir)
	}
	if !filepath.IsAbs(c.TargetDirectory) {
		c.TargetDirectory = filepath.Join(base, c.TargetDirectory)
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.CacheService, validation.Required),
		validation.Field(&c.DefaultMemoizeSeconds, validation.Required, validation.Min(1)),
		validation.Field(&c.TargetDirectory, validation.Required),
		validation.Field(&c.Package, validation.Required, validation.Match(identPattern)),
		validation.Field(&c.Scan, validation.Each(validation.Required)),
		validation.Field(&c.InterfacePackages, validation.Each(validation.Required)),
		validation.Field(&c.Services),
		validation.Field(&c.Log),
	)
	if err != nil {
		return err
	}

	seen := map[string]bool{}
	for _, s := range c.Services {
		if seen[s.ID] {
			return validation.Errors{"services": fmt.Errorf("duplicate id %q", s.ID)}
		}
		seen[s.ID] = true
	}
	return nil
}

// Validate checks a service entry
func (s ServiceEntry) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.ID, validation.Required),
		validation.Field(&s.Type, validation.Required, validation.Match(qualifiedPattern)),
		validation.Field(&s.Interfaces, validation.Each(validation.Required, validation.Match(qualifiedPattern))),
	)
}

// Validate checks the log settings
func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "warning", "error", "none", "off")),
		validation.Field(&l.Format, validation.In("text", "json")),
	)
}

// Definitions converts the services section into registry definitions.
// Entries without tags are memoizable.
func (c *Config) Definitions() []registry.Definition {
	out := make([]registry.Definition, 0, len(c.Services))
	for _, s := range c.Services {
		tags := s.Tags
		if len(tags) == 0 {
			tags = []string{registry.TagMemoizable}
		}
		out = append(out, registry.Definition{
			ID:         s.ID,
			Type:       strings.TrimSpace(s.Type),
			Tags:       tags,
			Interfaces: s.Interfaces,
		})
	}
	return out
}
