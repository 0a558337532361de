package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nodewee/doc-translate-prep/pkg/constants"
	"github.com/nodewee/doc-translate-prep/pkg/logger"
)

// Default values and constants
const (
	DefaultLogLevel       = "info"
	DefaultTimeoutMinutes = 30
	DefaultMaxConcurrency = 4
	DefaultSizeMetric     = "runes"
	DefaultListenAddr     = ":8080"
	DefaultEnableVerbose  = false
	DefaultNativePDF      = false

	// Environment variable prefix for overrides
	EnvPrefix = "DOC_PREP_"
)

// Config holds application configuration
type Config struct {
	// Persisted settings
	SofficePath string            `yaml:"soffice_path"`
	NativePDF   bool              `yaml:"native_pdf"`
	Languages   map[string]string `yaml:"languages,omitempty"`

	// Runtime settings (not persisted to file)
	GroupSize      int    `yaml:"-"`
	MaxSize        int    `yaml:"-"`
	SizeMetric     string `yaml:"-"`
	MaxConcurrency int    `yaml:"-"`
	TimeoutMinutes int    `yaml:"-"`
	LogLevel       string `yaml:"-"`
	EnableVerbose  bool   `yaml:"-"`
	ManifestPath   string `yaml:"-"`
	ListenAddr     string `yaml:"-"`
}

// withRuntimeDefaults fills the runtime settings of c with their defaults
func withRuntimeDefaults(c *Config) *Config {
	c.GroupSize = constants.DefaultGroupSize
	c.MaxSize = constants.DefaultMaxSize
	c.SizeMetric = DefaultSizeMetric
	c.MaxConcurrency = DefaultMaxConcurrency
	c.TimeoutMinutes = DefaultTimeoutMinutes
	c.LogLevel = DefaultLogLevel
	c.EnableVerbose = DefaultEnableVerbose
	c.ListenAddr = DefaultListenAddr
	if c.Languages == nil {
		c.Languages = make(map[string]string)
	}
	return c
}

// DefaultConfig returns the configuration by loading from file or creating default
func DefaultConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		// stdout carries results, so warnings go to stderr
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config file, using basic defaults: %v\n", err)
		return withRuntimeDefaults(&Config{NativePDF: DefaultNativePDF})
	}
	return config
}

// LoadConfigWithEnvOverrides loads config from file and applies environment variable overrides
func LoadConfigWithEnvOverrides() *Config {
	config := DefaultConfig()
	config.ApplyEnv(os.LookupEnv)
	return config
}

// ApplyEnv overrides settings from DOC_PREP_* variables. Malformed numbers
// and booleans are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return v, ok && v != ""
	}
	setInt := func(name string, dst *int) {
		if value, ok := get(name); ok {
			if intVal, err := strconv.Atoi(value); err == nil {
				*dst = intVal
			}
		}
	}

	if value, ok := get("SOFFICE_PATH"); ok {
		c.SofficePath = value
	}
	if value, ok := get("NATIVE_PDF"); ok {
		c.NativePDF = parseBool(value)
	}
	setInt("GROUP_SIZE", &c.GroupSize)
	setInt("MAX_SIZE", &c.MaxSize)
	setInt("MAX_CONCURRENCY", &c.MaxConcurrency)
	setInt("TIMEOUT_MINUTES", &c.TimeoutMinutes)
	if value, ok := get("SIZE_METRIC"); ok {
		c.SizeMetric = value
	}
	if value, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = value
	}
	if value, ok := get("VERBOSE"); ok {
		c.EnableVerbose = parseBool(value)
	}
	if value, ok := get("MANIFEST"); ok {
		c.ManifestPath = value
	}
	if value, ok := get("LISTEN_ADDR"); ok {
		c.ListenAddr = value
	}
}

func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validator := NewConfigValidator()
	return validator.Validate(c)
}

// NewLogger builds the logger described by the configuration
func (c *Config) NewLogger() *logger.Logger {
	return logger.NewLogger(c.LogLevel, c.EnableVerbose)
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	clone.Languages = make(map[string]string, len(c.Languages))
	for k, v := range c.Languages {
		clone.Languages[k] = v
	}
	return &clone
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{GroupSize: %d, MaxSize: %d, SizeMetric: %s, LogLevel: %s, Verbose: %v}",
		c.GroupSize, c.MaxSize, c.SizeMetric, c.LogLevel, c.EnableVerbose)
}
