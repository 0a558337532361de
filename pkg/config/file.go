package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nodewee/doc-translate-prep/pkg/constants"
	"github.com/nodewee/doc-translate-prep/pkg/utils"
)

const (
	ConfigFileName = "config.yaml"
	AppDirName     = ".doc-translate-prep"

	// LanguageKeyPrefix addresses one entry of the languages map, e.g. languages.Klingon
	LanguageKeyPrefix = "languages."
)

// ConfigFile represents the YAML configuration file structure
type ConfigFile struct {
	SofficePath string            `yaml:"soffice_path"`
	NativePDF   bool              `yaml:"native_pdf"`
	Languages   map[string]string `yaml:"languages,omitempty"`
}

// GetConfigDir returns the user configuration directory (~/.doc-translate-prep)
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", utils.WrapError(err, utils.ErrorTypeIO, "failed to get user home directory")
	}

	return filepath.Join(homeDir, AppDirName), nil
}

// GetConfigFilePath returns the full path to the configuration file
func GetConfigFilePath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, ConfigFileName), nil
}

// LoadConfig loads configuration from file or creates default if not exists
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigFilePath()
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to get config file path")
	}
	return LoadConfigFrom(configPath)
}

// LoadConfigFrom loads the configuration file at configPath, creating it
// with auto-detected tool paths when it does not exist yet
func LoadConfigFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfigFile(configPath)
	}
	return loadConfigFromFile(configPath)
}

// createDefaultConfigFile creates a default configuration file with auto-detected tools
func createDefaultConfigFile(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, constants.DefaultDirPermission); err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to create config directory")
	}

	configFile := &ConfigFile{
		SofficePath: DetectSofficePath(),
		NativePDF:   DefaultNativePDF,
	}

	if err := saveConfigFile(configPath, configFile); err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to save default config file")
	}

	fmt.Fprintf(os.Stderr, "✅ Created default configuration file: %s\n", configPath)
	if configFile.SofficePath != "" {
		fmt.Fprintf(os.Stderr, "🔍 Auto-detected LibreOffice: %s\n", configFile.SofficePath)
	}

	return configFileToConfig(configFile), nil
}

// loadConfigFromFile loads configuration from an existing file
func loadConfigFromFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeIO, "failed to read config file")
	}

	var configFile ConfigFile
	if err := yaml.Unmarshal(data, &configFile); err != nil {
		return nil, utils.WrapError(err, utils.ErrorTypeParse, "failed to parse config file")
	}

	return configFileToConfig(&configFile), nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config) error {
	configPath, err := GetConfigFilePath()
	if err != nil {
		return err
	}
	return SaveConfigTo(configPath, config)
}

// SaveConfigTo saves the persisted part of config at configPath
func SaveConfigTo(configPath string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(configPath), constants.DefaultDirPermission); err != nil {
		return utils.WrapError(err, utils.ErrorTypeIO, "failed to create config directory")
	}
	return saveConfigFile(configPath, configToConfigFile(config))
}

// saveConfigFile saves ConfigFile to disk
func saveConfigFile(configPath string, configFile *ConfigFile) error {
	data, err := yaml.Marshal(configFile)
	if err != nil {
		return utils.WrapError(err, utils.ErrorTypeParse, "failed to marshal config")
	}

	if err := utils.WriteFileAtomic(configPath, data); err != nil {
		return utils.WrapError(err, utils.ErrorTypeIO, "failed to write config file")
	}

	return nil
}

// DetectSofficePath looks for a LibreOffice executable on PATH and in the
// platform's usual install locations
func DetectSofficePath() string {
	for _, pathOrName := range constants.GetPlatformConfig().SofficePaths {
		var detectedPath string
		if filepath.IsAbs(pathOrName) {
			if utils.IsExecutable(pathOrName) {
				detectedPath = pathOrName
			}
		} else if found, err := exec.LookPath(utils.GetExecutableName(pathOrName)); err == nil {
			detectedPath = found
		}

		if detectedPath != "" && utils.IsExecutable(detectedPath) {
			return utils.NormalizePath(detectedPath)
		}
	}
	return ""
}

// configFileToConfig converts ConfigFile to Config
func configFileToConfig(cf *ConfigFile) *Config {
	return withRuntimeDefaults(&Config{
		SofficePath: cf.SofficePath,
		NativePDF:   cf.NativePDF,
		Languages:   cf.Languages,
	})
}

// configToConfigFile converts Config to ConfigFile
func configToConfigFile(c *Config) *ConfigFile {
	cf := &ConfigFile{
		SofficePath: c.SofficePath,
		NativePDF:   c.NativePDF,
	}
	if len(c.Languages) > 0 {
		cf.Languages = c.Languages
	}
	return cf
}

// GetValue returns a persisted setting by key
func (c *Config) GetValue(key string) (string, error) {
	switch {
	case key == "soffice_path":
		return c.SofficePath, nil
	case key == "native_pdf":
		return fmt.Sprintf("%t", c.NativePDF), nil
	case key == "languages":
		names := make([]string, 0, len(c.Languages))
		for name := range c.Languages {
			names = append(names, name)
		}
		sort.Strings(names)
		pairs := make([]string, 0, len(names))
		for _, name := range names {
			pairs = append(pairs, name+"="+c.Languages[name])
		}
		return strings.Join(pairs, ", "), nil
	case strings.HasPrefix(key, LanguageKeyPrefix):
		name := strings.TrimPrefix(key, LanguageKeyPrefix)
		code, ok := c.Languages[name]
		if !ok {
			return "", utils.NewNotFoundError(fmt.Sprintf("no language override for %q", name), nil)
		}
		return code, nil
	default:
		return "", utils.NewValidationError(fmt.Sprintf("unknown config key: %s", key), nil)
	}
}

// SetValue changes a persisted setting by key. An empty value removes a
// language override.
func (c *Config) SetValue(key, value string) error {
	switch {
	case key == "soffice_path":
		c.SofficePath = value
	case key == "native_pdf":
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on", "false", "0", "no", "off":
			c.NativePDF = parseBool(value)
		default:
			return utils.NewValidationError("native_pdf must be true or false", nil)
		}
	case strings.HasPrefix(key, LanguageKeyPrefix):
		name := strings.TrimPrefix(key, LanguageKeyPrefix)
		if name == "" {
			return utils.NewValidationError("language name cannot be empty", nil)
		}
		if c.Languages == nil {
			c.Languages = make(map[string]string)
		}
		if value == "" {
			delete(c.Languages, name)
		} else {
			c.Languages[name] = value
		}
	default:
		return utils.NewValidationError(fmt.Sprintf("unknown config key: %s", key), nil)
	}
	return nil
}

// GetConfigValue gets a specific configuration value by key
func GetConfigValue(key string) (string, error) {
	config, err := LoadConfig()
	if err != nil {
		return "", err
	}
	return config.GetValue(key)
}

// SetConfigValue sets a specific configuration value by key
func SetConfigValue(key, value string) error {
	config, err := LoadConfig()
	if err != nil {
		return err
	}
	if err := config.SetValue(key, value); err != nil {
		return err
	}
	return SaveConfig(config)
}

// ListConfigKeys returns all available configuration keys
func ListConfigKeys() []string {
	return []string{
		"soffice_path",
		"native_pdf",
		"languages",
	}
}
