// Package config provides configuration management for binary drivers.
package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/viper"
)

// Provider defines the interface for configuration providers.
type Provider interface {
	// GetConfig returns the current application configuration.
	GetConfig() *Settings
	// SetConfig sets the application configuration.
	SetConfig(c *Settings)
	// InitConfig initializes the application configuration.
	InitConfig() (*Settings, error)
	// SetConfigFilePath sets the configuration file path.
	SetConfigFilePath(p string)
}

// defaultConfigProvider implements the Provider interface.
type defaultConfigProvider struct {
	cfg *Settings
}

// NewDefaultConfigProvider creates a new default config provider.
func NewDefaultConfigProvider() Provider {
	return &defaultConfigProvider{}
}

var defaultProvider = NewDefaultConfigProvider()

// Default configuration values for the bindriver CLI.
const (
	DefaultTimeout      = time.Duration(0)
	DefaultVerbose      = false
	DefaultBypassErrors = false
	DefaultOutPrefix    = "[OUT] "
	DefaultErrPrefix    = "[ERROR] "
	EnvPrefix           = "BINDRIVER"
)

// Settings represents the configuration of the bindriver CLI.
type Settings struct {
	Binaries     []string       `yaml:"binaries" json:"binaries"`
	Timeout      time.Duration  `yaml:"timeout" json:"timeout"`
	Verbose      bool           `yaml:"verbose" json:"verbose"`
	BypassErrors bool           `yaml:"bypassErrors" json:"bypassErrors"`
	OutPrefix    string         `yaml:"outPrefix" json:"outPrefix"`
	ErrPrefix    string         `yaml:"errPrefix" json:"errPrefix"`
	Driver       map[string]any `yaml:"driver,omitempty" json:"driver,omitempty"`
}

// Configuration builds the driver configuration store from the settings.
// An explicit driver.timeout entry wins over the top-level timeout.
func (s *Settings) Configuration() *Configuration {
	c := NewConfiguration(s.Driver)
	if !c.Has(TimeoutKey) && s.Timeout > 0 {
		c.Set(TimeoutKey, s.Timeout)
	}
	return c
}

func (p *defaultConfigProvider) SetConfig(c *Settings) {
	p.cfg = c
}

func (p *defaultConfigProvider) GetConfig() *Settings {
	return p.cfg
}

func (p *defaultConfigProvider) SetConfigFilePath(path string) {
	viper.SetConfigFile(path)
}

func (p *defaultConfigProvider) InitConfig() (*Settings, error) {
	cfg, err := initConfigInternal()
	if err != nil {
		return nil, err
	}
	p.cfg = cfg
	return p.cfg, nil
}

// SetConfig sets the application configuration.
func SetConfig(c *Settings) {
	defaultProvider.SetConfig(c)
}

// GetConfig returns the current application configuration.
func GetConfig() *Settings {
	return defaultProvider.GetConfig()
}

// SetConfigFilePath sets the configuration file path.
func SetConfigFilePath(p string) {
	defaultProvider.SetConfigFilePath(p)
}

// InitConfig initializes the application configuration.
func InitConfig() (*Settings, error) {
	return defaultProvider.InitConfig()
}

// DefaultProvider returns the package level provider.
func DefaultProvider() Provider {
	return defaultProvider
}

func initConfigInternal() (*Settings, error) {
	cfg := &Settings{
		Timeout:      DefaultTimeout,
		Verbose:      DefaultVerbose,
		BypassErrors: DefaultBypassErrors,
		OutPrefix:    DefaultOutPrefix,
		ErrPrefix:    DefaultErrPrefix,
	}

	viper.SetDefault("timeout", DefaultTimeout)
	viper.SetDefault("verbose", DefaultVerbose)
	viper.SetDefault("bypassErrors", DefaultBypassErrors)
	viper.SetDefault("outPrefix", DefaultOutPrefix)
	viper.SetDefault("errPrefix", DefaultErrPrefix)

	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	// SetConfigName clears a file set through SetConfigFilePath.
	if viper.ConfigFileUsed() == "" {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(os.ExpandEnv("$HOME/.config/bindriver"))
		viper.AddConfigPath("/etc/bindriver")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return cfg, nil
}

// LoadFile reads a driver configuration file (any format viper understands)
// into a Configuration. Nested keys are flattened with dots.
func LoadFile(path string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading driver configuration %s: %w", path, err)
	}

	keys := v.AllKeys()
	sort.Strings(keys)

	c := &Configuration{}
	for _, k := range keys {
		c.Set(k, v.Get(k))
	}
	return c, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
