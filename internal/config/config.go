// Package config loads surge settings from flags, environment, and YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"surge/internal/runner"
)

const (
	EnvPrefix = "SURGE"
	FileName  = ".surge"
)

// Settings is the flattened view of every configurable key.
type Settings struct {
	Target      string            `mapstructure:"target" yaml:"target"`
	Delay       float64           `mapstructure:"delay" yaml:"delay"` // seconds
	Workers     int               `mapstructure:"workers" yaml:"workers"`
	MaxRequests int               `mapstructure:"max-requests" yaml:"max-requests"`
	Timeout     float64           `mapstructure:"timeout" yaml:"timeout"` // seconds
	UserAgent   string            `mapstructure:"user-agent" yaml:"user-agent"`
	Headers     map[string]string `mapstructure:"headers" yaml:"headers,omitempty"`
	Insecure    bool              `mapstructure:"insecure" yaml:"insecure"`
	LogFile     string            `mapstructure:"log-file" yaml:"log-file"`
	LogLevel    string            `mapstructure:"log-level" yaml:"log-level"`
	Out         string            `mapstructure:"out" yaml:"out,omitempty"`
}

func Default() Settings {
	return Settings{
		Delay:       1,
		Workers:     1,
		MaxRequests: 100,
		Timeout:     10,
		UserAgent:   "surge/1.0",
		LogFile:     "surge.log",
		LogLevel:    "info",
	}
}

// SetDefaults registers Default() on v so unset keys still resolve.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("target", d.Target)
	v.SetDefault("delay", d.Delay)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("max-requests", d.MaxRequests)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("user-agent", d.UserAgent)
	v.SetDefault("insecure", d.Insecure)
	v.SetDefault("log-file", d.LogFile)
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("out", d.Out)
}

// Init points v at the config file and environment. A missing file is not an
// error; a malformed one is.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
			v.SetConfigType("yaml")
			v.SetConfigName(FileName)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if cfgFile == "" && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func Load(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding config: %w", err)
	}
	return s, nil
}

// RunConfig converts the user-facing units into a runner.Config.
func (s Settings) RunConfig() runner.Config {
	return runner.Config{
		Target:      s.Target,
		Delay:       Seconds(s.Delay),
		Workers:     s.Workers,
		MaxRequests: s.MaxRequests,
	}
}

func (s Settings) ExecutorOptions() runner.ExecutorOptions {
	return runner.ExecutorOptions{
		Timeout:   Seconds(s.Timeout),
		UserAgent: s.UserAgent,
		Headers:   s.Headers,
		Insecure:  s.Insecure,
	}
}

// Seconds converts fractional seconds, so 0.25 becomes 250ms.
func Seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// ParseHeaders turns "Key: Value" pairs into a map. Malformed entries are
// skipped.
func ParseHeaders(pairs []string) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, h := range pairs {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) == 2 {
			out[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return out
}

// WriteDefault stores Default() as YAML at path, refusing to overwrite.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	b, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// DefaultPath is $HOME/.surge.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, FileName+".yaml"), nil
}
