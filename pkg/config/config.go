// Package config loads and validates adapter configuration from files
// and environment variables using Viper.
//
// Supports YAML and JSON files, a BRIDGEKIT_ env prefix, defaults for
// the retry policy and transport timeout, and optional watch for
// changes.
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/madcok-co/bridgekit/pkg/adapter"
)

// Loader reads adapter configs.
type Loader struct {
	viper    *viper.Viper
	validate *validator.Validate

	mu       sync.Mutex
	onChange []func(*adapter.Config)
}

// NewLoader creates a loader bound to one config file.
func NewLoader(file string) *Loader {
	v := viper.New()
	v.SetConfigFile(file)
	v.SetEnvPrefix("BRIDGEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	return &Loader{
		viper:    v,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("timeout", 30000)
	v.SetDefault("retryPolicy.maxRetries", 3)
	v.SetDefault("retryPolicy.initialDelay", 1000)
	v.SetDefault("retryPolicy.maxDelay", 10000)
	v.SetDefault("retryPolicy.backoffMultiplier", 2.0)
}

// Load reads, unmarshals and validates the adapter config.
func (l *Loader) Load() (*adapter.Config, error) {
	if err := l.viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg adapter.Config
	if err := l.viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := l.Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks an adapter config against its constraints: required
// name and formats, retry policy bounds, endpoint URL shape.
func (l *Loader) Validate(cfg *adapter.Config) error {
	if err := l.validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// OnChange registers a callback invoked with the freshly loaded config
// whenever the underlying file changes. Call Watch to start watching.
func (l *Loader) OnChange(fn func(*adapter.Config)) {
	l.mu.Lock()
	l.onChange = append(l.onChange, fn)
	l.mu.Unlock()
}

// Watch re-reads the config on file changes and notifies subscribers.
// Reloads that fail validation are dropped, keeping the last good config.
func (l *Loader) Watch() {
	l.viper.OnConfigChange(func(e fsnotify.Event) {
		var cfg adapter.Config
		if err := l.viper.Unmarshal(&cfg); err != nil {
			return
		}
		if err := l.Validate(&cfg); err != nil {
			return
		}

		l.mu.Lock()
		subscribers := make([]func(*adapter.Config), len(l.onChange))
		copy(subscribers, l.onChange)
		l.mu.Unlock()

		for _, fn := range subscribers {
			fn(&cfg)
		}
	})
	l.viper.WatchConfig()
}
