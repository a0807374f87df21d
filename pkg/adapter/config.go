package adapter

import (
	"time"

	"github.com/madcok-co/bridgekit/pkg/codec"
	"github.com/madcok-co/bridgekit/pkg/resilience"
	"github.com/madcok-co/bridgekit/pkg/schema"
)

// Config is the immutable configuration for one adapter instance.
// Created once at construction, never mutated afterward.
type Config struct {
	Name         string `json:"name" mapstructure:"name" validate:"required"`
	SourceFormat string `json:"sourceFormat" mapstructure:"sourceFormat" validate:"required,oneof=xml soap csv json rest grpc graphql protobuf"`
	TargetFormat string `json:"targetFormat" mapstructure:"targetFormat" validate:"required,oneof=xml soap csv json rest grpc graphql protobuf"`

	// Endpoint is the base URL requests resolve against. Optional: a
	// request may carry its own absolute URL instead.
	Endpoint string `json:"endpoint" mapstructure:"endpoint" validate:"omitempty,url"`

	// TimeoutMS bounds one transport attempt, in milliseconds. Default 30000.
	TimeoutMS int `json:"timeout" mapstructure:"timeout" validate:"gte=0"`

	RetryPolicy *RetryPolicyConfig `json:"retryPolicy" mapstructure:"retryPolicy"`
	Mapping     *schema.Mapping    `json:"schemaMapping" mapstructure:"schemaMapping"`

	// UnwrapSOAP opts into stripping SOAP envelopes after decode
	UnwrapSOAP bool `json:"unwrapSoap" mapstructure:"unwrapSoap"`

	// CacheTTL enables response caching for GETs when a cache is wired
	CacheTTL time.Duration `json:"cacheTtl" mapstructure:"cacheTtl"`

	// SinkTopic enables publishing transformed payloads when a sink is wired
	SinkTopic string `json:"sinkTopic" mapstructure:"sinkTopic"`
}

// RetryPolicyConfig mirrors resilience.RetryPolicy in config-file form,
// with millisecond delays.
type RetryPolicyConfig struct {
	MaxRetries        int     `json:"maxRetries" mapstructure:"maxRetries" validate:"gte=0"`
	InitialDelayMS    int     `json:"initialDelay" mapstructure:"initialDelay" validate:"gt=0"`
	MaxDelayMS        int     `json:"maxDelay" mapstructure:"maxDelay" validate:"gtefield=InitialDelayMS"`
	BackoffMultiplier float64 `json:"backoffMultiplier" mapstructure:"backoffMultiplier" validate:"gte=1"`
}

// DefaultRetryPolicyConfig matches the documented defaults.
func DefaultRetryPolicyConfig() *RetryPolicyConfig {
	return &RetryPolicyConfig{
		MaxRetries:        3,
		InitialDelayMS:    1000,
		MaxDelayMS:        10000,
		BackoffMultiplier: 2.0,
	}
}

// Policy converts to the resilience form.
func (c *RetryPolicyConfig) Policy() *resilience.RetryPolicy {
	if c == nil {
		return resilience.DefaultRetryPolicy()
	}
	return &resilience.RetryPolicy{
		MaxRetries:   c.MaxRetries,
		InitialDelay: time.Duration(c.InitialDelayMS) * time.Millisecond,
		MaxDelay:     time.Duration(c.MaxDelayMS) * time.Millisecond,
		Multiplier:   c.BackoffMultiplier,
	}
}

// Timeout returns the transport timeout with the 30s default applied.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Source returns the parsed source format tag.
func (c *Config) Source() codec.Format { return codec.ParseFormat(c.SourceFormat) }

// Target returns the parsed target format tag.
func (c *Config) Target() codec.Format { return codec.ParseFormat(c.TargetFormat) }
