// Package config loads engine settings from defaults, an optional YAML file
// and FDGRAPH_* environment variables, in increasing priority.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TFMV/fdgraph/expand"
	"github.com/TFMV/fdgraph/fetch"
	"github.com/TFMV/fdgraph/physics"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "FDGRAPH"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the complete engine configuration
type Config struct {
	Canvas    CanvasConfig    `mapstructure:"canvas" yaml:"canvas"`
	Physics   PhysicsConfig   `mapstructure:"physics" yaml:"physics"`
	Layout    LayoutConfig    `mapstructure:"layout" yaml:"layout"`
	Expansion ExpansionConfig `mapstructure:"expansion" yaml:"expansion"`
	Fetch     FetchConfig     `mapstructure:"fetch" yaml:"fetch"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

type CanvasConfig struct {
	Width  float64 `mapstructure:"width" yaml:"width" validate:"gt=0"`
	Height float64 `mapstructure:"height" yaml:"height" validate:"gt=0"`
}

type PhysicsConfig struct {
	Repulsion     float64 `mapstructure:"repulsion" yaml:"repulsion" validate:"gt=0"`
	Exponent      float64 `mapstructure:"exponent" yaml:"exponent" validate:"gt=0"`
	MinSeparation float64 `mapstructure:"min_separation" yaml:"min_separation" validate:"gt=0"`
	Spring        float64 `mapstructure:"spring" yaml:"spring" validate:"gte=0"`
	CentralSpring float64 `mapstructure:"central_spring" yaml:"central_spring" validate:"gte=0"`
	RestLength    float64 `mapstructure:"rest_length" yaml:"rest_length" validate:"gte=0"`
	Damping       float64 `mapstructure:"damping" yaml:"damping" validate:"gt=0,lt=1"`
	MaxSpeed      float64 `mapstructure:"max_speed" yaml:"max_speed" validate:"gt=0"`
	Jitter        float64 `mapstructure:"jitter" yaml:"jitter" validate:"gte=0"`
	StableSpeed   float64 `mapstructure:"stable_speed" yaml:"stable_speed" validate:"gte=0"`
	Seed          int64   `mapstructure:"seed" yaml:"seed"`
}

type LayoutConfig struct {
	ComponentRadius float64 `mapstructure:"component_radius" yaml:"component_radius" validate:"gt=0"`
	LayerRadius     float64 `mapstructure:"layer_radius" yaml:"layer_radius" validate:"gt=0"`
	AppendRadius    float64 `mapstructure:"append_radius" yaml:"append_radius" validate:"gt=0"`
}

type ExpansionConfig struct {
	MaxStalls        int `mapstructure:"max_stalls" yaml:"max_stalls" validate:"min=1"`
	LimitStep        int `mapstructure:"limit_step" yaml:"limit_step" validate:"min=1"`
	FetchDepth       int `mapstructure:"fetch_depth" yaml:"fetch_depth" validate:"min=1,max=5"`
	MaxRelationLimit int `mapstructure:"max_relation_limit" yaml:"max_relation_limit" validate:"min=1"`
}

type FetchConfig struct {
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url" validate:"omitempty,url"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	MinEntities int           `mapstructure:"min_entities" yaml:"min_entities" validate:"min=1"`
	Breaker     BreakerConfig `mapstructure:"breaker" yaml:"breaker"`
}

type BreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max_requests" yaml:"max_requests" validate:"min=1"`
	Interval         time.Duration `mapstructure:"interval" yaml:"interval" validate:"gte=0"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	FailureThreshold float64       `mapstructure:"failure_threshold" yaml:"failure_threshold" validate:"gt=0,lte=1"`
	MinRequests      uint32        `mapstructure:"min_requests" yaml:"min_requests"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	TickInterval    time.Duration `mapstructure:"tick_interval" yaml:"tick_interval" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins" yaml:"allowed_origins" validate:"dive,required"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json console"`
}

// Default returns the stock configuration
func Default() *Config {
	params := physics.DefaultParams()
	opts := expand.DefaultOptions()
	breaker := fetch.DefaultBreakerConfig()

	return &Config{
		Canvas: CanvasConfig{Width: 800, Height: 600},
		Physics: PhysicsConfig{
			Repulsion:     params.Repulsion,
			Exponent:      params.Exponent,
			MinSeparation: params.MinSeparation,
			Spring:        params.Spring,
			CentralSpring: params.CentralSpring,
			RestLength:    params.RestLength,
			Damping:       params.Damping,
			MaxSpeed:      params.MaxSpeed,
			Jitter:        params.Jitter,
			StableSpeed:   params.StableSpeed,
			Seed:          1,
		},
		Layout: LayoutConfig{
			ComponentRadius: 200,
			LayerRadius:     100,
			AppendRadius:    200,
		},
		Expansion: ExpansionConfig{
			MaxStalls:        opts.MaxStalls,
			LimitStep:        opts.LimitStep,
			FetchDepth:       opts.FetchDepth,
			MaxRelationLimit: opts.MaxRelationLimit,
		},
		Fetch: FetchConfig{
			Timeout:     10 * time.Second,
			MinEntities: 2,
			Breaker: BreakerConfig{
				MaxRequests:      breaker.MaxRequests,
				Interval:         breaker.Interval,
				Timeout:          breaker.Timeout,
				FailureThreshold: breaker.FailureThreshold,
				MinRequests:      breaker.MinRequests,
			},
		},
		Server: ServerConfig{
			Addr:            ":8080",
			TickInterval:    16 * time.Millisecond,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"http://localhost:3000"},
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration. path may be empty to skip the file layer.
func Load(path string) (*Config, error) {
	seed, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("error encoding defaults: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(seed)); err != nil {
		return nil, fmt.Errorf("error reading defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field constraint
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// Marshal renders the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// PhysicsParams converts the physics section
func (c *Config) PhysicsParams() physics.Params {
	p := c.Physics
	return physics.Params{
		Repulsion:     p.Repulsion,
		Exponent:      p.Exponent,
		MinSeparation: p.MinSeparation,
		Spring:        p.Spring,
		CentralSpring: p.CentralSpring,
		RestLength:    p.RestLength,
		Damping:       p.Damping,
		MaxSpeed:      p.MaxSpeed,
		Jitter:        p.Jitter,
		StableSpeed:   p.StableSpeed,
	}
}

// ExpandOptions converts the expansion section
func (c *Config) ExpandOptions() expand.Options {
	e := c.Expansion
	return expand.Options{
		MaxStalls:        e.MaxStalls,
		LimitStep:        e.LimitStep,
		FetchDepth:       e.FetchDepth,
		MaxRelationLimit: e.MaxRelationLimit,
	}
}

// ClientConfig converts the fetch section into client settings
func (c *Config) ClientConfig() fetch.Config {
	b := c.Fetch.Breaker
	return fetch.Config{
		BaseURL: c.Fetch.BaseURL,
		Timeout: c.Fetch.Timeout,
		Breaker: fetch.BreakerConfig{
			MaxRequests:      b.MaxRequests,
			Interval:         b.Interval,
			Timeout:          b.Timeout,
			FailureThreshold: b.FailureThreshold,
			MinRequests:      b.MinRequests,
		},
	}
}

// formatValidationError flattens validator errors into one readable message
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := strings.TrimPrefix(e.Namespace(), "Config.")
		if e.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, e.Tag(), e.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, e.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
