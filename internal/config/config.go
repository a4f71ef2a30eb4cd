// Package config defines the data structures related to configuration and
// includes functions for loading, validating and normalizing it.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bertsdev33/himata-sub000/internal/forecast"
	"github.com/bertsdev33/himata-sub000/internal/refresh"
	"github.com/bertsdev33/himata-sub000/internal/scope"
	"github.com/bertsdev33/himata-sub000/internal/trailing"
	"github.com/bertsdev33/himata-sub000/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for himata.
type Configuration struct {
	Logging  LoggingConfig  `yaml:"logging,omitempty" mapstructure:"logging"`
	Output   OutputConfig   `yaml:"output,omitempty" mapstructure:"output"`
	Trailing TrailingConfig `yaml:"trailing,omitempty" mapstructure:"trailing"`
	Forecast ForecastConfig `yaml:"forecast,omitempty" mapstructure:"forecast"`
	Scope    ScopeConfig    `yaml:"scope,omitempty" mapstructure:"scope"`
	Refresh  RefreshConfig  `yaml:"refresh,omitempty" mapstructure:"refresh"`
	Server   ServerConfig   `yaml:"server,omitempty" mapstructure:"server"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv
}

// TrailingConfig selects the metric compared against its trailing average.
type TrailingConfig struct {
	Metric string `yaml:"metric,omitempty" mapstructure:"metric"` // net, gross
}

// TierConfig holds the confidence tier cut points.
type TierConfig struct {
	HighMinMonths          int     `yaml:"highMinMonths" mapstructure:"highMinMonths"`
	HighMaxRelativeError   float64 `yaml:"highMaxRelativeError" mapstructure:"highMaxRelativeError"`
	MediumMinMonths        int     `yaml:"mediumMinMonths" mapstructure:"mediumMinMonths"`
	MediumMaxRelativeError float64 `yaml:"mediumMaxRelativeError" mapstructure:"mediumMaxRelativeError"`
}

// ForecastConfig tunes the per-listing regression.
type ForecastConfig struct {
	MinTrainingMonths int        `yaml:"minTrainingMonths" mapstructure:"minTrainingMonths"`
	RidgeLambda       float64    `yaml:"ridgeLambda" mapstructure:"ridgeLambda"`
	BandMultiplier    float64    `yaml:"bandMultiplier" mapstructure:"bandMultiplier"`
	Tiers             TierConfig `yaml:"tiers" mapstructure:"tiers"`
}

// ScopeConfig holds the training minimums and fallback switch.
type ScopeConfig struct {
	MinRows         int  `yaml:"minRows" mapstructure:"minRows"`
	MinMonths       int  `yaml:"minMonths" mapstructure:"minMonths"`
	FallbackEnabled bool `yaml:"fallbackEnabled" mapstructure:"fallbackEnabled"`
}

// RefreshConfig tunes the background recompute loop.
type RefreshConfig struct {
	Debounce  time.Duration `yaml:"debounce" mapstructure:"debounce"`
	CacheTTL  time.Duration `yaml:"cacheTTL" mapstructure:"cacheTTL"`
	InboxSize int           `yaml:"inboxSize" mapstructure:"inboxSize"`
}

// ServerConfig defines runtime parameters for the HTTP API.
type ServerConfig struct {
	Address       string `yaml:"address,omitempty" mapstructure:"address"`
	MaxUploadSize string `yaml:"maxUploadSize,omitempty" mapstructure:"maxUploadSize"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Configuration {
	return &Configuration{
		Logging:  LoggingConfig{Level: "info", Format: "json"},
		Output:   OutputConfig{Format: constants.OutputFormatPretty},
		Trailing: TrailingConfig{Metric: constants.MetricNet},
		Forecast: ForecastConfig{
			MinTrainingMonths: constants.DefaultMinTrainingMonths,
			RidgeLambda:       constants.DefaultRidgeLambda,
			BandMultiplier:    constants.DefaultBandMultiplier,
			Tiers: TierConfig{
				HighMinMonths:          constants.DefaultHighTierMinMonths,
				HighMaxRelativeError:   constants.DefaultHighTierMaxRelativeError,
				MediumMinMonths:        constants.DefaultMediumTierMinMonths,
				MediumMaxRelativeError: constants.DefaultMediumTierMaxRelativeError,
			},
		},
		Scope: ScopeConfig{
			MinRows:         constants.DefaultMinTrainingRows,
			MinMonths:       constants.DefaultMinTrainingMonthsInScope,
			FallbackEnabled: true,
		},
		Refresh: RefreshConfig{
			Debounce:  constants.DefaultDebounce,
			CacheTTL:  constants.DefaultCacheTTL,
			InboxSize: constants.DefaultInboxSize,
		},
		Server: ServerConfig{
			Address:       constants.DefaultServerAddress,
			MaxUploadSize: fmt.Sprintf("%d", constants.DefaultMaxUploadSizeBytes),
		},
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.outputFile", d.Logging.OutputFile)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("trailing.metric", d.Trailing.Metric)
	v.SetDefault("forecast.minTrainingMonths", d.Forecast.MinTrainingMonths)
	v.SetDefault("forecast.ridgeLambda", d.Forecast.RidgeLambda)
	v.SetDefault("forecast.bandMultiplier", d.Forecast.BandMultiplier)
	v.SetDefault("forecast.tiers.highMinMonths", d.Forecast.Tiers.HighMinMonths)
	v.SetDefault("forecast.tiers.highMaxRelativeError", d.Forecast.Tiers.HighMaxRelativeError)
	v.SetDefault("forecast.tiers.mediumMinMonths", d.Forecast.Tiers.MediumMinMonths)
	v.SetDefault("forecast.tiers.mediumMaxRelativeError", d.Forecast.Tiers.MediumMaxRelativeError)
	v.SetDefault("scope.minRows", d.Scope.MinRows)
	v.SetDefault("scope.minMonths", d.Scope.MinMonths)
	v.SetDefault("scope.fallbackEnabled", d.Scope.FallbackEnabled)
	v.SetDefault("refresh.debounce", d.Refresh.Debounce)
	v.SetDefault("refresh.cacheTTL", d.Refresh.CacheTTL)
	v.SetDefault("refresh.inboxSize", d.Refresh.InboxSize)
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("server.maxUploadSize", d.Server.MaxUploadSize)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	return &configuration, nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. An empty path yields defaults plus environment
// overrides.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}
	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %w", err)
	}
	return decode(v)
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. Every value warned about is replaced by Normalize.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string
	d := Default()

	if _, err := trailing.ParseMetric(c.Trailing.Metric); err != nil {
		warnings = append(warnings, fmt.Sprintf("trailing.metric: %v, using %s", err, d.Trailing.Metric))
	}
	if c.Forecast.MinTrainingMonths < 1 {
		warnings = append(warnings, fmt.Sprintf("forecast.minTrainingMonths must be at least 1 (got %d), using %d",
			c.Forecast.MinTrainingMonths, d.Forecast.MinTrainingMonths))
	}
	if !(c.Forecast.RidgeLambda > 0) {
		warnings = append(warnings, fmt.Sprintf("forecast.ridgeLambda must be positive (got %v), using %v",
			c.Forecast.RidgeLambda, d.Forecast.RidgeLambda))
	}
	if c.Forecast.BandMultiplier < 0 {
		warnings = append(warnings, fmt.Sprintf("forecast.bandMultiplier cannot be negative (got %v), using %v",
			c.Forecast.BandMultiplier, d.Forecast.BandMultiplier))
	}
	if c.Forecast.BandMultiplier > 3 {
		warnings = append(warnings, fmt.Sprintf("forecast.bandMultiplier of %v produces very wide bands", c.Forecast.BandMultiplier))
	}
	t := c.Forecast.Tiers
	if t.HighMinMonths < t.MediumMinMonths || t.HighMaxRelativeError > t.MediumMaxRelativeError {
		warnings = append(warnings, "forecast.tiers: high tier is looser than medium tier, using default cut points")
	}
	if c.Scope.MinRows < 1 || c.Scope.MinMonths < 1 {
		warnings = append(warnings, fmt.Sprintf("scope minimums must be at least 1 (got rows=%d months=%d), using defaults",
			c.Scope.MinRows, c.Scope.MinMonths))
	}
	if c.Refresh.Debounce < 0 {
		warnings = append(warnings, fmt.Sprintf("refresh.debounce cannot be negative (got %s), using %s",
			c.Refresh.Debounce, d.Refresh.Debounce))
	}
	if c.Refresh.CacheTTL <= 0 {
		warnings = append(warnings, fmt.Sprintf("refresh.cacheTTL must be positive (got %s), using %s",
			c.Refresh.CacheTTL, d.Refresh.CacheTTL))
	}
	if c.Refresh.InboxSize < 1 {
		warnings = append(warnings, fmt.Sprintf("refresh.inboxSize must be at least 1 (got %d), using %d",
			c.Refresh.InboxSize, d.Refresh.InboxSize))
	}

	return warnings
}

// Normalize replaces invalid values with defaults.
func (c *Configuration) Normalize() {
	d := Default()

	if _, err := trailing.ParseMetric(c.Trailing.Metric); err != nil {
		c.Trailing.Metric = d.Trailing.Metric
	}
	if c.Forecast.MinTrainingMonths < 1 {
		c.Forecast.MinTrainingMonths = d.Forecast.MinTrainingMonths
	}
	if !(c.Forecast.RidgeLambda > 0) {
		c.Forecast.RidgeLambda = d.Forecast.RidgeLambda
	}
	if c.Forecast.BandMultiplier < 0 {
		c.Forecast.BandMultiplier = d.Forecast.BandMultiplier
	}
	t := c.Forecast.Tiers
	if t.HighMinMonths < t.MediumMinMonths || t.HighMaxRelativeError > t.MediumMaxRelativeError {
		c.Forecast.Tiers = d.Forecast.Tiers
	}
	if c.Scope.MinRows < 1 || c.Scope.MinMonths < 1 {
		c.Scope.MinRows = d.Scope.MinRows
		c.Scope.MinMonths = d.Scope.MinMonths
	}
	if c.Refresh.Debounce < 0 {
		c.Refresh.Debounce = d.Refresh.Debounce
	}
	if c.Refresh.CacheTTL <= 0 {
		c.Refresh.CacheTTL = d.Refresh.CacheTTL
	}
	if c.Refresh.InboxSize < 1 {
		c.Refresh.InboxSize = d.Refresh.InboxSize
	}
	if c.Output.Format == "" {
		c.Output.Format = d.Output.Format
	}
	if strings.TrimSpace(c.Server.Address) == "" {
		c.Server.Address = d.Server.Address
	}
}

// TrailingMetric returns the configured comparison metric.
func (c *Configuration) TrailingMetric() (trailing.Metric, error) {
	return trailing.ParseMetric(c.Trailing.Metric)
}

// ForecastSettings converts the forecast section for the forecaster.
func (c *Configuration) ForecastSettings() forecast.Settings {
	return forecast.Settings{
		MinTrainingMonths: c.Forecast.MinTrainingMonths,
		RidgeLambda:       c.Forecast.RidgeLambda,
		BandMultiplier:    c.Forecast.BandMultiplier,
		Tiers: forecast.TierThresholds{
			HighMinMonths:          c.Forecast.Tiers.HighMinMonths,
			HighMaxRelativeError:   c.Forecast.Tiers.HighMaxRelativeError,
			MediumMinMonths:        c.Forecast.Tiers.MediumMinMonths,
			MediumMaxRelativeError: c.Forecast.Tiers.MediumMaxRelativeError,
		},
	}
}

// ScopeSettings converts the scope section for the negotiator.
func (c *Configuration) ScopeSettings() scope.Settings {
	return scope.Settings{
		MinRows:         c.Scope.MinRows,
		MinMonths:       c.Scope.MinMonths,
		FallbackEnabled: c.Scope.FallbackEnabled,
	}
}

// WorkerOptions converts the refresh section for the worker.
func (c *Configuration) WorkerOptions() refresh.WorkerOptions {
	return refresh.WorkerOptions{
		InboxSize: c.Refresh.InboxSize,
		CacheTTL:  c.Refresh.CacheTTL,
	}
}
