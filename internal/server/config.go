package server

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/bertsdev33/himata-sub000/internal/config"
	"github.com/bertsdev33/himata-sub000/internal/forecast"
	"github.com/bertsdev33/himata-sub000/internal/scope"
	"github.com/bertsdev33/himata-sub000/internal/trailing"
	"github.com/bertsdev33/himata-sub000/pkg/constants"
)

// Options defines runtime parameters for the HTTP server.
type Options struct {
	Address       string
	MaxUploadSize int64
	Version       string
	Metric        trailing.Metric
	Forecast      forecast.Settings
	Scope         scope.Settings
}

// OptionsFromConfig derives server options from a normalized configuration.
func OptionsFromConfig(conf *config.Configuration, version string) (Options, error) {
	if conf == nil {
		return Options{}, fmt.Errorf("configuration cannot be nil")
	}
	size, err := ParseSize(conf.Server.MaxUploadSize)
	if err != nil {
		return Options{}, fmt.Errorf("server.maxUploadSize: %w", err)
	}
	metric, err := conf.TrailingMetric()
	if err != nil {
		return Options{}, err
	}
	address := strings.TrimSpace(conf.Server.Address)
	if address == "" {
		address = constants.DefaultServerAddress
	}
	return Options{
		Address:       address,
		MaxUploadSize: size,
		Version:       version,
		Metric:        metric,
		Forecast:      conf.ForecastSettings(),
		Scope:         conf.ScopeSettings(),
	}, nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("size must be positive: %s", value)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	if n > (1<<63-1)/multiplier {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return n * multiplier, nil
}
