// Package constants provides shared constants for the himata engine.
package constants

import "time"

// DateTimeLayout is the YearMonth key format used for every monthly record.
const DateTimeLayout = "2006-01"

// DateLayout is the calendar date format used for transaction dates.
const DateLayout = "2006-01-02"

// Forecast defaults
const (
	// DefaultMinTrainingMonths is the minimum number of distinct months a
	// listing needs before a model is fitted for it.
	DefaultMinTrainingMonths = 3

	// DefaultRidgeLambda is the L2 penalty applied to the centered
	// regression coefficients.
	DefaultRidgeLambda = 1.0

	// DefaultBandMultiplier is k in forecast ± k·MAE.
	DefaultBandMultiplier = 1.25

	// Confidence tier cut points.
	DefaultHighTierMinMonths          = 12
	DefaultHighTierMaxRelativeError   = 0.15
	DefaultMediumTierMinMonths        = 6
	DefaultMediumTierMaxRelativeError = 0.35

	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12
)

// Scope negotiation defaults
const (
	// DefaultMinTrainingRows is the minimum number of performance rows in a scope.
	DefaultMinTrainingRows = 3

	// DefaultMinTrainingMonthsInScope is the minimum number of distinct months in a scope.
	DefaultMinTrainingMonthsInScope = 3
)

// Refresh defaults
const (
	// DefaultDebounce is how long the coordinator waits after the last scope
	// change before asking the worker to recompute.
	DefaultDebounce = 400 * time.Millisecond

	// DefaultCacheTTL bounds how long computed snapshots are reused.
	DefaultCacheTTL = 10 * time.Minute

	// DefaultInboxSize is the worker mailbox buffer.
	DefaultInboxSize = 64
)

// Trailing comparison metrics
const (
	// MetricNet compares net revenue.
	MetricNet = "net"

	// MetricGross compares gross revenue.
	MetricGross = "gross"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatYAML exports the forecast snapshot as YAML
	OutputFormatYAML = "yaml"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultInputFile is the default transactions fixture file name
	DefaultInputFile = "transactions.yaml"

	// EnvPrefix prefixes environment overrides, e.g. HIMATA_FORECAST_RIDGELAMBDA.
	EnvPrefix = "HIMATA"
)

// Server constants
const (
	// DefaultServerAddress is the listen address for the HTTP API.
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes caps transaction uploads.
	DefaultMaxUploadSizeBytes = 10 * 1024 * 1024
)

// Validation constants
const (
	// FloatTolerance is the tolerance for float comparisons in model code.
	FloatTolerance = 1e-9

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)
