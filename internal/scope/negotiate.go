package scope

import (
	"fmt"
	"time"

	"github.com/bertsdev33/himata-sub000/internal/domain"
	"github.com/bertsdev33/himata-sub000/internal/forecast"
	"github.com/bertsdev33/himata-sub000/pkg/constants"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FallbackReason explains why a snapshot deviates from the desired scope or
// carries no result.
type FallbackReason string

const (
	ReasonNone                          FallbackReason = ""
	ReasonInsufficientDataInDateRange   FallbackReason = "insufficient_data_in_date_range"
	ReasonInsufficientTrainingData      FallbackReason = "insufficient_training_data"
	ReasonInsufficientPerListingHistory FallbackReason = "insufficient_per_listing_history"
)

// Settings holds the minimum training data a scope must select.
type Settings struct {
	MinRows         int
	MinMonths       int
	FallbackEnabled bool
}

// DefaultSettings returns the reference negotiation settings.
func DefaultSettings() Settings {
	return Settings{
		MinRows:         constants.DefaultMinTrainingRows,
		MinMonths:       constants.DefaultMinTrainingMonthsInScope,
		FallbackEnabled: true,
	}
}

// TrainingStats describes the rows an effective scope selected.
type TrainingStats struct {
	Rows     int `json:"rows" yaml:"rows"`
	Months   int `json:"months" yaml:"months"`
	Listings int `json:"listings" yaml:"listings"`
}

// Snapshot is the immutable outcome of one negotiation.
type Snapshot struct {
	ID             uuid.UUID                `json:"id" yaml:"id"`
	Desired        TrainingScope            `json:"desired" yaml:"desired"`
	Effective      TrainingScope            `json:"effective" yaml:"effective"`
	UsedFallback   bool                     `json:"usedFallback" yaml:"usedFallback"`
	FallbackReason FallbackReason           `json:"fallbackReason,omitempty" yaml:"fallbackReason,omitempty"`
	ComputedAt     time.Time                `json:"computedAt" yaml:"computedAt"`
	Training       TrainingStats            `json:"training" yaml:"training"`
	Result         *forecast.ForecastResult `json:"result,omitempty" yaml:"result,omitempty"`
}

// Negotiator trains forecasts on the desired scope, widening it to full
// history when the date range selects too little data.
type Negotiator struct {
	logger     *zap.Logger
	settings   Settings
	forecaster *forecast.Forecaster
	now        func() time.Time
}

// NewNegotiator constructs a Negotiator.
func NewNegotiator(logger *zap.Logger, settings Settings, forecaster *forecast.Forecaster) (*Negotiator, error) {
	if forecaster == nil {
		return nil, fmt.Errorf("forecaster cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.MinRows < 0 || settings.MinMonths < 0 {
		return nil, fmt.Errorf("training minimums cannot be negative")
	}
	return &Negotiator{logger: logger, settings: settings, forecaster: forecaster, now: time.Now}, nil
}

// WithClock replaces the snapshot timestamp source.
func (n *Negotiator) WithClock(now func() time.Time) *Negotiator {
	n.now = now
	return n
}

// Negotiate picks the effective scope for desired and trains on it.
// Insufficient data is reported through the snapshot's FallbackReason with
// a nil Result; only model failures are returned as errors.
func (n *Negotiator) Negotiate(rows []domain.MonthlyListingPerformance, desired TrainingScope) (Snapshot, error) {
	desired = desired.Normalize()
	snap := Snapshot{
		ID:        uuid.New(),
		Desired:   desired,
		Effective: desired,
	}

	scoped := desired.Filter(rows)
	snap.Training = statsFor(scoped)

	if !n.sufficient(snap.Training) {
		if !desired.HasDateRange() || !n.settings.FallbackEnabled {
			return n.finish(snap, ReasonInsufficientTrainingData), nil
		}

		snap.Effective = desired.WithoutDateRange()
		snap.UsedFallback = true
		scoped = snap.Effective.Filter(rows)
		snap.Training = statsFor(scoped)
		if !n.sufficient(snap.Training) {
			return n.finish(snap, ReasonInsufficientTrainingData), nil
		}
		snap.FallbackReason = ReasonInsufficientDataInDateRange
	}

	result, err := n.forecaster.Forecast(scoped)
	if err != nil {
		return Snapshot{}, fmt.Errorf("forecast for scope %s: %w", snap.Effective.Key(), err)
	}
	if result.Empty() {
		return n.finish(snap, ReasonInsufficientPerListingHistory), nil
	}

	snap.Result = result
	return n.finish(snap, snap.FallbackReason), nil
}

func (n *Negotiator) finish(snap Snapshot, reason FallbackReason) Snapshot {
	snap.FallbackReason = reason
	snap.ComputedAt = n.now()
	n.logger.Debug("scope negotiated",
		zap.String("op", "scope.Negotiate"),
		zap.String("desired", snap.Desired.Key()),
		zap.String("effective", snap.Effective.Key()),
		zap.Bool("usedFallback", snap.UsedFallback),
		zap.String("fallbackReason", string(reason)),
		zap.Int("rows", snap.Training.Rows),
		zap.Int("months", snap.Training.Months),
	)
	return snap
}

func (n *Negotiator) sufficient(stats TrainingStats) bool {
	return stats.Rows >= n.settings.MinRows && stats.Months >= n.settings.MinMonths
}

func statsFor(rows []domain.MonthlyListingPerformance) TrainingStats {
	months := make(map[string]struct{})
	listings := make(map[string]struct{})
	for _, r := range rows {
		months[r.Month] = struct{}{}
		listings[r.ListingID] = struct{}{}
	}
	return TrainingStats{Rows: len(rows), Months: len(months), Listings: len(listings)}
}
