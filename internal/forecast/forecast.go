// Package forecast trains one ridge regression per listing on its monthly
// gross revenue and predicts the month after its last training month.
package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/bertsdev33/himata-sub000/internal/domain"
	"github.com/bertsdev33/himata-sub000/pkg/constants"
	"github.com/bertsdev33/himata-sub000/pkg/datetime"
	"github.com/bertsdev33/himata-sub000/pkg/mathutil"
	"go.uber.org/zap"
)

// Tier is a coarse confidence label.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// TierThresholds holds the cut points used to classify a forecast.
type TierThresholds struct {
	HighMinMonths          int
	HighMaxRelativeError   float64
	MediumMinMonths        int
	MediumMaxRelativeError float64
}

// Settings configures a Forecaster.
type Settings struct {
	MinTrainingMonths int
	RidgeLambda       float64
	BandMultiplier    float64
	Tiers             TierThresholds
}

// DefaultSettings returns the reference forecaster settings.
func DefaultSettings() Settings {
	return Settings{
		MinTrainingMonths: constants.DefaultMinTrainingMonths,
		RidgeLambda:       constants.DefaultRidgeLambda,
		BandMultiplier:    constants.DefaultBandMultiplier,
		Tiers: TierThresholds{
			HighMinMonths:          constants.DefaultHighTierMinMonths,
			HighMaxRelativeError:   constants.DefaultHighTierMaxRelativeError,
			MediumMinMonths:        constants.DefaultMediumTierMinMonths,
			MediumMaxRelativeError: constants.DefaultMediumTierMaxRelativeError,
		},
	}
}

// ListingForecast is one listing's next-month gross revenue prediction.
type ListingForecast struct {
	ListingID                 string   `json:"listingId" yaml:"listingId"`
	ListingName               string   `json:"listingName,omitempty" yaml:"listingName,omitempty"`
	AccountID                 string   `json:"accountId,omitempty" yaml:"accountId,omitempty"`
	Currency                  string   `json:"currency" yaml:"currency"`
	TargetMonth               string   `json:"targetMonth" yaml:"targetMonth"`
	TrainingMonths            int      `json:"trainingMonths" yaml:"trainingMonths"`
	ForecastGrossRevenueMinor int64    `json:"forecastGrossRevenueMinor" yaml:"forecastGrossRevenueMinor"`
	MAEMinor                  int64    `json:"maeMinor" yaml:"maeMinor"`
	LowerBoundMinor           int64    `json:"lowerBoundMinor" yaml:"lowerBoundMinor"`
	UpperBoundMinor           int64    `json:"upperBoundMinor" yaml:"upperBoundMinor"`
	RelativeError             *float64 `json:"relativeError,omitempty" yaml:"relativeError,omitempty"`
	Tier                      Tier     `json:"tier" yaml:"tier"`
}

// ExclusionReason explains why a listing was not forecast. The concrete
// types are TooFewMonths and ZeroRevenueHistory. Both encode as their
// parameters plus a "code" field holding Code().
type ExclusionReason interface {
	Code() string
	String() string
}

// TooFewMonths marks a listing with fewer distinct training months than required.
type TooFewMonths struct {
	Available int `json:"available" yaml:"available"`
	Required  int `json:"required" yaml:"required"`
}

func (r TooFewMonths) Code() string { return "too_few_months" }

func (r TooFewMonths) String() string {
	return fmt.Sprintf("%s (%d of %d months)", r.Code(), r.Available, r.Required)
}

type tooFewMonths TooFewMonths

func (r TooFewMonths) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code string `json:"code"`
		tooFewMonths
	}{r.Code(), tooFewMonths(r)})
}

func (r TooFewMonths) MarshalYAML() (interface{}, error) {
	return struct {
		Code         string `yaml:"code"`
		tooFewMonths `yaml:",inline"`
	}{r.Code(), tooFewMonths(r)}, nil
}

// ZeroRevenueHistory marks a listing whose every training month grossed zero.
type ZeroRevenueHistory struct {
	Months int `json:"months" yaml:"months"`
}

func (r ZeroRevenueHistory) Code() string { return "zero_revenue_history" }

func (r ZeroRevenueHistory) String() string {
	return fmt.Sprintf("%s (%d months)", r.Code(), r.Months)
}

type zeroRevenueHistory ZeroRevenueHistory

func (r ZeroRevenueHistory) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code string `json:"code"`
		zeroRevenueHistory
	}{r.Code(), zeroRevenueHistory(r)})
}

func (r ZeroRevenueHistory) MarshalYAML() (interface{}, error) {
	return struct {
		Code               string `yaml:"code"`
		zeroRevenueHistory `yaml:",inline"`
	}{r.Code(), zeroRevenueHistory(r)}, nil
}

// ExcludedListing records a listing the forecaster skipped.
type ExcludedListing struct {
	ListingID   string          `json:"listingId" yaml:"listingId"`
	ListingName string          `json:"listingName,omitempty" yaml:"listingName,omitempty"`
	Currency    string          `json:"currency" yaml:"currency"`
	Reason      ExclusionReason `json:"reason" yaml:"reason"`
}

// ForecastResult is the output of one forecaster run.
type ForecastResult struct {
	Listings  []ListingForecast  `json:"listings" yaml:"listings"`
	Excluded  []ExcludedListing  `json:"excluded" yaml:"excluded"`
	// Portfolios holds one roll-up per currency present in Listings.
	Portfolios []PortfolioForecast `json:"portfolios,omitempty" yaml:"portfolios,omitempty"`
}

// Portfolio returns the roll-up for currency, or nil when none was built.
func (r *ForecastResult) Portfolio(currency string) *PortfolioForecast {
	if r == nil {
		return nil
	}
	for i := range r.Portfolios {
		if r.Portfolios[i].Currency == currency {
			return &r.Portfolios[i]
		}
	}
	return nil
}

// Empty reports whether no listing could be forecast.
func (r *ForecastResult) Empty() bool {
	return r == nil || len(r.Listings) == 0
}

// Forecaster fits per-listing models.
type Forecaster struct {
	logger   *zap.Logger
	settings Settings
}

// NewForecaster constructs a Forecaster for the provided settings.
func NewForecaster(logger *zap.Logger, settings Settings) (*Forecaster, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.MinTrainingMonths < 1 {
		return nil, fmt.Errorf("minimum training months must be at least 1, got %d", settings.MinTrainingMonths)
	}
	if !(settings.RidgeLambda > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLambda, settings.RidgeLambda)
	}
	if settings.BandMultiplier < 0 || math.IsNaN(settings.BandMultiplier) {
		return nil, fmt.Errorf("band multiplier cannot be negative, got %v", settings.BandMultiplier)
	}
	return &Forecaster{logger: logger, settings: settings}, nil
}

type series struct {
	listingID   string
	listingName string
	accountID   string
	currency    string
	gross       map[string]int64
}

// Forecast trains on rows, which the caller has already scoped, and returns
// per-listing forecasts, exclusions and the portfolio roll-up.
func (f *Forecaster) Forecast(rows []domain.MonthlyListingPerformance) (*ForecastResult, error) {
	type key struct{ listingID, currency string }
	grouped := make(map[key]*series)
	var keys []key
	for _, r := range rows {
		k := key{r.ListingID, r.Currency}
		s, ok := grouped[k]
		if !ok {
			s = &series{listingID: r.ListingID, listingName: r.ListingName, accountID: r.AccountID, currency: r.Currency, gross: make(map[string]int64)}
			grouped[k] = s
			keys = append(keys, k)
		}
		s.gross[r.Month] += r.GrossRevenueMinor
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].listingID != keys[b].listingID {
			return keys[a].listingID < keys[b].listingID
		}
		return keys[a].currency < keys[b].currency
	})

	result := &ForecastResult{}
	for _, k := range keys {
		s := grouped[k]
		lf, excluded, err := f.forecastListing(s)
		if err != nil {
			return nil, fmt.Errorf("forecasting listing %s: %w", s.listingID, err)
		}
		if excluded != nil {
			f.logger.Debug("listing excluded from forecast",
				zap.String("op", "forecast.Forecast"),
				zap.String("listing", s.listingID),
				zap.String("reason", excluded.Reason.String()),
			)
			result.Excluded = append(result.Excluded, *excluded)
			continue
		}
		result.Listings = append(result.Listings, *lf)
	}

	result.Portfolios = BuildPortfolios(result.Listings)
	f.logger.Debug("forecast complete",
		zap.String("op", "forecast.Forecast"),
		zap.Int("listings", len(result.Listings)),
		zap.Int("excluded", len(result.Excluded)),
	)
	return result, nil
}

func (f *Forecaster) forecastListing(s *series) (*ListingForecast, *ExcludedListing, error) {
	months := make([]string, 0, len(s.gross))
	allZero := true
	for m, v := range s.gross {
		months = append(months, m)
		if v != 0 {
			allZero = false
		}
	}
	sort.Strings(months)

	exclude := func(reason ExclusionReason) *ExcludedListing {
		return &ExcludedListing{ListingID: s.listingID, ListingName: s.listingName, Currency: s.currency, Reason: reason}
	}
	if len(months) < f.settings.MinTrainingMonths {
		return nil, exclude(TooFewMonths{Available: len(months), Required: f.settings.MinTrainingMonths}), nil
	}
	if allZero {
		return nil, exclude(ZeroRevenueHistory{Months: len(months)}), nil
	}

	x := make([][]float64, len(months))
	y := make([]float64, len(months))
	var lastT int
	for i, m := range months {
		t, err := datetime.MonthsBetween(months[0], m)
		if err != nil {
			return nil, nil, err
		}
		start, err := datetime.MonthStart(m)
		if err != nil {
			return nil, nil, err
		}
		x[i] = features(t, int(start.Month()))
		y[i] = float64(s.gross[m])
		lastT = t
	}

	model, err := FitRidge(x, y, f.settings.RidgeLambda)
	if err != nil {
		return nil, nil, err
	}

	var absErr float64
	for i := range x {
		absErr += math.Abs(y[i] - model.Predict(x[i]))
	}
	mae := mathutil.RoundToInt64(absErr / float64(len(x)))

	target, err := datetime.NextMonth(months[len(months)-1])
	if err != nil {
		return nil, nil, err
	}
	targetStart, err := datetime.MonthStart(target)
	if err != nil {
		return nil, nil, err
	}
	prediction := model.Predict(features(lastT+1, int(targetStart.Month())))
	if math.IsNaN(prediction) || math.IsInf(prediction, 0) {
		return nil, nil, fmt.Errorf("degenerate prediction %v", prediction)
	}
	point := mathutil.MaxInt64(mathutil.RoundToInt64(prediction), 0)
	spread := mathutil.RoundToInt64(f.settings.BandMultiplier * float64(mae))

	lf := &ListingForecast{
		ListingID:                 s.listingID,
		ListingName:               s.listingName,
		AccountID:                 s.accountID,
		Currency:                  s.currency,
		TargetMonth:               target,
		TrainingMonths:            len(months),
		ForecastGrossRevenueMinor: point,
		MAEMinor:                  mae,
		LowerBoundMinor:           mathutil.MaxInt64(point-spread, 0),
		UpperBoundMinor:           point + spread,
	}
	if point > 0 {
		rel := float64(mae) / float64(point)
		lf.RelativeError = &rel
	}
	lf.Tier = f.classify(lf.TrainingMonths, lf.RelativeError)
	return lf, nil, nil
}

// classify picks the highest tier whose month and relative error limits are met.
// A forecast of zero has no relative error and is always low.
func (f *Forecaster) classify(months int, relativeError *float64) Tier {
	if relativeError == nil {
		return TierLow
	}
	t := f.settings.Tiers
	switch {
	case months >= t.HighMinMonths && *relativeError <= t.HighMaxRelativeError:
		return TierHigh
	case months >= t.MediumMinMonths && *relativeError <= t.MediumMaxRelativeError:
		return TierMedium
	default:
		return TierLow
	}
}
