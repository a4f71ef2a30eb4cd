package forecast

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/bertsdev33/himata-sub000/internal/domain"
	"github.com/bertsdev33/himata-sub000/pkg/mathutil"
	"github.com/bertsdev33/himata-sub000/pkg/testutil"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func repeat(value int64, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func newTestForecaster(t *testing.T, settings Settings) *Forecaster {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	f, err := NewForecaster(logger, settings)
	if err != nil {
		t.Fatalf("NewForecaster() error = %v", err)
	}
	return f
}

func TestNewForecasterValidation(t *testing.T) {
	settings := DefaultSettings()
	settings.RidgeLambda = 0
	if _, err := NewForecaster(nil, settings); !errors.Is(err, ErrInvalidLambda) {
		t.Errorf("expected ErrInvalidLambda, got %v", err)
	}

	settings = DefaultSettings()
	settings.MinTrainingMonths = 0
	if _, err := NewForecaster(nil, settings); err == nil {
		t.Error("expected error for zero minimum training months")
	}

	settings = DefaultSettings()
	settings.BandMultiplier = -1
	if _, err := NewForecaster(nil, settings); err == nil {
		t.Error("expected error for negative band multiplier")
	}
}

func TestForecastConstantSeriesTiers(t *testing.T) {
	tests := []struct {
		name   string
		months int
		target string
		tier   Tier
	}{
		{name: "twelve months", months: 12, target: "2025-01", tier: TierHigh},
		{name: "six months", months: 6, target: "2024-07", tier: TierMedium},
		{name: "three months", months: 3, target: "2024-04", tier: TierLow},
	}

	f := newTestForecaster(t, DefaultSettings())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := testutil.MonthlyRows("L1", "A1", "USD", "2024-01", repeat(10000, tt.months)...)
			result, err := f.Forecast(rows)
			if err != nil {
				t.Fatalf("Forecast() error = %v", err)
			}
			if len(result.Listings) != 1 {
				t.Fatalf("expected one forecast, got %d", len(result.Listings))
			}
			lf := result.Listings[0]
			if lf.ForecastGrossRevenueMinor != 10000 || lf.MAEMinor != 0 {
				t.Errorf("expected flat 10000 with zero MAE, got %d/%d", lf.ForecastGrossRevenueMinor, lf.MAEMinor)
			}
			if lf.LowerBoundMinor != 10000 || lf.UpperBoundMinor != 10000 {
				t.Errorf("expected collapsed band, got [%d, %d]", lf.LowerBoundMinor, lf.UpperBoundMinor)
			}
			if lf.TargetMonth != tt.target {
				t.Errorf("target month = %s, expected %s", lf.TargetMonth, tt.target)
			}
			if lf.Tier != tt.tier {
				t.Errorf("tier = %s, expected %s", lf.Tier, tt.tier)
			}
		})
	}
}

func TestForecastFollowsTrend(t *testing.T) {
	settings := DefaultSettings()
	settings.RidgeLambda = 1e-6

	var gross []int64
	for i := int64(0); i < 24; i++ {
		gross = append(gross, 5000+1000*i)
	}
	f := newTestForecaster(t, settings)
	result, err := f.Forecast(testutil.MonthlyRows("L1", "A1", "USD", "2023-01", gross...))
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}

	lf := result.Listings[0]
	if mathutil.AbsInt64(lf.ForecastGrossRevenueMinor-29000) > 1 {
		t.Errorf("forecast = %d, expected about 29000", lf.ForecastGrossRevenueMinor)
	}
	if lf.TargetMonth != "2025-01" {
		t.Errorf("target month = %s", lf.TargetMonth)
	}
}

func TestForecastClampsNegativePrediction(t *testing.T) {
	settings := DefaultSettings()
	settings.RidgeLambda = 1e-6
	f := newTestForecaster(t, settings)

	rows := testutil.MonthlyRows("L1", "A1", "USD", "2024-01", 10000, 8000, 6000, 4000, 2000, 0)
	result, err := f.Forecast(rows)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}

	lf := result.Listings[0]
	if lf.ForecastGrossRevenueMinor != 0 || lf.LowerBoundMinor != 0 {
		t.Errorf("expected clamped forecast, got %+v", lf)
	}
	if lf.RelativeError != nil || lf.Tier != TierLow {
		t.Errorf("zero forecast must be low tier without relative error, got %+v", lf)
	}
}

func TestForecastBand(t *testing.T) {
	f := newTestForecaster(t, DefaultSettings())
	rows := testutil.MonthlyRows("L1", "A1", "USD", "2024-01", 12000, 9000, 15000, 7000, 14000, 11000, 10000, 16000)
	result, err := f.Forecast(rows)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}

	lf := result.Listings[0]
	if lf.MAEMinor <= 0 {
		t.Fatalf("expected positive MAE for a noisy series, got %d", lf.MAEMinor)
	}
	spread := mathutil.RoundToInt64(DefaultSettings().BandMultiplier * float64(lf.MAEMinor))
	if lf.UpperBoundMinor != lf.ForecastGrossRevenueMinor+spread {
		t.Errorf("upper bound = %d, expected %d", lf.UpperBoundMinor, lf.ForecastGrossRevenueMinor+spread)
	}
	if lf.LowerBoundMinor != mathutil.MaxInt64(lf.ForecastGrossRevenueMinor-spread, 0) {
		t.Errorf("lower bound = %d", lf.LowerBoundMinor)
	}
	if lf.RelativeError == nil || math.Abs(*lf.RelativeError-float64(lf.MAEMinor)/float64(lf.ForecastGrossRevenueMinor)) > 1e-12 {
		t.Errorf("unexpected relative error %v", lf.RelativeError)
	}
}

func TestForecastHonorsMonthGaps(t *testing.T) {
	rows := []domain.MonthlyListingPerformance{
		{ListingID: "L1", Month: "2024-01", Currency: "USD", GrossRevenueMinor: 1000},
		{ListingID: "L1", Month: "2024-03", Currency: "USD", GrossRevenueMinor: 3000},
		{ListingID: "L1", Month: "2024-05", Currency: "USD", GrossRevenueMinor: 5000},
	}
	f := newTestForecaster(t, DefaultSettings())
	result, err := f.Forecast(rows)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	lf := result.Listings[0]
	if lf.TrainingMonths != 3 || lf.TargetMonth != "2024-06" {
		t.Errorf("expected 3 training months targeting 2024-06, got %+v", lf)
	}
}

func TestForecastExclusions(t *testing.T) {
	var rows []domain.MonthlyListingPerformance
	rows = append(rows, testutil.MonthlyRows("L1", "A1", "USD", "2024-01", 100, 200)...)
	rows = append(rows, testutil.MonthlyRows("L2", "A1", "USD", "2024-01", 0, 0, 0, 0)...)
	rows = append(rows, testutil.MonthlyRows("L3", "A1", "USD", "2024-01", 100, 200, 300)...)

	f := newTestForecaster(t, DefaultSettings())
	result, err := f.Forecast(rows)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if len(result.Listings) != 1 || result.Listings[0].ListingID != "L3" {
		t.Fatalf("expected only L3 forecast, got %+v", result.Listings)
	}
	if len(result.Excluded) != 2 {
		t.Fatalf("expected two exclusions, got %+v", result.Excluded)
	}

	few, ok := result.Excluded[0].Reason.(TooFewMonths)
	if !ok || result.Excluded[0].ListingID != "L1" {
		t.Fatalf("expected L1 too few months, got %+v", result.Excluded[0])
	}
	if few.Available != 2 || few.Required != 3 || few.Code() != "too_few_months" {
		t.Errorf("unexpected reason %+v", few)
	}

	zero, ok := result.Excluded[1].Reason.(ZeroRevenueHistory)
	if !ok || zero.Months != 4 {
		t.Errorf("expected L2 zero revenue history over 4 months, got %+v", result.Excluded[1])
	}
}

func TestForecastEmptyInput(t *testing.T) {
	f := newTestForecaster(t, DefaultSettings())
	result, err := f.Forecast(nil)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if !result.Empty() || result.Portfolios != nil {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestForecastIsDeterministic(t *testing.T) {
	var rows []domain.MonthlyListingPerformance
	rows = append(rows, testutil.MonthlyRows("B", "A1", "USD", "2024-01", 500, 900, 700, 1200)...)
	rows = append(rows, testutil.MonthlyRows("A", "A1", "USD", "2024-01", 300, 100, 400, 200)...)

	f := newTestForecaster(t, DefaultSettings())
	first, err := f.Forecast(rows)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	for i := len(rows)/2 - 1; i >= 0; i-- {
		j := len(rows) - 1 - i
		rows[i], rows[j] = rows[j], rows[i]
	}
	second, err := f.Forecast(rows)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}

	if first.Listings[0].ListingID != "A" || second.Listings[0].ListingID != "A" {
		t.Fatalf("listings must be ordered by id")
	}
	for i := range first.Listings {
		if first.Listings[i].ForecastGrossRevenueMinor != second.Listings[i].ForecastGrossRevenueMinor {
			t.Errorf("forecast for %s changed with input order", first.Listings[i].ListingID)
		}
	}
}

func TestExcludedListingEncodesReasonCode(t *testing.T) {
	excluded := []ExcludedListing{
		{ListingID: "L1", Currency: "USD", Reason: TooFewMonths{Available: 1, Required: 3}},
		{ListingID: "L2", Currency: "USD", Reason: ZeroRevenueHistory{Months: 4}},
	}

	data, err := json.Marshal(excluded)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	expected := `[{"listingId":"L1","currency":"USD","reason":{"code":"too_few_months","available":1,"required":3}},` +
		`{"listingId":"L2","currency":"USD","reason":{"code":"zero_revenue_history","months":4}}]`
	if string(data) != expected {
		t.Errorf("json = %s, expected %s", data, expected)
	}

	out, err := yaml.Marshal(excluded)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	var decoded []struct {
		ListingID string                 `yaml:"listingId"`
		Reason    map[string]interface{} `yaml:"reason"`
	}
	if err := yaml.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected two entries, got %s", out)
	}
	if decoded[0].Reason["code"] != "too_few_months" || decoded[0].Reason["available"] != 1 || decoded[0].Reason["required"] != 3 {
		t.Errorf("unexpected yaml reason %v", decoded[0].Reason)
	}
	if decoded[1].Reason["code"] != "zero_revenue_history" || decoded[1].Reason["months"] != 4 {
		t.Errorf("unexpected yaml reason %v", decoded[1].Reason)
	}
}
