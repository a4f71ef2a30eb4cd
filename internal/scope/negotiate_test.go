package scope

import (
	"testing"
	"time"

	"github.com/bertsdev33/himata-sub000/internal/domain"
	"github.com/bertsdev33/himata-sub000/internal/forecast"
	"github.com/bertsdev33/himata-sub000/pkg/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func newTestNegotiator(t *testing.T, settings Settings) *Negotiator {
	t.Helper()
	f, err := forecast.NewForecaster(nil, forecast.DefaultSettings())
	require.NoError(t, err)
	n, err := NewNegotiator(nil, settings, f)
	require.NoError(t, err)
	return n.WithClock(func() time.Time { return fixedNow })
}

func TestNegotiateDesiredScope(t *testing.T) {
	rows := testutil.MonthlyRows("L1", "A1", "USD", "2024-01", 1000, 1100, 1200, 1300)
	n := newTestNegotiator(t, DefaultSettings())

	snap, err := n.Negotiate(rows, TrainingScope{Currency: "usd"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, snap.ID)
	assert.False(t, snap.UsedFallback)
	assert.Equal(t, ReasonNone, snap.FallbackReason)
	assert.True(t, snap.Desired.Equal(snap.Effective))
	assert.Equal(t, TrainingStats{Rows: 4, Months: 4, Listings: 1}, snap.Training)
	assert.Equal(t, fixedNow, snap.ComputedAt)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "2024-05", snap.Result.Listings[0].TargetMonth)
}

func TestNegotiateFallsBackToFullHistory(t *testing.T) {
	rows := testutil.MonthlyRows("L1", "A1", "USD", "2024-01", 1000, 1100, 1200, 1300, 1400)
	n := newTestNegotiator(t, DefaultSettings())

	desired := TrainingScope{Currency: "USD", StartMonth: Month("2024-05"), EndMonth: Month("2024-05")}
	snap, err := n.Negotiate(rows, desired)
	require.NoError(t, err)

	assert.True(t, snap.UsedFallback)
	assert.Equal(t, ReasonInsufficientDataInDateRange, snap.FallbackReason)
	assert.Nil(t, snap.Effective.StartMonth)
	assert.Nil(t, snap.Effective.EndMonth)
	assert.Equal(t, "2024-05", *snap.Desired.StartMonth)
	assert.Equal(t, 5, snap.Training.Months)
	require.NotNil(t, snap.Result)
	require.NotNil(t, snap.Result.Portfolio("USD"))
	assert.Equal(t, "2024-06", snap.Result.Portfolio("USD").TargetMonth)
}

func TestNegotiateAllCurrenciesKeepsPortfoliosApart(t *testing.T) {
	var rows []domain.MonthlyListingPerformance
	rows = append(rows, testutil.MonthlyRows("A", "A1", "USD", "2024-01", 10000, 10000, 10000)...)
	rows = append(rows, testutil.MonthlyRows("B", "A1", "JPY", "2024-01", 5000000, 5000000, 5000000)...)
	n := newTestNegotiator(t, DefaultSettings())

	snap, err := n.Negotiate(rows, TrainingScope{})
	require.NoError(t, err)
	require.NotNil(t, snap.Result)
	require.Len(t, snap.Result.Listings, 2)
	require.Len(t, snap.Result.Portfolios, 2)

	jpy := snap.Result.Portfolios[0]
	assert.Equal(t, "JPY", jpy.Currency)
	assert.Equal(t, []string{"B"}, jpy.ListingIDs)
	assert.Equal(t, int64(5000000), jpy.ForecastGrossRevenueMinor)

	usd := snap.Result.Portfolios[1]
	assert.Equal(t, "USD", usd.Currency)
	assert.Equal(t, []string{"A"}, usd.ListingIDs)
	assert.Equal(t, int64(10000), usd.ForecastGrossRevenueMinor)
}

func TestNegotiateInsufficientData(t *testing.T) {
	rows := testutil.MonthlyRows("L1", "A1", "USD", "2024-01", 1000, 1100)

	tests := []struct {
		name         string
		settings     Settings
		desired      TrainingScope
		usedFallback bool
	}{
		{
			name:     "no date range to drop",
			settings: DefaultSettings(),
			desired:  TrainingScope{Currency: "USD"},
		},
		{
			name:         "full history still too short",
			settings:     DefaultSettings(),
			desired:      TrainingScope{Currency: "USD", StartMonth: Month("2024-02")},
			usedFallback: true,
		},
		{
			name:     "fallback disabled",
			settings: Settings{MinRows: 3, MinMonths: 3, FallbackEnabled: false},
			desired:  TrainingScope{Currency: "USD", StartMonth: Month("2024-02")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := newTestNegotiator(t, tt.settings).Negotiate(rows, tt.desired)
			require.NoError(t, err)
			assert.Equal(t, ReasonInsufficientTrainingData, snap.FallbackReason)
			assert.Equal(t, tt.usedFallback, snap.UsedFallback)
			assert.Nil(t, snap.Result)
		})
	}
}

func TestNegotiateInsufficientPerListingHistory(t *testing.T) {
	// Enough rows and months overall, but no single listing has three months.
	var rows []domain.MonthlyListingPerformance
	rows = append(rows, testutil.MonthlyRows("L1", "A1", "USD", "2024-01", 1000, 1100)...)
	rows = append(rows, testutil.MonthlyRows("L2", "A1", "USD", "2024-03", 900, 950)...)

	snap, err := newTestNegotiator(t, DefaultSettings()).Negotiate(rows, TrainingScope{Currency: "USD"})
	require.NoError(t, err)

	assert.Equal(t, ReasonInsufficientPerListingHistory, snap.FallbackReason)
	assert.Nil(t, snap.Result)
	assert.Equal(t, 4, snap.Training.Months)
}

func TestNewNegotiatorValidation(t *testing.T) {
	_, err := NewNegotiator(nil, DefaultSettings(), nil)
	assert.Error(t, err)

	f, err := forecast.NewForecaster(nil, forecast.DefaultSettings())
	require.NoError(t, err)
	_, err = NewNegotiator(nil, Settings{MinRows: -1}, f)
	assert.Error(t, err)
}
