package trailing

import (
	"math"
	"testing"

	"github.com/bertsdev33/himata-sub000/internal/domain"
	"github.com/bertsdev33/himata-sub000/internal/performance"
	"github.com/bertsdev33/himata-sub000/pkg/testutil"
)

func TestCompareListings(t *testing.T) {
	rows := testutil.MonthlyRows("L1", "A1", "USD", "2024-01", 10000, 20000, 30000, 40000)
	rows = append(rows, testutil.MonthlyRows("L2", "A1", "USD", "2024-04", 50000)...)

	comparisons := CompareListings(rows, MetricGross)
	if len(comparisons) != 1 {
		t.Fatalf("expected a single comparison, got %d: %+v", len(comparisons), comparisons)
	}

	c := comparisons[0]
	if c.ListingID != "L1" || c.Month != "2024-04" {
		t.Errorf("unexpected comparison target %s %s", c.ListingID, c.Month)
	}
	if c.CurrentMinor != 40000 || c.TrailingAverageMinor != 20000 || c.DeltaMinor != 20000 || c.PriorMonths != 3 {
		t.Errorf("unexpected comparison %+v", c)
	}
	if c.DeltaPercent == nil || math.Abs(*c.DeltaPercent-1.0) > 1e-9 {
		t.Errorf("expected +100%% delta, got %v", c.DeltaPercent)
	}
	if c.Label != "Gross revenue" || c.Metric != "gross" {
		t.Errorf("unexpected label %q metric %q", c.Label, c.Metric)
	}
}

func TestCompareListingsNeedsHistory(t *testing.T) {
	rows := testutil.MonthlyRows("L1", "A1", "USD", "2024-01", 10000)
	if got := CompareListings(rows, MetricNet); len(got) != 0 {
		t.Errorf("expected no comparison for a single month, got %+v", got)
	}
}

func TestCompareListingsZeroTrailingAverage(t *testing.T) {
	rows := testutil.MonthlyRows("L1", "A1", "USD", "2024-01", 0, 0, 15000)

	comparisons := CompareListings(rows, MetricGross)
	if len(comparisons) != 1 {
		t.Fatalf("expected one comparison, got %d", len(comparisons))
	}
	c := comparisons[0]
	if c.TrailingAverageMinor != 0 || c.DeltaMinor != 15000 {
		t.Errorf("unexpected comparison %+v", c)
	}
	if c.DeltaPercent != nil {
		t.Errorf("expected nil percentage for zero trailing average, got %v", *c.DeltaPercent)
	}
}

func TestCompareListingsUsesNetByDefault(t *testing.T) {
	metric, err := ParseMetric("")
	if err != nil {
		t.Fatalf("ParseMetric() error = %v", err)
	}
	rows := testutil.MonthlyRows("L1", "A1", "USD", "2024-01", 10000, 20000)

	c := CompareListings(rows, metric)[0]
	if c.CurrentMinor != 18000 || c.TrailingAverageMinor != 9000 {
		t.Errorf("expected net values, got %+v", c)
	}
	if c.Label != "Net revenue" {
		t.Errorf("unexpected label %q", c.Label)
	}

	if _, err := ParseMetric("occupancy"); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestCompareListingsSeparatesCurrencies(t *testing.T) {
	rows := testutil.MonthlyRows("L1", "A1", "USD", "2024-01", 100, 200)
	rows = append(rows, testutil.MonthlyRows("L1", "A1", "EUR", "2024-03", 500)...)

	comparisons := CompareListings(rows, MetricGross)
	if len(comparisons) != 1 || comparisons[0].Currency != "USD" {
		t.Errorf("expected only the USD series to compare, got %+v", comparisons)
	}
}

func TestComparePortfolio(t *testing.T) {
	rows := testutil.MonthlyRows("L1", "A1", "USD", "2024-01", 10000, 10000, 10000)
	rows = append(rows, testutil.MonthlyRows("L2", "A1", "USD", "2024-02", 5000, 5000)...)
	portfolio := performance.BuildPortfolio(rows)

	comparisons := ComparePortfolio(portfolio, MetricGross)
	if len(comparisons) != 1 {
		t.Fatalf("expected one portfolio comparison, got %d", len(comparisons))
	}
	c := comparisons[0]
	// January 10000, February 15000 -> trailing mean 12500 against March 15000.
	if c.CurrentMinor != 15000 || c.TrailingAverageMinor != 12500 || c.DeltaMinor != 2500 {
		t.Errorf("unexpected portfolio comparison %+v", c)
	}
	if c.ListingID != "" {
		t.Errorf("portfolio comparison should not carry a listing, got %q", c.ListingID)
	}
}

func TestTrailingAverageRoundsHalfAwayFromZero(t *testing.T) {
	rows := []domain.MonthlyListingPerformance{
		{ListingID: "L1", Month: "2024-01", Currency: "USD", GrossRevenueMinor: 1},
		{ListingID: "L1", Month: "2024-02", Currency: "USD", GrossRevenueMinor: 2},
		{ListingID: "L1", Month: "2024-03", Currency: "USD", GrossRevenueMinor: 0},
	}
	c := CompareListings(rows, MetricGross)[0]
	if c.TrailingAverageMinor != 2 {
		t.Errorf("expected 1.5 to round to 2, got %d", c.TrailingAverageMinor)
	}
}
