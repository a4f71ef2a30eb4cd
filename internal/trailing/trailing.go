// Package trailing compares each listing's latest month against the average
// of its earlier months.
package trailing

import (
	"fmt"
	"sort"

	"github.com/bertsdev33/himata-sub000/internal/domain"
	"github.com/bertsdev33/himata-sub000/pkg/constants"
	"github.com/bertsdev33/himata-sub000/pkg/mathutil"
)

// Metric selects which revenue figure is compared.
type Metric string

const (
	MetricNet   Metric = constants.MetricNet
	MetricGross Metric = constants.MetricGross
)

// ParseMetric validates a configured metric name.
func ParseMetric(name string) (Metric, error) {
	switch Metric(name) {
	case MetricNet, MetricGross:
		return Metric(name), nil
	case "":
		return MetricNet, nil
	}
	return "", fmt.Errorf("unknown trailing metric %q, expected %s or %s", name, MetricNet, MetricGross)
}

// Label is the human name of the metric.
func (m Metric) Label() string {
	if m == MetricGross {
		return "Gross revenue"
	}
	return "Net revenue"
}

type point struct {
	month string
	value int64
}

type series struct {
	listingID   string
	listingName string
	currency    string
	byMonth     map[string]int64
}

// CompareListings produces at most one comparison per (listing, currency):
// the latest month against the mean of every strictly earlier observed
// month. Listings with a single month produce nothing. When the trailing
// average is zero the absolute delta is still reported and DeltaPercent is
// nil.
func CompareListings(rows []domain.MonthlyListingPerformance, metric Metric) []domain.TrailingComparison {
	type key struct{ listingID, currency string }
	index := make(map[key]*series)
	var order []key
	for _, r := range rows {
		k := key{r.ListingID, r.Currency}
		s, ok := index[k]
		if !ok {
			s = &series{listingID: r.ListingID, listingName: r.ListingName, currency: r.Currency, byMonth: make(map[string]int64)}
			index[k] = s
			order = append(order, k)
		}
		s.byMonth[r.Month] += value(metric, r.NetRevenueMinor, r.GrossRevenueMinor)
	}

	var out []domain.TrailingComparison
	for _, k := range order {
		if c, ok := compare(index[k], metric); ok {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Currency != out[b].Currency {
			return out[a].Currency < out[b].Currency
		}
		return out[a].ListingID < out[b].ListingID
	})
	return out
}

// ComparePortfolio does the same per currency over portfolio rows.
func ComparePortfolio(rows []domain.MonthlyPortfolioPerformance, metric Metric) []domain.TrailingComparison {
	index := make(map[string]*series)
	var order []string
	for _, r := range rows {
		s, ok := index[r.Currency]
		if !ok {
			s = &series{currency: r.Currency, byMonth: make(map[string]int64)}
			index[r.Currency] = s
			order = append(order, r.Currency)
		}
		s.byMonth[r.Month] += value(metric, r.NetRevenueMinor, r.GrossRevenueMinor)
	}

	sort.Strings(order)
	var out []domain.TrailingComparison
	for _, currency := range order {
		if c, ok := compare(index[currency], metric); ok {
			out = append(out, c)
		}
	}
	return out
}

func value(metric Metric, net, gross int64) int64 {
	if metric == MetricGross {
		return gross
	}
	return net
}

func compare(s *series, metric Metric) (domain.TrailingComparison, bool) {
	points := make([]point, 0, len(s.byMonth))
	for month, v := range s.byMonth {
		points = append(points, point{month: month, value: v})
	}
	if len(points) < 2 {
		return domain.TrailingComparison{}, false
	}
	sort.Slice(points, func(a, b int) bool { return points[a].month < points[b].month })

	latest := points[len(points)-1]
	prior := points[:len(points)-1]
	var sum int64
	for _, p := range prior {
		sum += p.value
	}
	avg := mathutil.DivRound(sum, int64(len(prior)))

	c := domain.TrailingComparison{
		ListingID:            s.listingID,
		ListingName:          s.listingName,
		Currency:             s.currency,
		Month:                latest.month,
		Metric:               string(metric),
		Label:                metric.Label(),
		CurrentMinor:         latest.value,
		TrailingAverageMinor: avg,
		PriorMonths:          len(prior),
		DeltaMinor:           latest.value - avg,
	}
	if avg != 0 {
		pct := float64(latest.value-avg) / float64(mathutil.AbsInt64(avg))
		c.DeltaPercent = &pct
	}
	return c, true
}
