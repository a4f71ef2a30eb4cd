// Package occupancy infers listing service ranges and derives capped monthly
// occupancy estimates from them.
package occupancy

import (
	"fmt"
	"sort"
	"time"

	"github.com/bertsdev33/himata-sub000/internal/domain"
	"github.com/bertsdev33/himata-sub000/pkg/datetime"
	"github.com/bertsdev33/himata-sub000/pkg/mathutil"
)

// InferServiceRanges returns, for every (listing, currency), the span
// between the earliest and latest dates observed in its transactions. The
// occurrence date, the check-in and the last night of a stay all count.
func InferServiceRanges(txs []domain.Transaction) []domain.ListingServiceRange {
	type key struct{ listingID, currency string }
	index := make(map[key]int)
	var ranges []domain.ListingServiceRange

	observe := func(k key, d time.Time) {
		if d.IsZero() {
			return
		}
		d = datetime.Day(d)
		i, ok := index[k]
		if !ok {
			index[k] = len(ranges)
			ranges = append(ranges, domain.ListingServiceRange{ListingID: k.listingID, Currency: k.currency, FirstDate: d, LastDate: d})
			return
		}
		if d.Before(ranges[i].FirstDate) {
			ranges[i].FirstDate = d
		}
		if d.After(ranges[i].LastDate) {
			ranges[i].LastDate = d
		}
	}

	for _, tx := range txs {
		listingID := tx.ListingID()
		currency := tx.Currency()
		if listingID == "" || currency == "" {
			continue
		}
		k := key{listingID, currency}
		observe(k, tx.OccurredOn)
		if tx.Stay != nil && tx.Stay.CheckOut.After(tx.Stay.CheckIn) {
			observe(k, tx.Stay.CheckIn)
			observe(k, tx.Stay.CheckOut.AddDate(0, 0, -1))
		}
	}

	sort.SliceStable(ranges, func(a, b int) bool {
		if ranges[a].Currency != ranges[b].Currency {
			return ranges[a].Currency < ranges[b].Currency
		}
		return ranges[a].ListingID < ranges[b].ListingID
	})
	return ranges
}

// InService reports whether the range overlaps the given month.
func InService(r domain.ListingServiceRange, month string) (bool, error) {
	start, err := datetime.MonthStart(month)
	if err != nil {
		return false, err
	}
	end, err := datetime.MonthEnd(month)
	if err != nil {
		return false, err
	}
	return !r.FirstDate.After(end) && !r.LastDate.Before(start), nil
}

// Estimate computes occupancy for every month of currency present in rows.
// Each listing-month contributes at most the month's day count in nights,
// and the denominator is days-in-month times the listings in service that
// month (plus any listing that booked nights outside its inferred range).
// Months whose capped nights sum to zero are reported with a nil Rate:
// adjustment-only months are unknown, not vacant.
func Estimate(rows []domain.MonthlyListingPerformance, ranges []domain.ListingServiceRange, currency string) ([]domain.EstimatedOccupancy, error) {
	nights := make(map[string]map[string]int64)
	for _, r := range rows {
		if r.Currency != currency || r.ListingID == domain.UnattributedListingID {
			continue
		}
		if nights[r.Month] == nil {
			nights[r.Month] = make(map[string]int64)
		}
		nights[r.Month][r.ListingID] += r.BookedNights
	}

	months := make([]string, 0, len(nights))
	for m := range nights {
		months = append(months, m)
	}
	sort.Strings(months)

	out := make([]domain.EstimatedOccupancy, 0, len(months))
	for _, month := range months {
		days, err := datetime.DaysInMonth(month)
		if err != nil {
			return nil, fmt.Errorf("occupancy for %s: %w", month, err)
		}

		listings := make(map[string]struct{})
		for _, r := range ranges {
			if r.Currency != currency {
				continue
			}
			active, err := InService(r, month)
			if err != nil {
				return nil, fmt.Errorf("occupancy for %s: %w", month, err)
			}
			if active {
				listings[r.ListingID] = struct{}{}
			}
		}

		var booked int64
		for listingID, n := range nights[month] {
			capped := mathutil.MinInt64(mathutil.MaxInt64(n, 0), int64(days))
			if capped > 0 {
				listings[listingID] = struct{}{}
			}
			booked += capped
		}

		e := domain.EstimatedOccupancy{
			Month:             month,
			Currency:          currency,
			DaysInMonth:       days,
			ListingsInService: len(listings),
			BookedNights:      booked,
			AvailableNights:   int64(days) * int64(len(listings)),
		}
		if booked > 0 && e.AvailableNights > 0 {
			rate := float64(booked) / float64(e.AvailableNights)
			e.Rate = &rate
		}
		out = append(out, e)
	}
	return out, nil
}
