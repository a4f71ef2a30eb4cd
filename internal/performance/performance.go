// Package performance aggregates allocation slices into monthly listing and
// portfolio performance records.
package performance

import (
	"sort"

	"github.com/bertsdev33/himata-sub000/internal/domain"
)

type listingKey struct {
	listingID string
	accountID string
	month     string
	currency  string
}

type portfolioKey struct {
	month    string
	currency string
}

// ForDataset keeps the slices that belong to the given dataset kind.
func ForDataset(slices []domain.Slice, dataset domain.DatasetKind) []domain.Slice {
	var out []domain.Slice
	for _, s := range slices {
		if s.DatasetKind == dataset {
			out = append(out, s)
		}
	}
	return out
}

// BuildListing groups performance-kind slices by (listing, account, month,
// currency). Payout slices are ignored. Booked nights only count
// reservation slices; every kind contributes revenue and its breakdown
// bucket.
func BuildListing(slices []domain.Slice) []domain.MonthlyListingPerformance {
	index := make(map[listingKey]int)
	var rows []domain.MonthlyListingPerformance

	for _, s := range slices {
		if !s.Kind.IsPerformance() {
			continue
		}
		key := listingKey{listingID: s.ListingID, accountID: s.AccountID, month: s.Month, currency: s.Currency}
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, domain.MonthlyListingPerformance{
				ListingID: s.ListingID,
				AccountID: s.AccountID,
				Month:     s.Month,
				Currency:  s.Currency,
			})
		}
		row := &rows[i]
		if row.ListingName == "" {
			row.ListingName = s.ListingName
		}
		if s.Kind == domain.KindReservation {
			row.BookedNights += s.Nights
		}
		row.GrossRevenueMinor += s.GrossMinor
		row.NetRevenueMinor += s.NetMinor
		row.CleaningFeesMinor += s.CleaningFeeMinor
		row.ServiceFeesMinor += s.ServiceFeeMinor
		row.Breakdown.Add(s.Kind, s.GrossMinor)
	}

	SortListing(rows)
	return rows
}

// BuildPortfolio sums listing rows sharing a (month, currency).
func BuildPortfolio(rows []domain.MonthlyListingPerformance) []domain.MonthlyPortfolioPerformance {
	index := make(map[portfolioKey]int)
	listings := make(map[portfolioKey]map[string]struct{})
	var out []domain.MonthlyPortfolioPerformance

	for _, r := range rows {
		key := portfolioKey{month: r.Month, currency: r.Currency}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			listings[key] = make(map[string]struct{})
			out = append(out, domain.MonthlyPortfolioPerformance{Month: r.Month, Currency: r.Currency})
		}
		p := &out[i]
		p.BookedNights += r.BookedNights
		p.GrossRevenueMinor += r.GrossRevenueMinor
		p.NetRevenueMinor += r.NetRevenueMinor
		p.CleaningFeesMinor += r.CleaningFeesMinor
		p.ServiceFeesMinor += r.ServiceFeesMinor
		p.Breakdown.Merge(r.Breakdown)
		listings[key][r.ListingID] = struct{}{}
	}

	for i := range out {
		out[i].ListingCount = len(listings[portfolioKey{month: out[i].Month, currency: out[i].Currency}])
	}

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Month != out[b].Month {
			return out[a].Month < out[b].Month
		}
		return out[a].Currency < out[b].Currency
	})
	return out
}

// SortListing orders rows by month, currency, account and listing.
func SortListing(rows []domain.MonthlyListingPerformance) {
	sort.SliceStable(rows, func(a, b int) bool {
		ra, rb := rows[a], rows[b]
		if ra.Month != rb.Month {
			return ra.Month < rb.Month
		}
		if ra.Currency != rb.Currency {
			return ra.Currency < rb.Currency
		}
		if ra.AccountID != rb.AccountID {
			return ra.AccountID < rb.AccountID
		}
		return ra.ListingID < rb.ListingID
	})
}

// PartitionByCurrency splits rows by currency, keeping their order.
func PartitionByCurrency(rows []domain.MonthlyListingPerformance) map[string][]domain.MonthlyListingPerformance {
	out := make(map[string][]domain.MonthlyListingPerformance)
	for _, r := range rows {
		out[r.Currency] = append(out[r.Currency], r)
	}
	return out
}

// Currencies returns the sorted distinct currencies of rows.
func Currencies(rows []domain.MonthlyListingPerformance) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		if _, ok := seen[r.Currency]; ok {
			continue
		}
		seen[r.Currency] = struct{}{}
		out = append(out, r.Currency)
	}
	sort.Strings(out)
	return out
}
