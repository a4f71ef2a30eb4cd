// Package cashflow aggregates payouts by month, currency, account and listing.
package cashflow

import (
	"sort"

	"github.com/bertsdev33/himata-sub000/internal/domain"
	"github.com/bertsdev33/himata-sub000/pkg/datetime"
)

type groupKey struct {
	month     string
	currency  string
	accountID string
	hasAcct   bool
	listingID string
	hasList   bool
}

// Build sums the net amount of payout and resolution payout transactions.
// Payouts are not prorated: each lands in the month it occurred. Payouts
// without a listing stay in their own group with a nil ListingID (and a nil
// AccountID when the account is unknown too).
func Build(txs []domain.Transaction) ([]domain.MonthlyCashflow, []domain.Warning) {
	index := make(map[groupKey]int)
	var rows []domain.MonthlyCashflow
	var warnings []domain.Warning

	for _, tx := range txs {
		if !tx.Kind.IsCashflow() {
			continue
		}
		if tx.OccurredOn.IsZero() {
			warnings = append(warnings, domain.NewWarning(domain.WarningMissingDate, tx.ID,
				"payout has no occurrence date"))
			continue
		}
		currency := domain.NormalizeCurrency(tx.Net.Currency)
		if currency == "" {
			currency = tx.Currency()
		}
		if currency == "" {
			warnings = append(warnings, domain.NewWarning(domain.WarningMissingCurrency, tx.ID,
				"payout has no currency"))
			continue
		}

		key := groupKey{month: datetime.MonthKey(tx.OccurredOn), currency: currency}
		if tx.Listing != nil {
			if tx.Listing.AccountID != "" {
				key.accountID, key.hasAcct = tx.Listing.AccountID, true
			}
			if tx.Listing.ListingID != "" {
				key.listingID, key.hasList = tx.Listing.ListingID, true
			}
		}

		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			row := domain.MonthlyCashflow{Month: key.month, Currency: key.currency}
			if key.hasAcct {
				acct := key.accountID
				row.AccountID = &acct
			}
			if key.hasList {
				listing := key.listingID
				row.ListingID = &listing
			}
			rows = append(rows, row)
		}
		rows[i].PayoutMinor += tx.Net.AmountMinor
		rows[i].TransactionCount++
	}

	sort.SliceStable(rows, func(a, b int) bool {
		ra, rb := rows[a], rows[b]
		if ra.Month != rb.Month {
			return ra.Month < rb.Month
		}
		if ra.Currency != rb.Currency {
			return ra.Currency < rb.Currency
		}
		if c := compareOptional(ra.AccountID, rb.AccountID); c != 0 {
			return c < 0
		}
		return compareOptional(ra.ListingID, rb.ListingID) < 0
	})
	return rows, warnings
}

// compareOptional orders absent values before present ones.
func compareOptional(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

// TotalsByMonth sums every group of one currency per month.
func TotalsByMonth(rows []domain.MonthlyCashflow, currency string) map[string]int64 {
	totals := make(map[string]int64)
	for _, r := range rows {
		if r.Currency == currency {
			totals[r.Month] += r.PayoutMinor
		}
	}
	return totals
}
