// Package allocation splits transactions into calendar-month slices without
// losing a single minor currency unit.
package allocation

import (
	"time"

	"github.com/bertsdev33/himata-sub000/internal/domain"
	"github.com/bertsdev33/himata-sub000/pkg/datetime"
	"github.com/bertsdev33/himata-sub000/pkg/mathutil"
)

// MonthWeight is the number of stay nights falling into one month.
type MonthWeight struct {
	Month  string
	Nights int64
}

// NightsPerMonth walks the nights of [checkIn, checkOut) and buckets them by
// month. The check-out day is not a night. The result is ordered by month and
// empty when checkOut is not after checkIn.
func NightsPerMonth(checkIn, checkOut time.Time) []MonthWeight {
	start := datetime.Day(checkIn)
	end := datetime.Day(checkOut)

	var weights []MonthWeight
	for night := start; night.Before(end); night = night.AddDate(0, 0, 1) {
		month := datetime.MonthKey(night)
		if n := len(weights); n > 0 && weights[n-1].Month == month {
			weights[n-1].Nights++
			continue
		}
		weights = append(weights, MonthWeight{Month: month, Nights: 1})
	}
	return weights
}

// AllocateAll allocates every transaction in input order.
func AllocateAll(txs []domain.Transaction) ([]domain.Slice, []domain.Warning) {
	var slices []domain.Slice
	var warnings []domain.Warning
	for _, tx := range txs {
		s, w := Allocate(tx)
		slices = append(slices, s...)
		warnings = append(warnings, w...)
	}
	return slices, warnings
}

// Allocate produces one slice per calendar month the transaction's stay
// overlaps, or a single slice in the occurrence month when there is no stay.
// Gross, net, both fees and nights are each distributed independently with
// the largest-remainder method, so every one of them sums back exactly.
//
// Transactions that cannot be placed (unknown kind, no currency, no date)
// produce no slices and a warning. Malformed stay windows are collapsed
// into the check-in month with zero nights and a warning.
func Allocate(tx domain.Transaction) ([]domain.Slice, []domain.Warning) {
	var warnings []domain.Warning

	if !tx.Kind.Valid() {
		return nil, []domain.Warning{domain.NewWarning(domain.WarningUnknownKind, tx.ID,
			"unknown transaction kind %q", tx.Kind)}
	}

	currency, ok := transactionCurrency(tx)
	if !ok {
		return nil, []domain.Warning{domain.NewWarning(domain.WarningCurrencyMismatch, tx.ID,
			"money fields carry different currencies")}
	}
	if currency == "" {
		return nil, []domain.Warning{domain.NewWarning(domain.WarningMissingCurrency, tx.ID,
			"transaction has no currency")}
	}

	occurred := tx.OccurredOn
	if occurred.IsZero() && tx.Stay != nil && !tx.Stay.CheckIn.IsZero() {
		occurred = tx.Stay.CheckIn
		warnings = append(warnings, domain.NewWarning(domain.WarningMissingDate, tx.ID,
			"occurrence date missing, using check-in %s", tx.Stay.CheckIn.Format(datetime.DateLayout)))
	}
	if occurred.IsZero() {
		return nil, append(warnings, domain.NewWarning(domain.WarningMissingDate, tx.ID,
			"transaction has neither an occurrence date nor a check-in"))
	}

	base := domain.Slice{
		TransactionID: tx.ID,
		Kind:          tx.Kind,
		DatasetKind:   tx.DatasetKind,
		Currency:      currency,
	}
	if tx.Listing != nil && tx.Listing.ListingID != "" {
		base.ListingID = tx.Listing.ListingID
		base.ListingName = tx.Listing.ListingName
		base.AccountID = tx.Listing.AccountID
	} else if tx.Kind.IsPerformance() {
		base.ListingID = domain.UnattributedListingID
		if tx.Listing != nil {
			base.AccountID = tx.Listing.AccountID
		}
		warnings = append(warnings, domain.NewWarning(domain.WarningUnattributed, tx.ID,
			"performance transaction without listing grouped under %q", domain.UnattributedListingID))
	}

	occurrenceMonth := datetime.MonthKey(occurred)

	if tx.Stay == nil {
		return []domain.Slice{whole(base, tx, occurrenceMonth, 0)}, warnings
	}

	stay := tx.Stay
	if stay.CheckIn.IsZero() || !datetime.Day(stay.CheckOut).After(datetime.Day(stay.CheckIn)) {
		month := occurrenceMonth
		if !stay.CheckIn.IsZero() {
			month = datetime.MonthKey(stay.CheckIn)
		}
		warnings = append(warnings, domain.NewWarning(domain.WarningMalformedStay, tx.ID,
			"check-out %s is not after check-in %s, treated as a single-day event in %s",
			stay.CheckOut.Format(datetime.DateLayout), stay.CheckIn.Format(datetime.DateLayout), month))
		return []domain.Slice{whole(base, tx, month, 0)}, warnings
	}

	weights := NightsPerMonth(stay.CheckIn, stay.CheckOut)
	nightWeights := make([]int64, len(weights))
	var walked int64
	for i, w := range weights {
		nightWeights[i] = w.Nights
		walked += w.Nights
	}

	nights := stay.Nights
	if nights < 0 {
		warnings = append(warnings, domain.NewWarning(domain.WarningNegativeNights, tx.ID,
			"negative night count %d replaced by %d walked nights", nights, walked))
		nights = walked
	} else if nights == 0 {
		nights = walked
	}

	amounts := []int64{
		tx.Gross.AmountMinor,
		tx.Net.AmountMinor,
		tx.CleaningFee.AmountMinor,
		tx.ServiceFee.AmountMinor,
		nights,
	}
	parts := make([][]int64, len(amounts))
	for i, amount := range amounts {
		p, err := mathutil.LargestRemainder(amount, nightWeights)
		if err != nil || p == nil {
			warnings = append(warnings, domain.NewWarning(domain.WarningInvalidAllocation, tx.ID,
				"could not distribute across stay months, assigned to %s", occurrenceMonth))
			return []domain.Slice{whole(base, tx, occurrenceMonth, nights)}, warnings
		}
		parts[i] = p
	}

	slices := make([]domain.Slice, len(weights))
	for i, w := range weights {
		s := base
		s.Month = w.Month
		s.GrossMinor = parts[0][i]
		s.NetMinor = parts[1][i]
		s.CleaningFeeMinor = parts[2][i]
		s.ServiceFeeMinor = parts[3][i]
		s.Nights = parts[4][i]
		slices[i] = s
	}
	return slices, warnings
}

func whole(base domain.Slice, tx domain.Transaction, month string, nights int64) domain.Slice {
	s := base
	s.Month = month
	s.GrossMinor = tx.Gross.AmountMinor
	s.NetMinor = tx.Net.AmountMinor
	s.CleaningFeeMinor = tx.CleaningFee.AmountMinor
	s.ServiceFeeMinor = tx.ServiceFee.AmountMinor
	s.Nights = nights
	return s
}

// transactionCurrency returns the single currency used by the non-zero
// money fields, falling back to any declared currency when every amount is
// zero; ok is false when non-zero fields disagree.
func transactionCurrency(tx domain.Transaction) (string, bool) {
	currency := ""
	for _, m := range []domain.Money{tx.Gross, tx.Net, tx.CleaningFee, tx.ServiceFee} {
		c := domain.NormalizeCurrency(m.Currency)
		if c == "" || m.AmountMinor == 0 {
			continue
		}
		if currency != "" && c != currency {
			return "", false
		}
		currency = c
	}
	if currency == "" {
		currency = tx.Currency()
	}
	return currency, true
}
