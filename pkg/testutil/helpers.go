// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/bertsdev33/himata-sub000/internal/domain"
	"github.com/bertsdev33/himata-sub000/pkg/datetime"
)

// Listing returns a listing reference with a derived display name.
func Listing(listingID, accountID string) *domain.ListingRef {
	return &domain.ListingRef{ListingID: listingID, ListingName: "Listing " + listingID, AccountID: accountID}
}

// Reservation builds a realized reservation for [checkIn, checkOut) booked
// on the check-in date.
func Reservation(id string, listing *domain.ListingRef, checkIn, checkOut string, grossMinor, netMinor int64, currency string) domain.Transaction {
	in := datetime.MustDate(checkIn)
	out := datetime.MustDate(checkOut)
	return domain.Transaction{
		ID:          id,
		Kind:        domain.KindReservation,
		DatasetKind: domain.DatasetRealized,
		OccurredOn:  in,
		Listing:     listing,
		Gross:       domain.NewMoney(grossMinor, currency),
		Net:         domain.NewMoney(netMinor, currency),
		ServiceFee:  domain.NewMoney(grossMinor-netMinor, currency),
		Stay: &domain.Stay{
			CheckIn:  in,
			CheckOut: out,
			Nights:   int64(out.Sub(in).Hours() / 24),
		},
	}
}

// Simple builds a transaction without a stay window.
func Simple(id string, kind domain.Kind, listing *domain.ListingRef, date string, amountMinor int64, currency string) domain.Transaction {
	return domain.Transaction{
		ID:          id,
		Kind:        kind,
		DatasetKind: domain.DatasetRealized,
		OccurredOn:  datetime.MustDate(date),
		Listing:     listing,
		Gross:       domain.NewMoney(amountMinor, currency),
		Net:         domain.NewMoney(amountMinor, currency),
	}
}

// MonthlyRows builds consecutive monthly performance rows for one listing
// starting at startMonth, one row per gross value.
func MonthlyRows(listingID, accountID, currency, startMonth string, grossMinor ...int64) []domain.MonthlyListingPerformance {
	rows := make([]domain.MonthlyListingPerformance, 0, len(grossMinor))
	month := startMonth
	for _, gross := range grossMinor {
		rows = append(rows, domain.MonthlyListingPerformance{
			ListingID:         listingID,
			ListingName:       "Listing " + listingID,
			AccountID:         accountID,
			Month:             month,
			Currency:          currency,
			BookedNights:      10,
			GrossRevenueMinor: gross,
			NetRevenueMinor:   gross * 9 / 10,
			Breakdown:         domain.RevenueBreakdown{ReservationMinor: gross},
		})
		next, err := datetime.NextMonth(month)
		if err != nil {
			panic(err)
		}
		month = next
	}
	return rows
}

// FindListingRow finds the performance row for a listing and month.
// Returns nil if not found.
func FindListingRow(rows []domain.MonthlyListingPerformance, listingID, month string) *domain.MonthlyListingPerformance {
	for i := range rows {
		if rows[i].ListingID == listingID && rows[i].Month == month {
			return &rows[i]
		}
	}
	return nil
}

// FindPortfolioRow finds the portfolio row for a month and currency.
// Returns nil if not found.
func FindPortfolioRow(rows []domain.MonthlyPortfolioPerformance, month, currency string) *domain.MonthlyPortfolioPerformance {
	for i := range rows {
		if rows[i].Month == month && rows[i].Currency == currency {
			return &rows[i]
		}
	}
	return nil
}

// HasWarning reports whether warnings contains the given code.
func HasWarning(warnings []domain.Warning, code domain.WarningCode) bool {
	for _, w := range warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}
