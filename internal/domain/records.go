package domain

import "time"

// Slice is one (listing, month, currency) fragment of a transaction's
// amounts and nights.
type Slice struct {
	TransactionID string
	Kind          Kind
	DatasetKind   DatasetKind
	ListingID     string
	ListingName   string
	AccountID     string
	Month         string
	Currency      string

	GrossMinor       int64
	NetMinor         int64
	CleaningFeeMinor int64
	ServiceFeeMinor  int64
	Nights           int64
}

// RevenueBreakdown splits gross revenue by originating transaction kind.
type RevenueBreakdown struct {
	ReservationMinor  int64 `json:"reservationMinor"`
	AdjustmentMinor   int64 `json:"adjustmentMinor"`
	ResolutionMinor   int64 `json:"resolutionMinor"`
	CancellationMinor int64 `json:"cancellationMinor"`
}

// Total returns the sum of all buckets.
func (b RevenueBreakdown) Total() int64 {
	return b.ReservationMinor + b.AdjustmentMinor + b.ResolutionMinor + b.CancellationMinor
}

// Add accumulates amount into the bucket for kind.
func (b *RevenueBreakdown) Add(kind Kind, amount int64) {
	switch kind {
	case KindReservation:
		b.ReservationMinor += amount
	case KindAdjustment:
		b.AdjustmentMinor += amount
	case KindResolutionAdjustment:
		b.ResolutionMinor += amount
	case KindCancellationFee:
		b.CancellationMinor += amount
	}
}

// Merge adds every bucket of other into b.
func (b *RevenueBreakdown) Merge(other RevenueBreakdown) {
	b.ReservationMinor += other.ReservationMinor
	b.AdjustmentMinor += other.AdjustmentMinor
	b.ResolutionMinor += other.ResolutionMinor
	b.CancellationMinor += other.CancellationMinor
}

// MonthlyListingPerformance aggregates one listing's month in one currency.
type MonthlyListingPerformance struct {
	ListingID   string `json:"listingId"`
	ListingName string `json:"listingName,omitempty"`
	AccountID   string `json:"accountId,omitempty"`
	Month       string `json:"month"`
	Currency    string `json:"currency"`

	BookedNights      int64            `json:"bookedNights"`
	GrossRevenueMinor int64            `json:"grossRevenueMinor"`
	NetRevenueMinor   int64            `json:"netRevenueMinor"`
	CleaningFeesMinor int64            `json:"cleaningFeesMinor"`
	ServiceFeesMinor  int64            `json:"serviceFeesMinor"`
	Breakdown         RevenueBreakdown `json:"breakdown"`
}

// MonthlyPortfolioPerformance is the sum of every listing sharing a
// (month, currency).
type MonthlyPortfolioPerformance struct {
	Month        string `json:"month"`
	Currency     string `json:"currency"`
	ListingCount int    `json:"listingCount"`

	BookedNights      int64            `json:"bookedNights"`
	GrossRevenueMinor int64            `json:"grossRevenueMinor"`
	NetRevenueMinor   int64            `json:"netRevenueMinor"`
	CleaningFeesMinor int64            `json:"cleaningFeesMinor"`
	ServiceFeesMinor  int64            `json:"serviceFeesMinor"`
	Breakdown         RevenueBreakdown `json:"breakdown"`
}

// MonthlyCashflow sums payouts for (month, currency, account?, listing?).
// A nil AccountID or ListingID marks an unattributed payout group.
type MonthlyCashflow struct {
	Month            string  `json:"month"`
	Currency         string  `json:"currency"`
	AccountID        *string `json:"accountId,omitempty"`
	ListingID        *string `json:"listingId,omitempty"`
	PayoutMinor      int64   `json:"payoutMinor"`
	TransactionCount int     `json:"transactionCount"`
}

// Unattributed reports whether the group has no listing.
func (c MonthlyCashflow) Unattributed() bool {
	return c.ListingID == nil
}

// TrailingComparison compares the latest month of a metric against the
// average of every earlier month.
type TrailingComparison struct {
	ListingID            string   `json:"listingId,omitempty"`
	ListingName          string   `json:"listingName,omitempty"`
	Currency             string   `json:"currency"`
	Month                string   `json:"month"`
	Metric               string   `json:"metric"`
	Label                string   `json:"label"`
	CurrentMinor         int64    `json:"currentMinor"`
	TrailingAverageMinor int64    `json:"trailingAverageMinor"`
	PriorMonths          int      `json:"priorMonths"`
	DeltaMinor           int64    `json:"deltaMinor"`
	DeltaPercent         *float64 `json:"deltaPercent,omitempty"`
}

// ListingServiceRange is the inferred span during which a listing was active.
type ListingServiceRange struct {
	ListingID string    `json:"listingId"`
	Currency  string    `json:"currency"`
	FirstDate time.Time `json:"firstDate"`
	LastDate  time.Time `json:"lastDate"`
}

// EstimatedOccupancy is one month of capped booked nights over available
// listing-nights. Rate is nil when no nights were booked at all.
type EstimatedOccupancy struct {
	Month             string   `json:"month"`
	Currency          string   `json:"currency"`
	DaysInMonth       int      `json:"daysInMonth"`
	ListingsInService int      `json:"listingsInService"`
	BookedNights      int64    `json:"bookedNights"`
	AvailableNights   int64    `json:"availableNights"`
	Rate              *float64 `json:"rate,omitempty"`
}
