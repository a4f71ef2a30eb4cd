package domain

import "time"

// Kind classifies a transaction and decides which aggregator consumes it.
type Kind string

const (
	KindReservation          Kind = "reservation"
	KindAdjustment           Kind = "adjustment"
	KindResolutionAdjustment Kind = "resolution_adjustment"
	KindCancellationFee      Kind = "cancellation_fee"
	KindPayout               Kind = "payout"
	KindResolutionPayout     Kind = "resolution_payout"
)

// IsPerformance reports whether the kind feeds the performance aggregator.
func (k Kind) IsPerformance() bool {
	switch k {
	case KindReservation, KindAdjustment, KindResolutionAdjustment, KindCancellationFee:
		return true
	}
	return false
}

// IsCashflow reports whether the kind feeds the cashflow aggregator.
func (k Kind) IsCashflow() bool {
	return k == KindPayout || k == KindResolutionPayout
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k.IsPerformance() || k.IsCashflow()
}

// DatasetKind separates realized activity from upcoming, not yet fulfilled
// reservations.
type DatasetKind string

const (
	DatasetRealized DatasetKind = "realized"
	DatasetUpcoming DatasetKind = "upcoming"
)

// UnattributedListingID groups performance transactions that arrive
// without a listing reference.
const UnattributedListingID = "unattributed"

// ListingRef identifies the listing and host account a transaction belongs to.
type ListingRef struct {
	ListingID   string `json:"listingId" yaml:"id"`
	ListingName string `json:"listingName,omitempty" yaml:"name,omitempty"`
	AccountID   string `json:"accountId,omitempty" yaml:"account,omitempty"`
}

// Stay is a reservation window: CheckIn inclusive, CheckOut exclusive.
type Stay struct {
	CheckIn  time.Time `json:"checkIn"`
	CheckOut time.Time `json:"checkOut"`
	Nights   int64     `json:"nights"`
}

// Transaction is one canonical financial event produced by the importer.
// The engine never mutates a transaction.
type Transaction struct {
	ID          string      `json:"id"`
	Kind        Kind        `json:"kind"`
	DatasetKind DatasetKind `json:"datasetKind"`
	OccurredOn  time.Time   `json:"occurredOn"`
	Listing     *ListingRef `json:"listing,omitempty"`

	Gross       Money `json:"gross"`
	Net         Money `json:"net"`
	CleaningFee Money `json:"cleaningFee"`
	ServiceFee  Money `json:"serviceFee"`

	Stay *Stay `json:"stay,omitempty"`
}

// Currency returns the transaction currency, taken from the first
// non-empty Money field.
func (t Transaction) Currency() string {
	for _, m := range []Money{t.Gross, t.Net, t.CleaningFee, t.ServiceFee} {
		if m.Currency != "" {
			return NormalizeCurrency(m.Currency)
		}
	}
	return ""
}

// ListingID returns the listing identifier or "" for unattributed rows.
func (t Transaction) ListingID() string {
	if t.Listing == nil {
		return ""
	}
	return t.Listing.ListingID
}

// AccountID returns the account identifier or "" for unattributed rows.
func (t Transaction) AccountID() string {
	if t.Listing == nil {
		return ""
	}
	return t.Listing.AccountID
}
