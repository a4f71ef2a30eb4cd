package performance

import (
	"math/rand"
	"testing"

	"github.com/bertsdev33/himata-sub000/internal/allocation"
	"github.com/bertsdev33/himata-sub000/internal/domain"
	"github.com/bertsdev33/himata-sub000/pkg/datetime"
	"github.com/bertsdev33/himata-sub000/pkg/testutil"
)

func sampleTransactions() []domain.Transaction {
	l1 := testutil.Listing("L1", "A1")
	l2 := testutil.Listing("L2", "A1")
	cancelled := testutil.Simple("c1", domain.KindCancellationFee, l2, "2024-02-14", 4000, "USD")
	return []domain.Transaction{
		testutil.Reservation("r1", l1, "2024-01-30", "2024-02-02", 30000, 27000, "USD"),
		testutil.Reservation("r2", l2, "2024-02-10", "2024-02-14", 48000, 43200, "USD"),
		testutil.Simple("a1", domain.KindAdjustment, l1, "2024-02-20", -1500, "USD"),
		testutil.Simple("ra1", domain.KindResolutionAdjustment, l2, "2024-02-21", 2500, "USD"),
		cancelled,
		testutil.Simple("p1", domain.KindPayout, l1, "2024-02-03", 27000, "USD"),
		testutil.Reservation("r3", l1, "2024-02-05", "2024-02-07", 20000, 18000, "EUR"),
	}
}

func TestBuildListing(t *testing.T) {
	slices, _ := allocation.AllocateAll(sampleTransactions())
	rows := BuildListing(slices)

	if len(rows) != 4 {
		t.Fatalf("expected 4 listing rows, got %d: %+v", len(rows), rows)
	}

	jan := testutil.FindListingRow(rows, "L1", "2024-01")
	if jan == nil {
		t.Fatal("missing L1 2024-01")
	}
	if jan.BookedNights != 2 || jan.GrossRevenueMinor != 20000 || jan.NetRevenueMinor != 18000 {
		t.Errorf("unexpected L1 January row %+v", jan)
	}

	var febL1USD *domain.MonthlyListingPerformance
	for i := range rows {
		if rows[i].ListingID == "L1" && rows[i].Month == "2024-02" && rows[i].Currency == "USD" {
			febL1USD = &rows[i]
		}
	}
	if febL1USD == nil {
		t.Fatal("missing L1 2024-02 USD")
	}
	if febL1USD.GrossRevenueMinor != 10000-1500 {
		t.Errorf("L1 February gross = %d, expected %d", febL1USD.GrossRevenueMinor, 10000-1500)
	}
	if febL1USD.Breakdown.ReservationMinor != 10000 || febL1USD.Breakdown.AdjustmentMinor != -1500 {
		t.Errorf("unexpected L1 February breakdown %+v", febL1USD.Breakdown)
	}

	febL2 := testutil.FindListingRow(rows, "L2", "2024-02")
	if febL2 == nil {
		t.Fatal("missing L2 2024-02")
	}
	if febL2.BookedNights != 4 {
		t.Errorf("cancellation fees must not add nights, got %d", febL2.BookedNights)
	}
	if febL2.Breakdown.ResolutionMinor != 2500 || febL2.Breakdown.CancellationMinor != 4000 {
		t.Errorf("unexpected L2 breakdown %+v", febL2.Breakdown)
	}

	for _, r := range rows {
		if r.Breakdown.Total() != r.GrossRevenueMinor {
			t.Errorf("%s %s: breakdown %d != gross %d", r.ListingID, r.Month, r.Breakdown.Total(), r.GrossRevenueMinor)
		}
		if r.ListingName == "" {
			t.Errorf("%s %s: missing listing name", r.ListingID, r.Month)
		}
	}

	for i := 1; i < len(rows); i++ {
		if rows[i-1].Month > rows[i].Month {
			t.Errorf("rows not sorted by month: %s before %s", rows[i-1].Month, rows[i].Month)
		}
	}
}

func TestBuildListingIgnoresPayouts(t *testing.T) {
	txs := []domain.Transaction{
		testutil.Simple("p1", domain.KindPayout, testutil.Listing("L1", "A1"), "2024-02-03", 27000, "USD"),
		testutil.Simple("p2", domain.KindResolutionPayout, nil, "2024-02-03", 500, "USD"),
	}
	slices, _ := allocation.AllocateAll(txs)
	if rows := BuildListing(slices); len(rows) != 0 {
		t.Errorf("expected no performance rows, got %+v", rows)
	}
}

func TestPortfolioEqualsSumOfListings(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	kinds := []domain.Kind{domain.KindReservation, domain.KindAdjustment, domain.KindResolutionAdjustment, domain.KindCancellationFee}
	currencies := []string{"USD", "EUR"}
	base := datetime.MustDate("2023-06-01")

	var txs []domain.Transaction
	for i := 0; i < 300; i++ {
		listing := testutil.Listing([]string{"L1", "L2", "L3", "L4"}[rng.Intn(4)], "A1")
		currency := currencies[rng.Intn(2)]
		kind := kinds[rng.Intn(len(kinds))]
		day := base.AddDate(0, 0, rng.Intn(365)).Format(datetime.DateLayout)
		if kind == domain.KindReservation {
			in := datetime.MustDate(day)
			out := in.AddDate(0, 0, 1+rng.Intn(40)).Format(datetime.DateLayout)
			gross := rng.Int63n(500000)
			txs = append(txs, testutil.Reservation("r", listing, day, out, gross, gross*85/100, currency))
			continue
		}
		txs = append(txs, testutil.Simple("x", kind, listing, day, rng.Int63n(20000)-10000, currency))
	}

	slices, _ := allocation.AllocateAll(txs)
	rows := BuildListing(slices)
	portfolio := BuildPortfolio(rows)

	for _, p := range portfolio {
		var gross, net, nights, cleaning, service int64
		var breakdown domain.RevenueBreakdown
		listings := make(map[string]bool)
		for _, r := range rows {
			if r.Month != p.Month || r.Currency != p.Currency {
				continue
			}
			gross += r.GrossRevenueMinor
			net += r.NetRevenueMinor
			nights += r.BookedNights
			cleaning += r.CleaningFeesMinor
			service += r.ServiceFeesMinor
			breakdown.Merge(r.Breakdown)
			listings[r.ListingID] = true
		}
		if gross != p.GrossRevenueMinor || net != p.NetRevenueMinor || nights != p.BookedNights ||
			cleaning != p.CleaningFeesMinor || service != p.ServiceFeesMinor || breakdown != p.Breakdown {
			t.Errorf("%s %s: portfolio %+v does not equal listing sums", p.Month, p.Currency, p)
		}
		if len(listings) != p.ListingCount {
			t.Errorf("%s %s: listing count %d, expected %d", p.Month, p.Currency, p.ListingCount, len(listings))
		}
	}
}

func TestForDataset(t *testing.T) {
	upcoming := testutil.Reservation("u1", testutil.Listing("L1", "A1"), "2024-09-01", "2024-09-04", 9000, 8100, "USD")
	upcoming.DatasetKind = domain.DatasetUpcoming
	txs := []domain.Transaction{
		testutil.Reservation("r1", testutil.Listing("L1", "A1"), "2024-08-01", "2024-08-04", 9000, 8100, "USD"),
		upcoming,
	}
	slices, _ := allocation.AllocateAll(txs)

	realized := BuildListing(ForDataset(slices, domain.DatasetRealized))
	if len(realized) != 1 || realized[0].Month != "2024-08" {
		t.Errorf("unexpected realized rows %+v", realized)
	}
	future := BuildListing(ForDataset(slices, domain.DatasetUpcoming))
	if len(future) != 1 || future[0].Month != "2024-09" {
		t.Errorf("unexpected upcoming rows %+v", future)
	}
}

func TestPartitionByCurrency(t *testing.T) {
	slices, _ := allocation.AllocateAll(sampleTransactions())
	rows := BuildListing(slices)

	parts := PartitionByCurrency(rows)
	if len(parts["USD"]) != 3 || len(parts["EUR"]) != 1 {
		t.Errorf("unexpected partition sizes USD=%d EUR=%d", len(parts["USD"]), len(parts["EUR"]))
	}

	currencies := Currencies(rows)
	if len(currencies) != 2 || currencies[0] != "EUR" || currencies[1] != "USD" {
		t.Errorf("Currencies() = %v, expected [EUR USD]", currencies)
	}
}
