// Package output provides utilities for formatting and displaying reports
// and forecast snapshots.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bertsdev33/himata-sub000/internal/domain"
	"github.com/bertsdev33/himata-sub000/internal/engine"
	"github.com/bertsdev33/himata-sub000/internal/scope"
	"github.com/bertsdev33/himata-sub000/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

const unattributed = "(unattributed)"

// PrettyFormat writes a human-readable rather than machine-readable report.
// snap may be nil when no forecast was computed.
func PrettyFormat(w io.Writer, report *engine.Report, snap *scope.Snapshot) {
	p := message.NewPrinter(language.English)
	if report != nil {
		prettyListings(w, p, "Realized performance", report.Realized)
		prettyPortfolio(w, p, "Realized portfolio", report.RealizedPortfolio)
		if len(report.Upcoming) > 0 {
			prettyListings(w, p, "Upcoming performance", report.Upcoming)
		}
		prettyCashflow(w, p, report.Cashflow)
		prettyTrailing(w, p, report.ListingTrailing, report.PortfolioTrailing)
		prettyOccupancy(w, p, report.Occupancy)
	}
	if snap != nil {
		prettySnapshot(w, p, snap)
	}
	if report != nil && len(report.Warnings) > 0 {
		_, _ = fmt.Fprintf(w, "--- Warnings (%d) ---\n", len(report.Warnings))
		for _, warning := range report.Warnings {
			_, _ = fmt.Fprintf(w, "%s\n", warning)
		}
	}
}

func prettyListings(w io.Writer, p *message.Printer, title string, rows []domain.MonthlyListingPerformance) {
	_, _ = fmt.Fprintf(w, "--- %s ---\n", title)
	_, _ = fmt.Fprintf(w, "Month   | Listing | Nights | Gross | Net\n")
	_, _ = fmt.Fprintf(w, "_____   | _______ | ______ | _____ | ___\n")
	for _, r := range rows {
		_, _ = p.Fprintf(w, "%s | %s | %d | %s | %s\n",
			r.Month, listingLabel(r.ListingID, r.ListingName), r.BookedNights,
			format.Money(r.GrossRevenueMinor, r.Currency), format.Money(r.NetRevenueMinor, r.Currency))
	}
	_, _ = fmt.Fprintf(w, "\n")
}

func prettyPortfolio(w io.Writer, p *message.Printer, title string, rows []domain.MonthlyPortfolioPerformance) {
	_, _ = fmt.Fprintf(w, "--- %s ---\n", title)
	_, _ = fmt.Fprintf(w, "Month   | Listings | Nights | Gross | Net\n")
	_, _ = fmt.Fprintf(w, "_____   | ________ | ______ | _____ | ___\n")
	for _, r := range rows {
		_, _ = p.Fprintf(w, "%s | %d | %d | %s | %s\n",
			r.Month, r.ListingCount, r.BookedNights,
			format.Money(r.GrossRevenueMinor, r.Currency), format.Money(r.NetRevenueMinor, r.Currency))
	}
	_, _ = fmt.Fprintf(w, "\n")
}

func prettyCashflow(w io.Writer, p *message.Printer, rows []domain.MonthlyCashflow) {
	_, _ = fmt.Fprintf(w, "--- Cashflow ---\n")
	_, _ = fmt.Fprintf(w, "Month   | Account | Listing | Payout | Transactions\n")
	_, _ = fmt.Fprintf(w, "_____   | _______ | _______ | ______ | ____________\n")
	for _, r := range rows {
		_, _ = p.Fprintf(w, "%s | %s | %s | %s | %d\n",
			r.Month, optional(r.AccountID), optional(r.ListingID),
			format.Money(r.PayoutMinor, r.Currency), r.TransactionCount)
	}
	_, _ = fmt.Fprintf(w, "\n")
}

func prettyTrailing(w io.Writer, p *message.Printer, listings, portfolio []domain.TrailingComparison) {
	if len(listings) == 0 && len(portfolio) == 0 {
		return
	}
	label := ""
	if len(listings) > 0 {
		label = listings[0].Label
	} else {
		label = portfolio[0].Label
	}
	_, _ = fmt.Fprintf(w, "--- Trailing comparison (%s) ---\n", label)
	_, _ = fmt.Fprintf(w, "Listing | Month   | Current | Trailing average | Change\n")
	_, _ = fmt.Fprintf(w, "_______ | _____   | _______ | ________________ | ______\n")
	for _, c := range portfolio {
		prettyComparison(w, p, "Portfolio", c)
	}
	for _, c := range listings {
		prettyComparison(w, p, listingLabel(c.ListingID, c.ListingName), c)
	}
	_, _ = fmt.Fprintf(w, "\n")
}

func prettyComparison(w io.Writer, p *message.Printer, name string, c domain.TrailingComparison) {
	change := format.Money(c.DeltaMinor, c.Currency)
	if c.DeltaPercent != nil {
		change += " (" + format.Percent(*c.DeltaPercent) + ")"
	}
	_, _ = p.Fprintf(w, "%s | %s | %s | %s | %s\n", name, c.Month,
		format.Money(c.CurrentMinor, c.Currency), format.Money(c.TrailingAverageMinor, c.Currency), change)
}

func prettyOccupancy(w io.Writer, p *message.Printer, byCurrency map[string][]domain.EstimatedOccupancy) {
	if len(byCurrency) == 0 {
		return
	}
	currencies := make([]string, 0, len(byCurrency))
	for c := range byCurrency {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)
	for _, currency := range currencies {
		_, _ = fmt.Fprintf(w, "--- Estimated occupancy (%s) ---\n", currency)
		_, _ = fmt.Fprintf(w, "Month   | Listings | Booked | Available | Rate\n")
		_, _ = fmt.Fprintf(w, "_____   | ________ | ______ | _________ | ____\n")
		for _, o := range byCurrency[currency] {
			rate := "n/a"
			if o.Rate != nil {
				rate = format.Percent(*o.Rate)
			}
			_, _ = p.Fprintf(w, "%s | %d | %d | %d | %s\n", o.Month, o.ListingsInService, o.BookedNights, o.AvailableNights, rate)
		}
		_, _ = fmt.Fprintf(w, "\n")
	}
}

func prettySnapshot(w io.Writer, p *message.Printer, snap *scope.Snapshot) {
	_, _ = fmt.Fprintf(w, "--- Forecast ---\n")
	_, _ = fmt.Fprintf(w, "Scope: %s\n", snap.Effective.Key())
	if snap.UsedFallback {
		_, _ = fmt.Fprintf(w, "Fallback: widened from %s\n", snap.Desired.Key())
	}
	if snap.FallbackReason != scope.ReasonNone {
		_, _ = fmt.Fprintf(w, "Reason: %s\n", snap.FallbackReason)
	}
	_, _ = p.Fprintf(w, "Training: %d rows, %d months, %d listings\n", snap.Training.Rows, snap.Training.Months, snap.Training.Listings)
	if snap.Result == nil || snap.Result.Empty() {
		_, _ = fmt.Fprintf(w, "No listing forecasts\n\n")
		return
	}
	_, _ = fmt.Fprintf(w, "Listing | Target  | Forecast | Range | Tier\n")
	_, _ = fmt.Fprintf(w, "_______ | ______  | ________ | _____ | ____\n")
	for _, l := range snap.Result.Listings {
		_, _ = p.Fprintf(w, "%s | %s | %s | %s - %s | %s\n",
			listingLabel(l.ListingID, l.ListingName), l.TargetMonth,
			format.Money(l.ForecastGrossRevenueMinor, l.Currency),
			format.NumericMoney(l.LowerBoundMinor, l.Currency), format.NumericMoney(l.UpperBoundMinor, l.Currency),
			l.Tier)
	}
	for _, pf := range snap.Result.Portfolios {
		_, _ = p.Fprintf(w, "Portfolio | %s | %s | %s - %s | %d listings\n",
			pf.TargetMonth, format.Money(pf.ForecastGrossRevenueMinor, pf.Currency),
			format.NumericMoney(pf.LowerBoundMinor, pf.Currency), format.NumericMoney(pf.UpperBoundMinor, pf.Currency),
			pf.ListingCount)
	}
	for _, ex := range snap.Result.Excluded {
		_, _ = fmt.Fprintf(w, "Excluded %s: %s\n", listingLabel(ex.ListingID, ex.ListingName), ex.Reason)
	}
	_, _ = fmt.Fprintf(w, "\n")
}

// CsvFormat writes realized listing performance in comma-separated value
// format. Amounts are plain major-unit decimals.
func CsvFormat(w io.Writer, report *engine.Report) {
	_, _ = fmt.Fprintf(w, `"month","listing_id","listing_name","account_id","currency","booked_nights","gross","net","cleaning_fees","service_fees"`+"\n")
	if report == nil {
		return
	}
	for _, r := range report.Realized {
		_, _ = fmt.Fprintf(w, `"%s","%s","%s","%s","%s","%d","%s","%s","%s","%s"`+"\n",
			r.Month, quote(r.ListingID), quote(r.ListingName), quote(r.AccountID), r.Currency, r.BookedNights,
			plain(r.GrossRevenueMinor, r.Currency), plain(r.NetRevenueMinor, r.Currency),
			plain(r.CleaningFeesMinor, r.Currency), plain(r.ServiceFeesMinor, r.Currency))
	}
}

// ForecastCsvFormat writes one row per listing forecast.
func ForecastCsvFormat(w io.Writer, snap *scope.Snapshot) {
	_, _ = fmt.Fprintf(w, `"listing_id","currency","target_month","training_months","forecast","lower","upper","mae","tier"`+"\n")
	if snap == nil || snap.Result == nil {
		return
	}
	for _, l := range snap.Result.Listings {
		_, _ = fmt.Fprintf(w, `"%s","%s","%s","%d","%s","%s","%s","%s","%s"`+"\n",
			quote(l.ListingID), l.Currency, l.TargetMonth, l.TrainingMonths,
			plain(l.ForecastGrossRevenueMinor, l.Currency), plain(l.LowerBoundMinor, l.Currency),
			plain(l.UpperBoundMinor, l.Currency), plain(l.MAEMinor, l.Currency), l.Tier)
	}
}

// YamlFormat writes v as a YAML document.
func YamlFormat(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

func listingLabel(id, name string) string {
	if id == domain.UnattributedListingID {
		return unattributed
	}
	if name == "" || name == id {
		return id
	}
	return fmt.Sprintf("%s (%s)", name, id)
}

func optional(s *string) string {
	if s == nil {
		return unattributed
	}
	return *s
}

func plain(amountMinor int64, currency string) string {
	return format.Major(amountMinor, currency).StringFixed(format.MinorUnitExponent(currency))
}

func quote(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}
