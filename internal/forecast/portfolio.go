package forecast

import "sort"

// PortfolioForecast sums the listing forecasts of one currency that share one
// target month.
type PortfolioForecast struct {
	Currency                  string   `json:"currency" yaml:"currency"`
	TargetMonth               string   `json:"targetMonth" yaml:"targetMonth"`
	ListingCount              int      `json:"listingCount" yaml:"listingCount"`
	ForecastGrossRevenueMinor int64    `json:"forecastGrossRevenueMinor" yaml:"forecastGrossRevenueMinor"`
	LowerBoundMinor           int64    `json:"lowerBoundMinor" yaml:"lowerBoundMinor"`
	UpperBoundMinor           int64    `json:"upperBoundMinor" yaml:"upperBoundMinor"`
	ListingIDs                []string `json:"listingIds" yaml:"listingIds"`
	// OmittedListingIDs were forecast for a different target month and are
	// not part of the totals.
	OmittedListingIDs []string `json:"omittedListingIds,omitempty" yaml:"omittedListingIds,omitempty"`
}

// BuildPortfolios returns one roll-up per currency, ordered by currency.
// Amounts in different currencies are never summed together.
func BuildPortfolios(listings []ListingForecast) []PortfolioForecast {
	byCurrency := make(map[string][]ListingForecast)
	var currencies []string
	for _, l := range listings {
		if _, ok := byCurrency[l.Currency]; !ok {
			currencies = append(currencies, l.Currency)
		}
		byCurrency[l.Currency] = append(byCurrency[l.Currency], l)
	}
	sort.Strings(currencies)

	var out []PortfolioForecast
	for _, c := range currencies {
		if p := BuildPortfolio(byCurrency[c]); p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// BuildPortfolio groups listings of a single currency by target month, keeps
// the group with the most listings (earliest target month on ties) and sums
// its point estimates and bounds independently. Nil when there are no
// listings or when they span more than one currency.
func BuildPortfolio(listings []ListingForecast) *PortfolioForecast {
	if len(listings) == 0 {
		return nil
	}

	currency := listings[0].Currency
	counts := make(map[string]int)
	for _, l := range listings {
		if l.Currency != currency {
			return nil
		}
		counts[l.TargetMonth]++
	}
	months := make([]string, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Strings(months)

	target := months[0]
	for _, m := range months[1:] {
		if counts[m] > counts[target] {
			target = m
		}
	}

	p := &PortfolioForecast{Currency: currency, TargetMonth: target}
	for _, l := range listings {
		if l.TargetMonth != target {
			p.OmittedListingIDs = append(p.OmittedListingIDs, l.ListingID)
			continue
		}
		p.ListingCount++
		p.ListingIDs = append(p.ListingIDs, l.ListingID)
		p.ForecastGrossRevenueMinor += l.ForecastGrossRevenueMinor
		p.LowerBoundMinor += l.LowerBoundMinor
		p.UpperBoundMinor += l.UpperBoundMinor
	}
	return p
}
