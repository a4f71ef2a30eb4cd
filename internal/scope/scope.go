// Package scope normalizes training scopes and negotiates which scope a
// forecast is actually trained on.
package scope

import (
	"sort"
	"strings"

	"github.com/bertsdev33/himata-sub000/internal/domain"
)

// TrainingScope selects the monthly performance rows a forecast trains on.
// Nil slices and nil months mean "no restriction".
type TrainingScope struct {
	Currency   string   `json:"currency" yaml:"currency"`
	AccountIDs []string `json:"accountIds,omitempty" yaml:"accountIds,omitempty"`
	ListingIDs []string `json:"listingIds,omitempty" yaml:"listingIds,omitempty"`
	StartMonth *string  `json:"startMonth,omitempty" yaml:"startMonth,omitempty"`
	EndMonth   *string  `json:"endMonth,omitempty" yaml:"endMonth,omitempty"`
}

// Normalize returns a copy with sorted, deduplicated identifiers and blank
// fields coalesced to nil. Semantically equal scopes normalize identically.
func (s TrainingScope) Normalize() TrainingScope {
	return TrainingScope{
		Currency:   domain.NormalizeCurrency(s.Currency),
		AccountIDs: normalizeIDs(s.AccountIDs),
		ListingIDs: normalizeIDs(s.ListingIDs),
		StartMonth: normalizeMonth(s.StartMonth),
		EndMonth:   normalizeMonth(s.EndMonth),
	}
}

func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func normalizeMonth(month *string) *string {
	if month == nil {
		return nil
	}
	m := strings.TrimSpace(*month)
	if m == "" {
		return nil
	}
	return &m
}

// Equal compares two scopes after normalization.
func (s TrainingScope) Equal(other TrainingScope) bool {
	return s.Key() == other.Key()
}

// Key is a stable string form of the normalized scope, usable as a cache key.
func (s TrainingScope) Key() string {
	n := s.Normalize()
	var b strings.Builder
	b.WriteString(n.Currency)
	b.WriteString("|accounts=")
	b.WriteString(strings.Join(n.AccountIDs, ","))
	b.WriteString("|listings=")
	b.WriteString(strings.Join(n.ListingIDs, ","))
	b.WriteString("|from=")
	if n.StartMonth != nil {
		b.WriteString(*n.StartMonth)
	}
	b.WriteString("|to=")
	if n.EndMonth != nil {
		b.WriteString(*n.EndMonth)
	}
	return b.String()
}

// HasDateRange reports whether either month bound is set.
func (s TrainingScope) HasDateRange() bool {
	n := s.Normalize()
	return n.StartMonth != nil || n.EndMonth != nil
}

// WithoutDateRange returns the normalized scope over full history.
func (s TrainingScope) WithoutDateRange() TrainingScope {
	n := s.Normalize()
	n.StartMonth = nil
	n.EndMonth = nil
	return n
}

// Filter returns the rows the scope selects, in input order.
func (s TrainingScope) Filter(rows []domain.MonthlyListingPerformance) []domain.MonthlyListingPerformance {
	n := s.Normalize()
	accounts := toSet(n.AccountIDs)
	listings := toSet(n.ListingIDs)

	var out []domain.MonthlyListingPerformance
	for _, r := range rows {
		if n.Currency != "" && r.Currency != n.Currency {
			continue
		}
		if accounts != nil {
			if _, ok := accounts[r.AccountID]; !ok {
				continue
			}
		}
		if listings != nil {
			if _, ok := listings[r.ListingID]; !ok {
				continue
			}
		}
		if n.StartMonth != nil && r.Month < *n.StartMonth {
			continue
		}
		if n.EndMonth != nil && r.Month > *n.EndMonth {
			continue
		}
		out = append(out, r)
	}
	return out
}

func toSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Month returns a pointer to month, for building scopes inline.
func Month(month string) *string {
	return &month
}
