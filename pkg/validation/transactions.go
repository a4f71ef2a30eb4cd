package validation

import (
	"github.com/bertsdev33/himata-sub000/internal/domain"
)

// ValidateTransactions reports identity problems the per-transaction
// allocation cannot see: missing and repeated transaction ids.
func ValidateTransactions(txs []domain.Transaction) []domain.Warning {
	var warnings []domain.Warning
	seen := make(map[string]int, len(txs))

	for i, tx := range txs {
		if tx.ID == "" {
			warnings = append(warnings, domain.NewWarning(domain.WarningMissingID, "",
				"transaction at position %d has no id", i))
			continue
		}
		if first, ok := seen[tx.ID]; ok {
			warnings = append(warnings, domain.NewWarning(domain.WarningDuplicateID, tx.ID,
				"id also used by transaction at position %d", first))
			continue
		}
		seen[tx.ID] = i
	}

	return warnings
}
