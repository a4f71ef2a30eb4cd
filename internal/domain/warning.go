package domain

import "fmt"

// WarningCode names a recoverable data-shape problem.
type WarningCode string

const (
	WarningMalformedStay     WarningCode = "malformed_stay_window"
	WarningMissingDate       WarningCode = "missing_date"
	WarningUnknownKind       WarningCode = "unknown_kind"
	WarningMissingCurrency   WarningCode = "missing_currency"
	WarningCurrencyMismatch  WarningCode = "currency_mismatch"
	WarningUnattributed      WarningCode = "unattributed_performance"
	WarningNegativeNights    WarningCode = "negative_nights"
	WarningInvalidAllocation WarningCode = "invalid_allocation"
	WarningMissingID         WarningCode = "missing_transaction_id"
	WarningDuplicateID       WarningCode = "duplicate_transaction_id"
)

// Warning is a non-fatal problem found while processing a transaction. The
// transaction was recovered with a safe default.
type Warning struct {
	Code          WarningCode `json:"code"`
	TransactionID string      `json:"transactionId,omitempty"`
	Message       string      `json:"message"`
}

// NewWarning builds a Warning with a formatted message.
func NewWarning(code WarningCode, transactionID string, format string, args ...interface{}) Warning {
	return Warning{Code: code, TransactionID: transactionID, Message: fmt.Sprintf(format, args...)}
}

func (w Warning) String() string {
	if w.TransactionID == "" {
		return fmt.Sprintf("[%s] %s", w.Code, w.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", w.Code, w.TransactionID, w.Message)
}
