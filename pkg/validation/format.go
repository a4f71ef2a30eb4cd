// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/bertsdev33/himata-sub000/pkg/constants"
	"github.com/bertsdev33/himata-sub000/pkg/datetime"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatYAML:
		return nil
	}
	return fmt.Errorf("expected output format of %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatYAML, format)
}

// ValidateMonthRange checks optional YYYY-MM bounds. Either may be empty.
func ValidateMonthRange(start, end string) error {
	if start != "" && !datetime.IsMonth(start) {
		return fmt.Errorf("start month %q is not in %s format", start, constants.DateTimeLayout)
	}
	if end != "" && !datetime.IsMonth(end) {
		return fmt.Errorf("end month %q is not in %s format", end, constants.DateTimeLayout)
	}
	if start != "" && end != "" && start > end {
		return fmt.Errorf("start month %s is after end month %s", start, end)
	}
	return nil
}
