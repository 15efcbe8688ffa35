package scanning

import (
	"fmt"
	"time"
)

const (
	controlNumberDigits = 10
	palletNumberDigits  = 6

	maxControlCounter = 9_999_999_999
	maxPalletCounter  = 999_999
)

// FormatControlNumber renders a yearly scan counter as SC + 10 digits + 4 digit year.
func FormatControlNumber(counter int64, year int) (string, error) {
	if counter < 1 {
		return "", Conflict("control number counter %d is not positive", counter)
	}
	if counter > maxControlCounter {
		return "", Conflict("control number counter for %d is exhausted", year)
	}
	if year < 1 || year > 9999 {
		return "", Validation("year %d cannot be rendered in a control number", year)
	}
	return fmt.Sprintf("SC%0*d%04d", controlNumberDigits, counter, year), nil
}

// FormatPalletNumber renders a per-scan pallet counter as P + 6 digits.
func FormatPalletNumber(counter int64) (string, error) {
	if counter < 1 {
		return "", Conflict("pallet counter %d is not positive", counter)
	}
	if counter > maxPalletCounter {
		return "", Conflict("pallet numbers for this scan are exhausted")
	}
	return fmt.Sprintf("P%0*d", palletNumberDigits, counter), nil
}

// CounterYear is the year the control number counter is keyed on.
func CounterYear(now time.Time) int {
	return now.UTC().Year()
}
