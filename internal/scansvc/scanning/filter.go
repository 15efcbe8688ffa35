package scanning

import (
	"strings"
	"time"
)

const (
	StatusAll      = "all"
	StatusPending  = "pending"
	StatusFinished = "finished"
)

// ScanFilter selects scans by state and by creation date (date only, both ends inclusive).
// Nil fields do not filter.
type ScanFilter struct {
	Finished *bool
	From     *time.Time
	To       *time.Time
}

// ResolveScanFilter applies the listing defaults. Without dates every status but pending is
// limited to today; pending scans are listed regardless of age.
func ResolveScanFilter(status string, from, to *time.Time, now time.Time) (ScanFilter, error) {
	var f ScanFilter

	normalized := strings.ToLower(strings.TrimSpace(status))
	switch normalized {
	case "", StatusAll:
		normalized = StatusAll
	case StatusPending:
		v := false
		f.Finished = &v
	case StatusFinished:
		v := true
		f.Finished = &v
	default:
		return ScanFilter{}, Validation("unknown status %q: use pending, finished or all", status)
	}

	if from == nil && to == nil {
		if normalized == StatusPending {
			return f, nil
		}
		today := DateOf(now)
		f.From, f.To = &today, &today
		return f, nil
	}

	if from != nil {
		d := DateOf(*from)
		f.From = &d
	}
	if to != nil {
		d := DateOf(*to)
		f.To = &d
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return ScanFilter{}, Validation("from date %s is after to date %s",
			f.From.Format(time.DateOnly), f.To.Format(time.DateOnly))
	}
	return f, nil
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
