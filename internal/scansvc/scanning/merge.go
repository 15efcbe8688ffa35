package scanning

import (
	"strings"
	"time"

	"github.com/avvvet/palletscan-services/internal/scansvc/models"
)

// MergeOutcome tells whether a scan opened a new SKU line or accumulated into an existing one.
type MergeOutcome int

const (
	Created MergeOutcome = iota + 1
	Merged
)

func (o MergeOutcome) String() string {
	switch o {
	case Created:
		return "created"
	case Merged:
		return "merged"
	default:
		return "unknown"
	}
}

type MergeResult struct {
	Line    models.SkuLine
	Outcome MergeOutcome
}

// Merge applies entry to the lines already on palletID. A line with the same code (case
// insensitive, exact) absorbs the quantity and one more scan event; otherwise a new line is
// returned with ID zero for the caller to insert. The input slice is not modified.
func Merge(palletID int64, entry ScanEntry, existing []models.SkuLine, now time.Time) (MergeResult, error) {
	code := strings.TrimSpace(entry.Code)
	if code == "" {
		return MergeResult{}, Validation("sku code is required")
	}
	if entry.Quantity <= 0 {
		return MergeResult{}, Validation("quantity must be greater than zero")
	}
	if entry.Quantity > MaxQuantity {
		return MergeResult{}, Validation("quantity %d exceeds the maximum of %d", entry.Quantity, MaxQuantity)
	}

	for _, line := range existing {
		if line.PalletID != palletID || !strings.EqualFold(line.Code, code) {
			continue
		}

		qty, ok := addChecked(line.Quantity, entry.Quantity)
		if !ok {
			return MergeResult{}, Conflict("sku %s on pallet %d would exceed %d pieces", line.Code, palletID, MaxQuantity)
		}
		count, ok := addChecked(line.ScanCount, 1)
		if !ok {
			return MergeResult{}, Conflict("sku %s on pallet %d reached the scan count limit", line.Code, palletID)
		}

		merged := line
		merged.Quantity = qty
		merged.ScanCount = count
		return MergeResult{Line: merged, Outcome: Merged}, nil
	}

	return MergeResult{
		Line: models.SkuLine{
			PalletID:  palletID,
			Code:      code,
			Quantity:  entry.Quantity,
			ScanCount: 1,
			CreatedAt: now,
		},
		Outcome: Created,
	}, nil
}

func addChecked(a, b int) (int, bool) {
	if a < 0 || b < 0 || a > MaxQuantity-b {
		return 0, false
	}
	return a + b, true
}
