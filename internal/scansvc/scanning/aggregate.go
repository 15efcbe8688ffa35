package scanning

import (
	"sort"
	"strings"

	"github.com/avvvet/palletscan-services/internal/scansvc/models"
)

// Snapshot is everything a scan owns, read at one point in time.
type Snapshot struct {
	Scan    models.Scan
	Pallets []models.Pallet
	Lines   []models.SkuLine
}

// SummarizePallet totals the lines that belong to p. Lines of other pallets are ignored.
func SummarizePallet(p models.Pallet, lines []models.SkuLine) models.PalletSummary {
	s := models.PalletSummary{Pallet: p}
	for _, l := range lines {
		if l.PalletID != p.ID {
			continue
		}
		s.TotalQuantity += int64(l.Quantity)
		s.TotalScanCount += int64(l.ScanCount)
	}
	return s
}

// SummarizePallets returns one summary per pallet, in the order of snap.Pallets.
func SummarizePallets(snap Snapshot) []models.PalletSummary {
	byPallet := groupLines(snap.Lines)
	out := make([]models.PalletSummary, 0, len(snap.Pallets))
	for _, p := range snap.Pallets {
		out = append(out, SummarizePallet(p, byPallet[p.ID]))
	}
	return out
}

// SummarizeScan computes the scan roll-up. Only lines on the scan's own pallets are counted and
// pallets are counted once each, however many lines they carry.
func SummarizeScan(snap Snapshot) models.ScanResults {
	res := models.ScanResults{
		ScanID:            snap.Scan.ID,
		ScanControlNumber: snap.Scan.ControlNumber,
		DateCreated:       snap.Scan.CreatedAt,
		DateFinished:      snap.Scan.FinishedAt,
		Pallets:           SummarizePallets(snap),
	}

	pallets := make(map[int64]struct{}, len(snap.Pallets))
	for _, p := range snap.Pallets {
		pallets[p.ID] = struct{}{}
	}
	res.PalletCount = len(pallets)

	codes := make(map[string]struct{})
	for _, l := range snap.Lines {
		if _, ok := pallets[l.PalletID]; !ok {
			continue
		}
		codes[normalizeCode(l.Code)] = struct{}{}
		res.SkuCount++
		res.TotalPieces += int64(l.Quantity)
	}
	res.SkuUniqueCount = len(codes)

	return res
}

// SummarizeSkus sums each code across every pallet of the scan, sorted by code.
func SummarizeSkus(snap Snapshot) []models.SkuTotal {
	pallets := make(map[int64]struct{}, len(snap.Pallets))
	for _, p := range snap.Pallets {
		pallets[p.ID] = struct{}{}
	}

	totals := make(map[string]*models.SkuTotal)
	seen := make(map[string]map[int64]struct{})
	for _, l := range snap.Lines {
		if _, ok := pallets[l.PalletID]; !ok {
			continue
		}
		key := normalizeCode(l.Code)
		t, ok := totals[key]
		if !ok {
			// first spelling seen wins for display
			t = &models.SkuTotal{Code: strings.TrimSpace(l.Code)}
			totals[key] = t
			seen[key] = make(map[int64]struct{})
		}
		t.Quantity += int64(l.Quantity)
		t.ScanCount += int64(l.ScanCount)
		seen[key][l.PalletID] = struct{}{}
	}

	out := make([]models.SkuTotal, 0, len(totals))
	for key, t := range totals {
		t.PalletCount = len(seen[key])
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		return normalizeCode(out[i].Code) < normalizeCode(out[j].Code)
	})
	return out
}

func groupLines(lines []models.SkuLine) map[int64][]models.SkuLine {
	out := make(map[int64][]models.SkuLine)
	for _, l := range lines {
		out[l.PalletID] = append(out[l.PalletID], l)
	}
	return out
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
