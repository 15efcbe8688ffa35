package models

import "time"

type Pallet struct {
	ID           int64     `json:"id"`           // Primary key
	ScanID       int64     `json:"scanId"`       // FK to scans(id), never changes
	PalletNumber *string   `json:"palletNumber"` // typed by the operator or P + 6 digits
	CreatedAt    time.Time `json:"dateCreated"`
}

// PalletSummary is a pallet with totals derived from its SKU lines.
type PalletSummary struct {
	Pallet
	TotalQuantity  int64 `json:"totalQuantity"`
	TotalScanCount int64 `json:"totalScanCount"`
}
