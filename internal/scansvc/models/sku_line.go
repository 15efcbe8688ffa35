package models

import "time"

type SkuLine struct {
	ID        int64     `json:"id"`       // Primary key
	PalletID  int64     `json:"palletId"` // FK to pallets(id)
	Code      string    `json:"code"`
	Quantity  int       `json:"quantity"`  // sum of every scan of this code on the pallet
	ScanCount int       `json:"scanCount"` // number of scans that contributed to Quantity
	CreatedAt time.Time `json:"dateCreated"`
}
