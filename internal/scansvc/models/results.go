package models

import "time"

type ScanResults struct {
	ScanID            int64           `json:"scanId"`
	ScanControlNumber string          `json:"scanControlNumber"`
	PalletCount       int             `json:"palletCount"`
	SkuUniqueCount    int             `json:"skuUniqueCount"`
	SkuCount          int             `json:"skuCount"`
	TotalPieces       int64           `json:"totalPieces"`
	DateCreated       time.Time       `json:"dateCreated"`
	DateFinished      *time.Time      `json:"dateFinished"`
	Pallets           []PalletSummary `json:"pallets"`
}

// SkuTotal is one code summed over every pallet of a scan.
type SkuTotal struct {
	Code        string `json:"code"`
	Quantity    int64  `json:"quantity"`
	ScanCount   int64  `json:"scanCount"`
	PalletCount int    `json:"palletCount"`
}
