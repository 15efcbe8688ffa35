package models

import "time"

type Scan struct {
	ID            int64      `json:"id"`                // Primary key
	ControlNumber string     `json:"scanControlNumber"` // SC + 10 digit counter + year
	CreatedAt     time.Time  `json:"scanDate"`
	Finished      bool       `json:"scanFinished"`
	FinishedAt    *time.Time `json:"scanFinishedDate"` // nil while the scan is open
	PalletCounter int64      `json:"-"`                // last pallet number handed out for this scan
}
