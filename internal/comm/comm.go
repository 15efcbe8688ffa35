package comm

import (
	"encoding/json"
	"time"

	"github.com/avvvet/palletscan-services/internal/scansvc/models"
)

// ScanServiceTopic carries every scan event published by the scan service.
const ScanServiceTopic = "scan.service"

const (
	EventScanStarted   = "scan-started"
	EventScanFinished  = "scan-finished"
	EventScanReopened  = "scan-reopened"
	EventScanDeleted   = "scan-deleted"
	EventPalletCreated = "pallet-created"
	EventPalletRenamed = "pallet-renamed"
	EventPalletDeleted = "pallet-deleted"
	EventSkuCreated    = "sku-created"
	EventSkuMerged     = "sku-merged"
	EventSkuDeleted    = "sku-deleted"
)

type WSMessage struct {
	Type     string          `json:"type"` // e.g. "subscribe", "sku-merged"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid,omitempty"`
}

// ScanEvent is the payload of every event on ScanServiceTopic. Only the entity the event is about is set.
type ScanEvent struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	ScanID   int64           `json:"scanId"`
	PalletID int64           `json:"palletId,omitempty"`
	Scan     *models.Scan    `json:"scan,omitempty"`
	Pallet   *models.Pallet  `json:"pallet,omitempty"`
	Line     *models.SkuLine `json:"line,omitempty"`
	Outcome  string          `json:"outcome,omitempty"` // created or merged
	At       time.Time       `json:"at"`
}

// Subscription is sent by websocket clients to follow or stop following one scan.
type Subscription struct {
	ScanID int64 `json:"scanId"`
}
