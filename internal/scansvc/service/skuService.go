package service

import (
	"context"
	"time"

	"github.com/avvvet/palletscan-services/internal/comm"
	"github.com/avvvet/palletscan-services/internal/scansvc/models"
	"github.com/avvvet/palletscan-services/internal/scansvc/scanning"
)

type SkuStore interface {
	ApplyScan(ctx context.Context, palletID int64, entry scanning.ScanEntry, now time.Time) (scanning.MergeResult, int64, error)
	GetSkuLine(ctx context.Context, id int64) (*models.SkuLine, error)
	ListByPallet(ctx context.Context, palletID int64) ([]models.SkuLine, error)
	DeleteSkuLine(ctx context.Context, id int64) (*models.SkuLine, int64, error)
}

type PalletFinder interface {
	GetPallet(ctx context.Context, id int64) (*models.Pallet, error)
}

type SkuService struct {
	skus    SkuStore
	pallets PalletFinder
	events  notifier
	now     func() time.Time
}

func NewSkuService(skus SkuStore, pallets PalletFinder, pub Publisher) *SkuService {
	return &SkuService{
		skus:    skus,
		pallets: pallets,
		events:  notifier{pub: pub},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RecordScan parses a scanned token (P<sku>Q<qty> or Q<qty>P<sku>) and merges it into the pallet.
func (s *SkuService) RecordScan(ctx context.Context, palletID int64, raw string) (scanning.MergeResult, error) {
	entry, err := scanning.ParseScan(raw)
	if err != nil {
		return scanning.MergeResult{}, err
	}
	return s.record(ctx, palletID, entry)
}

// RecordFields accepts the two-field form where the code and the quantity arrive separately.
func (s *SkuService) RecordFields(ctx context.Context, palletID int64, skuCode, quantity string) (scanning.MergeResult, error) {
	entry, err := scanning.ParseFields(skuCode, quantity)
	if err != nil {
		return scanning.MergeResult{}, err
	}
	return s.record(ctx, palletID, entry)
}

func (s *SkuService) record(ctx context.Context, palletID int64, entry scanning.ScanEntry) (scanning.MergeResult, error) {
	if err := requireID("pallet", palletID); err != nil {
		return scanning.MergeResult{}, err
	}

	now := s.now()
	res, scanID, err := s.skus.ApplyScan(ctx, palletID, entry, now)
	if err != nil {
		return scanning.MergeResult{}, err
	}

	eventType := comm.EventSkuCreated
	if res.Outcome == scanning.Merged {
		eventType = comm.EventSkuMerged
	}
	line := res.Line
	s.events.emit(ctx, comm.ScanEvent{
		Type:     eventType,
		ScanID:   scanID,
		PalletID: palletID,
		Line:     &line,
		Outcome:  res.Outcome.String(),
		At:       now,
	})
	return res, nil
}

func (s *SkuService) GetSkuLine(ctx context.Context, id int64) (*models.SkuLine, error) {
	if err := requireID("sku line", id); err != nil {
		return nil, err
	}
	return s.skus.GetSkuLine(ctx, id)
}

func (s *SkuService) ListSkuLines(ctx context.Context, palletID int64) ([]models.SkuLine, error) {
	if err := requireID("pallet", palletID); err != nil {
		return nil, err
	}
	if _, err := s.pallets.GetPallet(ctx, palletID); err != nil {
		return nil, err
	}
	return s.skus.ListByPallet(ctx, palletID)
}

func (s *SkuService) DeleteSkuLine(ctx context.Context, id int64) error {
	if err := requireID("sku line", id); err != nil {
		return err
	}
	line, scanID, err := s.skus.DeleteSkuLine(ctx, id)
	if err != nil {
		return err
	}
	s.events.emit(ctx, comm.ScanEvent{Type: comm.EventSkuDeleted, ScanID: scanID, PalletID: line.PalletID, Line: line})
	return nil
}
