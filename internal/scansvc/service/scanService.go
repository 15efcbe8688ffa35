package service

import (
	"context"
	"time"

	"github.com/avvvet/palletscan-services/internal/comm"
	"github.com/avvvet/palletscan-services/internal/scansvc/models"
	"github.com/avvvet/palletscan-services/internal/scansvc/scanning"
)

type ScanStore interface {
	CreateScan(ctx context.Context, now time.Time) (*models.Scan, error)
	GetScan(ctx context.Context, id int64) (*models.Scan, error)
	ListScans(ctx context.Context, f scanning.ScanFilter) ([]models.Scan, error)
	TransitionScan(ctx context.Context, id int64, fn scanning.Transition, now time.Time) (*models.Scan, scanning.State, error)
	DeleteScan(ctx context.Context, id int64) error
	LoadSnapshot(ctx context.Context, scanID int64) (scanning.Snapshot, error)
}

type ScanService struct {
	scans  ScanStore
	events notifier
	now    func() time.Time
}

func NewScanService(scans ScanStore, pub Publisher) *ScanService {
	return &ScanService{
		scans:  scans,
		events: notifier{pub: pub},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// StartScan opens a new scan session with the next control number of the year.
func (s *ScanService) StartScan(ctx context.Context) (*models.Scan, error) {
	scan, err := s.scans.CreateScan(ctx, s.now())
	if err != nil {
		return nil, err
	}
	s.events.emit(ctx, comm.ScanEvent{Type: comm.EventScanStarted, ScanID: scan.ID, Scan: scan, At: scan.CreatedAt})
	return scan, nil
}

func (s *ScanService) GetScan(ctx context.Context, id int64) (*models.Scan, error) {
	if err := requireID("scan", id); err != nil {
		return nil, err
	}
	return s.scans.GetScan(ctx, id)
}

// ListScans lists scans by status (pending, finished or all) and creation date.
func (s *ScanService) ListScans(ctx context.Context, status string, from, to *time.Time) ([]models.Scan, error) {
	f, err := scanning.ResolveScanFilter(status, from, to, s.now())
	if err != nil {
		return nil, err
	}
	return s.scans.ListScans(ctx, f)
}

func (s *ScanService) FinishScan(ctx context.Context, id int64) (*models.Scan, error) {
	return s.transition(ctx, id, scanning.Finish, comm.EventScanFinished)
}

// ReopenScan puts a scan back into the open state so scanning can continue.
func (s *ScanService) ReopenScan(ctx context.Context, id int64) (*models.Scan, error) {
	return s.transition(ctx, id, scanning.Reopen, comm.EventScanReopened)
}

func (s *ScanService) transition(ctx context.Context, id int64, fn scanning.Transition, eventType string) (*models.Scan, error) {
	if err := requireID("scan", id); err != nil {
		return nil, err
	}
	now := s.now()
	scan, _, err := s.scans.TransitionScan(ctx, id, fn, now)
	if err != nil {
		return nil, err
	}
	s.events.emit(ctx, comm.ScanEvent{Type: eventType, ScanID: scan.ID, Scan: scan, At: now})
	return scan, nil
}

func (s *ScanService) DeleteScan(ctx context.Context, id int64) error {
	if err := requireID("scan", id); err != nil {
		return err
	}
	if err := s.scans.DeleteScan(ctx, id); err != nil {
		return err
	}
	s.events.emit(ctx, comm.ScanEvent{Type: comm.EventScanDeleted, ScanID: id, At: s.now()})
	return nil
}

// GetScanSummary computes the roll-up of a scan from a consistent snapshot. Nothing is cached.
func (s *ScanService) GetScanSummary(ctx context.Context, id int64) (*models.ScanResults, error) {
	snap, err := s.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	res := scanning.SummarizeScan(snap)
	return &res, nil
}

// ListPallets returns the pallets of a scan with their totals.
func (s *ScanService) ListPallets(ctx context.Context, scanID int64) ([]models.PalletSummary, error) {
	snap, err := s.snapshot(ctx, scanID)
	if err != nil {
		return nil, err
	}
	return scanning.SummarizePallets(snap), nil
}

func (s *ScanService) GetSkuTotals(ctx context.Context, scanID int64) ([]models.SkuTotal, error) {
	snap, err := s.snapshot(ctx, scanID)
	if err != nil {
		return nil, err
	}
	return scanning.SummarizeSkus(snap), nil
}

func (s *ScanService) snapshot(ctx context.Context, scanID int64) (scanning.Snapshot, error) {
	if err := requireID("scan", scanID); err != nil {
		return scanning.Snapshot{}, err
	}
	return s.scans.LoadSnapshot(ctx, scanID)
}
