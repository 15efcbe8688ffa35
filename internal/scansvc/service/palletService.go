package service

import (
	"context"
	"strings"
	"time"

	"github.com/avvvet/palletscan-services/internal/comm"
	"github.com/avvvet/palletscan-services/internal/scansvc/models"
	"github.com/avvvet/palletscan-services/internal/scansvc/scanning"
)

const maxPalletNumberLength = 64

type PalletStore interface {
	CreatePallet(ctx context.Context, scanID int64, number *string, now time.Time) (*models.Pallet, error)
	GetPallet(ctx context.Context, id int64) (*models.Pallet, error)
	RenamePallet(ctx context.Context, id int64, number string) (*models.Pallet, error)
	DeletePallet(ctx context.Context, id int64) (*models.Pallet, error)
}

type PalletService struct {
	pallets PalletStore
	events  notifier
	now     func() time.Time
}

func NewPalletService(pallets PalletStore, pub Publisher) *PalletService {
	return &PalletService{
		pallets: pallets,
		events:  notifier{pub: pub},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreatePallet adds a pallet to a scan. Without a number the next P-number of the scan is used.
// Finished scans still accept pallets.
func (s *PalletService) CreatePallet(ctx context.Context, scanID int64, number *string) (*models.Pallet, error) {
	if err := requireID("scan", scanID); err != nil {
		return nil, err
	}
	if number != nil && len(strings.TrimSpace(*number)) > maxPalletNumberLength {
		return nil, scanning.Validation("pallet number is longer than %d characters", maxPalletNumberLength)
	}

	p, err := s.pallets.CreatePallet(ctx, scanID, number, s.now())
	if err != nil {
		return nil, err
	}
	s.events.emit(ctx, comm.ScanEvent{Type: comm.EventPalletCreated, ScanID: p.ScanID, PalletID: p.ID, Pallet: p, At: p.CreatedAt})
	return p, nil
}

func (s *PalletService) GetPallet(ctx context.Context, id int64) (*models.Pallet, error) {
	if err := requireID("pallet", id); err != nil {
		return nil, err
	}
	return s.pallets.GetPallet(ctx, id)
}

func (s *PalletService) RenamePallet(ctx context.Context, id int64, number string) (*models.Pallet, error) {
	if err := requireID("pallet", id); err != nil {
		return nil, err
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, scanning.Validation("pallet number is required")
	}
	if len(number) > maxPalletNumberLength {
		return nil, scanning.Validation("pallet number is longer than %d characters", maxPalletNumberLength)
	}

	p, err := s.pallets.RenamePallet(ctx, id, number)
	if err != nil {
		return nil, err
	}
	s.events.emit(ctx, comm.ScanEvent{Type: comm.EventPalletRenamed, ScanID: p.ScanID, PalletID: p.ID, Pallet: p})
	return p, nil
}

// DeletePallet removes the pallet together with its SKU lines.
func (s *PalletService) DeletePallet(ctx context.Context, id int64) error {
	if err := requireID("pallet", id); err != nil {
		return err
	}
	p, err := s.pallets.DeletePallet(ctx, id)
	if err != nil {
		return err
	}
	s.events.emit(ctx, comm.ScanEvent{Type: comm.EventPalletDeleted, ScanID: p.ScanID, PalletID: p.ID, Pallet: p})
	return nil
}
