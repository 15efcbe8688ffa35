package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/avvvet/palletscan-services/internal/comm"
	"github.com/avvvet/palletscan-services/internal/scansvc/models"
	"github.com/avvvet/palletscan-services/internal/scansvc/scanning"
)

// memStore mirrors the SQL stores in memory. One mutex plays the part of the row locks.
type memStore struct {
	mu sync.Mutex

	counter int64
	year    int
	nextID  int64

	scans   map[int64]*models.Scan
	pallets map[int64]*models.Pallet
	lines   map[int64]*models.SkuLine
}

func newMemStore() *memStore {
	return &memStore{
		scans:   map[int64]*models.Scan{},
		pallets: map[int64]*models.Pallet{},
		lines:   map[int64]*models.SkuLine{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) CreateScan(_ context.Context, now time.Time) (*models.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	year := scanning.CounterYear(now)
	if year != m.year {
		m.year, m.counter = year, 0
	}
	m.counter++
	cn, err := scanning.FormatControlNumber(m.counter, m.year)
	if err != nil {
		return nil, err
	}
	s := scanning.NewScan(cn, now)
	s.ID = m.id()
	m.scans[s.ID] = &s
	out := s
	return &out, nil
}

func (m *memStore) GetScan(_ context.Context, id int64) (*models.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scans[id]
	if !ok {
		return nil, scanning.NotFound("scan", id)
	}
	out := *s
	return &out, nil
}

func (m *memStore) ListScans(_ context.Context, f scanning.ScanFilter) ([]models.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Scan{}
	for _, s := range m.scans {
		if f.Finished != nil && s.Finished != *f.Finished {
			continue
		}
		day := scanning.DateOf(s.CreatedAt)
		if f.From != nil && day.Before(*f.From) {
			continue
		}
		if f.To != nil && day.After(*f.To) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) TransitionScan(_ context.Context, id int64, fn scanning.Transition, now time.Time) (*models.Scan, scanning.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scans[id]
	if !ok {
		return nil, "", scanning.NotFound("scan", id)
	}
	working := *s
	prev, err := fn(&working, now)
	if err != nil {
		return nil, "", err
	}
	*s = working
	out := working
	return &out, prev, nil
}

func (m *memStore) DeleteScan(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.scans[id]; !ok {
		return scanning.NotFound("scan", id)
	}
	for pid, p := range m.pallets {
		if p.ScanID == id {
			m.deleteLinesOf(pid)
			delete(m.pallets, pid)
		}
	}
	delete(m.scans, id)
	return nil
}

func (m *memStore) LoadSnapshot(_ context.Context, scanID int64) (scanning.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scans[scanID]
	if !ok {
		return scanning.Snapshot{}, scanning.NotFound("scan", scanID)
	}
	snap := scanning.Snapshot{Scan: *s, Pallets: []models.Pallet{}, Lines: []models.SkuLine{}}
	for _, p := range m.pallets {
		if p.ScanID == scanID {
			snap.Pallets = append(snap.Pallets, *p)
		}
	}
	sort.Slice(snap.Pallets, func(i, j int) bool { return snap.Pallets[i].ID < snap.Pallets[j].ID })
	for _, p := range snap.Pallets {
		snap.Lines = append(snap.Lines, m.linesOf(p.ID)...)
	}
	return snap, nil
}

func (m *memStore) CreatePallet(_ context.Context, scanID int64, number *string, now time.Time) (*models.Pallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scans[scanID]
	if !ok {
		return nil, scanning.NotFound("scan", scanID)
	}
	var n string
	if number != nil {
		n = strings.TrimSpace(*number)
	}
	if n == "" {
		s.PalletCounter++
		var err error
		if n, err = scanning.FormatPalletNumber(s.PalletCounter); err != nil {
			return nil, err
		}
	}
	p := &models.Pallet{ID: m.id(), ScanID: scanID, PalletNumber: &n, CreatedAt: now}
	m.pallets[p.ID] = p
	out := *p
	return &out, nil
}

func (m *memStore) GetPallet(_ context.Context, id int64) (*models.Pallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pallets[id]
	if !ok {
		return nil, scanning.NotFound("pallet", id)
	}
	out := *p
	return &out, nil
}

func (m *memStore) RenamePallet(_ context.Context, id int64, number string) (*models.Pallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pallets[id]
	if !ok {
		return nil, scanning.NotFound("pallet", id)
	}
	p.PalletNumber = &number
	out := *p
	return &out, nil
}

func (m *memStore) DeletePallet(_ context.Context, id int64) (*models.Pallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pallets[id]
	if !ok {
		return nil, scanning.NotFound("pallet", id)
	}
	m.deleteLinesOf(id)
	delete(m.pallets, id)
	return p, nil
}

func (m *memStore) ApplyScan(_ context.Context, palletID int64, entry scanning.ScanEntry, now time.Time) (scanning.MergeResult, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pallets[palletID]
	if !ok {
		return scanning.MergeResult{}, 0, scanning.NotFound("pallet", palletID)
	}
	res, err := scanning.Merge(palletID, entry, m.linesOf(palletID), now)
	if err != nil {
		return scanning.MergeResult{}, 0, err
	}
	if res.Outcome == scanning.Created {
		res.Line.ID = m.id()
	}
	line := res.Line
	m.lines[line.ID] = &line
	return res, p.ScanID, nil
}

func (m *memStore) GetSkuLine(_ context.Context, id int64) (*models.SkuLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lines[id]
	if !ok {
		return nil, scanning.NotFound("sku line", id)
	}
	out := *l
	return &out, nil
}

func (m *memStore) ListByPallet(_ context.Context, palletID int64) ([]models.SkuLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.linesOf(palletID), nil
}

func (m *memStore) DeleteSkuLine(_ context.Context, id int64) (*models.SkuLine, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lines[id]
	if !ok {
		return nil, 0, scanning.NotFound("sku line", id)
	}
	delete(m.lines, id)
	return l, m.pallets[l.PalletID].ScanID, nil
}

func (m *memStore) linesOf(palletID int64) []models.SkuLine {
	out := []models.SkuLine{}
	for _, l := range m.lines {
		if l.PalletID == palletID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) deleteLinesOf(palletID int64) {
	for id, l := range m.lines {
		if l.PalletID == palletID {
			delete(m.lines, id)
		}
	}
}

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []comm.ScanEvent
	err    error
	// publishes that arrived with an already cancelled context
	cancelled int
}

func (r *recorder) PublishEvent(ctx context.Context, e comm.ScanEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ctx.Err() != nil {
		r.cancelled++
	}
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
