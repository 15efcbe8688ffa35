package scanning

import (
	"time"

	"github.com/avvvet/palletscan-services/internal/scansvc/models"
)

type State string

const (
	StateOpen     State = "open"
	StateFinished State = "finished"
)

func StateOf(s *models.Scan) State {
	if s.Finished {
		return StateFinished
	}
	return StateOpen
}

// Transition changes the state of a scan in place and returns the state it left.
type Transition func(s *models.Scan, now time.Time) (State, error)

// NewScan is the initial Open state of a scan holding controlNumber.
func NewScan(controlNumber string, now time.Time) models.Scan {
	return models.Scan{
		ControlNumber: controlNumber,
		CreatedAt:     now,
	}
}

// Finish is allowed from either state. Finishing a finished scan moves its finish time forward.
func Finish(s *models.Scan, now time.Time) (State, error) {
	if err := CheckState(s); err != nil {
		return "", err
	}
	prev := StateOf(s)
	at := now
	s.Finished = true
	s.FinishedAt = &at
	return prev, nil
}

// Reopen ("continue") is allowed from either state.
func Reopen(s *models.Scan, _ time.Time) (State, error) {
	if err := CheckState(s); err != nil {
		return "", err
	}
	prev := StateOf(s)
	s.Finished = false
	s.FinishedAt = nil
	return prev, nil
}

// CheckState verifies that the finished flag and the finish time agree.
func CheckState(s *models.Scan) error {
	if s == nil {
		return Validation("scan is required")
	}
	if s.Finished && s.FinishedAt == nil {
		return Conflict("scan %d is finished without a finish time", s.ID)
	}
	if !s.Finished && s.FinishedAt != nil {
		return Conflict("scan %d is open but has a finish time", s.ID)
	}
	return nil
}
