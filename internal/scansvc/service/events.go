package service

import (
	"context"
	"time"

	"github.com/avvvet/palletscan-services/internal/comm"
	"github.com/avvvet/palletscan-services/internal/scansvc/scanning"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Publisher delivers scan events to the live feed.
type Publisher interface {
	PublishEvent(ctx context.Context, event comm.ScanEvent) error
}

type notifier struct {
	pub Publisher
}

// emit is best effort: a failed publish is logged and never fails the operation that caused it.
// Events follow a committed write, so a caller that has gone away does not suppress them.
func (n notifier) emit(ctx context.Context, event comm.ScanEvent) {
	if n.pub == nil {
		return
	}
	event.ID = uuid.NewString()
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	if err := n.pub.PublishEvent(context.WithoutCancel(ctx), event); err != nil {
		log.Warnf("unable to publish %s for scan %d: %s", event.Type, event.ScanID, err)
	}
}

func requireID(entity string, id int64) error {
	if id <= 0 {
		return scanning.Validation("%s id must be a positive number", entity)
	}
	return nil
}
