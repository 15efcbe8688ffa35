package broker

import (
	"context"
	"encoding/json"

	"github.com/avvvet/palletscan-services/internal/comm"
	log "github.com/sirupsen/logrus"
)

// conn is the part of *nats.Conn the broker uses.
type conn interface {
	Publish(subj string, data []byte) error
}

type Broker struct {
	Conn conn
}

func NewBroker(nc conn) *Broker {
	return &Broker{Conn: nc}
}

// PublishEvent wraps the event in a WSMessage and sends it on the scan service topic.
// NATS publishes are fire and forget, the context is not consulted.
func (b *Broker) PublishEvent(_ context.Context, event comm.ScanEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		log.Errorf("unable to marshal %s event for scan %d: %s", event.Type, event.ScanID, err)
		return err
	}

	msg := &comm.WSMessage{
		Type: event.Type,
		Data: data,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return err
	}

	return b.Publish(comm.ScanServiceTopic, payload)
}

func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}
