package broker

import (
	"encoding/json"

	"github.com/avvvet/palletscan-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type Broker struct {
	Conn           *nats.Conn
	Send           func(socketId string, v interface{}) error
	GetRoomSockets func(scanId int64) ([]string, bool)
}

func NewBroker(conn *nats.Conn, fncSend func(string, interface{}) error, fncGetRoomSockets func(int64) ([]string, bool)) *Broker {
	return &Broker{
		Conn:           conn,
		Send:           fncSend,
		GetRoomSockets: fncGetRoomSockets,
	}
}

// consume events from the scan service
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) handleMessages(msgNats *nats.Msg) {
	b.Dispatch(msgNats.Data)
}

// Dispatch forwards one scan event to every socket following the scan it belongs to.
// It returns the number of sockets the event was written to.
func (b *Broker) Dispatch(data []byte) int {
	message := &comm.WSMessage{}
	if err := json.Unmarshal(data, message); err != nil {
		log.Errorf("Error decoding scan service message: %s", err)
		return 0
	}

	var event comm.ScanEvent
	if err := json.Unmarshal(message.Data, &event); err != nil {
		log.Errorf("Error decoding %s event: %s", message.Type, err)
		return 0
	}
	if event.ScanID <= 0 {
		log.Warnf("dropping %s event without a scan id", message.Type)
		return 0
	}

	sockets, ok := b.GetRoomSockets(event.ScanID)
	if !ok {
		return 0
	}

	sent := 0
	for _, socketId := range sockets {
		if err := b.Send(socketId, message); err != nil {
			log.Warnf("unable to send %s to socket %s: %s", message.Type, socketId, err)
			continue
		}
		sent++
	}
	return sent
}
