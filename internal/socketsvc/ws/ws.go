package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/avvvet/palletscan-services/internal/comm"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

// Client serializes writes to one connection. gorilla/websocket allows a single concurrent writer.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *Client) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

type Ws struct {
	connMap sync.Map // to keep track of socket connection with socketId
	roomMap sync.Map // socketId -> scanId the socket follows
}

func NewWs() *Ws {
	return &Ws{}
}

// handle socket message from web clients
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch message.Type {
	case "subscribe":
		s.handleSubscribe(socketId, message)
	case "unsubscribe":
		s.LeaveRoom(socketId)
		s.reply(socketId, "unsubscribed", nil)
	default:
		log.Warnf("unknown event received: %s", message.Type)
		s.reply(socketId, "error", map[string]string{"error": "unknown message type " + message.Type})
	}
}

func (s *Ws) handleSubscribe(socketId string, msg *comm.WSMessage) {
	var payload comm.Subscription
	if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.ScanID <= 0 {
		log.Errorf("Error: invalid subscribe payload from socket %s", socketId)
		s.reply(socketId, "error", map[string]string{"error": "scanId must be a positive number"})
		return
	}

	s.StoreRoom(socketId, payload.ScanID)
	log.Infof("socket %s follows scan %d", socketId, payload.ScanID)
	s.reply(socketId, "subscribed", payload)
}

func (s *Ws) reply(socketId, msgType string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Errorf("unable to marshal %s reply: %s", msgType, err)
		return
	}
	if err := s.Send(socketId, &comm.WSMessage{Type: msgType, Data: raw, SocketId: socketId}); err != nil {
		log.Warnf("unable to reply to socket %s: %s", socketId, err)
	}
}

// Send writes v to the socket if it is still connected.
func (s *Ws) Send(socketId string, v interface{}) error {
	c, ok := s.GetConnection(socketId)
	if !ok {
		return nil
	}
	return c.WriteJSON(v)
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) *Client {
	c := &Client{conn: conn}
	s.connMap.Store(socketId, c)
	return c
}

func (s *Ws) GetConnection(socketId string) (*Client, bool) {
	c, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return c.(*Client), true
}

// StoreRoom makes socketId follow scanId. A socket follows one scan at a time.
func (s *Ws) StoreRoom(socketId string, scanId int64) {
	s.roomMap.Store(socketId, scanId)
}

func (s *Ws) GetRoom(socketId string) (int64, bool) {
	room, ok := s.roomMap.Load(socketId)
	if !ok {
		return 0, false
	}
	return room.(int64), true
}

func (s *Ws) LeaveRoom(socketId string) {
	s.roomMap.Delete(socketId)
}

func (s *Ws) GetRoomSockets(scanId int64) ([]string, bool) {
	var sockets []string

	s.roomMap.Range(func(key, value interface{}) bool {
		if value.(int64) == scanId {
			sockets = append(sockets, key.(string))
		}
		return true // continue iterating
	})

	return sockets, len(sockets) > 0
}

func (s *Ws) HandleDisconnect(socketId string) {
	s.roomMap.Delete(socketId)
	s.connMap.Delete(socketId)
}
