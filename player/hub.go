package player

import (
	"context"
	"encoding/binary"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	gomidi "gitlab.com/gomidi/midi/v2"
)

var ErrHubClosed = errors.New("player: hub is not running")

type MessageType byte

const (
	TimeSync    MessageType = 0
	MidiMessage MessageType = 1
)

// DefaultSyncInterval is how often an idle Hub sends the time to clients.
const DefaultSyncInterval = time.Second

// Message is a websocket frame. Timestamp is the server time in Unix
// milliseconds when the message was created.
//
// 0-7: Timestamp, big endian
// 8:   MessageType
// 9-:  Content
type Message struct {
	Timestamp uint64
	Type      MessageType
	Content   gomidi.Message
}

func (m Message) Bytes() []byte {
	b := make([]byte, 9)
	binary.BigEndian.PutUint64(b, m.Timestamp)
	b[8] = byte(m.Type)
	return append(b, m.Content.Bytes()...)
}

// ParseMessage is the inverse of Message.Bytes.
func ParseMessage(b []byte) (Message, error) {
	if len(b) < 9 {
		return Message{}, errors.New("player: short websocket message")
	}
	return Message{
		Timestamp: binary.BigEndian.Uint64(b),
		Type:      MessageType(b[8]),
		Content:   gomidi.Message(slices.Clone(b[9:])),
	}, nil
}

// Hub broadcasts MIDI messages to websocket clients. It is a Sink and an
// http.Handler; Run must be going for either to do anything.
//
// Clients keep track of their offset from the server clock, so the hub sends
// the current time on connect and whenever it has been quiet for a sync
// interval.
type Hub struct {
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan Message
	done       chan struct{}

	syncInterval time.Duration
	upgrader     websocket.Upgrader
}

func NewHub(syncInterval time.Duration) *Hub {
	if syncInterval <= 0 {
		syncInterval = DefaultSyncInterval
	}
	return &Hub{
		clients:      make(map[*client]struct{}),
		register:     make(chan *client),
		unregister:   make(chan *client),
		broadcast:    make(chan Message),
		done:         make(chan struct{}),
		syncInterval: syncInterval,
	}
}

func now() uint64 {
	return uint64(time.Now().UnixMilli())
}

// Run serves the hub until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.syncInterval)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.deliver(c, Message{Timestamp: now(), Type: TimeSync}.Bytes())
			logrus.WithFields(logrus.Fields{"remote": c.conn.RemoteAddr().String(), "clients": len(h.clients)}).Debug("client connected")
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
		case <-ticker.C:
			msg := Message{Timestamp: now(), Type: TimeSync}.Bytes()
			for c := range h.clients {
				h.deliver(c, msg)
			}
		case m := <-h.broadcast:
			msg := m.Bytes()
			for c := range h.clients {
				h.deliver(c, msg)
			}
			ticker.Reset(h.syncInterval)
		}
	}
}

// deliver queues msg for c, dropping c if it has fallen too far behind.
func (h *Hub) deliver(c *client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		logrus.WithField("remote", c.conn.RemoteAddr().String()).Warn("dropping slow websocket client")
		h.drop(c)
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
}

// Send broadcasts msg to every connected client.
func (h *Hub) Send(msg gomidi.Message) error {
	m := Message{Timestamp: now(), Type: MidiMessage, Content: msg}
	select {
	case h.broadcast <- m:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

func (h *Hub) String() string {
	return "websocket hub"
}

// ServeHTTP upgrades the request to a websocket and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Debug("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 256)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump(h)
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// writePump pumps messages from the hub to the websocket connection.
func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			logrus.WithError(err).Debug("websocket write failed")
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readPump discards anything the client sends and unregisters it once the
// connection fails.
func (c *client) readPump(h *Hub) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
