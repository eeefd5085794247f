package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fudbi/fudbi/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxInboundSize = 512
	sendBuffer     = 16
)

// Broadcaster pushes a typed message to every live subscriber of a room.
type Broadcaster interface {
	Broadcast(room, msgType string, payload any)
}

type WSMessage struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

type roomMessage struct {
	room string
	data []byte
}

type Client struct {
	hub  *Hub
	room string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans live messages out to websocket clients grouped in city rooms.
// All room bookkeeping happens on the Run goroutine.
type Hub struct {
	rooms      map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan roomMessage
	done       chan struct{}
	upgrader   websocket.Upgrader
	logger     logging.Logger
}

// NewHub accepts upgrades from allowedOrigin; "*" or "" allows any origin.
func NewHub(allowedOrigin string, logger logging.Logger) *Hub {
	h := &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan roomMessage, 64),
		done:       make(chan struct{}),
		logger:     logger.With("module", "hub"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" || allowedOrigin == "*" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}
	return h
}

func RoomKey(city string) string {
	return strings.TrimSpace(city)
}

func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for _, clients := range h.rooms {
			for c := range clients {
				close(c.send)
			}
		}
		h.rooms = map[string]map[*Client]struct{}{}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			clients, ok := h.rooms[c.room]
			if !ok {
				clients = make(map[*Client]struct{})
				h.rooms[c.room] = clients
			}
			clients[c] = struct{}{}
			h.logger.Debug(ctx, "client joined", "room", c.room, "clients", len(clients))

		case c := <-h.unregister:
			h.remove(c)

		case m := <-h.broadcast:
			for c := range h.rooms[m.room] {
				select {
				case c.send <- m.data:
				default:
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	clients, ok := h.rooms[c.room]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.rooms, c.room)
	}
}

// Broadcast never blocks the caller; messages are dropped when the hub is
// stopped or its queue is full.
func (h *Hub) Broadcast(room, msgType string, payload any) {
	data, err := json.Marshal(WSMessage{Type: msgType, Payload: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		h.logger.Error(context.Background(), "failed to marshal broadcast", "type", msgType, "error", err)
		return
	}
	select {
	case h.broadcast <- roomMessage{room: RoomKey(room), data: data}:
	case <-h.done:
	default:
		h.logger.Warn(context.Background(), "broadcast queue full, message dropped", "room", room, "type", msgType)
	}
}

// ServeWS upgrades the request and subscribes the connection to the city room.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, city string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &Client{hub: h, room: RoomKey(city), conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return nil
	}
	go c.writePump()
	go c.readPump()
	return nil
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only services control frames; the feed is server to client.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInboundSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug(context.Background(), "websocket closed", "room", c.room, "error", err)
			}
			return
		}
	}
}
