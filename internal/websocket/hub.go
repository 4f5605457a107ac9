package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
	"github.com/cx-tal-miterani/coach-booking-client/internal/state"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeStateChanged  MessageType = "state_changed"
	MessageTypeLayoutUpdated MessageType = "layout_updated"
	MessageTypeNotice        MessageType = "notice"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType            `json:"type"`
	State     *state.Snapshot        `json:"state,omitempty"`
	Layout    *models.LayoutSnapshot `json:"layout,omitempty"`
	Notice    *models.Notice         `json:"notice,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// StateMessage wraps a lifecycle snapshot
func StateMessage(snap state.Snapshot) *Message {
	return &Message{Type: MessageTypeStateChanged, State: &snap, Timestamp: time.Now().UnixMilli()}
}

// LayoutMessage wraps a coach layout snapshot
func LayoutMessage(snap models.LayoutSnapshot) *Message {
	return &Message{Type: MessageTypeLayoutUpdated, Layout: &snap, Timestamp: time.Now().UnixMilli()}
}

// NoticeMessage wraps a user-visible notice
func NoticeMessage(notice models.Notice) *Message {
	return &Message{Type: MessageTypeNotice, Notice: &notice, Timestamp: time.Now().UnixMilli()}
}

// Client represents a WebSocket client connection
type Client struct {
	id   uuid.UUID
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans messages out to every connected console viewer
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Run starts the hub's main loop. Every client is disconnected when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			log.Printf("WebSocket: Client %s registered (total: %d)", client.id, len(h.clients))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("WebSocket: Client %s unregistered (remaining: %d)", client.id, len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				log.Printf("WebSocket: Failed to marshal message: %v", err)
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// too slow, drop it
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues msg for every client. It never blocks; a full queue drops msg.
func (h *Hub) Broadcast(msg *Message) {
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("WebSocket: Broadcast queue full, dropping %s", msg.Type)
	}
}

// BroadcastState pushes a lifecycle snapshot
func (h *Hub) BroadcastState(snap state.Snapshot) {
	h.Broadcast(StateMessage(snap))
}

// BroadcastLayout pushes a coach layout snapshot
func (h *Hub) BroadcastLayout(snap models.LayoutSnapshot) {
	h.Broadcast(LayoutMessage(snap))
}

// Notify pushes a notice. It lets the hub serve as the orchestrator's notifier.
func (h *Hub) Notify(notice models.Notice) {
	log.Printf("notice [%s] %s: %s", notice.Level, notice.Title, notice.Message)
	h.Broadcast(NoticeMessage(notice))
}

// Follow broadcasts every snapshot from updates until it is closed or ctx is done
func (h *Hub) Follow(ctx context.Context, updates <-chan state.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			h.BroadcastState(snap)
		}
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the request and streams hub messages to it.
// The initial messages are sent before any broadcast.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request, initial ...*Message) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket: Upgrade failed: %v", err)
		return
	}

	client := &Client{
		id:   uuid.New(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	for _, msg := range initial {
		data, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		client.send <- data
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump discards inbound frames and detects disconnects
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket: Client %s read error: %v", c.id, err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
