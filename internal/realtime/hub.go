package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	billingdomain "github.com/maximegiguere1one/chiroflow-sub004/internal/billing/domain"
	"go.uber.org/zap"
)

const (
	clientSendBuffer = 256
	hubPingPeriod    = 30 * time.Second
	clientPongWait   = 60 * time.Second
	clientWriteWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Same-origin UI clients only; the API gateway strips everything else.
		return true
	},
}

// pushMessage is one frame sent to UI clients.
type pushMessage struct {
	Type  string `json:"type"`
	Table string `json:"table,omitempty"`
	Data  any    `json:"data,omitempty"`
}

type hubClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans billing changes and stats out to connected UI clients. It
// satisfies the store's Broadcaster.
type Hub struct {
	log *zap.Logger

	mu      sync.RWMutex
	clients map[*hubClient]struct{}

	broadcast  chan []byte
	register   chan *hubClient
	unregister chan *hubClient
	done       chan struct{}
	closeOnce  sync.Once
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:        log.Named("realtime.hub"),
		clients:    make(map[*hubClient]struct{}),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *hubClient),
		unregister: make(chan *hubClient),
		done:       make(chan struct{}),
	}
}

// Run drives the hub loop until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			h.log.Debug("client connected", zap.String("client", client.id))

		case client := <-h.unregister:
			h.dropClient(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*hubClient, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer; drop it rather than block the loop.
					h.dropClient(client)
				}
			}

		case <-ctx.Done():
			h.shutdown()
			return
		}
	}
}

// BroadcastChange pushes one applied ledger change to all clients.
func (h *Hub) BroadcastChange(table string, changeType billingdomain.ChangeType, entity any) {
	h.enqueue(pushMessage{
		Type:  "change:" + string(changeType),
		Table: table,
		Data:  entity,
	})
}

// BroadcastStats pushes recomputed summary figures to all clients.
func (h *Hub) BroadcastStats(stats billingdomain.Stats) {
	h.enqueue(pushMessage{Type: "stats", Data: stats})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades an HTTP request and attaches the client.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	client := &hubClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(client)
	go h.readPump(client)
}

func (h *Hub) enqueue(msg pushMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Warn("marshal push message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.log.Warn("broadcast buffer full, dropping message", zap.String("type", msg.Type))
	}
}

func (h *Hub) dropClient(client *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.mu.Unlock()
		h.log.Debug("client disconnected", zap.String("client", client.id))
		return
	}
	h.mu.Unlock()
}

func (h *Hub) shutdown() {
	h.closeOnce.Do(func() { close(h.done) })
	h.mu.Lock()
	for client := range h.clients {
		close(client.send)
		client.conn.Close()
		delete(h.clients, client)
	}
	h.mu.Unlock()
}

func (h *Hub) readPump(client *hubClient) {
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
		client.conn.Close()
	}()

	client.conn.SetReadLimit(4096)
	client.conn.SetReadDeadline(time.Now().Add(clientPongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(clientPongWait))
	})

	// UI clients only send pings and close frames; payloads are drained
	// and ignored.
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(client *hubClient) {
	ticker := time.NewTicker(hubPingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(clientWriteWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(clientWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
