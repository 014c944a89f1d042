package controlplane

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/backline-audio/engine/internal/events"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPingPeriod = 25 * time.Second
)

// Hub relays bus events to every connected websocket client as
// {"type": <topic>, "payload": <topic-specific>} JSON messages (spec.md
// §6.2). It registers itself as a single events.Consumer and fans each
// event out to all current clients rather than each client subscribing
// independently.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn  *websocket.Conn
	mu    sync.Mutex // serializes writes; *websocket.Conn allows only one writer at a time
	done  chan struct{}
	doneO sync.Once
}

func (cl *client) write(messageType int, data []byte) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if err := cl.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return cl.conn.WriteMessage(messageType, data)
}

func (cl *client) close() {
	cl.doneO.Do(func() {
		close(cl.done)
		cl.conn.Close()
	})
}

type wsMessage struct {
	Type    events.Topic `json:"type"`
	Payload any          `json:"payload"`
}

// NewHub constructs a Hub and registers it with bus so every published
// event reaches connected clients.
func NewHub(bus *events.Bus) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
	if bus != nil {
		_ = bus.RegisterConsumer(events.ConsumerFunc{
			FuncName: "controlplane.hub",
			Fn:       h.broadcast,
		})
	}
	return h
}

func (h *Hub) broadcast(evt events.Event) {
	data, err := json.Marshal(wsMessage{Type: evt.Topic, Payload: evt.Payload})
	if err != nil {
		log.Error("failed to marshal event for websocket broadcast", "topic", evt.Topic, "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		if err := cl.write(websocket.TextMessage, data); err != nil {
			h.remove(cl)
		}
	}
}

// ServeWS upgrades the request and registers the connection until it
// disconnects or a write fails.
func (h *Hub) ServeWS(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{conn: conn, done: make(chan struct{})}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	go h.pump(cl)
	return nil
}

// pump keeps the connection alive with periodic pings and drains/discards
// any client-sent messages until the connection closes.
func (h *Hub) pump(cl *client) {
	defer h.remove(cl)

	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-cl.done:
				return
			case <-ticker.C:
				if err := cl.write(websocket.PingMessage, nil); err != nil {
					cl.close()
					return
				}
			}
		}
	}()

	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	delete(h.clients, cl)
	h.mu.Unlock()
	cl.close()
}

// Close disconnects every client. Called during server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, cl := range clients {
		cl.close()
	}
}
