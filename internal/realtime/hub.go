package realtime

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"clubsched/internal/docstore"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans document change events out to connected clients. Clients are
// expected to reload the affected collection wholesale on any event,
// so delivery is best-effort and unordered with respect to local writes.
type Hub struct {
	feed        docstore.Feed
	collections []string

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewHub creates a hub watching the given collections.
func NewHub(feed docstore.Feed, collections []string) *Hub {
	return &Hub{
		feed:        feed,
		collections: collections,
		clients:     make(map[*websocket.Conn]bool),
	}
}

// Run subscribes to every watched collection and broadcasts until the
// context is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	for _, collection := range h.collections {
		events, cancel, err := h.feed.Subscribe(ctx, collection)
		if err != nil {
			return err
		}
		defer cancel()
		go func() {
			for evt := range events {
				h.broadcast(evt)
			}
		}()
	}
	<-ctx.Done()
	return nil
}

// Handler upgrades the request and registers the client until it
// disconnects. Clients only receive; inbound frames are drained and
// dropped.
func (h *Hub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("ws upgrade failed: %v", err)
			return
		}
		h.mu.Lock()
		h.clients[conn] = true
		h.mu.Unlock()
		log.Printf("realtime client connected (%d total)", h.clientCount())

		go func() {
			defer h.drop(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

func (h *Hub) broadcast(evt docstore.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(evt); err != nil {
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	_ = conn.Close()
	log.Println("realtime client disconnected")
}

func (h *Hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
