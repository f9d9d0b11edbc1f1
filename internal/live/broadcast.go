// Package live streams emitted records to WebSocket subscribers so an
// operator can watch a session unfold in real time.
package live

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ppiankov/sessionwatch/internal/model"
)

// clientBuffer bounds each subscriber's outbound queue. A subscriber
// that falls this far behind is disconnected rather than allowed to
// stall the broadcast.
const clientBuffer = 64

// send is never closed: a broadcast that snapshotted the client set
// before a disconnect may still reach its send afterwards, and a send on
// a closed channel would panic the sink goroutine. Departure is
// signalled through done instead; a late broadcast at worst fills the
// buffer and takes the slow-client path.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, clientBuffer),
		done: make(chan struct{}),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) close() {
	close(c.done)
}

// Broadcaster fans out every written record to all connected
// subscribers. It satisfies the sink contract: Write never blocks the
// processing lane and never returns an error.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]bool
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[*client]bool)}
}

// Write broadcasts one record to every subscriber.
func (b *Broadcaster) Write(rec model.Record) {
	data, err := json.Marshal(rec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sessionwatch: live marshal: %v\n", err)
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			// Subscriber can't keep up, disconnect it.
			b.remove(c)
		}
	}
}

// ClientCount reports the number of connected subscribers.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close disconnects all subscribers.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	for c := range b.clients {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

func (b *Broadcaster) add(conn *websocket.Conn) *client {
	c := newClient(conn)
	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()
	return c
}

func (b *Broadcaster) remove(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests to WebSocket subscriptions.
func (b *Broadcaster) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := b.add(conn)

		// Reader loop only detects disconnects; subscribers never send.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				b.remove(c)
				return
			}
		}
	})
}
