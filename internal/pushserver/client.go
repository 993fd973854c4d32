package pushserver

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/vrsandeep/contentsync-go/internal/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn *gorilla.Conn
	send chan []byte
	jobs map[string]bool // Owned by the hub goroutine
}

// Handler upgrades requests to push connections. When token is not empty,
// the handshake must carry it in the "token" query parameter.
func (h *Hub) Handler(token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token != "" && r.URL.Query().Get("token") != token {
			http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Push upgrade failed: %v", err)
			return
		}
		client := &Client{
			hub:  h,
			conn: conn,
			send: make(chan []byte, 256),
			jobs: make(map[string]bool),
		}
		select {
		case h.register <- client:
		case <-h.stop:
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}

// readPump handles subscribe/unsubscribe frames from the client.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stop:
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
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if gorilla.IsUnexpectedCloseError(err, gorilla.CloseGoingAway, gorilla.CloseNormalClosure) {
				log.Printf("Push client read error: %v", err)
			}
			return
		}

		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Warning: malformed frame from push client: %v", err)
			continue
		}
		var jobID string
		if err := json.Unmarshal(msg.Data, &jobID); err != nil || jobID == "" {
			log.Printf("Warning: %s frame without a job id", msg.Event)
			continue
		}

		switch msg.Event {
		case websocket.EventSubscribeJob:
			c.hub.join(c, jobID)
		case websocket.EventUnsubscribeJob:
			c.hub.leaveRoom(c, jobID)
		default:
			log.Printf("Warning: unknown push event %q", msg.Event)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
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
				// The hub closed the channel.
				c.conn.WriteMessage(gorilla.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(gorilla.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(gorilla.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
