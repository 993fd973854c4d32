// Package pushserver is the server side of the push protocol: a hub that
// keeps per-job rooms of connected clients and routes job updates to them.
// It backs the development server and the client integration tests.
package pushserver

import (
	"log"

	"github.com/vrsandeep/contentsync-go/internal/models"
	"github.com/vrsandeep/contentsync-go/internal/websocket"
)

type roomChange struct {
	client *Client
	jobID  string
	join   bool
}

type routed struct {
	jobID   string
	message []byte
}

type countQuery struct {
	jobID string // Empty counts connected clients
	reply chan int
}

// Hub maintains the set of active clients and their job rooms.
// All state is owned by the Run goroutine.
type Hub struct {
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	roomChanges chan roomChange
	publish     chan routed
	counts      chan countQuery
	drop        chan struct{}
	stop        chan struct{}
}

// NewHub creates a Hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		rooms:       make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		roomChanges: make(chan roomChange),
		publish:     make(chan routed, 64),
		counts:      make(chan countQuery),
		drop:        make(chan struct{}),
		stop:        make(chan struct{}),
	}
}

// Run processes hub events until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			h.remove(client)

		case change := <-h.roomChanges:
			if _, ok := h.clients[change.client]; !ok {
				continue
			}
			if change.join {
				room := h.rooms[change.jobID]
				if room == nil {
					room = make(map[*Client]bool)
					h.rooms[change.jobID] = room
				}
				room[change.client] = true
				change.client.jobs[change.jobID] = true
			} else {
				h.leave(change.client, change.jobID)
			}

		case msg := <-h.publish:
			for client := range h.rooms[msg.jobID] {
				h.send(client, msg.message)
			}

		case q := <-h.counts:
			if q.jobID == "" {
				q.reply <- len(h.clients)
			} else {
				q.reply <- len(h.rooms[q.jobID])
			}

		case <-h.drop:
			for client := range h.clients {
				h.remove(client)
			}

		case <-h.stop:
			for client := range h.clients {
				h.remove(client)
			}
			return
		}
	}
}

// Stop shuts the hub down and closes every client's send channel.
func (h *Hub) Stop() {
	close(h.stop)
}

// DropClients closes every client connection. Clients are expected to
// reconnect and resubscribe.
func (h *Hub) DropClients() {
	select {
	case h.drop <- struct{}{}:
	case <-h.stop:
	}
}

// Publish routes a job update to the clients subscribed to its job.
func (h *Hub) Publish(update models.JobUpdate) error {
	frame, err := websocket.NewMessage(websocket.EventJobUpdate, update)
	if err != nil {
		return err
	}
	select {
	case h.publish <- routed{jobID: update.JobID, message: frame}:
	case <-h.stop:
	}
	return nil
}

// Subscribers returns how many clients are subscribed to jobID.
func (h *Hub) Subscribers(jobID string) int {
	return h.count(jobID)
}

// ClientCount returns how many clients are connected.
func (h *Hub) ClientCount() int {
	return h.count("")
}

func (h *Hub) count(jobID string) int {
	reply := make(chan int, 1)
	select {
	case h.counts <- countQuery{jobID: jobID, reply: reply}:
		return <-reply
	case <-h.stop:
		return 0
	}
}

func (h *Hub) join(c *Client, jobID string) {
	select {
	case h.roomChanges <- roomChange{client: c, jobID: jobID, join: true}:
	case <-h.stop:
	}
}

func (h *Hub) leaveRoom(c *Client, jobID string) {
	select {
	case h.roomChanges <- roomChange{client: c, jobID: jobID}:
	case <-h.stop:
	}
}

func (h *Hub) leave(c *Client, jobID string) {
	if room, ok := h.rooms[jobID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, jobID)
		}
	}
	delete(c.jobs, jobID)
}

func (h *Hub) remove(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	for jobID := range c.jobs {
		h.leave(c, jobID)
	}
	delete(h.clients, c)
	close(c.send)
}

// send queues a frame for a client, dropping the client when its buffer is full.
func (h *Hub) send(c *Client, message []byte) {
	select {
	case c.send <- message:
	default:
		log.Printf("Warning: push client send buffer full, dropping client")
		h.remove(c)
	}
}
