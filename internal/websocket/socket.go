// This file implements the connection handle behind Manager: the dial and
// reconnect loop, the read loop, and the listener registry.

package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"runtime/debug"
	"sync"
	"time"

	gorilla "github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Maximum inbound message size.
	maxMessageSize = 1 << 20
)

type listener struct {
	id      ListenerID
	event   string
	handler Handler
}

// socket is the concrete Conn. One instance lives from the first
// GetConnection until Disconnect, across any number of transport reconnects.
type socket struct {
	mgr    *Manager
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	ws        *gorilla.Conn
	connected bool
	running   bool // a dial/read loop goroutine is active
	closed    bool
	listeners []listener
	nextID    ListenerID

	writeMu sync.Mutex
}

func newSocket(m *Manager) *socket {
	ctx, cancel := context.WithCancel(context.Background())
	return &socket{mgr: m, ctx: ctx, cancel: cancel}
}

// start launches the dial loop unless it is already running.
func (s *socket) start() {
	s.mu.Lock()
	if s.closed || s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	token := s.mgr.opts.Tokens.Token()
	go s.run(token)
}

func (s *socket) run(token string) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	opts := s.mgr.opts
	failures := 0
	for {
		if failures > 0 {
			if failures > opts.ReconnectAttempts {
				log.Printf("Warning: giving up on push connection after %d reconnect attempts", opts.ReconnectAttempts)
				return
			}
			opts.Metrics.RecordReconnectAttempt()
			select {
			case <-time.After(s.mgr.reconnectDelay(failures)):
			case <-s.ctx.Done():
				return
			}
		}

		ws, err := s.dial(token)
		if err != nil {
			if s.isClosed() {
				return
			}
			log.Printf("Push connection error: %v", err)
			s.mgr.notify(false)
			failures++
			continue
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			ws.Close()
			return
		}
		s.ws = ws
		s.connected = true
		s.mu.Unlock()

		failures = 0
		log.Println("Push connection established")
		s.mgr.notify(true)

		s.readLoop(ws)

		s.mu.Lock()
		closed := s.closed
		s.ws = nil
		s.connected = false
		s.mu.Unlock()
		ws.Close()

		if closed {
			return
		}
		log.Println("Push connection lost")
		s.mgr.notify(false)
		failures = 1
	}
}

// dial opens the transport, attaching the credential as a query parameter.
func (s *socket) dial(token string) (*gorilla.Conn, error) {
	u, err := url.Parse(s.mgr.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid push url: %w", err)
	}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	ws, resp, err := s.mgr.opts.Dialer.DialContext(s.ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("handshake failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, err
	}
	ws.SetReadLimit(maxMessageSize)
	return ws, nil
}

func (s *socket) readLoop(ws *gorilla.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if !s.isClosed() && gorilla.IsUnexpectedCloseError(err, gorilla.CloseNormalClosure, gorilla.CloseGoingAway) {
				log.Printf("Push connection read error: %v", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Warning: dropping malformed push message: %v", err)
			continue
		}
		s.dispatch(msg)
	}
}

// dispatch delivers a frame to the handlers registered for its event, in
// registration order. A handler removed while earlier ones run is skipped.
func (s *socket) dispatch(msg Message) {
	s.mu.Lock()
	ids := make([]ListenerID, 0, len(s.listeners))
	for _, l := range s.listeners {
		if l.event == msg.Event {
			ids = append(ids, l.id)
		}
	}
	s.mu.Unlock()

	for _, id := range ids {
		h := s.handler(id)
		if h == nil {
			continue
		}
		safeCall(msg.Event, h, msg.Data)
	}
}

func (s *socket) handler(id ListenerID) Handler {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.listeners {
		if l.id == id {
			return l.handler
		}
	}
	return nil
}

func safeCall(event string, h Handler, data json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: push handler panicked for event %s: %v\n%s", event, r, debug.Stack())
		}
	}()
	h(data)
}

// Emit implements Conn.
func (s *socket) Emit(event string, payload interface{}) error {
	frame, err := NewMessage(event, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}

	s.mu.Lock()
	ws := s.ws
	connected := s.connected
	s.mu.Unlock()
	if !connected || ws == nil {
		return ErrNotConnected
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteMessage(gorilla.TextMessage, frame); err != nil {
		return fmt.Errorf("emit %s: %w", event, err)
	}
	s.mgr.opts.Metrics.RecordControlMessage(event)
	return nil
}

// On implements Conn.
func (s *socket) On(event string, h Handler) ListenerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.listeners = append(s.listeners, listener{id: s.nextID, event: event, handler: h})
	return s.nextID
}

// Off implements Conn.
func (s *socket) Off(id ListenerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.listeners {
		if l.id == id {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// Connected implements Conn.
func (s *socket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// ListenerCount implements Conn.
func (s *socket) ListenerCount(event string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.listeners {
		if l.event == event {
			n++
		}
	}
	return n
}

func (s *socket) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// close stops the dial loop and closes the transport with a normal
// closure frame.
func (s *socket) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	ws := s.ws
	s.connected = false
	s.listeners = nil
	s.mu.Unlock()

	s.cancel()
	if ws == nil {
		return
	}
	s.writeMu.Lock()
	ws.WriteControl(gorilla.CloseMessage,
		gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	s.writeMu.Unlock()
	ws.Close()
}
