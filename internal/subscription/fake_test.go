package subscription

import (
	"encoding/json"
	"sort"
	"sync"
	"testing"

	"github.com/vrsandeep/contentsync-go/internal/models"
	"github.com/vrsandeep/contentsync-go/internal/websocket"
)

type frame struct {
	Event string
	JobID string
}

type fakeConn struct {
	mu        sync.Mutex
	connected bool
	frames    []frame
	handlers  map[websocket.ListenerID]websocket.Handler
	events    map[websocket.ListenerID]string
	next      websocket.ListenerID
}

func newFakeConn(connected bool) *fakeConn {
	return &fakeConn{
		connected: connected,
		handlers:  make(map[websocket.ListenerID]websocket.Handler),
		events:    make(map[websocket.ListenerID]string),
	}
}

func (c *fakeConn) Emit(event string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return websocket.ErrNotConnected
	}
	c.frames = append(c.frames, frame{Event: event, JobID: payload.(string)})
	return nil
}

func (c *fakeConn) On(event string, h websocket.Handler) websocket.ListenerID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	c.handlers[c.next] = h
	c.events[c.next] = event
	return c.next
}

func (c *fakeConn) Off(id websocket.ListenerID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, id)
	delete(c.events, id)
}

func (c *fakeConn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeConn) ListenerCount(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e == event {
			n++
		}
	}
	return n
}

func (c *fakeConn) sent() []frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]frame(nil), c.frames...)
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

// push delivers an inbound job-update to every registered handler.
func (c *fakeConn) push(t *testing.T, u models.JobUpdate) {
	t.Helper()
	data, err := json.Marshal(u)
	if err != nil {
		t.Fatal(err)
	}
	c.mu.Lock()
	var ids []websocket.ListenerID
	for id, e := range c.events {
		if e == websocket.EventJobUpdate {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]websocket.Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, c.handlers[id])
	}
	c.mu.Unlock()
	for _, h := range handlers {
		h(data)
	}
}

type fakeConnector struct {
	mu        sync.Mutex
	conn      *fakeConn
	listeners map[int]func(bool)
	next      int
}

func newFakeConnector(connected bool) *fakeConnector {
	return &fakeConnector{conn: newFakeConn(connected), listeners: make(map[int]func(bool))}
}

func (f *fakeConnector) GetConnection() websocket.Conn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conn
}

func (f *fakeConnector) current() *fakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conn
}

func (f *fakeConnector) OnConnectionChange(callback func(bool)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := f.next
	f.listeners[id] = callback
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *fakeConnector) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

// setConnected flips the transport state and notifies listeners.
func (f *fakeConnector) setConnected(connected bool) {
	conn := f.current()
	conn.mu.Lock()
	conn.connected = connected
	conn.mu.Unlock()
	f.notify(connected)
}

// replace swaps in a fresh handle, as the manager does after Disconnect.
func (f *fakeConnector) replace(connected bool) *fakeConn {
	f.mu.Lock()
	f.conn = newFakeConn(connected)
	conn := f.conn
	f.mu.Unlock()
	f.notify(connected)
	return conn
}

// swap replaces the handle without any connection event, so only a
// tracker that asks for the connection again notices.
func (f *fakeConnector) swap(connected bool) *fakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conn = newFakeConn(connected)
	return f.conn
}

func (f *fakeConnector) notify(connected bool) {
	f.mu.Lock()
	var callbacks []func(bool)
	for _, cb := range f.listeners {
		callbacks = append(callbacks, cb)
	}
	f.mu.Unlock()
	for _, cb := range callbacks {
		cb(connected)
	}
}

type updateLog struct {
	mu      sync.Mutex
	updates []models.JobUpdate
}

func (l *updateLog) handle(u models.JobUpdate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updates = append(l.updates, u)
}

func (l *updateLog) jobIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var ids []string
	for _, u := range l.updates {
		ids = append(ids, u.JobID)
	}
	return ids
}

func sub(id string) frame   { return frame{Event: websocket.EventSubscribeJob, JobID: id} }
func unsub(id string) frame { return frame{Event: websocket.EventUnsubscribeJob, JobID: id} }
