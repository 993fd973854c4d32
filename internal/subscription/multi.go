package subscription

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/vrsandeep/contentsync-go/internal/websocket"
)

// MultiJobTracker keeps subscriptions for a set of jobs, e.g. every active
// job on a dashboard page. All jobs share one job-update listener.
type MultiJobTracker struct {
	connector Connector
	handler   UpdateHandler

	mu       sync.Mutex
	desired  map[string]bool
	actual   map[string]bool
	conn     websocket.Conn
	listener websocket.ListenerID
	unwatch  func()
	detached bool
}

// NewMultiJobTracker creates a tracker delivering updates to handler.
func NewMultiJobTracker(c Connector, handler UpdateHandler) *MultiJobTracker {
	return &MultiJobTracker{
		connector: c,
		handler:   handler,
		desired:   make(map[string]bool),
		actual:    make(map[string]bool),
	}
}

// SetJobs replaces the desired set. Only the difference to the current
// subscriptions is sent: new ids are subscribed, dropped ids unsubscribed,
// and ids in both are left alone. A disabled tracker wants nothing. Once the
// tracker is detached, SetJobs does nothing.
func (t *MultiJobTracker) SetJobs(jobIDs []string, enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.detached {
		return
	}
	t.setLocked(jobIDs, enabled)
}

func (t *MultiJobTracker) setLocked(jobIDs []string, enabled bool) {
	desired := make(map[string]bool, len(jobIDs))
	var added []string
	if enabled {
		for _, id := range jobIDs {
			if id == "" || desired[id] {
				continue
			}
			desired[id] = true
			added = append(added, id)
		}
	}

	t.desired = desired

	// Asking for the connection on every change restarts a dial loop that
	// gave up.
	if len(desired) > 0 && t.conn != nil {
		if conn := t.connector.GetConnection(); conn != t.conn {
			t.rebindLocked(conn)
			for _, id := range sortedKeys(t.actual) {
				if desired[id] {
					emit(t.conn, websocket.EventSubscribeJob, id)
				}
			}
		}
	}

	for _, id := range sortedKeys(t.actual) {
		if desired[id] {
			continue
		}
		delete(t.actual, id)
		if t.conn.Connected() {
			emit(t.conn, websocket.EventUnsubscribeJob, id)
		}
	}

	for _, id := range added {
		if t.actual[id] {
			continue
		}
		if t.conn == nil {
			t.attachLocked()
		}
		t.actual[id] = true
		emit(t.conn, websocket.EventSubscribeJob, id)
	}

	if len(t.actual) == 0 && t.conn != nil {
		t.detachLocked()
	}
}

// Detach unsubscribes every tracked job, removes the listener and retires
// the tracker.
func (t *MultiJobTracker) Detach() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setLocked(nil, false)
	t.detached = true
}

// JobIDs returns the subscribed job ids, sorted.
func (t *MultiJobTracker) JobIDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sortedKeys(t.actual)
}

func (t *MultiJobTracker) attachLocked() {
	t.conn = t.connector.GetConnection()
	t.listener = t.conn.On(websocket.EventJobUpdate, t.deliver)
	t.unwatch = t.connector.OnConnectionChange(t.onConnectionChange)
}

func (t *MultiJobTracker) detachLocked() {
	t.unwatch()
	t.conn.Off(t.listener)
	t.conn = nil
	t.unwatch = nil
}

func (t *MultiJobTracker) onConnectionChange(connected bool) {
	if !connected {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return
	}
	if conn := t.connector.GetConnection(); conn != t.conn {
		t.rebindLocked(conn)
	}
	for _, id := range sortedKeys(t.actual) {
		emit(t.conn, websocket.EventSubscribeJob, id)
	}
}

// rebindLocked moves the shared job-update listener to conn.
func (t *MultiJobTracker) rebindLocked(conn websocket.Conn) {
	t.conn.Off(t.listener)
	t.conn = conn
	t.listener = conn.On(websocket.EventJobUpdate, t.deliver)
}

// deliver filters by the desired set as it is at delivery time, not as it
// was when the listener was registered.
func (t *MultiJobTracker) deliver(data json.RawMessage) {
	u, ok := decode(data)
	if !ok {
		return
	}
	t.mu.Lock()
	wanted := t.desired[u.JobID]
	t.mu.Unlock()
	if wanted {
		t.handler(u)
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
