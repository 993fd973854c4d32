// Package subscription keeps push job subscriptions in line with what the
// views currently show. JobTracker follows one job, MultiJobTracker a
// changing set of jobs; both share the connection handed out by a
// Connector and hand every matching update to an UpdateHandler.
package subscription

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/vrsandeep/contentsync-go/internal/models"
	"github.com/vrsandeep/contentsync-go/internal/websocket"
)

// Connector hands out the shared push connection. *websocket.Manager
// satisfies it.
type Connector interface {
	GetConnection() websocket.Conn
	OnConnectionChange(callback func(connected bool)) func()
}

// UpdateHandler receives job updates for tracked jobs. It is called on the
// connection's read goroutine with no tracker lock held.
type UpdateHandler func(models.JobUpdate)

// JobTracker subscribes to at most one job at a time.
type JobTracker struct {
	connector Connector
	handler   UpdateHandler

	mu       sync.Mutex
	jobID    string
	conn     websocket.Conn
	listener websocket.ListenerID
	unwatch  func()
	detached bool
}

// NewJobTracker creates a tracker delivering updates to handler.
func NewJobTracker(c Connector, handler UpdateHandler) *JobTracker {
	return &JobTracker{connector: c, handler: handler}
}

// Update moves the subscription to match the given job. The job is followed
// only while enabled is set, the id is not empty and the status is known and
// not terminal; otherwise any existing subscription is dropped. Switching to
// a different job unsubscribes the previous one first. Once the tracker is
// detached, Update does nothing.
func (t *JobTracker) Update(jobID string, status *models.JobStatus, enabled bool) {
	want := enabled && jobID != "" && status != nil && !status.IsTerminal()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.detached {
		return
	}
	if want && t.jobID == jobID {
		// Asking again restarts a dial loop that gave up.
		if conn := t.connector.GetConnection(); conn != t.conn {
			t.rebindLocked(conn)
			emit(t.conn, websocket.EventSubscribeJob, t.jobID)
		}
		return
	}
	t.unsubscribeLocked()
	if want {
		t.subscribeLocked(jobID)
	}
}

// Detach drops the subscription, if any, and retires the tracker.
func (t *JobTracker) Detach() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unsubscribeLocked()
	t.detached = true
}

// JobID returns the currently subscribed job id, or "".
func (t *JobTracker) JobID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.jobID
}

func (t *JobTracker) subscribeLocked(jobID string) {
	t.jobID = jobID
	t.conn = t.connector.GetConnection()
	t.listener = t.conn.On(websocket.EventJobUpdate, t.deliver(jobID))
	// Register before emitting so a connection coming up in between still
	// sends the subscription.
	t.unwatch = t.connector.OnConnectionChange(t.onConnectionChange)
	emit(t.conn, websocket.EventSubscribeJob, jobID)
}

func (t *JobTracker) unsubscribeLocked() {
	if t.jobID == "" {
		return
	}
	t.unwatch()
	t.conn.Off(t.listener)
	if t.conn.Connected() {
		emit(t.conn, websocket.EventUnsubscribeJob, t.jobID)
	}
	t.jobID = ""
	t.conn = nil
	t.unwatch = nil
}

func (t *JobTracker) onConnectionChange(connected bool) {
	if !connected {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.jobID == "" {
		return
	}
	// The manager hands out a new handle after a full disconnect.
	if conn := t.connector.GetConnection(); conn != t.conn {
		t.rebindLocked(conn)
	}
	emit(t.conn, websocket.EventSubscribeJob, t.jobID)
}

// rebindLocked moves the job-update listener to conn.
func (t *JobTracker) rebindLocked(conn websocket.Conn) {
	t.conn.Off(t.listener)
	t.conn = conn
	t.listener = conn.On(websocket.EventJobUpdate, t.deliver(t.jobID))
}

func (t *JobTracker) deliver(jobID string) websocket.Handler {
	return func(data json.RawMessage) {
		u, ok := decode(data)
		if !ok || u.JobID != jobID {
			return
		}
		t.handler(u)
	}
}

func decode(data json.RawMessage) (models.JobUpdate, bool) {
	var u models.JobUpdate
	if err := json.Unmarshal(data, &u); err != nil {
		log.Printf("Warning: malformed job update: %v", err)
		return u, false
	}
	return u, u.JobID != ""
}

// emit sends a control frame. While the transport is down the frame is
// dropped; subscriptions are re-sent once it reconnects.
func emit(conn websocket.Conn, event, jobID string) {
	err := conn.Emit(event, jobID)
	if err != nil && !errors.Is(err, websocket.ErrNotConnected) {
		log.Printf("Warning: failed to send %s for job %s: %v", event, jobID, err)
	}
}
