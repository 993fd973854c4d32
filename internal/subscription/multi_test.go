package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vrsandeep/contentsync-go/internal/models"
	"github.com/vrsandeep/contentsync-go/internal/websocket"
)

func TestMultiJobTracker_DiffsSets(t *testing.T) {
	c := newFakeConnector(true)
	tr := NewMultiJobTracker(c, (&updateLog{}).handle)

	tr.SetJobs([]string{"a", "b", "c"}, true)
	conn := c.current()
	assert.Equal(t, []frame{sub("a"), sub("b"), sub("c")}, conn.sent())

	conn.reset()
	tr.SetJobs([]string{"b", "c", "d"}, true)
	assert.Equal(t, []frame{unsub("a"), sub("d")}, conn.sent())
	assert.Equal(t, []string{"b", "c", "d"}, tr.JobIDs())
	assert.Equal(t, 1, conn.ListenerCount(websocket.EventJobUpdate), "one shared listener")
	assert.Equal(t, 1, c.listenerCount())
}

func TestMultiJobTracker_SameSetSendsNothing(t *testing.T) {
	c := newFakeConnector(true)
	tr := NewMultiJobTracker(c, (&updateLog{}).handle)

	tr.SetJobs([]string{"a", "b", "a", ""}, true)
	c.current().reset()
	tr.SetJobs([]string{"b", "a"}, true)

	assert.Empty(t, c.current().sent())
}

func TestMultiJobTracker_DisabledUnsubscribesAll(t *testing.T) {
	c := newFakeConnector(true)
	tr := NewMultiJobTracker(c, (&updateLog{}).handle)
	tr.SetJobs([]string{"a", "b"}, true)
	conn := c.current()
	conn.reset()

	tr.SetJobs([]string{"a", "b"}, false)

	assert.Equal(t, []frame{unsub("a"), unsub("b")}, conn.sent())
	assert.Empty(t, tr.JobIDs())
	assert.Equal(t, 0, conn.ListenerCount(websocket.EventJobUpdate))
	assert.Equal(t, 0, c.listenerCount())
}

func TestMultiJobTracker_FiltersByLiveSet(t *testing.T) {
	c := newFakeConnector(true)
	log := &updateLog{}
	tr := NewMultiJobTracker(c, log.handle)
	tr.SetJobs([]string{"a", "b"}, true)
	conn := c.current()

	conn.push(t, models.JobUpdate{JobID: "a"})
	tr.SetJobs([]string{"b"}, true)
	conn.push(t, models.JobUpdate{JobID: "a"})
	conn.push(t, models.JobUpdate{JobID: "b"})
	conn.push(t, models.JobUpdate{JobID: "zzz"})

	assert.Equal(t, []string{"a", "b"}, log.jobIDs())
}

func TestMultiJobTracker_Detach(t *testing.T) {
	c := newFakeConnector(true)
	tr := NewMultiJobTracker(c, (&updateLog{}).handle)
	tr.SetJobs([]string{"x", "y"}, true)
	conn := c.current()
	conn.reset()

	tr.Detach()
	tr.Detach()

	assert.Equal(t, []frame{unsub("x"), unsub("y")}, conn.sent())
	assert.Equal(t, 0, conn.ListenerCount(websocket.EventJobUpdate))
	assert.Equal(t, 0, c.listenerCount())
}

func TestMultiJobTracker_ResubscribesOnReconnect(t *testing.T) {
	c := newFakeConnector(false)
	tr := NewMultiJobTracker(c, (&updateLog{}).handle)

	tr.SetJobs([]string{"b", "a"}, true)
	assert.Empty(t, c.current().sent())

	c.setConnected(true)
	assert.Equal(t, []frame{sub("a"), sub("b")}, c.current().sent())

	fresh := c.replace(true)
	assert.Equal(t, []frame{sub("a"), sub("b")}, fresh.sent())
	assert.Equal(t, 1, fresh.ListenerCount(websocket.EventJobUpdate))
}

func TestMultiJobTracker_IgnoresSetJobsAfterDetach(t *testing.T) {
	c := newFakeConnector(true)
	tr := NewMultiJobTracker(c, (&updateLog{}).handle)

	tr.SetJobs([]string{"j1"}, true)
	tr.Detach()
	tr.SetJobs([]string{"j2"}, true)

	assert.Equal(t, []frame{sub("j1"), unsub("j1")}, c.current().sent())
	assert.Empty(t, tr.JobIDs())
	assert.Equal(t, 0, c.current().ListenerCount(websocket.EventJobUpdate))
	assert.Equal(t, 0, c.listenerCount())
}

func TestMultiJobTracker_SetJobsPicksUpNewHandle(t *testing.T) {
	c := newFakeConnector(true)
	tr := NewMultiJobTracker(c, (&updateLog{}).handle)
	tr.SetJobs([]string{"a", "b"}, true)
	old := c.current()

	fresh := c.swap(true)
	tr.SetJobs([]string{"b", "c"}, true)

	assert.Equal(t, 0, old.ListenerCount(websocket.EventJobUpdate))
	assert.Equal(t, 1, fresh.ListenerCount(websocket.EventJobUpdate))
	assert.Equal(t, []frame{sub("b"), unsub("a"), sub("c")}, fresh.sent())
	assert.Equal(t, []string{"b", "c"}, tr.JobIDs())
}
