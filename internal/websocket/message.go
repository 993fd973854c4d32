package websocket

import (
	"encoding/json"
	"errors"
)

// Events exchanged on the push connection.
const (
	EventSubscribeJob   = "subscribe-job"
	EventUnsubscribeJob = "unsubscribe-job"
	EventJobUpdate      = "job-update"
)

// ErrNotConnected is returned by Emit while the transport is down.
// Nothing is buffered; callers that need delivery re-emit on reconnect.
var ErrNotConnected = errors.New("push connection is not established")

// Message is the JSON frame exchanged in both directions.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewMessage encodes payload as the data of a frame for event.
func NewMessage(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Event: event, Data: data})
}

// Handler receives the raw data of an inbound frame.
type Handler func(data json.RawMessage)

// ListenerID identifies a handler registered with On.
type ListenerID uint64

// Conn is the shared push connection handle handed out by Manager.
// It stays valid across reconnects; listeners registered on it survive
// transport drops until they are removed with Off or the Manager
// disconnects.
type Conn interface {
	// Emit sends one frame. It returns ErrNotConnected when the transport
	// is down.
	Emit(event string, payload interface{}) error
	// On registers h for inbound frames of the given event.
	On(event string, h Handler) ListenerID
	// Off removes a handler. Unknown ids are ignored.
	Off(id ListenerID)
	// Connected reports whether the transport is currently established.
	Connected() bool
	// ListenerCount returns how many handlers are registered for event.
	ListenerCount(event string) int
}
