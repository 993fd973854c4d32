// This file implements the process-wide push connection manager.
// A single Manager is created at startup and handed to every tracker.

package websocket

import (
	"log"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/vrsandeep/contentsync-go/internal/auth"
	"github.com/vrsandeep/contentsync-go/internal/metrics"
)

// Options configures a Manager.
type Options struct {
	URL               string
	Tokens            auth.TokenSource
	ReconnectDelay    time.Duration
	ReconnectDelayMax time.Duration
	ReconnectAttempts int
	HandshakeTimeout  time.Duration
	Metrics           metrics.Recorder
	Dialer            *gorilla.Dialer // Defaults to a dialer using HandshakeTimeout
}

// Manager owns the single shared push connection of the process.
type Manager struct {
	opts Options

	mu           sync.Mutex
	socket       *socket
	listeners    map[uint64]func(bool)
	nextListener uint64
}

// NewManager creates a Manager. Nothing is dialed until the first
// GetConnection or Connect call.
func NewManager(opts Options) *Manager {
	if opts.Tokens == nil {
		opts.Tokens = auth.StaticToken("")
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = time.Second
	}
	if opts.ReconnectDelayMax < opts.ReconnectDelay {
		opts.ReconnectDelayMax = opts.ReconnectDelay
	}
	if opts.ReconnectAttempts < 0 {
		opts.ReconnectAttempts = 0
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	if opts.Dialer == nil {
		opts.Dialer = &gorilla.Dialer{
			Proxy:            gorilla.DefaultDialer.Proxy,
			HandshakeTimeout: opts.HandshakeTimeout,
		}
	}
	return &Manager{
		opts:      opts,
		listeners: make(map[uint64]func(bool)),
	}
}

// GetConnection returns the shared connection handle, creating it on first
// use. If the handle exists but is neither connected nor currently dialing
// (e.g. reconnect attempts were exhausted), a new dial loop is started on
// the same handle. A second dial loop is never started while one runs.
func (m *Manager) GetConnection() Conn {
	m.mu.Lock()
	s := m.socket
	if s == nil {
		s = newSocket(m)
		m.socket = s
	}
	m.mu.Unlock()

	s.start()
	return s
}

// Connect starts establishing the shared connection if it is not already
// connected or connecting. The credential is read when the dial loop starts
// and reused by its reconnect attempts.
func (m *Manager) Connect() {
	m.GetConnection()
}

// Disconnect tears down the transport, stops reconnecting and drops the
// handle. Listeners registered on the old handle are discarded with it.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	s := m.socket
	m.socket = nil
	m.mu.Unlock()

	if s == nil {
		return
	}
	s.close()
	log.Println("Push connection closed")
	m.notify(false)
}

// IsConnected reports whether the shared connection is established.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	s := m.socket
	m.mu.Unlock()
	return s != nil && s.Connected()
}

// OnConnectionChange registers a listener for connection state changes and
// returns a function that unregisters it.
func (m *Manager) OnConnectionChange(callback func(connected bool)) func() {
	m.mu.Lock()
	m.nextListener++
	id := m.nextListener
	m.listeners[id] = callback
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// notify calls every connection listener. A panicking listener is logged
// and does not prevent the others from running.
func (m *Manager) notify(connected bool) {
	m.opts.Metrics.RecordConnectionState(connected)

	m.mu.Lock()
	ids := make([]uint64, 0, len(m.listeners))
	for id := range m.listeners {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		m.mu.Lock()
		callback, ok := m.listeners[id]
		m.mu.Unlock()
		if !ok {
			continue
		}
		safeNotify(callback, connected)
	}
}

func safeNotify(callback func(bool), connected bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Error in connection listener: %v\n%s", r, debug.Stack())
		}
	}()
	callback(connected)
}

// reconnectDelay returns the wait before reconnect attempt n (1-based):
// the base delay doubled per attempt, capped at the maximum.
func (m *Manager) reconnectDelay(n int) time.Duration {
	delay := m.opts.ReconnectDelay
	for i := 1; i < n; i++ {
		delay *= 2
		if delay >= m.opts.ReconnectDelayMax {
			return m.opts.ReconnectDelayMax
		}
	}
	if delay > m.opts.ReconnectDelayMax {
		return m.opts.ReconnectDelayMax
	}
	return delay
}
