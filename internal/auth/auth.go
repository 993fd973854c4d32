// Package auth holds the bearer credential used for REST requests and the
// push handshake. Issuing and refreshing credentials happens elsewhere;
// this package only hands out whatever token is currently held.
package auth

import (
	"os"
	"strings"
	"sync"
)

// TokenSource returns the credential currently held, or "" when there is none.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed credential, typically taken from configuration.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token() string { return string(t) }

// MemoryToken is a credential that can be replaced at runtime, e.g. after
// a login or refresh performed by the caller.
type MemoryToken struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryToken creates a MemoryToken holding the given token.
func NewMemoryToken(token string) *MemoryToken {
	return &MemoryToken{token: token}
}

// Token implements TokenSource.
func (m *MemoryToken) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Set replaces the held token. Connections already established keep the
// token they were opened with.
func (m *MemoryToken) Set(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

// readTokenFile reads a token file, trimming surrounding whitespace.
func readTokenFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
