// Shared setup for tests that need a running Content Service.

package testutil

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vrsandeep/contentsync-go/internal/api"
	"github.com/vrsandeep/contentsync-go/internal/auth"
	"github.com/vrsandeep/contentsync-go/internal/devserver"
	"github.com/vrsandeep/contentsync-go/internal/pushserver"
)

// StepDelay is the generator step used by DevEnv. A job completes after
// three steps.
const StepDelay = 20 * time.Millisecond

// DevEnv is a dev Content Service listening on a local port.
type DevEnv struct {
	Hub    *pushserver.Hub
	Server *devserver.Server
	HTTP   *httptest.Server
	Token  string
}

// SetupDevServer starts a dev Content Service requiring token (none when
// empty) and stops it when the test ends.
func SetupDevServer(t *testing.T, token string) *DevEnv {
	t.Helper()
	hub := pushserver.NewHub()
	go hub.Run()
	server := devserver.NewServer(hub, devserver.Options{Token: token, StepDelay: StepDelay, Quiet: true})
	srv := httptest.NewServer(server.Router())

	t.Cleanup(func() {
		srv.Close()
		server.Close()
		hub.Stop()
	})
	return &DevEnv{Hub: hub, Server: server, HTTP: srv, Token: token}
}

// APIURL returns the REST base URL.
func (e *DevEnv) APIURL() string {
	return e.HTTP.URL + "/api/v1"
}

// PushURL returns the push endpoint URL.
func (e *DevEnv) PushURL() string {
	return "ws" + strings.TrimPrefix(e.HTTP.URL, "http") + "/ws"
}

// Client returns a REST client authenticated with the server's token.
func (e *DevEnv) Client() *api.Client {
	return api.NewClient(e.APIURL(), auth.StaticToken(e.Token), e.HTTP.Client())
}
