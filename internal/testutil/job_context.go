// This file contains shared test utilities for job context mocking.

package testutil

import (
	"sync/atomic"

	"github.com/vrsandeep/contentsync-go/internal/api"
	"github.com/vrsandeep/contentsync-go/internal/config"
	"github.com/vrsandeep/contentsync-go/internal/jobs"
	"github.com/vrsandeep/contentsync-go/internal/store"
)

// MockJobContext implements jobs.JobContext for testing.
type MockJobContext struct {
	Cfg       *config.Config
	St        *store.Store
	API       *api.Client
	Connected atomic.Bool
	Jobs      *jobs.JobManager
}

// NewMockJobContext returns a context with an empty store and its own
// job manager.
func NewMockJobContext() *MockJobContext {
	m := &MockJobContext{Cfg: &config.Config{}, St: store.New()}
	m.Jobs = jobs.NewManager(m)
	return m
}

func (m *MockJobContext) Config() *config.Config       { return m.Cfg }
func (m *MockJobContext) Store() *store.Store          { return m.St }
func (m *MockJobContext) Client() *api.Client          { return m.API }
func (m *MockJobContext) PushConnected() bool          { return m.Connected.Load() }
func (m *MockJobContext) JobManager() *jobs.JobManager { return m.Jobs }
