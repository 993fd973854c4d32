package jobs

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/vrsandeep/contentsync-go/internal/api"
	"github.com/vrsandeep/contentsync-go/internal/config"
	"github.com/vrsandeep/contentsync-go/internal/store"
)

// JobContext provides the dependencies a background job needs.
// The core.App struct implements this interface.
type JobContext interface {
	Config() *config.Config
	Store() *store.Store
	Client() *api.Client
	PushConnected() bool
	JobManager() *JobManager
}

type jobTask func(ctx JobContext)

// RunStatus describes the last run of a background job.
type RunStatus struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"` // "idle", "running", "success", "failed"
	Message   string    `json:"message"`
	StartTime time.Time `json:"start_time,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty"`
}

// JobManager runs registered jobs one at a time, whether triggered by the
// scheduler or by hand.
type JobManager struct {
	mu      sync.Mutex
	jobs    map[string]jobTask
	status  map[string]*RunStatus
	running bool
	appCtx  JobContext
}

func NewManager(appCtx JobContext) *JobManager {
	return &JobManager{
		jobs:   make(map[string]jobTask),
		status: make(map[string]*RunStatus),
		appCtx: appCtx,
	}
}

func (jm *JobManager) Register(id, name string, task jobTask) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.jobs[id] = task
	jm.status[id] = &RunStatus{ID: id, Name: name, Status: "idle"}
}

// RunJob starts a job in the background. It fails when another job is
// still running or id is unknown.
func (jm *JobManager) RunJob(id string, ctx JobContext) error {
	done, err := jm.start(id, ctx)
	if err != nil {
		return err
	}
	go done()
	return nil
}

// RunJobSync is RunJob but waits for the job to finish.
func (jm *JobManager) RunJobSync(id string, ctx JobContext) error {
	done, err := jm.start(id, ctx)
	if err != nil {
		return err
	}
	done()
	return nil
}

func (jm *JobManager) start(id string, ctx JobContext) (func(), error) {
	if ctx == nil {
		ctx = jm.appCtx
	}
	jm.mu.Lock()
	if jm.running {
		jm.mu.Unlock()
		return nil, fmt.Errorf("a job is already running")
	}
	task, ok := jm.jobs[id]
	if !ok {
		jm.mu.Unlock()
		return nil, fmt.Errorf("job '%s' not found", id)
	}
	jm.running = true
	status := jm.status[id]
	status.Status = "running"
	status.StartTime = time.Now()
	status.Message = "Job started..."
	jm.mu.Unlock()

	return func() {
		defer func() {
			r := recover()
			jm.mu.Lock()
			if r != nil {
				log.Printf("Job '%s' panicked: %v", id, r)
				status.Status = "failed"
				status.Message = fmt.Sprintf("Job panicked: %v", r)
			}
			status.EndTime = time.Now()
			if status.Status == "running" {
				status.Status = "success"
				status.Message = "Job completed successfully."
			}
			jm.running = false
			jm.mu.Unlock()
		}()
		task(ctx)
	}, nil
}

// Fail marks a running job as failed. Tasks call it to report errors.
func (jm *JobManager) Fail(id, message string) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	if s, ok := jm.status[id]; ok && s.Status == "running" {
		s.Status = "failed"
		s.Message = message
	}
}

// GetStatus returns a copy of every job's status, ordered by id.
func (jm *JobManager) GetStatus() []RunStatus {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	statuses := make([]RunStatus, 0, len(jm.status))
	for _, s := range jm.status {
		statuses = append(statuses, *s)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ID < statuses[j].ID })
	return statuses
}
