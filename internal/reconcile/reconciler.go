// Package reconcile folds push job updates into the content store.
package reconcile

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/vrsandeep/contentsync-go/internal/metrics"
	"github.com/vrsandeep/contentsync-go/internal/models"
	"github.com/vrsandeep/contentsync-go/internal/store"
)

// Reconciler applies job updates to a Store. It is safe for concurrent use;
// ordering between updates of one job is whatever order Apply is called in.
type Reconciler struct {
	store   *store.Store
	metrics metrics.Recorder
	verbose bool
}

// New creates a Reconciler writing to s. A nil recorder disables metrics.
func New(s *store.Store, rec metrics.Recorder) *Reconciler {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Reconciler{store: s, metrics: rec}
}

// SetVerbose turns on logging of discarded updates.
func (r *Reconciler) SetVerbose(v bool) {
	r.verbose = v
}

// Apply merges one update and reports what happened to it. An empty status
// counts as absent, so the rest of the update still applies.
func (r *Reconciler) Apply(u models.JobUpdate) store.ApplyResult {
	if u.Status != nil && *u.Status == "" {
		u.Status = nil
	}
	if err := validate(u); err != nil {
		r.metrics.RecordUpdate(metrics.OutcomeInvalid)
		if r.verbose {
			log.Printf("Warning: dropping job update: %v", err)
		}
		return store.Unmatched
	}

	res := r.store.ApplyJobUpdate(u)
	switch res {
	case store.Applied:
		r.metrics.RecordUpdate(metrics.OutcomeApplied)
	case store.Stale:
		r.metrics.RecordUpdate(metrics.OutcomeStale)
		if r.verbose {
			log.Printf("Discarding stale update %d for job %s", u.Seq, u.JobID)
		}
	case store.Unmatched:
		r.metrics.RecordUpdate(metrics.OutcomeUnmatched)
		if r.verbose {
			log.Printf("No content for job %s (content %q), update ignored", u.JobID, u.ContentIDValue())
		}
	}
	return res
}

// HandleMessage decodes a job-update payload and applies it. Its signature
// matches websocket.Handler.
func (r *Reconciler) HandleMessage(data json.RawMessage) {
	var u models.JobUpdate
	if err := json.Unmarshal(data, &u); err != nil {
		r.metrics.RecordUpdate(metrics.OutcomeInvalid)
		log.Printf("Warning: malformed job update: %v", err)
		return
	}
	r.Apply(u)
}

func validate(u models.JobUpdate) error {
	if u.JobID == "" {
		return fmt.Errorf("missing job id")
	}
	if u.Status != nil && !u.Status.Valid() {
		return fmt.Errorf("job %s: unknown status %q", u.JobID, *u.Status)
	}
	return nil
}
