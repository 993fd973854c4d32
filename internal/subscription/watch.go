package subscription

import "github.com/vrsandeep/contentsync-go/internal/store"

// WatchCurrent keeps t subscribed to the job of the store's current record
// and returns a function that stops watching and detaches t.
func WatchCurrent(s *store.Store, t *JobTracker) func() {
	follow := func() {
		cur := s.Current()
		if cur == nil {
			t.Update("", nil, false)
			return
		}
		t.Update(cur.JobIDValue(), cur.JobStatus, true)
	}
	unregister := s.OnChange(follow)
	follow()
	return func() {
		unregister()
		t.Detach()
	}
}

// WatchList keeps t subscribed to the active jobs of the listed records and
// returns a function that stops watching and detaches t.
func WatchList(s *store.Store, t *MultiJobTracker) func() {
	follow := func() {
		t.SetJobs(s.ActiveJobIDs(), true)
	}
	unregister := s.OnChange(follow)
	follow()
	return func() {
		unregister()
		t.Detach()
	}
}
