package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

const (
	// PollJobStatusID fetches job status over REST while the push
	// connection is down.
	PollJobStatusID = "poll-job-status"
	// RefreshContentsID re-fetches the current listing page.
	RefreshContentsID = "refresh-contents"

	requestTimeout = 10 * time.Second
)

// RegisterAll registers every background job with the manager.
func RegisterAll(jm *JobManager) {
	jm.Register(PollJobStatusID, "Poll job status", pollJobStatus)
	jm.Register(RefreshContentsID, "Refresh contents", refreshContents)
}

// StartJobs starts the background job scheduler. The caller stops it.
func StartJobs(app JobContext) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	startPollJob(s, app)
	startRefreshJob(s, app)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
	return s
}

func startPollJob(s *gocron.Scheduler, app JobContext) {
	interval := app.Config().Poll.Interval
	if interval == 0 {
		log.Println("Job status poll interval is 0, REST fallback polling is disabled.")
		return
	}

	log.Printf("Scheduling job: '%s' to run every %d seconds.", PollJobStatusID, interval)
	_, err := s.Every(interval).Seconds().Do(func() {
		// Push delivery is live; nothing to catch up on.
		if app.PushConnected() {
			return
		}
		if err := app.JobManager().RunJob(PollJobStatusID, app); err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", PollJobStatusID, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", PollJobStatusID, err)
	}
}

func startRefreshJob(s *gocron.Scheduler, app JobContext) {
	interval := app.Config().Page.RefreshInterval
	if interval == 0 {
		return
	}

	log.Printf("Scheduling job: '%s' to run every %d seconds.", RefreshContentsID, interval)
	_, err := s.Every(interval).Seconds().WaitForSchedule().Do(func() {
		// Nothing listed yet.
		if app.Store().Pagination().Page == 0 {
			return
		}
		if err := app.JobManager().RunJob(RefreshContentsID, app); err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", RefreshContentsID, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", RefreshContentsID, err)
	}
}

// pollJobStatus merges a REST snapshot of every active job into the store.
func pollJobStatus(app JobContext) {
	ids := app.Store().AllActiveJobIDs()
	var failed int
	for _, jobID := range ids {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		c, err := app.Client().GetJobStatus(ctx, jobID)
		cancel()
		if err != nil {
			failed++
			log.Printf("Warning: job status for %s: %v", jobID, err)
			continue
		}
		app.Store().ApplyJobSnapshot(c)
	}
	if failed > 0 {
		app.JobManager().Fail(PollJobStatusID, fmt.Sprintf("%d of %d job status requests failed", failed, len(ids)))
	}
}

// refreshContents re-lists the page the store last listed.
func refreshContents(app JobContext) {
	p := app.Store().Pagination()
	page, limit := p.Page, p.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = app.Config().Page.Limit
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	result, err := app.Client().List(ctx, page, limit)
	if err != nil {
		log.Printf("Warning: refreshing contents: %v", err)
		app.JobManager().Fail(RefreshContentsID, err.Error())
		return
	}
	app.Store().Listed(result.Items, result.Pagination)
}
