package core

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-co-op/gocron"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vrsandeep/contentsync-go/internal/api"
	"github.com/vrsandeep/contentsync-go/internal/auth"
	"github.com/vrsandeep/contentsync-go/internal/config"
	"github.com/vrsandeep/contentsync-go/internal/jobs"
	"github.com/vrsandeep/contentsync-go/internal/metrics"
	"github.com/vrsandeep/contentsync-go/internal/models"
	"github.com/vrsandeep/contentsync-go/internal/reconcile"
	"github.com/vrsandeep/contentsync-go/internal/store"
	"github.com/vrsandeep/contentsync-go/internal/subscription"
	"github.com/vrsandeep/contentsync-go/internal/websocket"
)

// App holds the client's shared components. There is exactly one push
// connection manager per App; every tracker borrows its connection.
type App struct {
	config     *config.Config
	tokens     auth.TokenSource
	fileToken  *auth.FileToken
	conn       *websocket.Manager
	store      *store.Store
	client     *api.Client
	reconciler *reconcile.Reconciler
	jobManager *jobs.JobManager
	scheduler  *gocron.Scheduler
	registry   *prometheus.Registry
}

// New loads config.yml and sets up an App from it.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig sets up an App from cfg. Nothing is dialed until a
// component first asks for the push connection.
func NewWithConfig(cfg *config.Config) (*App, error) {
	app := &App{config: cfg}

	if cfg.Auth.TokenFile != "" {
		ft, err := auth.NewFileToken(cfg.Auth.TokenFile, func(string) {
			log.Println("Token file changed; the push connection picks it up on its next connect.")
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load token file: %w", err)
		}
		app.fileToken = ft
		app.tokens = ft
	} else {
		app.tokens = auth.StaticToken(cfg.Auth.Token)
	}

	var recorder metrics.Recorder = metrics.Nop{}
	if cfg.Metrics.Addr != "" {
		app.registry = prometheus.NewRegistry()
		recorder = metrics.NewCollector(app.registry)
	}

	app.conn = websocket.NewManager(websocket.Options{
		URL:               config.PushURL(cfg.API.URL, cfg.Push.URL),
		Tokens:            app.tokens,
		ReconnectDelay:    cfg.Push.ReconnectDelay,
		ReconnectDelayMax: cfg.Push.ReconnectDelayMax,
		ReconnectAttempts: cfg.Push.ReconnectAttempts,
		HandshakeTimeout:  cfg.Push.HandshakeTimeout,
		Metrics:           recorder,
	})
	app.store = store.New()
	app.client = api.NewClient(cfg.API.URL, app.tokens, nil)
	app.reconciler = reconcile.New(app.store, recorder)
	app.jobManager = jobs.NewManager(app)
	jobs.RegisterAll(app.jobManager)

	// Updates published while no subscription was in place are lost, so
	// every (re)connect catches up over REST once.
	app.conn.OnConnectionChange(func(connected bool) {
		if connected {
			if err := app.jobManager.RunJob(jobs.PollJobStatusID, app); err != nil {
				log.Printf("Catch-up poll skipped: %v", err)
			}
		}
	})

	return app, nil
}

func (a *App) Config() *config.Config            { return a.config }
func (a *App) Store() *store.Store               { return a.store }
func (a *App) Client() *api.Client               { return a.client }
func (a *App) Connection() *websocket.Manager    { return a.conn }
func (a *App) Reconciler() *reconcile.Reconciler { return a.reconciler }
func (a *App) JobManager() *jobs.JobManager      { return a.jobManager }

// PushConnected reports whether the push connection is up.
func (a *App) PushConnected() bool {
	return a.conn.IsConnected()
}

// TrackCurrent subscribes to the job of whatever record is current in the
// store until the returned function is called.
func (a *App) TrackCurrent() func() {
	t := subscription.NewJobTracker(a.conn, a.applyUpdate)
	return subscription.WatchCurrent(a.store, t)
}

// TrackList subscribes to the active jobs of the listed records until the
// returned function is called.
func (a *App) TrackList() func() {
	t := subscription.NewMultiJobTracker(a.conn, a.applyUpdate)
	return subscription.WatchList(a.store, t)
}

func (a *App) applyUpdate(u models.JobUpdate) {
	a.reconciler.Apply(u)
}

// StartScheduler starts the REST fallback poller.
func (a *App) StartScheduler() {
	if a.scheduler == nil {
		a.scheduler = jobs.StartJobs(a)
	}
}

// MetricsHandler serves the Prometheus metrics, or nil when metrics are
// disabled.
func (a *App) MetricsHandler() http.Handler {
	if a.registry == nil {
		return nil
	}
	return metrics.SetupMetricsRoute(a.registry)
}

// Close stops the scheduler, the push connection and the token watcher.
func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	a.conn.Disconnect()
	if a.fileToken != nil {
		a.fileToken.Close()
	}
}
