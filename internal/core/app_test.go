package core_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/contentsync-go/internal/config"
	"github.com/vrsandeep/contentsync-go/internal/core"
	"github.com/vrsandeep/contentsync-go/internal/models"
	"github.com/vrsandeep/contentsync-go/internal/testutil"
)

func setupApp(t *testing.T, token string, mutate func(*config.Config)) *core.App {
	t.Helper()
	env := testutil.SetupDevServer(t, "secret")

	cfg := &config.Config{}
	cfg.API.URL = env.APIURL()
	cfg.Auth.Token = token
	cfg.Push.ReconnectDelay = 10 * time.Millisecond
	cfg.Push.ReconnectAttempts = 2
	cfg.Page.Limit = 10
	if mutate != nil {
		mutate(cfg)
	}

	app, err := core.NewWithConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func TestApp_CreateAndFollowCurrent(t *testing.T) {
	app := setupApp(t, "secret", nil)
	stop := app.TrackCurrent()
	defer stop()

	created, err := app.Client().Create(context.Background(), "Live updates", models.ContentTypeArticle)
	require.NoError(t, err)
	app.Store().Created(created)

	assert.Eventually(t, func() bool {
		c := app.Store().Current()
		return c != nil && c.JobStatus != nil && *c.JobStatus == models.JobStatusCompleted
	}, 3*time.Second, 10*time.Millisecond)

	c := app.Store().Current()
	require.NotNil(t, c.Content)
	assert.Contains(t, *c.Content, "Live updates")
	assert.True(t, app.PushConnected())
}

func TestApp_DashboardTracksList(t *testing.T) {
	app := setupApp(t, "secret", nil)
	ctx := context.Background()
	for _, topic := range []string{"one", "two"} {
		_, err := app.Client().Create(ctx, topic, models.ContentTypeEmail)
		require.NoError(t, err)
	}
	page, err := app.Client().List(ctx, 1, 10)
	require.NoError(t, err)
	app.Store().Listed(page.Items, page.Pagination)

	stop := app.TrackList()
	defer stop()

	assert.Eventually(t, func() bool {
		return len(app.Store().ActiveJobIDs()) == 0
	}, 3*time.Second, 10*time.Millisecond)
	for _, c := range app.Store().List() {
		assert.Equal(t, models.JobStatusCompleted, *c.JobStatus, c.Topic)
	}
}

func TestApp_MetricsHandler(t *testing.T) {
	app := setupApp(t, "secret", nil)
	assert.Nil(t, app.MetricsHandler())

	app = setupApp(t, "secret", func(cfg *config.Config) { cfg.Metrics.Addr = ":0" })
	assert.NotNil(t, app.MetricsHandler())
}

func TestApp_TokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("secret\n"), 0o600))

	app := setupApp(t, "", func(cfg *config.Config) { cfg.Auth.TokenFile = path })

	_, err := app.Client().List(context.Background(), 1, 10)
	assert.NoError(t, err)
}

func TestApp_MissingTokenFile(t *testing.T) {
	cfg := &config.Config{}
	cfg.Auth.TokenFile = filepath.Join(t.TempDir(), "missing")
	_, err := core.NewWithConfig(cfg)
	assert.Error(t, err)
}
