// This test file verifies the configuration loading logic using Viper.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults when no config file", func(t *testing.T) {
		// Ensure no config file exists for this test
		os.Remove("config.yml")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned an error: %v", err)
		}

		// Check if default values are set
		if cfg.API.URL != "http://localhost:5000/api/v1" {
			t.Errorf("Expected default api url, got '%s'", cfg.API.URL)
		}
		if cfg.Push.URL != "ws://localhost:5000/ws" {
			t.Errorf("Expected derived push url 'ws://localhost:5000/ws', got '%s'", cfg.Push.URL)
		}
		if cfg.Push.ReconnectDelay != time.Second {
			t.Errorf("Expected reconnect delay 1s, got %v", cfg.Push.ReconnectDelay)
		}
		if cfg.Push.ReconnectDelayMax != 5*time.Second {
			t.Errorf("Expected reconnect delay max 5s, got %v", cfg.Push.ReconnectDelayMax)
		}
		if cfg.Push.ReconnectAttempts != 5 {
			t.Errorf("Expected 5 reconnect attempts, got %d", cfg.Push.ReconnectAttempts)
		}
		if cfg.Page.Limit != 10 {
			t.Errorf("Expected default page limit 10, got %d", cfg.Page.Limit)
		}
		if cfg.Page.RefreshInterval != 60 {
			t.Errorf("Expected default refresh interval 60, got %d", cfg.Page.RefreshInterval)
		}
	})

	t.Run("Loads from config file", func(t *testing.T) {
		// Create a temporary config file for this test
		configContent := `
api:
  url: "https://content.example.com/api/v1"
push:
  reconnect_attempts: 3
  reconnect_delay: "250ms"
auth:
  token: "secret"
unknown_setting: "should be ignored"
`
		// Create the config file in the current directory so Viper can find it.
		configPath := "config.yml"
		if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write test config file: %v", err)
		}
		// Clean up the file after the test
		defer os.Remove(configPath)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned an error: %v", err)
		}

		if cfg.Push.URL != "wss://content.example.com/ws" {
			t.Errorf("Expected derived push url 'wss://content.example.com/ws', got '%s'", cfg.Push.URL)
		}
		if cfg.Push.ReconnectAttempts != 3 {
			t.Errorf("Expected 3 reconnect attempts, got %d", cfg.Push.ReconnectAttempts)
		}
		if cfg.Push.ReconnectDelay != 250*time.Millisecond {
			t.Errorf("Expected reconnect delay 250ms, got %v", cfg.Push.ReconnectDelay)
		}
		if cfg.Auth.Token != "secret" {
			t.Errorf("Expected token 'secret', got '%s'", cfg.Auth.Token)
		}
		if cfg.Poll.Interval != 10 {
			t.Errorf("Expected default poll interval of 10, got %d", cfg.Poll.Interval)
		}
	})

	t.Run("Environment overrides", func(t *testing.T) {
		os.Remove("config.yml")
		t.Setenv("CONTENTSYNC_AUTH_TOKEN", "from-env")
		t.Setenv("CONTENTSYNC_PUSH_URL", "ws://push.internal/socket")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned an error: %v", err)
		}
		if cfg.Auth.Token != "from-env" {
			t.Errorf("Expected token 'from-env', got '%s'", cfg.Auth.Token)
		}
		if cfg.Push.URL != "ws://push.internal/socket" {
			t.Errorf("Expected explicit push url to win, got '%s'", cfg.Push.URL)
		}
	})

	t.Run("Explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "client.yaml")
		if err := os.WriteFile(path, []byte("page:\n  limit: 25\n"), 0644); err != nil {
			t.Fatalf("Failed to write test config file: %v", err)
		}
		cfg, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("LoadFrom() returned an error: %v", err)
		}
		if cfg.Page.Limit != 25 {
			t.Errorf("Expected page limit 25, got %d", cfg.Page.Limit)
		}
	})
}

func TestPushURL(t *testing.T) {
	cases := map[string]string{
		"http://localhost:5000/api/v1":  "ws://localhost:5000/ws",
		"https://example.com/api/v1/":   "wss://example.com/ws",
		"http://example.com":            "ws://example.com/ws",
	}
	for in, want := range cases {
		if got := PushURL(in, ""); got != want {
			t.Errorf("PushURL(%q) = %q, want %q", in, got, want)
		}
	}
}
