// This file defines the configuration structure for the application.
package config

import (
	// use Viper for loading the config.yml file.
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	API struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"api"`
	Push struct {
		URL               string        `mapstructure:"url"` // Derived from api.url when empty
		ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
		ReconnectDelayMax time.Duration `mapstructure:"reconnect_delay_max"`
		ReconnectAttempts int           `mapstructure:"reconnect_attempts"`
		HandshakeTimeout  time.Duration `mapstructure:"handshake_timeout"`
	} `mapstructure:"push"`
	Auth struct {
		Token     string `mapstructure:"token"`
		TokenFile string `mapstructure:"token_file"` // Watched for changes when set
	} `mapstructure:"auth"`
	Poll struct {
		Interval int `mapstructure:"interval"` // Seconds; 0 disables the REST fallback
	} `mapstructure:"poll"`
	Page struct {
		Limit           int `mapstructure:"limit"`
		RefreshInterval int `mapstructure:"refresh_interval"` // Seconds; 0 disables periodic re-listing
	} `mapstructure:"page"`
	Metrics struct {
		Addr string `mapstructure:"addr"` // Empty disables the metrics endpoint
	} `mapstructure:"metrics"`
	DevServer struct {
		Port      int           `mapstructure:"port"`
		StepDelay time.Duration `mapstructure:"step_delay"`
		Token     string        `mapstructure:"token"`
	} `mapstructure:"devserver"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom behaves like Load but reads the given file when path is not empty.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config") // name of config file (without extension)
		v.SetConfigType("yml")    // or "yaml"
		v.AddConfigPath(".")      // looking for config in the current directory
	}

	// --- Environment Variable Overrides ---
	// e.g., CONTENTSYNC_AUTH_TOKEN will override the `auth.token` key.
	v.SetEnvPrefix("CONTENTSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	v.SetDefault("api.url", "http://localhost:5000/api/v1")
	v.SetDefault("push.url", "")
	v.SetDefault("push.reconnect_delay", time.Second)
	v.SetDefault("push.reconnect_delay_max", 5*time.Second)
	v.SetDefault("push.reconnect_attempts", 5)
	v.SetDefault("push.handshake_timeout", 10*time.Second)
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.token_file", "")
	v.SetDefault("poll.interval", 10)
	v.SetDefault("page.limit", 10)
	v.SetDefault("page.refresh_interval", 60)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("devserver.port", 5000)
	v.SetDefault("devserver.step_delay", 2*time.Second)
	v.SetDefault("devserver.token", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error and use defaults
		} else {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	config.Push.URL = PushURL(config.API.URL, config.Push.URL)

	return &config, nil
}

// PushURL returns the push endpoint. An explicit value wins; otherwise the
// REST base has its "/api/v1" suffix replaced by "/ws" and its scheme
// switched to ws/wss.
func PushURL(apiURL, explicit string) string {
	if explicit != "" {
		return explicit
	}
	base := strings.TrimSuffix(strings.TrimSuffix(apiURL, "/"), "/api/v1")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}
