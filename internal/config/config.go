// internal/config/config.go
package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/ffaiyaz23/commercechat/internal/backend"
	"github.com/joho/godotenv"
)

type Config struct {
	AIServiceURL   string
	BackendURL     string
	SearchURL      string
	MockBackend    bool   // start the in-process mock and point every URL at it
	MockSigningKey string // HS256 key the mock uses for login tokens
	ViewHeight     int    // visible rows of the chat window
	ViewWidth      int
	BotToken       string
	SigningSecret  string
	StreamMode     string // "update" or "thread"
	WorkerPoolSize int
	Port           string
	LogFile        string // where chat and search write logs; discarded when empty
}

// Load reads .env (if any) and then the process environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the environment, applying defaults.
func FromEnv() Config {
	cfg := Config{
		AIServiceURL:   os.Getenv("AI_SERVICE_URL"),
		BackendURL:     os.Getenv("BACKEND_URL"),
		SearchURL:      os.Getenv("SEARCH_URL"),
		MockSigningKey: os.Getenv("MOCK_SIGNING_KEY"),
		BotToken:       os.Getenv("SLACK_BOT_TOKEN"),
		SigningSecret:  os.Getenv("SLACK_SIGNING_SECRET"),
		StreamMode:     os.Getenv("SLACK_STREAM_MODE"),
		Port:           os.Getenv("PORT"),
		LogFile:        os.Getenv("LOG_FILE"),
	}
	if cfg.AIServiceURL == "" {
		cfg.AIServiceURL = backend.DefaultAIServiceURL
	}
	if cfg.BackendURL == "" {
		cfg.BackendURL = backend.DefaultBackendURL
	}
	if cfg.SearchURL == "" {
		cfg.SearchURL = backend.DefaultSearchURL
	}
	cfg.MockBackend, _ = strconv.ParseBool(os.Getenv("MOCK_BACKEND"))
	if cfg.MockSigningKey == "" {
		cfg.MockSigningKey = backend.DefaultSigningKey
	}
	cfg.ViewHeight = intOr("CHAT_VIEW_HEIGHT", 20)
	cfg.ViewWidth = intOr("CHAT_VIEW_WIDTH", 80)
	if cfg.StreamMode != "thread" {
		cfg.StreamMode = "update"
	}
	cfg.WorkerPoolSize = intOr("WORKER_POOL_SIZE", 10)
	if cfg.Port == "" {
		cfg.Port = "3000"
	}
	return cfg
}

// Options returns the API client configuration.
func (c Config) Options() backend.Options {
	return backend.Options{
		AIServiceURL: c.AIServiceURL,
		BackendURL:   c.BackendURL,
		SearchURL:    c.SearchURL,
	}
}

// ValidateSlack reports whether the Slack surface can start.
func (c Config) ValidateSlack() error {
	if c.BotToken == "" || c.SigningSecret == "" {
		return errors.New("SLACK_BOT_TOKEN and SLACK_SIGNING_SECRET must be set")
	}
	return nil
}

func intOr(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
