package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

type AppConfig struct {
	Port int

	StoreBackend string
	RedisURL     string
	BadgerDir    string
	SessionTTL   time.Duration
	DatabaseURL  string

	AdminPassword     string
	AdminPasswordHash string
	JWTSecret         string
	JWTTTL            time.Duration

	StrictMoves  bool
	ChatLimit    int
	ChatCapacity int

	ClientOrigin string
	MessagesDir  string

	DefaultWhiteName string
	DefaultBlackName string
}

// AuthEnabled reports whether mutating routes require a token.
func (c *AppConfig) AuthEnabled() bool {
	return c.AdminPassword != "" || c.AdminPasswordHash != ""
}

// Addr is the listen address for the HTTP server.
func (c *AppConfig) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:             8531,
		StoreBackend:     BackendMemory,
		JWTTTL:           24 * time.Hour,
		ChatLimit:        50,
		ChatCapacity:     500,
		DefaultWhiteName: "White",
		DefaultBlackName: "Black",
	}

	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < 65536 {
			cfg.Port = n
		}
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND"))); v != "" {
		cfg.StoreBackend = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.BadgerDir = strings.TrimSpace(os.Getenv("BADGER_DIR"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if v := strings.TrimSpace(os.Getenv("SESSION_TTL")); v != "" { // seconds
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.SessionTTL = time.Duration(n) * time.Second
		}
	}

	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	cfg.AdminPasswordHash = strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_HASH"))
	cfg.JWTSecret = strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if v := strings.TrimSpace(os.Getenv("JWT_TTL_HOURS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.JWTTTL = time.Duration(n) * time.Hour
		}
	}

	if v := strings.TrimSpace(os.Getenv("STRICT_MOVES")); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			cfg.StrictMoves = b
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHAT_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ChatLimit = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("CHAT_CAPACITY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ChatCapacity = n
		}
	}
	if cfg.ChatCapacity < cfg.ChatLimit {
		cfg.ChatCapacity = cfg.ChatLimit
	}

	cfg.ClientOrigin = strings.TrimSpace(os.Getenv("CLIENT_ORIGIN"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))
	if v := strings.TrimSpace(os.Getenv("DEFAULT_WHITE_NAME")); v != "" {
		cfg.DefaultWhiteName = v
	}
	if v := strings.TrimSpace(os.Getenv("DEFAULT_BLACK_NAME")); v != "" {
		cfg.DefaultBlackName = v
	}

	switch cfg.StoreBackend {
	case BackendMemory:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required when STORE_BACKEND=redis")
		}
	case BackendBadger:
		if cfg.BadgerDir == "" {
			return nil, errors.New("BADGER_DIR is required when STORE_BACKEND=badger")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	if cfg.AuthEnabled() && cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required when an admin password is set")
	}

	return cfg, nil
}

// ClientConfig drives the command line client.
type ClientConfig struct {
	ServerURL   string
	Token       string
	PollTimeout time.Duration
}

func LoadClient() *ClientConfig {
	cfg := &ClientConfig{
		ServerURL:   "http://localhost:8531",
		PollTimeout: 5 * time.Second,
	}
	if v := strings.TrimSpace(os.Getenv("CHESSX_URL")); v != "" {
		cfg.ServerURL = strings.TrimRight(v, "/")
	}
	cfg.Token = strings.TrimSpace(os.Getenv("CHESSX_TOKEN"))
	if v := strings.TrimSpace(os.Getenv("POLL_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.PollTimeout = d
		} else if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PollTimeout = time.Duration(n) * time.Second
		}
	}
	return cfg
}
