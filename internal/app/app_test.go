package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/park285/chessx/internal/config"
)

func baseConfig() *config.AppConfig {
	return &config.AppConfig{
		Port:             8531,
		StoreBackend:     config.BackendMemory,
		JWTTTL:           time.Hour,
		ChatLimit:        50,
		ChatCapacity:     100,
		DefaultWhiteName: "White",
		DefaultBlackName: "Black",
	}
}

func serveOnce(t *testing.T, d *Deps, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	d.Server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewBackends(t *testing.T) {
	mr := miniredis.RunT(t)
	cases := map[string]func(*config.AppConfig){
		"memory": func(*config.AppConfig) {},
		"badger": func(c *config.AppConfig) {
			c.StoreBackend = config.BackendBadger
			c.BadgerDir = filepath.Join(t.TempDir(), "badger")
		},
		"redis": func(c *config.AppConfig) {
			c.StoreBackend = config.BackendRedis
			c.RedisURL = "redis://" + mr.Addr() + "/0"
		},
	}
	for name, tweak := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := baseConfig()
			tweak(cfg)
			d, err := New(context.Background(), cfg, nil)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer d.Close()

			rec := serveOnce(t, d, http.MethodGet, "/healthz", "")
			if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), name) {
				t.Fatalf("healthz: %d %s", rec.Code, rec.Body.String())
			}
			rec = serveOnce(t, d, http.MethodPost, "/tchat", `{"text":"salut"}`)
			if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "salut") {
				t.Fatalf("chat: %d %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestNewWithArchiveAndAuth(t *testing.T) {
	cfg := baseConfig()
	cfg.DatabaseURL = filepath.Join(t.TempDir(), "games.db")
	cfg.AdminPassword = "pw"
	cfg.JWTSecret = "secret"
	d, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()
	if d.Archive == nil {
		t.Fatalf("archive not opened")
	}
	if rec := serveOnce(t, d, http.MethodPost, "/reset", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("reset without token: %d", rec.Code)
	}
	if rec := serveOnce(t, d, http.MethodGet, "/archive", ""); rec.Code != http.StatusOK {
		t.Fatalf("archive: %d %s", rec.Code, rec.Body.String())
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(context.Background(), nil, nil); err == nil {
		t.Fatalf("nil config should fail")
	}
	cfg := baseConfig()
	cfg.StoreBackend = config.BackendRedis
	cfg.RedisURL = "redis://127.0.0.1:1/0"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("unreachable redis should fail")
	}
	cfg = baseConfig()
	cfg.AdminPassword = "pw"
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatalf("password without secret should fail")
	}
}
