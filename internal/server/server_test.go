package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/sakif/storefront/internal/config"
	"github.com/sakif/storefront/internal/imagehost"
)

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	srv, err := New(cfg, logger, imagehost.Disabled{})
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}
	t.Cleanup(func() { srv.db.Close() })
	return srv
}

func baseConfig() config.Config {
	return config.Config{
		Port:        8080,
		DBPath:      ":memory:",
		JWTSecret:   "server-test-secret-key",
		TokenTTL:    time.Hour,
		CORSOrigins: []string{"*"},
	}
}

// get issues a GET from a fixed client address, so every request counts
// against the same rate-limit bucket.
func get(srv *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "203.0.113.7:4321"
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func TestRateLimit_RejectsAboveThreshold(t *testing.T) {
	cfg := baseConfig()
	cfg.RateLimitRequests = 3
	cfg.RateLimitWindow = time.Minute
	srv := newTestServer(t, cfg)

	for i := 0; i < 3; i++ {
		if rr := get(srv, "/healthz"); rr.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rr.Code)
		}
	}

	if rr := get(srv, "/healthz"); rr.Code != http.StatusTooManyRequests {
		t.Errorf("request over the limit: status = %d, want 429", rr.Code)
	}
}

func TestRateLimit_DisabledWhenZero(t *testing.T) {
	cfg := baseConfig()
	cfg.RateLimitRequests = 0
	srv := newTestServer(t, cfg)

	for i := 0; i < 20; i++ {
		if rr := get(srv, "/healthz"); rr.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200 with limiting off", i+1, rr.Code)
		}
	}
}
