package test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	portalgate "github.com/MrEthical07/portalgate"
	"github.com/MrEthical07/portalgate/audit/redisstream"
	"github.com/MrEthical07/portalgate/credentials"
	"github.com/MrEthical07/portalgate/internal/server"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stack struct {
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	engine *portalgate.Engine
	sink   *redisstream.Sink
	http   *httptest.Server
}

// newStack wires credentials, engine, Redis audit stream and the HTTP server
// the same way cmd/portalgate does.
func newStack(t *testing.T, mutate func(*portalgate.Config)) *stack {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hasher, err := credentials.NewHasher(credentials.Params{
		Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 16,
	})
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	users, err := credentials.NewDevStatic(hasher)
	if err != nil {
		t.Fatalf("dev users: %v", err)
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	sink, err := redisstream.New(rdb, redisstream.Config{Logger: quiet})
	if err != nil {
		t.Fatalf("sink: %v", err)
	}

	cfg := portalgate.DefaultConfig()
	cfg.Audit.Enabled = true
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := portalgate.New().
		WithConfig(cfg).
		WithCredentialVerifier(users).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("engine build: %v", err)
	}
	t.Cleanup(engine.Close)

	srv, err := server.New(engine, server.Options{WebRoot: t.TempDir(), Logger: quiet})
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &stack{mr: mr, rdb: rdb, engine: engine, sink: sink, http: ts}
}

func (s *stack) login(t *testing.T, form url.Values) *http.Response {
	t.Helper()
	resp, err := http.PostForm(s.http.URL+"/api/login", form)
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *stack) get(t *testing.T, path string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, s.http.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *stack) post(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Post(s.http.URL+path, "text/plain", strings.NewReader(""))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}
