package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	portalgate "github.com/MrEthical07/portalgate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var errDirectoryDown = errors.New("directory down")

var testVerifier = portalgate.CredentialVerifierFunc(func(_ context.Context, username, password string) error {
	switch {
	case username == "broken":
		return errDirectoryDown
	case username == "testuser" && password == "testpass":
		return nil
	default:
		return portalgate.ErrInvalidCredentials
	}
})

type fixture struct {
	server *Server
	engine *portalgate.Engine
	clock  *fakeClock
	root   string
}

func newFixture(t *testing.T, mutate func(*portalgate.Config)) *fixture {
	t.Helper()

	cfg := portalgate.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	engine, err := portalgate.New().
		WithConfig(cfg).
		WithCredentialVerifier(testVerifier).
		WithClock(clock).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	root := t.TempDir()
	srv, err := New(engine, Options{
		WebRoot: root,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return &fixture{server: srv, engine: engine, clock: clock, root: root}
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) login(t *testing.T, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(t, req)
}

func (f *fixture) check(t *testing.T, query string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, httptest.NewRequest(http.MethodGet, "/api/check?"+query, nil))
}

func decodeLogin(t *testing.T, rec *httptest.ResponseRecorder) loginResponse {
	t.Helper()
	var body loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return body
}

func mustLogin(t *testing.T, f *fixture, ip, mac string) string {
	t.Helper()
	rec := f.login(t, url.Values{"username": {"testuser"}, "password": {"testpass"}, "ip": {ip}, "mac": {mac}})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", rec.Code, rec.Body.String())
	}
	return decodeLogin(t, rec).Token
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("content type = %q", rec.Header().Get("Content-Type"))
	}
	if rec.Header().Get("Server") != "portalgate" {
		t.Fatalf("server header = %q", rec.Header().Get("Server"))
	}
}

func TestPortalPage(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/portal", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "<h1>portal.html missing</h1>" {
		t.Fatalf("missing page = %d %q", rec.Code, rec.Body.String())
	}

	page := "<html><body>welcome</body></html>"
	if err := os.WriteFile(filepath.Join(f.root, "portal.html"), []byte(page), 0o600); err != nil {
		t.Fatal(err)
	}
	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/portal", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != page {
		t.Fatalf("portal page = %d %q", rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("content type = %q", rec.Header().Get("Content-Type"))
	}
}

func TestStaticFiles(t *testing.T) {
	f := newFixture(t, nil)
	if err := os.MkdirAll(filepath.Join(f.root, "static"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(f.root, "static", "portal.css"), []byte("body{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/static/portal.css", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "body{}" {
		t.Fatalf("static = %d %q", rec.Code, rec.Body.String())
	}

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/static/nope.js", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing static = %d", rec.Code)
	}
}

func TestLoginCheckLogoutFlow(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.login(t, url.Values{
		"username": {"testuser"}, "password": {"testpass"},
		"ip": {"10.0.0.5"}, "mac": {"aa:bb:cc:dd:ee:ff"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	body := decodeLogin(t, rec)
	if !body.OK || len(body.Token) != 64 {
		t.Fatalf("login body = %+v", body)
	}
	wantExpiry := f.clock.Now().Add(time.Hour).Unix()
	if body.ExpiresAt != wantExpiry {
		t.Fatalf("expires_at = %d, want %d", body.ExpiresAt, wantExpiry)
	}

	rec = f.check(t, "token="+body.Token+"&ip=10.0.0.5&mac=aa:bb:cc:dd:ee:ff")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Fatalf("check = %d %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Portal-User"); got != "testuser" {
		t.Fatalf("X-Portal-User = %q", got)
	}
	if rec.Header().Get("X-Portal-Assertion") != "" {
		t.Fatal("assertion header must be absent when assertions are disabled")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/check", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	if rec = f.do(t, req); rec.Code != http.StatusOK {
		t.Fatalf("bearer check = %d", rec.Code)
	}

	rec = f.do(t, httptest.NewRequest(http.MethodPost, "/api/logout?token="+body.Token, nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"ok":true}` {
		t.Fatalf("logout = %d %q", rec.Code, rec.Body.String())
	}

	rec = f.check(t, "token="+body.Token)
	if rec.Code != http.StatusUnauthorized || rec.Body.String() != "unauthorized\n" {
		t.Fatalf("check after logout = %d %q", rec.Code, rec.Body.String())
	}
}

func TestLoginBadCredentials(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.login(t, url.Values{"username": {"testuser"}, "password": {"nope"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"ok":false,"err":"bad credentials"}` {
		t.Fatalf("body = %q", rec.Body.String())
	}
	if f.engine.SessionStats().Created != 0 {
		t.Fatal("rejected login must not create a session")
	}
}

func TestLoginBackendFailure(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.login(t, url.Values{"username": {"broken"}, "password": {"x"}})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeLogin(t, rec); body.OK || body.Err != "unavailable" {
		t.Fatalf("body = %+v", body)
	}
	if strings.Contains(rec.Body.String(), errDirectoryDown.Error()) {
		t.Fatal("backend error detail leaked to client")
	}
}

func TestCheckBindings(t *testing.T) {
	f := newFixture(t, nil)
	token := mustLogin(t, f, "10.0.0.5", "aa:bb:cc:dd:ee:ff")

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "no bindings supplied", query: "token=" + token, want: http.StatusOK},
		{name: "ip only", query: "token=" + token + "&ip=10.0.0.5", want: http.StatusOK},
		{name: "wrong ip", query: "token=" + token + "&ip=10.0.0.6", want: http.StatusUnauthorized},
		{name: "wrong mac", query: "token=" + token + "&mac=00:11:22:33:44:55", want: http.StatusUnauthorized},
		{name: "unknown token", query: "token=deadbeef", want: http.StatusUnauthorized},
		{name: "no token", query: "", want: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if rec := f.check(t, tc.query); rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestCheckExpiredSession(t *testing.T) {
	f := newFixture(t, func(cfg *portalgate.Config) { cfg.Session.TTL = time.Minute })
	token := mustLogin(t, f, "", "")

	f.clock.Advance(time.Minute)
	if rec := f.check(t, "token="+token); rec.Code != http.StatusOK {
		t.Fatalf("valid at exact expiry, got %d", rec.Code)
	}

	f.clock.Advance(time.Second)
	if rec := f.check(t, "token="+token); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired check = %d", rec.Code)
	}
}

func TestCheckAssertionHeader(t *testing.T) {
	f := newFixture(t, func(cfg *portalgate.Config) {
		cfg.Assertion.Enabled = true
		cfg.Assertion.PrivateKey = []byte(strings.Repeat("s", 32))
	})
	token := mustLogin(t, f, "10.0.0.5", "")

	rec := f.check(t, "token="+token+"&ip=10.0.0.5")
	if rec.Code != http.StatusOK {
		t.Fatalf("check = %d", rec.Code)
	}
	signed := rec.Header().Get("X-Portal-Assertion")
	if signed == "" {
		t.Fatal("expected X-Portal-Assertion")
	}

	claims, err := f.engine.ParseAssertion(signed)
	if err != nil {
		t.Fatalf("ParseAssertion: %v", err)
	}
	if claims.Subject != "testuser" || claims.IP != "10.0.0.5" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestLogoutAlwaysOK(t *testing.T) {
	f := newFixture(t, nil)

	for _, target := range []string{"/api/logout", "/api/logout?token=unknown"} {
		rec := f.do(t, httptest.NewRequest(http.MethodPost, target, nil))
		if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"ok":true}` {
			t.Fatalf("%s = %d %q", target, rec.Code, rec.Body.String())
		}
	}
}

func TestLogoutWithBearer(t *testing.T) {
	f := newFixture(t, nil)
	token := mustLogin(t, f, "", "")

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if rec := f.do(t, req); rec.Code != http.StatusOK {
		t.Fatalf("logout = %d", rec.Code)
	}
	if f.engine.Validate(token, "", "") {
		t.Fatal("token still valid after bearer logout")
	}
}

func TestBindRemoteIP(t *testing.T) {
	f := newFixture(t, func(cfg *portalgate.Config) { cfg.Security.BindRemoteIP = true })

	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(url.Values{"username": {"testuser"}, "password": {"testpass"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "192.0.2.44:40000"
	rec := f.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d", rec.Code)
	}
	token := decodeLogin(t, rec).Token

	if rec := f.check(t, "token="+token+"&ip=192.0.2.44"); rec.Code != http.StatusOK {
		t.Fatalf("check from bound ip = %d", rec.Code)
	}
	if rec := f.check(t, "token="+token+"&ip=192.0.2.45"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("check from other ip = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	token := mustLogin(t, f, "", "")
	f.check(t, "token="+token)
	f.check(t, "token=bogus")

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	out := rec.Body.String()
	for _, want := range []string{
		"portalgate_login_success_total 1",
		"portalgate_check_allowed_total 1",
		"portalgate_check_denied_total 1",
		"portalgate_sessions_live 1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, out)
		}
	}
}

func TestNewRejectsNilEngine(t *testing.T) {
	if _, err := New(nil, Options{}); err == nil {
		t.Fatal("expected error for nil engine")
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.server.Run(ctx, "127.0.0.1:0", time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
