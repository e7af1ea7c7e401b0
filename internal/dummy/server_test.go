package dummy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer never sleeps and always picks index pick.
func newTestServer(cfg ServerConfig, pick int) (*Server, *[]time.Duration) {
	s := New(cfg, zerolog.Nop())
	var slept []time.Duration
	s.sleep = func(_ context.Context, d time.Duration) { slept = append(slept, d) }
	s.intn = func(n int) int { return pick % n }
	return s, &slept
}

func do(s *Server, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestStatus(t *testing.T) {
	s, _ := newTestServer(DefaultConfig(), 0)

	w := do(s, http.MethodGet, "/api/status")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Server is running", body["message"])
	assert.Contains(t, body, "timestamp")
	assert.Contains(t, body, "uptime")
}

func TestSlow_DelayRange(t *testing.T) {
	s, slept := newTestServer(DefaultConfig(), 2999)

	w := do(s, http.MethodGet, "/api/slow")

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, *slept, 1)
	assert.Equal(t, 4999*time.Millisecond, (*slept)[0])
	assert.Equal(t, float64(4999), decode(t, w)["delay"])
}

func TestError_PicksFromErrorCodes(t *testing.T) {
	for i, code := range errorCodes {
		s, _ := newTestServer(DefaultConfig(), i)
		w := do(s, http.MethodGet, "/api/error")

		assert.Equal(t, code, w.Code)
		assert.Equal(t, float64(code), decode(t, w)["code"])
	}
}

func TestRandom_Scenarios(t *testing.T) {
	for i, sc := range randomScenarios {
		s, slept := newTestServer(DefaultConfig(), i)
		w := do(s, http.MethodGet, "/api/random")

		assert.Equal(t, sc.code, w.Code)
		assert.Equal(t, []time.Duration{sc.delay}, *slept)
	}
}

func TestUnknownAPIEndpoint(t *testing.T) {
	s, _ := newTestServer(DefaultConfig(), 0)

	w := do(s, http.MethodGet, "/api/nope")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Endpoint not found", decode(t, w)["error"])
}

func TestPreflightIsNotCounted(t *testing.T) {
	s, _ := newTestServer(DefaultConfig(), 0)

	w := do(s, http.MethodOptions, "/api/status")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Zero(t, s.Counters().Total)
}

func TestStatsCountsCompletedResponses(t *testing.T) {
	s, _ := newTestServer(DefaultConfig(), 3) // error endpoint answers 500

	do(s, http.MethodGet, "/api/status")
	do(s, http.MethodGet, "/api/status")
	do(s, http.MethodGet, "/api/error")
	do(s, http.MethodGet, "/missing")

	w := do(s, http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)

	assert.Equal(t, float64(4), body["totalRequests"])
	assert.Equal(t, float64(2), body["successfulRequests"])
	assert.Equal(t, float64(2), body["failedRequests"])
	byEndpoint, ok := body["requestsByEndpoint"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), byEndpoint["/api/status"])
	assert.Equal(t, float64(1), byEndpoint["/missing"])

	// the stats request itself is counted once it completes
	assert.Equal(t, 5, s.Counters().Total)
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>home</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "target.html"), []byte("target"), 0o644))

	cfg := DefaultConfig()
	cfg.StaticDir = dir
	s, _ := newTestServer(cfg, 0)

	w := do(s, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "home")

	w = do(s, http.MethodGet, "/target.html")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "target", w.Body.String())

	w = do(s, http.MethodGet, "/nothing.html")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "404 Not Found")
}

func TestNoStaticDir(t *testing.T) {
	s, _ := newTestServer(DefaultConfig(), 0)

	w := do(s, http.MethodGet, "/")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", Port: 0}
	s := New(cfg, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestAddr(t *testing.T) {
	assert.Equal(t, "localhost:3000", DefaultConfig().Addr())
}
