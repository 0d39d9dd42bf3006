package web

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dogfacts/dogfacts/internal/config"
	"github.com/dogfacts/dogfacts/internal/fact"
	"github.com/dogfacts/dogfacts/internal/store"
)

const testToken = "s3cret"

func setupTest(t *testing.T, descriptions ...string) (http.Handler, store.Store) {
	t.Helper()
	facts := make([]fact.Fact, len(descriptions))
	for i, d := range descriptions {
		facts[i] = fact.Fact{Description: d}
	}
	st := store.NewMemoryStore(facts)

	cfg := config.DefaultConfig()
	cfg.Token = testToken

	return NewServer(st, cfg, zap.NewNop(), "test").Handler, st
}

func do(t *testing.T, h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// --- GET /v1/facts/{count} ---

func TestHandleGetFacts_OK(t *testing.T) {
	h, _ := setupTest(t, "Dogs have three eyelids")

	w := do(t, h, "GET", "/v1/facts/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"facts":["Dogs have three eyelids"]}`, w.Body.String())
}

func TestHandleGetFacts_OutOfRange(t *testing.T) {
	h, _ := setupTest(t, "Dogs have three eyelids")

	w := do(t, h, "GET", "/v1/facts/2", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"detail":"Number of facts should be in range of 1 to 1. You requested 2"}`, w.Body.String())

	w = do(t, h, "GET", "/v1/facts/0", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"detail":"Number of facts should be in range of 1 to 1. You requested 0"}`, w.Body.String())

	w = do(t, h, "GET", "/v1/facts/-3", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"detail":"Number of facts should be in range of 1 to 1. You requested -3"}`, w.Body.String())
}

func TestHandleGetFacts_NonInteger(t *testing.T) {
	h, _ := setupTest(t, "a")

	for _, target := range []string{"/v1/facts/abc", "/v1/facts/1.5", "/v1/facts/new"} {
		w := do(t, h, "GET", target, "", nil)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, target)
		require.JSONEq(t, `{"detail":"count must be an integer"}`, w.Body.String())
	}
}

func TestHandleGetFacts_CountOverflowsInt(t *testing.T) {
	h, _ := setupTest(t, "Dogs have three eyelids")

	w := do(t, h, "GET", "/v1/facts/99999999999999999999", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"detail":"Number of facts should be in range of 1 to 1. You requested 99999999999999999999"}`, w.Body.String())
}

func TestHandleGetFacts_StoreUnavailable(t *testing.T) {
	cfg := config.DefaultConfig()
	st := store.NewFileStore(filepath.Join(t.TempDir(), "missing.json"))
	h := NewServer(st, cfg, zap.NewNop(), "test").Handler

	w := do(t, h, "GET", "/v1/facts/1", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.JSONEq(t, `{"detail":"fact store unavailable"}`, w.Body.String())
	require.NotContains(t, w.Body.String(), "missing.json")
}

// --- POST /v1/facts/new ---

func TestHandleCreateFact_OK(t *testing.T) {
	h, st := setupTest(t, "Dogs have three eyelids")

	w := do(t, h, "POST", "/v1/facts/new", `{"description":"Dogs dream"}`,
		map[string]string{"x-token": testToken})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"description":"Dogs dream"}`, w.Body.String())

	facts, err := st.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Dogs have three eyelids", "Dogs dream"}, fact.Descriptions(facts))
}

func TestHandleCreateFact_BadToken(t *testing.T) {
	h, st := setupTest(t, "Dogs have three eyelids")

	for _, headers := range []map[string]string{
		{"x-token": "wrong"},
		{}, // missing header
	} {
		w := do(t, h, "POST", "/v1/facts/new", `{"description":"Dogs dream"}`, headers)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.JSONEq(t, `{"detail":"X-Token header invalid"}`, w.Body.String())
	}

	facts, err := st.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, facts, 1)
}

func TestHandleCreateFact_Duplicate(t *testing.T) {
	h, st := setupTest(t, "Dogs have three eyelids")

	w := do(t, h, "POST", "/v1/facts/new", `{"description":"Dogs Have Three Eyelids"}`,
		map[string]string{"X-Token": testToken})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"detail":"Fact already existed"}`, w.Body.String())

	facts, err := st.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, facts, 1)
}

func TestHandleCreateFact_MalformedBody(t *testing.T) {
	h, _ := setupTest(t, "a")

	for _, body := range []string{`not json`, `{"description": 5}`, `[]`, `{}`} {
		w := do(t, h, "POST", "/v1/facts/new", body, map[string]string{"x-token": testToken})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, body)
		require.Contains(t, w.Body.String(), `"detail"`)
	}
}

func TestHandleCreateFact_NoHTMLEscaping(t *testing.T) {
	h, _ := setupTest(t)

	w := do(t, h, "POST", "/v1/facts/new", `{"description":"Dogs <3 & humans"}`,
		map[string]string{"x-token": testToken})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "{\"description\":\"Dogs <3 & humans\"}\n", w.Body.String())
}

func TestHandleCreateFact_WrongMethod(t *testing.T) {
	h, _ := setupTest(t, "a")

	w := do(t, h, "GET", "/v1/facts/new/", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "PUT", "/v1/facts/new", `{"description":"x"}`, map[string]string{"x-token": testToken})
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

// --- GET /healthz ---

func TestHandleHealth(t *testing.T) {
	h, _ := setupTest(t, "a", "b")

	w := do(t, h, "GET", "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok","facts":2}`, w.Body.String())
}

func TestHandleHealth_StoreUnavailable(t *testing.T) {
	st := store.NewFileStore(filepath.Join(t.TempDir(), "missing.json"))
	h := NewServer(st, config.DefaultConfig(), zap.NewNop(), "test").Handler

	w := do(t, h, "GET", "/healthz", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// --- GET / ---

func TestHandleIndex(t *testing.T) {
	h, _ := setupTest(t)

	w := do(t, h, "GET", "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	require.Contains(t, w.Body.String(), "<h1>dogfacts</h1>")
	require.Contains(t, w.Body.String(), "<title>dogfacts test</title>")

	w = do(t, h, "GET", "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

// --- middleware ---

func TestMiddleware_Headers(t *testing.T) {
	h, _ := setupTest(t, "a")

	first := do(t, h, "GET", "/v1/facts/1", "", nil)
	second := do(t, h, "GET", "/v1/facts/9", "", nil)

	for _, w := range []*httptest.ResponseRecorder{first, second} {
		require.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		require.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		require.NotEmpty(t, w.Header().Get("Content-Security-Policy"))

		_, err := ulid.Parse(w.Header().Get(RequestIDHeader))
		require.NoError(t, err)
	}
	require.NotEqual(t, first.Header().Get(RequestIDHeader), second.Header().Get(RequestIDHeader))
}

func TestRenderMarkdown(t *testing.T) {
	got := string(renderMarkdown("# Title\n\nSome *text*"))
	require.Contains(t, got, "<h1>Title</h1>")
	require.Contains(t, got, "<em>text</em>")
}

// --- lifecycle ---

func TestServe_ShutsDownOnCancel(t *testing.T) {
	cfg := config.DefaultConfig()
	srv := NewServer(store.NewMemoryStore(nil), cfg, zap.NewNop(), "test")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, ln, zap.NewNop()) }()

	client := &http.Client{Timeout: 2 * time.Second, Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
