package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thenoname-gurl/Brain/internal/profile"
	"github.com/thenoname-gurl/Brain/plugin/brain"
	"github.com/thenoname-gurl/Brain/store"
	"github.com/thenoname-gurl/Brain/store/db/memory"
)

func newTestServer(burst int) *Server {
	p := &profile.Profile{Mode: "dev", Driver: "memory", RateLimit: 0.001, RateBurst: burst}
	b := brain.New(store.New(memory.NewDB()), brain.DefaultConfig())
	return NewServer(p, b, nil)
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(5)

	rec := serve(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	serve(s, http.MethodPost, "/api/v1/chat", `{"sessionId":"s1","message":"hello"}`)
	rec = serve(s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `brain_turns_total{source="smalltalk"} 1`)
}

func TestAPIIsRateLimited(t *testing.T) {
	s := newTestServer(1)

	rec := serve(s, http.MethodGet, "/api/v1/stats", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = serve(s, http.MethodGet, "/api/v1/stats", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")

	// Health checks bypass the limiter.
	assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/healthz", "").Code)
}
