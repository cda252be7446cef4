package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xavierca1/ligue-callbridge/internal/infra/http/middleware"
)

func okHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}
}

func testRouter(limiter *middleware.IPRateLimiter) http.Handler {
	rt := routes{
		ConversationEnd: okHandler("conversation-end"),
		IncomingCall:    okHandler("incoming-call"),
		Health:          okHandler("health"),
	}
	if limiter != nil {
		rt.RateLimit = limiter.Handler
	}
	return newRouter(rt)
}

func TestRouter_Routes(t *testing.T) {
	r := testRouter(nil)

	cases := []struct {
		method, path string
		code         int
		body         string
	}{
		{http.MethodPost, "/conversation-end", http.StatusOK, "conversation-end"},
		{http.MethodPost, "/incoming-call", http.StatusOK, "incoming-call"},
		{http.MethodGet, "/health", http.StatusOK, "health"},
		{http.MethodGet, "/conversation-end", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/nope", http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}")))
		assert.Equal(t, tc.code, w.Code, "%s %s", tc.method, tc.path)
		if tc.body != "" {
			assert.Equal(t, tc.body, w.Body.String())
		}
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	r := testRouter(nil)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="/health",status="200"}`)
}

func TestRouter_IncomingCallIsRateLimited(t *testing.T) {
	limiter := middleware.NewIPRateLimiter(1)
	defer limiter.Stop()
	r := testRouter(limiter)

	send := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "203.0.113.7:5000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("/incoming-call"))
	assert.Equal(t, http.StatusTooManyRequests, send("/incoming-call"))
	assert.Equal(t, http.StatusOK, send("/conversation-end"))
}
