package app

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/eshoplite-products/pkg/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("routed"))
})

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler, mark("outer"), mark("middle"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "middle", "inner"}, order)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestHTTPSRedirectWithoutPortPassesThrough(t *testing.T) {
	h := HTTPSRedirectMiddleware(0)(okHandler)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/Product", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "routed", rec.Body.String())
	}
}

func TestHTTPSRedirectTargets(t *testing.T) {
	tests := []struct {
		name     string
		port     int
		host     string
		target   string
		location string
	}{
		{"default port omitted", 443, "shop.example:8080", "/api/Product", "https://shop.example/api/Product"},
		{"custom port", 7001, "shop.example:8080", "/a?b=c", "https://shop.example:7001/a?b=c"},
		{"host without port", 7001, "localhost", "/", "https://localhost:7001/"},
		{"ipv6 without port", 8443, "[::1]", "/api/Product", "https://[::1]:8443/api/Product"},
		{"ipv6 with port", 8443, "[fe80::1]:8080", "/", "https://[fe80::1]:8443/"},
		{"ipv6 default port", 443, "[::1]:8080", "/a?b=c", "https://[::1]/a?b=c"},
		{"ipv6 default port without port", 443, "[::1]", "/", "https://[::1]/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.target, nil)
			req.Host = tt.host
			rec := httptest.NewRecorder()
			HTTPSRedirectMiddleware(tt.port)(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestHTTPSRedirectSkipsSecureRequests(t *testing.T) {
	h := HTTPSRedirectMiddleware(443)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "HTTPS")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStaticFilesMiddleware(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>shop</h1>"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "images"), 0o755))
	h := StaticFilesMiddleware(dir)(okHandler)

	tests := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodGet, "/index.html", "<h1>shop</h1>"},
		{http.MethodHead, "/index.html", ""},
		{http.MethodPost, "/index.html", "routed"},
		{http.MethodGet, "/images", "routed"},
		{http.MethodGet, "/missing.js", "routed"},
		{http.MethodGet, "/../index.html", "<h1>shop</h1>"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}

func TestStaticFilesMiddlewareMissingDirectory(t *testing.T) {
	h := StaticFilesMiddleware(filepath.Join(t.TempDir(), "absent"))(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	assert.Equal(t, "routed", rec.Body.String())
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware([]string{"https://store.example"})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/Product", nil)
	req.Header.Set("Origin", "https://store.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://store.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)

	req = httptest.NewRequest(http.MethodGet, "/api/Product", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "routed", rec.Body.String())
}

func TestCORSMiddlewareDisabled(t *testing.T) {
	h := CORSMiddleware(nil)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://store.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
