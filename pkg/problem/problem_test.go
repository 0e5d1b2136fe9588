package problem

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/eshoplite-products/pkg/logger"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Details {
	t.Helper()
	var d Details
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	return d
}

func TestNotFoundHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFoundHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))

	d := decode(t, rec)
	assert.Equal(t, 404, d.Status)
	assert.Equal(t, "Not Found", d.Title)
	assert.Equal(t, "GET /nowhere", d.Instance)
	assert.Contains(t, d.Type, "rfc9110")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/Product", nil)
	req = req.WithContext(logger.ContextWithRequestID(req.Context(), "req-42"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	d := decode(t, rec)
	assert.Equal(t, "req-42", d.TraceID)
	assert.NotContains(t, rec.Body.String(), "boom")
	assert.NotContains(t, rec.Body.String(), "goroutine")
}

func TestValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, httptest.NewRequest(http.MethodPost, "/api/Product", nil), Validation(map[string][]string{
		"name": {"name is required"},
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	d := decode(t, rec)
	assert.Equal(t, []string{"name is required"}, d.Errors["name"])
}

func TestNewUnknownStatus(t *testing.T) {
	d := New(http.StatusTeapot, "short and stout")
	assert.Equal(t, "about:blank", d.Type)
	assert.Equal(t, "I'm a teapot", d.Title)
}
