// Package problem writes RFC 7807 problem details responses.
package problem

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/tair/eshoplite-products/pkg/logger"
)

// ContentType is the media type of problem responses
const ContentType = "application/problem+json"

// Details is the body of a problem response
type Details struct {
	Type     string              `json:"type"`
	Title    string              `json:"title"`
	Status   int                 `json:"status"`
	Detail   string              `json:"detail,omitempty"`
	Instance string              `json:"instance,omitempty"`
	TraceID  string              `json:"traceId,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
}

// typeURIs mirrors the RFC 9110 section links used for well known statuses
var typeURIs = map[int]string{
	http.StatusBadRequest:          "https://tools.ietf.org/html/rfc9110#section-15.5.1",
	http.StatusNotFound:            "https://tools.ietf.org/html/rfc9110#section-15.5.5",
	http.StatusMethodNotAllowed:    "https://tools.ietf.org/html/rfc9110#section-15.5.6",
	http.StatusConflict:            "https://tools.ietf.org/html/rfc9110#section-15.5.10",
	http.StatusInternalServerError: "https://tools.ietf.org/html/rfc9110#section-15.6.1",
	http.StatusServiceUnavailable:  "https://tools.ietf.org/html/rfc9110#section-15.6.4",
}

// New builds problem details for status, filling type and title defaults
func New(status int, detail string) *Details {
	typ, ok := typeURIs[status]
	if !ok {
		typ = "about:blank"
	}
	return &Details{
		Type:   typ,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

// Validation builds a 400 problem carrying per-field messages
func Validation(errs map[string][]string) *Details {
	d := New(http.StatusBadRequest, "One or more validation errors occurred.")
	d.Errors = errs
	return d
}

// Write sends d as the response, stamping instance and trace id from r
func Write(w http.ResponseWriter, r *http.Request, d *Details) {
	if d.Instance == "" {
		d.Instance = fmt.Sprintf("%s %s", r.Method, r.URL.Path)
	}
	if d.TraceID == "" {
		d.TraceID = traceID(r)
	}

	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(d.Status)
	if err := json.NewEncoder(w).Encode(d); err != nil {
		logger.WithContext(r.Context()).Warn().Err(err).Msg("Failed to write problem response")
	}
}

// Respond is shorthand for Write(w, r, New(status, detail))
func Respond(w http.ResponseWriter, r *http.Request, status int, detail string) {
	Write(w, r, New(status, detail))
}

// NotFoundHandler answers unmatched routes with a 404 problem
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Respond(w, r, http.StatusNotFound, "")
	})
}

// MethodNotAllowedHandler answers routes matched with the wrong method
func MethodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Respond(w, r, http.StatusMethodNotAllowed, "")
	})
}

// RecoveryMiddleware turns panics into a 500 problem instead of a dropped connection
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.WithContext(r.Context()).Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("Panic recovered")

				Respond(w, r, http.StatusInternalServerError, "An error occurred while processing your request.")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func traceID(r *http.Request) string {
	span := trace.SpanFromContext(r.Context())
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return logger.RequestIDFromContext(r.Context())
}
