// Package http provides net/http middleware for hosting the relay handler
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mihaimyh/subrelay/pkg/relay"
)

// HeaderRequestID carries the request id in both directions
const HeaderRequestID = "X-Request-ID"

// RequestIDExtractor returns the caller-supplied request id, or "" if none
type RequestIDExtractor func(r *http.Request) string

// Config holds middleware configuration
type Config struct {
	// Logger receives one entry per request (default: relay.NoopLogger)
	Logger relay.Logger

	// GetRequestID extracts a caller-supplied id.
	// Default: FromHeader(HeaderRequestID)
	GetRequestID RequestIDExtractor

	// NewRequestID generates an id when the caller sent none.
	// Default: a random UUID
	NewRequestID func() string
}

// Middleware creates an HTTP middleware that assigns a request id and logs
// method, path, status and duration of every request
func Middleware(config Config) func(http.Handler) http.Handler {
	// Set defaults
	if config.Logger == nil {
		config.Logger = &relay.NoopLogger{}
	}
	if config.GetRequestID == nil {
		config.GetRequestID = FromHeader(HeaderRequestID)
	}
	if config.NewRequestID == nil {
		config.NewRequestID = uuid.NewString
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := config.GetRequestID(r)
			if requestID == "" {
				requestID = config.NewRequestID()
			}
			w.Header().Set(HeaderRequestID, requestID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(WithRequestID(r.Context(), requestID)))

			fields := []relay.Field{
				{Key: "request_id", Value: requestID},
				{Key: "method", Value: r.Method},
				{Key: "path", Value: r.URL.Path},
				{Key: "status", Value: rec.status},
				{Key: "duration_ms", Value: time.Since(start).Milliseconds()},
			}
			if rec.status >= http.StatusInternalServerError {
				config.Logger.Error("request completed", fields...)
			} else {
				config.Logger.Info("request completed", fields...)
			}
		})
	}
}

// AccessLog is Middleware with default request id handling
func AccessLog(logger relay.Logger) func(http.Handler) http.Handler {
	return Middleware(Config{Logger: logger})
}

// HandlerFunc creates the access-log middleware (HandlerFunc version)
func HandlerFunc(config Config) func(http.HandlerFunc) http.HandlerFunc {
	middleware := Middleware(config)
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			middleware(next).ServeHTTP(w, r)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(p)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// ContextKey is a type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for the request id
	RequestIDKey ContextKey = "subrelay:requestID"
)

// FromHeader returns a RequestIDExtractor that reads a header
func FromHeader(headerName string) RequestIDExtractor {
	return func(r *http.Request) string {
		return r.Header.Get(headerName)
	}
}

// WithRequestID adds the request id to a context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestIDFromContext returns the id stored by the middleware, or ""
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
