package middleware

import (
	"net/http"

	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/trace"
)

// TracingMiddleware starts a server span per request named "<method> <path>"
func TracingMiddleware(next http.Handler) http.Handler {
	annotated := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if span := trace.FromContext(r.Context()); span != nil {
			span.AddAttributes(
				trace.StringAttribute("http.host", r.Host),
				trace.StringAttribute("http.user_agent", r.UserAgent()),
			)
			if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
				span.AddAttributes(trace.StringAttribute("http.request_id", requestID))
			}
			if organizationID := r.URL.Query().Get("organization_id"); organizationID != "" {
				span.AddAttributes(trace.StringAttribute("organization_id", organizationID))
			}
		}

		next.ServeHTTP(&statusRecorder{ResponseWriter: w, r: r}, r)
	})

	return &ochttp.Handler{
		Handler: annotated,
		FormatSpanName: func(r *http.Request) string {
			return r.Method + " " + r.URL.Path
		},
		IsPublicEndpoint: true,
	}
}

// statusRecorder flags the request span as failed on 4xx and 5xx responses
type statusRecorder struct {
	http.ResponseWriter
	r *http.Request
}

func (sr *statusRecorder) WriteHeader(code int) {
	if span := trace.FromContext(sr.r.Context()); span != nil && code >= 400 {
		span.SetStatus(trace.Status{
			Code:    trace.StatusCodeUnknown,
			Message: http.StatusText(code),
		})
	}
	sr.ResponseWriter.WriteHeader(code)
}
