package tracing

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/trace"
)

// StartServiceSpan starts a span named "<service>.<method>"
func StartServiceSpan(ctx context.Context, serviceName, methodName string) (context.Context, *trace.Span) {
	return trace.StartSpan(ctx, fmt.Sprintf("%s.%s", serviceName, methodName))
}

// EndSpan ends a span and records err on it, if any
func EndSpan(span *trace.Span, err error) {
	if err != nil {
		span.SetStatus(trace.Status{
			Code:    trace.StatusCodeUnknown,
			Message: err.Error(),
		})
	}
	span.End()
}

// AddAttribute adds an attribute to the span in ctx
func AddAttribute(ctx context.Context, key string, value interface{}) {
	span := trace.FromContext(ctx)
	if span == nil {
		return
	}

	switch v := value.(type) {
	case string:
		span.AddAttributes(trace.StringAttribute(key, v))
	case int:
		span.AddAttributes(trace.Int64Attribute(key, int64(v)))
	case int64:
		span.AddAttributes(trace.Int64Attribute(key, v))
	case float64:
		span.AddAttributes(trace.Float64Attribute(key, v))
	case bool:
		span.AddAttributes(trace.BoolAttribute(key, v))
	default:
		span.AddAttributes(trace.StringAttribute(key, fmt.Sprintf("%v", v)))
	}
}

// MarkSpanError marks the span in ctx as failed
func MarkSpanError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	span := trace.FromContext(ctx)
	if span == nil {
		return
	}

	span.SetStatus(trace.Status{
		Code:    trace.StatusCodeUnknown,
		Message: err.Error(),
	})
}

// WrapHTTPClient returns a copy of client whose transport records a client span per request
func WrapHTTPClient(client *http.Client) *http.Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &http.Client{
		Transport: &ochttp.Transport{
			Base: client.Transport,
			FormatSpanName: func(req *http.Request) string {
				return fmt.Sprintf("%s %s", req.Method, req.URL.Path)
			},
		},
		Timeout:       client.Timeout,
		Jar:           client.Jar,
		CheckRedirect: client.CheckRedirect,
	}
}
