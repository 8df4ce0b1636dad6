package ctxutil

import (
	"context"
	"strings"
)

// MaxCorrelationIDLen bounds inbound X-Request-Id / X-Trace-Id values before
// they reach logs, spans and billing_events rows.
const MaxCorrelationIDLen = 128

type traceDataKey struct{}

// TraceData correlates one API request across logs, the webhook span and the
// billing event it records.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// RequestID is "" outside an HTTP request (usagectl, the session sweeper).
func RequestID(ctx context.Context) string {
	if td := GetTraceData(ctx); td != nil {
		return td.RequestID
	}
	return ""
}

func TraceID(ctx context.Context) string {
	if td := GetTraceData(ctx); td != nil {
		return td.TraceID
	}
	return ""
}

// CleanCorrelationID trims an inbound id and drops it when it is too long or
// carries anything other than printable ASCII.
func CleanCorrelationID(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" || len(v) > MaxCorrelationIDLen {
		return ""
	}
	for i := 0; i < len(v); i++ {
		if v[i] < 0x21 || v[i] > 0x7e {
			return ""
		}
	}
	return v
}
