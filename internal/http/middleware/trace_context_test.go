package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/edgeslab/edges-backend/internal/platform/ctxutil"
)

func traceEngine(seen *ctxutil.TraceData) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.POST("/api/billing/webhook", func(c *gin.Context) {
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			*seen = *td
		}
		c.Status(http.StatusOK)
	})
	return r
}

func TestTraceContextKeepsInboundRequestID(t *testing.T) {
	var seen ctxutil.TraceData
	r := traceEngine(&seen)

	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", nil)
	req.Header.Set(headerRequestID, "req_stripe_42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen.RequestID != "req_stripe_42" {
		t.Fatalf("request id not propagated: got=%q", seen.RequestID)
	}
	if got := rec.Header().Get(headerRequestID); got != "req_stripe_42" {
		t.Fatalf("request id not echoed: got=%q", got)
	}
	if seen.TraceID == "" || rec.Header().Get(headerTraceID) != seen.TraceID {
		t.Fatalf("trace id missing or not echoed: ctx=%q header=%q", seen.TraceID, rec.Header().Get(headerTraceID))
	}
}

func TestTraceContextReplacesUnusableRequestID(t *testing.T) {
	for name, raw := range map[string]string{
		"too long":  strings.Repeat("a", ctxutil.MaxCorrelationIDLen+1),
		"has space": "req 1",
		"control":   "req\x01",
	} {
		raw := raw
		t.Run(name, func(t *testing.T) {
			var seen ctxutil.TraceData
			r := traceEngine(&seen)

			req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", nil)
			req.Header.Set(headerRequestID, raw)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if seen.RequestID == "" || seen.RequestID == raw {
				t.Fatalf("expected a generated request id, got=%q", seen.RequestID)
			}
		})
	}
}
