package middleware

import (
	"strings"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/learnpath-backend/internal/platform/ctxutil"
)

const (
	headerRequestID = "X-Request-Id"
	headerTraceID   = "X-Trace-Id"
	headerAmznTrace = "X-Amzn-Trace-Id"
)

// AttachTraceContext stores request and trace ids on the request context and
// echoes them back as response headers.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := firstNonEmpty(c.GetHeader(headerRequestID), gatewayRequestID(c))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		traceID := ""
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			traceID = sc.TraceID().String()
		}
		traceID = firstNonEmpty(traceID, c.GetHeader(headerTraceID), amznTraceRoot(c.GetHeader(headerAmznTrace)), reqID)

		ctx := ctxutil.WithTraceData(c.Request.Context(), &ctxutil.TraceData{
			TraceID:   traceID,
			RequestID: reqID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Next()
	}
}

func gatewayRequestID(c *gin.Context) string {
	ctx := c.Request.Context()
	if rc, ok := core.GetAPIGatewayContextFromContext(ctx); ok {
		return rc.RequestID
	}
	if rc, ok := core.GetAPIGatewayV2ContextFromContext(ctx); ok {
		return rc.RequestID
	}
	return ""
}

// amznTraceRoot extracts Root from "Root=1-abc-def;Parent=...;Sampled=1".
func amznTraceRoot(h string) string {
	for _, part := range strings.Split(h, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && strings.EqualFold(k, "Root") {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
