package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrorCodeKey is the gin context key handlers fill with the error code they returned
const ErrorCodeKey = "error_code"

// Tracing starts a server span per request. Health probes are not traced.
func Tracing(serviceName string, opts ...otelgin.Option) gin.HandlerFunc {
	opts = append([]otelgin.Option{otelgin.WithFilter(notHealthProbe)}, opts...)
	return otelgin.Middleware(serviceName, opts...)
}

func notHealthProbe(r *http.Request) bool {
	return !strings.HasSuffix(r.URL.Path, "/health")
}

// SpanEnricher tags the request span with request and tenant ids and, once
// the handler returns, with the ledger error code. Mount after TenantMiddleware.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if id := c.GetString("request_id"); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if tenantID := GetTenantID(c); tenantID != uuid.Nil {
			span.SetAttributes(attribute.String(telemetry.SpanAttrTenantID, tenantID.String()))
		}

		c.Next()

		if code := c.GetString(ErrorCodeKey); code != "" {
			span.SetAttributes(attribute.String("ledger.error_code", code))
		}
	}
}

type httpMetrics struct {
	requests *telemetry.Counter
	duration *telemetry.Histogram
	inFlight metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requests, err := telemetry.NewCounter(meter,
		"erp_ledger_http_requests_total",
		"Ledger API requests by route and status",
		"{request}",
	)
	if err != nil {
		return nil, err
	}
	duration, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "erp_ledger_http_request_duration_seconds",
		Description: "Ledger API latency",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	inFlight, err := meter.Int64UpDownCounter("erp_ledger_http_requests_in_flight",
		metric.WithDescription("Ledger API requests being served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	return &httpMetrics{requests: requests, duration: duration, inFlight: inFlight}, nil
}

// HTTPMetrics records request count, latency and concurrency per route.
// A nil meter, or one whose instruments fail to register, disables it.
func HTTPMetrics(meter metric.Meter, log *zap.Logger) gin.HandlerFunc {
	passthrough := func(c *gin.Context) { c.Next() }
	if meter == nil {
		return passthrough
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		if log != nil {
			log.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return passthrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.inFlight.Add(ctx, 1)

		c.Next()

		m.inFlight.Add(ctx, -1)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		base := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(route),
		}
		m.duration.RecordDuration(ctx, time.Since(start), base...)

		attrs := append(base, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))
		if tenantID := GetTenantID(c); tenantID != uuid.Nil {
			attrs = append(attrs, telemetry.AttrTenantID.String(tenantID.String()))
		}
		if code := c.GetString(ErrorCodeKey); code != "" {
			attrs = append(attrs, telemetry.AttrErrorCode.String(code))
		}
		m.requests.Inc(ctx, attrs...)
	}
}

// Profiling labels CPU samples taken while serving a request with its route
// template and method. Unmatched routes are left unlabeled.
func Profiling() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}
		telemetry.WithProfilingLabels(c.Request.Context(),
			telemetry.HTTPRequestLabels(route, c.Request.Method),
			func(ctx context.Context) {
				c.Request = c.Request.WithContext(ctx)
				c.Next()
			})
	}
}
