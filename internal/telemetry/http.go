package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// HTTPInstrumentationName is the scope of status server spans and metrics
	HTTPInstrumentationName = "github.com/kurum-rebirth/kurum-sync/http"

	// MaxUserAgentLength caps the user agent recorded on spans
	MaxUserAgentLength = 256

	unknownRoute = "unknown_route"
)

// untracedPaths are polled by supervisors and scrapers. They are still
// counted, but never start a span.
var untracedPaths = map[string]bool{
	"/health":    true,
	"/readiness": true,
	"/metrics":   true,
}

// httpInstruments records a server span and request metrics per request.
// A nil tracer or nil instruments disable that half.
type httpInstruments struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator

	duration metric.Float64Histogram
	requests metric.Int64Counter
	inFlight metric.Int64UpDownCounter
}

// HTTPMiddleware returns the status server instrumentation for the given
// providers. Either provider may be nil; with both nil the middleware passes
// requests through untouched.
func HTTPMiddleware(tp trace.TracerProvider, mp metric.MeterProvider) (func(http.Handler) http.Handler, error) {
	inst := &httpInstruments{propagator: Propagator()}
	if tp != nil {
		inst.tracer = tp.Tracer(HTTPInstrumentationName)
	}
	if mp != nil {
		if err := inst.createInstruments(mp.Meter(HTTPInstrumentationName)); err != nil {
			return nil, err
		}
	}

	if inst.tracer == nil && inst.requests == nil {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	return inst.wrap, nil
}

func (h *httpInstruments) createInstruments(meter metric.Meter) error {
	var err error
	h.duration, err = meter.Float64Histogram(
		"kurum_sync_http_request_duration_seconds",
		metric.WithDescription("Duration of status server requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5),
	)
	if err != nil {
		return err
	}
	h.requests, err = meter.Int64Counter(
		"kurum_sync_http_requests_total",
		metric.WithDescription("Status server requests served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}
	h.inFlight, err = meter.Int64UpDownCounter(
		"kurum_sync_http_active_requests",
		metric.WithDescription("Status server requests in flight"),
		metric.WithUnit("{request}"),
	)
	return err
}

func (h *httpInstruments) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		var span trace.Span
		if h.tracer != nil && !untracedPaths[r.URL.Path] {
			ctx = h.propagator.Extract(ctx, propagation.HeaderCarrier(r.Header))
			ctx, span = h.tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
					semconv.UserAgentOriginal(truncate(r.UserAgent(), MaxUserAgentLength)),
				),
			)
			defer span.End()
		}

		if h.inFlight != nil {
			h.inFlight.Add(ctx, 1)
			defer h.inFlight.Add(ctx, -1)
		}

		next.ServeHTTP(ww, r.WithContext(ctx))

		// chi fills in the pattern while routing, so it is only known now
		route := routePattern(r)
		status := ww.Status()

		if span != nil {
			span.SetName(r.Method + " " + route)
			span.SetAttributes(
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCode(status),
			)
			setSpanStatus(span, status)
		}

		if h.requests != nil {
			attrs := metric.WithAttributes(
				attribute.String("method", r.Method),
				attribute.String("route", route),
				attribute.String("status_code", strconv.Itoa(status)),
			)
			h.requests.Add(ctx, 1, attrs)
			h.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		}
	})
}

// setSpanStatus follows the server span convention: 5xx is an error, 4xx is
// the client's fault and leaves the status unset.
func setSpanStatus(span trace.Span, status int) {
	switch {
	case status >= http.StatusInternalServerError:
		span.SetStatus(codes.Error, http.StatusText(status))
	case status < http.StatusBadRequest:
		span.SetStatus(codes.Ok, "")
	}
}

// routePattern returns the chi pattern of r, such as "/v1/configs/{key}"
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return unknownRoute
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
