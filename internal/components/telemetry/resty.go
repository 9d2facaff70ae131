package telemetry

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_http_request  = "http.request"
	report_http_response = "http.response"
	report_http_status   = "http.status"
)

var restyMeter = otel.Meter("cqscraper/http")
var responseCounter, _ = restyMeter.Int64Counter("http.responses")
var latencyHistogram, _ = restyMeter.Float64Histogram("http.latency_seconds")

type instrumentResty struct {
	tel       API
	idcounter *uint64
}

// InstrumentResty debug-logs every request of the client with an id, its latency and status,
// warns on server errors and records both in otel.
func InstrumentResty(client *resty.Client, tel API) {
	var idcounter uint64
	i := instrumentResty{tel: tel, idcounter: &idcounter}

	client.OnBeforeRequest(i.onBeforeRequest)
	client.OnAfterResponse(i.onAfterResponse)
	client.OnError(i.onError)
}

type reqCtxKeyType int

var reqCtxKey reqCtxKeyType

type reqCtx struct {
	id uint64
	// measured with the monotonic clock, not chrono
	startTime time.Time
}

func (i instrumentResty) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	id := atomic.AddUint64(i.idcounter, 1)
	ctx := context.WithValue(req.Context(), reqCtxKey, reqCtx{
		id:        id,
		startTime: time.Now(),
	})
	i.tel.ReportDebug(report_http_request, id, req.Method, req.URL)

	req.SetContext(ctx)
	return nil
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	}
	return "other"
}

func (i instrumentResty) onAfterResponse(_ *resty.Client, res *resty.Response) error {
	ctx := res.Request.Context()
	responseCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", res.Request.Method),
		attribute.String("status_class", statusClass(res.StatusCode())),
	))
	if res.StatusCode() >= 500 {
		i.tel.ReportWarning(report_http_status, res.Status(), res.Request.Method, res.Request.URL)
	}

	rc, ok := ctx.Value(reqCtxKey).(reqCtx)
	if !ok {
		i.tel.ReportDebug(report_http_response, "untracked", res.Status())
		return nil
	}

	elapsed := time.Since(rc.startTime)
	latencyHistogram.Record(ctx, elapsed.Seconds())
	i.tel.ReportDebug(
		report_http_response,
		rc.id,
		elapsed.String(),
		res.Status(),
		len(res.Body()),
	)
	return nil
}

func (i instrumentResty) onError(req *resty.Request, err error) {
	var elapsed time.Duration
	rc, ok := req.Context().Value(reqCtxKey).(reqCtx)
	if ok {
		elapsed = time.Since(rc.startTime)
	}

	i.tel.ReportWarning(
		report_http_response,
		err,
		req.Method,
		req.URL,
		elapsed,
	)
}
