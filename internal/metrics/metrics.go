// Package metrics 为 Prometheus 采集流水线与 HTTP 指标。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 流水线阶段标签。
const (
	StageExtract   = "extract"
	StageTransform = "transform"
	StageImage     = "image"
	StagePublish   = "publish"
)

// Recorder 是服务与中间件上报指标的接口。
type Recorder interface {
	ObserveStage(stage string, d time.Duration, err error)
	RecordDegradedPublish()
	RecordHTTPRequest(method, route string, status int, d time.Duration)
}

// Collector 是 Recorder 的 Prometheus 实现。
type Collector struct {
	stageLatency    *prometheus.HistogramVec
	stageFailures   *prometheus.CounterVec
	degradedPublish prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
}

// NewCollector 在 reg 上注册全部指标。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "judgmentpress_stage_duration_seconds",
			Help:    "Duration of pipeline stages.",
			Buckets: []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage", "outcome"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "judgmentpress_stage_failures_total",
			Help: "Failed pipeline stage runs.",
		}, []string{"stage"}),
		degradedPublish: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "judgmentpress_publish_without_media_total",
			Help: "Posts published without their featured image after a media upload failure.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "judgmentpress_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "judgmentpress_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.stageLatency,
		c.stageFailures,
		c.degradedPublish,
		c.httpRequests,
		c.httpLatency,
	)
	return c
}

func (c *Collector) ObserveStage(stage string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		c.stageFailures.WithLabelValues(stage).Inc()
	}
	c.stageLatency.WithLabelValues(stage, outcome).Observe(d.Seconds())
}

func (c *Collector) RecordDegradedPublish() {
	c.degradedPublish.Inc()
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler 暴露 registry 供 Prometheus 抓取。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop 丢弃所有指标。
type Nop struct{}

func (Nop) ObserveStage(string, time.Duration, error)            {}
func (Nop) RecordDegradedPublish()                               {}
func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
