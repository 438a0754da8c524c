// ============================================================================
// llrt Metrics - Prometheus 監控指標
// ============================================================================
//
// Package: internal/metrics
// 文件: metrics.go
// 功能: 收集並暴露排程器運行指標，支持 Prometheus 監控
//
// 指標分類:
//
//   1. 計數器 (Counter) - 累計值，只增不減：
//      - scheduler_barriers_planned_total: 已規劃的 Barrier 總數
//      - scheduler_barriers_finalized_total: 已完成的 Barrier 總數
//      - scheduler_chunks_dispatched_total: 已派發的 JobChunk 總數
//
//   2. 性能指標 (Histogram) - 分佈統計：
//      - scheduler_chunk_duration_seconds: 單一 JobChunk 執行耗時分佈
//        * 桶分佈: 0.0001 ~ 1.6384 秒 (指數增長，倍率 4，共 8 桶)，涵蓋微秒級到秒級的任務切片
//
//   3. 狀態指標 (Gauge) - 瞬時值：
//      - scheduler_barriers_pending: 尚未完成的 Barrier 數
//      - scheduler_workers_busy: 目前正在執行 JobChunk 的 worker 數
//
// Prometheus 查詢示例:
//
//   # 每秒完成的 Barrier 數
//   rate(scheduler_barriers_finalized_total[1m])
//
//   # chunk 耗時 p95
//   histogram_quantile(0.95, scheduler_chunk_duration_seconds_bucket)
//
// HTTP 端點:
//   通過 /metrics 端點暴露，由 Prometheus 定期抓取
// ============================================================================

package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is the scheduler's Prometheus metrics collector.
type Collector struct {
	barriersPlanned   prometheus.Counter
	barriersFinalized prometheus.Counter
	chunksDispatched  prometheus.Counter

	chunkDuration prometheus.Histogram

	barriersPending prometheus.Gauge
	workersBusy     prometheus.Gauge
}

// NewCollector creates and registers a new Collector against the
// default Prometheus registry.
func NewCollector() *Collector {
	c := &Collector{
		barriersPlanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_barriers_planned_total",
			Help: "Total number of barriers planned by the scheduler",
		}),
		barriersFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_barriers_finalized_total",
			Help: "Total number of barriers that have finished execution",
		}),
		chunksDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scheduler_chunks_dispatched_total",
			Help: "Total number of job chunks handed to workers",
		}),
		chunkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scheduler_chunk_duration_seconds",
			Help:    "Execution duration of individual job chunks, in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		barriersPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_barriers_pending",
			Help: "Current number of barriers not yet finalized",
		}),
		workersBusy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_workers_busy",
			Help: "Current number of workers executing a job chunk",
		}),
	}

	prometheus.MustRegister(c.barriersPlanned)
	prometheus.MustRegister(c.barriersFinalized)
	prometheus.MustRegister(c.chunksDispatched)
	prometheus.MustRegister(c.chunkDuration)
	prometheus.MustRegister(c.barriersPending)
	prometheus.MustRegister(c.workersBusy)

	return c
}

// IncBarriersPlanned records a newly planned barrier.
func (c *Collector) IncBarriersPlanned() {
	c.barriersPlanned.Inc()
	c.barriersPending.Inc()
}

// IncBarriersFinalized records a barrier finishing.
func (c *Collector) IncBarriersFinalized() {
	c.barriersFinalized.Inc()
	c.barriersPending.Dec()
}

// IncChunksDispatched records a job chunk being handed to a worker.
func (c *Collector) IncChunksDispatched() {
	c.chunksDispatched.Inc()
}

// ObserveChunkDuration records how long a job chunk took to execute.
func (c *Collector) ObserveChunkDuration(seconds float64) {
	c.chunkDuration.Observe(seconds)
}

// SetWorkersBusy sets the current count of workers executing a chunk.
func (c *Collector) SetWorkersBusy(n int) {
	c.workersBusy.Set(float64(n))
}

// StartServer starts the Prometheus metrics HTTP server on port.
func StartServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, mux)
}
