// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hitoshi/hoshokan/internal/model"
)

// Collector はPrometheusメトリクスを収集する実装。
// warranty.MetricsRecorderとstats.MetricsRecorderを実装する。
type Collector struct {
	httpStatus         *prometheus.CounterVec
	warrantiesSaved    *prometheus.CounterVec
	documentsUploaded  prometheus.Counter
	aggregationLatency *prometheus.HistogramVec
	cleanupRuns        prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hoshokan_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		warrantiesSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hoshokan_warranties_saved_total",
			Help: "保存された保証の導出status別の合計数",
		}, []string{"status"}),
		documentsUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hoshokan_documents_uploaded_total",
			Help: "アップロードされた書類の合計数",
		}),
		aggregationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hoshokan_aggregation_latency_seconds",
			Help:    "集計クエリのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		cleanupRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hoshokan_cleanup_runs_total",
			Help: "クリーンアップジョブの実行回数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.warrantiesSaved,
		c.documentsUploaded,
		c.aggregationLatency,
		c.cleanupRuns,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordWarrantySaved は保証の保存を導出status別に記録する。
func (c *Collector) RecordWarrantySaved(status model.WarrantyStatus) {
	c.warrantiesSaved.WithLabelValues(string(status)).Inc()
}

// RecordDocumentUploaded は書類のアップロードを記録する。
func (c *Collector) RecordDocumentUploaded() {
	c.documentsUploaded.Inc()
}

// ObserveAggregationLatency は集計クエリのレイテンシを記録する。
func (c *Collector) ObserveAggregationLatency(operation string, duration time.Duration) {
	c.aggregationLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCleanupRun はクリーンアップジョブの実行を記録する。
func (c *Collector) RecordCleanupRun() {
	c.cleanupRuns.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
