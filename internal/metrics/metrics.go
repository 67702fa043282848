// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層やハンドラー層から利用する。
type MetricsCollector interface {
	RecordToggle(edgeKind string, active bool)
	RecordViewIncrement(videoID string)
	RecordHTTPStatus(statusCode int)
	RecordQueryLatency(queryKind string, duration time.Duration)
	RecordMediaUpload(mediaKind string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	toggleTotal    *prometheus.CounterVec
	viewIncrements prometheus.Counter
	httpStatus     *prometheus.CounterVec
	queryLatency   *prometheus.HistogramVec
	mediaUploads   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		toggleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cliptube_toggle_total",
			Help: "トグル操作のエッジ種別・結果別の合計数",
		}, []string{"edge_kind", "result"}),
		viewIncrements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cliptube_view_increments_total",
			Help: "動画視聴回数インクリメントの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cliptube_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		queryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cliptube_query_latency_seconds",
			Help:    "集計クエリ種別ごとのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"query_kind"}),
		mediaUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cliptube_media_uploads_total",
			Help: "メディア種別ごとのアップロード合計数",
		}, []string{"media_kind"}),
	}

	reg.MustRegister(
		c.toggleTotal,
		c.viewIncrements,
		c.httpStatus,
		c.queryLatency,
		c.mediaUploads,
	)

	return c
}

// RecordToggle はトグル操作の結果を記録する。
// activeがtrueならエッジ作成、falseならエッジ削除を意味する。
func (c *Collector) RecordToggle(edgeKind string, active bool) {
	result := "deactivated"
	if active {
		result = "activated"
	}
	c.toggleTotal.WithLabelValues(edgeKind, result).Inc()
}

// RecordViewIncrement は視聴回数のインクリメントを記録する。
func (c *Collector) RecordViewIncrement(videoID string) {
	c.viewIncrements.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordQueryLatency は集計クエリのレイテンシを記録する。
func (c *Collector) RecordQueryLatency(queryKind string, duration time.Duration) {
	c.queryLatency.WithLabelValues(queryKind).Observe(duration.Seconds())
}

// RecordMediaUpload はメディアアップロードを記録する。
func (c *Collector) RecordMediaUpload(mediaKind string) {
	c.mediaUploads.WithLabelValues(mediaKind).Inc()
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
