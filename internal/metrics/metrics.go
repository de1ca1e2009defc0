// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ログイン結果のラベル値。
const (
	LoginResultSuccess = "success"
	LoginResultFailure = "failure"
	LoginResultInvalid = "invalid"
)

// MetricsCollector はメトリクス収集のインターフェース。
// シェル・ハンドラー・ミドルウェアから利用する。
type MetricsCollector interface {
	RecordSectionSelected(sectionSlug, strategy string)
	RecordPreviewPresented(capability string)
	RecordScreenFallback(sectionSlug string)
	RecordRootMounted()
	RecordRootUnmounted()
	RecordLogin(result string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	sectionSelections    *prometheus.CounterVec
	previewPresentations *prometheus.CounterVec
	screenFallbacks      *prometheus.CounterVec
	logins               *prometheus.CounterVec
	rootsMounted         prometheus.Gauge
	httpStatus           *prometheus.CounterVec
	requestLatency       prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sectionSelections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aquire_section_selections_total",
			Help: "ナビゲーション戦略別のセクション選択数",
		}, []string{"section", "strategy"}),
		previewPresentations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aquire_preview_presentations_total",
			Help: "プレビュー機能別の3Dプレビュー表示数",
		}, []string{"capability"}),
		screenFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aquire_screen_fallbacks_total",
			Help: "利用不可画面に置き換えられたセクションの表示数",
		}, []string{"section"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aquire_logins_total",
			Help: "結果別のログイン試行数",
		}, []string{"result"}),
		rootsMounted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aquire_roots_mounted",
			Help: "マウント中の認証済みルート数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aquire_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aquire_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.sectionSelections,
		c.previewPresentations,
		c.screenFallbacks,
		c.logins,
		c.rootsMounted,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordSectionSelected はセクション選択を記録する。
func (c *Collector) RecordSectionSelected(sectionSlug, strategy string) {
	c.sectionSelections.WithLabelValues(sectionSlug, strategy).Inc()
}

// RecordPreviewPresented はプレビュー表示を記録する。
func (c *Collector) RecordPreviewPresented(capability string) {
	c.previewPresentations.WithLabelValues(capability).Inc()
}

// RecordScreenFallback は利用不可画面への置き換えを記録する。
func (c *Collector) RecordScreenFallback(sectionSlug string) {
	c.screenFallbacks.WithLabelValues(sectionSlug).Inc()
}

// RecordRootMounted はルートのマウントを記録する。
func (c *Collector) RecordRootMounted() {
	c.rootsMounted.Inc()
}

// RecordRootUnmounted はルートのアンマウントを記録する。
func (c *Collector) RecordRootUnmounted() {
	c.rootsMounted.Dec()
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストの処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
// ルーターの/metricsにマウントする。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
