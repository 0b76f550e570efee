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
// サービス層、ミドルウェア、ワーカーから利用する。
type MetricsCollector interface {
	RecordPostingTransition(from, to string)
	RecordApplicationSubmitted()
	RecordApplicationStatusChange(status string)
	RecordOutcomeAdvisory(code string)
	RecordLogoFetch(success bool, duration time.Duration)
	RecordHTTPStatus(statusCode int)
	RecordSessionsCleaned(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	postingTransitions *prometheus.CounterVec
	applications       prometheus.Counter
	applicationStatus  *prometheus.CounterVec
	outcomeAdvisories  *prometheus.CounterVec
	logoFetch          *prometheus.CounterVec
	logoFetchLatency   prometheus.Histogram
	httpStatus         *prometheus.CounterVec
	sessionsCleaned    prometheus.Counter
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		postingTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "istihdam_posting_transitions_total",
			Help: "求人の状態遷移数",
		}, []string{"from", "to"}),
		applications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "istihdam_applications_submitted_total",
			Help: "受け付けた応募の合計数",
		}),
		applicationStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "istihdam_application_status_changes_total",
			Help: "応募の選考状態変更数",
		}, []string{"status"}),
		outcomeAdvisories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "istihdam_outcome_advisories_total",
			Help: "採用結果保存時の注意事項の発生数",
		}, []string{"code"}),
		logoFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "istihdam_logo_fetch_total",
			Help: "企業ロゴ取得の試行数",
		}, []string{"result"}),
		logoFetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "istihdam_logo_fetch_latency_seconds",
			Help:    "企業ロゴ取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "istihdam_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "istihdam_sessions_cleaned_total",
			Help: "削除した期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.postingTransitions,
		c.applications,
		c.applicationStatus,
		c.outcomeAdvisories,
		c.logoFetch,
		c.logoFetchLatency,
		c.httpStatus,
		c.sessionsCleaned,
	)

	return c
}

// RecordPostingTransition は求人の状態遷移を記録する。
func (c *Collector) RecordPostingTransition(from, to string) {
	c.postingTransitions.WithLabelValues(from, to).Inc()
}

// RecordApplicationSubmitted は応募の受付を記録する。
func (c *Collector) RecordApplicationSubmitted() {
	c.applications.Inc()
}

// RecordApplicationStatusChange は応募の選考状態変更を記録する。
func (c *Collector) RecordApplicationStatusChange(status string) {
	c.applicationStatus.WithLabelValues(status).Inc()
}

// RecordOutcomeAdvisory は採用結果の注意事項を記録する。
func (c *Collector) RecordOutcomeAdvisory(code string) {
	c.outcomeAdvisories.WithLabelValues(code).Inc()
}

// RecordLogoFetch はロゴ取得の結果とレイテンシを記録する。
func (c *Collector) RecordLogoFetch(success bool, duration time.Duration) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logoFetch.WithLabelValues(result).Inc()
	c.logoFetchLatency.Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordSessionsCleaned は削除したセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int64) {
	c.sessionsCleaned.Add(float64(count))
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type Nop struct{}

func (Nop) RecordPostingTransition(string, string) {}
func (Nop) RecordApplicationSubmitted() {}
func (Nop) RecordApplicationStatusChange(string) {}
func (Nop) RecordOutcomeAdvisory(string) {}
func (Nop) RecordLogoFetch(bool, time.Duration) {}
func (Nop) RecordHTTPStatus(int) {}
func (Nop) RecordSessionsCleaned(int64) {}

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
