// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// person.MetricsRecorderとmiddleware.HTTPStatusRecorderを満たす。
type Collector struct {
	refreshSuccess prometheus.Counter
	refreshFail    *prometheus.CounterVec
	refreshLatency prometheus.Histogram
	peopleHeld     prometheus.Gauge
	mutations      *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		refreshSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "personcache_refresh_success_total",
			Help: "人物キャッシュのリフレッシュ成功の合計数",
		}),
		refreshFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "personcache_refresh_fail_total",
			Help: "人物キャッシュのリフレッシュ失敗の合計数（理由別）",
		}, []string{"reason"}),
		refreshLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "personcache_refresh_latency_seconds",
			Help:    "取得元からの一括取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		peopleHeld: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "personcache_people_held",
			Help: "現在キャッシュが保持している人物の件数",
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "personcache_mutations_total",
			Help: "ローカルでの更新・削除の合計数",
		}, []string{"op"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "personcache_http_status_total",
			Help: "HTTPステータスコード別のAPIレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.refreshSuccess,
		c.refreshFail,
		c.refreshLatency,
		c.peopleHeld,
		c.mutations,
		c.httpStatus,
	)

	return c
}

// RecordRefreshSuccess はリフレッシュ成功を記録する。
func (c *Collector) RecordRefreshSuccess(count int) {
	c.refreshSuccess.Inc()
}

// RecordRefreshFailure はリフレッシュ失敗を理由ラベル付きで記録する。
func (c *Collector) RecordRefreshFailure(reason string) {
	c.refreshFail.WithLabelValues(reason).Inc()
}

// RecordRefreshLatency は取得元呼び出しのレイテンシを記録する。
func (c *Collector) RecordRefreshLatency(d time.Duration) {
	c.refreshLatency.Observe(d.Seconds())
}

// RecordMutation はローカルでの変更操作を記録する。
func (c *Collector) RecordMutation(op string) {
	c.mutations.WithLabelValues(op).Inc()
}

// SetPeopleHeld は保持件数を更新する。
func (c *Collector) SetPeopleHeld(n int) {
	c.peopleHeld.Set(float64(n))
}

// RecordHTTPStatus はAPIレスポンスのステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
