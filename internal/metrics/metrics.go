// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はフィードパイプラインのPrometheusメトリクスを収集する実装。
// feed.Metricsを実装する。
type Collector struct {
	pagesTotal     prometheus.Counter
	pageLatency    prometheus.Histogram
	pageItems      prometheus.Histogram
	sourceFetch    *prometheus.CounterVec
	danglingSource *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		pagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "machikado_feed_pages_total",
			Help: "組み立てたフィードページの合計数",
		}),
		pageLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "machikado_feed_page_latency_seconds",
			Help:    "フィードページ組み立てのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		pageItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "machikado_feed_page_items",
			Help:    "1ページあたりのフィード件数",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		sourceFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "machikado_source_fetch_total",
			Help: "共有元種別ごとのバッチ取得ID数",
		}, []string{"kind"}),
		danglingSource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "machikado_dangling_source_total",
			Help: "参照先が削除済みだった共有元の合計数",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.pagesTotal,
		c.pageLatency,
		c.pageItems,
		c.sourceFetch,
		c.danglingSource,
	)

	return c
}

// RecordPage はページ組み立ての所要時間と件数を記録する。
func (c *Collector) RecordPage(duration time.Duration, items int) {
	c.pagesTotal.Inc()
	c.pageLatency.Observe(duration.Seconds())
	c.pageItems.Observe(float64(items))
}

// RecordSourceFetch は共有元種別ごとのバッチ取得ID数を記録する。
func (c *Collector) RecordSourceFetch(kind string, count int) {
	c.sourceFetch.WithLabelValues(kind).Add(float64(count))
}

// RecordDanglingSource は参照先が消えていた共有元を記録する。
func (c *Collector) RecordDanglingSource(kind string) {
	c.danglingSource.WithLabelValues(kind).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
