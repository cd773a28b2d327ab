// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集 HTTP、摄取与审核相关指标.
//
// Example:
//
//	metrics.InitMetrics(config.Metrics)
//	metrics.IngestCounter.WithLabelValues("created").Inc()
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/creativevault/pkg/configs"
)

// 全局指标变量.
var (
	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// IngestCounter 素材登记结果计数，outcome: created|rejected|failed.
	IngestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creative_ingest_total",
			Help: "Creative ingestion attempts by outcome",
		},
		[]string{"outcome"},
	)

	// AssetUploadCounter 资产上传计数，slot: media|thumbnail|archive.
	AssetUploadCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creative_asset_uploads_total",
			Help: "Asset uploads to object storage by slot and outcome",
		},
		[]string{"slot", "outcome"},
	)

	// ModerationCounter 审核变更记录数.
	ModerationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "creative_moderation_records_total",
			Help: "Records affected by moderation actions",
		},
		[]string{"action"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()
	initOnce sync.Once
)

// InitMetrics 初始化Metrics，重复调用无副作用.
func InitMetrics(config configs.MetricsConfig) {
	if !config.Enabled {
		return
	}

	initOnce.Do(func() {
		if config.RuntimeMetrics {
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}

		registry.MustRegister(RequestCounter, RequestDuration, IngestCounter, AssetUploadCounter, ModerationCounter)
	})
}

// Handler 返回 Prometheus 导出处理器.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
