package monitoring

import (
	"time"

	"streamcast/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements ports.MetricsRecorder.
type PrometheusCollector struct {
	streamsLive      prometheus.Gauge
	viewersConnected prometheus.Gauge
	streamViewers    *prometheus.GaugeVec

	publishAttempts *prometheus.CounterVec
	chatMessages    prometheus.Counter
	eventsDropped   prometheus.Counter

	authorizeDuration prometheus.Histogram
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		streamsLive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "streamcast_streams_live",
			Help: "Number of currently live streams",
		}),

		viewersConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "streamcast_viewers_connected",
			Help: "Number of connected viewer connections",
		}),

		streamViewers: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "streamcast_stream_viewer_count",
			Help: "Number of viewers watching each stream",
		}, []string{"stream_path"}),

		publishAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "streamcast_publish_attempts_total",
			Help: "Publish attempts by coordinator decision",
		}, []string{"decision"}),

		chatMessages: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streamcast_chat_messages_total",
			Help: "Total chat messages fanned out",
		}),

		eventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streamcast_events_dropped_total",
			Help: "Events dropped because a viewer connection could not keep up",
		}),

		authorizeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "streamcast_authorize_duration_seconds",
			Help:    "Duration of publish authorization checks",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
}

func (p *PrometheusCollector) RecordPublishDecision(decision string) {
	p.publishAttempts.WithLabelValues(decision).Inc()
}

func (p *PrometheusCollector) RecordStreamStarted(path domain.StreamPath) {
	p.streamsLive.Inc()
	p.streamViewers.WithLabelValues(string(path)).Set(0)
}

func (p *PrometheusCollector) RecordStreamEnded(path domain.StreamPath) {
	p.streamsLive.Dec()
	// Reclaim the per-stream series so label cardinality tracks live
	// streams, not historical ones
	p.streamViewers.DeleteLabelValues(string(path))
}

func (p *PrometheusCollector) RecordViewerCount(path domain.StreamPath, count int) {
	if count == 0 {
		p.streamViewers.DeleteLabelValues(string(path))
		return
	}
	p.streamViewers.WithLabelValues(string(path)).Set(float64(count))
}

func (p *PrometheusCollector) RecordViewerConnected() {
	p.viewersConnected.Inc()
}

func (p *PrometheusCollector) RecordViewerDisconnected() {
	p.viewersConnected.Dec()
}

func (p *PrometheusCollector) RecordChatMessage() {
	p.chatMessages.Inc()
}

func (p *PrometheusCollector) RecordEventDropped() {
	p.eventsDropped.Inc()
}

func (p *PrometheusCollector) ObserveAuthorizeDuration(d time.Duration) {
	p.authorizeDuration.Observe(d.Seconds())
}
