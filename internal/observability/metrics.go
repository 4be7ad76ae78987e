package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Block outcomes recorded by Metrics.ObserveBlock.
const (
	OutcomeScored    = "scored"
	OutcomeUnscored  = "unscored"
	OutcomeSplit     = "split"
	OutcomeDecodeErr = "decode_error"
	OutcomeTimeout   = "timeout"
)

// Metrics collects per-run counters on a private registry so every run
// starts from zero and can be dumped to a node-exporter textfile.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	blocksTotal   *prometheus.CounterVec
	blockDuration *prometheus.HistogramVec
	sentences     prometheus.Counter
	topScore      prometheus.Gauge
}

// NewMetrics registers the fairgraph collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		blocksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fairgraph_blocks_total",
			Help: "Graph blocks processed by command and outcome",
		}, []string{"command", "outcome"}),
		blockDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fairgraph_block_duration_seconds",
			Help:    "Time spent on a single graph block",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14), // 50us to ~400ms
		}, []string{"command"}),
		sentences: factory.NewCounter(prometheus.CounterOpts{
			Name: "fairgraph_sentences_written_total",
			Help: "Sentence graphs kept by the multisentence splitter",
		}),
		topScore: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fairgraph_top_centrality_score",
			Help: "Highest centrality score seen in the last run",
		}),
	}
}

// ObserveBlock records one processed block.
func (m *Metrics) ObserveBlock(command, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.blocksTotal.WithLabelValues(command, outcome).Inc()
	m.blockDuration.WithLabelValues(command).Observe(d.Seconds())
}

// AddSentences counts sentence graphs that survived the keyword filter.
func (m *Metrics) AddSentences(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sentences.Add(float64(n))
}

// SetTopScore records the best score of a run.
func (m *Metrics) SetTopScore(score float64) {
	if m == nil {
		return
	}
	m.topScore.Set(score)
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes all collected metrics to path in the text exposition
// format. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
