// Package stats keeps extraction latency and volume figures: a rolling
// window served as JSON and Prometheus collectors served on /metrics.
package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Parse outcomes used as the "outcome" label.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	// documentsParsed counts parse attempts.
	// Labels: outcome (ok, rejected, error)
	documentsParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "epiclist",
		Name:      "documents_parsed_total",
		Help:      "Markdown documents parsed, by outcome",
	}, []string{"outcome"})

	// entriesExtracted counts catalog entries produced.
	// Labels: link_type
	entriesExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "epiclist",
		Name:      "entries_extracted_total",
		Help:      "Catalog entries extracted, by link type",
	}, []string{"link_type"})

	extractDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "epiclist",
		Name:      "extract_duration_seconds",
		Help:      "Time to parse and extract one document",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})
)

// Recorder feeds both the rolling window and the Prometheus collectors.
// It is safe for concurrent use.
type Recorder struct {
	window *Window
}

func NewRecorder(window time.Duration) *Recorder {
	return &Recorder{window: NewWindow(window)}
}

// Parsed records one parse-only attempt. Latency figures are left to
// Extracted.
func (r *Recorder) Parsed(outcome string) {
	documentsParsed.WithLabelValues(outcome).Inc()
}

// Extracted records one parse-and-extract attempt and how long it took.
func (r *Recorder) Extracted(outcome string, d time.Duration) {
	documentsParsed.WithLabelValues(outcome).Inc()
	if outcome != OutcomeOK {
		return
	}
	extractDuration.Observe(d.Seconds())
	r.window.Record(d)
}

// Entries records the extracted entries of one document, keyed by link
// type name.
func (r *Recorder) Entries(byType map[string]int) {
	for lt, n := range byType {
		entriesExtracted.WithLabelValues(lt).Add(float64(n))
	}
}

func (r *Recorder) Snapshot() Snapshot {
	return r.window.Snapshot()
}
