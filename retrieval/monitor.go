package retrieval

import (
	"fmt"
	"io"

	"github.com/poiesic/lexrag/core"
)

// RetrievalMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate scores during retrieval.
type RetrievalMonitor interface {
	Start(query string, topK int)
	AfterQueryEmbedding(dimension int)
	LabelScored(label core.Label, score float64, indices []int, similarities []float64)
	NewBest(label core.Label, score float64)
	Finish(result *core.RetrievalResult)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)                                     {}
func (n *noopMonitor) AfterQueryEmbedding(_ int)                                 {}
func (n *noopMonitor) LabelScored(_ core.Label, _ float64, _ []int, _ []float64) {}
func (n *noopMonitor) NewBest(_ core.Label, _ float64)                           {}
func (n *noopMonitor) Finish(_ *core.RetrievalResult)                            {}

// TraceMonitor writes a human-readable trace of every scoring step.
type TraceMonitor struct {
	w io.Writer
}

var _ RetrievalMonitor = (*TraceMonitor)(nil)

// NewTraceMonitor creates a monitor writing to w.
func NewTraceMonitor(w io.Writer) *TraceMonitor {
	return &TraceMonitor{w: w}
}

func (m *TraceMonitor) Start(query string, topK int) {
	fmt.Fprintf(m.w, "query: %q top_k=%d\n", query, topK)
}

func (m *TraceMonitor) AfterQueryEmbedding(dimension int) {
	fmt.Fprintf(m.w, "query embedded: dimension=%d\n", dimension)
}

func (m *TraceMonitor) LabelScored(label core.Label, score float64, indices []int, similarities []float64) {
	fmt.Fprintf(m.w, "  %-24s avg=%.4f", label, score)
	for i, idx := range indices {
		fmt.Fprintf(m.w, " [%d]=%.4f", idx, similarities[i])
	}
	fmt.Fprintln(m.w)
}

func (m *TraceMonitor) NewBest(label core.Label, score float64) {
	fmt.Fprintf(m.w, "  -> new best %s (%.4f)\n", label, score)
}

func (m *TraceMonitor) Finish(result *core.RetrievalResult) {
	if label, ok := result.Label(); ok {
		fmt.Fprintf(m.w, "best: %s score=%.4f contexts=%d\n", label, result.Score(), len(result.Contexts()))
		return
	}
	fmt.Fprintln(m.w, "best: none (no label scored above 0)")
}
