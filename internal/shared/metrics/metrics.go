package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

// collector writes itself in Prometheus text exposition format.
type collector interface {
	write(w io.Writer)
}

var (
	analysesTotal    = newCounterVec("analyses_total", "Analyses by outcome (started|completed|failed|rejected)", "outcome")
	chatTotal        = newCounterVec("chat_questions_total", "Chat questions by outcome (sent|failed)", "outcome")
	exportsTotal     = newCounterVec("exports_total", "Exports by format and outcome", "format", "outcome")
	analysisDuration = newHistogram("analysis_duration_ms", "Backend analysis duration in milliseconds",
		[]float64{1000, 5000, 10000, 20000, 30000, 60000, 90000, 120000})

	registry = []collector{analysesTotal, chatTotal, exportsTotal, analysisDuration}
)

func IncAnalysisStarted()   { analysesTotal.inc("started") }
func IncAnalysisCompleted() { analysesTotal.inc("completed") }
func IncAnalysisFailed()    { analysesTotal.inc("failed") }

// IncAnalysisRejected counts submissions refused because one was already running.
func IncAnalysisRejected() { analysesTotal.inc("rejected") }

func IncChatQuestion() { chatTotal.inc("sent") }

// IncChatFailed counts questions that ended in the fallback reply.
func IncChatFailed() { chatTotal.inc("failed") }

// IncExport counts an export attempt by format and outcome (ok|failed).
func IncExport(format, outcome string) {
	exportsTotal.inc(format, outcome)
}

func ObserveAnalysisDurationMs(ms float64) {
	analysisDuration.observe(max(ms, 0))
}

// Handler serves every registered metric.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

func Render() string {
	var sb strings.Builder
	for _, m := range registry {
		m.write(&sb)
	}
	return sb.String()
}

type counterVec struct {
	name, help string
	labels     []string

	mu     sync.Mutex
	series map[string]uint64
}

func newCounterVec(name, help string, labels ...string) *counterVec {
	return &counterVec{name: name, help: help, labels: labels, series: map[string]uint64{}}
}

func (c *counterVec) inc(values ...string) {
	pairs := make([]string, len(c.labels))
	for i, label := range c.labels {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		pairs[i] = label + "=" + strconv.Quote(v)
	}
	key := strings.Join(pairs, ",")

	c.mu.Lock()
	c.series[key]++
	c.mu.Unlock()
}

func (c *counterVec) write(w io.Writer) {
	c.mu.Lock()
	keys := make([]string, 0, len(c.series))
	for k := range c.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fmt.Sprintf("%s{%s} %d\n", c.name, k, c.series[k])
	}
	c.mu.Unlock()

	writeHeader(w, c.name, c.help, "counter")
	for _, line := range lines {
		io.WriteString(w, line)
	}
}

type histogram struct {
	name, help string
	bounds     []float64

	mu     sync.Mutex
	counts []uint64 // per bucket, not cumulative
	sum    float64
	total  uint64
}

func newHistogram(name, help string, bounds []float64) *histogram {
	return &histogram{name: name, help: help, bounds: bounds, counts: make([]uint64, len(bounds))}
}

func (h *histogram) observe(v float64) {
	i := sort.SearchFloat64s(h.bounds, v)
	h.mu.Lock()
	defer h.mu.Unlock()
	if i < len(h.counts) {
		h.counts[i]++
	}
	h.sum += v
	h.total++
}

// cumulative returns the per-bound counts as Prometheus expects them.
func (h *histogram) cumulative() (counts []uint64, sum float64, total uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	counts = make([]uint64, len(h.counts))
	var running uint64
	for i, n := range h.counts {
		running += n
		counts[i] = running
	}
	return counts, h.sum, h.total
}

func (h *histogram) write(w io.Writer) {
	counts, sum, total := h.cumulative()
	writeHeader(w, h.name, h.help, "histogram")
	for i, bound := range h.bounds {
		fmt.Fprintf(w, "%s_bucket{le=%q} %d\n", h.name, formatFloat(bound), counts[i])
	}
	fmt.Fprintf(w, "%s_bucket{le=\"+Inf\"} %d\n", h.name, total)
	fmt.Fprintf(w, "%s_sum %s\n%s_count %d\n", h.name, formatFloat(sum), h.name, total)
}

func writeHeader(w io.Writer, name, help, kind string) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
