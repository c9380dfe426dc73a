package metrics

import (
	"strings"
	"testing"
)

func TestRenderIncludesSeries(t *testing.T) {
	IncAnalysisStarted()
	IncAnalysisCompleted()
	IncChatQuestion()
	IncExport("pdf", "ok")
	IncExport("pdf", "ok")
	IncExport("docx", "failed")
	ObserveAnalysisDurationMs(4200)

	out := Render()
	for _, want := range []string{
		"# TYPE analyses_total counter",
		`analyses_total{outcome="started"}`,
		`chat_questions_total{outcome="sent"}`,
		`exports_total{format="pdf",outcome="ok"} 2`,
		`exports_total{format="docx",outcome="failed"} 1`,
		"# TYPE analysis_duration_ms histogram",
		`analysis_duration_ms_bucket{le="5000"}`,
		`analysis_duration_ms_bucket{le="+Inf"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in metrics output:\n%s", want, out)
		}
	}
}

func TestHistogramCumulativeBuckets(t *testing.T) {
	h := newHistogram("h", "test", []float64{10, 100})
	h.observe(5)
	h.observe(10)
	h.observe(50)
	h.observe(500)

	counts, sum, total := h.cumulative()
	if total != 4 || sum != 565 {
		t.Fatalf("expected total 4 sum 565, got %d %v", total, sum)
	}
	if counts[0] != 2 || counts[1] != 3 {
		t.Fatalf("unexpected cumulative counts %v", counts)
	}

	var sb strings.Builder
	h.write(&sb)
	if !strings.Contains(sb.String(), `h_bucket{le="100"} 3`) {
		t.Fatalf("unexpected exposition:\n%s", sb.String())
	}
}
