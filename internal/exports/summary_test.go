package exports

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"repo-analyzer-client/internal/analyzer"
)

func sampleResult() analyzer.Result {
	return analyzer.Result{
		RepoName:  "gin",
		RepoOwner: "gin-gonic",
		Explanation: analyzer.Explanation{
			Overview:         "An HTTP web framework.",
			KeyFeatures:      []string{"Fast routing", "Middleware"},
			TechStack:        []string{"Go", "httprouter"},
			Architecture:     "Radix tree router.",
			ChallengesSolved: []string{"Zero allocation routing"},
			Impact:           "Widely used.",
		},
		ResumeBullets: []analyzer.ResumeBullet{{Point: "Built a router"}},
		VivaQuestions: []analyzer.VivaQuestion{
			{Question: "What is a radix tree?", Answer: "A compressed trie.", Difficulty: "medium"},
		},
		InterviewQA: []analyzer.InterviewQA{
			{Question: "Why gin?", Answer: "Speed.", Category: "design"},
			{Question: "Testing?", Answer: "httptest."},
		},
	}
}

func TestBuildTextSummary(t *testing.T) {
	want := `gin-gonic/gin
=============
GitHub Repository Analysis

PROJECT OVERVIEW
----------------

An HTTP web framework.

Key Features:
- Fast routing
- Middleware

Tech Stack:
Go, httprouter

Architecture:
Radix tree router.

Challenges Solved:
- Zero allocation routing

Impact:
Widely used.

RESUME BULLET POINTS
--------------------

- Built a router

VIVA QUESTIONS
--------------

Q1 [MEDIUM]
Question: What is a radix tree?
Answer: A compressed trie.

INTERVIEW QUESTIONS & ANSWERS
-----------------------------

Q1 [DESIGN]
Question: Why gin?
Answer: Speed.

Q2
Question: Testing?
Answer: httptest.
`
	got := BuildTextSummary(sampleResult())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildTextSummaryEmptyResult(t *testing.T) {
	got := BuildTextSummary(analyzer.Result{})
	for _, heading := range []string{"PROJECT OVERVIEW", "RESUME BULLET POINTS", "VIVA QUESTIONS", "INTERVIEW QUESTIONS & ANSWERS"} {
		if !strings.Contains(got, heading) {
			t.Fatalf("expected heading %q in empty summary", heading)
		}
	}
	if !strings.HasSuffix(got, "\n") || strings.HasSuffix(got, "\n\n") {
		t.Fatalf("expected exactly one trailing newline, got %q", got[len(got)-3:])
	}
}

func TestQuestionLabel(t *testing.T) {
	tests := []struct {
		n    int
		tag  string
		want string
	}{
		{1, "hard", "Q1 [HARD]"},
		{2, " Behavioral ", "Q2 [BEHAVIORAL]"},
		{3, "", "Q3"},
	}
	for _, tt := range tests {
		if got := QuestionLabel(tt.n, tt.tag); got != tt.want {
			t.Fatalf("QuestionLabel(%d, %q) = %q, want %q", tt.n, tt.tag, got, tt.want)
		}
	}
}

func TestBuildMarkdown(t *testing.T) {
	md := BuildMarkdown(sampleResult())
	order := []string{
		"# gin-gonic/gin",
		"## Project Overview",
		"### Key Features",
		"`Go`, `httprouter`",
		"## Resume Bullet Points",
		"## Viva Questions",
		"### Q1 [MEDIUM]",
		"## Interview Questions & Answers",
		"### Q2",
	}
	last := -1
	for _, s := range order {
		idx := strings.Index(md, s)
		if idx < 0 {
			t.Fatalf("missing %q in markdown", s)
		}
		if idx < last {
			t.Fatalf("%q out of order", s)
		}
		last = idx
	}
}

func TestBuildMarkdownSkipsEmptySections(t *testing.T) {
	md := BuildMarkdown(analyzer.Result{RepoName: "x", RepoOwner: "y"})
	if strings.Contains(md, "Viva Questions") || strings.Contains(md, "Key Features") {
		t.Fatalf("expected empty sections to be omitted:\n%s", md)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "txt", want: FormatText},
		{in: "TEXT", want: FormatText},
		{in: "docx", want: FormatDOCX},
		{in: " pdf ", want: FormatPDF},
		{in: "html", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseFormat(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestFailureMessage(t *testing.T) {
	if FailureMessage(FormatDOCX) != "Failed to export DOCX" || FailureMessage(FormatPDF) != "Failed to export PDF" {
		t.Fatalf("unexpected failure messages")
	}
}
