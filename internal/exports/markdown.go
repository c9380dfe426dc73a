package exports

import (
	"strings"

	"repo-analyzer-client/internal/analyzer"
)

// BuildMarkdown renders result as Markdown for terminal display.
func BuildMarkdown(result analyzer.Result) string {
	var b strings.Builder
	ex := result.Explanation

	b.WriteString("# " + result.FullName() + "\n\n")
	b.WriteString("## Project Overview\n\n" + strings.TrimSpace(ex.Overview) + "\n\n")

	mdList(&b, "### Key Features", ex.KeyFeatures)
	if len(ex.TechStack) > 0 {
		b.WriteString("### Tech Stack\n\n")
		for i, t := range ex.TechStack {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("`" + strings.TrimSpace(t) + "`")
		}
		b.WriteString("\n\n")
	}
	if a := strings.TrimSpace(ex.Architecture); a != "" {
		b.WriteString("### Architecture\n\n" + a + "\n\n")
	}
	mdList(&b, "### Challenges Solved", ex.ChallengesSolved)
	if impact := strings.TrimSpace(ex.Impact); impact != "" {
		b.WriteString("### Impact\n\n" + impact + "\n\n")
	}

	points := make([]string, 0, len(result.ResumeBullets))
	for _, rb := range result.ResumeBullets {
		points = append(points, rb.Point)
	}
	mdList(&b, "## Resume Bullet Points", points)

	if len(result.VivaQuestions) > 0 {
		b.WriteString("## Viva Questions\n\n")
		for i, q := range result.VivaQuestions {
			mdQA(&b, QuestionLabel(i+1, q.Difficulty), q.Question, q.Answer)
		}
	}
	if len(result.InterviewQA) > 0 {
		b.WriteString("## Interview Questions & Answers\n\n")
		for i, q := range result.InterviewQA {
			mdQA(&b, QuestionLabel(i+1, q.Category), q.Question, q.Answer)
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func mdList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(heading + "\n\n")
	for _, item := range items {
		b.WriteString("- " + strings.TrimSpace(item) + "\n")
	}
	b.WriteString("\n")
}

func mdQA(b *strings.Builder, label, question, answer string) {
	b.WriteString("### " + label + "\n\n")
	b.WriteString("**Question:** " + strings.TrimSpace(question) + "\n\n")
	b.WriteString("**Answer:** " + strings.TrimSpace(answer) + "\n\n")
}
