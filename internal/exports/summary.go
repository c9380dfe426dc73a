package exports

import (
	"fmt"
	"strings"

	"repo-analyzer-client/internal/analyzer"
)

// BuildTextSummary renders result as a plain-text document. Sections follow
// the DOCX/PDF exports: overview, resume bullets, viva questions, interview Q&A.
func BuildTextSummary(result analyzer.Result) string {
	var b strings.Builder
	ex := result.Explanation

	title := result.FullName()
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", max(len(title), 1)) + "\n")
	b.WriteString("GitHub Repository Analysis\n\n")

	section(&b, "PROJECT OVERVIEW")
	paragraph(&b, ex.Overview)

	subsection(&b, "Key Features")
	bullets(&b, ex.KeyFeatures)

	subsection(&b, "Tech Stack")
	paragraph(&b, strings.Join(ex.TechStack, ", "))

	subsection(&b, "Architecture")
	paragraph(&b, ex.Architecture)

	subsection(&b, "Challenges Solved")
	bullets(&b, ex.ChallengesSolved)

	subsection(&b, "Impact")
	paragraph(&b, ex.Impact)

	section(&b, "RESUME BULLET POINTS")
	points := make([]string, 0, len(result.ResumeBullets))
	for _, rb := range result.ResumeBullets {
		points = append(points, rb.Point)
	}
	bullets(&b, points)

	section(&b, "VIVA QUESTIONS")
	for i, q := range result.VivaQuestions {
		qa(&b, i+1, q.Difficulty, q.Question, q.Answer)
	}

	section(&b, "INTERVIEW QUESTIONS & ANSWERS")
	for i, q := range result.InterviewQA {
		qa(&b, i+1, q.Category, q.Question, q.Answer)
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// QuestionLabel formats a numbered question heading such as "Q2 [HARD]".
func QuestionLabel(n int, tag string) string {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	if tag == "" {
		return fmt.Sprintf("Q%d", n)
	}
	return fmt.Sprintf("Q%d [%s]", n, tag)
}

func section(b *strings.Builder, name string) {
	b.WriteString(name + "\n")
	b.WriteString(strings.Repeat("-", len(name)) + "\n\n")
}

func subsection(b *strings.Builder, name string) {
	b.WriteString(name + ":\n")
}

func paragraph(b *strings.Builder, text string) {
	b.WriteString(strings.TrimSpace(text) + "\n\n")
}

func bullets(b *strings.Builder, items []string) {
	for _, item := range items {
		b.WriteString("- " + strings.TrimSpace(item) + "\n")
	}
	b.WriteString("\n")
}

func qa(b *strings.Builder, n int, tag, question, answer string) {
	b.WriteString(QuestionLabel(n, tag) + "\n")
	b.WriteString("Question: " + strings.TrimSpace(question) + "\n")
	b.WriteString("Answer: " + strings.TrimSpace(answer) + "\n\n")
}
