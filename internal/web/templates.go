package web

import (
	"embed"
	"html/template"
	"strings"

	"repo-analyzer-client/internal/exports"
	"repo-analyzer-client/internal/sessions"
)

//go:embed templates/*.html
var templateFS embed.FS

var tabLabels = map[string]string{
	sessions.TabOverview:  "Overview",
	sessions.TabResume:    "Resume Points",
	sessions.TabViva:      "Viva Questions",
	sessions.TabInterview: "Interview Q&A",
}

var focusLabels = map[string]string{
	"all":       "Everything",
	"resume":    "Resume bullets",
	"interview": "Interview prep",
	"viva":      "Viva questions",
}

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("web").Funcs(template.FuncMap{
		"inc":           func(i int) int { return i + 1 },
		"upper":         strings.ToUpper,
		"join":          strings.Join,
		"tabLabel":      func(tab string) string { return tabLabels[tab] },
		"focusLabel":    func(focus string) string { return focusLabels[focus] },
		"questionLabel": exports.QuestionLabel,
		"downloadPath":  exports.DownloadPath,
	}).ParseFS(templateFS, "templates/*.html")
}
