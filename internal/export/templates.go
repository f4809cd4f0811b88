package export

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"prism/api/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

var journalTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
		"categoryName": func(category string) string {
			return categoryNames[category]
		},
		"emotionName": func(emotion string) string {
			return emotionNames[emotion]
		},
		"polarityName": polarityName,
	}

	templateContent, err := templateFS.ReadFile("templates/journal.html")
	if err != nil {
		// Fallback to built-in template if file not found
		journalTemplate = template.Must(template.New("journal").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	journalTemplate = template.Must(template.New("journal").Funcs(funcMap).Parse(string(templateContent)))
}

// TemplateData holds data for journal template rendering
type TemplateData struct {
	ExportedAt time.Time
	Total      int
	Decisions  []store.Decision
}

func journalTemplateData(decisions []store.Decision, now time.Time) TemplateData {
	return TemplateData{
		ExportedAt: now,
		Total:      len(decisions),
		Decisions:  decisions,
	}
}

// RenderJournalHTML renders the journal template with provided data
func RenderJournalHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := journalTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackTemplate is used if the embedded template fails to load
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>棱镜 · 决策记录</title>
  <style>
    body { font-family: "PingFang SC", "Microsoft YaHei", sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    .decision { margin: 1.5rem 0; padding-bottom: 1rem; border-bottom: 1px solid #ddd; }
    .section { background: #f5f5f5; padding: 0.75rem 1rem; margin: 0.75rem 0; border-left: 3px solid #333; }
  </style>
</head>
<body>
  <h1>棱镜 · 决策记录</h1>
  <div class="meta">导出时间 {{formatDate .ExportedAt "2006-01-02 15:04"}} | 共 {{.Total}} 条决策</div>
  {{range .Decisions}}
  <div class="decision">
    <h2>{{.Statement}}</h2>
    <div class="meta">{{formatDate .CreatedAt "2006-01-02"}} | {{categoryName .Tags.Category}} | 选择：{{.ChosenOption}}</div>
    {{if .Reasoning}}<p>理由：{{.Reasoning}}</p>{{end}}
    {{if .Retrospective}}
    <div class="section">
      <strong>复盘（{{polarityName .Retrospective.Polarity}}）</strong>
      <p>{{.Retrospective.ActualOutcome}}</p>
    </div>
    {{end}}
    {{if .Analysis}}
    <div class="section">
      <strong>智能分析</strong>
      <p>{{.Analysis.CoreIssue}}</p>
      <p>{{.Analysis.Summary}}</p>
    </div>
    {{end}}
  </div>
  {{end}}
</body>
</html>`
