package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os/exec"
	"time"
)

var ErrRendererMissing = errors.New("pdf renderer not installed")

var htmlTemplate = template.Must(template.New("progress_report").Funcs(template.FuncMap{
	"scoreClass": func(pct float64) string {
		switch {
		case pct >= 80:
			return "high-score"
		case pct >= 60:
			return "medium-score"
		default:
			return "low-score"
		}
	},
}).Parse(progressReportHTML))

// RenderHTML renders d as a standalone HTML document.
func RenderHTML(d Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

// PDFRenderer converts the HTML report to PDF with an external
// wkhtmltopdf-compatible binary reading stdin and writing stdout.
type PDFRenderer struct {
	Binary  string
	Timeout time.Duration
}

func NewPDFRenderer(binary string) *PDFRenderer {
	if binary == "" {
		binary = "wkhtmltopdf"
	}
	return &PDFRenderer{Binary: binary, Timeout: 60 * time.Second}
}

func (p *PDFRenderer) Render(ctx context.Context, d Data) ([]byte, error) {
	html, err := RenderHTML(d)
	if err != nil {
		return nil, err
	}
	if _, err := exec.LookPath(p.Binary); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRendererMissing, p.Binary)
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.Binary, "--quiet", "--encoding", "utf-8", "-", "-")
	cmd.Stdin = bytes.NewReader(html)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %v: %s", p.Binary, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

const progressReportHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 20px; }
h1 { color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px; }
h2 { color: #2980b9; margin-top: 30px; }
.summary { background-color: #f8f9fa; border-left: 4px solid #3498db; padding: 15px; margin: 20px 0; }
.quiz-result { margin-bottom: 30px; border: 1px solid #ddd; padding: 15px; border-radius: 5px; }
.quiz-header { display: flex; justify-content: space-between; border-bottom: 1px solid #eee; padding-bottom: 10px; margin-bottom: 15px; }
.score { font-size: 1.2em; font-weight: bold; }
.high-score { color: #27ae60; }
.medium-score { color: #f39c12; }
.low-score { color: #e74c3c; }
.improvement-areas { background-color: #fff8e1; padding: 15px; border-left: 4px solid #ffc107; margin-top: 20px; }
.footer { margin-top: 50px; text-align: center; font-size: 0.9em; color: #7f8c8d; border-top: 1px solid #eee; padding-top: 20px; }
table { width: 100%; border-collapse: collapse; margin: 20px 0; }
th, td { padding: 12px 15px; text-align: left; border-bottom: 1px solid #ddd; }
th { background-color: #f2f2f2; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>

<div class="summary">
<p><strong>Student:</strong> {{.StudentName}}</p>
<p><strong>Report Period:</strong> {{.Period}}</p>
<p><strong>Generated On:</strong> {{.GeneratedOn}}</p>
<p><strong>Overall Progress:</strong> {{.OverallProgress}}</p>
</div>

<h2>Quiz Performance Summary</h2>
<p>Total Quizzes Taken: {{.TotalQuizzes}}</p>
<p>Average Score: {{.AverageScore}}%</p>

{{if .QuizResults}}
<h2>Recent Quiz Results</h2>
{{range .QuizResults}}
<div class="quiz-result">
<div class="quiz-header">
<h3>{{.Title}}</h3>
<div class="score {{scoreClass .Percentage}}">Score: {{.Score}}/{{.MaxScore}} ({{.Percentage}}%)</div>
</div>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Topics:</strong> {{.Topics}}</p>
{{if .Questions}}
<h4>Question Performance</h4>
<table>
<tr><th>Question</th><th>Your Answer</th><th>Correct</th></tr>
{{range .Questions}}<tr><td>{{.Text}}</td><td>{{.UserAnswer}}</td><td>{{if .IsCorrect}}&#10003;{{else}}&#10007;{{end}}</td></tr>
{{end}}
</table>
{{end}}
</div>
{{end}}
{{end}}

{{if .ImprovementAreas}}
<h2>Areas for Improvement</h2>
<div class="improvement-areas">
<ul>
{{range .ImprovementAreas}}<li>{{.}}</li>
{{end}}
</ul>
</div>
{{end}}

<h2>Progress Over Time</h2>
<p>Your scores have {{.Trend}} over the past {{.TrendPeriod}}.</p>

<div class="footer">
<p>This report was automatically generated by MindEngage Tutor.</p>
<p>&copy; {{.Year}} MindEngage Tutor. All rights reserved.</p>
</div>
</body>
</html>
`
