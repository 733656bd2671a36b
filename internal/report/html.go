package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/mcp-eval/engine/pkg/types"
)

var htmlTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"score": func(v float64) string { return fmt.Sprintf("%.3f", v) },
	"call":  callText,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Scenario}} - trajectory comparison</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #222; }
table { border-collapse: collapse; margin: 1em 0; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
th { background: #f3f3f3; }
.pass { color: #1a7f37; font-weight: bold; }
.fail { color: #cf222e; font-weight: bold; }
code { background: #f6f8fa; padding: 1px 4px; }
</style>
</head>
<body>
<h1>{{.Scenario}}</h1>
<p>Verdict: <span class="{{if eq .Verdict "PASS"}}pass{{else}}fail{{end}}">{{.Verdict}}</span>
(score {{score .Result.OverallScore}}, threshold {{score .Result.PassThreshold}})</p>
<p>Current status {{.Result.ExecutionStatus}}, baseline status {{.Result.BaselineStatus}},
trajectory score {{score .Result.TrajectoryScore}}, tool count diff {{.Result.ToolCountDiff}}.</p>
{{if .Result.BlockingStep}}<p class="fail">Blocked at step {{.Result.BlockingStep}}; comparison stopped early.</p>{{end}}
{{if .Result.PerCallResults}}
<table>
<tr><th>#</th><th>Label</th><th>Score</th><th>Current</th><th>Baseline</th></tr>
{{range .Result.PerCallResults}}
<tr><td>{{.Index}}</td><td>{{.Label}}</td><td>{{score .Score}}</td><td><code>{{call .Current}}</code></td><td><code>{{call .Baseline}}</code></td></tr>
{{end}}
</table>
{{else}}<p><em>No aligned calls to compare.</em></p>{{end}}
{{if .Result.FailureAnalysis.NewFailures}}<p>New failures: {{range .Result.FailureAnalysis.NewFailures}}<code>{{.}}</code> {{end}}</p>{{end}}
{{if .Result.FailureAnalysis.ResolvedFailures}}<p>Resolved failures: {{range .Result.FailureAnalysis.ResolvedFailures}}<code>{{.}}</code> {{end}}</p>{{end}}
{{if .Recommendations}}
<h2>Recommendations</h2>
<ul>{{range .Recommendations}}<li>{{.}}</li>{{end}}</ul>
{{end}}
<p><small>Generated {{.GeneratedAt}} (report v{{.Version}})</small></p>
</body>
</html>
`))

// GenerateHTML writes an HTML-formatted report to w.
func GenerateHTML(w io.Writer, r *Report) error {
	if err := htmlTmpl.Execute(w, r); err != nil {
		return fmt.Errorf("render HTML report: %w", err)
	}
	return nil
}

func callText(call *types.ToolCallRecord) string {
	if call == nil {
		return "(absent)"
	}
	args, _ := json.Marshal(call.ToolInput)
	text := fmt.Sprintf("%s(%s)", call.ToolName, args)
	if len(text) > maxCellLen {
		text = text[:maxCellLen-3] + "..."
	}
	return strings.TrimSpace(text)
}
