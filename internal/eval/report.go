package eval

import (
	"encoding/json"
	"fmt"
	"io"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Report formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var textReport = template.Must(template.New("report").Parse(
	`Eval {{.ID}} ({{if .Offline}}offline{{else}}live{{end}}{{if .Search}}, with search{{end}})
{{range .Cases}}{{if .Passed}}PASS{{else}}FAIL{{end}}  {{printf "%-40q" .Input}} -> {{if .ErrorKind}}{{.ErrorKind}}{{else}}{{.Category}} {{printf "%q" .Query}}{{end}}{{if not .Passed}} (want {{.ExpectedCategory}} {{printf "%q" .ExpectedQuery}}){{end}}
{{end}}
Passed: {{.Summary.Passed}}/{{.Summary.Total}} ({{printf "%.1f" .Summary.PassRate}}%)  Failed: {{.Summary.Failed}}  Errored: {{.Summary.Errored}}
`))

func WriteText(w io.Writer, r *Report) error {
	return textReport.Execute(w, r)
}

func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func WriteYAML(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}

// Write renders r in the given format.
func Write(w io.Writer, r *Report, format string) error {
	switch format {
	case FormatText, "":
		return WriteText(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// ContentType returns the MIME type used when exporting a report.
func ContentType(format string) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	default:
		return "text/plain; charset=utf-8"
	}
}
