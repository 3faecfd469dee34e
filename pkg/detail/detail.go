// Package detail turns detection results into the enumerated list shown
// next to the annotated image.
package detail

import (
	"bytes"
	"fmt"
	"html/template"
	"math"

	"DetectionViewer/internal/entity"
)

const EmptyMessage = "no objects detected"

// Fragment is either a single informational message or an ordered list.
type Fragment struct {
	Message string   `json:"message,omitempty"`
	Items   []string `json:"items,omitempty"`
}

func (f Fragment) Empty() bool {
	return len(f.Items) == 0
}

// Lines flattens the fragment into display lines.
func (f Fragment) Lines() []string {
	if f.Empty() {
		return []string{f.Message}
	}
	return f.Items
}

func Render(results []entity.ResultModel) Fragment {
	if len(results) == 0 {
		return Fragment{Message: EmptyMessage}
	}

	items := make([]string, len(results))
	for i, r := range results {
		items[i] = fmt.Sprintf("object %d: label %s, confidence %s", i+1, r.Label, Percent(r.Score))
	}
	return Fragment{Items: items}
}

// Percent formats a [0,1] score as a percentage with one decimal, rounding
// halves away from zero.
func Percent(score float64) string {
	pct := math.Round(score*100*10) / 10
	return fmt.Sprintf("%.1f%%", pct)
}

var fragmentTemplate = template.Must(template.New("detail").Parse(
	`{{if .Empty}}<p>{{.Message}}</p>{{else}}<ul>{{range .Items}}<li>{{.}}</li>{{end}}</ul>{{end}}`,
))

// HTML renders the fragment as markup for the dashboard result panel.
func (f Fragment) HTML() (template.HTML, error) {
	var buf bytes.Buffer
	if err := fragmentTemplate.Execute(&buf, f); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
