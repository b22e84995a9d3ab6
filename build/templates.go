package build

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"

	"svcdeck/config"
	"svcdeck/plan"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	Title      string
	PlanID     string
	Date       string
	SourceFile string
	Songs      []string
}

func buildSongs(p *plan.ServicePlan) []string {
	songs := p.AllSongs()
	result := make([]string, 0, len(songs))
	for _, s := range songs {
		result = append(result, s.CleanTitle())
	}
	return result
}

// dateStamp is the date part of output names.
func dateStamp(date time.Time) string {
	return date.Format("20060102")
}

func expandTemplate(p *plan.ServicePlan, name config.TemplateFieldName, field, source string, date time.Time) (string, error) {
	tmpl, err := template.New(string(name)).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values := Values{
		Context:    string(name),
		Title:      p.SermonTitle,
		PlanID:     p.ID,
		Date:       dateStamp(date),
		SourceFile: source,
		Songs:      buildSongs(p),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
