package build

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"svcdeck/config"
	"svcdeck/plan"
)

func setupTestPlanForTemplate(t *testing.T) *plan.ServicePlan {
	t.Helper()
	return &plan.ServicePlan{
		ID:          "0192-abc",
		SermonTitle: "빛과 소금",
		Songs: plan.Songs{
			Praise:   []plan.Song{{Title: "은혜_live"}, {Title: "주만 바라볼지라"}},
			Offering: &plan.Song{Title: "드림_2"},
			Closing:  &plan.Song{Title: "축복송"},
		},
	}
}

func TestExpandTemplate_Fields(t *testing.T) {
	p := setupTestPlanForTemplate(t)
	date := time.Date(2025, 3, 2, 10, 0, 0, 0, time.Local)

	tests := []struct {
		name  string
		field string
		want  string
	}{
		{"simple text", "simple-text", "simple-text"},
		{"title", "{{ .Title }}", "빛과 소금"},
		{"plan id", "{{ .PlanID }}", "0192-abc"},
		{"date", "{{ .Date }}", "20250302"},
		{"source", "{{ .SourceFile }}", "sunday"},
		{"context", "{{ .Context }}", string(config.OutputNameTemplateFieldName)},
		{"songs", "{{ join \",\" .Songs }}", "은혜,주만 바라볼지라,드림,축복송"},
		{"last song", "{{ last .Songs }}", "축복송"},
		{"sprig", "{{ .Title | upper | replace \" \" \"-\" }}", "빛과-소금"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandTemplate(p, config.OutputNameTemplateFieldName, tt.field, "sunday", date)
			if err != nil {
				t.Fatalf("expandTemplate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandTemplate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpandTemplate_Errors(t *testing.T) {
	p := setupTestPlanForTemplate(t)
	for _, field := range []string{"{{ .Title", "{{ .NoSuchField }}"} {
		if _, err := expandTemplate(p, config.OutputNameTemplateFieldName, field, "sunday", time.Now()); err == nil {
			t.Errorf("expandTemplate(%q) expected error", field)
		}
	}
}

func TestBuildSongs(t *testing.T) {
	p := setupTestPlanForTemplate(t)
	want := []string{"은혜", "주만 바라볼지라", "드림", "축복송"}
	if diff := cmp.Diff(want, buildSongs(p)); diff != "" {
		t.Errorf("buildSongs() mismatch (-want +got):\n%s", diff)
	}

	if got := buildSongs(&plan.ServicePlan{}); got == nil || len(got) != 0 {
		t.Errorf("buildSongs() for plan without songs = %#v, want empty slice", got)
	}
}
