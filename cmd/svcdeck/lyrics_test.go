package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"svcdeck/plan"
)

func TestSelectSongs(t *testing.T) {
	p := &plan.ServicePlan{
		PraiseCount: 2,
		Songs: plan.Songs{
			Praise:   []plan.Song{{Title: "첫째", Lyrics: "있음"}, {Title: "둘째"}},
			Offering: &plan.Song{Title: "헌금"},
			Closing:  &plan.Song{Title: "축복", Lyrics: "있음"},
		},
	}

	tests := []struct {
		name    string
		index   int
		force   bool
		want    []string
		wantErr bool
	}{
		{name: "missing lyrics", want: []string{"둘째", "헌금"}},
		{name: "force", force: true, want: []string{"첫째", "둘째", "헌금", "축복"}},
		{name: "single with lyrics", index: 1, want: []string{"첫째"}},
		{name: "single closing", index: 4, want: []string{"축복"}},
		{name: "past end", index: 5, wantErr: true},
		{name: "negative", index: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			songs, err := selectSongs(p, tt.index, tt.force)
			if (err != nil) != tt.wantErr {
				t.Fatalf("selectSongs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			var got []string
			for _, s := range songs {
				got = append(got, s.Title)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("selectSongs() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	// songs are plan entries, not copies
	songs, _ := selectSongs(p, 2, false)
	songs[0].Lyrics = "새 가사"
	if p.Songs.Praise[1].Lyrics != "새 가사" {
		t.Error("selectSongs() returned copies of plan songs")
	}
}
