// Package plan defines service plan, the input of deck assembly.
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

const (
	MinPraiseCount = 1
	MaxPraiseCount = 20
)

var ErrInvalidPlan = errors.New("invalid service plan")

type Song struct {
	Title  string `yaml:"title" json:"title"`
	Artist string `yaml:"artist" json:"artist"`
	Lyrics string `yaml:"lyrics" json:"lyrics"`
}

// CleanTitle returns song title suitable for a slide: everything after the
// first underscore is dropped.
func (s Song) CleanTitle() string {
	return CleanTitle(s.Title)
}

// CleanTitle drops everything starting with the first underscore.
func CleanTitle(title string) string {
	before, _, _ := strings.Cut(title, "_")
	return before
}

// ParseSong reads "title|artist" notation, artist is optional.
func ParseSong(s string) Song {
	title, artist, _ := strings.Cut(s, "|")
	return Song{Title: strings.TrimSpace(title), Artist: strings.TrimSpace(artist)}
}

type Songs struct {
	Praise   []Song `yaml:"praise" json:"praise"`
	Offering *Song  `yaml:"offering,omitempty" json:"offering"`
	Closing  *Song  `yaml:"closing,omitempty" json:"closing"`
}

type Flags struct {
	IncludeOffering bool `yaml:"include_offering" json:"include_offering"`
	IncludeClosing  bool `yaml:"include_closing" json:"include_closing"`
}

// ServicePlan is everything needed to assemble a service deck. Engine never
// modifies it.
type ServicePlan struct {
	ID            string    `yaml:"plan_id,omitempty" json:"plan_id,omitempty"`
	PraiseCount   int       `yaml:"praise_count" json:"praise_count"`
	Prayer        string    `yaml:"prayer" json:"prayer"`
	SermonTitle   string    `yaml:"sermon_title" json:"sermon_title"`
	SermonPhrases []string  `yaml:"sermon_phrases" json:"sermon_phrases"`
	Songs         Songs     `yaml:"songs" json:"songs"`
	Flags         Flags     `yaml:"flags" json:"flags"`
	Created       time.Time `yaml:"-" json:"-"`
	Updated       time.Time `yaml:"-" json:"-"`
}

// New prepares plan the way service wizard does: one phrase per non empty
// line of phrases, praise songs to be filled later.
func New(praiseCount int, prayer, sermonTitle, phrases string, includeOffering, includeClosing bool) (*ServicePlan, error) {
	p := &ServicePlan{
		PraiseCount:   praiseCount,
		Prayer:        strings.TrimSpace(prayer),
		SermonTitle:   strings.TrimSpace(sermonTitle),
		SermonPhrases: SplitPhrases(phrases),
		Songs:         Songs{Praise: []Song{}},
		Flags: Flags{
			IncludeOffering: includeOffering,
			IncludeClosing:  includeClosing,
		},
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// SplitPhrases returns trimmed non empty lines.
func SplitPhrases(raw string) []string {
	out := []string{}
	for line := range strings.Lines(raw) {
		if line = strings.TrimSpace(line); len(line) > 0 {
			out = append(out, line)
		}
	}
	return out
}

// Validate checks plan structure. Deck assembly does not require a valid plan,
// it is used on plan creation and import.
func (p *ServicePlan) Validate() error {
	if p.PraiseCount < MinPraiseCount || p.PraiseCount > MaxPraiseCount {
		return fmt.Errorf("%w: praise count must be %d..%d, got %d", ErrInvalidPlan, MinPraiseCount, MaxPraiseCount, p.PraiseCount)
	}
	if len(p.Songs.Praise) > p.PraiseCount {
		return fmt.Errorf("%w: %d praise songs for praise count %d", ErrInvalidPlan, len(p.Songs.Praise), p.PraiseCount)
	}
	return nil
}

// AllSongs returns pointers to every song in plan order: praise, offering,
// closing.
func (p *ServicePlan) AllSongs() []*Song {
	out := make([]*Song, 0, len(p.Songs.Praise)+2)
	for i := range p.Songs.Praise {
		out = append(out, &p.Songs.Praise[i])
	}
	if p.Songs.Offering != nil {
		out = append(out, p.Songs.Offering)
	}
	if p.Songs.Closing != nil {
		out = append(out, p.Songs.Closing)
	}
	return out
}

// Decode reads YAML (or JSON, which is YAML too) plan. Unknown fields are
// rejected.
func Decode(data []byte) (*ServicePlan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	p := &ServicePlan{}
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("unable to decode plan: %w", err)
	}
	return p, nil
}

// Load reads plan file.
func Load(path string) (*ServicePlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read plan: %w", err)
	}
	p, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Encode returns plan as YAML.
func (p *ServicePlan) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("unable to encode plan: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
