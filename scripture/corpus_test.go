package scripture

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/encoding/korean"
)

const johnCorpus = `요한복음

요2:25 또 사람에 대하여 아무의 증거도 받으실 필요가 없으시니라
요3:1 그런데 바리새인 중에 니고데모라 하는 사람이 있으니
요3:2 그가 밤에 예수께 와서 <개역> 가로되
요 3 : 3 예수께서 대답하여 가라사대
요3:5 예수께서 대답하시되
요일3:4 잘못 매칭되면 안 되는 줄
요3:7 내가 네게 거듭나야 하겠다 하는 말을 기이히 여기지 말라
요3:4 순서가 어긋난 줄
요4:1 예수께서 세례를 주시는 줄을
`

func writeCorpus(t *testing.T, book, content string, euckr bool) string {
	t.Helper()
	dir := t.TempDir()
	data := []byte(content)
	if euckr {
		s, err := korean.EUCKR.NewEncoder().String(content)
		if err != nil {
			t.Fatal(err)
		}
		data = []byte(s)
	}
	if err := os.WriteFile(filepath.Join(dir, book+".txt"), data, 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func newEUCKRCorpus(t *testing.T, opts ...Option) *Corpus {
	t.Helper()
	dir := writeCorpus(t, "요한복음", johnCorpus, true)
	opts = append([]Option{WithEncoding(korean.EUCKR)}, opts...)
	return NewCorpus(dir, zaptest.NewLogger(t), opts...)
}

func TestCorpusVerses(t *testing.T) {
	tests := []struct {
		name       string
		chapter    int
		start, end int
		want       []string
	}{
		{
			name: "annotation stripped", chapter: 3, start: 1, end: 3,
			want: []string{
				"그런데 바리새인 중에 니고데모라 하는 사람이 있으니",
				"그가 밤에 예수께 와서  가로되",
				"예수께서 대답하여 가라사대",
			},
		},
		{
			// missing verse 4 shifts later ones, result is right padded
			name: "gap is padded at the end", chapter: 3, start: 3, end: 6,
			want: []string{"예수께서 대답하여 가라사대", "예수께서 대답하시되", "", ""},
		},
		{
			// scan stops at 3:7, out of order 3:4 is never seen
			name: "early stop", chapter: 3, start: 4, end: 5,
			want: []string{"예수께서 대답하시되", ""},
		},
		{
			name: "absent chapter", chapter: 21, start: 1, end: 3,
			want: []string{"", "", ""},
		},
		{
			name: "other chapter", chapter: 2, start: 25, end: 25,
			want: []string{"또 사람에 대하여 아무의 증거도 받으실 필요가 없으시니라"},
		},
	}

	for _, cached := range []bool{false, true} {
		var opts []Option
		name := "scan"
		if cached {
			opts = append(opts, WithCache())
			name = "cache"
		}
		c := newEUCKRCorpus(t, opts...)

		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				got, err := c.Verses("요한복음", tt.chapter, tt.start, tt.end)
				if err != nil {
					t.Fatalf("Verses() error = %v", err)
				}
				if len(got) != tt.end-tt.start+1 {
					t.Fatalf("Verses() returned %d entries, want %d", len(got), tt.end-tt.start+1)
				}
				if diff := cmp.Diff(tt.want, got); diff != "" {
					t.Errorf("Verses() mismatch (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestCorpusRange(t *testing.T) {
	c := newEUCKRCorpus(t)
	got, err := c.Range("요한복음", 3, 1, 3)
	if err != nil {
		t.Fatalf("Range() error = %v", err)
	}
	want := []Verse{
		{Chapter: 3, Number: 1, Body: "그런데 바리새인 중에 니고데모라 하는 사람이 있으니"},
		{Chapter: 3, Number: 2, Body: "그가 밤에 예수께 와서  가로되"},
		{Chapter: 3, Number: 3, Body: "예수께서 대답하여 가라사대"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Range() mismatch (-want +got):\n%s", diff)
	}
}

func TestCorpusMissingBook(t *testing.T) {
	c := NewCorpus(t.TempDir(), zaptest.NewLogger(t), WithPlaceholder("(없음)"))

	got, err := c.Verses("로마서", 8, 28, 30)
	if err != nil {
		t.Fatalf("Verses() error = %v", err)
	}
	if diff := cmp.Diff([]string{"(없음)", "(없음)", "(없음)"}, got); diff != "" {
		t.Errorf("Verses() mismatch (-want +got):\n%s", diff)
	}

	if _, err := c.Range("로마서", 8, 28, 30); !errors.Is(err, ErrCorpusFileMissing) {
		t.Errorf("Range() error = %v, want ErrCorpusFileMissing", err)
	}
}

func TestCorpusDefaultPlaceholder(t *testing.T) {
	c := NewCorpus(t.TempDir(), zaptest.NewLogger(t), WithCache())
	got, err := c.Verses("로마서", 1, 1, 1)
	if err != nil {
		t.Fatalf("Verses() error = %v", err)
	}
	if got[0] != DefaultPlaceholder {
		t.Errorf("Verses() = %q, want default placeholder", got)
	}
}

func TestCorpusUTF8AndUnknownBook(t *testing.T) {
	// unknown books are their own line prefix
	dir := writeCorpus(t, "Jude", "Jude1:1 Jude, a servant\nJude1:2 Mercy unto you\n", false)
	c := NewCorpus(dir, zaptest.NewLogger(t))

	got, err := c.Verses("Jude", 1, 1, 2)
	if err != nil {
		t.Fatalf("Verses() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Jude, a servant", "Mercy unto you"}, got); diff != "" {
		t.Errorf("Verses() mismatch (-want +got):\n%s", diff)
	}
}

func TestCorpusLongLine(t *testing.T) {
	long := strings.Repeat("말씀", 300*1024)
	dir := writeCorpus(t, "요한복음", "요3:16 "+long+"\r\n요3:17 끝", false)

	for _, opts := range [][]Option{nil, {WithCache()}} {
		c := NewCorpus(dir, zaptest.NewLogger(t), opts...)
		got, err := c.Verses("요한복음", 3, 16, 17)
		if err != nil {
			t.Fatalf("Verses() error = %v", err)
		}
		if len(got) != 2 || got[0] != long || got[1] != "끝" {
			t.Errorf("Verses() lost verses around %d byte line", len(long))
		}
	}
}

func TestCorpusInvalidRange(t *testing.T) {
	c := newEUCKRCorpus(t)
	tests := []struct {
		book                string
		chapter, start, end int
	}{
		{"요한복음", 3, 5, 4},
		{"요한복음", 0, 1, 1},
		{"요한복음", 3, 1, MaxVerse + 1},
		{"요한복음", 3, 1, math.MaxInt},
		{"요한복음", MaxChapter + 1, 1, 1},
		// no source file, placeholders must not be allocated either
		{"없는책", 1, 1, math.MaxInt},
	}
	for _, tt := range tests {
		got, err := c.Verses(tt.book, tt.chapter, tt.start, tt.end)
		if !errors.Is(err, ErrInvalidRange) {
			t.Errorf("Verses(%s %d:%d-%d) error = %v, want ErrInvalidRange", tt.book, tt.chapter, tt.start, tt.end, err)
		}
		if got != nil {
			t.Errorf("Verses(%s %d:%d-%d) = %d verses, want none", tt.book, tt.chapter, tt.start, tt.end, len(got))
		}
	}

	if got, err := c.Verses("요한복음", 3, MaxVerse, MaxVerse); err != nil || len(got) != 1 {
		t.Errorf("Verses() at upper bound = %q, %v", got, err)
	}
}

func TestCorpusPathEscape(t *testing.T) {
	c := NewCorpus("/srv/bible", zaptest.NewLogger(t))
	if got := c.path("../../etc/passwd"); got != filepath.Join("/srv/bible", "passwd.txt") {
		t.Errorf("path() = %q, escaped corpus root", got)
	}
}

func TestCorpusConcurrentCache(t *testing.T) {
	c := newEUCKRCorpus(t, WithCache())

	var wg sync.WaitGroup
	results := make([][]string, 16)
	for i := range results {
		wg.Go(func() {
			results[i], _ = c.Verses("요한복음", 3, 1, 2)
		})
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		if diff := cmp.Diff(results[0], results[i]); diff != "" {
			t.Errorf("result %d differs (-first +this):\n%s", i, diff)
		}
	}
	if len(results[0]) != 2 || results[0][0] == "" {
		t.Errorf("unexpected result %q", results[0])
	}
}

func TestLookupEncoding(t *testing.T) {
	if _, err := LookupEncoding("EUC-KR"); err != nil {
		t.Errorf("LookupEncoding(EUC-KR) error = %v", err)
	}
	if _, err := LookupEncoding("no-such-charset"); err == nil {
		t.Error("LookupEncoding() expected error for unknown name")
	}
}
