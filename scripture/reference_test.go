package scripture

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		phrase string
		want   Range
		ok     bool
	}{
		{"John 3장 16-18절", Range{"John", 3, 16, 18}, true},
		{"요한복음 3장 16절", Range{"요한복음", 3, 16, 16}, true},
		{"  요한복음3장16절  ", Range{"요한복음", 3, 16, 16}, true},
		{"사무엘상 17 장 45 - 47 절", Range{"사무엘상", 17, 45, 47}, true},
		{"요한 일서 1장 9절", Range{"요한 일서", 1, 9, 9}, true},
		{"시편 23장 1-6절", Range{"시편", 23, 1, 6}, true},
		{"not a reference", Range{}, false},
		{"", Range{}, false},
		{"광고", Range{}, false},
		{"요한복음 3장", Range{}, false},
		{"요한복음 3장 16절 말씀", Range{}, false},
		{"오늘 본문은 요한복음 3장 16절", Range{"오늘 본문은 요한복음", 3, 16, 16}, true},
		{"3장 16절", Range{}, false},
		{"요한복음 0장 1절", Range{}, false},
		{"요한복음 3장 0절", Range{}, false},
		{"요한복음 3장 18-16절", Range{}, false},
		{"요한복음 3장 16-절", Range{}, false},
		{"시편 150장 1-6절", Range{"시편", 150, 1, 6}, true},
		{"시편 119장 176절", Range{"시편", 119, 176, 176}, true},
		{"시편 151장 1절", Range{}, false},
		{"시편 119장 170-177절", Range{}, false},
		{"요한복음 3장 1-9223372036854775807절", Range{}, false},
		{"요한복음 3장 1-99999999999999999999절", Range{}, false},
		{"요한복음 99999999장 1절", Range{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			got, ok := Parse(tt.phrase)
			if ok != tt.ok {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.phrase, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.phrase, got, tt.want)
			}
			if ok && got.StartVerse > got.EndVerse {
				t.Errorf("Parse(%q) produced inverted range %+v", tt.phrase, got)
			}
		})
	}
}

func TestParseStrict(t *testing.T) {
	if _, err := ParseStrict("not a reference"); !errors.Is(err, ErrNotAReference) {
		t.Errorf("ParseStrict() error = %v, want ErrNotAReference", err)
	}
	r, err := ParseStrict("John 3장 16-18절")
	if err != nil {
		t.Fatalf("ParseStrict() error = %v", err)
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}
}

func TestRangeLabels(t *testing.T) {
	r := Range{Book: "요한복음", Chapter: 3, StartVerse: 16, EndVerse: 17}
	if got := r.String(); got != "요한복음 3장 16-17절" {
		t.Errorf("String() = %q", got)
	}
	if got := r.VerseLabel(17); got != "요한복음 3장 17절" {
		t.Errorf("VerseLabel() = %q", got)
	}
	single := Range{Book: "시편", Chapter: 23, StartVerse: 1, EndVerse: 1}
	if got := single.String(); got != "시편 23장 1절" {
		t.Errorf("String() = %q", got)
	}
}

func TestBooks(t *testing.T) {
	if len(books) != 66 {
		t.Errorf("book table has %d entries, want 66", len(books))
	}
	seen := make(map[string]bool)
	for _, b := range books {
		if seen[b.Name] {
			t.Errorf("duplicate book %q", b.Name)
		}
		seen[b.Name] = true
	}
	if got := Abbrev("요한복음"); got != "요" {
		t.Errorf("Abbrev(요한복음) = %q, want 요", got)
	}
	if got := Abbrev("Unknown"); got != "Unknown" {
		t.Errorf("Abbrev(Unknown) = %q, want name itself", got)
	}
	if !KnownBook("창세기") || KnownBook("John") {
		t.Error("KnownBook() misclassifies books")
	}
}
