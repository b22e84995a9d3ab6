// Package scripture parses scripture references and reads verses from the
// flat per-book corpus.
package scripture

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrNotAReference is returned by ParseStrict for phrases which are not
// scripture references. It is not a failure, such phrases are simply skipped.
var ErrNotAReference = errors.New("not a scripture reference")

// Longest book (Psalms) and longest chapter (Psalm 119) of the canon.
const (
	MaxChapter = 150
	MaxVerse   = 176
)

// Range is a contiguous range of verses inside a single chapter.
type Range struct {
	Book       string
	Chapter    int
	StartVerse int
	EndVerse   int
}

// Len returns number of verses in range.
func (r Range) Len() int {
	return r.EndVerse - r.StartVerse + 1
}

func (r Range) String() string {
	if r.StartVerse == r.EndVerse {
		return fmt.Sprintf("%s %d장 %d절", r.Book, r.Chapter, r.StartVerse)
	}
	return fmt.Sprintf("%s %d장 %d-%d절", r.Book, r.Chapter, r.StartVerse, r.EndVerse)
}

// VerseLabel returns caption for a single verse of the range.
func (r Range) VerseLabel(verse int) string {
	return fmt.Sprintf("%s %d장 %d절", r.Book, r.Chapter, verse)
}

// "<book> <chapter>장 <start>[-<end>]절", whole phrase must match.
var referenceRe = regexp.MustCompile(`^\s*(.+?)\s*(\d+)\s*장\s*(\d+)(?:\s*-\s*(\d+))?\s*절\s*$`)

// Parse recognizes phrases like "요한복음 3장 16-18절". The second result is
// false when phrase is not a reference or describes impossible range (zero
// chapter or verse, start after end, numbers past MaxChapter or MaxVerse).
func Parse(phrase string) (Range, bool) {
	m := referenceRe.FindStringSubmatch(phrase)
	if m == nil {
		return Range{}, false
	}

	r := Range{Book: strings.TrimSpace(m[1])}
	if len(r.Book) == 0 {
		return Range{}, false
	}

	var err error
	if r.Chapter, err = strconv.Atoi(m[2]); err != nil {
		return Range{}, false
	}
	if r.StartVerse, err = strconv.Atoi(m[3]); err != nil {
		return Range{}, false
	}
	r.EndVerse = r.StartVerse
	if len(m[4]) > 0 {
		if r.EndVerse, err = strconv.Atoi(m[4]); err != nil {
			return Range{}, false
		}
	}

	if !validRange(r.Chapter, r.StartVerse, r.EndVerse) {
		return Range{}, false
	}
	return r, true
}

func validRange(chapter, start, end int) bool {
	return chapter >= 1 && chapter <= MaxChapter &&
		start >= 1 && start <= end && end <= MaxVerse
}

// ParseStrict is Parse returning ErrNotAReference instead of a flag.
func ParseStrict(phrase string) (Range, error) {
	r, ok := Parse(phrase)
	if !ok {
		return Range{}, fmt.Errorf("%w: %q", ErrNotAReference, phrase)
	}
	return r, nil
}
