package scripture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// ErrCorpusFileMissing classifies absent per-book source. Corpus degrades to
// placeholder verses in this case.
var ErrCorpusFileMissing = errors.New("corpus file missing")

// ErrInvalidRange is returned for chapter and verse numbers no book has.
var ErrInvalidRange = errors.New("invalid verse range")

const DefaultPlaceholder = "(성경 파일 없음)"

// Verse is a single corpus entry.
type Verse struct {
	Chapter int
	Number  int
	Body    string
}

// Corpus reads verses from a directory with one "<book>.txt" file per book.
// Files are read-only for the lifetime of Corpus, so it is safe for
// concurrent use.
type Corpus struct {
	root        string
	enc         encoding.Encoding
	placeholder string
	log         *zap.Logger

	cache  bool
	mu     sync.RWMutex
	lines  map[string][]Verse
	loader singleflight.Group
}

// Option configures Corpus.
type Option func(*Corpus)

// WithEncoding sets source files character set, nil means UTF-8.
func WithEncoding(enc encoding.Encoding) Option {
	return func(c *Corpus) { c.enc = enc }
}

// WithPlaceholder sets text used for every verse of a book which has no
// source file.
func WithPlaceholder(text string) Option {
	return func(c *Corpus) { c.placeholder = text }
}

// WithCache makes corpus parse every book file once and keep it in memory.
func WithCache() Option {
	return func(c *Corpus) { c.cache = true }
}

func NewCorpus(root string, log *zap.Logger, opts ...Option) *Corpus {
	c := &Corpus{
		root:        root,
		placeholder: DefaultPlaceholder,
		log:         log,
		lines:       make(map[string][]Verse),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// LookupEncoding resolves IANA character set name.
func LookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown corpus encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported corpus encoding %q", name)
	}
	return enc, nil
}

// Verses returns bodies of verses start..end of the chapter, always exactly
// end-start+1 of them. Verses absent from the corpus are empty strings. When
// book has no source file every entry is placeholder text.
func (c *Corpus) Verses(bookName string, chapter, start, end int) ([]string, error) {
	if !validRange(chapter, start, end) {
		return nil, fmt.Errorf("%w: %d:%d-%d", ErrInvalidRange, chapter, start, end)
	}
	need := end - start + 1

	verses, err := c.Range(bookName, chapter, start, end)
	if errors.Is(err, ErrCorpusFileMissing) {
		c.log.Warn("Scripture source not found, using placeholders", zap.String("book", bookName), zap.Error(err))
		out := make([]string, need)
		for i := range out {
			out[i] = c.placeholder
		}
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, need)
	for _, v := range verses {
		out = append(out, v.Body)
	}
	for len(out) < need {
		out = append(out, "")
	}
	return out[:need], nil
}

// Range returns verses start..end of the chapter in file order, only those
// present in the corpus.
//
// Scan is single pass: it stops at the first verse of the chapter numbered
// past end. Corpus files keep verses ascending within a chapter; were it not
// so, verses after the stop point would be lost.
func (c *Corpus) Range(bookName string, chapter, start, end int) ([]Verse, error) {
	var result []Verse
	collect := func(v Verse) bool {
		if v.Chapter != chapter {
			return true
		}
		if start <= v.Number && v.Number <= end {
			result = append(result, v)
		}
		return v.Number <= end
	}

	if !c.cache {
		return result, c.scan(bookName, collect)
	}

	lines, err := c.cachedLines(bookName)
	if err != nil {
		return nil, err
	}
	for _, v := range lines {
		if !collect(v) {
			break
		}
	}
	return result, nil
}

func (c *Corpus) cachedLines(bookName string) ([]Verse, error) {
	c.mu.RLock()
	lines, ok := c.lines[bookName]
	c.mu.RUnlock()
	if ok {
		return lines, nil
	}

	v, err, _ := c.loader.Do(bookName, func() (any, error) {
		var all []Verse
		if err := c.scan(bookName, func(v Verse) bool {
			all = append(all, v)
			return true
		}); err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.lines[bookName] = all
		c.mu.Unlock()
		c.log.Debug("Scripture book indexed", zap.String("book", bookName), zap.Int("verses", len(all)))
		return all, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Verse), nil
}

// scan feeds every verse line of the book to fn until it returns false.
func (c *Corpus) scan(bookName string, fn func(Verse) bool) error {
	f, err := os.Open(c.path(bookName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrCorpusFileMissing, bookName)
		}
		return fmt.Errorf("unable to open scripture source: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if c.enc != nil {
		r = transform.NewReader(f, c.enc.NewDecoder())
	}

	lineRe := verseLineRe(Abbrev(bookName))

	// lines have no length limit
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			if v, ok := parseVerseLine(lineRe, line); ok && !fn(v) {
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("unable to read scripture source for %s: %w", bookName, err)
		}
	}
}

func (c *Corpus) path(bookName string) string {
	// book names come from user input
	return filepath.Join(c.root, filepath.Base(filepath.Clean("/"+bookName))+".txt")
}

var annotationRe = regexp.MustCompile(`<[^>]*>`)

func verseLineRe(abbrev string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(abbrev) + `\s*(\d+)\s*:\s*(\d+)\s+(.*)$`)
}

func parseVerseLine(re *regexp.Regexp, line string) (Verse, bool) {
	line = strings.TrimSpace(line)
	if len(line) == 0 {
		return Verse{}, false
	}
	m := re.FindStringSubmatch(line)
	if m == nil {
		return Verse{}, false
	}
	ch, err := strconv.Atoi(m[1])
	if err != nil {
		return Verse{}, false
	}
	num, err := strconv.Atoi(m[2])
	if err != nil {
		return Verse{}, false
	}
	body := strings.TrimSpace(annotationRe.ReplaceAllString(strings.TrimSpace(m[3]), ""))
	return Verse{Chapter: ch, Number: num, Body: body}, true
}
