// Package lyrics splits song lyrics into slide sized groups and retrieves
// lyrics for songs.
package lyrics

import (
	"strings"
)

// Group is the content of one lyric slide: one or two lines, or none for a
// blank slide.
type Group struct {
	Lines []string
}

// Blank reports whether group is a blank slide marker.
func (g Group) Blank() bool {
	return len(g.Lines) == 0
}

// Text returns lines joined for placement on a slide.
func (g Group) Text() string {
	return strings.Join(g.Lines, "\n")
}

// State of the segmentation machine between lines.
type State int

const (
	// Nothing buffered, previous slide (if any) had two lines or was blank.
	StateEmptyAfterPairOrNone State = iota
	// Nothing buffered, previous slide had a single line.
	StateEmptyAfterSingle
	// One line waiting for its pair.
	StateBuffered
)

func (s State) String() string {
	switch s {
	case StateEmptyAfterPairOrNone:
		return "empty"
	case StateEmptyAfterSingle:
		return "empty-after-single"
	case StateBuffered:
		return "buffered"
	default:
		return "unknown"
	}
}

// Segmenter is a line by line state machine turning lyrics into slides:
//
//   - lines are paired, every second line completes a two line slide;
//   - blank line after a single buffered line turns it into one line slide
//     and produces nothing else;
//   - blank line right after a one line slide is swallowed;
//   - any other blank line becomes a blank slide.
type Segmenter struct {
	state   State
	pending string
	out     []Group
}

// State returns current machine state.
func (s *Segmenter) State() State {
	return s.state
}

// Feed advances machine by one input line.
func (s *Segmenter) Feed(line string) {
	line = strings.TrimSpace(line)

	if len(line) > 0 {
		if s.state == StateBuffered {
			s.emit(s.pending, line)
			s.pending = ""
			s.state = StateEmptyAfterPairOrNone
			return
		}
		s.pending = line
		s.state = StateBuffered
		return
	}

	switch s.state {
	case StateBuffered:
		s.emit(s.pending)
		s.pending = ""
		s.state = StateEmptyAfterSingle
	case StateEmptyAfterSingle:
		// absorbed
	default:
		s.emit()
	}
}

// Finish flushes buffered line and returns all groups produced so far.
// Machine is reset and may be reused.
func (s *Segmenter) Finish() []Group {
	if s.state == StateBuffered {
		s.emit(s.pending)
	}
	out := s.out
	*s = Segmenter{}
	return out
}

func (s *Segmenter) emit(lines ...string) {
	s.out = append(s.out, Group{Lines: lines})
}

// Segment splits lyrics into slide groups. Empty or whitespace only lyrics
// produce no groups.
func Segment(text string) []Group {
	text = NormalizeNewlines(text)
	if len(strings.TrimSpace(text)) == 0 {
		return nil
	}

	var s Segmenter
	for line := range strings.SplitSeq(text, "\n") {
		s.Feed(line)
	}
	return s.Finish()
}

// NormalizeNewlines converts CRLF and CR line endings to LF.
func NormalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
