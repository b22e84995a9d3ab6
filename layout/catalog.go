// Package layout maps semantic slide kinds to the slide masters and layouts of
// the service template.
package layout

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrUnknownLayoutKind = errors.New("unknown layout kind")
	ErrInvalidSlot       = errors.New("slot is not exposed by layout")
)

// Kind is a semantic slide kind.
type Kind int

const (
	KindGreetings Kind = iota
	KindPreview
	KindContactUs
	KindWhitePrayer
	KindApostlesCreed
	KindApostlesCreed1
	KindApostlesCreed2
	KindOfferingPrayer
	KindWhiteAnnounce
	KindSermonTitle
	KindScriptureVerse
	KindWorshipBackground
	KindWorshipIntro
	KindSongTitle
	KindLyric
	KindBlackPrayer
	KindOffering
	KindLordsPrayer
	KindLordsPrayer1
	KindLordsPrayer2
	KindPrayer
)

// Placeholder indexes used by the template.
const (
	SlotMain     = 10
	SlotSecond   = 11
	SlotSubtitle = 12
)

// Ref points to a layout inside presentation template.
type Ref struct {
	Master int
	Layout int
	Slots  []int
}

// HasSlot reports whether layout exposes placeholder with index idx.
func (r Ref) HasSlot(idx int) bool {
	return slices.Contains(r.Slots, idx)
}

func (r Ref) String() string {
	return fmt.Sprintf("master %d layout %d", r.Master, r.Layout)
}

type definition struct {
	name string
	ref  Ref
}

var catalog = map[Kind]definition{
	KindGreetings:         {"greetings", Ref{Master: 0, Layout: 0}},
	KindPreview:           {"preview", Ref{Master: 0, Layout: 1, Slots: []int{SlotMain, SlotSecond, SlotSubtitle}}},
	KindContactUs:         {"contact-us", Ref{Master: 0, Layout: 2}},
	KindWhitePrayer:       {"white-prayer", Ref{Master: 0, Layout: 5}},
	KindApostlesCreed:     {"apostles-creed", Ref{Master: 0, Layout: 6}},
	KindApostlesCreed1:    {"apostles-creed-1", Ref{Master: 0, Layout: 7}},
	KindApostlesCreed2:    {"apostles-creed-2", Ref{Master: 0, Layout: 8}},
	KindOfferingPrayer:    {"offering-prayer", Ref{Master: 0, Layout: 9}},
	KindWhiteAnnounce:     {"white-announce", Ref{Master: 0, Layout: 10}},
	KindSermonTitle:       {"sermon-title", Ref{Master: 0, Layout: 11, Slots: []int{SlotMain, SlotSecond, SlotSubtitle}}},
	KindScriptureVerse:    {"scripture-verse", Ref{Master: 0, Layout: 12, Slots: []int{SlotMain, SlotSecond}}},
	KindWorshipBackground: {"worship-background", Ref{Master: 1, Layout: 0}},
	KindWorshipIntro:      {"worship-intro", Ref{Master: 1, Layout: 1}},
	KindSongTitle:         {"song-title", Ref{Master: 1, Layout: 2, Slots: []int{SlotMain, SlotSecond}}},
	KindLyric:             {"lyric", Ref{Master: 1, Layout: 3, Slots: []int{SlotMain}}},
	KindBlackPrayer:       {"black-prayer", Ref{Master: 1, Layout: 4}},
	KindOffering:          {"offering", Ref{Master: 1, Layout: 5}},
	KindLordsPrayer:       {"lords-prayer", Ref{Master: 1, Layout: 6}},
	KindLordsPrayer1:      {"lords-prayer-1", Ref{Master: 1, Layout: 7}},
	KindLordsPrayer2:      {"lords-prayer-2", Ref{Master: 1, Layout: 8}},
	KindPrayer:            {"prayer", Ref{Master: 1, Layout: 9, Slots: []int{SlotMain}}},
}

// Resolve returns template layout for slide kind. Returned Ref shares nothing
// with the catalog.
func Resolve(kind Kind) (Ref, error) {
	def, ok := catalog[kind]
	if !ok {
		return Ref{}, fmt.Errorf("%w: %d", ErrUnknownLayoutKind, int(kind))
	}
	ref := def.ref
	ref.Slots = slices.Clone(def.ref.Slots)
	return ref, nil
}

// Kinds returns all catalog kinds in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(catalog))
	for k := range catalog {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

func (k Kind) String() string {
	if def, ok := catalog[k]; ok {
		return def.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsValid reports whether kind is defined in the catalog.
func (k Kind) IsValid() bool {
	_, ok := catalog[k]
	return ok
}

// ParseKind converts name produced by String back to Kind.
func ParseKind(name string) (Kind, error) {
	for k, def := range catalog {
		if def.name == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLayoutKind, name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLayoutKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	v, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
