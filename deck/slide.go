// Package deck assembles ordered slide specifications of a worship service
// from a service plan.
package deck

import (
	"fmt"

	"svcdeck/layout"
)

// SlotText places text into layout placeholder.
type SlotText struct {
	Slot int
	Text string
}

// SlideSpec fully describes one slide. Specs are values, nothing modifies them
// after creation.
type SlideSpec struct {
	Kind   layout.Kind
	Layout layout.Ref
	Texts  []SlotText
}

// Text returns text for slot and whether slot is filled.
func (s SlideSpec) Text(slot int) (string, bool) {
	for _, t := range s.Texts {
		if t.Slot == slot {
			return t.Text, true
		}
	}
	return "", false
}

func (s SlideSpec) String() string {
	return fmt.Sprintf("%s (%s, %d texts)", s.Kind, s.Layout, len(s.Texts))
}

// newSlide resolves kind and checks every slot against layout.
func newSlide(kind layout.Kind, texts ...SlotText) (SlideSpec, error) {
	ref, err := layout.Resolve(kind)
	if err != nil {
		return SlideSpec{}, err
	}
	for _, t := range texts {
		if !ref.HasSlot(t.Slot) {
			return SlideSpec{}, fmt.Errorf("%w: %s slot %d", layout.ErrInvalidSlot, kind, t.Slot)
		}
	}
	return SlideSpec{Kind: kind, Layout: ref, Texts: texts}, nil
}

func slot(idx int, text string) SlotText {
	return SlotText{Slot: idx, Text: text}
}
