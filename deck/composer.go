package deck

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"svcdeck/layout"
	"svcdeck/lyrics"
	"svcdeck/plan"
	"svcdeck/scripture"
)

// VerseSource provides exactly end-start+1 verse bodies for a chapter range.
type VerseSource interface {
	Verses(book string, chapter, start, end int) ([]string, error)
}

// Labels are fixed texts of the service.
type Labels struct {
	ServiceDateLayout string
	SermonSpeaker     string
	DefaultPrayer     string
	Praise            string
	Offering          string
	Closing           string
}

func DefaultLabels() Labels {
	return Labels{
		ServiceDateLayout: "2006.01.02 주일 예배",
		SermonSpeaker:     "말씀 | 박성준 전도사님",
		DefaultPrayer:     "기도 | ",
		Praise:            "Praise",
		Offering:          "Offering",
		Closing:           "Closing",
	}
}

// Composer turns service plan into ordered slide specifications. It keeps no
// state between calls and may be used concurrently as long as its
// VerseSource allows it.
type Composer struct {
	verses VerseSource
	labels Labels
	strict bool
	log    *zap.Logger
}

type Option func(*Composer)

func WithLabels(l Labels) Option {
	return func(c *Composer) { c.labels = l }
}

// WithStrict makes layout contract violations panic instead of being logged
// and skipped.
func WithStrict(strict bool) Option {
	return func(c *Composer) { c.strict = strict }
}

func NewComposer(verses VerseSource, log *zap.Logger, opts ...Option) *Composer {
	c := &Composer{
		verses: verses,
		labels: DefaultLabels(),
		log:    log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// assembly accumulates slides of a single Compose call.
type assembly struct {
	*Composer
	slides []SlideSpec
}

func (a *assembly) add(kind layout.Kind, texts ...SlotText) {
	s, err := newSlide(kind, texts...)
	if err != nil {
		if a.strict {
			panic(err)
		}
		a.log.Error("Slide skipped", zap.Stringer("kind", kind), zap.Error(err))
		return
	}
	a.slides = append(a.slides, s)
}

// Compose builds the deck. serviceDate labels preview slide. Problems with a
// single song or phrase never stop assembly, only context cancellation does.
func (c *Composer) Compose(ctx context.Context, p *plan.ServicePlan, serviceDate time.Time) ([]SlideSpec, error) {
	a := &assembly{Composer: c}

	firstPhrase := ""
	if len(p.SermonPhrases) > 0 {
		firstPhrase = p.SermonPhrases[0]
	}

	// opening, preview and apostles' creed
	a.add(layout.KindGreetings)
	a.add(layout.KindPreview,
		slot(layout.SlotMain, serviceDate.Format(c.labels.ServiceDateLayout)),
		slot(layout.SlotSecond, p.SermonTitle),
		slot(layout.SlotSubtitle, firstPhrase))
	a.add(layout.KindContactUs)
	a.add(layout.KindWhitePrayer)
	a.add(layout.KindApostlesCreed)
	a.add(layout.KindApostlesCreed1)
	a.add(layout.KindApostlesCreed2)

	// praise
	a.add(layout.KindWorshipBackground)
	a.add(layout.KindWorshipIntro)
	for i := range p.Songs.Praise {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a.addSong(c.labels.Praise, &p.Songs.Praise[i])
	}

	a.add(layout.KindBlackPrayer)
	prayer := p.Prayer
	if len(prayer) == 0 {
		prayer = c.labels.DefaultPrayer
	}
	a.add(layout.KindPrayer, slot(layout.SlotMain, prayer))

	// offering
	a.add(layout.KindOffering)
	if p.Songs.Offering != nil {
		a.addSong(c.labels.Offering, p.Songs.Offering)
	}
	a.add(layout.KindOfferingPrayer)
	a.add(layout.KindWhiteAnnounce)

	// sermon and scripture
	if len(p.SermonPhrases) > 0 {
		sermonTitle := []SlotText{
			slot(layout.SlotMain, c.labels.SermonSpeaker),
			slot(layout.SlotSecond, p.SermonTitle),
			slot(layout.SlotSubtitle, firstPhrase),
		}
		a.add(layout.KindSermonTitle, sermonTitle...)
		for _, phrase := range p.SermonPhrases {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if a.addScripture(phrase) {
				a.add(layout.KindSermonTitle, sermonTitle...)
			}
		}
	}

	if p.Songs.Closing != nil {
		a.addSong(c.labels.Closing, p.Songs.Closing)
	}

	a.add(layout.KindLordsPrayer)
	a.add(layout.KindLordsPrayer1)
	a.add(layout.KindLordsPrayer2)

	c.log.Debug("Deck composed", zap.Int("slides", len(a.slides)), zap.Int("praise", len(p.Songs.Praise)), zap.Int("phrases", len(p.SermonPhrases)))
	return a.slides, nil
}

// addSong emits title slide followed by lyric slides.
func (a *assembly) addSong(label string, song *plan.Song) {
	a.add(layout.KindSongTitle,
		slot(layout.SlotMain, song.CleanTitle()),
		slot(layout.SlotSecond, label))

	for _, g := range lyrics.Segment(song.Lyrics) {
		if g.Blank() {
			a.add(layout.KindLyric)
			continue
		}
		a.add(layout.KindLyric, slot(layout.SlotMain, g.Text()))
	}
}

// addScripture emits one slide per verse of the phrase. It returns false when
// phrase was skipped.
func (a *assembly) addScripture(phrase string) bool {
	r, ok := scripture.Parse(phrase)
	if !ok {
		a.log.Debug("Phrase is not a scripture reference, skipping", zap.String("phrase", phrase))
		return false
	}
	if !scripture.KnownBook(r.Book) {
		a.log.Debug("Book is not in the canon, corpus file named after it is used", zap.String("book", r.Book))
	}

	verses, err := a.verses.Verses(r.Book, r.Chapter, r.StartVerse, r.EndVerse)
	if err == nil && len(verses) != r.Len() {
		err = fmt.Errorf("verse source returned %d verses for %s", len(verses), r)
	}
	if err != nil {
		a.log.Error("Unable to read scripture, skipping phrase", zap.String("phrase", phrase), zap.Error(err))
		return false
	}

	for i, body := range verses {
		a.add(layout.KindScriptureVerse,
			slot(layout.SlotMain, body),
			slot(layout.SlotSecond, r.VerseLabel(r.StartVerse+i)))
	}
	return true
}
