package lyrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Markers stored in place of lyrics when fetching does not produce them.
const (
	MarkerNotFound    = "(가사를 찾지 못했습니다)"
	MarkerEmpty       = "(가사 비어있음)"
	MarkerParseFailed = "(가사 파싱 실패)"
	markerFailed      = "(크롤링 실패: %v)"
)

const (
	DefaultHomeURL = "https://www.melon.com/"
	DefaultTimeout = 30 * time.Second

	selSearchBox    = "#top_search"
	selSearchButton = "button.btn_icon.search_m"
	selFirstDetail  = ".btn.btn_icon_detail"
	selMoreLyrics   = ".button_more.arrow_d"
	selLyrics       = "#d_video_summary"
)

// Query identifies a song to look up.
type Query struct {
	Title  string
	Artist string
}

// terms returns search terms in order of preference: "title artist", then
// title alone.
func (q Query) terms() []string {
	title := strings.TrimSpace(q.Title)
	full := strings.TrimSpace(title + " " + strings.TrimSpace(q.Artist))
	if full == title {
		return []string{title}
	}
	return []string{full, title}
}

// site is a lyrics web site opened in a browser tab.
type site interface {
	// home resets tab to the site home page.
	home(ctx context.Context) error
	// open searches for term and opens lyrics of the first result. It returns
	// false when nothing suitable was found.
	open(ctx context.Context, term string) (bool, error)
	// extract returns text of opened lyrics.
	extract(ctx context.Context) (string, error)
}

// fetchAll looks up every query using single tab returning to the home page
// between songs. Result has one entry per query, queries with empty title
// yield empty lyrics.
func fetchAll(ctx context.Context, s site, queries []Query, log *zap.Logger) ([]string, error) {
	out := make([]string, len(queries))
	if err := s.home(ctx); err != nil {
		return nil, fmt.Errorf("unable to open lyrics site: %w", err)
	}

	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(strings.TrimSpace(q.Title)) == 0 {
			continue
		}

		out[i] = fetchOne(ctx, s, q)
		log.Debug("Lyrics fetched", zap.String("title", q.Title), zap.String("artist", q.Artist), zap.Int("length", len(out[i])))

		if err := s.home(ctx); err != nil {
			log.Warn("Unable to return to lyrics site home page", zap.Error(err))
		}
	}
	return out, nil
}

func fetchOne(ctx context.Context, s site, q Query) string {
	for _, term := range q.terms() {
		found, err := s.open(ctx, term)
		if err != nil {
			return fmt.Sprintf(markerFailed, err)
		}
		if !found {
			continue
		}
		text, err := s.extract(ctx)
		if err != nil {
			return MarkerParseFailed
		}
		if text = strings.TrimSpace(text); len(text) == 0 {
			return MarkerEmpty
		}
		return text
	}
	return MarkerNotFound
}

// MelonFetcher looks lyrics up on Melon driving headless Chromium.
type MelonFetcher struct {
	bin      string
	headless bool
	homeURL  string
	timeout  time.Duration
	log      *zap.Logger
}

type MelonOption func(*MelonFetcher)

// WithBrowser sets Chromium binary, empty path lets launcher find (or
// download) one.
func WithBrowser(bin string, headless bool) MelonOption {
	return func(f *MelonFetcher) {
		f.bin, f.headless = bin, headless
	}
}

func WithHomeURL(u string) MelonOption {
	return func(f *MelonFetcher) { f.homeURL = u }
}

// WithTimeout limits every page operation.
func WithTimeout(d time.Duration) MelonOption {
	return func(f *MelonFetcher) { f.timeout = d }
}

func NewMelonFetcher(log *zap.Logger, opts ...MelonOption) *MelonFetcher {
	f := &MelonFetcher{
		headless: true,
		homeURL:  DefaultHomeURL,
		timeout:  DefaultTimeout,
		log:      log.Named("lyrics"),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch looks up single song.
func (f *MelonFetcher) Fetch(ctx context.Context, q Query) (string, error) {
	res, err := f.FetchBatch(ctx, []Query{q})
	if err != nil {
		return "", err
	}
	return res[0], nil
}

// FetchBatch looks up all songs in one browser session.
func (f *MelonFetcher) FetchBatch(ctx context.Context, queries []Query) ([]string, error) {
	l := launcher.New().Context(ctx).Headless(f.headless).NoSandbox(true).
		Set("disable-dev-shm-usage").Set("disable-gpu").Set("window-size", "1280,900")
	if len(f.bin) > 0 {
		l = l.Bin(f.bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("unable to launch browser: %w", err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("unable to connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("unable to open browser page: %w", err)
	}

	f.log.Info("Fetching lyrics", zap.Int("songs", len(queries)), zap.String("site", f.homeURL))
	defer func(start time.Time) {
		f.log.Info("Lyrics fetching completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return fetchAll(ctx, &melon{page: page, homeURL: f.homeURL, timeout: f.timeout}, queries, f.log)
}

// melon is Melon web site in a rod page.
type melon struct {
	page    *rod.Page
	homeURL string
	timeout time.Duration
}

// probe is time given to elements which may legitimately be absent.
func (m *melon) probe() time.Duration {
	return m.timeout / 3
}

func (m *melon) home(ctx context.Context) error {
	p := m.page.Context(ctx).Timeout(m.timeout)
	if err := p.Navigate(m.homeURL); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (m *melon) open(ctx context.Context, term string) (bool, error) {
	p := m.page.Context(ctx).Timeout(m.timeout)

	search, err := p.Element(selSearchBox)
	if err != nil {
		return false, fmt.Errorf("search box: %w", err)
	}
	if err := search.SelectAllText(); err != nil {
		return false, err
	}
	if err := search.Input(term); err != nil {
		return false, err
	}
	button, err := p.Element(selSearchButton)
	if err != nil {
		return false, fmt.Errorf("search button: %w", err)
	}
	if err := button.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, err
	}
	if err := p.WaitLoad(); err != nil {
		return false, err
	}

	for _, sel := range []string{selFirstDetail, selMoreLyrics} {
		el, err := p.Timeout(m.probe()).Element(sel)
		if err != nil {
			return false, nil
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return false, nil
		}
		_ = p.WaitLoad()
	}
	return true, nil
}

func (m *melon) extract(ctx context.Context) (string, error) {
	el, err := m.page.Context(ctx).Timeout(m.probe()).Element(selLyrics)
	if err != nil {
		return "", err
	}
	return el.Text()
}
