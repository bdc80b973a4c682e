// Package browsertest provides a scripted browser.Page for tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xsolare/trip-scheduler-scraper/internal/browser"
)

// Selectors tells the fake which selectors play which role.
type Selectors struct {
	Cards   string
	Next    string
	Captcha string
	Consent string
}

// Listing is the scripted state of one results page.
type Listing struct {
	Cards []browser.RawCard
	// CardsNeverAppear makes every wait for the card grid time out.
	CardsNeverAppear bool
	HasNext          bool
	// CaptchaProbes is how many consecutive captcha probes report a challenge.
	CaptchaProbes int
}

// Page walks through Listings as the next control is clicked.
type Page struct {
	mu sync.Mutex

	sel      Selectors
	listings []Listing
	current  int
	released bool

	NavigateErr error

	Navigations []string
	Moves       int
	Clicks      int
	Scrolled    float64
	Screenshots []string
	Consented   bool
	Closed      bool
}

var _ browser.Page = (*Page)(nil)

// New returns a fake positioned on the first listing.
func New(sel Selectors, listings ...Listing) *Page {
	return &Page{sel: sel, listings: listings}
}

// Current returns the zero-based index of the listing being shown.
func (p *Page) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Page) listing() *Listing {
	if p.current < len(p.listings) {
		return &p.listings[p.current]
	}
	return &Listing{CardsNeverAppear: true}
}

func (p *Page) Navigate(ctx context.Context, url string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Navigations = append(p.Navigations, url)
	if p.NavigateErr != nil {
		return p.NavigateErr
	}
	return ctx.Err()
}

func (p *Page) ExpectNavigation(ctx context.Context, _ time.Duration) func() error {
	return func() error {
		p.mu.Lock()
		defer p.mu.Unlock()
		if !p.released {
			return browser.ErrTimeout
		}
		p.released = false
		p.current++
		return ctx.Err()
	}
}

func (p *Page) WaitVisible(ctx context.Context, selector string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if selector == p.sel.Cards && !p.listing().CardsNeverAppear {
		return nil
	}
	return fmt.Errorf("%w: %s", browser.ErrTimeout, selector)
}

func (p *Page) Visible(_ context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return selector == p.sel.Next && p.listing().HasNext, nil
}

func (p *Page) Has(_ context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l := p.listing()
	switch {
	case selector == p.sel.Captcha && l.CaptchaProbes > 0:
		l.CaptchaProbes--
		return true, nil
	case p.sel.Consent != "" && selector == p.sel.Consent:
		return !p.Consented, nil
	}
	return selector == p.sel.Next && l.HasNext, nil
}

func (p *Page) BoundingBox(_ context.Context, selector string) (browser.Box, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if selector == p.sel.Next && p.listing().HasNext {
		return browser.Box{X: 600, Y: 700, Width: 40, Height: 40}, nil
	}
	return browser.Box{}, fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
}

func (p *Page) Click(_ context.Context, selector string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sel.Consent != "" && selector == p.sel.Consent && !p.Consented {
		p.Consented = true
		return nil
	}
	return fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
}

func (p *Page) Viewport() (int, int) { return 1366, 768 }

func (p *Page) MouseMove(ctx context.Context, _ browser.Point, _ int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Moves++
	return ctx.Err()
}

func (p *Page) MouseDown(ctx context.Context) error { return ctx.Err() }

func (p *Page) MouseUp(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Clicks++
	p.released = true
	return ctx.Err()
}

func (p *Page) ScrollHeight(context.Context) (float64, error) { return 1000, nil }

func (p *Page) ScrollBy(_ context.Context, dy float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Scrolled += dy
	return nil
}

func (p *Page) ExtractCards(context.Context, browser.CardSelectors) ([]browser.RawCard, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l := p.listing()
	if l.CardsNeverAppear {
		return nil, nil
	}
	return append([]browser.RawCard(nil), l.Cards...), nil
}

func (p *Page) Screenshot(_ context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Screenshots = append(p.Screenshots, path)
	return nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}
