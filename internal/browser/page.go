// Package browser is the boundary between the scraper and a headless browser.
// Session logic talks to Page; the go-rod implementation lives in rod.go.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout is returned when a bounded wait elapses.
	ErrTimeout = errors.New("browser wait timed out")

	// ErrNotFound is returned when a selector matches nothing.
	ErrNotFound = errors.New("element not found")
)

// Point is a viewport coordinate in CSS pixels.
type Point struct {
	X, Y float64
}

// Box is an element's bounding rectangle.
type Box struct {
	X, Y, Width, Height float64
}

// Center returns the middle of the box.
func (b Box) Center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// CardSelectors describes where the fields of one listing card live. It is the
// request half of the in-page extraction boundary.
type CardSelectors struct {
	Card  string `json:"card"`
	Link  string `json:"link"`
	Title string `json:"title"`
	Image string `json:"image"`
}

// RawCard is what the in-page extraction returns for a single card. Nothing in
// it is trusted until it has been mapped and validated on the host.
type RawCard struct {
	Title  string `json:"title"`
	Href   string `json:"href"`
	Src    string `json:"src"`
	Srcset string `json:"srcset"`
}

// Page is a single browser tab driven by the session controller.
type Page interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// ExpectNavigation arms a wait for the next DOMContentLoaded. Call the
	// returned function after triggering the navigation.
	ExpectNavigation(ctx context.Context, timeout time.Duration) func() error

	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Visible(ctx context.Context, selector string) (bool, error)
	Has(ctx context.Context, selector string) (bool, error)
	BoundingBox(ctx context.Context, selector string) (Box, error)
	Click(ctx context.Context, selector string, timeout time.Duration) error

	Viewport() (width, height int)
	MouseMove(ctx context.Context, to Point, steps int) error
	MouseDown(ctx context.Context) error
	MouseUp(ctx context.Context) error
	ScrollHeight(ctx context.Context) (float64, error)
	ScrollBy(ctx context.Context, dy float64) error

	ExtractCards(ctx context.Context, sel CardSelectors) ([]RawCard, error)
	Screenshot(ctx context.Context, path string) error

	Close() error
}
