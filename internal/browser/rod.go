package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// LaunchOptions configures a Chrome instance.
type LaunchOptions struct {
	Headless    bool
	Bin         string
	UserDataDir string
	Stealth     bool
	Width       int
	Height      int
	UserAgent   string
}

func (o LaunchOptions) viewport() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 1366
	}
	if h <= 0 {
		h = 768
	}
	return w, h
}

// Browser owns a launched Chrome process.
type Browser struct {
	rod      *rod.Browser
	launcher *launcher.Launcher
	opts     LaunchOptions
	logger   *slog.Logger
}

// Launch starts Chrome with automation markers disabled and connects to it.
func Launch(ctx context.Context, opts LaunchOptions, logger *slog.Logger) (*Browser, error) {
	w, h := opts.viewport()

	l := launcher.New().Context(ctx)
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	if opts.UserDataDir != "" {
		l = l.UserDataDir(opts.UserDataDir)
	}
	l = l.
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-infobars").
		Set("window-size", fmt.Sprintf("%d,%d", w, h)).
		Set("lang", "en-US,en")

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	b := rod.New().ControlURL(u).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	logger.Info("browser launched", "headless", opts.Headless, "stealth", opts.Stealth, "profile", opts.UserDataDir)
	return &Browser{rod: b, launcher: l, opts: opts, logger: logger}, nil
}

// NewPage opens a tab sized to the configured viewport. With Stealth set the
// tab is created through go-rod/stealth and the extra evasions are injected.
func (b *Browser) NewPage(ctx context.Context) (*RodPage, error) {
	var (
		p   *rod.Page
		err error
	)
	if b.opts.Stealth {
		p, err = newStealthPage(b.rod)
	} else {
		p, err = b.rod.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	w, h := b.opts.viewport()
	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{Width: w, Height: h, DeviceScaleFactor: 1}); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if b.opts.UserAgent != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.opts.UserAgent, AcceptLanguage: "en-US,en;q=0.9"}); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}
	return &RodPage{page: p.Context(ctx), width: w, height: h}, nil
}

// Close shuts the browser down and waits for the process to exit.
func (b *Browser) Close() error {
	err := b.rod.Close()
	b.launcher.Kill()
	b.logger.Debug("browser closed")
	return err
}

// RodPage implements Page on top of a go-rod tab.
type RodPage struct {
	page   *rod.Page
	width  int
	height int
}

var _ Page = (*RodPage)(nil)

func (p *RodPage) on(ctx context.Context) *rod.Page { return p.page.Context(ctx) }

func (p *RodPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	wait := p.ExpectNavigation(ctx, timeout)
	if err := p.on(ctx).Timeout(timeout).Navigate(url); err != nil {
		return wrapWait(err)
	}
	return wait()
}

func (p *RodPage) ExpectNavigation(ctx context.Context, timeout time.Duration) func() error {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	wait := p.page.Context(tctx).WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	return func() error {
		defer cancel()
		wait()
		if errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return ErrTimeout
		}
		return ctx.Err()
	}
}

func (p *RodPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	el, err := p.on(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return wrapWait(err)
	}
	return wrapWait(el.WaitVisible())
}

func (p *RodPage) Visible(ctx context.Context, selector string) (bool, error) {
	has, el, err := p.on(ctx).Has(selector)
	if err != nil || !has {
		return false, err
	}
	return el.Visible()
}

func (p *RodPage) Has(ctx context.Context, selector string) (bool, error) {
	has, _, err := p.on(ctx).Has(selector)
	return has, err
}

func (p *RodPage) BoundingBox(ctx context.Context, selector string) (Box, error) {
	has, el, err := p.on(ctx).Has(selector)
	if err != nil {
		return Box{}, err
	}
	if !has {
		return Box{}, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	shape, err := el.Shape()
	if err != nil {
		return Box{}, err
	}
	r := shape.Box()
	if r == nil {
		return Box{}, fmt.Errorf("%w: %s has no layout", ErrNotFound, selector)
	}
	return Box{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}, nil
}

func (p *RodPage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	el, err := p.on(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return wrapWait(err)
	}
	visible, err := el.Visible()
	if err != nil || !visible {
		return fmt.Errorf("%w: %s not visible", ErrNotFound, selector)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *RodPage) Viewport() (int, int) { return p.width, p.height }

func (p *RodPage) MouseMove(ctx context.Context, to Point, steps int) error {
	return p.on(ctx).Mouse.MoveLinear(proto.Point{X: to.X, Y: to.Y}, steps)
}

func (p *RodPage) MouseDown(ctx context.Context) error {
	return p.on(ctx).Mouse.Down(proto.InputMouseButtonLeft, 1)
}

func (p *RodPage) MouseUp(ctx context.Context) error {
	return p.on(ctx).Mouse.Up(proto.InputMouseButtonLeft, 1)
}

func (p *RodPage) ScrollHeight(ctx context.Context) (float64, error) {
	res, err := p.on(ctx).Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, err
	}
	return res.Value.Num(), nil
}

func (p *RodPage) ScrollBy(ctx context.Context, dy float64) error {
	_, err := p.on(ctx).Eval(`(dy) => window.scrollBy(0, dy)`, dy)
	return err
}

// extractCardsJS runs inside the page. It only reads attributes; mapping and
// validation happen on the host.
const extractCardsJS = `(sel) => Array.from(document.querySelectorAll(sel.card)).map((card) => {
	const link = card.querySelector(sel.link);
	const title = card.querySelector(sel.title);
	const img = card.querySelector(sel.image);
	return {
		title: title ? title.textContent.trim() : "",
		href: link ? link.href : "",
		src: img ? (img.getAttribute("src") || "") : "",
		srcset: img ? (img.getAttribute("srcset") || "") : "",
	};
})`

func (p *RodPage) ExtractCards(ctx context.Context, sel CardSelectors) ([]RawCard, error) {
	res, err := p.on(ctx).Eval(extractCardsJS, sel)
	if err != nil {
		return nil, fmt.Errorf("evaluate card extraction: %w", err)
	}
	var cards []RawCard
	if err := res.Value.Unmarshal(&cards); err != nil {
		return nil, fmt.Errorf("decode extracted cards: %w", err)
	}
	return cards, nil
}

func (p *RodPage) Screenshot(ctx context.Context, path string) error {
	data, err := p.on(ctx).Screenshot(true, &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng})
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func (p *RodPage) Close() error { return p.page.Close() }

func wrapWait(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var notFound *rod.ElementNotFoundError
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
