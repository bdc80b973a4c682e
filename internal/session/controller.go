// Package session drives a browser page so that it looks like a person is
// browsing: warm-up on the site root, jittered pointer input, paced scrolling,
// and a bounded pause for manually solved captchas.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/xsolare/trip-scheduler-scraper/internal/browser"
	"github.com/xsolare/trip-scheduler-scraper/internal/logging"
	"github.com/xsolare/trip-scheduler-scraper/internal/pacing"
)

// Selectors are the page landmarks the controller reacts to.
type Selectors struct {
	Cards   string
	Next    string
	Captcha string
	Consent []string
}

// Options configures a Controller.
type Options struct {
	Selectors     Selectors
	Timing        Timing
	Pacer         *pacing.Pacer
	Logger        *slog.Logger
	ScreenshotDir string
	// SkipWarmUp goes straight to the target. Used when a profile directory
	// already carries a warmed-up session.
	SkipWarmUp bool
}

// Controller owns one page for the lifetime of a run.
type Controller struct {
	page          browser.Page
	sel           Selectors
	timing        Timing
	pacer         *pacing.Pacer
	logger        *slog.Logger
	screenshotDir string
	skipWarmUp    bool
}

// New binds a controller to page.
func New(page browser.Page, opts Options) *Controller {
	if opts.Pacer == nil {
		opts.Pacer = pacing.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ScreenshotDir == "" {
		opts.ScreenshotDir = "."
	}
	return &Controller{
		page:          page,
		sel:           opts.Selectors,
		timing:        opts.Timing,
		pacer:         opts.Pacer,
		logger:        opts.Logger,
		screenshotDir: opts.ScreenshotDir,
		skipWarmUp:    opts.SkipWarmUp,
	}
}

func (c *Controller) log(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, c.logger)
}

// Open warms the session up on the site root, dismisses consent, navigates to
// target and clears any captcha. Only a failed navigation to target is an error.
func (c *Controller) Open(ctx context.Context, target string) error {
	if !c.skipWarmUp {
		root, err := siteRoot(target)
		if err != nil {
			return err
		}
		if err := c.WarmUp(ctx, root); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log(ctx).Warn("warm-up failed, continuing to target", "root", root, "error", err)
		}
		c.DismissConsent(ctx)
	}

	c.log(ctx).Info("navigating to target", "url", target)
	if err := c.page.Navigate(ctx, target, c.timing.NavigationTimeout); err != nil {
		return fmt.Errorf("navigate to %s: %w", target, err)
	}
	if err := c.pacer.Pause(ctx, c.timing.AfterOpen); err != nil {
		return err
	}
	c.HandleCaptcha(ctx)
	return nil
}

// WarmUp visits root, idles and moves the pointer around before any deep link
// is requested.
func (c *Controller) WarmUp(ctx context.Context, root string) error {
	c.log(ctx).Info("warming up session", "url", root)
	if err := c.page.Navigate(ctx, root, c.timing.NavigationTimeout); err != nil {
		return fmt.Errorf("navigate to %s: %w", root, err)
	}
	if err := c.pacer.Pause(ctx, c.timing.WarmUpSettle); err != nil {
		return err
	}
	return c.RandomMouseMovements(ctx, c.timing.MouseMoves)
}

// RandomMouseMovements glides the pointer to n random points in the viewport.
func (c *Controller) RandomMouseMovements(ctx context.Context, n int) error {
	w, h := c.page.Viewport()
	for range n {
		to := browser.Point{X: c.pacer.Float64() * float64(w), Y: c.pacer.Float64() * float64(h)}
		if err := c.page.MouseMove(ctx, to, max(c.timing.MouseMoveSteps, 1)); err != nil {
			return fmt.Errorf("mouse move: %w", err)
		}
		if err := c.pacer.Pause(ctx, c.timing.MouseMovePause); err != nil {
			return err
		}
	}
	return nil
}

// HumanClick moves to a jittered point inside the element and presses and
// releases the button with independent delays.
func (c *Controller) HumanClick(ctx context.Context, selector string) error {
	box, err := c.page.BoundingBox(ctx, selector)
	if err != nil {
		return fmt.Errorf("locate %s: %w", selector, err)
	}
	center := box.Center()
	j := c.timing.ClickJitter
	to := browser.Point{
		X: center.X + box.Width*c.pacer.Between(-j, j),
		Y: center.Y + box.Height*c.pacer.Between(-j, j),
	}
	if err := c.page.MouseMove(ctx, to, max(c.timing.ClickSteps, 1)); err != nil {
		return fmt.Errorf("move to %s: %w", selector, err)
	}
	if err := c.pacer.Pause(ctx, c.timing.ClickHover); err != nil {
		return err
	}
	if err := c.page.MouseDown(ctx); err != nil {
		return fmt.Errorf("press %s: %w", selector, err)
	}
	if err := c.pacer.Pause(ctx, c.timing.ClickPress); err != nil {
		return err
	}
	if err := c.page.MouseUp(ctx); err != nil {
		return fmt.Errorf("release %s: %w", selector, err)
	}
	return nil
}

// DismissConsent clicks the first visible consent button, if any.
func (c *Controller) DismissConsent(ctx context.Context) bool {
	for _, sel := range c.sel.Consent {
		if has, err := c.page.Has(ctx, sel); err != nil || !has {
			continue
		}
		if err := c.page.Click(ctx, sel, c.timing.ConsentTimeout); err != nil {
			c.log(ctx).Debug("consent button not clickable", "selector", sel, "error", err)
			continue
		}
		c.log(ctx).Info("dismissed consent banner", "selector", sel)
		return true
	}
	return false
}

// ScrollThrough scrolls the whole document in small paced steps so lazy
// images load, then lets the page settle.
func (c *Controller) ScrollThrough(ctx context.Context) error {
	height, err := c.page.ScrollHeight(ctx)
	if err != nil {
		return fmt.Errorf("measure page: %w", err)
	}
	step := c.timing.scrollStep()
	for y := 0.0; y < height; y += step {
		if err := c.page.ScrollBy(ctx, step); err != nil {
			return fmt.Errorf("scroll: %w", err)
		}
		if err := c.pacer.Pause(ctx, c.timing.ScrollPause); err != nil {
			return err
		}
	}
	return c.pacer.Pause(ctx, c.timing.ScrollSettle)
}

// CaptchaOutcome reports what HandleCaptcha observed.
type CaptchaOutcome string

const (
	CaptchaAbsent   CaptchaOutcome = "absent"
	CaptchaSolved   CaptchaOutcome = "solved"
	CaptchaUnsolved CaptchaOutcome = "unsolved"
)

// HandleCaptcha probes for the challenge iframe. When present it blocks until
// the challenge disappears or CaptchaWait elapses; an operator is expected to
// solve it in the visible browser window.
func (c *Controller) HandleCaptcha(ctx context.Context) CaptchaOutcome {
	if c.sel.Captcha == "" {
		return CaptchaAbsent
	}
	present := func() bool {
		has, err := c.page.Has(ctx, c.sel.Captcha)
		return err == nil && has
	}
	if !c.poll(ctx, c.timing.CaptchaProbe, present) {
		return CaptchaAbsent
	}

	logger := c.log(ctx)
	logger.Warn("captcha detected, solve it in the browser window", "wait", c.timing.CaptchaWait)
	if c.poll(ctx, c.timing.CaptchaWait, func() bool { return !present() }) {
		logger.Info("captcha cleared, resuming")
		return CaptchaSolved
	}
	logger.Warn("captcha still present after wait, continuing anyway")
	return CaptchaUnsolved
}

// poll checks cond until it holds or timeout elapses. cond is evaluated at
// least once.
func (c *Controller) poll(ctx context.Context, timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if ctx.Err() != nil || !time.Now().Before(deadline) {
			return false
		}
		if err := pacing.Sleep(ctx, min(c.timing.poll(), time.Until(deadline))); err != nil {
			return false
		}
	}
}

// Screenshot saves a full-page capture under the screenshot directory and
// returns its path, or "" if the capture failed.
func (c *Controller) Screenshot(ctx context.Context, name string) string {
	path := filepath.Join(c.screenshotDir, name)
	if err := c.page.Screenshot(ctx, path); err != nil {
		c.log(ctx).Warn("screenshot failed", "path", path, "error", err)
		return ""
	}
	c.log(ctx).Info("saved diagnostic screenshot", "path", path)
	return path
}

func siteRoot(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("target %q is not an absolute URL", target)
	}
	return u.Scheme + "://" + u.Host + "/", nil
}

func isCancelled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}
