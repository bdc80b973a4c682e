package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xsolare/trip-scheduler-scraper/internal/browser"
	"github.com/xsolare/trip-scheduler-scraper/internal/logging"
	"github.com/xsolare/trip-scheduler-scraper/internal/models"
	"github.com/xsolare/trip-scheduler-scraper/internal/pacing"
	"github.com/xsolare/trip-scheduler-scraper/internal/session"
)

// PageOpener starts a browser and returns one page in it. release tears both down.
type PageOpener func(ctx context.Context, o BrowserOptions, stealth bool) (page browser.Page, release func() error, err error)

// BrowserConfig holds the process-level settings of the go-rod engines.
type BrowserConfig struct {
	ChromePath    string
	ScreenshotDir string
	// SkipWarmUp goes straight to the listing, for profiles that already
	// carry a warmed-up session.
	SkipWarmUp    bool
	Timing        session.Timing
	Pacer         *pacing.Pacer
}

// BrowserEngine drives a real Chrome through the session controller and
// walks result pages by clicking the next control.
type BrowserEngine struct {
	strategy Strategy
	cfg      BrowserConfig
	open     PageOpener
	logger   *slog.Logger
}

// NewBrowserEngine creates the rod or stealth engine. Any other strategy is
// treated as rod.
func NewBrowserEngine(s Strategy, cfg BrowserConfig, logger *slog.Logger) *BrowserEngine {
	return &BrowserEngine{strategy: s, cfg: cfg, open: rodOpener(cfg.ChromePath, logger), logger: logger}
}

func (e *BrowserEngine) stealth() bool { return e.strategy == StrategyStealth }

// Acquire opens o.URL and extracts cards from up to o.MaxPages pages. The
// browser is always released, whatever the outcome.
func (e *BrowserEngine) Acquire(ctx context.Context, opts Options) (*Result, error) {
	o, ok := opts.(BrowserOptions)
	if !ok {
		return nil, mismatch("BrowserOptions", opts)
	}
	logger := logging.FromContext(ctx, e.logger).With("strategy", e.strategy)

	page, release, err := e.open(ctx, o, e.stealth())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}
	defer func() {
		if err := release(); err != nil {
			logger.Warn("failed to close browser", "error", err)
		}
	}()

	sel := SessionSelectors
	if !e.stealth() {
		sel.Captcha = ""
	}
	ctrl := session.New(page, session.Options{
		Selectors:     sel,
		Timing:        e.cfg.Timing,
		Pacer:         e.cfg.Pacer,
		Logger:        logger,
		ScreenshotDir: e.cfg.ScreenshotDir,
		SkipWarmUp:    e.cfg.SkipWarmUp,
	})

	res := &Result{}
	if err := ctrl.Open(ctx, o.URL); err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		shot := ctrl.Screenshot(ctx, "critical_error_screenshot.png")
		logger.Error("could not open listing", "url", o.URL, "error", err, "screenshot", shot)
		res.diag("open %s: %v", o.URL, err)
		return res, nil
	}

	seen := make(map[string]bool)
	visit := func(ctx context.Context, n int) error {
		raw, err := page.ExtractCards(ctx, CardSelectors)
		if err != nil {
			return fmt.Errorf("extract cards: %w", err)
		}
		report := models.ValidateListItems(MapRawCards(raw, o.URL))
		if len(raw) > 0 && len(report.Valid) == 0 {
			return fmt.Errorf("all %d cards failed validation: %s", len(raw), report.Rejected[0].Reason)
		}
		added := 0
		for _, it := range report.Valid {
			if seen[it.CanonicalURL] {
				continue
			}
			seen[it.CanonicalURL] = true
			res.Items = append(res.Items, it)
			added++
		}
		logger.Info("page extracted", "page", n, "cards", len(raw), "added", added, "rejected", len(report.Rejected))
		return nil
	}

	pr := ctrl.Paginate(ctx, o.MaxPages, visit)
	for _, d := range pr.Diagnostics {
		res.Diagnostics = append(res.Diagnostics, d.String())
	}
	switch pr.Terminal {
	case session.Cancelled:
		return res, ctx.Err()
	case session.NavigationFailed:
		ctrl.Screenshot(ctx, "critical_error_screenshot.png")
	}
	logger.Info("pagination finished",
		"terminal", pr.Terminal,
		"pages_visited", pr.PagesVisited,
		"pages_extracted", pr.PagesExtracted,
		"records", len(res.Items),
	)
	return res, nil
}

func rodOpener(chromePath string, logger *slog.Logger) PageOpener {
	return func(ctx context.Context, o BrowserOptions, stealth bool) (browser.Page, func() error, error) {
		b, err := browser.Launch(ctx, browser.LaunchOptions{
			Headless:    o.Headless,
			Bin:         chromePath,
			UserDataDir: o.ProfileDir,
			Stealth:     stealth,
			UserAgent:   chromeUserAgent,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		p, err := b.NewPage(ctx)
		if err != nil {
			_ = b.Close()
			return nil, nil, err
		}
		return p, func() error { return errors.Join(p.Close(), b.Close()) }, nil
	}
}
