package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/xsolare/trip-scheduler-scraper/internal/logging"
	"github.com/xsolare/trip-scheduler-scraper/internal/models"
)

// rendered is what one chromedp page load produced.
type rendered struct {
	HTML string
	// CardsErr is set when the card grid never became visible.
	CardsErr   error
	Screenshot []byte
}

type renderFunc func(ctx context.Context, o BrowserOptions) (rendered, error)

// ChromedpEngine renders the first listing page in Chrome via the DevTools
// protocol, then parses the captured source like the static engine does.
type ChromedpEngine struct {
	render        renderFunc
	screenshotDir string
	logger        *slog.Logger
}

// ChromedpConfig holds the process-level settings of the chromedp engine.
type ChromedpConfig struct {
	ChromePath    string
	ScreenshotDir string
	CardsTimeout  time.Duration
}

// NewChromedpEngine creates a chromedp-backed engine.
func NewChromedpEngine(cfg ChromedpConfig, logger *slog.Logger) *ChromedpEngine {
	if cfg.CardsTimeout <= 0 {
		cfg.CardsTimeout = 20 * time.Second
	}
	return &ChromedpEngine{
		render:        chromedpRender(cfg),
		screenshotDir: cfg.ScreenshotDir,
		logger:        logger,
	}
}

// Acquire renders o.URL. Only the first page is visited; MaxPages is ignored.
func (e *ChromedpEngine) Acquire(ctx context.Context, opts Options) (*Result, error) {
	o, ok := opts.(BrowserOptions)
	if !ok {
		return nil, mismatch("BrowserOptions", opts)
	}
	logger := logging.FromContext(ctx, e.logger).With("strategy", StrategyChromedp, "url", o.URL)
	res := &Result{}
	if o.MaxPages > 1 {
		logger.Info("chromedp strategy reads the first page only", "max_pages", o.MaxPages)
	}

	page, err := e.render(ctx, o)
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if errors.Is(err, ErrBrowserUnavailable) {
			return nil, err
		}
		logger.Error("render failed", "error", err)
		res.diag("render failed: %v", err)
		return res, nil
	}

	if page.CardsErr != nil {
		msg := fmt.Sprintf("page 1: cards_timeout: %v", page.CardsErr)
		if len(page.Screenshot) > 0 {
			path := filepath.Join(e.screenshotDir, "error_screenshot_page_1.png")
			if err := os.WriteFile(path, page.Screenshot, 0o644); err != nil {
				logger.Warn("failed to save screenshot", "path", path, "error", err)
			} else {
				msg += " (screenshot " + path + ")"
			}
		}
		logger.Warn("card grid did not appear", "error", page.CardsErr)
		res.Diagnostics = append(res.Diagnostics, msg)
	}

	cards, err := ParseCards(strings.NewReader(page.HTML), CardSelectors)
	if err != nil {
		res.diag("parse rendered HTML: %v", err)
		return res, nil
	}
	report := models.ValidateListItems(MapRawCards(cards, o.URL))
	res.Items = report.Valid
	logger.Info("chromedp render complete", "cards", len(cards), "records", len(res.Items), "rejected", len(report.Rejected))
	return res, nil
}

func chromedpRender(cfg ChromedpConfig) renderFunc {
	return func(ctx context.Context, o BrowserOptions) (rendered, error) {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", o.Headless),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.UserAgent(chromeUserAgent),
			chromedp.WindowSize(1366, 768),
		)
		if o.ProfileDir != "" {
			allocOpts = append(allocOpts, chromedp.UserDataDir(o.ProfileDir))
		}
		if cfg.ChromePath != "" {
			allocOpts = append(allocOpts, chromedp.ExecPath(cfg.ChromePath))
		}

		allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
		defer cancelAlloc()
		taskCtx, cancelTask := chromedp.NewContext(allocCtx)
		defer cancelTask()

		// An empty run starts the browser.
		if err := chromedp.Run(taskCtx); err != nil {
			return rendered{}, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
		}

		headers := network.Headers{}
		for _, k := range []string{"Accept-Language", "Referer"} {
			headers[k] = browserHeaders[k]
		}
		if err := chromedp.Run(taskCtx,
			network.Enable(),
			network.SetExtraHTTPHeaders(headers),
			chromedp.Navigate(o.URL),
		); err != nil {
			return rendered{}, fmt.Errorf("navigate %s: %w", o.URL, err)
		}

		var out rendered
		waitCtx, cancelWait := context.WithTimeout(taskCtx, cfg.CardsTimeout)
		err := chromedp.Run(waitCtx, chromedp.WaitVisible(CardSelectors.Card, chromedp.ByQuery))
		cancelWait()
		if err != nil {
			if ctx.Err() != nil {
				return rendered{}, ctx.Err()
			}
			out.CardsErr = err
			_ = chromedp.Run(taskCtx, chromedp.FullScreenshot(&out.Screenshot, 90))
		}

		if err := chromedp.Run(taskCtx, chromedp.OuterHTML("html", &out.HTML, chromedp.ByQuery)); err != nil {
			return out, fmt.Errorf("read page source: %w", err)
		}
		return out, nil
	}
}
