package engine

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/gocolly/colly/v2"

	"github.com/xsolare/trip-scheduler-scraper/internal/browser"
	"github.com/xsolare/trip-scheduler-scraper/internal/logging"
	"github.com/xsolare/trip-scheduler-scraper/internal/models"
	"github.com/xsolare/trip-scheduler-scraper/internal/protection"
)

// StaticEngine fetches one listing page without a browser and parses the
// server-rendered cards. When nothing parses it says why, using the
// protection detector.
type StaticEngine struct {
	timeout          time.Duration
	cloudflareBypass bool
	detector         *protection.Detector
	logger           *slog.Logger
}

// NewStaticEngine creates a static fetch engine.
func NewStaticEngine(timeout time.Duration, cloudflareBypass bool, logger *slog.Logger) *StaticEngine {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &StaticEngine{
		timeout:          timeout,
		cloudflareBypass: cloudflareBypass,
		detector:         protection.NewDetector(),
		logger:           logger,
	}
}

// Acquire performs a single GET with browser-like headers.
func (e *StaticEngine) Acquire(ctx context.Context, opts Options) (*Result, error) {
	o, ok := opts.(StaticOptions)
	if !ok {
		return nil, mismatch("StaticOptions", opts)
	}
	logger := logging.FromContext(ctx, e.logger).With("strategy", StrategyHTTP, "url", o.URL)
	res := &Result{}

	var (
		status  int
		headers http.Header
		body    []byte
		cards   []browser.RawCard
	)

	c := colly.NewCollector(
		colly.UserAgent(chromeUserAgent),
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(e.timeout)
	if e.cloudflareBypass {
		// The bypass rewrites the TLS config of the transport it wraps.
		c.WithTransport(cloudflarebp.AddCloudFlareByPass(http.DefaultTransport.(*http.Transport).Clone()))
	}

	c.OnRequest(func(r *colly.Request) {
		for k, v := range browserHeaders {
			r.Headers.Set(k, v)
		}
	})
	capture := func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
		if r.Headers != nil {
			headers = *r.Headers
		}
	}
	c.OnResponse(capture)
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			capture(r)
		}
	})
	c.OnHTML(CardSelectors.Card, func(el *colly.HTMLElement) {
		cards = append(cards, cardFromSelection(el.DOM, CardSelectors))
	})

	logger.Info("fetching listing page")
	if err := c.Visit(o.URL); err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if status == 0 {
			logger.Error("request failed", "error", err)
			res.diag("request failed: %v", err)
			return res, nil
		}
		logger.Warn("listing page returned an error", "status_code", status, "error", err)
	}

	report := models.ValidateListItems(MapRawCards(cards, o.URL))
	for _, r := range report.Rejected {
		logger.Debug("card rejected", "index", r.Index, "reason", r.Reason)
	}
	res.Items = report.Valid
	if len(res.Items) > 0 {
		logger.Info("static fetch complete", "cards", len(cards), "records", len(res.Items))
		return res, nil
	}

	verdict := e.detector.Classify(status, headers, body)
	if verdict.Detected {
		logger.Warn("no attractions in static HTML",
			"status_code", status,
			"signal", verdict.Signal,
			"confidence", verdict.Confidence,
			"reason", verdict.Reason,
		)
		res.diag("no attraction cards (HTTP %d): %s; %s", status, verdict.Reason, verdict.Hint())
		return res, nil
	}
	logger.Warn("no attractions in static HTML", "status_code", status, "cards", len(cards))
	res.diag("no attraction cards (HTTP %d); selectors may be out of date", status)
	return res, nil
}
