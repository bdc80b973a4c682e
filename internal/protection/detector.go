// Package protection explains why a fetched listing page yielded no cards:
// anti-bot walls, rate limiting, or markup that only renders in a browser.
package protection

import (
	"bytes"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Signal identifies what kind of obstacle was detected.
type Signal string

const (
	SignalNone           Signal = ""
	SignalCloudflare     Signal = "cloudflare"
	SignalCaptcha        Signal = "captcha"
	SignalAccessDenied   Signal = "access_denied"
	SignalRateLimited    Signal = "rate_limited"
	SignalEmptyContent   Signal = "empty_content"
	SignalClientRendered Signal = "client_rendered"
)

// Result is the outcome of classifying one response.
type Result struct {
	Detected   bool
	Signal     Signal
	Confidence int
	Reason     string
	// BrowserMayHelp is true when a headless strategy is likely to get past it.
	BrowserMayHelp bool
}

// Hint is a short operator-facing suggestion for the detected signal.
func (r Result) Hint() string {
	switch r.Signal {
	case SignalNone:
		return ""
	case SignalRateLimited:
		return "rate limited; slow down before retrying"
	case SignalCaptcha, SignalCloudflare, SignalAccessDenied:
		return "blocked by bot protection; try the stealth strategy with a visible browser"
	default:
		return "content is rendered client-side; use a browser strategy (rod, stealth, chromedp)"
	}
}

type rule struct {
	signal     Signal
	confidence int
	reason     string
	patterns   []string
}

// Checked in order; the first match wins.
var bodyRules = []rule{
	{SignalCaptcha, 95, "captcha challenge in page", []string{
		"captcha-delivery.com", "verification puzzle", "datadome", "g-recaptcha", "h-captcha", "cf-turnstile", "data-sitekey",
	}},
	{SignalCloudflare, 90, "cloudflare challenge page", []string{
		"cf-browser-verification", "challenge-platform", "_cf_chl", "checking your browser", "just a moment...",
	}},
	{SignalAccessDenied, 85, "access denied message", []string{
		"access denied", "access to this page has been denied", "request blocked", "bot detected", "please verify you are human", "are you a robot",
	}},
	{SignalClientRendered, 80, "page asks for javascript", []string{
		"please enable javascript", "javascript is required", "requires javascript",
	}},
}

var emptyRootRe = regexp.MustCompile(`<div\s+id=["'](?:root|app|__next|__nuxt)["'][^>]*>\s*</div>`)

// Detector classifies HTTP responses.
type Detector struct {
	// MinVisibleText is the amount of visible text below which a page with
	// many links is treated as a shell awaiting client-side rendering.
	MinVisibleText int
	// MinTextRatio is the visible-text to HTML ratio below which a large page
	// is treated as client-rendered.
	MinTextRatio float64
}

// NewDetector returns a Detector with default thresholds.
func NewDetector() *Detector {
	return &Detector{MinVisibleText: 300, MinTextRatio: 0.02}
}

// Classify inspects status, headers and body. headers may be nil.
func (d *Detector) Classify(status int, headers http.Header, body []byte) Result {
	switch status {
	case http.StatusTooManyRequests:
		return Result{Detected: true, Signal: SignalRateLimited, Confidence: 95, Reason: "HTTP 429"}
	case http.StatusForbidden:
		return Result{Detected: true, Signal: SignalAccessDenied, Confidence: 90, Reason: "HTTP 403", BrowserMayHelp: true}
	case http.StatusServiceUnavailable:
		return Result{Detected: true, Signal: SignalCloudflare, Confidence: 70, Reason: "HTTP 503", BrowserMayHelp: true}
	}

	if headers != nil && headers.Get("cf-mitigated") == "challenge" {
		return Result{Detected: true, Signal: SignalCloudflare, Confidence: 95, Reason: "cf-mitigated: challenge", BrowserMayHelp: true}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return Result{Detected: true, Signal: SignalEmptyContent, Confidence: 80, Reason: "empty body", BrowserMayHelp: true}
	}

	lower := strings.ToLower(string(body))
	for _, r := range bodyRules {
		for _, p := range r.patterns {
			if strings.Contains(lower, p) {
				return Result{Detected: true, Signal: r.signal, Confidence: r.confidence, Reason: r.reason + " (" + p + ")", BrowserMayHelp: true}
			}
		}
	}

	if emptyRootRe.Match(body) {
		return Result{Detected: true, Signal: SignalClientRendered, Confidence: 90, Reason: "empty application root", BrowserMayHelp: true}
	}
	return d.checkTextRatio(body)
}

func (d *Detector) checkTextRatio(body []byte) Result {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Result{}
	}
	doc.Find("script, style, noscript, template").Remove()
	text := strings.Join(strings.Fields(doc.Text()), " ")
	links := doc.Find("a").Length()

	if len(text) < d.MinVisibleText && links > 5 {
		return Result{Detected: true, Signal: SignalClientRendered, Confidence: 75, Reason: "only navigation content in static HTML", BrowserMayHelp: true}
	}
	if len(body) > 1000 && float64(len(text))/float64(len(body)) < d.MinTextRatio {
		return Result{Detected: true, Signal: SignalClientRendered, Confidence: 70, Reason: "very low text-to-markup ratio", BrowserMayHelp: true}
	}
	return Result{}
}
