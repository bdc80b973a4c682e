// Package pipeline turns a run request into one engine invocation and a
// summary report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/xsolare/trip-scheduler-scraper/internal/artifact"
	"github.com/xsolare/trip-scheduler-scraper/internal/config"
	"github.com/xsolare/trip-scheduler-scraper/internal/engine"
	"github.com/xsolare/trip-scheduler-scraper/internal/extract"
	"github.com/xsolare/trip-scheduler-scraper/internal/llm"
	"github.com/xsolare/trip-scheduler-scraper/internal/logging"
	"github.com/xsolare/trip-scheduler-scraper/internal/models"
)

// Request describes one run. Zero fields take their value from config.
type Request struct {
	Strategy   string
	City       string
	URL        string
	Pages      int
	MaxDetails int
	Model      string
	Headless   *bool
	// Persist writes the list artifact for strategies that do not write one
	// themselves.
	Persist bool
}

// Report summarises a finished run.
type Report struct {
	RunID        string
	Strategy     engine.Strategy
	City         string
	Count        int
	Items        []models.ListItem
	Details      []models.DetailItem
	ArtifactPath string
	Diagnostics  []string
	Elapsed      time.Duration
}

// Orchestrator dispatches requests to the registered engines.
type Orchestrator struct {
	cfg      *config.Config
	registry *engine.Registry
	store    *artifact.Store
	logger   *slog.Logger
}

// New creates an orchestrator.
func New(cfg *config.Config, registry *engine.Registry, store *artifact.Store, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{cfg: cfg, registry: registry, store: store, logger: logger}
}

// Run validates the strategy before touching the network or the filesystem,
// then runs its engine once. On cancellation the partial report is returned
// together with the context error.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Report, error) {
	strategy, err := engine.ParseStrategy(req.Strategy)
	if err != nil {
		return nil, err
	}
	eng, err := o.registry.Get(strategy)
	if err != nil {
		return nil, err
	}

	runID := ulid.Make().String()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.FromContext(ctx, o.logger)

	city := req.City
	if city == "" {
		city = o.cfg.City
	}
	opts := o.options(strategy, city, req)
	logger.Info("run starting", "strategy", strategy, "city", city)

	start := time.Now()
	res, err := eng.Acquire(ctx, opts)
	if res == nil {
		return nil, err
	}

	report := &Report{
		RunID:        runID,
		Strategy:     strategy,
		City:         city,
		Count:        res.Count(),
		Items:        res.Items,
		Details:      res.Details,
		ArtifactPath: res.ArtifactPath,
		Diagnostics:  res.Diagnostics,
	}
	if err == nil && req.Persist && !strategy.IsLLM() && len(res.Items) > 0 {
		path, werr := o.store.Write(ctx, city, artifact.KindList, res.Items)
		if werr != nil {
			err = werr
		}
		report.ArtifactPath = path
	}
	report.Elapsed = time.Since(start)

	logger.Info("run finished",
		"strategy", strategy,
		"records", report.Count,
		"diagnostics", len(report.Diagnostics),
		"artifact", report.ArtifactPath,
		"elapsed", report.Elapsed,
	)
	return report, err
}

func (o *Orchestrator) options(s engine.Strategy, city string, req Request) engine.Options {
	target := req.URL
	if target == "" {
		target = o.cfg.TargetURL
	}
	pages := req.Pages
	if pages <= 0 {
		pages = o.cfg.MaxPages
	}
	details := req.MaxDetails
	if details <= 0 {
		details = o.cfg.MaxDetails
	}
	model := req.Model
	if model == "" {
		model = o.cfg.LLMModel
	}
	headless := o.cfg.Headless
	if req.Headless != nil {
		headless = *req.Headless
	}

	switch s {
	case engine.StrategyAPI:
		latLong := o.cfg.TripAdvisorLatLong
		if c, err := extract.Catalog(o.cfg.Cities).Lookup(city); err == nil && c.LatLong != "" {
			latLong = c.LatLong
		}
		return engine.APIOptions{
			APIKey:   o.cfg.TripAdvisorAPIKey,
			LatLong:  latLong,
			Category: o.cfg.TripAdvisorCategory,
			Language: o.cfg.TripAdvisorLanguage,
		}
	case engine.StrategyHTTP:
		return engine.StaticOptions{URL: target}
	case engine.StrategyLLMList:
		return engine.LLMOptions{City: city, Stage: engine.StageList, Pages: pages, Model: model}
	case engine.StrategyLLMDetail:
		return engine.LLMOptions{City: city, Stage: engine.StageDetail, MaxDetails: details, Model: model}
	default:
		return engine.BrowserOptions{URL: target, Headless: headless, MaxPages: pages, ProfileDir: o.cfg.ProfileDir}
	}
}

var configErrors = []error{
	engine.ErrUnknownStrategy,
	engine.ErrOptionsMismatch,
	engine.ErrBrowserUnavailable,
	llm.ErrUnknownModel,
	llm.ErrMissingCredentials,
	llm.ErrProviderFallback,
	extract.ErrUnknownCity,
	artifact.ErrNotFound,
	config.ErrInvalid,
}

// IsConfigError reports whether err stems from configuration or setup rather
// than from the target site.
func IsConfigError(err error) bool {
	for _, target := range configErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Summary is a one-line description of the report for logs.
func (r *Report) Summary() string {
	return fmt.Sprintf("%s: %d records in %s (%d diagnostics)", r.Strategy, r.Count, r.Elapsed.Round(time.Millisecond), len(r.Diagnostics))
}
