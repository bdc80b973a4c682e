package engine

import (
	"log/slog"

	"github.com/xsolare/trip-scheduler-scraper/internal/artifact"
	"github.com/xsolare/trip-scheduler-scraper/internal/config"
	"github.com/xsolare/trip-scheduler-scraper/internal/extract"
	"github.com/xsolare/trip-scheduler-scraper/internal/llm"
	"github.com/xsolare/trip-scheduler-scraper/internal/pacing"
	"github.com/xsolare/trip-scheduler-scraper/internal/session"
)

// Build wires every strategy to its engine from cfg. Engines are cheap to
// construct; browsers and LLM clients are only started by Acquire.
func Build(cfg *config.Config, store *artifact.Store, logger *slog.Logger) *Registry {
	browserCfg := BrowserConfig{
		ChromePath:    cfg.ChromePath,
		ScreenshotDir: cfg.ScreenshotDir,
		SkipWarmUp:    cfg.SkipWarmUp,
		Timing:        session.DefaultTiming(),
		Pacer:         pacing.New(),
	}

	creds := llm.Credentials{
		llm.ProviderHubMix: {APIKey: cfg.HubMixAPIKey, BaseURL: cfg.HubMixBaseURL},
		llm.ProviderOpenAI: {APIKey: cfg.OpenAIAPIKey, BaseURL: cfg.OpenAIBaseURL},
	}
	factory := OpenAICompleter(creds, cfg.LLMStrictProvider, llm.ClientOptions{
		Temperature:       cfg.LLMTemperature,
		RequestsPerMinute: cfg.LLMRequestsPerMin,
		Timeout:           cfg.RequestTimeout * 4,
	}, logger)
	llmEngine := NewLLMEngine(factory, store, extract.Catalog(cfg.Cities), logger)

	return NewRegistry().
		Register(StrategyAPI, NewAPIEngine(cfg.TripAdvisorAPIURL, cfg.RequestTimeout, logger)).
		Register(StrategyHTTP, NewStaticEngine(cfg.RequestTimeout, cfg.CloudflareBypass, logger)).
		Register(StrategyLLMList, llmEngine).
		Register(StrategyLLMDetail, llmEngine).
		Register(StrategyRod, NewBrowserEngine(StrategyRod, browserCfg, logger)).
		Register(StrategyStealth, NewBrowserEngine(StrategyStealth, browserCfg, logger)).
		Register(StrategyChromedp, NewChromedpEngine(ChromedpConfig{
			ChromePath:    cfg.ChromePath,
			ScreenshotDir: cfg.ScreenshotDir,
		}, logger))
}
