package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xsolare/trip-scheduler-scraper/internal/artifact"
	"github.com/xsolare/trip-scheduler-scraper/internal/extract"
	"github.com/xsolare/trip-scheduler-scraper/internal/llm"
	"github.com/xsolare/trip-scheduler-scraper/internal/logging"
)

// CompleterFactory builds the chat-completions client for a model on first
// use, so that strategies that never call a model do not need LLM credentials.
type CompleterFactory func(model string) (llm.Completer, error)

type completerEntry struct {
	completer llm.Completer
	err       error
}

// LLMEngine runs one of the two LLM pipeline stages.
type LLMEngine struct {
	factory CompleterFactory
	store   *artifact.Store
	catalog extract.Catalog
	logger  *slog.Logger

	mu      sync.Mutex
	clients map[string]completerEntry
}

// NewLLMEngine creates an engine serving both llm-list and llm-detail.
func NewLLMEngine(factory CompleterFactory, store *artifact.Store, catalog extract.Catalog, logger *slog.Logger) *LLMEngine {
	return &LLMEngine{
		factory: factory,
		store:   store,
		catalog: catalog,
		logger:  logger,
		clients: make(map[string]completerEntry),
	}
}

// client resolves each model once; failures are cached too.
func (e *LLMEngine) client(model string) (llm.Completer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.clients[model]; ok {
		return c.completer, c.err
	}
	c, err := e.factory(model)
	e.clients[model] = completerEntry{completer: c, err: err}
	return c, err
}

// Acquire runs the stage named by o.Stage. Artifacts are written by the
// stage itself; Result.ArtifactPath reports where.
func (e *LLMEngine) Acquire(ctx context.Context, opts Options) (*Result, error) {
	o, ok := opts.(LLMOptions)
	if !ok {
		return nil, mismatch("LLMOptions", opts)
	}
	city, err := e.catalog.Lookup(o.City)
	if err != nil {
		return nil, err
	}
	completer, err := e.client(o.Model)
	if err != nil {
		return nil, err
	}
	logger := logging.FromContext(ctx, e.logger)

	var out *extract.Outcome
	switch o.Stage {
	case StageList:
		out, err = extract.NewListStage(completer, e.store, logger).Run(ctx, city, o.Pages)
	case StageDetail:
		out, err = extract.NewDetailStage(completer, e.store, logger).Run(ctx, city, o.MaxDetails)
	default:
		return nil, fmt.Errorf("%w: unknown LLM stage %q", ErrOptionsMismatch, o.Stage)
	}
	if out == nil {
		return nil, err
	}

	res := &Result{Items: out.Items, Details: out.Details, ArtifactPath: out.Path}
	for _, f := range out.Failures {
		res.diag("%s: %s", f.Unit, f.Reason)
	}
	return res, err
}

// OpenAICompleter resolves the requested model against creds and builds a
// rate-limited client.
func OpenAICompleter(creds llm.Credentials, strict bool, opts llm.ClientOptions, logger *slog.Logger) CompleterFactory {
	return func(model string) (llm.Completer, error) {
		res, err := llm.Resolve(model, creds, llm.ResolveOptions{Strict: strict})
		if err != nil {
			return nil, err
		}
		logger.Info("LLM client ready", "model", res.Model, "provider", res.Provider, "fallback", res.Fallback)
		return llm.NewClient(res, opts, logger), nil
	}
}
