// Package engine implements the interchangeable acquisition strategies. Every
// engine returns whatever it could salvage; only configuration problems are
// reported as errors.
package engine

import (
	"context"
	"fmt"

	"github.com/xsolare/trip-scheduler-scraper/internal/models"
)

// Options is the configuration bundle for exactly one engine.
type Options interface {
	strategyOptions()
}

// APIOptions configures the content API engine.
type APIOptions struct {
	APIKey   string
	LatLong  string
	Category string
	Language string
}

// StaticOptions configures the static fetch engine.
type StaticOptions struct {
	URL string
}

// BrowserOptions configures the browser engines.
type BrowserOptions struct {
	URL        string
	Headless   bool
	MaxPages   int
	ProfileDir string
}

// Stage selects an LLM pipeline stage.
type Stage string

const (
	StageList   Stage = "list"
	StageDetail Stage = "detail"
)

// LLMOptions configures the LLM engine.
type LLMOptions struct {
	City       string
	Stage      Stage
	Pages      int
	MaxDetails int
	Model      string
}

func (APIOptions) strategyOptions()     {}
func (StaticOptions) strategyOptions()  {}
func (BrowserOptions) strategyOptions() {}
func (LLMOptions) strategyOptions()     {}

// Result is what an engine produced.
type Result struct {
	Items        []models.ListItem
	Details      []models.DetailItem
	ArtifactPath string
	Diagnostics  []string
}

// Count is the number of validated records.
func (r *Result) Count() int {
	if r == nil {
		return 0
	}
	return len(r.Items) + len(r.Details)
}

func (r *Result) diag(format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, fmt.Sprintf(format, args...))
}

// Engine acquires attraction records.
type Engine interface {
	Acquire(ctx context.Context, opts Options) (*Result, error)
}

func mismatch(want string, got Options) error {
	return fmt.Errorf("%w: want %s, got %T", ErrOptionsMismatch, want, got)
}

// Registry maps strategies to engines. It is built once at startup.
type Registry struct {
	engines map[Strategy]Engine
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[Strategy]Engine)}
}

// Register binds s to e, replacing any previous binding.
func (r *Registry) Register(s Strategy, e Engine) *Registry {
	r.engines[s] = e
	return r
}

// Get returns the engine bound to s.
func (r *Registry) Get(s Strategy) (Engine, error) {
	e, ok := r.engines[s]
	if !ok {
		return nil, fmt.Errorf("%w %q: no engine registered", ErrUnknownStrategy, s)
	}
	return e, nil
}
