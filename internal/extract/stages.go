// Package extract runs the two-stage LLM pipeline: a list stage that discovers
// attractions page by page, and a detail stage that enriches the first N of
// them. Stages hand off through artifact files only.
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xsolare/trip-scheduler-scraper/internal/artifact"
	"github.com/xsolare/trip-scheduler-scraper/internal/config"
	"github.com/xsolare/trip-scheduler-scraper/internal/llm"
	"github.com/xsolare/trip-scheduler-scraper/internal/logging"
	"github.com/xsolare/trip-scheduler-scraper/internal/models"
)

// UnitFailure describes one page or item that produced nothing.
type UnitFailure struct {
	Unit   string `json:"unit"`
	Reason string `json:"reason"`
}

// Outcome is what a stage produced.
type Outcome struct {
	Items    []models.ListItem
	Details  []models.DetailItem
	Path     string
	Failures []UnitFailure
}

// ListStage discovers attractions from paginated listing URLs.
type ListStage struct {
	llm    llm.Completer
	store  *artifact.Store
	logger *slog.Logger
}

// NewListStage creates a list stage.
func NewListStage(c llm.Completer, store *artifact.Store, logger *slog.Logger) *ListStage {
	return &ListStage{llm: c, store: store, logger: logger}
}

// Run requests pages [0, pages) in order. A page whose completion cannot be
// decoded contributes nothing; the stage moves on. The list artifact is
// replaced only when at least one record survived.
func (s *ListStage) Run(ctx context.Context, city config.City, pages int) (*Outcome, error) {
	logger := logging.FromContext(ctx, s.logger).With("stage", "llm-list", "city", city.Name)
	out := &Outcome{}
	seen := make(map[string]bool)

	for i := range pages {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		url := PageURL(city, i)
		items, err := s.page(ctx, city, url)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			logger.Warn("list page skipped", "page", i+1, "url", url, "error", err)
			out.Failures = append(out.Failures, UnitFailure{Unit: url, Reason: err.Error()})
			continue
		}
		added := 0
		for _, it := range items {
			if seen[it.CanonicalURL] {
				continue
			}
			seen[it.CanonicalURL] = true
			out.Items = append(out.Items, it)
			added++
		}
		logger.Info("list page extracted", "page", i+1, "url", url, "records", added)
	}

	logger.Info("list stage finished", "records", len(out.Items), "failed_pages", len(out.Failures))
	if len(out.Items) == 0 {
		logger.Warn("no attractions extracted, list artifact left untouched")
		return out, nil
	}
	path, err := s.store.Write(ctx, city.Name, artifact.KindList, out.Items)
	if err != nil {
		return out, err
	}
	out.Path = path
	return out, nil
}

func (s *ListStage) page(ctx context.Context, city config.City, url string) ([]models.ListItem, error) {
	prompt, err := render(listPrompt, promptData{City: city.Name, URL: url})
	if err != nil {
		return nil, fmt.Errorf("render list prompt: %w", err)
	}
	content, err := s.llm.Complete(ctx, llm.Request{System: listSystemPrompt, User: prompt})
	if err != nil {
		return nil, err
	}
	raw, err := llm.DecodeArray[models.ListItem](content)
	if err != nil {
		return nil, err
	}
	report := models.ValidateListItems(raw)
	for _, r := range report.Rejected {
		logging.FromContext(ctx, s.logger).Debug("record rejected", "url", url, "index", r.Index, "name", r.Name, "reason", r.Reason)
	}
	if len(raw) > 0 && len(report.Valid) == 0 {
		return nil, fmt.Errorf("%w: all %d records failed validation", models.ErrInvalidRecord, len(raw))
	}
	return report.Valid, nil
}

// DetailStage enriches list-stage records one at a time.
type DetailStage struct {
	llm    llm.Completer
	store  *artifact.Store
	logger *slog.Logger
}

// NewDetailStage creates a detail stage.
func NewDetailStage(c llm.Completer, store *artifact.Store, logger *slog.Logger) *DetailStage {
	return &DetailStage{llm: c, store: store, logger: logger}
}

// Run reads the city's list artifact and requests details for its first
// maxDetails entries, in file order. A missing list artifact is an error; a
// failing item is skipped without retry.
func (s *DetailStage) Run(ctx context.Context, city config.City, maxDetails int) (*Outcome, error) {
	logger := logging.FromContext(ctx, s.logger).With("stage", "llm-detail", "city", city.Name)

	var list []models.ListItem
	if err := s.store.Read(city.Name, artifact.KindList, &list); err != nil {
		return nil, fmt.Errorf("detail stage needs the list stage output: %w", err)
	}
	if maxDetails < len(list) {
		list = list[:max(maxDetails, 0)]
	}
	logger.Info("detail stage starting", "items", len(list))

	out := &Outcome{}
	for i, it := range list {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if it.CanonicalURL == "" {
			logger.Warn("list item has no URL, skipped", "index", i, "name", it.Name)
			continue
		}
		d, err := s.item(ctx, it.CanonicalURL)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			logger.Warn("detail item skipped", "index", i, "url", it.CanonicalURL, "error", err)
			out.Failures = append(out.Failures, UnitFailure{Unit: it.CanonicalURL, Reason: err.Error()})
			continue
		}
		logger.Info("detail extracted", "index", i, "name", d.Name)
		out.Details = append(out.Details, d)
	}

	logger.Info("detail stage finished", "records", len(out.Details), "failed_items", len(out.Failures))
	if len(out.Details) == 0 {
		logger.Warn("no details extracted, details artifact left untouched")
		return out, nil
	}
	path, err := s.store.Write(ctx, city.Name, artifact.KindDetails, out.Details)
	if err != nil {
		return out, err
	}
	out.Path = path
	return out, nil
}

func (s *DetailStage) item(ctx context.Context, url string) (models.DetailItem, error) {
	prompt, err := render(detailPrompt, promptData{URL: url})
	if err != nil {
		return models.DetailItem{}, fmt.Errorf("render detail prompt: %w", err)
	}
	content, err := s.llm.Complete(ctx, llm.Request{System: detailSystemPrompt, User: prompt})
	if err != nil {
		return models.DetailItem{}, err
	}
	d, err := llm.DecodeObject[models.DetailItem](content)
	if err != nil {
		return models.DetailItem{}, err
	}
	d.SourceURL = url
	if err := models.ValidateDetailItem(&d); err != nil {
		return models.DetailItem{}, err
	}
	return d, nil
}
