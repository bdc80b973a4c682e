package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	input "github.com/tcnksm/go-input"

	"github.com/xsolare/trip-scheduler-scraper/internal/artifact"
	"github.com/xsolare/trip-scheduler-scraper/internal/config"
	"github.com/xsolare/trip-scheduler-scraper/internal/engine"
	"github.com/xsolare/trip-scheduler-scraper/internal/pipeline"
)

// previewRows caps the records echoed after a run.
const previewRows = 10

type runFlags struct {
	pages    int
	details  int
	city     string
	url      string
	model    string
	headless bool
	persist  bool
}

func newRunCmd() *cobra.Command {
	var f runFlags
	names := strategyNames()

	cmd := &cobra.Command{
		Use:       "run [strategy]",
		Short:     "Run one scraping strategy",
		Long:      "Run one scraping strategy. Available strategies: " + strings.Join(names, ", ") + ".\nWithout an argument on a terminal, the strategy is chosen interactively.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), strategyArg),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := chooseStrategy(cmd, args, names)
			if err != nil {
				return err
			}
			if _, err := engine.ParseStrategy(name); err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := slog.Default()

			var mirror artifact.Mirror
			if cfg.StorageEnabled() {
				m, err := artifact.NewS3Mirror(ctx, artifact.S3Config{
					Endpoint:  cfg.StorageEndpoint,
					Region:    cfg.StorageRegion,
					AccessKey: cfg.StorageAccessKey,
					SecretKey: cfg.StorageSecretKey,
					Bucket:    cfg.StorageBucket,
				}, logger)
				if err != nil {
					logger.Warn("artifact mirror disabled", "error", err)
				} else {
					mirror = m
				}
			}
			store := artifact.NewStore(cfg.ArtifactsDir, mirror, logger)
			orch := pipeline.New(cfg, engine.Build(cfg, store, logger), store, logger)

			req := pipeline.Request{
				Strategy:   name,
				City:       f.city,
				URL:        f.url,
				Pages:      f.pages,
				MaxDetails: f.details,
				Model:      f.model,
				Persist:    f.persist,
			}
			if cmd.Flags().Changed("headless") {
				req.Headless = &f.headless
			}

			report, err := orch.Run(ctx, req)
			if report != nil {
				printReport(cmd.OutOrStdout(), report)
			}
			return err
		},
	}

	fl := cmd.Flags()
	fl.IntVar(&f.pages, "pages", 0, "listing pages to visit (default MAX_PAGES)")
	fl.IntVar(&f.details, "details", 0, "detail records for llm-detail (default MAX_DETAILS)")
	fl.StringVar(&f.city, "city", "", "city from the catalog (default SCRAPER_CITY)")
	fl.StringVar(&f.url, "url", "", "listing URL for http and browser strategies (default TARGET_URL)")
	fl.StringVar(&f.model, "model", "", "chat model for llm strategies (default LLM_MODEL)")
	fl.BoolVar(&f.headless, "headless", false, "run the browser without a window (default HEADLESS)")
	fl.BoolVar(&f.persist, "persist", false, "write the list artifact for non-LLM strategies")
	return cmd
}

func strategyNames() []string {
	out := make([]string, 0, len(engine.Strategies()))
	for _, s := range engine.Strategies() {
		out = append(out, string(s))
	}
	return out
}

// strategyArg rejects an unknown strategy during argument validation, which
// cobra runs before any pre-run hook loads env files.
func strategyArg(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	_, err := engine.ParseStrategy(args[0])
	return err
}

func chooseStrategy(cmd *cobra.Command, args, names []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return "", fmt.Errorf("%w: none given, available options: %s", engine.ErrUnknownStrategy, strings.Join(names, ", "))
	}
	ui := &input.UI{Writer: cmd.ErrOrStderr(), Reader: cmd.InOrStdin()}
	return ui.Select("Select a scraping strategy", names, &input.Options{
		Default: string(engine.StrategyAPI),
		Loop:    true,
	})
}

func printReport(w io.Writer, r *pipeline.Report) {
	t := newTable(w)
	t.SetTitle("Run " + r.RunID)
	t.SetCaption(r.Summary())
	t.AppendRows([]table.Row{
		{"Strategy", r.Strategy},
		{"City", r.City},
		{"Records", r.Count},
		{"Artifact", r.ArtifactPath},
		{"Elapsed", r.Elapsed.Round(time.Millisecond)},
	})
	t.Render()

	if len(r.Items) > 0 {
		t := newTable(w)
		t.AppendHeader(table.Row{"#", "Name", "Rating", "URL"})
		for i, it := range r.Items[:min(len(r.Items), previewRows)] {
			rating := ""
			if it.Rating != nil {
				rating = fmt.Sprintf("%.1f", *it.Rating)
			}
			t.AppendRow(table.Row{i + 1, it.Name, rating, it.CanonicalURL})
		}
		if len(r.Items) > previewRows {
			t.AppendFooter(table.Row{"", fmt.Sprintf("%d more", len(r.Items)-previewRows), "", ""})
		}
		t.Render()
	}
	if len(r.Details) > 0 {
		t := newTable(w)
		t.AppendHeader(table.Row{"#", "Name", "Reviews", "Source"})
		for i, d := range r.Details[:min(len(r.Details), previewRows)] {
			t.AppendRow(table.Row{i + 1, d.Name, len(d.TopReviews), d.SourceURL})
		}
		t.Render()
	}
	for _, d := range r.Diagnostics {
		fmt.Fprintln(w, "!", d)
	}
}
