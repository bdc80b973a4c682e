package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/xsolare/trip-scheduler-scraper/internal/engine"
)

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the available scraping strategies",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Strategy", "Browser", "LLM", "Description"})
			for _, s := range engine.Strategies() {
				t.AppendRow(table.Row{s, yesNo(s.IsBrowser()), yesNo(s.IsLLM()), s.Describe()})
			}
			t.Render()
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
