package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xsolare/trip-scheduler-scraper/internal/engine"
	"github.com/xsolare/trip-scheduler-scraper/internal/models"
	"github.com/xsolare/trip-scheduler-scraper/internal/pipeline"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "error")
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStrategiesCommand(t *testing.T) {
	out, err := execute(t, "strategies")
	require.NoError(t, err)
	for _, s := range engine.Strategies() {
		assert.Contains(t, out, string(s))
		assert.Contains(t, out, s.Describe())
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "attractions-scraper dev")
}

func TestRunRejectsUnknownStrategy(t *testing.T) {
	t.Setenv("ARTIFACTS_DIR", t.TempDir())
	_, err := execute(t, "run", "selenium")
	require.ErrorIs(t, err, engine.ErrUnknownStrategy)
	assert.True(t, pipeline.IsConfigError(err))
	assert.Contains(t, err.Error(), "llm-detail")
}

func TestRunRejectsUnknownStrategyBeforeLoadingEnv(t *testing.T) {
	t.Setenv("ARTIFACTS_DIR", t.TempDir())
	// A directory passes the existence check but cannot be parsed as dotenv.
	_, err := execute(t, "--env-file", t.TempDir(), "run", "selenium")
	require.ErrorIs(t, err, engine.ErrUnknownStrategy)

	_, err = execute(t, "--env-file", t.TempDir(), "run", "http")
	require.Error(t, err)
	assert.NotErrorIs(t, err, engine.ErrUnknownStrategy)
	assert.Contains(t, err.Error(), "load env files")
}

func TestPrintReport(t *testing.T) {
	rating := 4.5
	items := make([]models.ListItem, 12)
	for i := range items {
		items[i] = models.ListItem{Name: "Attraction", CanonicalURL: "https://www.tripadvisor.com/Attraction_Review-g1"}
	}
	items[0].Name, items[0].Rating = "Hongyadong", &rating

	var out bytes.Buffer
	printReport(&out, &pipeline.Report{
		RunID:       "01J00000000000000000000000",
		Strategy:    engine.StrategyRod,
		City:        "Chongqing",
		Count:       len(items),
		Items:       items,
		Diagnostics: []string{"page 2: cards_timeout: timed out"},
		Elapsed:     1500 * time.Millisecond,
	})
	s := out.String()
	assert.Contains(t, s, "Hongyadong")
	assert.Contains(t, s, "4.5")
	assert.Contains(t, strings.ToUpper(s), "2 MORE")
	assert.Contains(t, s, "! page 2: cards_timeout")
	assert.Contains(t, s, "rod: 12 records in 1.5s (1 diagnostics)")
}
