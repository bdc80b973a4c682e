package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xsolare/trip-scheduler-scraper/internal/artifact"
	"github.com/xsolare/trip-scheduler-scraper/internal/config"
	"github.com/xsolare/trip-scheduler-scraper/internal/llm"
	"github.com/xsolare/trip-scheduler-scraper/internal/models"
)

var chongqing = config.DefaultCities()["chongqing"]

// scriptedLLM answers by matching a substring of the user prompt.
type scriptedLLM struct {
	mu      sync.Mutex
	answers map[string]string
	prompts []string
}

func (s *scriptedLLM) Complete(_ context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, req.User)
	for needle, answer := range s.answers {
		if strings.Contains(req.User, needle) {
			if answer == "!error" {
				return "", errors.New("provider exploded")
			}
			return answer, nil
		}
	}
	return "", errors.New("no scripted answer")
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func listJSON(names ...string) string {
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf(`{"name":%q,"canonicalUrl":"https://www.tripadvisor.com/Attraction_Review-g294213-%s.html","rating":4.5}`, n, n))
	}
	return "```json\n[" + strings.Join(parts, ",") + "]\n```"
}

func TestPageURL(t *testing.T) {
	assert.Equal(t, "https://www.tripadvisor.com/Attractions-g294213-Activities-oa0-Chongqing.html", PageURL(chongqing, 0))
	assert.Equal(t, "https://www.tripadvisor.com/Attractions-g294213-Activities-oa60-Chongqing.html", PageURL(chongqing, 2))
}

func TestCatalogLookup(t *testing.T) {
	cat := Catalog(config.DefaultCities())
	c, err := cat.Lookup(" CHONGQING ")
	require.NoError(t, err)
	assert.Equal(t, "Chongqing", c.Name)

	_, err = cat.Lookup("Atlantis")
	require.ErrorIs(t, err, ErrUnknownCity)
	assert.Contains(t, err.Error(), "Chongqing")
}

func TestListStageIsolatesFailingPages(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), nil, quietLogger())
	fake := &scriptedLLM{answers: map[string]string{
		"oa0-":  listJSON("HongyaCave", "Jiefangbei"),
		"oa30-": "I'm sorry, I can't browse.",
		"oa60-": listJSON("Ciqikou", "HongyaCave"),
	}}

	out, err := NewListStage(fake, store, quietLogger()).Run(context.Background(), chongqing, 3)
	require.NoError(t, err)

	names := make([]string, 0, len(out.Items))
	for _, it := range out.Items {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"HongyaCave", "Jiefangbei", "Ciqikou"}, names)
	require.Len(t, out.Failures, 1)
	assert.Contains(t, out.Failures[0].Unit, "oa30-")
	assert.Equal(t, store.Path("Chongqing", artifact.KindList), out.Path)

	require.Len(t, fake.prompts, 3)
	assert.Contains(t, fake.prompts[0], "oa0-Chongqing.html")
	assert.Contains(t, fake.prompts[1], "oa30-Chongqing.html")
	assert.Contains(t, fake.prompts[2], "oa60-Chongqing.html")

	var onDisk []models.ListItem
	require.NoError(t, store.Read("Chongqing", artifact.KindList, &onDisk))
	assert.Equal(t, out.Items, onDisk)
}

func TestListStageDropsInvalidRecordsOnly(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), nil, quietLogger())
	fake := &scriptedLLM{answers: map[string]string{
		"oa0-": `[{"name":"Good","canonicalUrl":"https://www.tripadvisor.com/g"},{"name":"Bad","canonicalUrl":"/relative"}]`,
		"oa30-": `[{"name":"AlsoBad"}]`,
	}}

	out, err := NewListStage(fake, store, quietLogger()).Run(context.Background(), chongqing, 2)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Good", out.Items[0].Name)
	require.Len(t, out.Failures, 1)
	assert.Contains(t, out.Failures[0].Reason, "failed validation")
}

func TestListStageOverwritesArtifact(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), nil, quietLogger())
	ctx := context.Background()

	first := &scriptedLLM{answers: map[string]string{"oa0-": listJSON("A", "B", "C")}}
	_, err := NewListStage(first, store, quietLogger()).Run(ctx, chongqing, 1)
	require.NoError(t, err)

	second := &scriptedLLM{answers: map[string]string{"oa0-": listJSON("Z")}}
	out, err := NewListStage(second, store, quietLogger()).Run(ctx, chongqing, 1)
	require.NoError(t, err)

	var onDisk []models.ListItem
	require.NoError(t, store.Read("Chongqing", artifact.KindList, &onDisk))
	assert.Equal(t, out.Items, onDisk)
	require.Len(t, onDisk, 1)
	assert.Equal(t, "Z", onDisk[0].Name)
}

func TestListStageLeavesArtifactWhenNothingExtracted(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), nil, quietLogger())
	ctx := context.Background()

	_, err := store.Write(ctx, "Chongqing", artifact.KindList, []models.ListItem{{Name: "Keep", CanonicalURL: "https://www.tripadvisor.com/k"}})
	require.NoError(t, err)

	fake := &scriptedLLM{answers: map[string]string{"oa0-": "!error"}}
	out, err := NewListStage(fake, store, quietLogger()).Run(ctx, chongqing, 1)
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Empty(t, out.Path)

	var onDisk []models.ListItem
	require.NoError(t, store.Read("Chongqing", artifact.KindList, &onDisk))
	assert.Equal(t, "Keep", onDisk[0].Name)
}

func detailJSON(name string) string {
	return fmt.Sprintf(`{"location_name":%q,"description":"nice","address":{"street":null,"city":"Chongqing","country":"China"},"openingHours":null,"suggestedDuration":"1-2 hours","rating":4.5,"topReviews":[{"title":"t","text":"x","author":"a","rating":5}]}`, name)
}

func TestDetailStageReadsOnlyBudgetedPrefix(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), nil, quietLogger())
	ctx := context.Background()

	list := make([]models.ListItem, 10)
	answers := map[string]string{}
	for i := range list {
		name := fmt.Sprintf("Attraction%02d", i)
		list[i] = models.ListItem{Name: name, CanonicalURL: "https://www.tripadvisor.com/Attraction_Review-" + name + ".html"}
		answers["Attraction_Review-"+name+".html"] = detailJSON(name)
	}
	_, err := store.Write(ctx, "Chongqing", artifact.KindList, list)
	require.NoError(t, err)

	fake := &scriptedLLM{answers: answers}
	out, err := NewDetailStage(fake, store, quietLogger()).Run(ctx, chongqing, 3)
	require.NoError(t, err)

	require.Len(t, out.Details, 3)
	require.Len(t, fake.prompts, 3)
	for i := range 3 {
		assert.Contains(t, fake.prompts[i], list[i].CanonicalURL)
		assert.Equal(t, list[i].Name, out.Details[i].Name)
		assert.Equal(t, list[i].CanonicalURL, out.Details[i].SourceURL)
	}

	var onDisk []models.DetailItem
	require.NoError(t, store.Read("Chongqing", artifact.KindDetails, &onDisk))
	assert.Len(t, onDisk, 3)
}

func TestDetailStageSkipsFailingItems(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), nil, quietLogger())
	ctx := context.Background()

	list := []models.ListItem{
		{Name: "A", CanonicalURL: "https://www.tripadvisor.com/A.html"},
		{Name: "NoURL"},
		{Name: "B", CanonicalURL: "https://www.tripadvisor.com/B.html"},
		{Name: "C", CanonicalURL: "https://www.tripadvisor.com/C.html"},
	}
	_, err := store.Write(ctx, "Chongqing", artifact.KindList, list)
	require.NoError(t, err)

	fake := &scriptedLLM{answers: map[string]string{
		"/A.html": detailJSON("A"),
		"/B.html": "not json at all",
		"/C.html": `{"location_name":"C","topReviews":[{"title":"only title"}]}`,
	}}
	out, err := NewDetailStage(fake, store, quietLogger()).Run(ctx, chongqing, 10)
	require.NoError(t, err)

	require.Len(t, out.Details, 1)
	assert.Equal(t, "A", out.Details[0].Name)
	assert.Len(t, out.Failures, 2)
	assert.Len(t, fake.prompts, 3)
}

func TestDetailStageRequiresListArtifact(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), nil, quietLogger())
	fake := &scriptedLLM{}

	_, err := NewDetailStage(fake, store, quietLogger()).Run(context.Background(), chongqing, 5)
	assert.ErrorIs(t, err, artifact.ErrNotFound)
	assert.Empty(t, fake.prompts)

	_, statErr := os.Stat(store.Path("Chongqing", artifact.KindDetails))
	assert.True(t, os.IsNotExist(statErr))
}
