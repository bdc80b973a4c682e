package engine

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xsolare/trip-scheduler-scraper/internal/browser"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestParseStrategy(t *testing.T) {
	for _, s := range Strategies() {
		got, err := ParseStrategy(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
		assert.NotEmpty(t, s.Describe())
	}

	_, err := ParseStrategy("selenium")
	require.ErrorIs(t, err, ErrUnknownStrategy)
	for _, s := range Strategies() {
		assert.Contains(t, err.Error(), string(s))
	}
}

func TestStrategyKinds(t *testing.T) {
	tests := []struct {
		s       Strategy
		browser bool
		llm     bool
	}{
		{StrategyAPI, false, false},
		{StrategyHTTP, false, false},
		{StrategyLLMList, false, true},
		{StrategyLLMDetail, false, true},
		{StrategyRod, true, false},
		{StrategyStealth, true, false},
		{StrategyChromedp, true, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.s), func(t *testing.T) {
			assert.Equal(t, tt.browser, tt.s.IsBrowser())
			assert.Equal(t, tt.llm, tt.s.IsLLM())
		})
	}
}

type countingEngine struct{ calls int }

func (c *countingEngine) Acquire(context.Context, Options) (*Result, error) {
	c.calls++
	return &Result{}, nil
}

func TestRegistry(t *testing.T) {
	e := &countingEngine{}
	r := NewRegistry().Register(StrategyHTTP, e)

	got, err := r.Get(StrategyHTTP)
	require.NoError(t, err)
	_, err = got.Acquire(context.Background(), StaticOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, e.calls)

	_, err = r.Get(StrategyRod)
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestOptionsMismatch(t *testing.T) {
	engines := map[string]Engine{
		"api":      NewAPIEngine("http://127.0.0.1:0", 0, quietLogger()),
		"static":   NewStaticEngine(0, false, quietLogger()),
		"browser":  NewBrowserEngine(StrategyRod, BrowserConfig{}, quietLogger()),
		"chromedp": NewChromedpEngine(ChromedpConfig{}, quietLogger()),
		"llm":      NewLLMEngine(nil, nil, nil, quietLogger()),
	}
	for name, e := range engines {
		t.Run(name, func(t *testing.T) {
			_, err := e.Acquire(context.Background(), struct{ APIOptions }{})
			assert.ErrorIs(t, err, ErrOptionsMismatch)
		})
	}
}

const listingHTML = `<html><body>
<div data-part="ListSections">
  <div data-automation="cardWrapper">
    <a href="/Attraction_Review-g294213-d1-Reviews-Hongyadong.html">
      <div class="VLKGO"><h3>1. Hongyadong</h3></div>
    </a>
    <picture><img src="https://media.example.com/small.jpg" srcset="https://media.example.com/a.jpg 1x, https://media.example.com/b.jpg 2x"></picture>
  </div>
  <div data-automation="cardWrapper">
    <a href="https://www.tripadvisor.com/Attraction_Review-g294213-d2-Reviews-Ciqikou.html">
      <div class="VLKGO"><h3>2. Ciqikou Ancient Town</h3></div>
    </a>
    <picture><img src="data:image/svg+xml;base64,AAAA"></picture>
  </div>
  <div data-automation="cardWrapper">
    <div class="VLKGO"><h3>3. Ad slot</h3></div>
  </div>
</div>
</body></html>`

func TestParseCards(t *testing.T) {
	cards, err := ParseCards(strings.NewReader(listingHTML), CardSelectors)
	require.NoError(t, err)
	require.Len(t, cards, 3)
	assert.Equal(t, "1. Hongyadong", cards[0].Title)
	assert.Equal(t, "/Attraction_Review-g294213-d1-Reviews-Hongyadong.html", cards[0].Href)
	assert.Contains(t, cards[0].Srcset, "b.jpg 2x")
	assert.Empty(t, cards[2].Href)
}

func TestMapRawCards(t *testing.T) {
	cards := []browser.RawCard{
		{Title: " 12. Hongyadong ", Href: "/Attraction_Review-g294213-d1.html", Src: "https://m.example.com/s.jpg", Srcset: "https://m.example.com/a.jpg 300w, https://m.example.com/b.jpg 1200w"},
		{Title: "Eling Park", Href: "/Attraction_Review-g294213-d3.html", Src: "/img/eling.jpg"},
		{Title: "Lazy", Href: "/Attraction_Review-g294213-d4.html", Src: "data:image/gif;base64,R0lG"},
	}
	items := MapRawCards(cards, "https://www.tripadvisor.com/Attractions-g294213-Activities-oa0-Chongqing.html")
	require.Len(t, items, 3)

	assert.Equal(t, "Hongyadong", items[0].Name)
	assert.Equal(t, "https://www.tripadvisor.com/Attraction_Review-g294213-d1.html", items[0].CanonicalURL)
	assert.Equal(t, []string{"https://m.example.com/b.jpg"}, items[0].ImageURLs)

	assert.Equal(t, []string{"https://www.tripadvisor.com/img/eling.jpg"}, items[1].ImageURLs)
	assert.Empty(t, items[2].ImageURLs)
}
