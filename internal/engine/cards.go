package engine

import (
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/xsolare/trip-scheduler-scraper/internal/browser"
	"github.com/xsolare/trip-scheduler-scraper/internal/models"
)

var positionPrefix = regexp.MustCompile(`^\d+\.\s*`)

// ParseCards reads attraction cards out of server-rendered or browser-captured HTML.
func ParseCards(r io.Reader, sel browser.CardSelectors) ([]browser.RawCard, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	var cards []browser.RawCard
	doc.Find(sel.Card).Each(func(_ int, s *goquery.Selection) {
		cards = append(cards, cardFromSelection(s, sel))
	})
	return cards, nil
}

func cardFromSelection(s *goquery.Selection, sel browser.CardSelectors) browser.RawCard {
	img := s.Find(sel.Image).First()
	return browser.RawCard{
		Title:  strings.TrimSpace(s.Find(sel.Title).First().Text()),
		Href:   s.Find(sel.Link).First().AttrOr("href", ""),
		Src:    img.AttrOr("src", ""),
		Srcset: img.AttrOr("srcset", ""),
	}
}

// MapRawCards turns extracted cards into list items. Relative links are
// resolved against base; srcset wins over src when present.
func MapRawCards(cards []browser.RawCard, base string) []models.ListItem {
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		baseURL, _ = url.Parse(siteURL)
	}
	items := make([]models.ListItem, 0, len(cards))
	for _, c := range cards {
		it := models.ListItem{
			Name:         positionPrefix.ReplaceAllString(strings.TrimSpace(c.Title), ""),
			CanonicalURL: resolve(baseURL, c.Href),
		}
		img := browser.PickLargestSrcset(c.Srcset)
		if img == "" {
			img = c.Src
		}
		// Lazy-loaded cards carry data: placeholders until scrolled into view.
		if img = resolve(baseURL, img); strings.HasPrefix(img, "http") {
			it.ImageURLs = []string{img}
		}
		items = append(items, it)
	}
	return items
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
