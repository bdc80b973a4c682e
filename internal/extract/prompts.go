package extract

import (
	"strings"
	"text/template"
)

const listSystemPrompt = "You are an expert web scraper. Your task is to fetch content from a URL, extract structured data, and return it in JSON format. You must follow all instructions with extreme precision, especially regarding URL formats."

const detailSystemPrompt = "You are an expert web scraper. Your task is to fetch content from a URL, extract structured data, and return it as a single JSON object."

var listPrompt = template.Must(template.New("list").Parse(`
Fetch the TripAdvisor attractions listing for {{.City}} at the URL below and extract every attraction card shown on that page.

**Web Page URL:** ` + "`{{.URL}}`" + `

Return a JSON array. Each element must have exactly these keys:
- "name": the attraction name without its list position prefix (string)
- "rating": the bubble rating out of 5 (number or null)
- "category": the category label shown on the card (string or null)
- "canonicalUrl": the absolute attraction URL, beginning with https://www.tripadvisor.com/Attraction_Review- (string)
- "imageUrls": absolute image URLs shown on the card (array of strings or null)
- "reviewSnippet": the short review quote on the card, if any (string or null)

Never invent URLs. Omit a card rather than guess its canonicalUrl.
`))

var detailPrompt = template.Must(template.New("detail").Parse(`
Fetch and analyse the TripAdvisor attraction page at the URL below and extract its details.

**Web Page URL:** ` + "`{{.URL}}`" + `

Return one JSON object:
{
  "location_name": "string",
  "description": "string | null",
  "address": { "street": "string | null", "city": "string | null", "country": "string | null" },
  "openingHours": "string | null",
  "suggestedDuration": "string | null",
  "rating": "number | null",
  "topReviews": [ { "title": "string", "text": "string", "author": "string", "rating": "number" } ]
}

- location_name: the main name of the attraction.
- description: the full text of the "About" section.
- address: the address split into components.
- openingHours and suggestedDuration: as shown on the page.
- rating: the overall bubble rating, e.g. 4.5.
- topReviews: the 2-3 most relevant reviews.
`))

type promptData struct {
	City string
	URL  string
}

func render(t *template.Template, data promptData) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}
