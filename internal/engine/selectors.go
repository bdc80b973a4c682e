package engine

import (
	"github.com/xsolare/trip-scheduler-scraper/internal/browser"
	"github.com/xsolare/trip-scheduler-scraper/internal/session"
)

const siteURL = "https://www.tripadvisor.com"

const chromeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

// CardSelectors locate the fields of one attraction card on a listing page.
var CardSelectors = browser.CardSelectors{
	Card:  `div[data-part="ListSections"] div[data-automation="cardWrapper"]`,
	Link:  `a[href*="/Attraction_Review-"]`,
	Title: `.VLKGO h3`,
	Image: `picture > img`,
}

// SessionSelectors are the landmarks the session controller reacts to.
var SessionSelectors = session.Selectors{
	Cards:   CardSelectors.Card,
	Next:    `a[data-smoke-attr="pagination-next-arrow"]`,
	Captcha: `iframe[title="Verification puzzle"]`,
	Consent: []string{
		`#onetrust-accept-btn-handler`,
		`button[id*="onetrust-accept"]`,
		`button#didomi-notice-agree-button`,
		`button[data-testid="accept-cookies"]`,
		`button[aria-label*="Accept"]`,
	},
}

// Accept-Encoding is left to net/http so responses are decompressed transparently.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
	"Accept-Language":           "en-US,en;q=0.9",
	"Cache-Control":             "max-age=0",
	"Sec-Ch-Ua":                 `"Google Chrome";v="125", "Chromium";v="125", "Not.A/Brand";v="24"`,
	"Sec-Ch-Ua-Mobile":          "?0",
	"Sec-Ch-Ua-Platform":        `"Windows"`,
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Upgrade-Insecure-Requests": "1",
	"Referer":                   "https://www.google.com/",
}
