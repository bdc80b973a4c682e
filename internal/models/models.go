// Package models defines the attraction records produced by every acquisition
// strategy and the rules that decide whether a raw record is kept.
package models

// ListItem is one attraction discovered on a listing page.
type ListItem struct {
	Name          string   `json:"name" validate:"required"`
	Rating        *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	Category      string   `json:"category,omitempty"`
	CanonicalURL  string   `json:"canonicalUrl" validate:"required,http_url"`
	ImageURLs     []string `json:"imageUrls,omitempty" validate:"omitempty,dive,http_url"`
	ReviewSnippet string   `json:"reviewSnippet,omitempty"`
}

// Address is the structured location of an attraction. Any part may be unknown.
type Address struct {
	Street  *string `json:"street"`
	City    *string `json:"city"`
	Country *string `json:"country"`
}

// Review is one visitor review quoted on a detail page.
type Review struct {
	Title  string   `json:"title" validate:"required"`
	Text   string   `json:"text" validate:"required"`
	Author string   `json:"author" validate:"required"`
	Rating *float64 `json:"rating" validate:"required"`
}

// DetailItem is the enriched record for a single attraction.
type DetailItem struct {
	Name              string   `json:"name" validate:"required"`
	Description       *string  `json:"description"`
	Address           *Address `json:"address"`
	OpeningHours      *string  `json:"openingHours"`
	SuggestedDuration *string  `json:"suggestedDuration"`
	Rating            *float64 `json:"rating"`
	TopReviews        []Review `json:"topReviews" validate:"omitempty,dive"`
	SourceURL         string   `json:"sourceUrl,omitempty" validate:"omitempty,http_url"`
}

// Rejection explains why a raw record was dropped.
type Rejection struct {
	Index  int    `json:"index"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// ValidationReport splits a raw batch into kept and dropped records.
type ValidationReport struct {
	Valid    []ListItem
	Rejected []Rejection
}
