package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/purell"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidRecord wraps every per-record validation failure.
var ErrInvalidRecord = errors.New("invalid record")

var validate = validator.New(validator.WithRequiredStructEnabled())

const urlFlags = purell.FlagsSafe | purell.FlagRemoveFragment | purell.FlagRemoveDuplicateSlashes

// NormalizeURL canonicalises an absolute URL. Unparseable input is returned
// unchanged so that validation can reject it.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	n, err := purell.NormalizeURLString(raw, urlFlags)
	if err != nil {
		return raw
	}
	return n
}

// NormalizeListItem trims text fields and canonicalises URLs. It never drops data.
func NormalizeListItem(it ListItem) ListItem {
	it.Name = strings.TrimSpace(it.Name)
	it.Category = strings.TrimSpace(it.Category)
	it.ReviewSnippet = strings.TrimSpace(it.ReviewSnippet)
	it.CanonicalURL = NormalizeURL(it.CanonicalURL)
	if len(it.ImageURLs) > 0 {
		imgs := make([]string, 0, len(it.ImageURLs))
		for _, u := range it.ImageURLs {
			if u = NormalizeURL(u); u != "" {
				imgs = append(imgs, u)
			}
		}
		it.ImageURLs = imgs
	}
	return it
}

// ValidateListItem reports why a single normalised item is invalid, or nil.
func ValidateListItem(it ListItem) error {
	if err := validate.Struct(it); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, describe(err))
	}
	return nil
}

// ValidateListItems normalises and validates a raw batch. Invalid records are
// excluded and described in the report; the call itself cannot fail.
func ValidateListItems(raw []ListItem) ValidationReport {
	report := ValidationReport{Valid: make([]ListItem, 0, len(raw))}
	for i, r := range raw {
		it := NormalizeListItem(r)
		if err := ValidateListItem(it); err != nil {
			report.Rejected = append(report.Rejected, Rejection{Index: i, Name: it.Name, Reason: err.Error()})
			continue
		}
		report.Valid = append(report.Valid, it)
	}
	return report
}

// ValidateDetailItem trims and validates one detail record in place.
func ValidateDetailItem(d *DetailItem) error {
	if d == nil {
		return fmt.Errorf("%w: empty detail", ErrInvalidRecord)
	}
	d.Name = strings.TrimSpace(d.Name)
	d.SourceURL = NormalizeURL(d.SourceURL)
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecord, describe(err))
	}
	return nil
}

// UnmarshalJSON accepts the model-facing "location_name" key as well as "name".
func (d *DetailItem) UnmarshalJSON(data []byte) error {
	type plain DetailItem
	aux := struct {
		*plain
		LocationName string `json:"location_name"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if d.Name == "" {
		d.Name = aux.LocationName
	}
	return nil
}

// UnmarshalJSON also accepts the location_name, url and imageUrl spellings
// some models answer with.
func (it *ListItem) UnmarshalJSON(data []byte) error {
	type plain ListItem
	aux := struct {
		*plain
		LocationName string   `json:"location_name"`
		URL          string   `json:"url"`
		ImageURL     []string `json:"imageUrl"`
	}{plain: (*plain)(it)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if it.Name == "" {
		it.Name = aux.LocationName
	}
	if it.CanonicalURL == "" {
		it.CanonicalURL = aux.URL
	}
	if len(it.ImageURLs) == 0 {
		it.ImageURLs = aux.ImageURL
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
