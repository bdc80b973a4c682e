package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/titanous/json5"
)

// City describes how to address one city's attraction listing.
// List page i lives at ListBaseURL + i*PageStep + ListSuffix.
type City struct {
	Name        string `json:"name"`
	ListBaseURL string `json:"listBaseUrl"`
	PageStep    int    `json:"pageStep"`
	ListSuffix  string `json:"listSuffix"`
	LatLong     string `json:"latLong,omitempty"`
}

// DefaultCities returns the built-in catalog keyed by lower-cased name.
func DefaultCities() map[string]City {
	return map[string]City{
		"chongqing": {
			Name:        "Chongqing",
			ListBaseURL: "https://www.tripadvisor.com/Attractions-g294213-Activities-oa",
			PageStep:    30,
			ListSuffix:  "-Chongqing.html",
			LatLong:     "29.5630,106.5516",
		},
	}
}

// LoadCities reads a json5 document of the form {"name": {City}, ...}.
func LoadCities(path string) (map[string]City, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cities file: %w", err)
	}
	var raw map[string]City
	if err := json5.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse cities file %s: %v", ErrInvalid, path, err)
	}

	out := make(map[string]City, len(raw))
	for key, c := range raw {
		if c.Name == "" {
			c.Name = key
		}
		if c.ListBaseURL == "" || c.PageStep <= 0 {
			return nil, fmt.Errorf("%w: city %q needs listBaseUrl and a positive pageStep", ErrInvalid, key)
		}
		out[strings.ToLower(key)] = c
	}
	return out, nil
}
