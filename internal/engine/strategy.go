package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Strategy identifies one acquisition engine.
type Strategy string

const (
	StrategyAPI       Strategy = "api"
	StrategyHTTP      Strategy = "http"
	StrategyLLMList   Strategy = "llm-list"
	StrategyLLMDetail Strategy = "llm-detail"
	StrategyRod       Strategy = "rod"
	StrategyStealth   Strategy = "stealth"
	StrategyChromedp  Strategy = "chromedp"
)

var (
	// ErrUnknownStrategy is returned for identifiers outside the supported set.
	ErrUnknownStrategy = errors.New("unknown scraper strategy")

	// ErrOptionsMismatch is returned when an engine receives another engine's options.
	ErrOptionsMismatch = errors.New("options do not match engine")

	// ErrBrowserUnavailable is returned when no browser could be started.
	ErrBrowserUnavailable = errors.New("browser unavailable")
)

// Strategies lists every strategy in display order.
func Strategies() []Strategy {
	return []Strategy{StrategyAPI, StrategyHTTP, StrategyLLMList, StrategyLLMDetail, StrategyRod, StrategyStealth, StrategyChromedp}
}

// Describe returns a one-line description of s.
func (s Strategy) Describe() string {
	switch s {
	case StrategyAPI:
		return "TripAdvisor content API nearby search"
	case StrategyHTTP:
		return "single static HTTP fetch parsed with goquery"
	case StrategyLLMList:
		return "LLM list stage: discover attractions page by page"
	case StrategyLLMDetail:
		return "LLM detail stage: enrich the first N list entries"
	case StrategyRod:
		return "headless Chrome via go-rod with humanised pagination"
	case StrategyStealth:
		return "go-rod with stealth evasions and captcha pause"
	case StrategyChromedp:
		return "render with chromedp, then parse the page source"
	}
	return ""
}

// IsBrowser reports whether s drives a real browser.
func (s Strategy) IsBrowser() bool {
	return s == StrategyRod || s == StrategyStealth || s == StrategyChromedp
}

// IsLLM reports whether s is one of the LLM stages.
func (s Strategy) IsLLM() bool {
	return s == StrategyLLMList || s == StrategyLLMDetail
}

// ParseStrategy validates name. The error lists every valid identifier.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range Strategies() {
		if string(s) == name {
			return s, nil
		}
	}
	valid := make([]string, 0, len(Strategies()))
	for _, s := range Strategies() {
		valid = append(valid, string(s))
	}
	return "", fmt.Errorf("%w %q, available options: %s", ErrUnknownStrategy, name, strings.Join(valid, ", "))
}
