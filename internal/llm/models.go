// Package llm wraps chat-completion calls used for attraction extraction:
// a closed set of models, provider resolution, and lenient decoding of the
// JSON the models return.
package llm

import (
	"fmt"
	"strings"
)

// Model is a chat model the extractor is allowed to use.
type Model string

const (
	Gemini25Pro     Model = "gemini-2.5-pro"
	GeminiFlash     Model = "gemini-flash-latest"
	GeminiFlashLite Model = "gemini-flash-lite-latest"
	GPT4o           Model = "gpt-4o"
	GPT4oMini       Model = "gpt-4o-mini"
)

// Models lists every supported model in display order.
func Models() []Model {
	return []Model{Gemini25Pro, GeminiFlash, GeminiFlashLite, GPT4o, GPT4oMini}
}

// ParseModel validates name against the supported set.
func ParseModel(name string) (Model, error) {
	for _, m := range Models() {
		if string(m) == name {
			return m, nil
		}
	}
	names := make([]string, 0, len(Models()))
	for _, m := range Models() {
		names = append(names, string(m))
	}
	return "", fmt.Errorf("%w: %q. Available chat models: %s", ErrUnknownModel, name, strings.Join(names, ", "))
}

// Provider is an OpenAI-compatible chat-completions endpoint.
type Provider string

const (
	ProviderHubMix Provider = "hubmix"
	ProviderOpenAI Provider = "openai"
)

// DefaultProvider serves any model whose own provider is unavailable.
const DefaultProvider = ProviderHubMix

// DefaultProviders maps each model to the provider that serves it.
func DefaultProviders() map[Model]Provider {
	return map[Model]Provider{
		Gemini25Pro:     ProviderHubMix,
		GeminiFlash:     ProviderHubMix,
		GeminiFlashLite: ProviderHubMix,
		GPT4o:           ProviderOpenAI,
		GPT4oMini:       ProviderOpenAI,
	}
}

// Endpoint is where and how to reach a provider.
type Endpoint struct {
	APIKey  string
	BaseURL string
}

// Credentials holds the endpoints configured for each provider.
type Credentials map[Provider]Endpoint

// ResolveOptions tunes Resolve. The zero value uses DefaultProviders and
// falls back to DefaultProvider with Fallback set.
type ResolveOptions struct {
	Providers map[Model]Provider
	// Strict turns a provider fallback into an error.
	Strict bool
}

// Resolution is the outcome of resolving a model to a concrete endpoint.
type Resolution struct {
	Model    Model
	Provider Provider
	Endpoint Endpoint
	// Fallback is set when the model's own provider could not be used.
	Fallback bool
	// Reason explains a fallback.
	Reason string
}

// Resolve picks the provider and credentials for modelName. An unknown model
// is always an error. A model without a usable provider falls back to
// DefaultProvider unless opts.Strict is set. The result must carry both an
// API key and a base URL.
func Resolve(modelName string, creds Credentials, opts ResolveOptions) (Resolution, error) {
	model, err := ParseModel(modelName)
	if err != nil {
		return Resolution{}, err
	}
	table := opts.Providers
	if table == nil {
		table = DefaultProviders()
	}

	res := Resolution{Model: model}
	provider, mapped := table[model]
	ep, configured := creds[provider]
	switch {
	case !mapped:
		res.Reason = fmt.Sprintf("no provider mapped for model %s", model)
	case !configured || ep.APIKey == "":
		res.Reason = fmt.Sprintf("provider %s has no credentials", provider)
	default:
		res.Provider, res.Endpoint = provider, ep
	}

	if res.Reason != "" {
		switch {
		case mapped && provider == DefaultProvider:
			return Resolution{}, fmt.Errorf("%w: %s needs AI_HUBMIX_KEY and AI_HUBMIX_API_URL", ErrMissingCredentials, provider)
		case opts.Strict:
			return Resolution{}, fmt.Errorf("%w: %s", ErrProviderFallback, res.Reason)
		}
		res.Fallback = true
		res.Provider, res.Endpoint = DefaultProvider, creds[DefaultProvider]
	}

	if res.Endpoint.APIKey == "" || res.Endpoint.BaseURL == "" {
		return Resolution{}, fmt.Errorf("%w: provider %s needs an API key and base URL", ErrMissingCredentials, res.Provider)
	}
	return res, nil
}
