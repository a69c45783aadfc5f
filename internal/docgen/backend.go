package docgen

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Backend produces docstring text for a prompt.
type Backend interface {
	Name() string
	Generate(ctx context.Context, p *Prompt) (string, error)
}

// Options selects and configures a Backend.
type Options struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	// HTTPClient overrides the client used by the HTTP backends.
	HTTPClient *http.Client
}

const (
	defaultOllamaModel = "phi3"
	defaultOpenAIModel = "gpt-3.5-turbo"
	defaultGeminiModel = "gemini-2.0-flash"
)

// NewBackend builds the backend named by opts.Provider. An empty provider
// selects ollama. Unknown providers and missing credentials are SetupErrors.
func NewBackend(ctx context.Context, opts Options) (Backend, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "ollama"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 90 * time.Second}
	}

	switch provider {
	case "ollama":
		return NewOllamaBackend(withDefault(opts.Model, defaultOllamaModel), opts.BaseURL, client), nil
	case "openai":
		if strings.TrimSpace(opts.APIKey) == "" {
			return nil, &SetupError{
				Provider: provider,
				Reason:   "api key is not set",
				Hint:     "Set DOCUMIND_API_KEY or OPENAI_API_KEY, or add generation.api_key to the config file.",
			}
		}
		return NewOpenAIBackend(opts.APIKey, withDefault(opts.Model, defaultOpenAIModel), opts.BaseURL, client), nil
	case "gemini":
		if strings.TrimSpace(opts.APIKey) == "" {
			return nil, &SetupError{
				Provider: provider,
				Reason:   "api key is not set",
				Hint:     "Set DOCUMIND_API_KEY or GEMINI_API_KEY, or add generation.api_key to the config file.",
			}
		}
		return NewGeminiBackend(ctx, opts.APIKey, withDefault(opts.Model, defaultGeminiModel), opts.BaseURL, client)
	case "offline":
		return &OfflineBackend{}, nil
	default:
		return nil, &SetupError{
			Provider: provider,
			Reason:   "unsupported provider",
			Hint:     "Use one of: ollama, openai, gemini, offline.",
		}
	}
}

func withDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// requestFailure classifies an error from an HTTP round trip. A cancelled or
// expired context is a generation failure; anything else means the backend
// could not be reached.
func requestFailure(ctx context.Context, provider, endpoint, hint string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return &GenerationError{Provider: provider, Reason: "request did not complete", Err: err}
	}
	return &SetupError{
		Provider: provider,
		Reason:   "backend is not reachable at " + endpoint,
		Hint:     hint,
		Err:      err,
	}
}
