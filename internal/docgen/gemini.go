package docgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/genai"
)

const geminiKeyHint = "Check the Gemini api key (DOCUMIND_API_KEY or GEMINI_API_KEY)."

// GeminiBackend generates text with the Gemini API.
type GeminiBackend struct {
	client  *genai.Client
	model   string
	baseURL string
}

// NewGeminiBackend creates a Gemini client. baseURL and client are optional
// overrides of the API endpoint and the HTTP client.
func NewGeminiBackend(ctx context.Context, apiKey, model, baseURL string, client *http.Client) (*GeminiBackend, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: client,
	}
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
		cfg.HTTPOptions.BaseURL = baseURL
	}
	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, &SetupError{
			Provider: "gemini",
			Reason:   "failed to create genai client",
			Hint:     geminiKeyHint,
			Err:      err,
		}
	}
	return &GeminiBackend{client: gc, model: model, baseURL: baseURL}, nil
}

func (g *GeminiBackend) Name() string { return "gemini" }

func (g *GeminiBackend) Generate(ctx context.Context, p *Prompt) (string, error) {
	contents := genai.Text(p.System + "\n\n" + p.Text)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", g.classify(ctx, err)
	}
	return resp.Text(), nil
}

// classify maps SDK errors onto SetupError and GenerationError. Rejected
// credentials, unknown models and unreachable endpoints are setup problems.
func (g *GeminiBackend) classify(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden,
			apiErr.Code == http.StatusBadRequest && isKeyRejection(apiErr):
			return &SetupError{
				Provider: g.Name(),
				Reason:   fmt.Sprintf("credentials rejected (%d)", apiErr.Code),
				Hint:     geminiKeyHint,
				Err:      err,
			}
		case apiErr.Code == http.StatusNotFound:
			return &SetupError{
				Provider: g.Name(),
				Reason:   fmt.Sprintf("model %q is not available", g.model),
				Hint:     "Set generation.model to a Gemini model your key can use.",
				Err:      err,
			}
		}
		return &GenerationError{
			Provider: g.Name(),
			Reason:   fmt.Sprintf("generate content failed (%d)", apiErr.Code),
			Err:      err,
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) || ctx.Err() != nil {
		endpoint := g.baseURL
		if endpoint == "" {
			endpoint = "the Gemini API"
		}
		return requestFailure(ctx, g.Name(), endpoint, "Check generation.base_url and your network connection.", err)
	}
	return &GenerationError{Provider: g.Name(), Reason: "generate content", Err: err}
}

func isKeyRejection(apiErr genai.APIError) bool {
	msg := strings.ToLower(apiErr.Message)
	if strings.Contains(msg, "api key") || strings.Contains(msg, "api_key") {
		return true
	}
	for _, d := range apiErr.Details {
		if reason, _ := d["reason"].(string); reason == "API_KEY_INVALID" {
			return true
		}
	}
	return false
}
