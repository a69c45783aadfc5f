package docgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenAIBackend generates text with an OpenAI-compatible chat completions API.
type OpenAIBackend struct {
	client   *http.Client
	apiKey   string
	model    string
	endpoint string
}

type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIChatMessage `json:"message"`
	} `json:"choices"`
}

func NewOpenAIBackend(apiKey, model, baseURL string, client *http.Client) *OpenAIBackend {
	endpoint := strings.TrimSpace(baseURL)
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1/chat/completions"
	} else {
		endpoint = strings.TrimRight(endpoint, "/")
		if !strings.HasSuffix(endpoint, "/chat/completions") {
			if strings.HasSuffix(endpoint, "/v1") {
				endpoint += "/chat/completions"
			} else {
				endpoint += "/v1/chat/completions"
			}
		}
	}
	return &OpenAIBackend{
		client:   client,
		apiKey:   apiKey,
		model:    model,
		endpoint: endpoint,
	}
}

func (s *OpenAIBackend) Name() string { return "openai" }

func (s *OpenAIBackend) Generate(ctx context.Context, p *Prompt) (string, error) {
	reqBody := openAIChatRequest{
		Model: s.model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.Text},
		},
		Temperature: 0.3,
		MaxTokens:   500,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", requestFailure(ctx, s.Name(), s.endpoint, "Check generation.base_url and your network connection.", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GenerationError{Provider: s.Name(), Reason: "failed to read response", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &SetupError{
			Provider: s.Name(),
			Reason:   fmt.Sprintf("credentials rejected (%d)", resp.StatusCode),
			Hint:     "Check that the api key is valid for " + s.endpoint + ".",
		}
	case resp.StatusCode == http.StatusNotFound:
		return "", &SetupError{
			Provider: s.Name(),
			Reason:   fmt.Sprintf("model %q is not available", s.model),
			Hint:     "Set generation.model to a model your account can use.",
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", &GenerationError{
			Provider: s.Name(),
			Reason:   fmt.Sprintf("chat request failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw))),
		}
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &GenerationError{Provider: s.Name(), Reason: "malformed response", Err: err}
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}
