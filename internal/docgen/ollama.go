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

// OllamaBackend generates text with a local Ollama server.
type OllamaBackend struct {
	client   *http.Client
	model    string
	endpoint string
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func NewOllamaBackend(model, baseURL string, client *http.Client) *OllamaBackend {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = "http://127.0.0.1:11434"
	}
	url = strings.TrimRight(url, "/")
	if !strings.HasSuffix(url, "/api/generate") {
		url += "/api/generate"
	}
	return &OllamaBackend{
		client:   client,
		model:    model,
		endpoint: url,
	}
}

func (o *OllamaBackend) Name() string { return "ollama" }

func (o *OllamaBackend) Generate(ctx context.Context, p *Prompt) (string, error) {
	reqBody := ollamaGenerateRequest{
		Model:   o.model,
		Prompt:  p.Text,
		System:  p.System,
		Stream:  false,
		Options: map[string]any{"temperature": 0.2},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", requestFailure(ctx, o.Name(), o.endpoint,
			"Install Ollama from https://ollama.ai, start it with `ollama serve`, then pull a model: `ollama pull "+o.model+"`.", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GenerationError{Provider: o.Name(), Reason: "failed to read response", Err: err}
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	var parsed ollamaGenerateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil && ok {
		return "", &GenerationError{Provider: o.Name(), Reason: "malformed response", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", &SetupError{
			Provider: o.Name(),
			Reason:   fmt.Sprintf("model %q is not available", o.model),
			Hint:     fmt.Sprintf("Install the model with: ollama pull %s", o.model),
		}
	case !ok:
		return "", &GenerationError{
			Provider: o.Name(),
			Reason:   fmt.Sprintf("request failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(raw))),
		}
	case parsed.Error != "":
		return "", &GenerationError{Provider: o.Name(), Reason: parsed.Error}
	}
	return parsed.Response, nil
}
