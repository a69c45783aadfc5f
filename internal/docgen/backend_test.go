package docgen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrompt() *Prompt {
	return (&PromptBuilder{}).Build(KindFunction, "add", "def add(a, b):\n    return a + b", "", StyleGoogle)
}

func TestNewBackend(t *testing.T) {
	ctx := context.Background()

	b, err := NewBackend(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, "ollama", b.Name())

	b, err = NewBackend(ctx, Options{Provider: "Offline"})
	require.NoError(t, err)
	assert.Equal(t, "offline", b.Name())

	b, err = NewBackend(ctx, Options{Provider: "openai", APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "openai", b.Name())

	t.Run("missing api key", func(t *testing.T) {
		for _, provider := range []string{"openai", "gemini"} {
			_, err := NewBackend(ctx, Options{Provider: provider})
			var setupErr *SetupError
			require.True(t, errors.As(err, &setupErr), provider)
			assert.Equal(t, provider, setupErr.Provider)
			assert.NotEmpty(t, setupErr.Hint)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewBackend(ctx, Options{Provider: "bard"})
		var setupErr *SetupError
		require.True(t, errors.As(err, &setupErr))
		assert.Contains(t, setupErr.Hint, "offline")
	})
}

func TestOllamaBackend_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req ollamaGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "phi3", req.Model)
		assert.False(t, req.Stream)
		assert.Equal(t, systemInstruction, req.System)
		assert.Contains(t, req.Prompt, "Function name: add")

		_ = json.NewEncoder(w).Encode(map[string]any{"response": "Add two numbers.", "done": true})
	}))
	defer srv.Close()

	b := NewOllamaBackend("phi3", srv.URL, srv.Client())
	got, err := b.Generate(context.Background(), testPrompt())
	require.NoError(t, err)
	assert.Equal(t, "Add two numbers.", got)
}

func TestOllamaBackend_Errors(t *testing.T) {
	t.Run("model missing", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"model 'llama9' not found"}`))
		}))
		defer srv.Close()

		_, err := NewOllamaBackend("llama9", srv.URL, srv.Client()).Generate(context.Background(), testPrompt())
		var setupErr *SetupError
		require.True(t, errors.As(err, &setupErr))
		assert.Contains(t, setupErr.Reason, "not available")
		assert.Equal(t, "Install the model with: ollama pull llama9", setupErr.Hint)
	})

	t.Run("server down", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewOllamaBackend("phi3", url, http.DefaultClient).Generate(context.Background(), testPrompt())
		var setupErr *SetupError
		require.True(t, errors.As(err, &setupErr))
		assert.Contains(t, setupErr.Hint, "ollama serve")
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewOllamaBackend("phi3", srv.URL, srv.Client()).Generate(context.Background(), testPrompt())
		var genErr *GenerationError
		require.True(t, errors.As(err, &genErr))
		assert.Contains(t, genErr.Reason, "500")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>proxy login</html>"))
		}))
		defer srv.Close()

		_, err := NewOllamaBackend("phi3", srv.URL, srv.Client()).Generate(context.Background(), testPrompt())
		var genErr *GenerationError
		require.True(t, errors.As(err, &genErr))
		assert.Equal(t, "malformed response", genErr.Reason)
	})
}

func TestOpenAIBackend_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openAIChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Add two numbers."}}]}`))
	}))
	defer srv.Close()

	b := NewOpenAIBackend("sk-test", "gpt-3.5-turbo", srv.URL, srv.Client())
	got, err := b.Generate(context.Background(), testPrompt())
	require.NoError(t, err)
	assert.Equal(t, "Add two numbers.", got)
}

func TestOpenAIBackend_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewOpenAIBackend("sk-bad", "gpt-3.5-turbo", srv.URL+"/v1", srv.Client()).Generate(context.Background(), testPrompt())
	var setupErr *SetupError
	require.True(t, errors.As(err, &setupErr))
	assert.Contains(t, setupErr.Reason, "401")
}

func TestNewOpenAIBackend_Endpoint(t *testing.T) {
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", NewOpenAIBackend("k", "m", "", nil).endpoint)
	assert.Equal(t, "http://local/v1/chat/completions", NewOpenAIBackend("k", "m", "http://local/v1/", nil).endpoint)
	assert.Equal(t, "http://local/v1/chat/completions", NewOpenAIBackend("k", "m", "http://local", nil).endpoint)
}

func TestGeminiBackend_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))

		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.NotEmpty(t, req.Contents[0].Parts)
		assert.Contains(t, req.Contents[0].Parts[0].Text, systemInstruction)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "Function name: add")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Add two numbers."}]}}]}`))
	}))
	defer srv.Close()

	b, err := NewGeminiBackend(context.Background(), "g-key", "gemini-test", srv.URL, srv.Client())
	require.NoError(t, err)
	got, err := b.Generate(context.Background(), testPrompt())
	require.NoError(t, err)
	assert.Equal(t, "Add two numbers.", got)
}

func TestGeminiBackend_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		setup  bool
		reason string
	}{
		{
			name:   "invalid api key",
			status: http.StatusBadRequest,
			body:   `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`,
			setup:  true,
			reason: "credentials rejected",
		},
		{
			name:   "permission denied",
			status: http.StatusForbidden,
			body:   `{"error":{"code":403,"message":"Permission denied.","status":"PERMISSION_DENIED"}}`,
			setup:  true,
			reason: "credentials rejected",
		},
		{
			name:   "unknown model",
			status: http.StatusNotFound,
			body:   `{"error":{"code":404,"message":"models/gemini-test is not found.","status":"NOT_FOUND"}}`,
			setup:  true,
			reason: "not available",
		},
		{
			name:   "bad request",
			status: http.StatusBadRequest,
			body:   `{"error":{"code":400,"message":"Request contains an invalid argument.","status":"INVALID_ARGUMENT"}}`,
			reason: "400",
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":{"code":500,"message":"Internal error.","status":"INTERNAL"}}`,
			reason: "500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			b, err := NewGeminiBackend(context.Background(), "g-key", "gemini-test", srv.URL, srv.Client())
			require.NoError(t, err)
			_, err = b.Generate(context.Background(), testPrompt())
			require.Error(t, err)

			var setupErr *SetupError
			var genErr *GenerationError
			if tt.setup {
				require.True(t, errors.As(err, &setupErr), err.Error())
				assert.False(t, errors.As(err, &genErr))
				assert.Contains(t, setupErr.Reason, tt.reason)
				assert.NotEmpty(t, setupErr.Hint)
				return
			}
			require.True(t, errors.As(err, &genErr), err.Error())
			assert.False(t, errors.As(err, &setupErr))
			assert.Contains(t, genErr.Reason, tt.reason)
		})
	}

	t.Run("server down", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		b, err := NewGeminiBackend(context.Background(), "g-key", "gemini-test", url, http.DefaultClient)
		require.NoError(t, err)
		_, err = b.Generate(context.Background(), testPrompt())
		var setupErr *SetupError
		require.True(t, errors.As(err, &setupErr), err.Error())
		assert.Contains(t, setupErr.Reason, "not reachable")
	})
}
