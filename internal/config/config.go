package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"documind/internal/docgen"
)

const DefaultPath = "documind.yaml"

type Config struct {
	Generation struct {
		Provider string   `yaml:"provider"`
		Model    string   `yaml:"model"`
		APIKey   string   `yaml:"api_key"`
		BaseURL  string   `yaml:"base_url"`
		Timeout  Duration `yaml:"timeout"`
		Style    string   `yaml:"style"`
	} `yaml:"generation"`
	Scan struct {
		Ignore  []string `yaml:"ignore"`
		Workers int      `yaml:"workers"`
	} `yaml:"scan"`
	Output struct {
		Format string `yaml:"format"`
	} `yaml:"output"`
}

// Duration reads a YAML duration string such as "90s" or "2m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Generation.Provider = "ollama"
	cfg.Generation.Timeout = Duration(90 * time.Second)
	cfg.Generation.Style = string(docgen.StyleGoogle)
	cfg.Scan.Ignore = []string{".git", ".venv", "venv", "__pycache__", "node_modules", "build", "dist"}
	cfg.Scan.Workers = 4
	cfg.Output.Format = "text"
	return &cfg
}

// LoadConfig reads .env, then the YAML file at path over the defaults, then
// the DOCUMIND_* environment variables. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config
	cfg := Default()
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	// 3. Override with Environment Variables if present
	overrides := []struct {
		env    string
		target *string
	}{
		{"DOCUMIND_PROVIDER", &cfg.Generation.Provider},
		{"DOCUMIND_MODEL", &cfg.Generation.Model},
		{"DOCUMIND_API_KEY", &cfg.Generation.APIKey},
		{"DOCUMIND_BASE_URL", &cfg.Generation.BaseURL},
		{"DOCUMIND_STYLE", &cfg.Generation.Style},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
	}
	if cfg.Generation.APIKey == "" {
		switch strings.ToLower(cfg.Generation.Provider) {
		case "openai":
			cfg.Generation.APIKey = os.Getenv("OPENAI_API_KEY")
		case "gemini":
			cfg.Generation.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}

	if cfg.Scan.Workers <= 0 {
		cfg.Scan.Workers = 1
	}
	if cfg.Generation.Timeout <= 0 {
		cfg.Generation.Timeout = Duration(90 * time.Second)
	}
	return cfg, nil
}

// BackendOptions converts the generation section for docgen.NewBackend.
func (c *Config) BackendOptions() docgen.Options {
	return docgen.Options{
		Provider: c.Generation.Provider,
		Model:    c.Generation.Model,
		APIKey:   c.Generation.APIKey,
		BaseURL:  c.Generation.BaseURL,
	}
}

func (c *Config) Timeout() time.Duration { return time.Duration(c.Generation.Timeout) }

func (c *Config) Style() docgen.Style { return docgen.ParseStyle(c.Generation.Style) }
