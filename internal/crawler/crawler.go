package crawler

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-enry/go-enry/v2"
	"golang.org/x/sync/errgroup"

	"documind/internal/analyzer"
)

// FileResult is the analysis of one file. Exactly one of Result and Err is set.
type FileResult struct {
	Path   string                   `json:"path"`
	Result *analyzer.AnalysisResult `json:"result,omitempty"`
	Err    error                    `json:"-"`
	Error  string                   `json:"error,omitempty"`
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithIgnored replaces the directory names skipped during a scan.
func WithIgnored(names []string) Option {
	return func(c *Crawler) {
		c.ignored = names
	}
}

// WithWorkers sets how many files are analyzed at once.
func WithWorkers(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.workers = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Crawler) {
		if l != nil {
			c.logger = l
		}
	}
}

// Crawler scans a directory for Python files and analyzes them.
type Crawler struct {
	analyzer *analyzer.Analyzer
	ignored  []string
	workers  int
	logger   *slog.Logger
}

// NewCrawler creates a new crawler instance.
func NewCrawler(a *analyzer.Analyzer, opts ...Option) *Crawler {
	c := &Crawler{
		analyzer: a,
		ignored:  []string{".git", ".venv", "venv", "__pycache__", "node_modules"},
		workers:  4,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FindPythonFiles walks root and returns the Python files below it, relative
// to root and sorted.
func (c *Crawler) FindPythonFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip ignored directories
		if d.IsDir() {
			if path != root && c.isIgnored(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !d.Type().IsRegular() {
			return nil
		}
		if !IsPython(path) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (c *Crawler) isIgnored(name string) bool {
	for _, ign := range c.ignored {
		if name == ign {
			return true
		}
	}
	return false
}

// IsPython reports whether path holds Python source. The extension decides
// when it is unambiguous; otherwise the content (a shebang, for instance) is
// inspected.
func IsPython(path string) bool {
	lang, safe := enry.GetLanguageByExtension(path)
	if safe && lang != "" {
		return lang == "Python"
	}
	if filepath.Ext(path) != "" && lang == "" {
		return false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return enry.GetLanguage(path, content) == "Python"
}

// ScanProject analyzes every Python file below root.
func (c *Crawler) ScanProject(ctx context.Context, root string) ([]FileResult, error) {
	files, err := c.FindPythonFiles(root)
	if err != nil {
		return nil, err
	}
	return c.AnalyzeFiles(ctx, root, files)
}

// AnalyzeFiles analyzes the given root-relative paths in parallel. A file
// that cannot be read or parsed is reported in its own entry; only a
// cancelled context stops the run. Results keep the order of paths.
func (c *Crawler) AnalyzeFiles(ctx context.Context, root string, paths []string) ([]FileResult, error) {
	results := make([]FileResult, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, rel := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := FileResult{Path: rel}
			result, err := c.analyzer.AnalyzeFile(filepath.Join(root, filepath.FromSlash(rel)))
			if err != nil {
				c.logger.Warn("failed to analyze file", "file", rel, "error", err)
				res.Err = err
				res.Error = err.Error()
			} else {
				res.Result = result
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.Debug("analysis finished", "root", root, "files", len(paths))
	return results, nil
}
