package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"documind/internal/analysis"
	"documind/internal/analyzer"
	"documind/internal/config"
	"documind/internal/crawler"
	"documind/internal/diagram"
	"documind/internal/docgen"
	"documind/internal/git"
	"documind/internal/report"
)

var (
	rootCmd = &cobra.Command{
		Use:   "documind",
		Short: "Static analysis and docstring generation for Python code",
	}
	configPath string
	outputFlag string
	verbose    bool

	changedRef string
	fenced     bool

	genName    string
	genStyle   string
	genContext string
	genMethods bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "Output format: text, json or yaml (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug information to stderr")

	analyzeCmd.Flags().StringVar(&changedRef, "changed", "", "Only analyze files changed since this git ref and report affected entities")
	diagramCmd.Flags().BoolVar(&fenced, "fenced", false, "Wrap the diagram in a Markdown mermaid block")

	generateCmd.Flags().StringVarP(&genName, "name", "n", "", "Function or class to document (default: first definition)")
	generateCmd.Flags().StringVarP(&genStyle, "style", "s", "", "Docstring style: google, numpy or sphinx (overrides config)")
	generateCmd.Flags().StringVar(&genContext, "context", "", "Extra context passed to the model")
	generateCmd.Flags().BoolVar(&genMethods, "methods", false, "Also document each method of a class")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(docstringsCmd)
	rootCmd.AddCommand(diagramCmd)
	rootCmd.AddCommand(generateCmd)
}

// loadConfig reads the configuration file and sets up the slog default logger.
func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return cfg
}

func outputFormat(cfg *config.Config) string {
	format := cfg.Output.Format
	if outputFlag != "" {
		format = outputFlag
	}
	switch format {
	case "text", "json", "yaml":
		return format
	default:
		log.Fatalf("Unsupported output format: %s", format)
		return ""
	}
}

// emit writes v in a structured format, or text when the format is "text".
func emit(format string, v any, text string) {
	var err error
	switch format {
	case "json":
		err = report.JSON(os.Stdout, v)
	case "yaml":
		err = report.YAML(os.Stdout, v)
	default:
		fmt.Print(text)
	}
	if err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|dir>",
	Short: "Report the structure of a Python file or of every Python file in a directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		format := outputFormat(cfg)
		path := args[0]
		ctx := cmd.Context()

		info, err := os.Stat(path)
		if err != nil {
			log.Fatalf("Failed to open %s: %v", path, err)
		}

		a := analyzer.New()
		if !info.IsDir() {
			if changedRef != "" {
				log.Fatalf("--changed needs a directory inside a git work tree")
			}
			result, err := a.AnalyzeFile(path)
			if err != nil {
				log.Fatalf("Analysis failed: %v", err)
			}
			emit(format, result, report.Text(path, result))
			return
		}

		cr := crawler.NewCrawler(a,
			crawler.WithIgnored(cfg.Scan.Ignore),
			crawler.WithWorkers(cfg.Scan.Workers),
			crawler.WithLogger(slog.Default()),
		)

		if changedRef == "" {
			if format == "text" {
				fmt.Printf("📂 Scanning directory: %s\n", path)
			}
			start := time.Now()
			results, err := cr.ScanProject(ctx, path)
			if err != nil {
				log.Fatalf("Scan failed: %v", err)
			}
			if format == "text" {
				fmt.Printf("✅ Analyzed %d files in %v.\n\n", len(results), time.Since(start).Round(time.Millisecond))
			}
			emit(format, results, report.ProjectText(results))
			return
		}

		analyzeChanges(ctx, cr, path, format)
	},
}

// analyzeChanges analyzes the Python files changed since changedRef and
// reports which entities the change touches.
func analyzeChanges(ctx context.Context, cr *crawler.Crawler, root, format string) {
	changes, err := git.ChangedFiles(ctx, root, changedRef)
	if err != nil {
		log.Fatalf("Failed to get git changes: %v", err)
	}

	var pyChanges []git.ChangedFile
	var paths []string
	for _, change := range changes {
		full := filepath.Join(root, filepath.FromSlash(change.Path))
		if _, err := os.Stat(full); err != nil || !crawler.IsPython(full) {
			continue
		}
		pyChanges = append(pyChanges, change)
		paths = append(paths, change.Path)
	}

	if len(pyChanges) == 0 {
		if format == "text" {
			fmt.Println("✅ No Python changes detected.")
			return
		}
		emit(format, &analysis.ImpactReport{
			DirectlyAffected:   []analysis.Entity{},
			IndirectlyAffected: []analysis.Entity{},
		}, "")
		return
	}
	if format == "text" {
		fmt.Printf("📝 Detected %d changed Python files.\n", len(pyChanges))
	}

	results, err := cr.AnalyzeFiles(ctx, root, paths)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
	files := make(map[string]*analyzer.AnalysisResult, len(results))
	for _, fr := range results {
		if fr.Err != nil {
			log.Printf("⚠️ Failed to analyze %s: %v", fr.Path, fr.Err)
			continue
		}
		files[fr.Path] = fr.Result
	}

	if format == "text" {
		fmt.Println("🔍 Analyzing impact...")
	}
	impact, err := analysis.NewAnalyzer(files).AnalyzeImpact(pyChanges)
	if err != nil {
		log.Fatalf("Impact analysis failed: %v", err)
	}
	emit(format, impact, report.ImpactText(impact))
}

var docstringsCmd = &cobra.Command{
	Use:   "docstrings <file>",
	Short: "Print the docstring of every function and class in a Python file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		format := outputFormat(cfg)

		source, err := os.ReadFile(args[0])
		if err != nil {
			log.Fatalf("Failed to read %s: %v", args[0], err)
		}
		docs, err := analyzer.ExtractDocstrings(string(source))
		if err != nil {
			log.Fatalf("Extraction failed: %v", err)
		}
		emit(format, docs, report.DocstringsText(docs))
	},
}

var diagramCmd = &cobra.Command{
	Use:   "diagram <file>",
	Short: "Render the classes of a Python file as a Mermaid class diagram",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		out, err := diagram.FromFile(args[0])
		if err != nil {
			log.Fatalf("Failed to build diagram: %v", err)
		}
		if fenced {
			out = diagram.Fenced(out)
		}
		fmt.Println(out)
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate <file>",
	Short: "Generate a docstring for a function or class using the configured model",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		format := outputFormat(cfg)
		ctx := cmd.Context()

		source, err := os.ReadFile(args[0])
		if err != nil {
			log.Fatalf("Failed to read %s: %v", args[0], err)
		}
		snippet := string(source)

		style := cfg.Style()
		if genStyle != "" {
			style = docgen.ParseStyle(genStyle)
		}

		backend, err := docgen.NewBackend(ctx, cfg.BackendOptions())
		if err != nil {
			fatalSetup(err)
		}
		gen := docgen.NewGenerator(backend,
			docgen.WithTimeout(cfg.Timeout()),
			docgen.WithLogger(slog.Default()),
		)

		isClass, err := targetsClass(snippet, genName)
		if err != nil {
			log.Fatalf("Failed to read definitions: %v", err)
		}

		if format == "text" {
			fmt.Printf("✍️  Generating %s docstring with %s...\n\n", style, backend.Name())
		}

		if isClass {
			docs, err := gen.ClassDocstring(ctx, docgen.ClassRequest{
				Snippet:        snippet,
				Name:           genName,
				Context:        genContext,
				Style:          style,
				IncludeMethods: genMethods,
			})
			if err != nil {
				fatalSetup(err)
			}
			var text strings.Builder
			text.WriteString(formatted(&docs.Class))
			for i := range docs.Methods {
				text.WriteString("\n" + formatted(&docs.Methods[i]))
			}
			emit(format, docs, text.String())
			return
		}

		doc, err := gen.FunctionDocstring(ctx, docgen.FunctionRequest{
			Snippet: snippet,
			Name:    genName,
			Context: genContext,
			Style:   style,
		})
		if err != nil {
			fatalSetup(err)
		}
		emit(format, doc, formatted(doc))
	},
}

// targetsClass reports whether name (or, when empty, the first definition)
// is a top-level class.
func targetsClass(source, name string) (bool, error) {
	defs, err := analyzer.Outline(source)
	if err != nil {
		return false, err
	}
	for _, def := range defs {
		if name == "" || def.Name == name {
			return def.Kind == analyzer.ClassDefinition, nil
		}
	}
	return false, nil
}

func formatted(doc *docgen.Docstring) string {
	out, err := doc.Formatted()
	if err != nil {
		log.Fatalf("Failed to insert docstring into %s: %v", doc.Name, err)
	}
	return out + "\n"
}

// fatalSetup exits with the error and, for setup problems, the remediation hint.
func fatalSetup(err error) {
	var setupErr *docgen.SetupError
	if errors.As(err, &setupErr) && setupErr.Hint != "" {
		log.Fatalf("Setup failed: %v\n💡 %s", err, setupErr.Hint)
	}
	log.Fatalf("Generation failed: %v", err)
}
