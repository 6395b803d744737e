package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/slideshow-studio/internal/config"
	"github.com/jonathan/slideshow-studio/internal/editor"
	"github.com/jonathan/slideshow-studio/internal/generation"
	"github.com/jonathan/slideshow-studio/internal/ingestion"
	"github.com/jonathan/slideshow-studio/internal/llm"
	"github.com/jonathan/slideshow-studio/internal/logging"
	"github.com/jonathan/slideshow-studio/internal/observability"
	"github.com/jonathan/slideshow-studio/internal/types"
)

type generateOptions struct {
	In       string
	URL      string
	Out      string
	Batches  int
	Tier     string
	Verbose  bool
	Settings types.GenerationSettings
}

var genOpts generateOptions

// newLLMClient is replaced in tests
var newLLMClient = func(ctx context.Context, apiKey string) (llm.Client, error) {
	return llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate slides from a text file or web page",
	Long: `Generate a slide deck from a local text, markdown or HTML file, or from a web page.

The first run reads the first 4000 characters of the source. Use --batches to
keep reading the following chunks and append their slides to the deck.`,
	RunE: runGenerate,
}

func init() {
	defaults := types.DefaultGenerationSettings()
	f := generateCmd.Flags()
	f.StringVarP(&genOpts.In, "in", "i", "", "Path to a text, markdown or HTML file")
	f.StringVar(&genOpts.URL, "url", "", "Web page to import")
	f.StringVarP(&genOpts.Out, "out", "o", "", "Path to output JSON file (default stdout)")
	f.IntVar(&genOpts.Batches, "batches", 1, "Number of source chunks to read")
	f.StringVar(&genOpts.Tier, "tier", "", "Model tier: lite, standard or advanced (default from config)")
	f.BoolVarP(&genOpts.Verbose, "verbose", "v", false, "Print a summary to stderr")
	f.StringVar(&genOpts.Settings.Tone, "tone", defaults.Tone, "Writing tone")
	f.StringVar(&genOpts.Settings.Complexity, "complexity", defaults.Complexity, "Reading level: beginner, intermediate or expert")
	f.IntVar(&genOpts.Settings.MaxSlides, "max-slides", defaults.MaxSlides, "Maximum slides per chunk")
	f.StringVar(&genOpts.Settings.Focus, "focus", defaults.Focus, "Content focus: key_points, tips, facts, steps or terms")
	f.BoolVar(&genOpts.Settings.Hook, "hook", defaults.Hook, "Open the deck with a hook slide")

	generateCmd.MarkFlagsMutuallyExclusive("in", "url")
	generateCmd.MarkFlagsOneRequired("in", "url")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	return generate(cmd.Context(), cfg, logger, genOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func generate(ctx context.Context, cfg *config.Config, logger *logging.Logger, opts generateOptions, stdout, stderr io.Writer) error {
	if (opts.In == "") == (opts.URL == "") {
		return fmt.Errorf("provide exactly one of --in or --url")
	}
	if opts.Batches < 1 {
		return fmt.Errorf("--batches must be at least 1")
	}
	settings := opts.Settings.WithDefaults()
	if err := settings.Validate(); err != nil {
		return err
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("API key is required (set GEMINI_API_KEY environment variable)")
	}

	text, meta, err := readSource(ctx, cfg, logger, opts)
	if err != nil {
		return err
	}

	client, err := newLLMClient(ctx, cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	tier := opts.Tier
	if tier == "" {
		tier = cfg.ModelTier
	}
	gen := generation.New(client, generation.WithTier(llm.ParseTier(tier)), generation.WithLogger(logger))
	state := editor.New(editor.WithLogger(logger))

	if _, err := state.Generate(ctx, gen, false, text, settings); err != nil {
		return fmt.Errorf("failed to generate slides: %w", err)
	}
	for batch := 2; batch <= opts.Batches; batch++ {
		if state.Snapshot().Session.Remaining == 0 {
			logger.Info("source exhausted", "batches", batch-1)
			break
		}
		added, err := state.Generate(ctx, gen, true, "", settings)
		if err != nil {
			return fmt.Errorf("failed to generate batch %d: %w", batch, err)
		}
		logger.Debug("batch generated", "batch", batch, "added", added)
	}

	snap := state.Snapshot()
	if opts.Verbose {
		p := observability.NewPrinter(stderr)
		p.PrintSource(meta)
		p.PrintSlides(snap.Slides)
		p.PrintSession(snap.Session)
	}
	return writeSlides(opts.Out, stdout, snap.Slides)
}

// readSource loads the source text from a file or a web page
func readSource(ctx context.Context, cfg *config.Config, logger *logging.Logger, opts generateOptions) (string, *ingestion.Metadata, error) {
	if opts.In != "" {
		text, meta, err := ingestion.FromFile(opts.In)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read source: %w", err)
		}
		return text, meta, nil
	}
	src, err := ingestion.FromURL(ctx, opts.URL, ingestion.Options{UseBrowser: cfg.UseBrowser, Logger: logger})
	if err != nil {
		return "", nil, fmt.Errorf("failed to import page: %w", err)
	}
	return src.Text, src.Metadata, nil
}

// writeSlides writes slides as indented JSON to path, or to stdout when
// path is empty or "-"
func writeSlides(path string, stdout io.Writer, slides []types.Slide) error {
	data, err := json.MarshalIndent(slides, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal slides: %w", err)
	}
	data = append(data, '\n')

	if path == "" || path == "-" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// readSlides loads a JSON array of slides written by generate
func readSlides(path string) ([]types.Slide, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read slides file: %w", err)
	}
	var slides []types.Slide
	if err := json.Unmarshal(data, &slides); err != nil {
		return nil, fmt.Errorf("failed to parse slides file: %w", err)
	}
	return slides, nil
}
