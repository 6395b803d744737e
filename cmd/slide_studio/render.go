package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/slideshow-studio/internal/config"
	"github.com/jonathan/slideshow-studio/internal/observability"
	"github.com/jonathan/slideshow-studio/internal/rendering"
	"github.com/jonathan/slideshow-studio/internal/types"
)

type renderOptions struct {
	In          string
	Out         string
	Aspect      string
	Format      string
	Engine      string
	Concurrency int
	Verbose     bool
}

var renderOpts renderOptions

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a slides JSON file to a zip of images",
	Long:  "Render every slide of a JSON file written by generate into PNG or JPEG images and pack them into a zip archive.",
	RunE:  runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderOpts.In, "in", "i", "", "Path to slides JSON file (required)")
	f.StringVarP(&renderOpts.Out, "out", "o", "slides.zip", "Path to output zip file")
	f.StringVar(&renderOpts.Aspect, "aspect", string(types.AspectPortrait), "Canvas size: 1080x1920, 1080x1080 or 1440x1080")
	f.StringVar(&renderOpts.Format, "format", string(types.FormatPNG), "Image format: png or jpeg")
	f.StringVar(&renderOpts.Engine, "engine", "", "Render engine: native or browser (default from config)")
	f.IntVar(&renderOpts.Concurrency, "concurrency", 0, "Slides rendered in parallel (default from config)")
	f.BoolVarP(&renderOpts.Verbose, "verbose", "v", false, "Print progress to stderr")

	_ = renderCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	return render(cmd.Context(), cfg, renderOpts, cmd.ErrOrStderr())
}

func render(ctx context.Context, cfg *config.Config, opts renderOptions, stderr io.Writer) error {
	aspect := types.AspectRatio(opts.Aspect)
	if _, _, err := aspect.Dimensions(); err != nil {
		return err
	}
	format, err := types.ParseImageFormat(opts.Format)
	if err != nil {
		return err
	}

	slides, err := readSlides(opts.In)
	if err != nil {
		return err
	}
	if len(slides) == 0 {
		return fmt.Errorf("no slides to render in %s", opts.In)
	}
	for i := range slides {
		slides[i].Normalize()
		if err := slides[i].Validate(); err != nil {
			return fmt.Errorf("slide %d: %w", i+1, err)
		}
	}

	engine := opts.Engine
	if engine == "" {
		engine = cfg.RenderEngine
	}
	renderer, closeRenderer, err := newRenderer(ctx, engine)
	if err != nil {
		return err
	}
	defer closeRenderer()

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = cfg.RenderConcurrency
	}
	exportOpts := rendering.ExportOptions{Aspect: aspect, Format: format, Concurrency: concurrency}
	if opts.Verbose {
		exportOpts.Progress = func(done, total int) {
			_, _ = fmt.Fprintf(stderr, "\rRendered %d/%d", done, total)
		}
	}

	files, err := rendering.RenderAll(ctx, renderer, slides, exportOpts)
	if opts.Verbose {
		_, _ = fmt.Fprintln(stderr)
	}
	if err != nil {
		return err
	}

	out, err := os.Create(opts.Out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := rendering.WriteZip(out, files); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	if opts.Verbose {
		observability.NewPrinter(stderr).PrintExport(files, opts.Out)
	}
	return nil
}

// newRenderer returns the renderer for engine and a func that releases it
func newRenderer(ctx context.Context, engine string) (rendering.Renderer, func(), error) {
	switch engine {
	case config.RenderNative, "":
		return rendering.NewNativeRenderer(), func() {}, nil
	case config.RenderBrowser:
		r := rendering.NewBrowserRenderer(ctx)
		return r, r.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown render engine %q", engine)
	}
}
