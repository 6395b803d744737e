package rendering

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/slideshow-studio/internal/types"
)

// DefaultConcurrency bounds parallel renders in RenderAll
const DefaultConcurrency = 4

// File is one rendered slide
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// FileName returns the export name of the slide at index, e.g. slide-01.png
func FileName(index int, format types.ImageFormat) string {
	return fmt.Sprintf("slide-%02d.%s", index+1, format.Extension())
}

// ExportOptions configures RenderAll
type ExportOptions struct {
	Aspect      types.AspectRatio
	Format      types.ImageFormat
	Concurrency int
	// Progress is called after each finished slide with the number done so far
	Progress func(done, total int)
}

// RenderAll renders every slide and returns the files in list order. The
// first failure cancels the remaining renders.
func RenderAll(ctx context.Context, r Renderer, slides []types.Slide, opts ExportOptions) ([]File, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Format == "" {
		opts.Format = types.FormatPNG
	}

	files := make([]File, len(slides))
	done := make(chan struct{}, len(slides))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, s := range slides {
		g.Go(func() error {
			data, err := r.Render(gctx, Job{Slide: s, Index: i, Aspect: opts.Aspect, Format: opts.Format})
			if err != nil {
				return err
			}
			files[i] = File{Name: FileName(i, opts.Format), ContentType: opts.Format.ContentType(), Data: data}
			done <- struct{}{}
			if opts.Progress != nil {
				opts.Progress(len(done), len(slides))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// WriteZip writes files into a zip archive on w
func WriteZip(w io.Writer, files []File) error {
	zw := zip.NewWriter(w)
	now := time.Now()
	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Store, // images are already compressed
			Modified: now,
		})
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

// ExportJSON returns the indented JSON export of slides
func ExportJSON(slides []types.Slide) ([]byte, error) {
	b, err := json.MarshalIndent(types.NewExportDocument(slides), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return b, nil
}
