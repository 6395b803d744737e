// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/slideshow-studio/internal/editor"
	"github.com/jonathan/slideshow-studio/internal/ingestion"
	"github.com/jonathan/slideshow-studio/internal/rendering"
	"github.com/jonathan/slideshow-studio/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// shorten cuts s to at most n characters, marking the cut with "..."
func shorten(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", inner, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		line = shorten(line, inner)
		// pad by characters, not bytes
		pad := inner - utf8.RuneCountInString(line)
		fmt.Fprintf(p.out, "│ %s%s │\n", line, strings.Repeat(" ", pad))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSource outputs where imported source text came from
func (p *Printer) PrintSource(meta *ingestion.Metadata) {
	if meta == nil {
		return
	}

	var sb strings.Builder
	if meta.Title != "" {
		sb.WriteString(fmt.Sprintf("Title:    %s\n", meta.Title))
	}
	if meta.URL != "" {
		sb.WriteString(fmt.Sprintf("URL:      %s\n", meta.URL))
	}
	if meta.Platform != "" {
		sb.WriteString(fmt.Sprintf("Platform: %s\n", meta.Platform))
	}
	sb.WriteString(fmt.Sprintf("Chars:    %d\n", meta.Chars))
	if meta.Rendered {
		sb.WriteString("Fetched with a headless browser\n")
	}
	sb.WriteString(fmt.Sprintf("SHA256:   %s", shorten(meta.Hash, 16)))

	p.printBox("SOURCE", sb.String())
}

// PrintSlides outputs the slide list: position, type and title, with the
// description on the following line
func (p *Printer) PrintSlides(slides []types.Slide) {
	if len(slides) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d slides\n\n", len(slides)))

	count := min(len(slides), maxItemsToShow)
	for i := 0; i < count; i++ {
		s := slides[i]
		sb.WriteString(fmt.Sprintf("%-4s %s\n", rendering.Label(s, i), s.Title))
		if s.IsHook() {
			sb.WriteString(fmt.Sprintf("     %s →\n", s.DisplayEyebrow()))
		} else if s.Description != "" {
			sb.WriteString(fmt.Sprintf("     %s\n", s.Description))
		}
	}
	if len(slides) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(slides)-maxItemsToShow))
	}

	p.printBox("SLIDES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSession outputs how far generation has read through the source
func (p *Printer) PrintSession(info editor.SessionInfo) {
	if info.Length == 0 {
		return
	}

	pct := float64(info.Offset) / float64(info.Length) * 100
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Read:      %d / %d chars (%.0f%%)\n", info.Offset, info.Length, pct))
	sb.WriteString(fmt.Sprintf("Remaining: %d chars\n", info.Remaining))
	sb.WriteString(fmt.Sprintf("Tone:      %s, %s\n", info.Settings.Tone, info.Settings.Complexity))
	sb.WriteString(fmt.Sprintf("Focus:     %s", info.Settings.FocusLabel()))
	if info.Remaining > 0 {
		sb.WriteString("\n\nRun again with more batches to continue.")
	}

	p.printBox("GENERATION", sb.String())
}

// PrintExport outputs the rendered files and their sizes
func (p *Printer) PrintExport(files []rendering.File, dest string) {
	if len(files) == 0 {
		return
	}

	var sb strings.Builder
	total := 0
	for _, f := range files {
		total += len(f.Data)
	}
	sb.WriteString(fmt.Sprintf("Wrote %d images (%s) to %s\n\n", len(files), humanBytes(total), dest))

	count := min(len(files), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("• %-14s %8s\n", files[i].Name, humanBytes(len(files[i].Data))))
	}
	if len(files) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(files)-maxItemsToShow))
	}

	p.printBox("EXPORT", strings.TrimSuffix(sb.String(), "\n"))
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
