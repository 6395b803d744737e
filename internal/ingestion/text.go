// Package ingestion turns pasted text, files and web pages into source text
// for slide generation.
package ingestion

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrEmptyContent is returned when a source has no usable text
var ErrEmptyContent = errors.New("no text content found")

var (
	spaceRun      = regexp.MustCompile(`[ \t\f\v\p{Zs}]+`)
	blankLineRun  = regexp.MustCompile(`\n{3,}`)
	bulletMarkers = []string{"- ", "* ", "• ", "· "}
)

// CleanText normalizes line endings and whitespace while keeping headings,
// bullets and paragraph breaks. Runs of blank lines collapse to one.
func CleanText(content string) string {
	if content == "" {
		return ""
	}
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "")
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := strings.Join(lines, "\n")
	result = blankLineRun.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

func cleanLine(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return ""
	}
	// headings and bullets keep their marker, indentation is dropped
	if strings.HasPrefix(trimmed, "#") || isBulletLine(trimmed) {
		marker, rest := splitMarker(trimmed)
		return marker + spaceRun.ReplaceAllString(rest, " ")
	}
	return spaceRun.ReplaceAllString(trimmed, " ")
}

func isBulletLine(line string) bool {
	for _, m := range bulletMarkers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}

func splitMarker(line string) (string, string) {
	i := strings.IndexByte(line, ' ')
	if i < 0 {
		return line, ""
	}
	return line[:i+1], strings.TrimSpace(line[i+1:])
}

// FromFile reads a plain text, markdown or HTML file and returns cleaned text
func FromFile(path string) (string, *Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("file not found: %w", err)
		}
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}

	raw := string(content)
	var text, title string
	if LooksLikeHTML(raw) {
		doc, err := FromHTML(raw, nil)
		if err != nil {
			return "", nil, err
		}
		text, title = doc.Text, doc.Title
	} else {
		text = CleanText(raw)
	}
	if text == "" {
		return "", nil, fmt.Errorf("%s: %w", path, ErrEmptyContent)
	}

	meta := NewMetadata(text, "")
	meta.Title = title
	return text, meta, nil
}
