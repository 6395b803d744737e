package ingestion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var htmlSniff = regexp.MustCompile(`(?i)^\s*(<!doctype html|<html[\s>]|<head[\s>]|<body[\s>])|<(p|div|article|main|h[1-6])[\s>]`)

// noiseSelector matches page chrome that never belongs in slide content
const noiseSelector = "nav, footer, header, aside, script, style, noscript, iframe, form, svg, " +
	".ad, .ads, .advertisement, .sidebar, .cookie-banner, .popup, .newsletter, .share, .comments"

// blockTags get a line break after their text so paragraphs survive extraction
const blockTags = "p, h1, h2, h3, h4, h5, h6, li, blockquote, pre, tr, br, div, section"

// Document is text extracted from an HTML page
type Document struct {
	Title string
	Text  string
}

// LooksLikeHTML reports whether s is probably an HTML document or fragment
func LooksLikeHTML(s string) bool {
	head := s
	if len(head) > 4096 {
		head = head[:4096]
	}
	return htmlSniff.MatchString(head)
}

// FromHTML extracts readable text from HTML. The first contentSelectors match
// wins; without a match the body is used. Nil selectors use DefaultSelectors.
func FromHTML(html string, contentSelectors []string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	if contentSelectors == nil {
		contentSelectors = DefaultSelectors()
	}

	title := strings.TrimSpace(doc.Find("meta[property='og:title']").AttrOr("content", ""))
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	doc.Find(noiseSelector).Remove()

	var main *goquery.Selection
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			main = sel.First()
			break
		}
	}
	if main == nil {
		main = doc.Find("body")
	}

	main.Find(blockTags).Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "li" {
			s.PrependHtml("- ")
		}
		s.AppendHtml("\n\n")
	})

	return &Document{
		Title: CleanText(title),
		Text:  CleanText(main.Text()),
	}, nil
}

// DefaultSelectors returns content selectors for general articles
func DefaultSelectors() []string {
	return []string{
		"article",
		"main",
		"[role='main']",
		".post-content",
		".entry-content",
		".article-body",
		".content",
		"#content",
	}
}
