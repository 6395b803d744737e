package ingestion

import (
	"net/url"
	"strings"
)

// Platform is a publishing site with known page structure
type Platform string

const (
	PlatformMedium    Platform = "medium"
	PlatformSubstack  Platform = "substack"
	PlatformWikipedia Platform = "wikipedia"
	PlatformGitHub    Platform = "github"
	PlatformUnknown   Platform = "unknown"
)

// DetectPlatform identifies the publishing platform from a URL
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}
	host := strings.ToLower(parsed.Hostname())

	switch {
	case host == "medium.com" || strings.HasSuffix(host, ".medium.com"):
		return PlatformMedium
	case strings.HasSuffix(host, ".substack.com"):
		return PlatformSubstack
	case strings.HasSuffix(host, "wikipedia.org"):
		return PlatformWikipedia
	case host == "github.com":
		return PlatformGitHub
	default:
		return PlatformUnknown
	}
}

// PlatformSelectors returns content selectors for a platform, most specific first
func PlatformSelectors(p Platform) []string {
	var specific []string
	switch p {
	case PlatformMedium:
		specific = []string{"article section", "article"}
	case PlatformSubstack:
		specific = []string{".available-content", ".body.markup"}
	case PlatformWikipedia:
		specific = []string{"#mw-content-text .mw-parser-output", "#bodyContent"}
	case PlatformGitHub:
		specific = []string{"article.markdown-body", ".markdown-body"}
	}
	return append(specific, DefaultSelectors()...)
}
