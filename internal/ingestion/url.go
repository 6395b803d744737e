package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chromedp/chromedp"
	"github.com/patrickmn/go-cache"

	"github.com/jonathan/slideshow-studio/internal/logging"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; SlideshowStudio/1.0)"
	DefaultCacheTTL  = 15 * time.Minute

	// MinContentLength is the shortest extracted text accepted from a plain
	// HTTP fetch before a browser render is tried
	MinContentLength = 500

	maxBodyBytes = 10 << 20
)

// FetchError is a failed URL import
type FetchError struct {
	URL     string
	Message string
	Cause   error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Options configures a Fetcher
type Options struct {
	Timeout    time.Duration
	UserAgent  string
	UseBrowser bool
	CacheTTL   time.Duration
	Logger     *logging.Logger
}

// Source is an imported page
type Source struct {
	Text     string
	Metadata *Metadata
}

// RenderFunc returns the HTML of a page after scripts have run
type RenderFunc func(ctx context.Context, url string, timeout time.Duration) (string, error)

// Fetcher imports web pages as source text. Results are cached per URL.
type Fetcher struct {
	client *http.Client
	opts   Options
	cache  *cache.Cache
	render RenderFunc
	logger *logging.Logger
}

// NewFetcher creates a Fetcher
func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &Fetcher{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
		cache:  cache.New(opts.CacheTTL, 2*opts.CacheTTL),
		render: RenderWithBrowser,
		logger: opts.Logger.Component("ingestion"),
	}
}

// SetRenderer replaces the headless browser used for script-heavy pages
func (f *Fetcher) SetRenderer(r RenderFunc) {
	f.render = r
}

// FromURL imports a page with a one-off Fetcher
func FromURL(ctx context.Context, urlStr string, opts Options) (*Source, error) {
	return NewFetcher(opts).Fetch(ctx, urlStr)
}

// Fetch downloads a page, extracts its main text and cleans it. Pages whose
// text is shorter than MinContentLength are rendered in a browser when enabled.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*Source, error) {
	if err := validateURL(urlStr); err != nil {
		return nil, err
	}
	if x, ok := f.cache.Get(urlStr); ok {
		f.logger.Debug("url cache hit", "url", urlStr)
		return x.(*Source), nil
	}

	platform := DetectPlatform(urlStr)
	selectors := PlatformSelectors(platform)

	html, err := f.get(ctx, urlStr)
	if err != nil {
		return nil, err
	}
	doc, err := FromHTML(html, selectors)
	if err != nil {
		return nil, &FetchError{URL: urlStr, Message: "content extraction failed", Cause: err}
	}
	f.logger.Debug("fetched url", "url", urlStr, "platform", string(platform), "html_bytes", len(html), "chars", utf8.RuneCountInString(doc.Text))

	rendered := false
	if f.opts.UseBrowser && f.render != nil && shouldUseBrowser(doc.Text) {
		browserHTML, err := f.render(ctx, urlStr, f.opts.Timeout)
		if err != nil {
			f.logger.Warn("browser render failed, using HTTP content", "url", urlStr, "error", err)
		} else if bdoc, err := FromHTML(browserHTML, selectors); err == nil && len(bdoc.Text) > len(doc.Text) {
			doc = bdoc
			rendered = true
		}
	}

	if doc.Text == "" {
		return nil, &FetchError{URL: urlStr, Message: "page has no readable text", Cause: ErrEmptyContent}
	}

	meta := NewMetadata(doc.Text, urlStr)
	meta.Title = doc.Title
	meta.Platform = string(platform)
	meta.Rendered = rendered
	src := &Source{Text: doc.Text, Metadata: meta}
	f.cache.Set(urlStr, src, cache.DefaultExpiration)
	return src, nil
}

func validateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return &FetchError{URL: urlStr, Message: "invalid URL", Cause: err}
	}
	return nil
}

func (f *Fetcher) get(ctx context.Context, urlStr string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", &FetchError{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &FetchError{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	// plain text is wrapped so it goes through the same extraction path
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		return "<html><body><pre>" + escapeText(string(body)) + "</pre></body></html>", nil
	}
	return string(body), nil
}

func escapeText(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

func shouldUseBrowser(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) < MinContentLength
}

// RenderWithBrowser loads a page in headless Chrome and returns the rendered HTML.
// Requires Chrome or Chromium on the host.
func RenderWithBrowser(ctx context.Context, urlStr string, timeout time.Duration) (string, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(urlStr),
		chromedp.WaitReady("body"),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}
	return html, nil
}
