package rendering

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"net/url"
	"sync"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/slideshow-studio/internal/types"
)

//go:embed slide.html.tmpl
var slideTemplateSource string

var slideTemplate = template.Must(template.New("slide").Funcs(template.FuncMap{
	"mul": func(a, b float64) float64 { return a * b },
}).Parse(slideTemplateSource))

// slideView is the data passed to the slide template
type slideView struct {
	Width, Height int
	Scale         float64
	Slide         types.Slide
	IsHook        bool
	Label         string
	Eyebrow       string
	Background    template.CSS
	TitleSize     float64
	DescSize      float64
	TitleFont     template.CSS
	DescFont      template.CSS
	OverlayAlpha  float64
}

var cssFonts = map[types.FontFamily]template.CSS{
	types.FontBebas:   `'Bebas Neue', Impact, sans-serif`,
	types.FontJakarta: `'Plus Jakarta Sans', Helvetica, Arial, sans-serif`,
	types.FontMono:    `'JetBrains Mono', Menlo, monospace`,
}

// SlideHTML renders the standalone HTML page the browser renderer screenshots
func SlideHTML(job Job) (string, error) {
	w, h, err := job.Aspect.Dimensions()
	if err != nil {
		return "", &TemplateError{Message: "invalid aspect ratio", Cause: err}
	}
	s := job.Slide
	s.Normalize()
	scale := float64(min(w, h)) / referenceWidth

	bg := template.CSS(presetFor(s).CSS)
	if s.HasImage() {
		if _, err := url.Parse(*s.BgImage); err != nil {
			return "", &TemplateError{Message: "invalid background image", Cause: err}
		}
		bg = template.CSS(fmt.Sprintf("url(%q) center / cover no-repeat", *s.BgImage))
	}

	view := slideView{
		Width:        w,
		Height:       h,
		Scale:        scale,
		Slide:        s,
		IsHook:       s.IsHook(),
		Label:        Label(s, job.Index),
		Eyebrow:      s.DisplayEyebrow() + " →",
		Background:   bg,
		TitleSize:    float64(s.TitleSize) * titleMultiplier * scale,
		DescSize:     float64(s.DescSize) * descMultiplier * scale,
		TitleFont:    cssFonts[s.TitleFont],
		DescFont:     cssFonts[s.DescFont],
		OverlayAlpha: float64(s.OverlayOpacity) / 100,
	}

	var buf bytes.Buffer
	if err := slideTemplate.Execute(&buf, view); err != nil {
		return "", &TemplateError{Message: "failed to execute slide template", Cause: err}
	}
	return buf.String(), nil
}

// BrowserRenderer screenshots slides in headless Chrome, matching the web
// preview exactly. Requires Chrome or Chromium on the host.
type BrowserRenderer struct {
	allocCtx context.Context
	cancel   context.CancelFunc

	once      sync.Once
	browser   context.Context
	browserCx context.CancelFunc
}

// NewBrowserRenderer starts a browser allocator. Call Close when done.
func NewBrowserRenderer(ctx context.Context) *BrowserRenderer {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("hide-scrollbars", true),
		)...,
	)
	return &BrowserRenderer{allocCtx: allocCtx, cancel: cancel}
}

// Render loads the slide page in a new tab and captures it
func (r *BrowserRenderer) Render(ctx context.Context, job Job) ([]byte, error) {
	page, err := SlideHTML(job)
	if err != nil {
		return nil, err
	}
	w, h, _ := job.Aspect.Dimensions()

	r.once.Do(func() {
		r.browser, r.browserCx = chromedp.NewContext(r.allocCtx)
	})
	tab, cancel := chromedp.NewContext(r.browser)
	defer cancel()
	// stop the tab when the caller gives up
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	quality := 100
	if job.Format == types.FormatJPEG {
		quality = JPEGQuality
	}

	var buf []byte
	err = chromedp.Run(tab,
		chromedp.EmulateViewport(int64(w), int64(h)),
		chromedp.Navigate("data:text/html;charset=utf-8,"+url.PathEscape(page)),
		chromedp.WaitReady("#slide", chromedp.ByQuery),
		chromedp.FullScreenshot(&buf, quality),
	)
	if err != nil {
		return nil, &RenderError{Index: job.Index, Message: "browser screenshot failed", Cause: err}
	}
	return buf, nil
}

// Close shuts the browser down
func (r *BrowserRenderer) Close() {
	if r.browserCx != nil {
		r.browserCx()
	}
	r.cancel()
}
