package rendering

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png" // background decoding
	"net/url"
	"strings"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // background decoding

	"github.com/jonathan/slideshow-studio/internal/types"
)

// JPEGQuality is the encoder quality used for JPEG exports
const JPEGQuality = 90

// Layout constants at the 1080px reference width. Font sizes stored on a
// slide are preview sizes; the multipliers bring them to export scale.
const (
	referenceWidth  = 1080.0
	titleMultiplier = 3.2
	descMultiplier  = 4.6
	eyebrowPx       = 30.0
	labelPx         = 26.0
	paddingPx       = 96.0
	dividerWidthPx  = 120.0
	dividerHeightPx = 6.0
	blockGapPx      = 28.0
	titleLineHeight = 1.1
	descLineHeight  = 1.6
)

// Job is one slide to rasterize. Index is the zero-based slide position and
// drives the "01" label drawn on normal slides.
type Job struct {
	Slide  types.Slide
	Index  int
	Aspect types.AspectRatio
	Format types.ImageFormat
}

// Renderer rasterizes a slide
type Renderer interface {
	Render(ctx context.Context, job Job) ([]byte, error)
}

// NativeRenderer draws slides in-process with gg and the bundled Go fonts
type NativeRenderer struct {
	fonts *fontCache
}

// NewNativeRenderer creates a NativeRenderer
func NewNativeRenderer() *NativeRenderer {
	return &NativeRenderer{fonts: newFontCache()}
}

// Label returns the small caption above the title: "HOOK" or the 1-based position
func Label(s types.Slide, index int) string {
	if s.IsHook() {
		return "HOOK"
	}
	return fmt.Sprintf("%02d", index+1)
}

// Render draws the background, overlay and text of job.Slide
func (r *NativeRenderer) Render(ctx context.Context, job Job) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w, h, err := job.Aspect.Dimensions()
	if err != nil {
		return nil, &RenderError{Index: job.Index, Message: "invalid aspect ratio", Cause: err}
	}
	slide := job.Slide
	slide.Normalize()

	dc := gg.NewContext(w, h)
	if err := r.drawBackground(dc, slide); err != nil {
		return nil, &RenderError{Index: job.Index, Message: "failed to draw background", Cause: err}
	}

	overlay := colorOr(slide.OverlayColor, color.NRGBA{A: 255})
	overlay.A = uint8(float64(slide.OverlayOpacity) / 100 * 255)
	dc.SetColor(overlay)
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	dc.Fill()

	if err := r.drawText(dc, slide, job.Index); err != nil {
		return nil, &RenderError{Index: job.Index, Message: "failed to draw text", Cause: err}
	}

	var buf bytes.Buffer
	switch job.Format {
	case types.FormatJPEG:
		err = jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: JPEGQuality})
	default:
		err = dc.EncodePNG(&buf)
	}
	if err != nil {
		return nil, &RenderError{Index: job.Index, Message: "failed to encode image", Cause: err}
	}
	return buf.Bytes(), nil
}

func (r *NativeRenderer) drawBackground(dc *gg.Context, s types.Slide) error {
	w, h := float64(dc.Width()), float64(dc.Height())
	if s.HasImage() {
		img, err := DecodeDataURL(*s.BgImage)
		if err != nil {
			return err
		}
		dc.DrawImage(coverScale(img, dc.Width(), dc.Height()), 0, 0)
		return nil
	}
	dc.SetFillStyle(presetGradient(presetFor(s), w, h))
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()
	return nil
}

// DecodeDataURL decodes a base64 image data URL
func DecodeDataURL(payload string) (image.Image, error) {
	if !strings.HasPrefix(payload, "data:") {
		return nil, fmt.Errorf("background image is not a data URL")
	}
	meta, data, ok := strings.Cut(strings.TrimPrefix(payload, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URL")
	}

	var raw []byte
	if strings.HasSuffix(meta, ";base64") {
		var err error
		raw, err = base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 in data URL: %w", err)
		}
	} else {
		unescaped, err := url.PathUnescape(data)
		if err != nil {
			return nil, fmt.Errorf("invalid data URL payload: %w", err)
		}
		raw = []byte(unescaped)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// coverScale scales img to fill w x h, cropping the overflow evenly
func coverScale(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	iw, ih := float64(b.Dx()), float64(b.Dy())
	scale := max(float64(w)/iw, float64(h)/ih)

	cropW, cropH := float64(w)/scale, float64(h)/scale
	x0 := b.Min.X + int((iw-cropW)/2)
	y0 := b.Min.Y + int((ih-cropH)/2)
	src := image.Rect(x0, y0, x0+int(cropW+0.5), y0+int(cropH+0.5)).Intersect(b)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
	return dst
}

type textBlock struct {
	lines      []string
	px         float64
	lineHeight float64
	color      color.Color
	family     types.FontFamily
	display    bool
}

func (b textBlock) height() float64 {
	return float64(len(b.lines)) * b.px * b.lineHeight
}

func (r *NativeRenderer) drawText(dc *gg.Context, s types.Slide, index int) error {
	w, h := float64(dc.Width()), float64(dc.Height())
	scale := min(w, h) / referenceWidth
	pad := paddingPx * scale
	textWidth := w - 2*pad
	gap := blockGapPx * scale

	accent := colorOr(s.AccentColor, color.NRGBA{R: 0, G: 0xd4, B: 0xff, A: 255})
	titleColor := colorOr(s.TitleColor, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	descColor := colorOr(s.DescColor, color.NRGBA{R: 0xd4, G: 0xd4, B: 0xd4, A: 255})

	title := s.Title
	if s.TitleFont == types.FontBebas {
		title = strings.ToUpper(title)
	}

	var blocks []textBlock
	if s.IsHook() {
		blocks = append(blocks, textBlock{
			lines: []string{s.DisplayEyebrow() + " →"}, px: eyebrowPx * scale, lineHeight: 1.2,
			color: accent, family: types.FontJakarta, display: true,
		})
	}
	blocks = append(blocks,
		textBlock{lines: []string{Label(s, index)}, px: labelPx * scale, lineHeight: 1.2, color: descColor, family: types.FontMono},
		textBlock{lines: []string{title}, px: float64(s.TitleSize) * titleMultiplier * scale, lineHeight: titleLineHeight, color: titleColor, family: s.TitleFont, display: true},
	)
	titleIdx := len(blocks) - 1
	if !s.IsHook() {
		blocks = append(blocks, textBlock{
			lines: []string{s.Description}, px: float64(s.DescSize) * descMultiplier * scale, lineHeight: descLineHeight,
			color: descColor, family: s.DescFont,
		})
	}

	// wrap with the real faces before measuring the stack
	for i := range blocks {
		face, err := r.fonts.face(blocks[i].family, blocks[i].display, blocks[i].px)
		if err != nil {
			return err
		}
		dc.SetFontFace(face)
		var lines []string
		for _, l := range blocks[i].lines {
			if strings.TrimSpace(l) == "" {
				continue
			}
			lines = append(lines, dc.WordWrap(l, textWidth)...)
		}
		blocks[i].lines = lines
	}

	dividerH := 0.0
	if s.ShowDivider {
		dividerH = dividerHeightPx*scale + gap
	}
	total := dividerH
	for i, b := range blocks {
		total += b.height()
		if i < len(blocks)-1 {
			total += gap
		}
	}

	x, ax := pad, 0.0
	switch s.Align {
	case types.AlignCenter:
		x, ax = w/2, 0.5
	case types.AlignRight:
		x, ax = w-pad, 1.0
	}

	y := max((h-total)/2, pad)
	for i, b := range blocks {
		face, err := r.fonts.face(b.family, b.display, b.px)
		if err != nil {
			return err
		}
		dc.SetFontFace(face)
		dc.SetColor(b.color)
		for _, line := range b.lines {
			dc.DrawStringAnchored(line, x, y, ax, 1)
			y += b.px * b.lineHeight
		}
		if i < len(blocks)-1 {
			y += gap
		}
		if i == titleIdx && s.ShowDivider {
			dw, dh := dividerWidthPx*scale, dividerHeightPx*scale
			dc.SetColor(accent)
			dc.DrawRectangle(x-ax*dw, y, dw, dh)
			dc.Fill()
			y += dh + gap
		}
	}
	return nil
}
