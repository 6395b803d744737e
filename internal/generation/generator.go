// Package generation turns source text into slides through the generation
// service, one chunk of the source per request.
package generation

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/slideshow-studio/internal/llm"
	"github.com/jonathan/slideshow-studio/internal/logging"
	"github.com/jonathan/slideshow-studio/internal/prompts"
	"github.com/jonathan/slideshow-studio/internal/schemas"
	"github.com/jonathan/slideshow-studio/internal/types"
)

const promptFile = "slides.json"

// Output token limits per request kind
const (
	DeckMaxTokens        int32 = 2048
	TitleMaxTokens       int32 = 200
	DescriptionMaxTokens int32 = 400
)

// IDFunc mints slide identities
type IDFunc func() string

// NewID returns a random UUID string
func NewID() string {
	return uuid.NewString()
}

// Generator runs deck generation and field rewrites against an llm.Client
type Generator struct {
	client llm.Client
	ids    IDFunc
	tier   llm.ModelTier
	logger *logging.Logger
}

// Option configures a Generator
type Option func(*Generator)

// WithIDFunc overrides slide id minting
func WithIDFunc(f IDFunc) Option {
	return func(g *Generator) { g.ids = f }
}

// WithTier selects the model tier for deck generation
func WithTier(t llm.ModelTier) Option {
	return func(g *Generator) { g.tier = t }
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(g *Generator) { g.logger = l.Component("generation") }
}

// New creates a Generator
func New(client llm.Client, opts ...Option) *Generator {
	g := &Generator{
		client: client,
		ids:    NewID,
		tier:   llm.TierStandard,
		logger: logging.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Request describes one generation run. Session is read, never modified.
type Request struct {
	Session Session
	Batch   bool
	// Template returns the style template for a new slide id. Nil means baseline style.
	Template func(id string) types.Slide
}

// Result is the outcome of a successful run
type Result struct {
	Slides []types.Slide
	// Offset is where the chunk started
	Offset int
	// NextOffset is the cursor value to commit on success
	NextOffset int
}

// rawSlide is one element of the model's slides array. Every field is optional.
type rawSlide struct {
	ID          any     `json:"id"`
	Type        *string `json:"type"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Eyebrow     *string `json:"eyebrow"`
}

type rawResponse struct {
	Slides []rawSlide `json:"slides"`
}

// Generate chunks the source, sends a single request and maps the response
// into fully populated slides. It does not retry.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	settings := req.Session.Settings.WithDefaults()
	if err := settings.Validate(); err != nil {
		return nil, &ValidationError{Field: "settings", Message: "invalid generation settings", Cause: err}
	}
	if req.Session.Empty() {
		return nil, &ValidationError{Field: "source_text", Message: "paste content first", Cause: ErrEmptySource}
	}

	offset := 0
	if req.Batch {
		if req.Session.Exhausted() {
			return nil, &ValidationError{Field: "batch_offset", Message: "no source text left to generate from", Cause: ErrSourceExhausted}
		}
		offset = req.Session.Offset
	}
	chunk, end := req.Session.Chunk(offset)

	system, user, err := buildDeckPrompts(settings, req.Batch, offset, chunk)
	if err != nil {
		return nil, err
	}

	g.logger.Info("generating slides", "batch", req.Batch, "offset", offset, "chunk_chars", end-offset, "model", g.client.GetModel(g.tier))

	text, err := g.client.Generate(ctx, llm.Request{
		SystemInstruction: system,
		UserContent:       user,
		MaxOutputTokens:   DeckMaxTokens,
		Tier:              g.tier,
		JSON:              true,
	})
	if err != nil {
		return nil, &APICallError{Message: "failed to generate slides", Cause: err}
	}

	raw, err := parseDeckResponse(text)
	if err != nil {
		g.logger.Warn("rejected generation response", "error", err)
		return nil, err
	}

	template := req.Template
	if template == nil {
		template = types.BaselineSlide
	}
	slides := make([]types.Slide, 0, len(raw))
	for _, r := range raw {
		slides = append(slides, g.mapSlide(r, template))
	}

	g.logger.Info("generated slides", "count", len(slides), "next_offset", end)
	return &Result{Slides: slides, Offset: offset, NextOffset: end}, nil
}

func buildDeckPrompts(settings types.GenerationSettings, batch bool, offset int, chunk string) (string, string, error) {
	system, err := prompts.Render(promptFile, "deck-system", map[string]string{
		"Tone":       settings.Tone,
		"Complexity": settings.Complexity,
		"Focus":      settings.FocusLabel(),
		"MaxSlides":  strconv.Itoa(settings.MaxSlides),
	})
	if err != nil {
		return "", "", err
	}

	hookPrefix := ""
	if settings.Hook && !batch {
		hookPrefix, err = prompts.Get(promptFile, "deck-hook-prefix")
		if err != nil {
			return "", "", err
		}
	}
	user, err := prompts.Render(promptFile, "deck-user", map[string]string{
		"HookPrefix": hookPrefix,
		"Offset":     strconv.Itoa(offset),
		"Chunk":      chunk,
	})
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}

// parseDeckResponse strips fences, checks the response contract and decodes
// the slides array. A response is accepted whole or not at all.
func parseDeckResponse(text string) ([]rawSlide, error) {
	cleaned := llm.CleanJSONBlock(text)
	if err := schemas.ValidateSlidesResponse(cleaned); err != nil {
		return nil, &ParseError{Message: "response does not contain a slides array", Raw: cleaned, Cause: err}
	}

	var resp rawResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, &ParseError{Message: "failed to parse JSON response", Raw: cleaned, Cause: err}
	}
	if len(resp.Slides) == 0 {
		return nil, &ParseError{Message: "response contains no slides", Raw: cleaned}
	}
	return resp.Slides, nil
}

// mapSlide builds a slide from model output. The model's id is ignored; a
// fresh id is always minted.
func (g *Generator) mapSlide(r rawSlide, template func(string) types.Slide) types.Slide {
	s := template(g.ids())
	s.Type = types.SlideTypeNormal
	if r.Type != nil && types.SlideType(*r.Type) == types.SlideTypeHook {
		s.Type = types.SlideTypeHook
	}
	s.Title = deref(r.Title)
	s.Description = deref(r.Description)
	s.Eyebrow = ""
	if s.IsHook() {
		s.Eyebrow = deref(r.Eyebrow)
	}
	s.TruncateText()
	s.Normalize()
	return s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
