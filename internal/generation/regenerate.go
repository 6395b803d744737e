package generation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/slideshow-studio/internal/llm"
	"github.com/jonathan/slideshow-studio/internal/prompts"
	"github.com/jonathan/slideshow-studio/internal/schemas"
	"github.com/jonathan/slideshow-studio/internal/types"
)

// Field selects which text of a slide to rewrite
type Field string

// Rewritable fields
const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldBoth        Field = "both"
)

// ParseField validates a field name
func ParseField(s string) (Field, error) {
	switch Field(s) {
	case FieldTitle, FieldDescription, FieldBoth:
		return Field(s), nil
	default:
		return "", &ValidationError{Field: "field", Message: fmt.Sprintf("unknown field %q", s)}
	}
}

// FieldUpdate carries rewritten text. Nil fields were not requested.
type FieldUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Apply writes the update onto a slide, truncating to the slide's limits
func (u FieldUpdate) Apply(s *types.Slide) {
	if u.Title != nil {
		s.Title = *u.Title
	}
	if u.Description != nil {
		s.Description = *u.Description
	}
	s.TruncateText()
}

// Regenerate rewrites the requested field(s) of slide using its current text
// as context. For FieldBoth the title is rewritten first and the new title is
// used as context for the description. Any failure discards the whole update.
func (g *Generator) Regenerate(ctx context.Context, slide types.Slide, field Field, settings types.GenerationSettings) (FieldUpdate, error) {
	if _, err := ParseField(string(field)); err != nil {
		return FieldUpdate{}, err
	}
	settings = settings.WithDefaults()

	system, err := prompts.Render(promptFile, "regen-system", map[string]string{
		"Tone":       settings.Tone,
		"Complexity": settings.Complexity,
	})
	if err != nil {
		return FieldUpdate{}, err
	}

	var update FieldUpdate
	title := slide.Title

	if field == FieldTitle || field == FieldBoth {
		v, err := g.rewrite(ctx, system, FieldTitle, title, slide.Description)
		if err != nil {
			return FieldUpdate{}, err
		}
		update.Title = &v
		title = v
	}
	if field == FieldDescription || field == FieldBoth {
		v, err := g.rewrite(ctx, system, FieldDescription, title, slide.Description)
		if err != nil {
			return FieldUpdate{}, err
		}
		update.Description = &v
	}

	g.logger.Info("regenerated slide text", "slide", slide.ID, "field", field)
	return update, nil
}

// rewrite asks for new text for a single field, FieldTitle or FieldDescription
func (g *Generator) rewrite(ctx context.Context, system string, field Field, title, description string) (string, error) {
	schema, maxTokens := schemas.FieldDescription, DescriptionMaxTokens
	if field == FieldTitle {
		schema, maxTokens = schemas.FieldTitle, TitleMaxTokens
	}
	user, err := prompts.Render(promptFile, "regen-"+string(field), map[string]string{
		"Title":       title,
		"Description": description,
	})
	if err != nil {
		return "", err
	}

	text, err := g.client.Generate(ctx, llm.Request{
		SystemInstruction: system,
		UserContent:       user,
		MaxOutputTokens:   maxTokens,
		Tier:              llm.TierLite,
		JSON:              true,
	})
	if err != nil {
		return "", &APICallError{Message: "failed to rewrite " + string(field), Cause: err}
	}

	cleaned := llm.CleanJSONBlock(text)
	if err := schemas.Validate(schema, cleaned); err != nil {
		return "", &ParseError{Message: "unexpected " + string(field) + " rewrite response", Raw: cleaned, Cause: err}
	}
	var out FieldUpdate
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return "", &ParseError{Message: "failed to parse " + string(field) + " rewrite response", Raw: cleaned, Cause: err}
	}
	if field == FieldTitle {
		return deref(out.Title), nil
	}
	return deref(out.Description), nil
}
