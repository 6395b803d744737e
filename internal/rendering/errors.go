// Package rendering rasterizes slides to PNG or JPEG and packages exports.
package rendering

import "fmt"

// TemplateError represents an error building or executing the slide HTML template
type TemplateError struct {
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("template error: %s", e.Message)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// RenderError is a failed slide render. Index is the zero-based slide position.
type RenderError struct {
	Index   int
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("render error (slide %d): %s: %v", e.Index+1, e.Message, e.Cause)
	}
	return fmt.Sprintf("render error (slide %d): %s", e.Index+1, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}
