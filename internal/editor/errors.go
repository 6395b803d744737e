package editor

import "errors"

var (
	// ErrGenerationInProgress is returned when a remote call is already outstanding for this editor
	ErrGenerationInProgress = errors.New("a generation request is already in progress")
	// ErrNoActiveSlide is returned by operations that act on the selection when nothing is selected
	ErrNoActiveSlide = errors.New("no active slide")
	// ErrSlideNotFound is returned when a slide id is not in the list
	ErrSlideNotFound = errors.New("slide not found")
	// ErrIndexOutOfRange is returned for list positions outside the slide list
	ErrIndexOutOfRange = errors.New("slide index out of range")
)
