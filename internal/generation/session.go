package generation

import (
	"strings"
	"unicode/utf8"

	"github.com/jonathan/slideshow-studio/internal/types"
)

// ChunkSize is the number of source characters sent per generation request
const ChunkSize = 4000

// Session is the generation cursor over a captured source text. Offset is
// counted in characters and only moves forward until the next non-batch run.
type Session struct {
	SourceText string                   `json:"sourceText"`
	Offset     int                      `json:"batchOffset"`
	Settings   types.GenerationSettings `json:"settings"`
}

// NewSession captures text and resets the cursor
func NewSession(text string, settings types.GenerationSettings) Session {
	return Session{SourceText: text, Offset: 0, Settings: settings}
}

// Len returns the source length in characters
func (s Session) Len() int {
	return utf8.RuneCountInString(s.SourceText)
}

// Empty reports whether there is nothing to generate from
func (s Session) Empty() bool {
	return strings.TrimSpace(s.SourceText) == ""
}

// Chunk returns the characters in [offset, offset+ChunkSize) and the clamped end
func (s Session) Chunk(offset int) (string, int) {
	runes := []rune(s.SourceText)
	start := min(max(offset, 0), len(runes))
	end := min(start+ChunkSize, len(runes))
	return string(runes[start:end]), end
}

// NextChunk returns the chunk at the cursor
func (s Session) NextChunk() (string, int) {
	return s.Chunk(s.Offset)
}

// Advance moves the cursor one chunk forward, clamped to the source length
func (s *Session) Advance() {
	s.Offset = min(s.Offset+ChunkSize, s.Len())
}

// Remaining returns the characters not yet consumed
func (s Session) Remaining() int {
	return max(s.Len()-s.Offset, 0)
}

// Exhausted reports whether a batch run has nothing left to read
func (s Session) Exhausted() bool {
	return s.Offset >= s.Len()
}
