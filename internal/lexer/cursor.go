package lexer

import (
	"fmt"

	"fortio.org/safecast"

	"memoc/internal/source"
)

// Cursor is a byte position within a file.
type Cursor struct {
	File *source.File
	Off  uint32
}

// NewCursor creates a cursor at the start of the file.
func NewCursor(f *source.File) Cursor {
	if _, err := safecast.Conv[uint32](len(f.Content)); err != nil {
		panic(fmt.Errorf("file content overflows offset space: %w", err))
	}
	return Cursor{File: f, Off: 0}
}

func (c *Cursor) limit() uint32 {
	return uint32(len(c.File.Content))
}

// EOF reports whether the cursor is past the last byte.
func (c *Cursor) EOF() bool {
	return c.Off >= c.limit()
}

// Peek returns the current byte, or 0 at EOF.
func (c *Cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.File.Content[c.Off]
}

// PeekAt returns the byte n positions ahead, or 0 past EOF.
func (c *Cursor) PeekAt(n uint32) byte {
	if c.Off+n >= c.limit() {
		return 0
	}
	return c.File.Content[c.Off+n]
}

// Bump advances past the current byte.
func (c *Cursor) Bump() {
	if !c.EOF() {
		c.Off++
	}
}

// Text returns the bytes in [start, c.Off).
func (c *Cursor) Text(start uint32) string {
	return string(c.File.Content[start:c.Off])
}

// Span returns a span from start to the current offset.
func (c *Cursor) Span(start uint32) source.Span {
	return source.Span{File: c.File.ID, Start: start, End: c.Off}
}
