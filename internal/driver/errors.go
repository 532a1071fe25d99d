package driver

import (
	"fmt"

	"memoc/internal/source"
)

// ErrorKind classifies pipeline failures.
type ErrorKind uint8

const (
	// KindParse is a syntax error delegated from the parser.
	KindParse ErrorKind = iota
	// KindUnsupportedSyntax is a construct the lowering does not cover.
	KindUnsupportedSyntax
	// KindInvalidIR is an internal invariant violation.
	KindInvalidIR
	// KindEmission is an inability to serialize a reconstructed tree.
	KindEmission
)

func (k ErrorKind) String() string {
	switch k {
	case KindParse:
		return "ParseError"
	case KindUnsupportedSyntax:
		return "UnsupportedSyntax"
	case KindInvalidIR:
		return "InvalidIR"
	case KindEmission:
		return "EmissionError"
	}
	return "Unknown"
}

// Error is the single error type the driver surfaces. A compilation is
// atomic: any Error aborts the pipeline and no partial output is returned.
type Error struct {
	Kind    ErrorKind
	Span    source.Span
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Format renders the error with line and column when a file set can resolve
// the span.
func (e *Error) Format(fs *source.FileSet) string {
	if fs == nil || e.Span.Empty() && e.Span.Start == 0 {
		return e.Error()
	}
	path, lc := fs.Position(e.Span)
	if path == "" {
		return e.Error()
	}
	return fmt.Sprintf("%s:%d:%d: %s", path, lc.Line, lc.Col, e.Error())
}
