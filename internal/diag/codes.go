package diag

import (
	"fmt"
)

// Code identifies a diagnostic kind. Numeric blocks group codes by phase.
type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexUnknownChar          Code = 1001
	LexUnterminatedString   Code = 1002
	LexUnterminatedTemplate Code = 1003
	LexUnterminatedComment  Code = 1004
	LexBadNumber            Code = 1005
	LexBadEscape            Code = 1006

	// Syntax
	SynUnexpectedToken   Code = 2001
	SynExpectIdentifier  Code = 2002
	SynExpectSemicolon   Code = 2003
	SynUnclosedParen     Code = 2004
	SynUnclosedBrace     Code = 2005
	SynUnclosedBracket   Code = 2006
	SynBadAssignTarget   Code = 2007
	SynBadForHeader      Code = 2008
	SynDuplicateDefault  Code = 2009
	SynOrphanBreak       Code = 2010
	SynOrphanContinue    Code = 2011
	SynUnknownLabel      Code = 2012
	SynExpectFunction    Code = 2013

	// Lowering
	LowUnsupportedSyntax Code = 3001
	LowUnreachableCode   Code = 3002

	// IR invariants (internal errors)
	IRUnterminatedBlock Code = 4001
	IRMissingTarget     Code = 4002
	IROrphanBlock       Code = 4003
	IRRedefinedSSAName  Code = 4004
	IRScopeOverlap      Code = 4005

	// Emission
	EmitOrphanRegion Code = 5001
)

func (c Code) String() string {
	return fmt.Sprintf("MC%04d", uint16(c))
}
