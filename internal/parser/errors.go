package parser

import "fmt"

// ErrorReason classifies an extraction failure.
type ErrorReason string

const (
	Malformed       ErrorReason = "malformed"
	DuplicateSymbol ErrorReason = "duplicate_symbol"
)

// ExtractError is a typed extraction failure. Extraction never returns a
// partial model: a malformed file aborts the whole run, because patching
// depends on exact byte ranges.
type ExtractError struct {
	Reason ErrorReason
	File   string
	Line   int // approximate line of the problem, 1-based
	Symbol string
}

func (e *ExtractError) Error() string {
	switch e.Reason {
	case DuplicateSymbol:
		return fmt.Sprintf("extract %s: duplicate declaration of %q", e.File, e.Symbol)
	default:
		return fmt.Sprintf("extract %s: malformed block structure near line %d", e.File, e.Line)
	}
}
