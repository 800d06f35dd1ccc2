package markdown

import "fmt"

// SyntaxError is returned by Decode on the first grammar violation. Every
// SyntaxError embeds the offending input fragment so the caller never has
// to re-derive which line failed.
type SyntaxError struct {
	// Line is the 1-based source line the violation was found on.
	Line int
	// Fragment is the offending text (usually the whole source line).
	Fragment string
	// Reason is a short, human-readable description of the violation.
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("markdown: line %d: %s: %q", e.Line, e.Reason, e.Fragment)
}

func syntaxErrorf(line int, fragment, reason string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Line: line, Fragment: fragment, Reason: fmt.Sprintf(reason, args...)}
}
