package proof

import "regexp"

// diagnosticRe matches the coqc error shape: a quoted file reference, a line
// number, a character range, then the message on the line after "Error:".
// It is a best-effort heuristic for that one format; warnings, multi-error
// batches, and diagnostics without a character range will not match.
var diagnosticRe = regexp.MustCompile(`File "[^"]*", line (\d+), characters (\d+-\d+):\nError: (.*)`)

// ParsedError is the structured view of a single checker diagnostic.
type ParsedError struct {
	Line       string
	Characters string
	Message    string
}

// ParseDiagnostic applies the fixed coqc pattern to raw diagnostic text.
// The second return value reports whether the text matched; callers must
// branch on it rather than assume the fields are populated.
func ParseDiagnostic(diagnostic string) (ParsedError, bool) {
	match := diagnosticRe.FindStringSubmatch(diagnostic)
	if match == nil {
		return ParsedError{}, false
	}
	return ParsedError{
		Line:       match[1],
		Characters: match[2],
		Message:    match[3],
	}, true
}

// ErrorKind tags the carried-forward error between attempts.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorRaw
	ErrorStructured
)

// PriorError is the error threaded from a failed attempt into the next
// round's prompt. It is either absent, a raw diagnostic string, or an
// already-parsed diagnostic.
type PriorError struct {
	Kind   ErrorKind
	Raw    string
	Parsed ParsedError
}

// NoError reports that the previous round produced no diagnostic.
func NoError() PriorError {
	return PriorError{Kind: ErrorNone}
}

// RawError wraps an unparsed diagnostic string.
func RawError(diagnostic string) PriorError {
	return PriorError{Kind: ErrorRaw, Raw: diagnostic}
}

// StructuredError wraps an already-parsed diagnostic.
func StructuredError(parsed ParsedError) PriorError {
	return PriorError{Kind: ErrorStructured, Parsed: parsed}
}
