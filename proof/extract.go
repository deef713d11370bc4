package proof

import (
	"regexp"
	"strings"
)

var (
	fencedRe        = regexp.MustCompile("(?s)```(.*?)```")
	languageTagRe   = regexp.MustCompile(`^[a-zA-Z]*\n`)
	innerFenceRe    = regexp.MustCompile("```[a-zA-Z]*\n")
	trailingFenceRe = regexp.MustCompile("(?m)```\\s*$")
)

// ExtractCode pulls the first triple-backtick fenced region out of raw model
// text. A leading language-tag line is removed, stray fence lines inside the
// region are dropped, and the result is trimmed. Returns an empty string when
// the text contains no fenced region; callers treat that as extraction
// failure, not as valid empty code. Only the first region is considered even
// when the response carries several.
func ExtractCode(text string) string {
	match := fencedRe.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	segment := strings.TrimSpace(match[1])
	segment = languageTagRe.ReplaceAllString(segment, "")
	return sanitizeSegment(segment)
}

// sanitizeSegment strips fence artifacts left inside an extracted region and
// trims the result. It is a no-op on text without fence lines.
func sanitizeSegment(segment string) string {
	segment = innerFenceRe.ReplaceAllString(segment, "")
	segment = trailingFenceRe.ReplaceAllString(segment, "")
	return strings.TrimSpace(segment)
}
