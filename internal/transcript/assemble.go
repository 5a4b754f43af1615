// Package transcript assembles recognized segments into channel-ready text.
package transcript

import (
	"strings"
	"unicode"
)

// Options controls transcript assembly formatting behavior.
type Options struct {
	CapitalizeSentences bool
}

// Assemble joins recognizer segments and applies configured normalization.
// Segments that merely extend the previous one (interim-style duplicates)
// are merged instead of repeated.
func Assemble(segments []string, opts Options) string {
	merged := make([]string, 0, len(segments))
	for _, segment := range segments {
		merged = appendSegment(merged, segment)
	}
	if len(merged) == 0 {
		return ""
	}

	joined := strings.Join(merged, " ")
	normalized := strings.Join(strings.Fields(joined), " ")
	if normalized == "" {
		return ""
	}

	if opts.CapitalizeSentences {
		normalized = capitalizeSentences(normalized)
	}
	return normalized
}

// appendSegment merges continuation segments to avoid duplicate transcript growth.
func appendSegment(segments []string, transcript string) []string {
	transcript = cleanSegment(transcript)
	if transcript == "" {
		return segments
	}
	if len(segments) == 0 {
		return append(segments, transcript)
	}

	last := segments[len(segments)-1]
	switch {
	case transcript == last:
		return segments
	case strings.HasPrefix(transcript, last):
		segments[len(segments)-1] = transcript
		return segments
	case strings.HasPrefix(last, transcript):
		return segments
	default:
		return append(segments, transcript)
	}
}

// cleanSegment normalizes transcript whitespace.
func cleanSegment(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return strings.Join(strings.Fields(raw), " ")
}

// capitalizeSentences upper-cases the first letter of each sentence.
func capitalizeSentences(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	atSentenceStart := true
	for _, r := range text {
		switch {
		case atSentenceStart && unicode.IsLetter(r):
			b.WriteRune(unicode.ToUpper(r))
			atSentenceStart = false
		case r == '.' || r == '!' || r == '?':
			b.WriteRune(r)
			atSentenceStart = true
		case atSentenceStart && !unicode.IsSpace(r) && r != '¿' && r != '¡':
			b.WriteRune(r)
			atSentenceStart = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
