// Package extract recovers structured JSON values embedded in free-form
// model output. Extraction is best-effort: three ordered strategies are
// tried and every failure is swallowed until all are exhausted. The
// delimiter heuristic is lossy (it does not balance nested delimiters);
// callers must define a deterministic fallback and tolerate occasional
// mis-extraction. This is a known limitation, not a bug.
package extract

import (
	"encoding/json"
	"strings"
)

const fence = "```"

// Extract attempts to decode a value of type T from text. Strategies, in
// order, stopping at first success:
//
//  1. the entire text as JSON
//  2. the content of the first fenced code block
//  3. the substring between the first '{' or '[' and the last matching
//     closing delimiter
//
// The second return value reports whether any strategy succeeded.
func Extract[T any](text string) (T, bool) {
	var zero T

	for _, candidate := range Candidates(text) {
		var v T
		if err := json.Unmarshal([]byte(candidate), &v); err == nil {
			return v, true
		}
	}
	return zero, false
}

// Candidates returns the substrings the strategies would attempt to parse,
// in strategy order. Strategies that find nothing contribute no candidate.
func Candidates(text string) []string {
	candidates := []string{text}
	if block, ok := FencedBlock(text); ok {
		candidates = append(candidates, block)
	}
	if slice, ok := DelimitedSlice(text); ok {
		candidates = append(candidates, slice)
	}
	return candidates
}

// FencedBlock returns the content of the first triple-backtick code block,
// with an optional language tag stripped. Found via substring search.
func FencedBlock(text string) (string, bool) {
	start := strings.Index(text, fence)
	if start == -1 {
		return "", false
	}
	rest := text[start+len(fence):]

	// Drop the language tag line, if any.
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine != "" && !strings.ContainsAny(firstLine, "{[") {
			rest = rest[nl+1:]
		}
	}

	end := strings.Index(rest, fence)
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// DelimitedSlice locates the first '{' or '[', whichever comes first, and
// returns the substring up to the last occurrence of the matching closing
// delimiter. Nested delimiters are not balanced.
func DelimitedSlice(text string) (string, bool) {
	objStart := strings.IndexByte(text, '{')
	arrStart := strings.IndexByte(text, '[')

	start, close := objStart, byte('}')
	if objStart == -1 || (arrStart != -1 && arrStart < objStart) {
		start, close = arrStart, ']'
	}
	if start == -1 {
		return "", false
	}

	end := strings.LastIndexByte(text[start:], close)
	if end <= 0 {
		return "", false
	}
	return text[start : start+end+1], true
}
