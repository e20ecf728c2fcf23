// Package template implements the contract template engine core: placeholder
// extraction, supplier auto-fill binding and substitution rendering. All
// functions are pure; persistence and transport live in the adapters.
package template

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"prismfinance/internal/domain"
)

// Placeholder syntax is the one bit-exact format contract of the system: two
// ASCII opening braces, an identifier (letters, digits, underscore, accepted
// diacritics), two ASCII closing braces. Whitespace around the identifier is
// trimmed. The scanner below is shared by Extract and Render so the two can
// never disagree on what counts as a placeholder.

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// parsePlaceholder tries to read a placeholder starting at src[i], which must
// point at "{{". It returns the trimmed identifier and the index just past the
// closing braces, or ok=false when the token is malformed.
func parsePlaceholder(src string, i int) (name string, end int, ok bool) {
	j := i + 2
	for j < len(src) && (src[j] == ' ' || src[j] == '\t') {
		j++
	}
	start := j
	for j < len(src) {
		r, size := utf8.DecodeRuneInString(src[j:])
		if !isIdentRune(r) {
			break
		}
		j += size
	}
	name = src[start:j]
	for j < len(src) && (src[j] == ' ' || src[j] == '\t') {
		j++
	}
	if name == "" || !strings.HasPrefix(src[j:], "}}") {
		return "", 0, false
	}
	return name, j + 2, true
}

// Extract scans raw template content and returns the distinct placeholder
// names in order of first appearance. Malformed placeholders (unbalanced
// braces, empty or invalid identifiers) are skipped, never errored. Content
// that is not valid text fails with ErrUnsupportedDocumentFormat.
func Extract(rawContent string) ([]string, error) {
	if !utf8.ValidString(rawContent) || strings.ContainsRune(rawContent, 0) {
		return nil, domain.ErrUnsupportedDocumentFormat
	}
	var names []string
	seen := make(map[string]struct{})
	for i := 0; i+1 < len(rawContent); {
		if rawContent[i] != '{' || rawContent[i+1] != '{' {
			i++
			continue
		}
		name, end, ok := parsePlaceholder(rawContent, i)
		if !ok {
			// Advancing one byte lets "{{{x}}}" resolve to the inner token.
			i++
			continue
		}
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			names = append(names, name)
		}
		i = end
	}
	return names, nil
}
