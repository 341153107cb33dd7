package textutil

import (
	"regexp"
	"strings"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	cleanWhitespace = regexp.MustCompile(`\s+`)
)

// NormalizeName produces the canonical comparison key for a free-text
// substance name: trimmed, lower-cased, with runs of punctuation and
// whitespace collapsed to single spaces. Empty input yields an empty key,
// which callers treat as "no match".
func NormalizeName(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	value = nonAlphanumeric.ReplaceAllString(value, " ")
	return strings.TrimSpace(value)
}

// CollapseWhitespace squeezes internal whitespace runs without touching
// case or punctuation.
func CollapseWhitespace(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return cleanWhitespace.ReplaceAllString(value, " ")
}

// EqualNames reports whether two free-text names share a canonical key.
func EqualNames(a, b string) bool {
	key := NormalizeName(a)
	return key != "" && key == NormalizeName(b)
}

// EscapeLike escapes the SQL LIKE metacharacters in value so it can be
// embedded in a pattern literally.
func EscapeLike(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, "%", `\%`)
	value = strings.ReplaceAll(value, "_", `\_`)
	return value
}

// SplitList breaks a delimited source field ("EPA; DHA, Vitamin E") into
// trimmed, de-duplicated entries, preserving first-seen order.
func SplitList(value string) []string {
	value = strings.ReplaceAll(value, ";", ",")
	parts := strings.Split(value, ",")
	seen := make(map[string]struct{}, len(parts))
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		key := strings.ToLower(clean)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, clean)
	}
	return result
}
