// Package jsonextract pulls a JSON object out of free-form language-model
// output. Replies routinely arrive wrapped in prose, code fences, or a
// visible reasoning preamble, so extraction walks the text with a
// string-aware brace counter instead of trusting the first and last brace.
package jsonextract

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrEmptyInput = errors.New("jsonextract: empty input")
	ErrNoObject   = errors.New("jsonextract: no json object found")
	ErrUnbalanced = errors.New("jsonextract: unbalanced json object")
)

// Markers that terminate a reasoning preamble. Everything up to and
// including the last occurrence is discarded before extraction.
var preambleMarkers = []string{
	"</think>",
	"</reasoning>",
	"◁/think▷",
}

// StripPreamble removes a reasoning preamble terminated by any known
// marker. Text without a marker is returned unchanged.
func StripPreamble(text string) string {
	for _, marker := range preambleMarkers {
		if idx := strings.LastIndex(text, marker); idx >= 0 {
			text = text[idx+len(marker):]
		}
	}
	return strings.TrimSpace(text)
}

// FirstObject returns the first balanced {...} object in text. Braces
// inside JSON strings and escaped quotes are ignored by the counter.
func FirstObject(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyInput
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ErrNoObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", ErrUnbalanced
}

// Extract strips any reasoning preamble and code fencing, then returns the
// first balanced JSON object as raw bytes.
func Extract(text string) ([]byte, error) {
	cleaned := StripPreamble(text)
	cleaned = strings.TrimSpace(strings.Trim(cleaned, "`"))
	cleaned = strings.TrimPrefix(cleaned, "json")

	object, err := FirstObject(cleaned)
	if err != nil {
		return nil, err
	}
	return []byte(object), nil
}

// Decode extracts the first JSON object from text and unmarshals it into dst.
func Decode(text string, dst any) error {
	data, err := Extract(text)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}
