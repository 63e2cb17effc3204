package textutil

import (
	"bytes"
	"regexp"
	"strings"
)

// IsZH reports whether s contains any rune outside the single-byte range
// (U+0000-U+00FF). Such input is treated as a source-language (Chinese) query.
func IsZH(s string) bool {
	for _, r := range s {
		if r > 0xff {
			return true
		}
	}
	return false
}

// NormalizeQuery trims s and collapses every whitespace run into one space.
func NormalizeQuery(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var jsonpPattern = regexp.MustCompile(`(?s)^[\w$.?]*\((.*)\)\s*;?$`)

// UnwrapJSONP strips a JSONP callback wrapper such as `?({...})` from body.
// Plain JSON bodies are returned trimmed and otherwise unchanged.
func UnwrapJSONP(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	if m := jsonpPattern.FindSubmatch(trimmed); m != nil {
		return bytes.TrimSpace(m[1])
	}
	return trimmed
}
