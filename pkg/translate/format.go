package translate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dasmlab/codelf/pkg/textutil"
)

// Punctuation (ASCII and CJK) replaced by a space before suggestion splitting.
const suggestionPunctuation = "`~!@#$^&*()=|{}':;,[].<>/?！￥…（）—\\【】‘；：”“’。，、？"

// Punctuation deleted from translations.
const translationPunctuation = "!$%^&*()_+|~=`{}[]:\";'<>?,./"

// FormatSuggestion splits a blob of translated or explanatory text into
// suggestion words. A word is kept when it is longer than one character,
// contains only single-byte runes and is not a case-insensitive repeat of an
// earlier word. Output follows first appearance.
func FormatSuggestion(s string) []string {
	if s == "" {
		return []string{}
	}
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(suggestionPunctuation, r) {
			return ' '
		}
		return r
	}, s)
	tokens := strings.FieldsFunc(cleaned, func(r rune) bool {
		return unicode.IsSpace(r) || r == '+'
	})

	out := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) <= 1 || textutil.IsZH(tok) {
			continue
		}
		folded := strings.ToLower(tok)
		if _, dup := seen[folded]; dup {
			continue
		}
		seen[folded] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// FormatTranslation joins translation fragments into one phrase, removing
// punctuation, repeated words and English articles.
func FormatTranslation(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(translationPunctuation, r) {
			return -1
		}
		return r
	}, strings.Join(parts, " "))

	words := strings.Fields(cleaned)
	out := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if isArticle(w) {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

func isArticle(w string) bool {
	switch strings.ToLower(w) {
	case "a", "an", "the":
		return true
	}
	return false
}
