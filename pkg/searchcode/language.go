package searchcode

import (
	"sort"
	"strings"
)

// topProgramLan maps the languages offered for filtering to searchcode
// language ids. Several ids are comma-joined where one name covers more
// than one searchcode language.
var topProgramLan = map[string]string{
	"JavaScript":   "22,106",
	"CSS":          "133,135",
	"HTML":         "3,39",
	"Swift":        "137",
	"Objective-C":  "35",
	"Java":         "23",
	"Python":       "19",
	"PHP":          "24",
	"Ruby":         "32",
	"C/C++":        "28,16",
	"C#":           "6",
	"Go":           "55",
	"Perl":         "51",
	"Clojure":      "104,109",
	"Haskell":      "40",
	"Lua":          "54",
	"Matlab":       "47",
	"Scala":        "41",
	"R":            "29",
	"Rust":         "144",
	"Shell":        "18",
	"Kotlin":       "202",
	"TypeScript":   "151",
	"Dart":         "155",
	"Groovy":       "58",
	"Erlang":       "25",
	"Elixir":       "143",
	"Visual Basic": "31",
	"SQL":          "45",
}

// LanguageMapper converts user-facing language names to searchcode ids.
type LanguageMapper struct {
	codes map[string]string
}

// NewLanguageMapper creates a mapper over the built-in language table.
func NewLanguageMapper() *LanguageMapper {
	codes := make(map[string]string, len(topProgramLan))
	for name, code := range topProgramLan {
		codes[strings.ToLower(name)] = code
	}
	return &LanguageMapper{codes: codes}
}

// ToBackendCodes converts names to searchcode ids, expanding comma-joined
// entries and dropping names with no known mapping.
// Examples:
//   - ["Go"] -> ["55"]
//   - ["JavaScript", "Cobol"] -> ["22", "106"]
func (lm *LanguageMapper) ToBackendCodes(langs []string) []string {
	var out []string
	for _, l := range langs {
		code, ok := lm.codes[strings.ToLower(strings.TrimSpace(l))]
		if !ok {
			continue
		}
		out = append(out, strings.Split(code, ",")...)
	}
	return out
}

// Languages lists the supported language names, sorted.
func Languages() []string {
	names := make([]string, 0, len(topProgramLan))
	for name := range topProgramLan {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
