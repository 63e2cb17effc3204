package codelf

import (
	"strings"

	"github.com/dasmlab/codelf/pkg/textutil"
)

// characters splits a query into its runes, the seed of the suggestion list.
func characters(query string) []string {
	out := make([]string, 0, len(query))
	for _, r := range query {
		out = append(out, string(r))
	}
	return out
}

// fold puts keywords ahead of current, keeps the first occurrence of every
// token and drops blank and source-language tokens.
func fold(keywords, current []string) []string {
	merged := make([]string, 0, len(keywords)+len(current))
	merged = append(merged, keywords...)
	merged = append(merged, current...)

	out := make([]string, 0, len(merged))
	seen := make(map[string]struct{}, len(merged))
	for _, tok := range merged {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if strings.TrimSpace(tok) == "" || textutil.IsZH(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}
