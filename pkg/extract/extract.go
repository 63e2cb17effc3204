// Package extract harvests candidate identifiers from raw code-search
// results. Each keyword of the query becomes an anchored pattern that
// captures the keyword together with the identifier characters around it.
package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dasmlab/codelf/pkg/searchcode"
)

const (
	// MaxCandidateLength rejects matches of this many characters or more.
	MaxCandidateLength = 64
	// Base64LineThreshold is the length above which a line carrying an
	// inline base64 payload is skipped.
	Base64LineThreshold = 256
	// UnknownLanguage is reported when the provider has no language tag.
	UnknownLanguage = "Unknown"

	base64Marker = ";base64,"
)

var lineBreaks = regexp.MustCompile(`[\r\n]+`)

// Candidate is one harvested identifier with the repository it came from.
type Candidate struct {
	Keyword  string `json:"keyword"`
	RepoLink string `json:"repoLink"`
	RepoLang string `json:"repoLang"`
}

// Keywords splits query into the keywords used for matching. Tokens of one
// character are dropped.
func Keywords(query string) []string {
	var out []string
	for _, tok := range strings.Fields(query) {
		if utf8.RuneCountInString(tok) > 1 {
			out = append(out, tok)
		}
	}
	return out
}

// Patterns builds one case-insensitive pattern per keyword.
func Patterns(query string) []*regexp.Regexp {
	keywords := Keywords(query)
	out := make([]*regexp.Regexp, 0, len(keywords))
	for _, kw := range keywords {
		out = append(out, regexp.MustCompile(`(?i)[-\w/$]*`+regexp.QuoteMeta(kw)+`[-\w$]*`))
	}
	return out
}

// Variables scans results for identifiers containing a keyword of query.
// Candidates are returned in order of first acceptance; a token already
// accepted under any letter case is not repeated.
func Variables(results []searchcode.Result, query string) []Candidate {
	patterns := Patterns(query)
	candidates := []Candidate{}
	if len(patterns) == 0 {
		return candidates
	}

	seen := make(map[string]struct{})
	for _, res := range results {
		repoLink := secureLink(res.Repo)
		repoLang := res.Language
		if repoLang == "" {
			repoLang = UnknownLanguage
		}
		text := joinLines(res.Lines)

		for _, re := range patterns {
			for _, match := range re.FindAllString(text, -1) {
				val := strings.TrimRight(strings.TrimLeft(match, "-/"), "-/")
				if !acceptable(val) {
					continue
				}
				folded := strings.ToLower(val)
				if _, dup := seen[folded]; dup {
					continue
				}
				seen[folded] = struct{}{}
				candidates = append(candidates, Candidate{
					Keyword:  val,
					RepoLink: repoLink,
					RepoLang: repoLang,
				})
			}
		}
	}
	return candidates
}

// acceptable rejects empty tokens, link fragments and over-long matches.
func acceptable(val string) bool {
	if val == "" || strings.Contains(val, "/") {
		return false
	}
	return utf8.RuneCountInString(val) < MaxCandidateLength
}

// secureLink rewrites insecure repository schemes to https.
func secureLink(repo string) string {
	for _, scheme := range []string{"git://", "http://"} {
		if strings.HasPrefix(repo, scheme) {
			return "https://" + strings.TrimPrefix(repo, scheme)
		}
	}
	return repo
}

// joinLines concatenates lines in line-number order, skipping embedded
// base64 blobs, with line terminators collapsed to single spaces.
func joinLines(lines map[string]string) string {
	type numbered struct {
		n    int
		key  string
		text string
	}
	ordered := make([]numbered, 0, len(lines))
	for k, v := range lines {
		n, err := strconv.Atoi(k)
		if err != nil {
			n = -1
		}
		ordered = append(ordered, numbered{n: n, key: k, text: v})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].n != ordered[j].n {
			return ordered[i].n < ordered[j].n
		}
		return ordered[i].key < ordered[j].key
	})

	var b strings.Builder
	for _, l := range ordered {
		if strings.Contains(l.text, base64Marker) && utf8.RuneCountInString(l.text) > Base64LineThreshold {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.text)
	}
	return lineBreaks.ReplaceAllString(b.String(), " ")
}
