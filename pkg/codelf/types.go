package codelf

import "errors"

// ErrNoTranslator is returned when a source-language query arrives and no
// translation backend is configured.
var ErrNoTranslator = errors.New("query is source-language but no translator is configured")

// QueryOption is the input of one RequestVariable call.
type QueryOption struct {
	Query string   `json:"query"`
	Page  int      `json:"page,omitempty"`
	Lang  []string `json:"lang,omitempty"`
}

// RepoResult is one candidate identifier and the repository it was found in.
type RepoResult struct {
	Keyword  string `json:"keyword"`
	RepoLink string `json:"repoLink"`
	RepoLang string `json:"repoLang"`
}

// VariableResult is the answer to one query.
type VariableResult struct {
	SearchValue  string       `json:"searchValue"`
	Page         int          `json:"page"`
	VariableList []RepoResult `json:"variableList"`
	SearchLang   []string     `json:"searchLang"`
	Suggestion   []string     `json:"suggestion"`
	IsZH         bool         `json:"isZH"`
}

func emptyResult(searchValue string, page int, langs []string) *VariableResult {
	return &VariableResult{
		SearchValue:  searchValue,
		Page:         page,
		VariableList: []RepoResult{},
		SearchLang:   langs,
		Suggestion:   []string{},
	}
}
