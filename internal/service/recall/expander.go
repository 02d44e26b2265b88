package recall

import "strings"

// synonyms maps common query words to close variants. Expansion rewrites the
// query once per variant so the vector path also sees phrasings the user did
// not type.
var synonyms = map[string][]string{
	"会议": {"周会", "讨论会"},
	"喜欢": {"偏好", "最爱"},
	"优点": {"优势", "好处"},
	"如何": {"怎样", "怎么"},
	"运作": {"工作", "运行"},
}

// Expand returns alternative phrasings of the query: one rewrite per synonym
// of each matched token, plus the bare keywords joined as a compact
// reformulation. The original query is not included.
func Expand(query string, tokens []string) []string {
	var variants []string
	for _, tok := range tokens {
		for _, syn := range synonyms[tok] {
			variants = append(variants, strings.Replace(query, tok, syn, 1))
		}
	}
	if len(tokens) > 1 {
		variants = append(variants, strings.Join(tokens, " "))
	}
	return variants
}
