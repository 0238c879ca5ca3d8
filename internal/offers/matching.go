package offers

import (
	"regexp"
	"strings"
)

var reNonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)

// synonyms widens matching for terms shoppers and circulars spell
// differently.
var synonyms = map[string][]string{
	"ground beef": {"ground beef", "hamburger", "hamburger meat", "minced beef"},
	"onion":       {"onion", "yellow onion", "white onion", "red onion"},
	"jalapeno":    {"jalapeno", "jalapeno pepper", "jalapeno peppers"},
}

// tokenize lowercases, strips punctuation, and naively singularizes.
func tokenize(s string) []string {
	s = reNonAlnum.ReplaceAllString(strings.ToLower(s), " ")
	var out []string
	for _, p := range strings.Fields(s) {
		switch {
		case len(p) > 3 && strings.HasSuffix(p, "es"):
			p = p[:len(p)-2]
		case len(p) > 3 && strings.HasSuffix(p, "s"):
			p = p[:len(p)-1]
		}
		out = append(out, p)
	}
	return out
}

func queryVariants(query string) [][]string {
	base := tokenize(query)
	variants := [][]string{base}
	joined := strings.Join(base, " ")
	for key, alts := range synonyms {
		if strings.Contains(joined, key) {
			for _, a := range alts {
				variants = append(variants, tokenize(a))
			}
		}
	}
	// A two-word query also matches on either word alone.
	if len(base) == 2 {
		variants = append(variants, []string{base[0]}, []string{base[1]})
	}
	return variants
}

// matchesQuery reports whether candidate text plausibly describes the query.
// A variant matches when all of its tokens appear, or when a multi-token
// variant overlaps the text on at least one token.
func matchesQuery(query, text string) bool {
	textTokens := make(map[string]struct{})
	for _, t := range tokenize(text) {
		textTokens[t] = struct{}{}
	}
	for _, variant := range queryVariants(query) {
		if len(variant) == 0 {
			continue
		}
		all := true
		overlap := 0
		for _, tok := range variant {
			if _, ok := textTokens[tok]; ok {
				overlap++
			} else {
				all = false
			}
		}
		if all {
			return true
		}
		if len(variant) >= 2 && overlap >= 1 {
			return true
		}
	}
	return false
}
