package offers

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reParens   = regexp.MustCompile(`\([^)]*\)`)
	reLeadQty  = regexp.MustCompile(`^\d+(\.\d+)?(/\d+)?(\s+\d+/\d+)?\s*`)
	reSpaces   = regexp.MustCompile(`\s+`)
	reUnits    *regexp.Regexp
	reSizeAdj  = regexp.MustCompile(`\b(medium|large|small|extra|jumbo)\s+`)
	reQualAdj  *regexp.Regexp
	reTrailing *regexp.Regexp
)

func init() {
	units := []string{
		`tablespoons?`, `tbsp\.?`, `teaspoons?`, `tsp\.?`,
		`cups?`, `c\.?`, `ounces?`, `oz\.?`, `pounds?`, `lbs?\.?`,
		`grams?`, `g\.?`, `kilograms?`, `kg\.?`,
		`milliliters?`, `ml\.?`, `liters?`, `l\.?`,
		`quarts?`, `qt\.?`, `pints?`, `pt\.?`, `gallons?`, `gal\.?`,
		`cloves?`, `pinch(?:es)?`, `dash(?:es)?`, `sprigs?`,
		`cans?`, `packages?`, `pkg\.?`, `containers?`,
		`slices?`, `pieces?`, `whole`,
	}
	reUnits = regexp.MustCompile(`\b(?:` + strings.Join(units, "|") + `)\b`)

	qualAdj := []string{
		`white`, `brown`, `granulated`, `powdered`, `confectioners?`,
		`all-purpose`, `whole wheat`, `bread`, `cake`,
		`lean`, `extra`, `unsalted`, `salted`,
		`active`, `instant`, `dry`,
	}
	reQualAdj = regexp.MustCompile(`\b(?:` + strings.Join(qualAdj, "|") + `)\s+`)

	trailing := []string{
		`crushed?`, `cut`, `chopped?`, `diced?`, `sliced?`,
		`minced?`, `shredded?`, `grated?`, `peeled?`,
		`deveined?`, `skinless`, `boneless`, `trimmed?`,
		`and`, `tails?`, `off`,
	}
	reTrailing = regexp.MustCompile(`\s+(?:` + strings.Join(trailing, "|") + `)(\s|$)`)
}

// variants maps cleaned queries to a canonical form. Checked by exact match
// or prefix; ordered so longer keys win over their prefixes.
var variants = []struct{ from, to string }{
	{"hamburger meat", "ground beef"},
	{"hamburger", "ground beef"},
	{"minced beef", "ground beef"},
	{"ground beef", "ground beef"},
	{"unsalted butter", "butter"},
	{"salted butter", "butter"},
	{"butter", "butter"},
	{"olive oil", "olive oil"},
	{"vegetable oil", "vegetable oil"},
	{"jalapenos", "jalapeno"},
	{"jalapeno", "jalapeno"},
	{"onions", "onion"},
	{"onion", "onion"},
	{"garlic", "garlic"},
	{"thyme", "thyme"},
	{"shrimp", "shrimp"},
	{"yeast", "yeast"},
	{"flour", "flour"},
	{"sugar", "sugar"},
}

var accentStripper = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeQuery reduces a free-form ingredient phrase to the core product
// term providers can actually search for. "2 tablespoons white sugar"
// becomes "sugar"; "1 pound lean ground beef" becomes "ground beef". When
// cleanup strips everything, the trimmed original is returned instead.
func NormalizeQuery(query string) string {
	text := strings.ToLower(strings.TrimSpace(query))
	if folded, _, err := transform.String(accentStripper, text); err == nil {
		text = folded
	}

	text = reParens.ReplaceAllString(text, " ")
	if i := strings.Index(text, ","); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	text = reLeadQty.ReplaceAllString(text, "")
	text = reUnits.ReplaceAllString(text, "")
	text = reSizeAdj.ReplaceAllString(text, "")
	text = reQualAdj.ReplaceAllString(text, "")
	for {
		next := reTrailing.ReplaceAllString(text, " ")
		if next == text {
			break
		}
		text = next
	}
	text = strings.TrimSpace(reSpaces.ReplaceAllString(text, " "))

	if text == "" {
		return strings.TrimSpace(query)
	}

	for _, v := range variants {
		if text == v.from || strings.HasPrefix(text, v.from+" ") {
			return v.to
		}
	}
	return text
}
