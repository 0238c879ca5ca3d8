package parser

import (
	"strings"
)

// Trailing preparation words that vary between passes of the same item.
var trailingDescriptors = map[string]struct{}{
	"sliced":   {},
	"chopped":  {},
	"diced":    {},
	"shredded": {},
	"boneless": {},
	"skinless": {},
	"fresh":    {},
	"frozen":   {},
	"whole":    {},
	"trimmed":  {},
}

// NormalizeName produces the dedup key for a product name: lowercase,
// collapsed whitespace, trailing descriptor words stripped. "Tri Tip Roast"
// and "tri tip roast  sliced" collapse to the same key.
func NormalizeName(name string) string {
	raw := strings.Fields(strings.ToLower(name))
	fields := make([]string, 0, len(raw))
	for _, f := range raw {
		if f = strings.Trim(f, ".,;:"); f != "" {
			fields = append(fields, f)
		}
	}
	for len(fields) > 1 {
		if _, ok := trailingDescriptors[fields[len(fields)-1]]; !ok {
			break
		}
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}
