package constants

import (
	"strings"
)

// Section is a grocery department stamped on extracted circular items.
type Section string

const (
	Meat      Section = "Meat"
	Seafood   Section = "Seafood"
	Produce   Section = "Produce"
	Dairy     Section = "Dairy"
	Bakery    Section = "Bakery"
	Beverages Section = "Beverages"
	Frozen    Section = "Frozen"
	Deli      Section = "Deli"
	Grocery   Section = "Grocery"
	Featured  Section = "Featured"
)

var allSections = []Section{
	Meat,
	Seafood,
	Produce,
	Dairy,
	Bakery,
	Beverages,
	Frozen,
	Deli,
	Grocery,
	Featured,
}

// sectionKeywords maps header words seen in circulars to departments.
var sectionKeywords = map[string]Section{
	"meat":       Meat,
	"beef":       Meat,
	"chicken":    Meat,
	"pork":       Meat,
	"lamb":       Meat,
	"turkey":     Meat,
	"fish":       Seafood,
	"seafood":    Seafood,
	"produce":    Produce,
	"vegetables": Produce,
	"fruits":     Produce,
	"fresh":      Produce,
	"dairy":      Dairy,
	"cheese":     Dairy,
	"milk":       Dairy,
	"yogurt":     Dairy,
	"butter":     Dairy,
	"wine":       Beverages,
	"beer":       Beverages,
	"spirits":    Beverages,
	"alcohol":    Beverages,
	"beverages":  Beverages,
	"bakery":     Bakery,
	"bread":      Bakery,
	"pasta":      Grocery,
	"grocery":    Grocery,
	"dry goods":  Grocery,
	"frozen":     Frozen,
	"deli":       Deli,
	"prepared":   Deli,
}

// Canonicalize maps free-form header text to a department. A header line
// matches when it contains any known keyword.
func Canonicalize(input string) (Section, bool) {
	if input == "" {
		return Featured, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	for _, sec := range allSections {
		if normalized == strings.ToLower(string(sec)) {
			return sec, true
		}
	}

	for kw, sec := range sectionKeywords {
		if strings.Contains(normalized, kw) {
			return sec, true
		}
	}

	return Featured, false
}
