// Package parser turns raw circular text or layout-grouped OCR spans into
// candidate products. Every candidate that survives holds a price or a
// discount and a plausible name; everything else is dropped silently and
// only counted.
package parser

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/circulars-tracker/constants"
	"github.com/joseph-ayodele/circulars-tracker/internal/entity"
)

var (
	reLinePrice    = regexp.MustCompile(`\$(\d+[.,]\d{2})`)
	reGroupPrice   = regexp.MustCompile(`\$?(\d+\.\d{2})\s*(?:/\s*([A-Za-z]+))?`)
	reDiscount     = regexp.MustCompile(`(\d{1,2})\s*%\s*(?:off|OFF|Off)`)
	reUnitSuffix   = regexp.MustCompile(`^/?\s*([A-Za-z]{1,6})\.?$`)
	reJunkDashes   = regexp.MustCompile(`[_\-]{2,}`)
	reMultiSpace   = regexp.MustCompile(`\s{2,}`)
	reLeadingGlyph = regexp.MustCompile(`^[A-Z]\s+`)
)

// Boilerplate keywords that show up around prices but never name a product.
var falsePositives = []string{
	"price", "member", "card", "offer", "save", "buy",
	"page", "limit", "with", "coupon", "rebate", "promotion",
	"this week",
}

type Config struct {
	// Line strategy range: tight, since native/linear text carries page
	// numbers and phone numbers that match the price pattern.
	LineMinPrice float64 // default 0.25
	LineMaxPrice float64 // default 50

	// Group strategy range: broad, spatial grouping already isolates the
	// price region.
	GroupMinPrice float64 // default 0.10
	GroupMaxPrice float64 // default 999
}

type Parser struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LineMinPrice <= 0 {
		cfg.LineMinPrice = 0.25
	}
	if cfg.LineMaxPrice <= 0 {
		cfg.LineMaxPrice = 50
	}
	if cfg.GroupMinPrice <= 0 {
		cfg.GroupMinPrice = 0.10
	}
	if cfg.GroupMaxPrice <= 0 {
		cfg.GroupMaxPrice = 999
	}
	return &Parser{cfg: cfg, logger: logger}
}

// ParseLines scans plain or native-layer text line by line, tracking section
// headers and extracting name/price/unit candidates around each price token.
func (p *Parser) ParseLines(text string) []entity.Product {
	var products []entity.Product
	rejected := 0
	currentSection := ""

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if len(stripped) < 3 {
			continue
		}

		if sec, ok := detectSection(stripped); ok {
			currentSection = string(sec)
			continue
		}

		matched := false
		for _, loc := range reLinePrice.FindAllStringSubmatchIndex(stripped, -1) {
			matched = true
			priceStr := strings.Replace(stripped[loc[2]:loc[3]], ",", ".", 1)
			price, err := strconv.ParseFloat(priceStr, 64)
			if err != nil || price < p.cfg.LineMinPrice || price > p.cfg.LineMaxPrice {
				rejected++
				continue
			}

			before := strings.TrimSpace(stripped[:loc[0]])
			after := strings.TrimSpace(stripped[loc[1]:])

			name := ""
			unit := "each"
			switch {
			case len(before) > 3:
				name = before
				if m := reUnitSuffix.FindStringSubmatch(after); m != nil {
					unit = strings.ToLower(m[1])
				}
			case len(after) > 3:
				// OCR sometimes flips name and price order.
				name = after
			case i+1 < len(lines):
				next := strings.TrimSpace(lines[i+1])
				if next != "" && !strings.Contains(next, "$") && len(next) > 3 && len(next) < 60 {
					name = next
				}
			}

			name = cleanName(name)
			if !validName(name, 4) {
				rejected++
				continue
			}

			pr := price
			products = append(products, entity.Product{
				Name:    name,
				Price:   &pr,
				Unit:    unit,
				Section: sectionOrFeatured(currentSection),
			})
		}

		// Discount-only promos ("50% off") have no price token but are
		// still valid candidates.
		if !matched {
			if prod, ok := p.parseDiscountLine(stripped, currentSection); ok {
				products = append(products, prod)
			}
		}
	}

	p.logger.Debug("parse.lines.done", "products", len(products), "rejected", rejected)
	return products
}

func (p *Parser) parseDiscountLine(line, section string) (entity.Product, bool) {
	m := reDiscount.FindStringSubmatchIndex(line)
	if m == nil {
		return entity.Product{}, false
	}
	pct, err := strconv.ParseFloat(line[m[2]:m[3]], 64)
	if err != nil || pct <= 0 || pct >= 100 {
		return entity.Product{}, false
	}
	name := cleanName(strings.TrimSpace(line[:m[0]]))
	if !validName(name, 4) {
		return entity.Product{}, false
	}
	return entity.Product{
		Name:            name,
		DiscountPercent: &pct,
		Unit:            "each",
		Section:         sectionOrFeatured(section),
		PromoText:       strings.TrimSpace(line[m[0]:m[1]]),
	}, true
}

// ParseGroup extracts one candidate from a layout group: the price token
// anchors the entry and the preceding text is the name.
func (p *Parser) ParseGroup(group []entity.TextSpan) (entity.Product, bool) {
	parts := make([]string, 0, len(group))
	var confSum float64
	for _, s := range group {
		parts = append(parts, s.Text)
		confSum += s.Confidence
	}
	full := strings.Join(parts, " ")

	loc := reGroupPrice.FindStringSubmatchIndex(full)
	if loc == nil {
		return entity.Product{}, false
	}
	price, err := strconv.ParseFloat(full[loc[2]:loc[3]], 64)
	if err != nil || price < p.cfg.GroupMinPrice || price > p.cfg.GroupMaxPrice {
		return entity.Product{}, false
	}

	unit := "ea"
	if loc[4] >= 0 {
		unit = strings.ToLower(full[loc[4]:loc[5]])
	}

	name := strings.TrimSpace(full[:loc[0]])
	// Common OCR mangling: a stray capital prefixed to the real name.
	name = reLeadingGlyph.ReplaceAllString(name, "")
	name = cleanName(name)
	if !validName(name, 3) {
		return entity.Product{}, false
	}

	prod := entity.Product{
		Name:  name,
		Price: &price,
		Unit:  unit,
	}
	if len(group) > 0 {
		prod.Confidence = confSum / float64(len(group))
	}
	return prod, true
}

func detectSection(line string) (constants.Section, bool) {
	if len(line) >= 40 || strings.ContainsAny(line, "$0123456789") {
		return "", false
	}
	return constants.Canonicalize(line)
}

func sectionOrFeatured(s string) string {
	if s == "" {
		return string(constants.Featured)
	}
	return s
}

func cleanName(name string) string {
	name = reJunkDashes.ReplaceAllString(name, " ")
	name = reMultiSpace.ReplaceAllString(name, " ")
	name = strings.Trim(name, " .,")
	return strings.TrimSpace(name)
}

// validName enforces the candidate invariant: long enough, at least one
// letter, and not a boilerplate phrase.
func validName(name string, minLen int) bool {
	if len(name) < minLen {
		return false
	}
	hasLetter := false
	for _, r := range name {
		if unicode.IsLetter(r) {
			hasLetter = true
			break
		}
	}
	if !hasLetter {
		return false
	}
	lower := strings.ToLower(name)
	for _, fp := range falsePositives {
		if strings.Contains(lower, fp) {
			return false
		}
	}
	return true
}
