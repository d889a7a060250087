package bot

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pedeja/pedeja-backend/internal/models"
)

// MatchResult is a catalog hit plus the quantity the customer asked for.
type MatchResult struct {
	Product  *models.Product
	Quantity int
}

// CatalogMatcher resolves free text against the catalog. It is an interface
// so the heuristic below can be swapped for a scoring matcher without
// touching the state machine.
type CatalogMatcher interface {
	// Match finds the first product whose name is contained in the input,
	// or whose significant name tokens all appear in the input. A trailing
	// numeric token is read as the requested quantity.
	Match(input string, products []*models.Product) *MatchResult

	// MatchName finds the first product whose name contains the whole
	// input. The pizza-builder states use it so a bare flavor ("calabresa")
	// hits "Pizza Calabresa".
	MatchName(input string, products []*models.Product) *models.Product
}

// HeuristicMatcher is the substring/token matcher the chat flow ships with.
type HeuristicMatcher struct{}

// NewHeuristicMatcher returns the default matcher.
func NewHeuristicMatcher() *HeuristicMatcher {
	return &HeuristicMatcher{}
}

var stripAccents = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize case-folds the text, strips diacritics and drops punctuation so
// "xburguer" and "X-Búrguer" compare equal.
func Normalize(s string) string {
	out, _, err := transform.String(stripAccents, s)
	if err != nil {
		out = s
	}
	out = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, out)
	return strings.ToLower(strings.TrimSpace(out))
}

func (h *HeuristicMatcher) Match(input string, products []*models.Product) *MatchResult {
	clean := Normalize(input)
	if clean == "" {
		return nil
	}

	for _, p := range products {
		name := Normalize(p.Name)
		if name == "" {
			continue
		}
		if strings.Contains(clean, name) || tokensContained(name, clean) {
			return &MatchResult{Product: p, Quantity: parseQuantity(clean)}
		}
	}
	return nil
}

func (h *HeuristicMatcher) MatchName(input string, products []*models.Product) *models.Product {
	clean := Normalize(input)
	if clean == "" {
		return nil
	}

	for _, p := range products {
		if strings.Contains(Normalize(p.Name), clean) {
			return p
		}
	}
	return nil
}

// tokensContained reports whether every significant token (length > 2) of
// the candidate name appears somewhere in the input.
func tokensContained(name, input string) bool {
	significant := 0
	for _, tok := range strings.Fields(name) {
		if len(tok) <= 2 {
			continue
		}
		significant++
		if !strings.Contains(input, tok) {
			return false
		}
	}
	return significant > 0
}

// parseQuantity reads a trailing numeric token as the requested quantity,
// defaulting to 1.
func parseQuantity(input string) int {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return 1
	}
	if qty, err := strconv.Atoi(fields[len(fields)-1]); err == nil && qty >= 1 {
		return qty
	}
	return 1
}
