package usecase

import (
	"regexp"
	"slices"
	"strings"

	"github.com/aimeal/backend/internal/domain"
)

var punctuationRegex = regexp.MustCompile(`[^\w\s]`)

// Token weight categories for scoring
const (
	weightFood        = 3.0 // Core food terms (milk, chicken, bread)
	weightDescriptive = 2.0 // Descriptive terms (whole, skim, organic)
	weightDefault     = 1.0 // Everything else
	fuzzyWeightFactor = 0.8 // Fuzzy matches get 80% of normal weight
)

// Scoring bonuses
const (
	prefixMatchBonus    = 15.0 // Name starts with the query
	substringMatchBonus = 10.0 // Query is a substring of the name
	brandMatchBonus     = 5.0  // A query token names the brand
)

// foodTerms contains high-importance food keywords (weight 3.0)
var foodTerms = map[string]bool{
	// Proteins
	"chicken": true, "beef": true, "pork": true, "fish": true, "salmon": true,
	"turkey": true, "lamb": true, "shrimp": true, "tuna": true, "bacon": true,
	"sausage": true, "steak": true, "ham": true, "egg": true, "eggs": true,
	// Dairy
	"milk": true, "cheese": true, "yogurt": true, "butter": true, "cream": true,
	// Grains
	"bread": true, "rice": true, "pasta": true, "cereal": true, "oats": true,
	"oatmeal": true, "noodles": true, "tortilla": true, "bagel": true,
	// Produce
	"apple": true, "banana": true, "orange": true, "lettuce": true, "tomato": true,
	"potato": true, "onion": true, "carrot": true, "broccoli": true, "spinach": true,
	"strawberry": true, "blueberry": true, "grapes": true, "avocado": true,
	"cucumber": true, "pepper": true, "corn": true, "beans": true,
	// Beverages
	"juice": true, "soda": true, "coffee": true, "tea": true, "water": true,
	// Snacks, sweets and prepared foods
	"chips": true, "cookies": true, "chocolate": true, "cake": true, "ice": true,
	"pizza": true, "burger": true, "sandwich": true, "soup": true, "salad": true,
	"sushi": true, "fries": true, "hotdog": true,
}

// descriptiveTerms contains medium-importance descriptive keywords (weight 2.0)
var descriptiveTerms = map[string]bool{
	"whole": true, "skim": true, "reduced": true, "fat": true, "low": true,
	"nonfat": true, "organic": true, "fresh": true, "frozen": true, "dried": true,
	"raw": true, "cooked": true, "grilled": true, "baked": true, "fried": true,
	"roasted": true, "smoked": true, "steamed": true, "plain": true, "sweet": true,
	"spicy": true, "light": true, "diet": true, "white": true, "brown": true,
	"unsweetened": true, "salted": true, "unsalted": true, "boneless": true,
	"skinless": true, "lean": true, "greek": true,
}

// stopWords are dropped before matching
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "with": true, "for": true,
	"oz": true, "fl": true, "lb": true, "ml": true, "kg": true,
	"pack": true, "count": true, "ct": true, "size": true, "value": true,
	"food": true, "product": true, "brand": true,
}

// RelevanceRanker orders remote search results by how well they match the query
type RelevanceRanker struct {
	fuzzyEditDistance int
}

// NewRelevanceRanker creates a ranker. editDistance <= 0 defaults to 1.
func NewRelevanceRanker(editDistance int) *RelevanceRanker {
	if editDistance <= 0 {
		editDistance = 1
	}
	return &RelevanceRanker{fuzzyEditDistance: editDistance}
}

// Rank returns items sorted by descending score. Equal scores keep their input order.
func (r *RelevanceRanker) Rank(query string, items []domain.FoodItem) []domain.FoodItem {
	type scored struct {
		item  domain.FoodItem
		score float64
	}

	ranked := make([]scored, len(items))
	for i, item := range items {
		ranked[i] = scored{item: item, score: r.Score(query, item)}
	}

	slices.SortStableFunc(ranked, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})

	out := make([]domain.FoodItem, len(ranked))
	for i, s := range ranked {
		out[i] = s.item
	}
	return out
}

// Score computes a 0-100 relevance of item for query.
// Weighted query token coverage is the base, with bonuses for
// prefix, substring and brand matches.
func (r *RelevanceRanker) Score(query string, item domain.FoodItem) float64 {
	queryTokens := tokenize(query)
	nameTokens := tokenize(item.Name)
	if len(queryTokens) == 0 || len(nameTokens) == 0 {
		return 0
	}

	var matched, total float64
	for _, qt := range queryTokens {
		w := tokenWeight(qt)
		total += w
		if slices.Contains(nameTokens, qt) {
			matched += w
			continue
		}
		for _, nt := range nameTokens {
			if fuzzyTokenMatch(qt, nt, r.fuzzyEditDistance) {
				matched += w * fuzzyWeightFactor
				break
			}
		}
	}

	score := matched / total * 70

	queryLower := strings.ToLower(strings.TrimSpace(query))
	nameLower := strings.ToLower(item.Name)
	if strings.HasPrefix(nameLower, queryLower) {
		score += prefixMatchBonus
	} else if strings.Contains(nameLower, queryLower) {
		score += substringMatchBonus
	}

	if item.Brand != "" {
		brandTokens := tokenize(item.Brand)
		for _, qt := range queryTokens {
			if slices.Contains(brandTokens, qt) {
				score += brandMatchBonus
				break
			}
		}
	}

	return min(score, 100)
}

func tokenWeight(token string) float64 {
	switch {
	case foodTerms[token]:
		return weightFood
	case descriptiveTerms[token]:
		return weightDescriptive
	default:
		return weightDefault
	}
}

// tokenize splits a string into normalized lowercase tokens.
// Removes punctuation, stop words and pure numeric tokens.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 || stopWords[word] || isNumeric(word) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

// fuzzyTokenMatch checks if two tokens are similar within the edit distance threshold
func fuzzyTokenMatch(token1, token2 string, threshold int) bool {
	if token1 == token2 {
		return true
	}

	// Only apply fuzzy matching to tokens of 4+ chars to avoid false positives
	if len(token1) < 4 || len(token2) < 4 {
		return false
	}

	lenDiff := len(token1) - len(token2)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > threshold {
		return false
	}

	return levenshteinDistance(token1, token2) <= threshold
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	// Two rows instead of the full matrix
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}
