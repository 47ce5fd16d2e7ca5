package services

import (
	"context"
	"strings"
	"unicode"

	"finance-tax-api/internal/models"
)

// Classification sources
const (
	SourceKeyword  = "keyword"
	SourceFallback = "fallback"
	SourceOverride = "override"
)

// Classification is the typed result of classifying a purchase description
type Classification struct {
	Category   models.Category `json:"category"`
	Imported   bool            `json:"imported"`
	Origin     models.Origin   `json:"origin"`
	Confidence float64         `json:"confidence"`
	Source     string          `json:"source"`
	Matched    []string        `json:"matched,omitempty"`
}

// ItemClassifier turns a free-text description into a category and origin.
// Implementations may call out to external providers; the engine only sees the result.
type ItemClassifier interface {
	Classify(ctx context.Context, description string) (*Classification, error)
}

// KeywordClassifier is a deterministic classifier driven by keyword tables
type KeywordClassifier struct {
	categoryKeywords  map[models.Category][]string
	importHints       []string
	localHints        []string
	importedByDefault map[models.Category]bool
}

// NewKeywordClassifier creates a classifier with the default keyword tables
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		categoryKeywords: map[models.Category][]string{
			models.CategoryFood: {
				"rice", "bread", "milk", "tea", "sugar", "flour", "dhal", "fish", "chicken",
				"egg", "eggs", "fruit", "vegetables", "biscuits", "coconut", "spices", "cheese",
			},
			models.CategoryFuel: {
				"petrol", "diesel", "fuel", "kerosene", "lpg", "octane", "gasoline",
			},
			models.CategoryVehicles: {
				"car", "motorbike", "motorcycle", "scooter", "tyre", "tyres", "vehicle", "van",
				"three-wheeler", "tuk", "suv", "truck",
			},
			models.CategoryClothing: {
				"shirt", "trousers", "dress", "saree", "shoes", "jacket", "t-shirt", "jeans",
				"sarong", "socks", "clothing",
			},
			models.CategoryElectronics: {
				"phone", "smartphone", "laptop", "television", "tv", "headphones", "charger",
				"camera", "tablet", "computer", "monitor", "router", "iphone",
			},
			models.CategoryMedical: {
				"medicine", "pills", "paracetamol", "vitamins", "syrup", "pharmacy", "bandage",
				"insulin", "antibiotics", "inhaler",
			},
		},
		importHints: []string{
			"imported", "import", "apple", "samsung", "sony", "toyota", "honda", "nissan",
			"nike", "adidas", "made in china", "made in japan", "made in india", "foreign",
		},
		localHints: []string{
			"local", "locally", "sri lankan", "ceylon", "made in sri lanka", "homemade",
		},
		importedByDefault: map[models.Category]bool{
			models.CategoryFuel:        true,
			models.CategoryVehicles:    true,
			models.CategoryElectronics: true,
		},
	}
}

// Classify picks the category with the most keyword hits; ties go to the earlier category
// in models.AllCategories. Descriptions with no hits fall back to "other".
func (c *KeywordClassifier) Classify(ctx context.Context, description string) (*Classification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := models.ValidateRequired(description, "description"); err != nil {
		return nil, err
	}

	text := strings.ToLower(models.SanitizeString(description))
	words := tokenize(text)

	best := models.CategoryOther
	bestHits := 0
	var matched []string

	for _, category := range models.AllCategories() {
		var hits []string
		for _, keyword := range c.categoryKeywords[category] {
			if containsKeyword(text, words, keyword) {
				hits = append(hits, keyword)
			}
		}
		if len(hits) > bestHits {
			best = category
			bestHits = len(hits)
			matched = hits
		}
	}

	result := &Classification{
		Category:   best,
		Imported:   c.importedByDefault[best],
		Confidence: 0.3,
		Source:     SourceFallback,
		Matched:    matched,
	}
	if bestHits > 0 {
		result.Source = SourceKeyword
		result.Confidence = confidenceFor(bestHits)
	}

	switch {
	case c.hasHint(text, words, c.localHints):
		result.Imported = false
	case c.hasHint(text, words, c.importHints):
		result.Imported = true
	}
	result.Origin = models.OriginFor(result.Imported)

	return result, nil
}

func (c *KeywordClassifier) hasHint(text string, words map[string]bool, hints []string) bool {
	for _, hint := range hints {
		if containsKeyword(text, words, hint) {
			return true
		}
	}
	return false
}

func confidenceFor(hits int) float64 {
	switch {
	case hits >= 3:
		return 0.95
	case hits == 2:
		return 0.85
	default:
		return 0.7
	}
}

// containsKeyword matches single words by token and phrases by substring
func containsKeyword(text string, words map[string]bool, keyword string) bool {
	if strings.Contains(keyword, " ") {
		return strings.Contains(text, keyword)
	}
	return words[keyword]
}

func tokenize(text string) map[string]bool {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})

	words := make(map[string]bool, len(fields))
	for _, field := range fields {
		words[field] = true
	}
	return words
}
