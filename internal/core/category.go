package core

import (
	"strings"
)

var categoryAliases = map[string]RiskCategory{
	"scam":                      CategoryScam,
	"potential scam":            CategoryScam,
	"fraud":                     CategoryScam,
	"phishing":                  CategoryScam,
	"penipuan":                  CategoryScam,
	"potensi penipuan":          CategoryScam,
	"hoax":                      CategoryHoax,
	"hoaks":                     CategoryHoax,
	"misinformation":            CategoryHoax,
	"disinformation":            CategoryHoax,
	"fake news":                 CategoryHoax,
	"gambling":                  CategoryGambling,
	"online gambling":           CategoryGambling,
	"online gambling promotion": CategoryGambling,
	"judi":                      CategoryGambling,
	"judi online":               CategoryGambling,
	"promosi judi online":       CategoryGambling,
	"safe":                      CategorySafe,
	"aman":                      CategorySafe,
	"legitimate":                CategorySafe,
	"unknown":                   CategoryUnknown,
}

// ParseRiskCategory maps a model-produced label onto the category enum
func ParseRiskCategory(label string) (RiskCategory, bool) {
	c, ok := categoryAliases[normalizeLabel(label)]
	return c, ok
}

// ParseSentiment maps a sentiment label onto the sentiment enum.
// "mixed" has no counterpart and is reported as neutral.
func ParseSentiment(label string) (Sentiment, bool) {
	switch normalizeLabel(label) {
	case "positive":
		return SentimentPositive, true
	case "negative":
		return SentimentNegative, true
	case "neutral", "mixed":
		return SentimentNeutral, true
	default:
		return "", false
	}
}

// Valid reports whether c is one of the defined categories
func (c RiskCategory) Valid() bool {
	switch c {
	case CategoryScam, CategoryHoax, CategoryGambling, CategorySafe, CategoryUnknown:
		return true
	}
	return false
}

func normalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	label = strings.Trim(label, `"'.`)
	label = strings.NewReplacer("_", " ", "-", " ").Replace(label)
	return strings.Join(strings.Fields(label), " ")
}
