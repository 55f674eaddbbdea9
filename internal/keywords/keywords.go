package keywords

import (
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// Checker reports whether a text contains any of a configured set of words
type Checker struct {
	words  []string
	logger *zap.Logger
}

// NewChecker creates a new keyword checker
func NewChecker(words []string, logger *zap.Logger) *Checker {
	// Normalize words (lowercase, no blanks)
	normalized := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			normalized = append(normalized, w)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized keyword checker", zap.Strings("keywords", normalized))
	}

	return &Checker{
		words:  normalized,
		logger: logger,
	}
}

// Matches checks if any word of the text starts with a keyword, so suffixed
// forms such as "hadiahnya" count as well
func (c *Checker) Matches(text string) bool {
	if len(c.words) == 0 {
		return false
	}

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, token := range tokens {
		for _, w := range c.words {
			if strings.HasPrefix(token, w) {
				if c.logger != nil {
					c.logger.Debug("Keyword matched", zap.String("keyword", w))
				}
				return true
			}
		}
	}

	return false
}
