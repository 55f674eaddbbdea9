package core

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageFromCode resolves an ISO 639 code into a Language with its English name
func LanguageFromCode(code string) (Language, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return Language{}, fmt.Errorf("empty language code")
	}
	tag, err := language.Parse(code)
	if err != nil {
		return Language{}, fmt.Errorf("unknown language code %q: %w", code, err)
	}
	base, _ := tag.Base()
	name := display.English.Languages().Name(base)
	if name == "" {
		name = code
	}
	return Language{Code: base.String(), Name: name}, nil
}
