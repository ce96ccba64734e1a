// Package i18n resolves configured locales to the languages roster
// catalogs are written in.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Supported lists the catalog languages. The first entry is the fallback.
var Supported = []language.Tag{language.English, language.German}

var matcher = language.NewMatcher(Supported)

// Match returns the supported language closest to locale. Unknown but
// well-formed locales fall back to English.
func Match(locale string) (language.Tag, error) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return Supported[0], nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Und, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return Supported[0], nil
	}
	return Supported[index], nil
}

// Printer returns a message printer for the language matched to locale.
func Printer(locale string) (*message.Printer, error) {
	tag, err := Match(locale)
	if err != nil {
		return nil, err
	}
	return message.NewPrinter(tag), nil
}
