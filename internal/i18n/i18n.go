package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

//go:embed locales/*.json
var localeFS embed.FS

// Bundle holds the translation dictionaries loaded from the embedded locale
// files. Lookups fall back to the default locale and finally to the key
// itself, so a missing translation never breaks a response.
type Bundle struct {
	defaultLocale string
	messages      map[string]map[string]string
}

// NewBundle loads every embedded locale file. The file name without extension
// is the locale code.
func NewBundle(defaultLocale string) (*Bundle, error) {
	entries, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read locales: %w", err)
	}

	messages := make(map[string]map[string]string, len(entries))
	for _, entry := range entries {
		locale := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))

		data, err := localeFS.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", locale, err)
		}

		dict := make(map[string]string)
		if err := json.Unmarshal(data, &dict); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", locale, err)
		}
		messages[locale] = dict
	}

	if _, ok := messages[defaultLocale]; !ok {
		return nil, fmt.Errorf("default locale %q has no dictionary", defaultLocale)
	}

	return &Bundle{defaultLocale: defaultLocale, messages: messages}, nil
}

// T returns the translation of key in the given locale
func (b *Bundle) T(locale, key string) string {
	if dict, ok := b.messages[locale]; ok {
		if msg, ok := dict[key]; ok {
			return msg
		}
	}
	if msg, ok := b.messages[b.defaultLocale][key]; ok {
		return msg
	}
	return key
}

// Locales returns the locale codes with a loaded dictionary
func (b *Bundle) Locales() []string {
	locales := make([]string, 0, len(b.messages))
	for locale := range b.messages {
		locales = append(locales, locale)
	}
	return locales
}

// ValidateLocales checks that every configured locale has a dictionary, so a
// typo in the locale list fails at startup instead of at lookup time.
func (b *Bundle) ValidateLocales(locales []string) error {
	for _, locale := range locales {
		if !b.Supported(locale) {
			return fmt.Errorf("locale %q has no dictionary", locale)
		}
	}
	return nil
}

// Supported reports whether a dictionary exists for the locale
func (b *Bundle) Supported(locale string) bool {
	_, ok := b.messages[locale]
	return ok
}

// DefaultLocale returns the fallback locale code
func (b *Bundle) DefaultLocale() string {
	return b.defaultLocale
}
