// Package i18n holds the UI message catalog for the supported locales.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Supported locale codes.
const (
	English = "en"
	Chinese = "zh"
)

var (
	supported = []language.Tag{language.English, language.SimplifiedChinese, language.TraditionalChinese}
	matcher   = language.NewMatcher(supported)
	messages  = buildCatalog()
)

// Match picks the best supported locale for the given language preferences,
// which may be plain tags or full Accept-Language values. It returns "" when
// nothing usable was provided.
func Match(prefs ...string) string {
	var tags []language.Tag
	for _, p := range prefs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return ""
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return English
	}
	return code(supported[idx])
}

// Normalize maps any locale string onto a supported code, defaulting to English.
func Normalize(locale string) string {
	if m := Match(locale); m != "" {
		return m
	}
	return English
}

// ForCountry returns the locale implied by an ISO country code, or "".
func ForCountry(country string) string {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "CN", "TW", "HK", "MO", "SG":
		return Chinese
	case "":
		return ""
	default:
		return English
	}
}

// Printer formats catalog messages for locale.
func Printer(locale string) *message.Printer {
	return message.NewPrinter(tag(locale), message.Catalog(messages))
}

// T translates key for locale, formatting args like fmt.Sprintf.
func T(locale, key string, args ...any) string {
	return Printer(locale).Sprintf(key, args...)
}

func tag(locale string) language.Tag {
	if Normalize(locale) == Chinese {
		return language.Chinese
	}
	return language.English
}

func code(t language.Tag) string {
	base, _ := t.Base()
	return base.String()
}

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, zh := range zhMessages {
		_ = b.SetString(language.English, key, key)
		_ = b.SetString(language.Chinese, key, zh)
	}
	return b
}
