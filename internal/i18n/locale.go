// Package i18n resolves the request locale and loads the matching message bundle.
package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

// Locale identifies one of the supported UI languages.
type Locale string

const (
	English Locale = "en"
	French  Locale = "fr"

	// DefaultLocale is used when nothing else matches.
	DefaultLocale = English

	// CookieName remembers the last locale the visitor navigated to.
	CookieName = "NEXT_LOCALE"
)

// Supported lists the locales in switcher order.
var Supported = []Locale{English, French}

var matcher = language.NewMatcher([]language.Tag{language.English, language.French})

// Parse validates a raw locale value.
func Parse(raw string) (Locale, bool) {
	switch Locale(strings.ToLower(strings.TrimSpace(raw))) {
	case English:
		return English, true
	case French:
		return French, true
	}
	return "", false
}

// String implements fmt.Stringer.
func (l Locale) String() string { return string(l) }

// SplitPath separates a leading locale segment from the rest of the path.
// "/fr/invoices/1" yields (French, "/invoices/1", true); "/invoices" yields
// ("", "/invoices", false).
func SplitPath(path string) (Locale, string, bool) {
	trimmed := strings.TrimPrefix(path, "/")
	segment, rest, _ := strings.Cut(trimmed, "/")
	loc, ok := Parse(segment)
	if !ok || segment != string(loc) {
		return "", path, false
	}
	return loc, "/" + rest, true
}

// LocalizePath returns path under the given locale, replacing any existing prefix.
func LocalizePath(path string, loc Locale) string {
	_, rest, _ := SplitPath(path)
	if rest == "" || rest == "/" {
		return "/" + string(loc)
	}
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return "/" + string(loc) + rest
}

// Negotiate picks the locale for a request without a locale prefix: cookie
// first, then Accept-Language, then DefaultLocale.
func Negotiate(r *http.Request) Locale {
	if cookie, err := r.Cookie(CookieName); err == nil {
		if loc, ok := Parse(cookie.Value); ok {
			return loc
		}
	}
	header := r.Header.Get("Accept-Language")
	if header == "" {
		return DefaultLocale
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No || idx < 0 || idx >= len(Supported) {
		return DefaultLocale
	}
	return Supported[idx]
}
