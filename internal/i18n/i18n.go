// Package i18n provides the Arabic/English string tables and request
// language negotiation for the web UI.
package i18n

import (
	"net/http"

	"golang.org/x/text/language"
)

// CookieName stores the user's explicit language choice.
const CookieName = "cvdesk_lang"

// Locale describes the language resolved for a request.
type Locale struct {
	Tag language.Tag
	RTL bool
}

// Code returns the two-letter language code.
func (l Locale) Code() string {
	base, _ := l.Tag.Base()
	return base.String()
}

var supported = []language.Tag{
	language.Arabic, // default: the team works primarily in Arabic
	language.English,
}

var matcher = language.NewMatcher(supported)

// Negotiate resolves the request locale. An explicit cookie choice wins
// over the Accept-Language header; anything unrecognised falls back to
// the first supported language.
func Negotiate(r *http.Request) Locale {
	var prefs []language.Tag
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		if tag, err := language.Parse(cookie.Value); err == nil {
			prefs = append(prefs, tag)
		}
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			prefs = append(prefs, tags...)
		}
	}
	tag, _, _ := matcher.Match(prefs...)
	base, _ := tag.Base()
	arabic, _ := language.Arabic.Base()
	return Locale{Tag: tag, RTL: base == arabic}
}

// T translates key into the locale's language. Unknown keys return the
// key itself so a missing entry is visible instead of blank.
func (l Locale) T(key string) string {
	table := english
	if l.RTL {
		table = arabic
	}
	if s, ok := table[key]; ok {
		return s
	}
	return key
}

// Dir returns the writing direction for HTML dir attributes.
func (l Locale) Dir() string {
	if l.RTL {
		return "rtl"
	}
	return "ltr"
}
