package i18n_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/cvdesk/cvdesk/internal/i18n"
	_ "github.com/cvdesk/cvdesk/internal/testing/guard"
)

func TestNegotiateDefaultsToArabic(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	loc := i18n.Negotiate(r)
	assert.Equal(t, "ar", loc.Code())
	assert.True(t, loc.RTL)
	assert.Equal(t, "rtl", loc.Dir())
}

func TestNegotiateAcceptLanguage(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Language", "en-GB,en;q=0.9")

	loc := i18n.Negotiate(r)
	assert.Equal(t, "en", loc.Code())
	assert.False(t, loc.RTL)
	assert.Equal(t, "ltr", loc.Dir())
}

func TestNegotiateCookieBeatsHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Language", "en-US")
	r.AddCookie(&http.Cookie{Name: i18n.CookieName, Value: "ar"})

	loc := i18n.Negotiate(r)
	assert.Equal(t, "ar", loc.Code())
}

func TestNegotiateIgnoresGarbageCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Language", "en")
	r.AddCookie(&http.Cookie{Name: i18n.CookieName, Value: "!!not-a-tag"})

	loc := i18n.Negotiate(r)
	assert.Equal(t, "en", loc.Code())
}

func TestTranslateFallsBackToKey(t *testing.T) {
	ar := i18n.Locale{Tag: language.Arabic, RTL: true}
	en := i18n.Locale{Tag: language.English}

	assert.Equal(t, "Sign In", en.T("login"))
	assert.NotEqual(t, en.T("login"), ar.T("login"))
	assert.Equal(t, "noSuchKey", en.T("noSuchKey"))
	assert.Equal(t, "noSuchKey", ar.T("noSuchKey"))
}

func TestMiddlewareAttachesLocale(t *testing.T) {
	var got i18n.Locale
	h := i18n.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = i18n.LocaleFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Language", "en")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "en", got.Code())
}

func TestSwitchHandlerSetsCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/lang?to=en", nil)
	r.Header.Set("Referer", "/dashboard")
	rec := httptest.NewRecorder()

	i18n.SwitchHandler(rec, r)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, i18n.CookieName, cookies[0].Name)
	assert.Equal(t, "en", cookies[0].Value)
}

func TestSwitchHandlerIgnoresOffSiteReferer(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/lang?to=en", nil)
	r.Header.Set("Referer", "https://evil.example/phish")
	rec := httptest.NewRecorder()

	i18n.SwitchHandler(rec, r)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestSwitchHandlerRejectsUnknownLanguage(t *testing.T) {
	rec := httptest.NewRecorder()
	i18n.SwitchHandler(rec, httptest.NewRequest(http.MethodGet, "/lang?to=fr", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}
