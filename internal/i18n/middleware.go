package i18n

import (
	"context"
	"net/http"

	"github.com/cvdesk/cvdesk/internal/shared"
)

type localeContextKey struct{}

// ContextWithLocale stores the locale in context.
func ContextWithLocale(ctx context.Context, loc Locale) context.Context {
	return context.WithValue(ctx, localeContextKey{}, loc)
}

// LocaleFromContext extracts the locale, defaulting to the preferred
// supported language when the middleware did not run.
func LocaleFromContext(ctx context.Context) Locale {
	if loc, ok := ctx.Value(localeContextKey{}).(Locale); ok {
		return loc
	}
	return Locale{Tag: supported[0], RTL: true}
}

// Middleware negotiates the request language once and attaches it to the
// context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ContextWithLocale(r.Context(), Negotiate(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SwitchHandler persists an explicit language choice and returns to the
// referring page.
func SwitchHandler(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("to")
	if code != "ar" && code != "en" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    code,
		Path:     "/",
		MaxAge:   365 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, shared.LocalPath(r.Referer(), "/"), http.StatusSeeOther)
}
