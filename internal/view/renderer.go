package view

import (
	"log/slog"
	"net/http"

	"github.com/cvdesk/cvdesk/internal/authz"
	"github.com/cvdesk/cvdesk/internal/i18n"
	"github.com/cvdesk/cvdesk/internal/shared"
)

// Renderer bundles the pieces every page handler needs to produce a
// response: templates, CSRF tokens, the flash queue and the sidebar.
type Renderer struct {
	Logger    *slog.Logger
	Templates *Engine
	CSRF      *shared.CSRFManager
	Guard     *authz.Guard
}

// Page renders a template with the request-scoped principal, locale,
// flash and CSRF token filled in.
func (rd *Renderer) Page(w http.ResponseWriter, r *http.Request, template, titleKey string, data any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken := ""
	if rd.CSRF != nil {
		csrfToken, _ = rd.CSRF.EnsureToken(r.Context(), sess)
	}
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	principal := authz.PrincipalFromContext(r.Context())
	locale := i18n.LocaleFromContext(r.Context())
	viewData := TemplateData{
		Title:       locale.T(titleKey),
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Principal:   principal,
		Locale:      locale,
		Nav:         BuildNav(rd.Guard, principal),
		Data:        data,
	}
	w.WriteHeader(status)
	if err := rd.Templates.Render(w, template, viewData); err != nil && rd.Logger != nil {
		rd.Logger.Error("render template", slog.String("template", template), slog.Any("error", err))
	}
}

// RedirectWithFlash queues a flash message and redirects.
func (rd *Renderer) RedirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
