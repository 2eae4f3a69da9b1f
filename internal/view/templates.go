package view

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/cvdesk/cvdesk/internal/authz"
	"github.com/cvdesk/cvdesk/internal/i18n"
	"github.com/cvdesk/cvdesk/internal/shared"
	"github.com/cvdesk/cvdesk/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// NavItem is a sidebar entry. Entries carrying a capability are shown
// only when the principal's role grants it; the routing guard remains the
// authoritative check.
type NavItem struct {
	Path       string
	LabelKey   string
	Capability authz.Capability
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Principal   *authz.Principal
	Locale      i18n.Locale
	Nav         []NavItem
	Data        any
}

// NewEngine parses the embedded templates.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
		"formatDateTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates,
		"templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}

// defaultNav mirrors the application sidebar.
var defaultNav = []NavItem{
	{Path: "/dashboard", LabelKey: "dashboard"},
	{Path: "/tasks", LabelKey: "myTasks"},
	{Path: "/tasks/new", LabelKey: "newTask", Capability: authz.CapEditAll},
	{Path: "/all-tasks", LabelKey: "allTasks", Capability: authz.CapViewAll},
	{Path: "/accounts", LabelKey: "accounts", Capability: authz.CapViewAccounts},
	{Path: "/users", LabelKey: "users", Capability: authz.CapManageUsers},
	{Path: "/profile", LabelKey: "profile"},
}

// BuildNav filters the sidebar for a principal using the same capability
// table the router enforces.
func BuildNav(guard *authz.Guard, principal *authz.Principal) []NavItem {
	if principal == nil {
		return nil
	}
	items := make([]NavItem, 0, len(defaultNav))
	for _, item := range defaultNav {
		if item.Capability != "" && !guard.Can(principal, item.Capability) {
			continue
		}
		items = append(items, item)
	}
	return items
}
