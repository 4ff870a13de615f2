package view

import (
	"log/slog"
	"net/http"

	"github.com/folio-studio/folio/internal/shared"
)

// Renderer bundles what handlers need to render pages with session context.
type Renderer struct {
	Engine *Engine
	CSRF   *shared.CSRFManager
	Logger *slog.Logger
}

// Page builds TemplateData for the request, popping one flash message.
func (rd Renderer) Page(r *http.Request, title string, data any) TemplateData {
	sess := shared.SessionFromContext(r.Context())
	var csrfToken string
	if rd.CSRF != nil && sess != nil {
		csrfToken, _ = rd.CSRF.EnsureToken(r.Context(), sess)
	}
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	return TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Principal:   shared.PrincipalFromContext(r.Context()),
		Data:        data,
	}
}

// Render writes the named page with the given status.
func (rd Renderer) Render(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
	viewData := rd.Page(r, title, data)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := rd.Engine.Render(w, name, viewData); err != nil && rd.Logger != nil {
		rd.Logger.Error("render template", slog.Any("error", err), slog.String("template", name))
	}
}

// RedirectWithFlash queues a flash message and issues a 303 redirect.
func (rd Renderer) RedirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
