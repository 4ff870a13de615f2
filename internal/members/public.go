package members

import (
	"log/slog"
	"net/http"

	"github.com/folio-studio/folio/internal/view"
)

// PublicHandler renders the team page.
type PublicHandler struct {
	logger  *slog.Logger
	service *Service
	render  view.Renderer
}

// NewPublicHandler builds PublicHandler instance.
func NewPublicHandler(logger *slog.Logger, service *Service, render view.Renderer) *PublicHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublicHandler{logger: logger, service: service, render: render}
}

// Team serves GET /team.
func (h *PublicHandler) Team(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.Team(r.Context())
	if err != nil {
		h.logger.Error("load team failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render.Render(w, r, "pages/team.html", "Team", map[string]any{"Groups": groups}, http.StatusOK)
}
