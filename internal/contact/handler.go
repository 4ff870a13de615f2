package contact

import (
	"errors"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/folio-studio/folio/internal/platform/httpx"
	"github.com/folio-studio/folio/internal/rbac"
	"github.com/folio-studio/folio/internal/shared"
	"github.com/folio-studio/folio/internal/view"
)

// IdempotencyHeader carries the optional replay-protection key.
const IdempotencyHeader = "Idempotency-Key"

// Handler serves the contact API, the public contact page and the admin
// submission inbox.
type Handler struct {
	logger  *slog.Logger
	service *Service
	render  view.Renderer
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, render view.Renderer, mw rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, render: render, rbac: mw}
}

// MountAPI registers POST /contact under the API router.
func (h *Handler) MountAPI(r chi.Router) {
	r.Post("/contact", h.submitAPI)
}

// MountPublic registers the public contact page.
func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/", h.showForm)
	r.Post("/", h.submitForm)
}

// MountAdmin registers the submission inbox.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermViewSubmissions))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
}

type submitResponse struct {
	Success   bool  `json:"success"`
	ID        int64 `json:"id,omitempty"`
	Duplicate bool  `json:"duplicate,omitempty"`
}

func (h *Handler) submitAPI(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(w, r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	res, err := h.service.Submit(r.Context(), in)
	switch {
	case errors.Is(err, ErrMissingFields):
		httpx.Fail(w, http.StatusBadRequest, "Missing required fields", "")
	case errors.Is(err, shared.ErrValidation):
		httpx.Fail(w, http.StatusBadRequest, shared.UserSafeMessage(err), "")
	case err != nil:
		h.logger.Error("store contact submission", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "Failed to save submission", err.Error())
	default:
		httpx.JSON(w, http.StatusOK, submitResponse{Success: true, ID: res.ID, Duplicate: res.Duplicate})
	}
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, "pages/contact.html", "Contact", map[string]any{"Form": Input{}, "Errors": map[string]string{}}, http.StatusOK)
}

func (h *Handler) submitForm(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := formInput(r)
	if _, err := h.service.Submit(r.Context(), in); err != nil {
		status := http.StatusBadRequest
		message := "Please fill in your name, email and message"
		switch {
		case errors.Is(err, ErrMissingFields):
		case errors.Is(err, shared.ErrValidation):
			message = shared.UserSafeMessage(err)
		default:
			h.logger.Error("store contact submission", slog.Any("error", err))
			status = http.StatusInternalServerError
			message = "We could not send your message, please try again"
		}
		h.render.Render(w, r, "pages/contact.html", "Contact", map[string]any{
			"Form":   in,
			"Errors": map[string]string{"general": message},
		}, status)
		return
	}
	h.render.RedirectWithFlash(w, r, "/contact", "success", "Thanks! Your message is on its way.")
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := shared.ParseListFilters(q)
	flaggedOnly := q.Get("flagged") == "1"
	items, pagination, err := h.service.List(r.Context(), filters, flaggedOnly)
	if err != nil {
		h.logger.Error("list submissions", slog.Any("error", err))
		h.render.Render(w, r, "pages/admin/submissions/list.html", "Submissions", map[string]any{
			"Errors": map[string]string{"general": shared.UserSafeMessage(err)},
		}, http.StatusInternalServerError)
		return
	}
	h.render.Render(w, r, "pages/admin/submissions/list.html", "Submissions", map[string]any{
		"Submissions": items,
		"Search":      filters.Search,
		"FlaggedOnly": flaggedOnly,
		"Pager":       view.NewPager(pagination, r.URL.Path, q),
	}, http.StatusOK)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid submission ID", http.StatusBadRequest)
		return
	}
	sub, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("load submission", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render.Render(w, r, "pages/admin/submissions/show.html", "Submission", map[string]any{"Submission": sub}, http.StatusOK)
}

// maxFormBody caps urlencoded and multipart contact bodies.
const maxFormBody = 64 << 10

func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(maxFormBody)
	}
	return r.ParseForm()
}

func decodeInput(w http.ResponseWriter, r *http.Request) (Input, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var in Input
	if mediaType == "application/json" {
		if err := httpx.DecodeJSON(r, &in); err != nil {
			return Input{}, err
		}
	} else {
		if err := parseForm(w, r); err != nil {
			return Input{}, err
		}
		in = formInput(r)
	}
	in.IP = clientIP(r)
	in.UserAgent = r.UserAgent()
	in.IdempotencyKey = r.Header.Get(IdempotencyHeader)
	return in, nil
}

func formInput(r *http.Request) Input {
	return Input{
		Name:      r.PostFormValue("name"),
		Email:     r.PostFormValue("email"),
		Subject:   r.PostFormValue("subject"),
		Message:   r.PostFormValue("message"),
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
