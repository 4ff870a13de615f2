package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/folio-studio/folio/internal/platform/httpx"
	"github.com/folio-studio/folio/internal/shared"
	"github.com/folio-studio/folio/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	render         view.Renderer
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	returnTo       *ReturnTo
	tokens         *TokenIssuer
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, render view.Renderer, sessions *shared.SessionManager, csrf *shared.CSRFManager, returnTo *ReturnTo, tokens *TokenIssuer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		render:         render,
		sessionManager: sessions,
		csrfManager:    csrf,
		returnTo:       returnTo,
		tokens:         tokens,
		validator:      validator.New(),
	}
}

// MountRoutes registers the sign-in pages under /admin/auth.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/signin", h.showSignIn)
	r.Post("/signin", h.handleSignIn)
	r.Post("/signout", h.handleSignOut)
}

// MountAPI registers token issuance under /api/auth.
func (h *Handler) MountAPI(r chi.Router) {
	r.Post("/token", h.issueToken)
}

type signInForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signInPageData struct {
	Form   signInForm
	Errors map[string]string
}

func (h *Handler) showSignIn(w http.ResponseWriter, r *http.Request) {
	if callback := r.URL.Query().Get(CallbackParam); callback != "" {
		if err := h.returnTo.Remember(w, r, callback); err != nil {
			h.logger.Warn("remember callback", slog.Any("error", err))
		}
	}
	if ResolveStatus(r) == StatusAuthenticated {
		http.Redirect(w, r, h.returnTo.Take(w, r), http.StatusSeeOther)
		return
	}
	h.render.Render(w, r, "pages/admin/signin.html", "Sign in", signInPageData{}, http.StatusOK)
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	form := signInForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	errs := h.validate(form)

	if len(errs) == 0 {
		principal, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
		switch {
		case err != nil:
			errs["general"] = shared.UserSafeMessage(err)
		case sess == nil:
			h.logger.Error("session missing during sign-in")
			errs["general"] = "Sign-in is temporarily unavailable"
		default:
			if err := h.sessionManager.Renew(r.Context(), sess); err != nil {
				h.logger.Error("renew session", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			sess.SetPrincipal(principal)
			h.csrfManager.Rotate(sess)
			expiresAt := time.Now().Add(h.sessionManager.TTL())
			if err := h.service.RegisterSession(r.Context(), sess.ID, principal.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
				h.logger.Warn("register session", slog.Any("error", err))
			}
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome back, " + principal.Name})
			h.logger.Info("member signed in", slog.Int64("member_id", principal.ID), slog.String("role", principal.Role))
			http.Redirect(w, r, h.returnTo.Take(w, r), http.StatusSeeOther)
			return
		}
	}

	form.Password = ""
	h.render.Render(w, r, "pages/admin/signin.html", "Sign in", signInPageData{Form: form, Errors: errs}, http.StatusBadRequest)
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, SignInPath, http.StatusSeeOther)
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request) {
	var form signInForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if errs := h.validate(form); len(errs) > 0 {
		httpx.Fail(w, http.StatusBadRequest, "Missing required fields", joinErrors(errs))
		return
	}
	principal, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	token, expiresAt, err := h.tokens.Issue(principal)
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, tokenResponse{Token: token, ExpiresAt: expiresAt})
}

func (h *Handler) validate(form signInForm) map[string]string {
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fieldErr := range verrs {
				errs[fieldErr.Field()] = validationMessage(fieldErr)
			}
		} else {
			errs["general"] = err.Error()
		}
	}
	return errs
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}

func joinErrors(errs map[string]string) string {
	parts := make([]string, 0, len(errs))
	for field, msg := range errs {
		parts = append(parts, field+" "+msg)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
