package diagnostics

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/folio-studio/folio/internal/platform/httpx"
	"github.com/folio-studio/folio/internal/rbac"
)

// Handler serves the /api/admin diagnostic endpoints.
type Handler struct {
	logger     *slog.Logger
	inspector  Inspector
	rbac       rbac.Middleware
	production bool
}

// NewHandler builds Handler. Stack traces are attached to failures only
// when production is false.
func NewHandler(logger *slog.Logger, inspector Inspector, mw rbac.Middleware, production bool) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, inspector: inspector, rbac: mw, production: production}
}

// MountRoutes registers the endpoints under /api/admin.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireManage(rbac.ResourceDiagnostics))
		r.Get("/test-db", h.testDB)
		r.Get("/inspect-table", h.inspectTable)
	})
}

func (h *Handler) testDB(w http.ResponseWriter, r *http.Request) {
	status, err := h.inspector.Ping(r.Context())
	if err != nil {
		h.fail(w, "Database connection failed", err)
		return
	}
	httpx.OK(w, status)
}

func (h *Handler) inspectTable(w http.ResponseWriter, r *http.Request) {
	table := strings.TrimSpace(r.URL.Query().Get("table"))
	if table == "" {
		httpx.Fail(w, http.StatusBadRequest, "Missing table parameter", "")
		return
	}
	if !Inspectable(table) {
		httpx.Fail(w, http.StatusBadRequest, "Table is not inspectable", table)
		return
	}
	report, err := h.inspector.InspectTable(r.Context(), table)
	if errors.Is(err, ErrTableNotAllowed) {
		httpx.Fail(w, http.StatusBadRequest, "Table is not inspectable", table)
		return
	}
	if err != nil {
		h.fail(w, "Table inspection failed", err)
		return
	}
	httpx.OK(w, report)
}

func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, slog.Any("error", err))
	env := httpx.Envelope{Success: false, Error: message, Details: err.Error()}
	if !h.production {
		env.Stack = string(debug.Stack())
	}
	httpx.JSON(w, http.StatusInternalServerError, env)
}
