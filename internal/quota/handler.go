package quota

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rfpdesk/rfpdesk/internal/permissions"
	"github.com/rfpdesk/rfpdesk/internal/platform/httpx"
	"github.com/rfpdesk/rfpdesk/internal/rbac"
	"github.com/rfpdesk/rfpdesk/internal/shared"
)

// Handler serves the API quota endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers quota routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireScope(permissions.KeyAPIQuota, permissions.ScopeRead)).Get("/", h.get)
	r.With(h.rbac.RequireScope(permissions.KeyAPIQuota, permissions.ScopeWrite)).Patch("/", h.update)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.Get(r.Context())
	if err != nil {
		h.logger.Error("get api quota", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, ErrInvalidLimit)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	cfg, err := h.service.Save(r.Context(), actor, in)
	if err != nil {
		if httpx.IsInternal(err) {
			h.logger.Error("save api quota", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg)
}
