package billing

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rfpdesk/rfpdesk/internal/permissions"
	"github.com/rfpdesk/rfpdesk/internal/platform/httpx"
	"github.com/rfpdesk/rfpdesk/internal/rbac"
	"github.com/rfpdesk/rfpdesk/internal/shared"
)

// IdempotencyStore guards plan assignment against replays.
type IdempotencyStore interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Handler serves billing endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	rbac        rbac.Middleware
	idempotency IdempotencyStore
}

// NewHandler builds Handler instance. idempotency may be nil.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware, idempotency IdempotencyStore) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac, idempotency: idempotency}
}

// MountRoutes registers billing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireScope(permissions.KeyBilling, permissions.ScopeRead)).Get("/plans", h.listPlans)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireScope(permissions.KeyBilling, permissions.ScopeWrite))
		r.Post("/plans", h.createPlan)
		r.Patch("/plans/{id}", h.updatePlan)
		r.Post("/assign", h.assignPlan)
	})
	r.With(h.rbac.RequireScope(permissions.KeyBilling, permissions.ScopeDelete)).Delete("/plans/{id}", h.deletePlan)
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListPlans(r.Context())
	if err != nil {
		h.fail(w, "list plans", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"plans": plans})
}

func (h *Handler) createPlan(w http.ResponseWriter, r *http.Request) {
	var in PlanInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	plan, err := h.service.CreatePlan(r.Context(), actor, in)
	if err != nil {
		h.fail(w, "create plan", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, plan)
}

func (h *Handler) updatePlan(w http.ResponseWriter, r *http.Request) {
	var in PlanInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	plan, err := h.service.UpdatePlan(r.Context(), actor, chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, "update plan", err)
		return
	}
	httpx.JSON(w, http.StatusOK, plan)
}

func (h *Handler) deletePlan(w http.ResponseWriter, r *http.Request) {
	actor, _ := shared.PrincipalFromContext(r.Context())
	if err := h.service.DeletePlan(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete plan", err)
		return
	}
	httpx.Success(w, "")
}

func (h *Handler) assignPlan(w http.ResponseWriter, r *http.Request) {
	var in Assignment
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	key := strings.TrimSpace(r.Header.Get(shared.IdempotencyHeader))
	if key != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), key, "billing.assign"); err != nil {
			h.fail(w, "assign plan idempotency", err)
			return
		}
	}
	actor, _ := shared.PrincipalFromContext(r.Context())
	result, err := h.service.AssignPlan(r.Context(), actor, in)
	if err != nil {
		if key != "" && h.idempotency != nil {
			if derr := h.idempotency.Delete(r.Context(), key); derr != nil {
				h.logger.Warn("release idempotency key", slog.Any("error", derr))
			}
		}
		h.fail(w, "assign plan", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.IsInternal(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
